package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StreetType is a kind of thoroughfare with its abbreviations and accepted spellings.
type StreetType struct {
	ID         int64    `json:"id"`
	ShortRU    string   `json:"short_ru"`
	ShortEN    string   `json:"short_en"`
	LongRU     string   `json:"long_ru"`
	LongEN     string   `json:"long_en"`
	VariantsRU []string `json:"variants_ru"`
	VariantsEN []string `json:"variants_en"`
	Order      int      `json:"order"`
}

// Matches reports whether token spells this street type in either language.
func (t StreetType) Matches(token string) bool {
	folder := cases.Fold()
	want := folder.String(strings.TrimSpace(token))
	if want == "" {
		return false
	}
	candidates := []string{t.ShortRU, t.ShortEN, t.LongRU, t.LongEN}
	candidates = append(candidates, t.VariantsRU...)
	candidates = append(candidates, t.VariantsEN...)
	for _, c := range candidates {
		if folder.String(c) == want {
			return true
		}
	}
	return false
}

// Street belongs to a city and has a type.
type Street struct {
	ID           int64     `json:"id"`
	CityID       int64     `json:"city_id"`
	StreetTypeID int64     `json:"street_type_id"`
	NameNative   string    `json:"name_native"`
	NameLower    string    `json:"name_lower"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SetName sets the native name and recomputes the lookup key.
func (s *Street) SetName(name string) {
	s.NameNative = strings.TrimSpace(name)
	s.NameLower = LowerName(s.NameNative)
}

// NameWithType renders "ул. Ленина". Empty when the name is empty.
func (s Street) NameWithType(t StreetType) string {
	if s.NameNative == "" {
		return ""
	}
	return t.ShortRU + " " + s.NameNative
}

// LowerName lower-cases a street name with Russian casing rules.
func LowerName(name string) string {
	return cases.Lower(language.Russian).String(name)
}
