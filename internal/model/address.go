package model

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// Address unit bounds.
const (
	MinEntrance  = 1
	MaxEntrance  = 40
	MinFloor     = 1
	MaxFloor     = 250
	MinApartment = 1
	MaxApartment = 32000
	MinIntercom  = 1
	MaxIntercom  = 32000
)

// Field length limits for base addresses.
const (
	MaxHouseLen      = 30
	MaxBuildingLen   = 10
	MaxPostalCodeLen = 10
)

// BaseAddress is one physical building: a street plus house and optional building.
// CityID, NodeID and CountryID are copied from the street when first saved.
type BaseAddress struct {
	ID            int64     `json:"id"`
	StreetID      int64     `json:"street_id"`
	CityID        int64     `json:"city_id"`
	NodeID        int64     `json:"node_id"`
	CountryID     int64     `json:"country_id"`
	House         string    `json:"house"`
	Building      string    `json:"building,omitempty"`
	PostalCode    *string   `json:"postal_code,omitempty"`
	FullAddress   *string   `json:"full_address,omitempty"`
	NormalAddress *string   `json:"normal_address,omitempty"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	S2Cell        *string   `json:"s2_cell,omitempty"`
	IsVerified    bool      `json:"is_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Coordinates returns the stored point when both axes are set.
func (b BaseAddress) Coordinates() (lat, lon float64, ok bool) {
	if b.Latitude == nil || b.Longitude == nil {
		return 0, 0, false
	}
	return *b.Latitude, *b.Longitude, true
}

// Validate checks the base address invariants.
func (b BaseAddress) Validate() error {
	house := strings.TrimSpace(b.House)
	if house == "" {
		return eris.Wrap(ErrInvalid, "model: base address house is required")
	}
	if utf8.RuneCountInString(house) > MaxHouseLen {
		return eris.Wrapf(ErrInvalid, "model: house %q longer than %d", house, MaxHouseLen)
	}
	if utf8.RuneCountInString(b.Building) > MaxBuildingLen {
		return eris.Wrapf(ErrInvalid, "model: building %q longer than %d", b.Building, MaxBuildingLen)
	}
	if b.PostalCode != nil && utf8.RuneCountInString(*b.PostalCode) > MaxPostalCodeLen {
		return eris.Wrapf(ErrInvalid, "model: postal code %q longer than %d", *b.PostalCode, MaxPostalCodeLen)
	}
	return ValidateCoordinates(b.Latitude, b.Longitude)
}

// Address is one unit (entrance + apartment) inside a base address.
type Address struct {
	ID        int64     `json:"id"`
	BaseID    int64     `json:"base_id"`
	Entrance  int       `json:"entrance"`
	Floor     *int      `json:"floor,omitempty"`
	Apartment int       `json:"apartment"`
	Intercom  *int      `json:"intercom,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the unit bounds.
func (a Address) Validate() error {
	if a.Entrance < MinEntrance || a.Entrance > MaxEntrance {
		return eris.Wrapf(ErrInvalid, "model: entrance %d out of range [%d,%d]", a.Entrance, MinEntrance, MaxEntrance)
	}
	if a.Floor != nil && (*a.Floor < MinFloor || *a.Floor > MaxFloor) {
		return eris.Wrapf(ErrInvalid, "model: floor %d out of range [%d,%d]", *a.Floor, MinFloor, MaxFloor)
	}
	if a.Apartment < MinApartment || a.Apartment > MaxApartment {
		return eris.Wrapf(ErrInvalid, "model: apartment %d out of range [%d,%d]", a.Apartment, MinApartment, MaxApartment)
	}
	if a.Intercom != nil && (*a.Intercom < MinIntercom || *a.Intercom > MaxIntercom) {
		return eris.Wrapf(ErrInvalid, "model: intercom %d out of range [%d,%d]", *a.Intercom, MinIntercom, MaxIntercom)
	}
	return nil
}

// FullAddress appends the unit to the base's composed address.
func (a Address) FullAddress(base BaseAddress) string {
	return a.withUnit(deref(base.FullAddress))
}

// NormalAddress appends the unit to the provider-normalized address.
func (a Address) NormalAddress(base BaseAddress) string {
	return a.withUnit(deref(base.NormalAddress))
}

func (a Address) withUnit(baseStr string) string {
	if baseStr == "" {
		return ""
	}
	parts := []string{baseStr, "подъезд " + strconv.Itoa(a.Entrance)}
	if a.Floor != nil {
		parts = append(parts, "этаж "+strconv.Itoa(*a.Floor))
	}
	parts = append(parts, "кв. "+strconv.Itoa(a.Apartment))
	return strings.Join(parts, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
