// Package model defines the geographic reference entities and addresses.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrInvalid marks a value that violates an entity invariant.
var ErrInvalid = eris.New("invalid value")

// PathSeparator joins the segments of FullPath.
const PathSeparator = " > "

const wikiDataBaseURL = "https://www.wikidata.org/wiki/"

func wikiDataURL(id string) string {
	if id == "" {
		return ""
	}
	return wikiDataBaseURL + id
}

// PartWorld is a continent.
type PartWorld struct {
	ID         int64  `json:"id"`
	NameRU     string `json:"name_ru"`
	NameEN     string `json:"name_en"`
	WikiDataID string `json:"wiki_data_id"`
}

// WikiDataURL returns the knowledge-base page for the continent.
func (p PartWorld) WikiDataURL() string { return wikiDataURL(p.WikiDataID) }

// RegionWorld is a world region within a continent.
type RegionWorld struct {
	ID          int64  `json:"id"`
	PartWorldID int64  `json:"part_world_id"`
	NameRU      string `json:"name_ru"`
	NameEN      string `json:"name_en"`
	WikiDataID  string `json:"wiki_data_id"`
}

// WikiDataURL returns the knowledge-base page for the region.
func (r RegionWorld) WikiDataURL() string { return wikiDataURL(r.WikiDataID) }

// Country is a sovereign or dependent territory.
type Country struct {
	ID                 int64     `json:"id"`
	RegionWorldID      int64     `json:"region_world_id"`
	NameRU             string    `json:"name_ru"`
	NameOfficialRU     string    `json:"name_official_ru"`
	NameEN             string    `json:"name_en"`
	NameOfficialEN     string    `json:"name_official_en"`
	CapitalRU          string    `json:"capital_ru"`
	CapitalEN          string    `json:"capital_en"`
	EmojiCode          *string   `json:"emoji_code,omitempty"`
	EmojiFlag          *string   `json:"emoji_flag,omitempty"`
	Flag               *string   `json:"flag,omitempty"` // path to the SVG asset
	CurrencyCode       *string   `json:"currency_code,omitempty"`
	CurrencyName       *string   `json:"currency_name,omitempty"`
	CurrencySymbol     *string   `json:"currency_symbol,omitempty"`
	PhoneCode          *string   `json:"phone_code,omitempty"`
	CCA2               *string   `json:"cca2,omitempty"`
	CCA3               *string   `json:"cca3,omitempty"`
	CCN3               *string   `json:"ccn3,omitempty"`
	TopLevelDomain     *string   `json:"top_level_domain,omitempty"`
	IsLandlocked       bool      `json:"is_landlocked"`
	IsIndependent      bool      `json:"is_independent"`
	IsUNMember         bool      `json:"is_un_member"`
	Area               float64   `json:"area"`
	Population         int64     `json:"population"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	WikiDataID         string    `json:"wiki_data_id"`
	IsManuallyVerified bool      `json:"is_manually_verified"`
	CreatedAt          time.Time `json:"created_at"`
	EditedAt           time.Time `json:"edited_at"`
}

// PopulationDensity returns people per unit of area, or 0 when the area is unknown.
func (c Country) PopulationDensity() float64 {
	if c.Area == 0 {
		return 0
	}
	return float64(c.Population) / c.Area
}

// WikiDataURL returns the knowledge-base page for the country.
func (c Country) WikiDataURL() string { return wikiDataURL(c.WikiDataID) }

// Validate checks the country invariants.
func (c Country) Validate() error {
	if c.Area <= 0 {
		return eris.Wrapf(ErrInvalid, "model: country %q area must be positive", c.NameEN)
	}
	if c.Population <= 0 {
		return eris.Wrapf(ErrInvalid, "model: country %q population must be positive", c.NameEN)
	}
	if err := ValidateCoordinates(&c.Latitude, &c.Longitude); err != nil {
		return err
	}
	if c.CCA2 != nil && len(*c.CCA2) != 2 {
		return eris.Wrapf(ErrInvalid, "model: country cca2 %q must have two letters", *c.CCA2)
	}
	return nil
}

// UnknownNodeTypeID is the node type assigned when the feed's kind is not recognized.
const UnknownNodeTypeID int64 = 0

// NodeType is a kind of administrative division.
type NodeType struct {
	ID            int64   `json:"id"`
	NameEN        string  `json:"name_en"`
	NameRU        *string `json:"name_ru,omitempty"`
	DescriptionEN *string `json:"description_en,omitempty"`
	DescriptionRU *string `json:"description_ru,omitempty"`
}

// Node is an administrative division. Nodes form a forest per country via ParentID.
type Node struct {
	ID         int64     `json:"id"`
	CountryID  int64     `json:"country_id"`
	NodeTypeID int64     `json:"node_type_id"`
	ParentID   *int64    `json:"parent_id,omitempty"`
	Level      *int      `json:"level,omitempty"`
	NameRU     string    `json:"name_ru"`
	NameEN     string    `json:"name_en"`
	NameNative string    `json:"name_native"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	TimeZoneID *int64    `json:"timezone_id,omitempty"`
	Population *int64    `json:"population,omitempty"`
	ISOCode    *string   `json:"iso_code,omitempty"`
	WikiDataID *string   `json:"wiki_data_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FullPath renders "country > ancestor > ... > node". ancestors are ordered root-to-leaf
// and exclude the node itself.
func (n Node) FullPath(countryName string, ancestors []Node) string {
	parts := make([]string, 0, len(ancestors)+2)
	parts = append(parts, countryName)
	for _, a := range ancestors {
		parts = append(parts, a.NameRU)
	}
	parts = append(parts, n.NameRU)
	return strings.Join(parts, PathSeparator)
}

// NameWithType prefixes the native name with the division kind, e.g. "область Московская".
func (n Node) NameWithType(t *NodeType) string {
	if t == nil || t.NameRU == nil || *t.NameRU == "" {
		return n.NameNative
	}
	return *t.NameRU + " " + n.NameNative
}

// WikiDataURL returns the knowledge-base page, or "" when unknown.
func (n Node) WikiDataURL() string {
	if n.WikiDataID == nil {
		return ""
	}
	return wikiDataURL(*n.WikiDataID)
}

// Validate checks the node invariants that do not need the store.
func (n Node) Validate() error {
	if n.ParentID != nil && *n.ParentID == n.ID && n.ID != 0 {
		return eris.Wrapf(ErrInvalid, "model: node %d cannot be its own parent", n.ID)
	}
	return ValidateCoordinates(n.Latitude, n.Longitude)
}

func (n Node) String() string {
	return fmt.Sprintf("%s (%d)", n.NameRU, n.ID)
}

// City belongs to exactly one node.
type City struct {
	ID         int64     `json:"id"`
	NodeID     int64     `json:"node_id"`
	NameRU     string    `json:"name_ru"`
	NameEN     string    `json:"name_en"`
	NameNative string    `json:"name_native"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	TimeZoneID *int64    `json:"timezone_id,omitempty"`
	Population *int64    `json:"population,omitempty"`
	WikiDataID *string   `json:"wiki_data_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FullPath renders "country > node chain > city". chain is the owning node's
// ancestry root-to-leaf including the owning node itself.
func (c City) FullPath(countryName string, chain []Node) string {
	parts := make([]string, 0, len(chain)+2)
	parts = append(parts, countryName)
	for _, n := range chain {
		parts = append(parts, n.NameRU)
	}
	parts = append(parts, c.NameRU)
	return strings.Join(parts, PathSeparator)
}

// WikiDataURL returns the knowledge-base page, or "" when unknown.
func (c City) WikiDataURL() string {
	if c.WikiDataID == nil {
		return ""
	}
	return wikiDataURL(*c.WikiDataID)
}

// Validate checks the city invariants.
func (c City) Validate() error {
	return ValidateCoordinates(c.Latitude, c.Longitude)
}

// ValidateCoordinates checks latitude in [-90,90] and longitude in [-180,180].
// Nil values are accepted.
func ValidateCoordinates(lat, lon *float64) error {
	if lat != nil && (*lat < -90 || *lat > 90) {
		return eris.Wrapf(ErrInvalid, "model: latitude %v out of range [-90,90]", *lat)
	}
	if lon != nil && (*lon < -180 || *lon > 180) {
		return eris.Wrapf(ErrInvalid, "model: longitude %v out of range [-180,180]", *lon)
	}
	return nil
}
