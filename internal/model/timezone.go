package model

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// TimeZone is an IANA zone with its whole-hour UTC shift.
type TimeZone struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Shift int    `json:"shift"`
}

// NewTimeZone resolves name against the tz database and computes its shift at the given instant.
// Fractional-hour offsets are truncated toward zero.
func NewTimeZone(name string, at time.Time) (TimeZone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return TimeZone{}, eris.Wrapf(err, "model: load location %q", name)
	}
	_, offset := at.In(loc).Zone()
	return TimeZone{Name: name, Shift: offset / 3600}, nil
}

// ByUTC renders the shift as "UTC+3" or "UTC-5".
func (z TimeZone) ByUTC() string {
	if z.Shift >= 0 {
		return fmt.Sprintf("UTC+%d", z.Shift)
	}
	return fmt.Sprintf("UTC%d", z.Shift)
}

func (z TimeZone) String() string {
	return fmt.Sprintf("%s (%s)", z.Name, z.ByUTC())
}
