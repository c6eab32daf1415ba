package importer

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// timestampLayouts are tried in order. The first match wins.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// TimestampState says what a raw timestamp field held.
type TimestampState int

const (
	TimestampAbsent TimestampState = iota
	TimestampParsed
	TimestampMalformed
)

// Timestamp is the outcome of parsing one feed timestamp.
type Timestamp struct {
	State TimestampState
	Time  time.Time // set when State is TimestampParsed, always UTC
	Raw   string
}

// ParseTimestamp reads raw with the accepted layouts. Zone-less values are UTC.
func ParseTimestamp(raw string) Timestamp {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Timestamp{State: TimestampAbsent}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{State: TimestampParsed, Time: t.UTC(), Raw: raw}
		}
	}
	return Timestamp{State: TimestampMalformed, Raw: raw}
}

// OrNow returns the parsed time, now when absent, and an error when malformed.
func (t Timestamp) OrNow(now time.Time) (time.Time, error) {
	switch t.State {
	case TimestampParsed:
		return t.Time, nil
	case TimestampAbsent:
		return now.UTC(), nil
	default:
		return time.Time{}, eris.Errorf("importer: unrecognized timestamp %q", t.Raw)
	}
}

// parseFloat returns nil for empty or unparsable input.
func parseFloat(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseInt64 returns nil for empty or unparsable input. Whole-valued
// floats such as "1250.0" are accepted.
func parseInt64(raw string) *int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return nil
	}
	v := int64(f)
	return &v
}

func parseInt(raw string) *int {
	v := parseInt64(raw)
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

// optString returns nil for blank input.
func optString(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return &s
}

// Translations maps a language code to a localized name.
type Translations map[string]string

// decodeTranslations treats absent or malformed JSON as no translations.
// Non-string values are ignored.
func decodeTranslations(raw string) Translations {
	if strings.TrimSpace(raw) == "" {
		return Translations{}
	}
	var generic map[string]any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return Translations{}
	}
	out := make(Translations, len(generic))
	for k, v := range generic {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// Name returns the lang translation, or fallback when missing or blank.
func (t Translations) Name(lang, fallback string) string {
	if v, ok := t[lang]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
