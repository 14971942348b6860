package store

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

var nullValues = map[string]bool{
	"":     true,
	"nan":  true,
	"nat":  true,
	"none": true,
	"null": true,
	"n/a":  true,
}

func isNull(s string) bool {
	return nullValues[strings.ToLower(strings.TrimSpace(s))]
}

// ParseDate parses a calendar date. Unparseable input yields nil, the same
// as a missing value. The result is midnight UTC.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if isNull(s) {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// ParseNumber parses a decimal, tolerating thousands separators.
func ParseNumber(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if isNull(s) {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

// ParseSignalCode parses an integer signal code, accepting "412.0".
// Codes outside the int32 range are rejected.
func ParseSignalCode(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if code, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(code), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, false
	}
	return int(v), true
}

// NormalizeID returns the string form used to compare identifiers.
// Numeric ids that went through a float column ("1001.0") lose the
// fractional zero.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	if isNull(s) {
		return ""
	}
	if strings.Contains(s, ".") {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v == math.Trunc(v) && !math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return s
}
