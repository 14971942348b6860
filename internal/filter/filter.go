// Package filter composes predicates over alert records.
package filter

import (
	"strconv"
	"strings"
	"time"

	"github.com/loaneye/internal/models"
	"github.com/loaneye/internal/store"
)

// Criteria selects alerts. Nil bounds and empty sets do not restrict.
// Date bounds are inclusive on both ends.
type Criteria struct {
	EventDateFrom *time.Time `json:"event_date_from,omitempty"`
	EventDateTo   *time.Time `json:"event_date_to,omitempty"`
	AlertDateFrom *time.Time `json:"alert_date_from,omitempty"`
	AlertDateTo   *time.Time `json:"alert_date_to,omitempty"`
	Portfolios    []string   `json:"portfolios,omitempty"`
	SignalCodes   []int      `json:"signal_codes,omitempty"`
	BorrowerIDs   []string   `json:"borrower_ids,omitempty"`
}

// IsEmpty reports whether no predicate is active.
func (c Criteria) IsEmpty() bool {
	return c.EventDateFrom == nil && c.EventDateTo == nil &&
		c.AlertDateFrom == nil && c.AlertDateTo == nil &&
		len(c.Portfolios) == 0 && len(c.SignalCodes) == 0 && len(c.BorrowerIDs) == 0
}

type predicate func(*models.AlertRecord) bool

// Filter returns the records matching c, in input order. A record missing
// a field used by an active predicate does not match.
func Filter(records []models.AlertRecord, c Criteria) []models.AlertRecord {
	preds := c.predicates()
	out := make([]models.AlertRecord, 0, len(records))
	for i := range records {
		if matchAll(&records[i], preds) {
			out = append(out, records[i])
		}
	}
	return out
}

func matchAll(r *models.AlertRecord, preds []predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

func (c Criteria) predicates() []predicate {
	var preds []predicate

	if c.EventDateFrom != nil || c.EventDateTo != nil {
		from, to := day(c.EventDateFrom), day(c.EventDateTo)
		preds = append(preds, func(r *models.AlertRecord) bool {
			return within(r.EventDate, from, to)
		})
	}
	if c.AlertDateFrom != nil || c.AlertDateTo != nil {
		from, to := day(c.AlertDateFrom), day(c.AlertDateTo)
		preds = append(preds, func(r *models.AlertRecord) bool {
			return within(r.AlertDate, from, to)
		})
	}
	if len(c.Portfolios) > 0 {
		set := stringSet(c.Portfolios, strings.TrimSpace)
		preds = append(preds, func(r *models.AlertRecord) bool {
			return r.Portfolio != "" && set[r.Portfolio]
		})
	}
	if len(c.SignalCodes) > 0 {
		set := make(map[int]bool, len(c.SignalCodes))
		for _, code := range c.SignalCodes {
			set[code] = true
		}
		preds = append(preds, func(r *models.AlertRecord) bool {
			return set[r.SignalCode]
		})
	}
	if len(c.BorrowerIDs) > 0 {
		set := stringSet(c.BorrowerIDs, store.NormalizeID)
		preds = append(preds, func(r *models.AlertRecord) bool {
			return r.BorrowerID != "" && set[r.BorrowerID]
		})
	}

	return preds
}

func stringSet(values []string, norm func(string) string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = norm(v); v != "" {
			set[v] = true
		}
	}
	return set
}

// day truncates t to its calendar date.
func day(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func within(v, from, to *time.Time) bool {
	if v == nil {
		return false
	}
	d := day(v)
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

// ParseSignalCodes parses a comma-separated list of integer codes.
// Blank input yields nil; any non-numeric item is a validation error.
func ParseSignalCodes(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var codes []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil {
			return nil, models.NewValidationError("signal", "signal codes must be integers, got "+strconv.Quote(part))
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// ParseDate parses an optional YYYY-MM-DD bound.
func ParseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, models.NewValidationError(field, "expected a date in YYYY-MM-DD format")
	}
	return &t, nil
}
