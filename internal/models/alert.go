package models

import "time"

type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Severities lists alert severities in ascending order.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh}

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}

// AlertRecord is one row of the alerts table. Only AlertID and SignalCode
// are guaranteed; empty strings and nil pointers mark missing values.
type AlertRecord struct {
	AlertID              string            `json:"alert_id"`
	SignalCode           int               `json:"signal_code"`
	SignalName           string            `json:"signal_name,omitempty"`
	BorrowerID           string            `json:"borrower_id,omitempty"`
	BorrowerName         string            `json:"borrower_name,omitempty"`
	Portfolio            string            `json:"portfolio,omitempty"`
	EventDate            *time.Time        `json:"event_date,omitempty"`
	AlertDate            *time.Time        `json:"alert_date,omitempty"`
	Severity             Severity          `json:"severity,omitempty"`
	CaseStatus           string            `json:"case_status,omitempty"`
	OverdueAmount        *float64          `json:"overdue_amount,omitempty"`
	MaxDPD               *float64          `json:"max_dpd,omitempty"`
	CibilScore           *float64          `json:"cibil_score,omitempty"`
	DaysSinceLastComment *float64          `json:"days_since_last_comment,omitempty"`
	Fields               map[string]string `json:"fields,omitempty"`
}

// DetailRecord is one row of a per-signal detail table.
type DetailRecord struct {
	AlertID    string            `json:"alert_id"`
	SignalCode int               `json:"signal_code"`
	Columns    []string          `json:"columns"`
	Values     map[string]string `json:"values"`
}
