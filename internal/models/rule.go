package models

import (
	"time"

	"gorm.io/gorm"
)

type Workflow string

const (
	WorkflowCritical Workflow = "Critical"
	WorkflowHigh     Workflow = "High"
	WorkflowMedium   Workflow = "Medium"
	WorkflowLow      Workflow = "Low"
)

var Workflows = []Workflow{WorkflowCritical, WorkflowHigh, WorkflowMedium, WorkflowLow}

func (w Workflow) Valid() bool {
	switch w {
	case WorkflowCritical, WorkflowHigh, WorkflowMedium, WorkflowLow:
		return true
	default:
		return false
	}
}

// VariableRule is a named, unexpanded expression fragment.
type VariableRule struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// FinalRule is a fully expanded rule with its classification.
type FinalRule struct {
	Expression string    `json:"rule"`
	Described  string    `json:"rule_described"`
	Workflow   Workflow  `json:"actionable_workflow"`
	Severity   Severity  `json:"alert_severity"`
	SavedAt    time.Time `json:"saved_at"`
}

// PublishedRule is a final rule persisted outside of its session.
type PublishedRule struct {
	gorm.Model
	SignalCode  int      `json:"signal_code" gorm:"index;not null"`
	SignalName  string   `json:"signal_name"`
	Expression  string   `json:"rule" gorm:"not null"`
	Described   string   `json:"rule_described"`
	Workflow    Workflow `json:"actionable_workflow" gorm:"not null"`
	Severity    Severity `json:"alert_severity" gorm:"not null"`
	IsEnabled   bool     `json:"is_enabled"`
	PublishedBy string   `json:"published_by"`
	SessionID   string   `json:"session_id" gorm:"index"`
}
