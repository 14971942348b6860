package rule

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/loaneye/internal/models"
)

// DefaultBlock is the block used when a caller does not name one.
const DefaultBlock = 1

// VariableSource supplies the system variable labels of a signal code.
type VariableSource interface {
	Labels(signalCode int) []string
}

// Session is one user's rule-building context. All methods are safe for
// concurrent use; mutations are serialized by the session mutex.
type Session struct {
	ID        string
	Owner     string
	CreatedAt time.Time

	mu         sync.Mutex
	source     VariableSource
	signalCode int
	variables  *VariableSet
	finals     []models.FinalRule
	blocks     map[int]*Block
	updatedAt  time.Time
	now        func() time.Time
}

// State is a point-in-time copy of a session.
type State struct {
	ID                 string                `json:"id"`
	Owner              string                `json:"owner,omitempty"`
	SignalCode         int                   `json:"signal_code"`
	AvailableVariables []string              `json:"available_variables"`
	VariableRules      []models.VariableRule `json:"variable_rules"`
	FinalRules         []models.FinalRule    `json:"final_rules"`
	Blocks             map[int]string        `json:"blocks"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

func NewSession(id string, signalCode int, source VariableSource) *Session {
	now := time.Now()
	s := &Session{
		ID:         id,
		CreatedAt:  now,
		source:     source,
		signalCode: signalCode,
		blocks:     make(map[int]*Block),
		updatedAt:  now,
		now:        time.Now,
	}
	s.variables = NewVariableSet(s.systemVariables()...)
	return s
}

// OwnedBy reports whether username may use the session. A session without
// an owner is open to everyone.
func (s *Session) OwnedBy(username string) bool {
	return s.Owner == "" || s.Owner == username
}

func (s *Session) systemVariables() []string {
	if s.source == nil {
		return nil
	}
	return s.source.Labels(s.signalCode)
}

func (s *Session) touch() {
	s.updatedAt = s.now()
}

func (s *Session) block(id int) (*Block, error) {
	if id < 1 {
		return nil, models.NewValidationError("block", fmt.Sprintf("invalid block id %d", id))
	}
	b, ok := s.blocks[id]
	if !ok {
		b = NewBlock(id)
		s.blocks[id] = b
	}
	return b, nil
}

func (s *Session) SignalCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signalCode
}

func (s *Session) availableVariables() []string {
	return append(s.systemVariables(), s.variables.Names()...)
}

// AvailableVariables returns the system variables of the active signal
// followed by the saved variable-rule names in save order.
func (s *Session) AvailableVariables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.availableVariables()
}

// SwitchSignal makes code the active signal and discards every variable
// rule, final rule and block.
func (s *Session) SwitchSignal(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.signalCode = code
	s.variables = NewVariableSet(s.systemVariables()...)
	s.finals = nil
	s.blocks = make(map[int]*Block)
	s.touch()
}

// AddPiece appends a clause to the block and returns its new text.
func (s *Session) AddPiece(blockID int, p Piece) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.block(blockID)
	if err != nil {
		return "", err
	}
	if !contains(s.availableVariables(), p.Variable) {
		return b.Text(), models.NewValidationError("variable",
			fmt.Sprintf("%q is not available for signal %d", p.Variable, s.signalCode))
	}
	text, err := b.Add(p)
	if err != nil {
		return text, err
	}
	s.touch()
	return text, nil
}

func (s *Session) ResetBlock(blockID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.block(blockID)
	if err != nil {
		return err
	}
	b.Reset()
	s.touch()
	return nil
}

// BlockText returns the current text of a block, empty when unused.
func (s *Session) BlockText(blockID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.blocks[blockID]; ok {
		return b.Text()
	}
	return ""
}

// SaveFinal expands the block's text into a final rule and resets the block.
func (s *Session) SaveFinal(blockID int, workflow models.Workflow, severity models.Severity) (models.FinalRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.block(blockID)
	if err != nil {
		return models.FinalRule{}, err
	}
	if strings.TrimSpace(b.Text()) == "" {
		return models.FinalRule{}, models.NewValidationError("rule", "rule text is empty")
	}
	if !workflow.Valid() {
		return models.FinalRule{}, models.NewValidationError("actionable_workflow",
			fmt.Sprintf("unknown workflow %q", workflow))
	}
	if !severity.Valid() {
		return models.FinalRule{}, models.NewValidationError("alert_severity",
			fmt.Sprintf("unknown severity %q", severity))
	}

	expanded, err := s.variables.Expand(b.Text())
	if err != nil {
		return models.FinalRule{}, err
	}
	rule := models.FinalRule{
		Expression: expanded,
		Described:  b.Text(),
		Workflow:   workflow,
		Severity:   severity,
		SavedAt:    s.now(),
	}
	s.finals = append(s.finals, rule)
	b.Reset()
	s.touch()
	return rule, nil
}

// SaveVariable stores the block's unexpanded text under name and resets the
// block. Saving an existing name replaces its definition.
func (s *Session) SaveVariable(blockID int, name string) (models.VariableRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.block(blockID)
	if err != nil {
		return models.VariableRule{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.VariableRule{}, models.NewValidationError("name", "variable name is empty")
	}
	if strings.TrimSpace(b.Text()) == "" {
		return models.VariableRule{}, models.NewValidationError("rule", "rule text is empty")
	}
	if err := s.variables.Put(name, b.Text()); err != nil {
		return models.VariableRule{}, err
	}
	rule := models.VariableRule{Name: name, Definition: b.Text()}
	b.Reset()
	s.touch()
	return rule, nil
}

// VariableRules returns name -> unexpanded definition.
func (s *Session) VariableRules() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variables.Map()
}

// FinalRules returns the saved final rules in save order.
func (s *Session) FinalRules() []models.FinalRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.FinalRule, len(s.finals))
	copy(out, s.finals)
	return out
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocks := make(map[int]string, len(s.blocks))
	for id, b := range s.blocks {
		blocks[id] = b.Text()
	}
	finals := make([]models.FinalRule, len(s.finals))
	copy(finals, s.finals)

	return State{
		ID:                 s.ID,
		Owner:              s.Owner,
		SignalCode:         s.signalCode,
		AvailableVariables: s.availableVariables(),
		VariableRules:      s.variables.Rules(),
		FinalRules:         finals,
		Blocks:             blocks,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.updatedAt,
	}
}
