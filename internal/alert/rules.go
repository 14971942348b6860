// Package alert persists the final rules composed in rule-building sessions
// so they outlive the session that produced them.
package alert

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/loaneye/internal/models"
)

type RuleManager struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRuleManager(db *gorm.DB, logger *zap.Logger) *RuleManager {
	return &RuleManager{db: db, logger: logger}
}

// PublishRequest carries the final rules of one session.
type PublishRequest struct {
	SessionID   string
	SignalCode  int
	SignalName  string
	PublishedBy string
	Rules       []models.FinalRule
}

// ListOptions narrows List. Nil fields match everything.
type ListOptions struct {
	Enabled    *bool
	SignalCode *int
}

func validateRule(r *models.PublishedRule) error {
	if strings.TrimSpace(r.Expression) == "" {
		return models.NewValidationError("rule", "rule text is empty")
	}
	if !r.Workflow.Valid() {
		return models.NewValidationError("actionable_workflow", fmt.Sprintf("unknown workflow %q", r.Workflow))
	}
	if !r.Severity.Valid() {
		return models.NewValidationError("alert_severity", fmt.Sprintf("unknown severity %q", r.Severity))
	}
	return nil
}

type publishKey struct {
	signalCode int
	expression string
	workflow   models.Workflow
	severity   models.Severity
}

// published returns the keys of the rules a session already stored.
func (rm *RuleManager) published(sessionID string) (map[publishKey]bool, error) {
	seen := make(map[publishKey]bool)
	if sessionID == "" {
		return seen, nil
	}
	var existing []models.PublishedRule
	if err := rm.db.Where("session_id = ?", sessionID).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to load published rules: %w", err)
	}
	for _, r := range existing {
		seen[publishKey{r.SignalCode, r.Expression, r.Workflow, r.Severity}] = true
	}
	return seen, nil
}

// Publish stores the final rules of the request as enabled rules and returns
// the ones it stored. Rules the same session already published are skipped,
// so publishing twice is harmless. Either all new rules are stored or none.
func (rm *RuleManager) Publish(req PublishRequest) ([]models.PublishedRule, error) {
	if len(req.Rules) == 0 {
		return nil, models.NewValidationError("final_rules", "session has no final rules to publish")
	}
	seen, err := rm.published(req.SessionID)
	if err != nil {
		return nil, err
	}

	rules := make([]models.PublishedRule, 0, len(req.Rules))
	for _, fr := range req.Rules {
		key := publishKey{req.SignalCode, fr.Expression, fr.Workflow, fr.Severity}
		if seen[key] {
			continue
		}
		seen[key] = req.SessionID != ""
		rules = append(rules, models.PublishedRule{
			SignalCode:  req.SignalCode,
			SignalName:  req.SignalName,
			Expression:  fr.Expression,
			Described:   fr.Described,
			Workflow:    fr.Workflow,
			Severity:    fr.Severity,
			IsEnabled:   true,
			PublishedBy: req.PublishedBy,
			SessionID:   req.SessionID,
		})
	}

	if err := rm.create(rules); err != nil {
		return nil, err
	}
	rm.logger.Info("rules published",
		zap.String("session_id", req.SessionID),
		zap.Int("signal_code", req.SignalCode),
		zap.Int("count", len(rules)),
		zap.Int("skipped", len(req.Rules)-len(rules)))
	return rules, nil
}

func (rm *RuleManager) create(rules []models.PublishedRule) error {
	for i := range rules {
		if err := validateRule(&rules[i]); err != nil {
			return err
		}
	}
	return rm.db.Transaction(func(tx *gorm.DB) error {
		for i := range rules {
			if err := tx.Create(&rules[i]).Error; err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}
		}
		return nil
	})
}

func (rm *RuleManager) List(opts ListOptions) ([]models.PublishedRule, error) {
	query := rm.db.Order("id")
	if opts.Enabled != nil {
		query = query.Where("is_enabled = ?", *opts.Enabled)
	}
	if opts.SignalCode != nil {
		query = query.Where("signal_code = ?", *opts.SignalCode)
	}

	rules := []models.PublishedRule{}
	if err := query.Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

// ForSignal returns the enabled rules of a signal code.
func (rm *RuleManager) ForSignal(code int) ([]models.PublishedRule, error) {
	enabled := true
	return rm.List(ListOptions{Enabled: &enabled, SignalCode: &code})
}

func (rm *RuleManager) Get(id uint) (*models.PublishedRule, error) {
	var rule models.PublishedRule
	if err := rm.db.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return &rule, nil
}

func (rm *RuleManager) Delete(id uint) error {
	res := rm.db.Delete(&models.PublishedRule{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete rule: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrRuleNotFound
	}
	return nil
}

func (rm *RuleManager) Enable(id uint) error {
	return rm.setEnabled(id, true)
}

func (rm *RuleManager) Disable(id uint) error {
	return rm.setEnabled(id, false)
}

func (rm *RuleManager) setEnabled(id uint, enabled bool) error {
	if _, err := rm.Get(id); err != nil {
		return err
	}
	if err := rm.db.Model(&models.PublishedRule{}).Where("id = ?", id).Update("is_enabled", enabled).Error; err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	return nil
}

// Import stores the rules of a JSON array produced by Export. Ids in the
// document are ignored so every rule is created anew.
func (rm *RuleManager) Import(data []byte) ([]models.PublishedRule, error) {
	var rules []models.PublishedRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, models.NewValidationError("rules", fmt.Sprintf("failed to parse rules: %v", err))
	}
	for i := range rules {
		rules[i].Model = gorm.Model{}
	}
	if err := rm.create(rules); err != nil {
		return nil, err
	}
	rm.logger.Info("rules imported", zap.Int("count", len(rules)))
	return rules, nil
}

func (rm *RuleManager) Export() ([]byte, error) {
	rules, err := rm.List(ListOptions{})
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rules: %w", err)
	}
	return data, nil
}

// Counts returns the number of enabled and disabled rules.
func (rm *RuleManager) Counts() (enabled, disabled int64, err error) {
	if err := rm.db.Model(&models.PublishedRule{}).Where("is_enabled = ?", true).Count(&enabled).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count rules: %w", err)
	}
	if err := rm.db.Model(&models.PublishedRule{}).Where("is_enabled = ?", false).Count(&disabled).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count rules: %w", err)
	}
	return enabled, disabled, nil
}
