package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/loaneye/internal/alert"
	"github.com/loaneye/internal/auth"
	"github.com/loaneye/internal/models"
	"github.com/loaneye/internal/rule"
)

type signalRequest struct {
	SignalCode int `json:"signal_code" binding:"required"`
}

// SaveRequest saves a block either as a final rule or as a variable rule.
type SaveRequest struct {
	Kind     string          `json:"kind" binding:"required,oneof=final variable"`
	Name     string          `json:"name"`
	Workflow models.Workflow `json:"actionable_workflow"`
	Severity models.Severity `json:"alert_severity"`
}

func (s *Server) checkSignal(code int) error {
	if _, ok := s.catalog.Get(code); ok {
		return nil
	}
	if _, ok := s.store.SignalName(code); ok {
		return nil
	}
	return models.NewValidationError("signal_code", fmt.Sprintf("unknown signal code %d", code))
}

// session resolves the path's session for the caller. Sessions owned by
// another user look missing to everyone except admins.
func (s *Server) session(c *gin.Context) (*rule.Session, bool) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err == nil && !sess.OwnedBy(c.GetString(auth.ContextUsername)) &&
		c.GetString(auth.ContextRole) != string(models.RoleAdmin) {
		err = models.ErrSessionNotFound
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return sess, true
}

func blockID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("block"))
	if err != nil || id < 1 {
		return 0, models.NewValidationError("block", "block id must be a positive integer")
	}
	return id, nil
}

func (s *Server) createSession(c *gin.Context) {
	var req signalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.checkSignal(req.SignalCode); err != nil {
		respondError(c, err)
		return
	}

	sess := s.sessions.Create(req.SignalCode, c.GetString(auth.ContextUsername))
	c.JSON(http.StatusCreated, sess.Snapshot())
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) deleteSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	if err := s.sessions.Delete(sess.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session deleted successfully"})
}

func (s *Server) switchSignal(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req signalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.checkSignal(req.SignalCode); err != nil {
		respondError(c, err)
		return
	}

	sess.SwitchSignal(req.SignalCode)
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) sessionVariables(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"signal_code":         sess.SignalCode(),
		"available_variables": sess.AvailableVariables(),
		"variable_rules":      sess.VariableRules(),
	})
}

func (s *Server) addPiece(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	id, err := blockID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var piece rule.Piece
	if err := c.ShouldBindJSON(&piece); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	text, err := sess.AddPiece(id, piece)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"block": id, "text": text})
}

func (s *Server) resetBlock(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	id, err := blockID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := sess.ResetBlock(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"block": id, "text": ""})
}

func (s *Server) saveBlock(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	id, err := blockID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Kind == "variable" {
		v, err := sess.SaveVariable(id, req.Name)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"variable_rule": v})
		return
	}

	fr, err := sess.SaveFinal(id, req.Workflow, req.Severity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"final_rule": fr})
}

// publishSession persists the session's final rules that are not yet stored.
// The session itself is left unchanged.
func (s *Server) publishSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	code := sess.SignalCode()
	name, _ := s.store.SignalName(code)
	if sig, ok := s.catalog.Get(code); ok && name == "" {
		name = sig.Name
	}

	rules, err := s.rules.Publish(alert.PublishRequest{
		SessionID:   sess.ID,
		SignalCode:  code,
		SignalName:  name,
		PublishedBy: c.GetString(auth.ContextUsername),
		Rules:       sess.FinalRules(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	s.metrics.RulesPublished(len(rules))
	status := http.StatusCreated
	if len(rules) == 0 {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"published": rules})
}
