package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/loaneye/internal/alert"
	"github.com/loaneye/internal/models"
)

func ruleID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, models.NewValidationError("id", "invalid rule ID")
	}
	return uint(id), nil
}

// Rule management handlers
func (s *Server) listRules(c *gin.Context) {
	var opts alert.ListOptions
	if enabled := c.Query("enabled"); enabled != "" {
		enabledBool := enabled == "true"
		opts.Enabled = &enabledBool
	}
	if signal := c.Query("signal"); signal != "" {
		code, err := strconv.Atoi(signal)
		if err != nil {
			respondError(c, models.NewValidationError("signal", "signal code must be an integer"))
			return
		}
		opts.SignalCode = &code
	}

	rules, err := s.rules.List(opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (s *Server) getRule(c *gin.Context) {
	id, err := ruleID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	rule, err := s.rules.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (s *Server) deleteRule(c *gin.Context) {
	id, err := ruleID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.rules.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rule deleted successfully"})
}

func (s *Server) enableRule(c *gin.Context) {
	id, err := ruleID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.rules.Enable(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rule enabled successfully"})
}

func (s *Server) disableRule(c *gin.Context) {
	id, err := ruleID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.rules.Disable(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rule disabled successfully"})
}

func (s *Server) importRules(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rules, err := s.rules.Import(data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "successfully imported " + strconv.Itoa(len(rules)) + " rules", "imported": len(rules)})
}

func (s *Server) exportRules(c *gin.Context) {
	data, err := s.rules.Export()
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
