package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loaneye/internal/catalog"
	"github.com/loaneye/internal/filter"
	"github.com/loaneye/internal/models"
)

// queryList collects a repeatable query parameter whose values may also be
// comma separated.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func criteriaFromQuery(c *gin.Context) (filter.Criteria, error) {
	var crit filter.Criteria
	var err error

	dates := []struct {
		key string
		dst **time.Time
	}{
		{"event_from", &crit.EventDateFrom},
		{"event_to", &crit.EventDateTo},
		{"alert_from", &crit.AlertDateFrom},
		{"alert_to", &crit.AlertDateTo},
	}
	for _, d := range dates {
		if *d.dst, err = filter.ParseDate(d.key, c.Query(d.key)); err != nil {
			return filter.Criteria{}, err
		}
	}

	if crit.SignalCodes, err = filter.ParseSignalCodes(strings.Join(c.QueryArray("signal"), ",")); err != nil {
		return filter.Criteria{}, err
	}
	crit.Portfolios = c.QueryArray("portfolio")
	crit.BorrowerIDs = queryList(c, "borrower")
	return crit, nil
}

func (s *Server) listAlerts(c *gin.Context) {
	crit, err := criteriaFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	alerts := filter.Filter(s.store.Alerts(), crit)
	c.JSON(http.StatusOK, gin.H{
		"total":  len(alerts),
		"alerts": alerts,
	})
}

// alertDetails routes a drill-down through the alert's own signal code.
func (s *Server) alertDetails(c *gin.Context) {
	rec, ok := s.store.Lookup(c.Param("id"))
	if !ok {
		respondError(c, models.ErrAlertNotFound)
		return
	}

	rules, err := s.rules.ForSignal(rec.SignalCode)
	if err != nil {
		respondError(c, err)
		return
	}

	columns, _ := s.store.DetailColumns(rec.SignalCode)
	resp := gin.H{
		"alert":       rec,
		"signal_code": rec.SignalCode,
		"columns":     columns,
		"details":     s.store.DetailsFor(rec.SignalCode, rec.AlertID),
		"rules":       rules,
	}
	if sig, ok := s.catalog.Get(rec.SignalCode); ok {
		resp["table"] = sig.Table
	}
	c.JSON(http.StatusOK, resp)
}

func parseSignalCode(c *gin.Context) (int, error) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil {
		return 0, models.NewValidationError("code", "signal code must be an integer")
	}
	return code, nil
}

func (s *Server) signalAlertDetails(c *gin.Context) {
	code, err := parseSignalCode(c)
	if err != nil {
		respondError(c, err)
		return
	}

	columns, _ := s.store.DetailColumns(code)
	c.JSON(http.StatusOK, gin.H{
		"signal_code": code,
		"alert_id":    c.Param("id"),
		"columns":     columns,
		"details":     s.store.DetailsFor(code, c.Param("id")),
	})
}

type signalInfo struct {
	Code      int    `json:"code"`
	Name      string `json:"name"`
	Table     string `json:"table,omitempty"`
	Loaded    bool   `json:"details_loaded"`
	Cataloged bool   `json:"cataloged"`
}

// listSignals returns the catalog signals followed by any signal code seen
// in the alerts table but missing from the catalog.
func (s *Server) listSignals(c *gin.Context) {
	var out []signalInfo
	seen := make(map[int]bool)
	for _, sig := range s.catalog.Signals() {
		seen[sig.Code] = true
		out = append(out, signalInfo{
			Code:      sig.Code,
			Name:      sig.Name,
			Table:     sig.Table,
			Loaded:    s.store.HasDetails(sig.Code),
			Cataloged: true,
		})
	}
	for _, code := range s.store.SignalCodes() {
		if seen[code] {
			continue
		}
		name, _ := s.store.SignalName(code)
		out = append(out, signalInfo{Code: code, Name: name, Loaded: s.store.HasDetails(code)})
	}

	errs := make([]string, 0, len(s.store.DetailErrors()))
	for _, err := range s.store.DetailErrors() {
		errs = append(errs, err.Error())
	}
	c.JSON(http.StatusOK, gin.H{"signals": out, "detail_errors": errs})
}

func (s *Server) signalVariables(c *gin.Context) {
	code, err := parseSignalCode(c)
	if err != nil {
		respondError(c, err)
		return
	}
	vars := s.vars.SystemVariables(code)
	if vars == nil {
		vars = []catalog.SystemVariable{}
	}
	c.JSON(http.StatusOK, gin.H{"signal_code": code, "variables": vars})
}
