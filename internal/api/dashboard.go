package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/loaneye/internal/models"
)

func (s *Server) dashboard(c *gin.Context) {
	d := s.reports.Generate(s.store.Alerts(), c.QueryArray("portfolio"))
	c.JSON(http.StatusOK, d)
}

func (s *Server) notifyDashboard(c *gin.Context) {
	var req struct {
		Portfolios []string `json:"portfolios"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if len(s.notifier.Channels()) == 0 {
		respondError(c, models.NewValidationError("channel", "no notification channel is configured"))
		return
	}

	d := s.reports.Generate(s.store.Alerts(), req.Portfolios)
	sent, err := s.notifier.Notify(c.Request.Context(), d)
	for _, ch := range sent {
		s.metrics.DigestSent(ch)
	}
	if err != nil {
		s.logger.Warn("digest partially failed", zap.Strings("sent", sent), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "sent": sent})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}
