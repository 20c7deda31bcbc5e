package controllers

import (
	"net/http"
	"time"

	"studenteats/services"
	"studenteats/utils"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	Svc *services.AnalyticsService
}

func NewAnalyticsController(svc *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{Svc: svc}
}

// GET /analytics/user/:user_id/summary?from&to&includeMissingDays
// The range defaults to the current month.
func (h *AnalyticsController) Summary(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	now := time.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)

	from := c.DefaultQuery("from", utils.ISODate(first))
	to := c.DefaultQuery("to", utils.ISODate(last))
	includeMissing := c.DefaultQuery("includeMissingDays", "false") == "true"

	out, err := h.Svc.Summary(c.Request.Context(), userID, from, to, includeMissing)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /analytics/user/:user_id/weekly?weekStart&mode=chart|detailed
func (h *AnalyticsController) Weekly(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	out, err := h.Svc.WeeklyOverview(c.Request.Context(), userID, c.Query("weekStart"), c.DefaultQuery("mode", "chart"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
