package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"studenteats/middlewares"
	"studenteats/services"

	"github.com/gin-gonic/gin"
)

// respondError maps the service error kinds onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	e := services.AsError(err)
	body := gin.H{"error": e.Message, "category": e.Kind}
	status := http.StatusBadGateway

	switch e.Kind {
	case services.KindValidation:
		status = http.StatusBadRequest
		if e.Field != "" {
			body["field"] = e.Field
		}
		if len(e.Details) > 0 {
			body["errors"] = e.Details
		}
	case services.KindNotFound:
		status = http.StatusNotFound
		body["entity"] = e.Entity
		body["id"] = e.ID
	default:
		if e.Retryable {
			status = http.StatusServiceUnavailable
			body["retryable"] = true
		}
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
	}
	c.AbortWithStatusJSON(status, body)
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, services.ValidationFromBinding(err))
		return false
	}
	return true
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		respondError(c, services.Validation(name, name+" must be a positive integer"))
		return 0, false
	}
	return uint(v), true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondError(c, services.Validation(name, name+" must be an integer"))
		return 0, false
	}
	return v, true
}

// sameUser lets anonymous callers through but stops a signed-in user from
// reading or writing someone else's records.
func sameUser(c *gin.Context, userID string) bool {
	if authed := middlewares.UserID(c); authed != "" && authed != userID {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "cannot access another user's data"})
		return false
	}
	return true
}
