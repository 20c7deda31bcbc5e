package controllers

import (
	"net/http"

	"studenteats/middlewares"
	"studenteats/services"

	"github.com/gin-gonic/gin"
)

type DeviceController struct {
	Push *services.PushService
}

func NewDeviceController(ps *services.PushService) *DeviceController {
	return &DeviceController{Push: ps}
}

func (dc *DeviceController) configured(c *gin.Context) bool {
	if dc.Push == nil {
		respondError(c, &services.Error{Kind: services.KindUpstream, Message: "push notifications are not configured"})
		return false
	}
	return true
}

// POST /devices
func (dc *DeviceController) Register(c *gin.Context) {
	var req services.RegisterDeviceReq
	if !bindJSON(c, &req) || !dc.configured(c) {
		return
	}
	dev, err := dc.Push.RegisterDevice(c.Request.Context(), middlewares.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"endpoint_arn": dev.EndpointARN})
}

// POST /devices/notifications/toggle {enabled}
func (dc *DeviceController) Toggle(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if !bindJSON(c, &req) || !dc.configured(c) {
		return
	}
	if err := dc.Push.SetEnabled(c.Request.Context(), middlewares.UserID(c), *req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "notifications updated",
		"enabled": *req.Enabled,
	})
}

// POST /devices/test-push sends a notification to the caller's own devices.
func (dc *DeviceController) TestPush(c *gin.Context) {
	var req struct {
		Title string            `json:"title"`
		Body  string            `json:"body"`
		Data  map[string]string `json:"data"`
	}
	if !bindJSON(c, &req) || !dc.configured(c) {
		return
	}
	if req.Title == "" {
		req.Title = "StudentEats"
	}
	if req.Body == "" {
		req.Body = "Test notification"
	}
	dc.Push.PushToUser(c.Request.Context(), middlewares.UserID(c), req.Title, req.Body, req.Data)
	c.JSON(http.StatusOK, gin.H{"sent": true})
}
