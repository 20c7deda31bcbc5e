package controllers

import (
	"net/http"

	"studenteats/services"

	"github.com/gin-gonic/gin"
)

type MenuController struct {
	Menus *services.MenuService
}

func NewMenuController(ms *services.MenuService) *MenuController {
	return &MenuController{Menus: ms}
}

// POST /upload-menu
func (mc *MenuController) Upload(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		respondError(c, services.Validation("body", "could not read request body"))
		return
	}
	res, err := mc.Menus.UploadJSON(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /upload-menu/location?location=Worcester
func (mc *MenuController) UploadLocation(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		respondError(c, services.Validation("body", "could not read request body"))
		return
	}
	res, err := mc.Menus.UploadLocation(c.Request.Context(), c.Query("location"), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
