package controllers

import (
	"net/http"

	"studenteats/services"

	"github.com/gin-gonic/gin"
)

type ProfileController struct {
	Profiles *services.ProfileService
}

func NewProfileController(ps *services.ProfileService) *ProfileController {
	return &ProfileController{Profiles: ps}
}

// POST /profiles/:user_id
func (pc *ProfileController) Upsert(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	var in services.ProfileInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := pc.Profiles.Upsert(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /profiles/:user_id
func (pc *ProfileController) Get(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	p, err := pc.Profiles.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PATCH /profiles/:user_id
func (pc *ProfileController) Update(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	var in services.ProfileUpdate
	if !bindJSON(c, &in) {
		return
	}
	p, err := pc.Profiles.Update(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
