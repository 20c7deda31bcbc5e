package controllers

import (
	"net/http"

	"studenteats/services"

	"github.com/gin-gonic/gin"
)

type RecommendationController struct {
	Recs *services.RecService
}

func NewRecommendationController(rs *services.RecService) *RecommendationController {
	return &RecommendationController{Recs: rs}
}

// GET /recommendations/user/:user_id
func (rc *RecommendationController) Get(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	recs, err := rc.Recs.GetRecs(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}
