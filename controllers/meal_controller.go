package controllers

import (
	"net/http"

	"studenteats/services"

	"github.com/gin-gonic/gin"
)

type MealController struct {
	Meals *services.MealService
}

func NewMealController(ms *services.MealService) *MealController {
	return &MealController{Meals: ms}
}

// POST /meals
func (mc *MealController) Create(c *gin.Context) {
	var in services.MealEntryInput
	if !bindJSON(c, &in) {
		return
	}
	if !sameUser(c, in.ProfileID) {
		return
	}
	e, err := mc.Meals.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// GET /meals/:entry_id
func (mc *MealController) Get(c *gin.Context) {
	id, ok := uintParam(c, "entry_id")
	if !ok {
		return
	}
	e, err := mc.Meals.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !sameUser(c, e.ProfileID) {
		return
	}
	c.JSON(http.StatusOK, e)
}

// PATCH /meals/:entry_id {servings}
func (mc *MealController) Update(c *gin.Context) {
	id, ok := uintParam(c, "entry_id")
	if !ok {
		return
	}
	var body struct {
		Servings float64 `json:"servings" binding:"required,gt=0,lte=20"`
	}
	if !bindJSON(c, &body) {
		return
	}
	if !mc.owns(c, id) {
		return
	}
	e, err := mc.Meals.UpdateServings(c.Request.Context(), id, body.Servings)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DELETE /meals/:entry_id
func (mc *MealController) Delete(c *gin.Context) {
	id, ok := uintParam(c, "entry_id")
	if !ok {
		return
	}
	if !mc.owns(c, id) {
		return
	}
	if err := mc.Meals.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "id": id})
}

func (mc *MealController) owns(c *gin.Context, id uint) bool {
	e, err := mc.Meals.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return false
	}
	return sameUser(c, e.ProfileID)
}

// GET /meals/user/:user_id/today
func (mc *MealController) Today(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	day, err := mc.Meals.Today(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// GET /meals/user/:user_id/date/:date
func (mc *MealController) ForDate(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	day, err := mc.Meals.ForDate(c.Request.Context(), userID, c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// GET /meals/user/:user_id/history?days=7
func (mc *MealController) History(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	days, ok := intQuery(c, "days", 7)
	if !ok {
		return
	}
	h, err := mc.Meals.History(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h)
}

// GET /meals/user/:user_id/range?start&end
func (mc *MealController) Range(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	days, err := mc.Meals.DateRange(c.Request.Context(), userID, c.Query("start"), c.Query("end"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile_id": userID, "days": days})
}

// GET /totals/user/:user_id/today
func (mc *MealController) TodayTotals(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	t, err := mc.Meals.TodayTotals(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GET /totals/user/:user_id/date/:date
func (mc *MealController) DailyTotals(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	t, err := mc.Meals.DailyTotals(c.Request.Context(), userID, c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
