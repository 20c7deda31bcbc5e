package controllers

import (
	"net/http"

	"studenteats/services"
	"studenteats/utils"

	"github.com/gin-gonic/gin"
)

type FoodController struct {
	Foods *services.FoodService
}

func NewFoodController(fs *services.FoodService) *FoodController {
	return &FoodController{Foods: fs}
}

// POST /food-items
func (fc *FoodController) Create(c *gin.Context) {
	var in services.FoodItemInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := fc.Foods.CreateOrGet(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// GET /food-items?limit&offset
func (fc *FoodController) List(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}
	items, err := fc.Foods.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// GET /food-items/search?query&date&location&meal_type&limit
func (fc *FoodController) Search(c *gin.Context) {
	var q services.FoodSearch
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, services.ValidationFromBinding(err))
		return
	}
	items, err := fc.Foods.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// GET /food-items/available-dates?location
func (fc *FoodController) AvailableDates(c *gin.Context) {
	dates, err := fc.Foods.AvailableDates(c.Request.Context(), c.Query("location"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

// GET /food-items/location/:location/date/:date
func (fc *FoodController) Menu(c *gin.Context) {
	location, date := c.Param("location"), c.Param("date")
	meals, err := fc.Foods.MenuFor(c.Request.Context(), location, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"location": location,
		"date":     utils.NormalizeDate(date),
		"meals":    meals,
	})
}

// GET /food-items/:food_id
func (fc *FoodController) Get(c *gin.Context) {
	id, ok := uintParam(c, "food_id")
	if !ok {
		return
	}
	item, err := fc.Foods.Detail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// POST /food-items/recognize {image, date}
func (fc *FoodController) Recognize(c *gin.Context) {
	var body struct {
		Image string `json:"image" binding:"required"`
		Date  string `json:"date"`
	}
	if !bindJSON(c, &body) {
		return
	}
	res, err := fc.Foods.Recognize(c.Request.Context(), body.Image, body.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
