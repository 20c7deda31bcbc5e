package models

import "time"

// FoodItem is one servable item at one dining hall for one date and meal slot.
// (name, location, date, meal_type) is the natural key; see idx_food_items_natural_key.
type FoodItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:200;not null;uniqueIndex:idx_food_items_natural_key" json:"name"`
	ServingSize  string    `gorm:"size:100" json:"serving_size"`
	Calories     int       `gorm:"not null;default:0" json:"calories"`
	TotalFat     float64   `json:"total_fat"`
	Sodium       float64   `json:"sodium"`
	TotalCarb    float64   `json:"total_carb"`
	DietaryFiber float64   `json:"dietary_fiber"`
	Sugars       float64   `json:"sugars"`
	Protein      float64   `json:"protein"`
	Location     *string   `gorm:"size:100;uniqueIndex:idx_food_items_natural_key" json:"location"`
	Date         *string   `gorm:"size:40;uniqueIndex:idx_food_items_natural_key;index" json:"date"` // canonical, e.g. "Mon November 10, 2025"
	MealType     *string   `gorm:"size:16;uniqueIndex:idx_food_items_natural_key" json:"meal_type"`
	CreatedAt    time.Time `json:"created_at"`
}
