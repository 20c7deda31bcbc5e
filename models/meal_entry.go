package models

import "time"

// MealEntry logs a user eating a catalog item. Nutrients come from the joined FoodItem.
type MealEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProfileID    string    `gorm:"size:64;not null;index:idx_meal_entries_profile_date" json:"profile_id"`
	FoodItemID   uint      `gorm:"not null;index" json:"food_item_id"`
	FoodItem     *FoodItem `gorm:"foreignKey:FoodItemID" json:"food_item,omitempty"`
	EntryDate    string    `gorm:"size:10;not null;index:idx_meal_entries_profile_date" json:"entry_date"` // YYYY-MM-DD
	MealCategory string    `gorm:"size:16;not null" json:"meal_category"`
	Servings     float64   `gorm:"not null" json:"servings"`
	CreatedAt    time.Time `json:"created_at"`
}
