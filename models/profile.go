package models

import (
	"time"

	"studenteats/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Profile is keyed by the auth provider's user id. Height and weight are metric.
type Profile struct {
	ID                 string         `gorm:"primaryKey;size:64" json:"id"`
	Email              *string        `gorm:"size:255" json:"email"`
	FullName           *string        `gorm:"size:255" json:"full_name"`
	Age                int            `gorm:"not null" json:"age"`
	Sex                string         `gorm:"size:10;not null" json:"sex"` // Male | Female | Other
	HeightCm           float64        `gorm:"column:height_cm;not null" json:"height_cm"`
	WeightKg           float64        `gorm:"column:weight_kg;not null" json:"weight_kg"`
	ActivityLevel      int            `gorm:"not null" json:"activity_level"`
	BMR                float64        `gorm:"column:bmr" json:"bmr"`
	TDEE               float64        `gorm:"column:tdee" json:"tdee"`
	DietaryPreferences datatypes.JSON `json:"dietary_preferences,omitempty"`
	GoalCalories       *float64       `json:"goal_calories,omitempty"`
	GoalProtein        *float64       `json:"goal_protein,omitempty"`
	GoalCarbs          *float64       `json:"goal_carbs,omitempty"`
	GoalFat            *float64       `json:"goal_fat,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// RecomputeMetrics refreshes bmr and tdee from the five stored inputs.
func (p *Profile) RecomputeMetrics() {
	p.BMR, p.TDEE = utils.CalculateMetrics(p.WeightKg, p.HeightCm, p.Age, p.Sex, p.ActivityLevel)
}

// BeforeSave keeps the derived fields in step with every write.
func (p *Profile) BeforeSave(tx *gorm.DB) error {
	p.RecomputeMetrics()
	return nil
}
