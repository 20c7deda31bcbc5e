package services

import (
	"context"
	"encoding/json"
	"strings"

	"studenteats/models"
	"studenteats/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileService struct{ db *gorm.DB }

func NewProfileService(db *gorm.DB) *ProfileService { return &ProfileService{db: db} }

// ProfileInput accepts either metric or imperial body measurements; metric wins when both are set.
type ProfileInput struct {
	Email              *string  `json:"email" binding:"omitempty,email"`
	FullName           *string  `json:"full_name" binding:"omitempty,max=255"`
	Age                int      `json:"age" binding:"required,gte=13,lte=120"`
	Sex                string   `json:"sex" binding:"required"`
	HeightCm           *float64 `json:"height_cm"`
	HeightInches       *float64 `json:"height_inches" binding:"omitempty,gt=0"`
	WeightKg           *float64 `json:"weight_kg"`
	WeightLbs          *float64 `json:"weight_lbs" binding:"omitempty,gt=0"`
	ActivityLevel      int      `json:"activity_level" binding:"required,gte=1,lte=5"`
	DietaryPreferences []string `json:"dietary_preferences"`
	GoalCalories       *float64 `json:"goal_calories" binding:"omitempty,gte=0"`
	GoalProtein        *float64 `json:"goal_protein" binding:"omitempty,gte=0"`
	GoalCarbs          *float64 `json:"goal_carbs" binding:"omitempty,gte=0"`
	GoalFat            *float64 `json:"goal_fat" binding:"omitempty,gte=0"`
}

// ProfileUpdate is a partial write; nil fields are left alone.
type ProfileUpdate struct {
	Email              *string  `json:"email" binding:"omitempty,email"`
	FullName           *string  `json:"full_name" binding:"omitempty,max=255"`
	Age                *int     `json:"age" binding:"omitempty,gte=13,lte=120"`
	Sex                *string  `json:"sex"`
	HeightCm           *float64 `json:"height_cm"`
	HeightInches       *float64 `json:"height_inches" binding:"omitempty,gt=0"`
	WeightKg           *float64 `json:"weight_kg"`
	WeightLbs          *float64 `json:"weight_lbs" binding:"omitempty,gt=0"`
	ActivityLevel      *int     `json:"activity_level" binding:"omitempty,gte=1,lte=5"`
	DietaryPreferences []string `json:"dietary_preferences"`
	GoalCalories       *float64 `json:"goal_calories" binding:"omitempty,gte=0"`
	GoalProtein        *float64 `json:"goal_protein" binding:"omitempty,gte=0"`
	GoalCarbs          *float64 `json:"goal_carbs" binding:"omitempty,gte=0"`
	GoalFat            *float64 `json:"goal_fat" binding:"omitempty,gte=0"`
}

func (u ProfileUpdate) empty() bool {
	return u.Email == nil && u.FullName == nil && u.Age == nil && u.Sex == nil &&
		u.HeightCm == nil && u.HeightInches == nil && u.WeightKg == nil && u.WeightLbs == nil &&
		u.ActivityLevel == nil && u.DietaryPreferences == nil &&
		u.GoalCalories == nil && u.GoalProtein == nil && u.GoalCarbs == nil && u.GoalFat == nil
}

type ProfileView struct {
	models.Profile
	BMI         float64 `json:"bmi"`
	BMICategory string  `json:"bmi_category"`
}

func viewOf(p *models.Profile) *ProfileView {
	v := &ProfileView{Profile: *p}
	if bmi, err := utils.CalculateBMI(p.HeightCm, p.WeightKg); err == nil {
		v.BMI = bmi
		v.BMICategory = utils.BMICategory(bmi)
	}
	return v
}

// Upsert creates or replaces the profile for userID and returns it with fresh bmr/tdee.
func (s *ProfileService) Upsert(ctx context.Context, userID string, in ProfileInput) (*ProfileView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, Validation("user_id", "user_id is required")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	sex, ok := utils.NormalizeSex(in.Sex)
	if !ok {
		return nil, Validation("sex", "sex must be one of: Male Female Other")
	}
	height, err := resolveHeight(in.HeightCm, in.HeightInches, true)
	if err != nil {
		return nil, err
	}
	weight, err := resolveWeight(in.WeightKg, in.WeightLbs, true)
	if err != nil {
		return nil, err
	}
	prefs, err := encodePreferences(in.DietaryPreferences)
	if err != nil {
		return nil, err
	}

	p := models.Profile{
		ID:                 userID,
		Email:              in.Email,
		FullName:           in.FullName,
		Age:                in.Age,
		Sex:                sex,
		HeightCm:           *height,
		WeightKg:           *weight,
		ActivityLevel:      in.ActivityLevel,
		DietaryPreferences: prefs,
		GoalCalories:       in.GoalCalories,
		GoalProtein:        in.GoalProtein,
		GoalCarbs:          in.GoalCarbs,
		GoalFat:            in.GoalFat,
	}
	p.RecomputeMetrics()

	cols := []string{"age", "sex", "height_cm", "weight_kg", "activity_level", "bmr", "tdee",
		"goal_calories", "goal_protein", "goal_carbs", "goal_fat", "updated_at"}
	if in.Email != nil {
		cols = append(cols, "email")
	}
	if in.FullName != nil {
		cols = append(cols, "full_name")
	}
	if in.DietaryPreferences != nil {
		cols = append(cols, "dietary_preferences")
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(&p).Error
	if err != nil {
		return nil, Upstream("saving profile", err)
	}
	return s.Get(ctx, userID)
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*ProfileView, error) {
	p, err := s.load(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return viewOf(p), nil
}

func (s *ProfileService) load(ctx context.Context, tx *gorm.DB, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := tx.WithContext(ctx).Where("id = ?", userID).First(&p).Error; err != nil {
		return nil, lookupErr("profile", userID, err)
	}
	return &p, nil
}

// Update applies a partial write. Derived metrics are recomputed in the same
// transaction as the row is saved, whatever subset of fields changed.
func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileUpdate) (*ProfileView, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, Validation("body", "no fields to update")
	}

	var out *models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Profile
		if err := forUpdate(tx).Where("id = ?", userID).First(&p).Error; err != nil {
			return lookupErr("profile", userID, err)
		}
		if err := applyProfileUpdate(&p, in); err != nil {
			return err
		}
		p.RecomputeMetrics()
		if err := tx.Save(&p).Error; err != nil {
			return Upstream("saving profile", err)
		}
		out = &p
		return nil
	})
	if err != nil {
		return nil, Upstream("updating profile", err)
	}
	return viewOf(out), nil
}

func applyProfileUpdate(p *models.Profile, in ProfileUpdate) error {
	if in.Email != nil {
		p.Email = in.Email
	}
	if in.FullName != nil {
		p.FullName = in.FullName
	}
	if in.Age != nil {
		p.Age = *in.Age
	}
	if in.Sex != nil {
		sex, ok := utils.NormalizeSex(*in.Sex)
		if !ok {
			return Validation("sex", "sex must be one of: Male Female Other")
		}
		p.Sex = sex
	}
	height, err := resolveHeight(in.HeightCm, in.HeightInches, false)
	if err != nil {
		return err
	}
	if height != nil {
		p.HeightCm = *height
	}
	weight, err := resolveWeight(in.WeightKg, in.WeightLbs, false)
	if err != nil {
		return err
	}
	if weight != nil {
		p.WeightKg = *weight
	}
	if in.ActivityLevel != nil {
		p.ActivityLevel = *in.ActivityLevel
	}
	if in.DietaryPreferences != nil {
		prefs, err := encodePreferences(in.DietaryPreferences)
		if err != nil {
			return err
		}
		p.DietaryPreferences = prefs
	}
	if in.GoalCalories != nil {
		p.GoalCalories = in.GoalCalories
	}
	if in.GoalProtein != nil {
		p.GoalProtein = in.GoalProtein
	}
	if in.GoalCarbs != nil {
		p.GoalCarbs = in.GoalCarbs
	}
	if in.GoalFat != nil {
		p.GoalFat = in.GoalFat
	}
	return nil
}

func resolveHeight(cm, inches *float64, required bool) (*float64, error) {
	var v float64
	switch {
	case cm != nil:
		v = *cm
	case inches != nil:
		v = utils.Round2(utils.InchesToCm(*inches))
	case required:
		return nil, Validation("height_cm", "height_cm is required")
	default:
		return nil, nil
	}
	if v < 50 || v > 300 {
		return nil, Validation("height_cm", "height_cm must be between 50 and 300")
	}
	return &v, nil
}

func resolveWeight(kg, lbs *float64, required bool) (*float64, error) {
	var v float64
	switch {
	case kg != nil:
		v = *kg
	case lbs != nil:
		v = utils.Round2(utils.LbsToKg(*lbs))
	case required:
		return nil, Validation("weight_kg", "weight_kg is required")
	default:
		return nil, nil
	}
	if v < 30 || v > 500 {
		return nil, Validation("weight_kg", "weight_kg must be between 30 and 500")
	}
	return &v, nil
}

func encodePreferences(prefs []string) (datatypes.JSON, error) {
	if prefs == nil {
		return nil, nil
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return nil, Validation("dietary_preferences", "dietary_preferences must be a list of strings")
	}
	return datatypes.JSON(raw), nil
}

// forUpdate row-locks inside a transaction where the dialect supports it.
// SQLite serializes writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
