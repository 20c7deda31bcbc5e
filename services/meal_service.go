package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"studenteats/models"
	"studenteats/utils"

	"gorm.io/gorm"
)

const (
	maxServings     = 20
	maxRangeDays    = 92
	maxHistoryDays  = 30
	defaultServings = 1.0
)

type MealService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMealService(db *gorm.DB) *MealService {
	return &MealService{db: db, now: time.Now}
}

type MealEntryInput struct {
	ProfileID    string   `json:"profile_id" binding:"required"`
	FoodItemID   uint     `json:"food_item_id" binding:"required,gt=0"`
	EntryDate    string   `json:"entry_date" binding:"omitempty,datetime=2006-01-02"`
	MealCategory string   `json:"meal_category" binding:"required,oneof=Breakfast Lunch Dinner"`
	Servings     *float64 `json:"servings" binding:"omitempty,gt=0,lte=20"`
}

// ---------- Entries ----------

// Create logs a meal. entry_date defaults to today in the process's local zone
// and servings to 1. The food item and profile must both exist.
func (s *MealService) Create(ctx context.Context, in MealEntryInput) (*models.MealEntry, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	entry := models.MealEntry{
		ProfileID:    strings.TrimSpace(in.ProfileID),
		FoodItemID:   in.FoodItemID,
		EntryDate:    in.EntryDate,
		MealCategory: in.MealCategory,
		Servings:     defaultServings,
	}
	if entry.EntryDate == "" {
		entry.EntryDate = utils.ISODate(s.now())
	}
	if in.Servings != nil {
		entry.Servings = *in.Servings
	}

	db := s.db.WithContext(ctx)
	var food models.FoodItem
	if err := db.First(&food, in.FoodItemID).Error; err != nil {
		return nil, lookupErr("food_item", in.FoodItemID, err)
	}
	if err := db.Select("id").Where("id = ?", entry.ProfileID).First(&models.Profile{}).Error; err != nil {
		return nil, lookupErr("profile", entry.ProfileID, err)
	}

	if err := db.Create(&entry).Error; err != nil {
		return nil, Upstream("saving meal entry", err)
	}
	entry.FoodItem = &food
	return &entry, nil
}

func (s *MealService) Get(ctx context.Context, id uint) (*models.MealEntry, error) {
	var e models.MealEntry
	if err := s.db.WithContext(ctx).Preload("FoodItem").First(&e, id).Error; err != nil {
		return nil, lookupErr("meal_entry", id, err)
	}
	return &e, nil
}

func (s *MealService) UpdateServings(ctx context.Context, id uint, servings float64) (*models.MealEntry, error) {
	if servings <= 0 || servings > maxServings {
		return nil, Validation("servings", "servings must be greater than 0 and at most 20")
	}
	res := s.db.WithContext(ctx).Model(&models.MealEntry{}).Where("id = ?", id).Update("servings", servings)
	if res.Error != nil {
		return nil, Upstream("updating meal entry", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("meal_entry", id)
	}
	return s.Get(ctx, id)
}

func (s *MealService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.MealEntry{}, id)
	if res.Error != nil {
		return Upstream("deleting meal entry", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("meal_entry", id)
	}
	return nil
}

// ---------- Day views ----------

func (s *MealService) entriesBetween(ctx context.Context, profileID, from, to string) ([]models.MealEntry, error) {
	var entries []models.MealEntry
	err := s.db.WithContext(ctx).
		Preload("FoodItem").
		Where("profile_id = ? AND entry_date BETWEEN ? AND ?", profileID, from, to).
		Order("entry_date ASC, created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, Upstream("loading meal entries", err)
	}
	return entries, nil
}

// ForDate groups one day's entries by meal category.
func (s *MealService) ForDate(ctx context.Context, profileID, date string) (*DayMeals, error) {
	d, err := parseISO("date", date)
	if err != nil {
		return nil, err
	}
	key := utils.ISODate(d)
	entries, err := s.entriesBetween(ctx, profileID, key, key)
	if err != nil {
		return nil, err
	}
	day := newDayMeals(key, entries)
	return &day, nil
}

func (s *MealService) Today(ctx context.Context, profileID string) (*DayMeals, error) {
	return s.ForDate(ctx, profileID, utils.ISODate(s.now()))
}

// DateRange returns one bucket per day from start to end inclusive.
func (s *MealService) DateRange(ctx context.Context, profileID, start, end string) ([]DayMeals, error) {
	from, err := parseISO("start", start)
	if err != nil {
		return nil, err
	}
	to, err := parseISO("end", end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, Validation("end", "end must be on or after start")
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return nil, Validation("end", "date range must be at most 92 days")
	}
	entries, err := s.entriesBetween(ctx, profileID, utils.ISODate(from), utils.ISODate(to))
	if err != nil {
		return nil, err
	}
	return BucketDays(entries, from, to), nil
}

type MealHistory struct {
	ProfileID string     `json:"profile_id"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	Days      []DayMeals `json:"days"`
	Totals    Totals     `json:"totals"`
}

// History covers the last `days` days ending today.
func (s *MealService) History(ctx context.Context, profileID string, days int) (*MealHistory, error) {
	if days < 1 || days > maxHistoryDays {
		return nil, Validation("days", "days must be between 1 and 30")
	}
	end := dayStart(s.now())
	start := end.AddDate(0, 0, -(days - 1))
	buckets, err := s.DateRange(ctx, profileID, utils.ISODate(start), utils.ISODate(end))
	if err != nil {
		return nil, err
	}
	out := &MealHistory{
		ProfileID: profileID,
		StartDate: utils.ISODate(start),
		EndDate:   utils.ISODate(end),
		Days:      buckets,
	}
	for _, b := range buckets {
		out.Totals.Calories += b.Totals.Calories
		out.Totals.Protein += b.Totals.Protein
		out.Totals.Carbs += b.Totals.Carbs
		out.Totals.Fat += b.Totals.Fat
		out.Totals.Sodium += b.Totals.Sodium
		out.Totals.Fiber += b.Totals.Fiber
		out.Totals.Sugar += b.Totals.Sugar
		out.Totals.Count += b.Totals.Count
	}
	return out, nil
}

// ---------- Totals ----------

type GoalProgress struct {
	Consumed float64 `json:"consumed"`
	Goal     float64 `json:"goal"`
	Percent  float64 `json:"percent"`
}

type DailyTotals struct {
	ProfileID string                  `json:"profile_id"`
	Date      string                  `json:"date"`
	Totals    Totals                  `json:"totals"`
	Progress  map[string]GoalProgress `json:"progress,omitempty"`
}

// DailyTotals sums a day's entries and, when the user has a profile, reports
// progress against its goals. Calories fall back to TDEE when no goal is set.
func (s *MealService) DailyTotals(ctx context.Context, profileID, date string) (*DailyTotals, error) {
	day, err := s.ForDate(ctx, profileID, date)
	if err != nil {
		return nil, err
	}
	out := &DailyTotals{ProfileID: profileID, Date: day.Date, Totals: day.Totals}

	var p models.Profile
	err = s.db.WithContext(ctx).Where("id = ?", profileID).First(&p).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return out, nil
	case err != nil:
		return nil, Upstream("loading profile", err)
	}

	calGoal := p.TDEE
	if p.GoalCalories != nil {
		calGoal = *p.GoalCalories
	}
	out.Progress = map[string]GoalProgress{}
	type goal struct {
		key      string
		goal     *float64
		consumed float64
	}
	for _, g := range []goal{
		{"calories", &calGoal, day.Totals.Calories},
		{"protein", p.GoalProtein, day.Totals.Protein},
		{"carbs", p.GoalCarbs, day.Totals.Carbs},
		{"fat", p.GoalFat, day.Totals.Fat},
	} {
		if g.goal == nil || *g.goal <= 0 {
			continue
		}
		out.Progress[g.key] = GoalProgress{
			Consumed: utils.Round2(g.consumed),
			Goal:     *g.goal,
			Percent:  pct(g.consumed, *g.goal),
		}
	}
	return out, nil
}

func (s *MealService) TodayTotals(ctx context.Context, profileID string) (*DailyTotals, error) {
	return s.DailyTotals(ctx, profileID, utils.ISODate(s.now()))
}

func parseISO(field, v string) (time.Time, error) {
	t, err := time.ParseInLocation(utils.ISODateLayout, strings.TrimSpace(v), time.Local)
	if err != nil {
		return time.Time{}, Validation(field, field+" must be formatted as YYYY-MM-DD")
	}
	return t, nil
}
