package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"studenteats/models"
	"studenteats/utils"

	"gorm.io/gorm"
)

// LabelDetector names what is in a photo (AWS Rekognition in production).
type LabelDetector interface {
	RecognizeLabels(ctx context.Context, dataURI string) ([]string, error)
}

type FoodService struct {
	db  *gorm.DB
	rek LabelDetector
}

func NewFoodService(db *gorm.DB, rek LabelDetector) *FoodService {
	return &FoodService{db: db, rek: rek}
}

type FoodItemInput struct {
	Name         string  `json:"name" binding:"required,min=1,max=200"`
	ServingSize  string  `json:"serving_size" binding:"required,max=100"`
	Calories     int     `json:"calories" binding:"gte=0"`
	TotalFat     float64 `json:"total_fat" binding:"gte=0"`
	Sodium       float64 `json:"sodium" binding:"gte=0"`
	TotalCarb    float64 `json:"total_carb" binding:"gte=0"`
	DietaryFiber float64 `json:"dietary_fiber" binding:"gte=0"`
	Sugars       float64 `json:"sugars" binding:"gte=0"`
	Protein      float64 `json:"protein" binding:"gte=0"`
	Location     *string `json:"location" binding:"omitempty,max=100"`
	Date         *string `json:"date"`
	MealType     *string `json:"meal_type" binding:"omitempty,oneof=Breakfast Lunch Dinner"`
}

func (in FoodItemInput) toModel() models.FoodItem {
	return models.FoodItem{
		Name:         strings.TrimSpace(in.Name),
		ServingSize:  in.ServingSize,
		Calories:     in.Calories,
		TotalFat:     in.TotalFat,
		Sodium:       in.Sodium,
		TotalCarb:    in.TotalCarb,
		DietaryFiber: in.DietaryFiber,
		Sugars:       in.Sugars,
		Protein:      in.Protein,
		Location:     in.Location,
		Date:         in.Date,
		MealType:     in.MealType,
	}
}

// ---------- Create or get ----------

// CreateOrGet inserts the item, or returns the existing row with the same
// (name, location, date, meal_type). Racing callers converge on one row.
func (s *FoodService) CreateOrGet(ctx context.Context, in FoodItemInput) (*models.FoodItem, error) {
	item, _, err := s.createOrGet(ctx, in)
	return item, err
}

func (s *FoodService) createOrGet(ctx context.Context, in FoodItemInput) (*models.FoodItem, bool, error) {
	if err := validateInput(in); err != nil {
		return nil, false, err
	}
	item := in.toModel()
	if item.Date != nil {
		d := utils.NormalizeDate(*item.Date)
		item.Date = &d
	}

	insertErr := s.db.WithContext(ctx).Create(&item).Error
	if insertErr == nil {
		return &item, true, nil
	}

	// no pre-check: a failed insert is the signal to fetch the winner
	if item.Location != nil && item.Date != nil && item.MealType != nil {
		var existing models.FoodItem
		err := s.db.WithContext(ctx).
			Where("name = ? AND location = ? AND date = ? AND meal_type = ?",
				item.Name, *item.Location, *item.Date, *item.MealType).
			Order("id ASC").
			First(&existing).Error
		if err == nil {
			return &existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Warn("food item refetch failed", "name", item.Name, "err", err)
		}
	}

	return nil, false, &Error{
		Kind:      KindUpstream,
		Message:   "failed to create food item: " + item.Name,
		Entity:    "food_item",
		ID:        item.Name,
		Retryable: errors.Is(insertErr, context.DeadlineExceeded),
		Err:       fmt.Errorf("%w: %v", ErrCreationFailed, insertErr),
	}
}

// ---------- Reads ----------

func (s *FoodService) Get(ctx context.Context, id uint) (*models.FoodItem, error) {
	var item models.FoodItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, lookupErr("food_item", id, err)
	}
	return &item, nil
}

type FoodItemDetail struct {
	*models.FoodItem
	Flags []utils.NutritionFlag `json:"flags"`
}

// Detail is Get plus per-serving nutrition flags.
func (s *FoodService) Detail(ctx context.Context, id uint) (*FoodItemDetail, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &FoodItemDetail{FoodItem: item, Flags: ItemFlags(item)}, nil
}

func ItemFlags(f *models.FoodItem) []utils.NutritionFlag {
	return utils.FlagServing(f.Name, utils.ServingNutrients{
		Calories: float64(f.Calories),
		Protein:  f.Protein,
		Carbs:    f.TotalCarb,
		Fat:      f.TotalFat,
		Sodium:   f.Sodium,
		Fiber:    f.DietaryFiber,
		Sugar:    f.Sugars,
	}, 0)
}

type FoodSearch struct {
	Query    string `form:"query"`
	Date     string `form:"date"` // YYYY-MM-DD or any expression NormalizeDate understands
	Location string `form:"location"`
	MealType string `form:"meal_type"`
	Limit    int    `form:"limit"`
}

// Search matches a case-insensitive substring of the name. An empty query matches everything.
func (s *FoodService) Search(ctx context.Context, q FoodSearch) ([]models.FoodItem, error) {
	limit, err := clampLimit(q.Limit, 50, 200)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Model(&models.FoodItem{})
	if term := strings.TrimSpace(q.Query); term != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	if q.Date != "" {
		tx = tx.Where("date = ?", utils.NormalizeDate(q.Date))
	}
	if q.Location != "" {
		tx = tx.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(q.Location)+"%")
	}
	if q.MealType != "" {
		mt, ok := utils.NormalizeMealType(q.MealType)
		if !ok {
			return nil, Validation("meal_type", "meal_type must be one of: Breakfast Lunch Dinner")
		}
		tx = tx.Where("meal_type = ?", mt)
	}

	var items []models.FoodItem
	if err := tx.Order("name ASC").Limit(limit).Find(&items).Error; err != nil {
		return nil, Upstream("searching food items", err)
	}
	return items, nil
}

// AvailableDates lists distinct catalog dates, oldest first. Dates that do not
// parse sort last in string order.
func (s *FoodService) AvailableDates(ctx context.Context, location string) ([]string, error) {
	tx := s.db.WithContext(ctx).Model(&models.FoodItem{}).Where("date IS NOT NULL AND date <> ''")
	if location != "" {
		tx = tx.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(location)+"%")
	}
	var dates []string
	if err := tx.Distinct("date").Pluck("date", &dates).Error; err != nil {
		return nil, Upstream("listing available dates", err)
	}
	sortDates(dates)
	return dates, nil
}

func sortDates(dates []string) {
	parsed := make(map[string]time.Time, len(dates))
	for _, d := range dates {
		if t, err := time.Parse(utils.CanonicalDateLayout, d); err == nil {
			parsed[d] = t
		} else if t, err := time.Parse(utils.ISODateLayout, d); err == nil {
			parsed[d] = t
		}
	}
	sort.SliceStable(dates, func(i, j int) bool {
		ti, iok := parsed[dates[i]]
		tj, jok := parsed[dates[j]]
		switch {
		case iok && jok:
			return ti.Before(tj)
		case iok != jok:
			return iok
		}
		return dates[i] < dates[j]
	})
}

// MenuFor returns a hall's items for one date grouped by meal type.
func (s *FoodService) MenuFor(ctx context.Context, location, date string) (map[string][]models.FoodItem, error) {
	if strings.TrimSpace(location) == "" {
		return nil, Validation("location", "location is required")
	}
	var items []models.FoodItem
	err := s.db.WithContext(ctx).
		Where("location = ? AND date = ?", location, utils.NormalizeDate(date)).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, Upstream("loading menu", err)
	}

	out := make(map[string][]models.FoodItem, len(utils.MealTypes))
	for _, mt := range utils.MealTypes {
		out[mt] = []models.FoodItem{}
	}
	for _, it := range items {
		if it.MealType == nil {
			continue
		}
		if _, ok := out[*it.MealType]; ok {
			out[*it.MealType] = append(out[*it.MealType], it)
		}
	}
	return out, nil
}

func (s *FoodService) List(ctx context.Context, limit, offset int) ([]models.FoodItem, error) {
	limit, err := clampLimit(limit, 50, 200)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, Validation("offset", "offset must be at least 0")
	}
	var items []models.FoodItem
	if err := s.db.WithContext(ctx).Order("name ASC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, Upstream("listing food items", err)
	}
	return items, nil
}

// ---------- Recognition ----------

type Recognition struct {
	Labels  []string          `json:"labels"`
	Matched string            `json:"matched_label,omitempty"`
	Items   []models.FoodItem `json:"items"`
}

// Recognize labels a photo and searches the catalog for each label in turn,
// stopping at the first one with matches.
func (s *FoodService) Recognize(ctx context.Context, dataURI, date string) (*Recognition, error) {
	if s.rek == nil {
		return nil, &Error{Kind: KindUpstream, Message: "image recognition is not configured"}
	}
	labels, err := s.rek.RecognizeLabels(ctx, dataURI)
	if err != nil {
		return nil, Upstream("recognizing image", err)
	}
	out := &Recognition{Labels: labels, Items: []models.FoodItem{}}
	for _, label := range labels {
		items, err := s.Search(ctx, FoodSearch{Query: label, Date: date, Limit: 10})
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			out.Matched = label
			out.Items = items
			break
		}
	}
	return out, nil
}

func clampLimit(limit, def, max int) (int, error) {
	switch {
	case limit == 0:
		return def, nil
	case limit < 0:
		return 0, Validation("limit", "limit must be at least 1")
	case limit > max:
		return 0, Validation("limit", fmt.Sprintf("limit must be at most %d", max))
	}
	return limit, nil
}
