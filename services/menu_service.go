package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"studenteats/models"
	"studenteats/utils"
)

type MenuService struct {
	foods *FoodService
}

func NewMenuService(foods *FoodService) *MenuService { return &MenuService{foods: foods} }

// MenuIssue is one structural defect in an uploaded menu. Entry is 1-based; 0 means
// the defect is not tied to a single entry.
type MenuIssue struct {
	Location string `json:"location,omitempty"`
	Entry    int    `json:"entry,omitempty"`
	Problem  string `json:"problem"`
}

func (i MenuIssue) String() string { return i.Problem }

type UploadResult struct {
	Success        bool     `json:"success"`
	ItemsProcessed int      `json:"items_processed"`
	ItemsCreated   int      `json:"items_created"`
	ItemsExisting  int      `json:"items_existing"`
	ItemsFailed    int      `json:"items_failed"`
	Errors         []string `json:"errors"`
}

// ---------- Parsing ----------

// ParseMenuUpload decodes {location: [{date, meals: {mealType: {section: [item]}}}]}.
// It walks the whole document and returns every defect it finds, not just the first.
func ParseMenuUpload(raw []byte) (models.MenuUpload, []MenuIssue, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, Validation("body", "menu upload is not valid JSON")
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, []MenuIssue{{Problem: "Root must be a dictionary with location names as keys"}}, nil
	}

	upload := models.MenuUpload{}
	var issues []MenuIssue
	for _, location := range sortedKeys(root) {
		entries, ok := root[location].([]any)
		if !ok {
			issues = append(issues, MenuIssue{Location: location,
				Problem: fmt.Sprintf("Location '%s' must contain a list of menu entries", location)})
			continue
		}
		days := make([]models.MenuDay, 0, len(entries))
		for i, raw := range entries {
			day, dayIssues := parseMenuDay(location, i+1, raw)
			if len(dayIssues) > 0 {
				issues = append(issues, dayIssues...)
				continue
			}
			days = append(days, day)
		}
		upload[location] = days
	}
	return upload, issues, nil
}

func parseMenuDay(location string, n int, raw any) (models.MenuDay, []MenuIssue) {
	issue := func(format string, args ...any) MenuIssue {
		return MenuIssue{Location: location, Entry: n, Problem: fmt.Sprintf(format, args...)}
	}
	entry, ok := raw.(map[string]any)
	if !ok {
		return models.MenuDay{}, []MenuIssue{issue("Entry %d in '%s' must be a dictionary", n, location)}
	}

	var issues []MenuIssue
	date, hasDate := entry["date"]
	if !hasDate {
		issues = append(issues, issue("Entry %d in '%s' missing 'date' field", n, location))
	} else if _, ok := date.(string); !ok {
		issues = append(issues, issue("Entry %d in '%s' 'date' must be a string", n, location))
	}
	mealsRaw, hasMeals := entry["meals"]
	if !hasMeals {
		issues = append(issues, issue("Entry %d in '%s' missing 'meals' field", n, location))
		return models.MenuDay{}, issues
	}
	meals, ok := mealsRaw.(map[string]any)
	if !ok {
		return models.MenuDay{}, append(issues, issue("Entry %d in '%s' 'meals' must be a dictionary", n, location))
	}

	day := models.MenuDay{}
	if s, ok := date.(string); ok {
		day.Date = s
	}
	for _, mealType := range sortedKeys(meals) {
		sectionsRaw, ok := meals[mealType].(map[string]any)
		if !ok {
			issues = append(issues, issue("Entry %d in '%s' meal '%s' must be a dictionary of sections", n, location, mealType))
			continue
		}
		meal := models.MealMenu{MealType: mealType}
		for _, section := range sortedKeys(sectionsRaw) {
			itemsRaw, ok := sectionsRaw[section].([]any)
			if !ok {
				issues = append(issues, issue("Entry %d in '%s' section '%s' must be a list of items", n, location, section))
				continue
			}
			sec := models.MenuSection{Name: section, Items: make([]models.MenuItem, 0, len(itemsRaw))}
			for j, itRaw := range itemsRaw {
				it, ok := itRaw.(map[string]any)
				if !ok {
					issues = append(issues, issue("Entry %d in '%s' section '%s' item %d must be a dictionary", n, location, section, j+1))
					continue
				}
				sec.Items = append(sec.Items, parseMenuItem(it))
			}
			meal.Sections = append(meal.Sections, sec)
		}
		day.Meals = append(day.Meals, meal)
	}
	return day, issues
}

func parseMenuItem(it map[string]any) models.MenuItem {
	item := models.MenuItem{Nutrition: map[string]string{}}
	if name, ok := it["name"].(string); ok {
		item.Name = name
	}
	if nut, ok := it["nutrition"].(map[string]any); ok {
		for k, v := range nut {
			switch val := v.(type) {
			case string:
				item.Nutrition[k] = val
			case float64:
				item.Nutrition[k] = strconv.FormatFloat(val, 'f', -1, 64)
			}
		}
	}
	return item
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---------- Ingestion ----------

// UploadJSON validates a full menu document and ingests it. Structural defects
// reject the whole upload before anything is written.
func (s *MenuService) UploadJSON(ctx context.Context, raw []byte) (*UploadResult, error) {
	upload, issues, err := ParseMenuUpload(raw)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, issuesError(issues)
	}
	return s.Ingest(ctx, upload)
}

// UploadLocation ingests a single {date, meals} body for one dining hall.
func (s *MenuService) UploadLocation(ctx context.Context, location string, raw []byte) (*UploadResult, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, Validation("location", "location is required")
	}
	var day any
	if err := json.Unmarshal(raw, &day); err != nil {
		return nil, Validation("body", "menu upload is not valid JSON")
	}
	wrapped, err := json.Marshal(map[string]any{location: []any{day}})
	if err != nil {
		return nil, Validation("body", err.Error())
	}
	return s.UploadJSON(ctx, wrapped)
}

func issuesError(issues []MenuIssue) *Error {
	e := Validation("body", fmt.Sprintf("menu upload has %d structural error(s)", len(issues)))
	for _, is := range issues {
		e.Details = append(e.Details, is.String())
	}
	return e
}

// Ingest writes every item through CreateOrGet, so re-running the same menu is a no-op.
// Per-item failures are counted and reported rather than aborting the batch.
func (s *MenuService) Ingest(ctx context.Context, upload models.MenuUpload) (*UploadResult, error) {
	res := &UploadResult{Errors: []string{}}
	locations := make([]string, 0, len(upload))
	for loc := range upload {
		locations = append(locations, loc)
	}
	sort.Strings(locations)

	for _, loc := range locations {
		for _, day := range upload[loc] {
			for _, in := range FoodInputsFromMenu(loc, day, &res.Errors) {
				res.ItemsProcessed++
				_, created, err := s.foods.createOrGet(ctx, in)
				switch {
				case err != nil:
					res.ItemsFailed++
					res.Errors = append(res.Errors, AsError(err).Message)
					slog.Warn("menu item ingest failed", "location", loc, "name", in.Name, "err", err)
				case created:
					res.ItemsCreated++
				default:
					res.ItemsExisting++
				}
			}
			if err := ctx.Err(); err != nil {
				return res, Upstream("ingesting menu", err)
			}
		}
	}
	res.Success = res.ItemsFailed == 0 && len(res.Errors) == 0
	return res, nil
}

// FoodInputsFromMenu flattens one day of a hall's menu into catalog rows.
// Unknown meal types are reported into problems and skipped.
func FoodInputsFromMenu(location string, day models.MenuDay, problems *[]string) []FoodItemInput {
	date := utils.NormalizeDate(day.Date)
	loc := location
	var out []FoodItemInput
	for _, meal := range day.Meals {
		mt, ok := utils.NormalizeMealType(meal.MealType)
		if !ok {
			*problems = append(*problems, fmt.Sprintf("%s %s: unknown meal type '%s'", location, day.Date, meal.MealType))
			continue
		}
		for _, sec := range meal.Sections {
			for _, it := range sec.Items {
				name := strings.TrimSpace(it.Name)
				if name == "" {
					name = "Unknown"
				}
				serving := strings.TrimSpace(it.Nutrition["serving_size"])
				if serving == "" {
					serving = "1 serving"
				}
				d, m := date, mt
				out = append(out, FoodItemInput{
					Name:         name,
					ServingSize:  serving,
					Calories:     int(utils.ParseNutritionValue(it.Nutrition["calories"])),
					TotalFat:     utils.ParseNutritionValue(it.Nutrition["total_fat"]),
					Sodium:       utils.ParseNutritionValue(it.Nutrition["sodium"]),
					TotalCarb:    utils.ParseNutritionValue(it.Nutrition["total_carb"]),
					DietaryFiber: utils.ParseNutritionValue(it.Nutrition["dietary_fiber"]),
					Sugars:       utils.ParseNutritionValue(it.Nutrition["sugars"]),
					Protein:      utils.ParseNutritionValue(it.Nutrition["protein"]),
					Location:     &loc,
					Date:         &d,
					MealType:     &m,
				})
			}
		}
	}
	return out
}
