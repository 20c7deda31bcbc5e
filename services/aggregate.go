package services

import (
	"time"

	"studenteats/models"
	"studenteats/utils"
)

// Nutrients are per-unit values: per serving for meal entries, per item for orders.
type Nutrients struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
	Sodium   float64
	Fiber    float64
	Sugar    float64
}

// Portion is one nutrient-bearing record times its multiplier. A nil Per counts as zeros.
type Portion struct {
	Per        *Nutrients
	Multiplier float64
}

type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"total_carb"`
	Fat      float64 `json:"total_fat"`
	Sodium   float64 `json:"sodium"`
	Fiber    float64 `json:"dietary_fiber"`
	Sugar    float64 `json:"sugars"`
	Count    int     `json:"meal_count"`
}

func (t *Totals) add(p Portion) {
	t.Count++
	if p.Per == nil {
		return
	}
	m := p.Multiplier
	if m <= 0 {
		m = 1
	}
	t.Calories += p.Per.Calories * m
	t.Protein += p.Per.Protein * m
	t.Carbs += p.Per.Carbs * m
	t.Fat += p.Per.Fat * m
	t.Sodium += p.Per.Sodium * m
	t.Fiber += p.Per.Fiber * m
	t.Sugar += p.Per.Sugar * m
}

// Aggregate sums every portion exactly; nothing is rounded here.
func Aggregate(portions []Portion) Totals {
	var t Totals
	for _, p := range portions {
		t.add(p)
	}
	return t
}

func FoodNutrients(f *models.FoodItem) *Nutrients {
	if f == nil {
		return nil
	}
	return &Nutrients{
		Calories: float64(f.Calories),
		Protein:  f.Protein,
		Carbs:    f.TotalCarb,
		Fat:      f.TotalFat,
		Sodium:   f.Sodium,
		Fiber:    f.DietaryFiber,
		Sugar:    f.Sugars,
	}
}

func MealEntryPortion(e models.MealEntry) Portion {
	return Portion{Per: FoodNutrients(e.FoodItem), Multiplier: e.Servings}
}

// OrderItemPortion only carries the four macros snapshotted on order items.
func OrderItemPortion(it models.OrderItem) Portion {
	return Portion{
		Per: &Nutrients{
			Calories: float64(it.Calories),
			Protein:  it.Protein,
			Carbs:    it.Carbs,
			Fat:      it.Fat,
		},
		Multiplier: float64(it.Quantity),
	}
}

func MealEntryTotals(entries []models.MealEntry) Totals {
	var t Totals
	for _, e := range entries {
		t.add(MealEntryPortion(e))
	}
	return t
}

func OrderItemTotals(items []models.OrderItem) Totals {
	var t Totals
	for _, it := range items {
		t.add(OrderItemPortion(it))
	}
	return t
}

// ---------- Grouping ----------

// MealsByCategory always marshals all three lists, empty or not.
type MealsByCategory struct {
	Breakfast []models.MealEntry `json:"Breakfast"`
	Lunch     []models.MealEntry `json:"Lunch"`
	Dinner    []models.MealEntry `json:"Dinner"`
}

func (m *MealsByCategory) list(category string) *[]models.MealEntry {
	switch category {
	case "Breakfast":
		return &m.Breakfast
	case "Lunch":
		return &m.Lunch
	case "Dinner":
		return &m.Dinner
	}
	return nil
}

// GroupByCategory buckets entries by meal_category with one Totals per bucket.
// Entries with an unknown category are left out of both.
func GroupByCategory(entries []models.MealEntry) (MealsByCategory, map[string]Totals) {
	out := MealsByCategory{
		Breakfast: []models.MealEntry{},
		Lunch:     []models.MealEntry{},
		Dinner:    []models.MealEntry{},
	}
	totals := make(map[string]Totals, len(utils.MealTypes))
	for _, mt := range utils.MealTypes {
		totals[mt] = Totals{}
	}
	for _, e := range entries {
		l := out.list(e.MealCategory)
		if l == nil {
			continue
		}
		*l = append(*l, e)
		t := totals[e.MealCategory]
		t.add(MealEntryPortion(e))
		totals[e.MealCategory] = t
	}
	return out, totals
}

// GroupByDate buckets entries by entry_date, keeping input order inside each bucket.
func GroupByDate(entries []models.MealEntry) map[string][]models.MealEntry {
	out := map[string][]models.MealEntry{}
	for _, e := range entries {
		out[e.EntryDate] = append(out[e.EntryDate], e)
	}
	return out
}

type DayMeals struct {
	Date           string            `json:"date"`
	Meals          MealsByCategory   `json:"meals"`
	Totals         Totals            `json:"totals"`
	CategoryTotals map[string]Totals `json:"category_totals"`
}

func newDayMeals(date string, entries []models.MealEntry) DayMeals {
	meals, catTotals := GroupByCategory(entries)
	return DayMeals{
		Date:           date,
		Meals:          meals,
		Totals:         MealEntryTotals(entries),
		CategoryTotals: catTotals,
	}
}

// BucketDays yields one bucket per calendar day from start to end inclusive,
// empty days included with zero totals.
func BucketDays(entries []models.MealEntry, start, end time.Time) []DayMeals {
	byDate := GroupByDate(entries)
	var out []DayMeals
	for d := dayStart(start); !d.After(dayStart(end)); d = d.AddDate(0, 0, 1) {
		key := utils.ISODate(d)
		out = append(out, newDayMeals(key, byDate[key]))
	}
	return out
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func pct(consumed, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return utils.Round2(consumed / goal * 100)
}

func avg(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return sum / float64(n)
}
