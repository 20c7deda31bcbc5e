package services

import (
	"context"
	"errors"
	"time"

	"studenteats/models"
	"studenteats/utils"

	"gorm.io/gorm"
)

// AnalyticsService reports averages and goal adherence over the meal log.
type AnalyticsService struct {
	db    *gorm.DB
	meals *MealService
	now   func() time.Time
}

func NewAnalyticsService(db *gorm.DB, meals *MealService) *AnalyticsService {
	return &AnalyticsService{db: db, meals: meals, now: time.Now}
}

// ---------- Summary ----------

type NutrAvg struct {
	AvgConsumed float64 `json:"avg_consumed"`
	AvgGoal     float64 `json:"avg_goal,omitempty"`
	AvgPercent  float64 `json:"avg_percent,omitempty"`
	Unit        string  `json:"unit,omitempty"`
}

type FlagBreakdown struct {
	Clean   int64 `json:"clean"`
	Flagged int64 `json:"flagged"`
	Total   int64 `json:"total"`
}

type AnalyticsSummary struct {
	Range struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"range"`

	Macros map[string]NutrAvg `json:"macros"` // calories, protein, carbs, fat
	Micros map[string]NutrAvg `json:"micros"` // sodium, sugar, fiber

	Flags struct {
		ScorePct float64 `json:"score_pct"`
		FlagBreakdown
	} `json:"flags"`

	Metadata struct {
		DaysCounted        int  `json:"days_counted"`
		IncludeMissingDays bool `json:"include_missing_days"`
	} `json:"metadata"`
}

// goalSnapshot is the per-day target for each tracked nutrient; 0 means no target.
type goalSnapshot map[string]float64

var nutrientUnits = map[string]string{
	"calories": "kcal", "protein": "g", "carbs": "g", "fat": "g",
	"sodium": "mg", "sugar": "g", "fiber": "g",
}

func consumed(t Totals) map[string]float64 {
	return map[string]float64{
		"calories": t.Calories, "protein": t.Protein, "carbs": t.Carbs, "fat": t.Fat,
		"sodium": t.Sodium, "sugar": t.Sugar, "fiber": t.Fiber,
	}
}

// Summary averages daily intake over [from, to]. Without includeMissing only
// days with at least one logged meal are counted.
func (s *AnalyticsService) Summary(ctx context.Context, userID, from, to string, includeMissing bool) (*AnalyticsSummary, error) {
	buckets, err := s.meals.DateRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	goal, err := s.goalSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	type acc struct{ sum, gsum, psum float64 }
	m := map[string]*acc{}
	for k := range nutrientUnits {
		m[k] = &acc{}
	}

	var br FlagBreakdown
	days := 0
	for _, b := range buckets {
		if !includeMissing && b.Totals.Count == 0 {
			continue
		}
		days++
		for k, v := range consumed(b.Totals) {
			m[k].sum += v
			m[k].gsum += goal[k]
			m[k].psum += pct(v, goal[k])
		}
		for _, list := range [][]models.MealEntry{b.Meals.Breakfast, b.Meals.Lunch, b.Meals.Dinner} {
			for _, e := range list {
				br.Total++
				if e.FoodItem != nil && hasHighFlag(ItemFlags(e.FoodItem)) {
					br.Flagged++
				} else {
					br.Clean++
				}
			}
		}
	}

	row := func(k string) NutrAvg {
		return NutrAvg{
			AvgConsumed: utils.Round2(avg(m[k].sum, days)),
			AvgGoal:     utils.Round2(avg(m[k].gsum, days)),
			AvgPercent:  utils.Round2(avg(m[k].psum, days)),
			Unit:        nutrientUnits[k],
		}
	}

	out := &AnalyticsSummary{}
	out.Range.From = from
	out.Range.To = to
	out.Macros = map[string]NutrAvg{
		"calories": row("calories"), "protein": row("protein"), "carbs": row("carbs"), "fat": row("fat"),
	}
	out.Micros = map[string]NutrAvg{
		"sodium": row("sodium"), "sugar": row("sugar"), "fiber": row("fiber"),
	}
	out.Flags.FlagBreakdown = br
	out.Flags.ScorePct = flagScore(br)
	out.Metadata.DaysCounted = days
	out.Metadata.IncludeMissingDays = includeMissing
	return out, nil
}

func hasHighFlag(flags []utils.NutritionFlag) bool {
	for _, f := range flags {
		if f.Severity == utils.FlagHigh {
			return true
		}
	}
	return false
}

// flagScore is the share of clean servings with a Beta(1,1) prior, so a
// handful of entries cannot swing it to 0 or 100.
func flagScore(br FlagBreakdown) float64 {
	return utils.Round2((float64(br.Clean) + 1) / (float64(br.Total) + 2) * 100)
}

// ---------- Weekly overview ----------

type WeeklyOverviewResponse struct {
	WeekStart string `json:"week_start"`
	Mode      string `json:"mode"` // chart|detailed
	Days      any    `json:"days"`
}

type DayChart struct {
	Date        string             `json:"date"`
	Percentages map[string]float64 `json:"percentages"`
}

type Metric struct {
	Actual  float64 `json:"actual"`
	Target  float64 `json:"target"`
	Percent float64 `json:"percent"`
}

type DayDetailed struct {
	Date    string            `json:"date"`
	Metrics map[string]Metric `json:"metrics"`
}

// WeeklyOverview covers seven days from weekStart, defaulting to this week's Monday.
func (s *AnalyticsService) WeeklyOverview(ctx context.Context, userID, weekStart, mode string) (*WeeklyOverviewResponse, error) {
	if mode == "" {
		mode = "chart"
	}
	if mode != "chart" && mode != "detailed" {
		return nil, Validation("mode", "mode must be 'chart' or 'detailed'")
	}
	start := weekStartOf(s.now())
	if weekStart != "" {
		d, err := parseISO("week_start", weekStart)
		if err != nil {
			return nil, err
		}
		start = d
	}
	buckets, err := s.meals.DateRange(ctx, userID, utils.ISODate(start), utils.ISODate(start.AddDate(0, 0, 6)))
	if err != nil {
		return nil, err
	}
	goal, err := s.goalSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &WeeklyOverviewResponse{WeekStart: utils.ISODate(start), Mode: mode}
	if mode == "chart" {
		days := make([]DayChart, 0, len(buckets))
		for _, b := range buckets {
			p := map[string]float64{}
			for k, v := range consumed(b.Totals) {
				p[k] = pct(v, goal[k])
			}
			days = append(days, DayChart{Date: b.Date, Percentages: p})
		}
		out.Days = days
		return out, nil
	}

	days := make([]DayDetailed, 0, len(buckets))
	for _, b := range buckets {
		metrics := map[string]Metric{}
		for k, v := range consumed(b.Totals) {
			metrics[k+"_"+nutrientUnits[k]] = Metric{
				Actual:  utils.Round2(v),
				Target:  utils.Round2(goal[k]),
				Percent: pct(v, goal[k]),
			}
		}
		days = append(days, DayDetailed{Date: b.Date, Metrics: metrics})
	}
	out.Days = days
	return out, nil
}

// ---------- internals ----------

// goalSnapshot reads targets from the profile. Calories fall back to TDEE and
// sodium is capped at the 2300 mg daily limit. No profile means no targets.
func (s *AnalyticsService) goalSnapshot(ctx context.Context, userID string) (goalSnapshot, error) {
	g := goalSnapshot{"sodium": 2300}
	var p models.Profile
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&p).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return g, nil
	case err != nil:
		return nil, Upstream("loading profile", err)
	}
	g["calories"] = p.TDEE
	if p.GoalCalories != nil {
		g["calories"] = *p.GoalCalories
	}
	for k, v := range map[string]*float64{"protein": p.GoalProtein, "carbs": p.GoalCarbs, "fat": p.GoalFat} {
		if v != nil {
			g[k] = *v
		}
	}
	return g, nil
}

// weekStartOf is the Monday on or before t.
func weekStartOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return dayStart(t).AddDate(0, 0, -offset)
}
