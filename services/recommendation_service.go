package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"studenteats/models"
	"studenteats/utils"

	"github.com/tmc/langchaingo/llms"
)

const maxPromptItems = 30

// goalKeys is also the tie-break order when picking the biggest gap.
var goalKeys = []string{"protein", "calories", "carbs", "fat"}

type RecService struct {
	meals *MealService
	foods *FoodService
	llm   ChatModel
	now   func() time.Time
}

func NewRecService(meals *MealService, foods *FoodService, llm ChatModel) *RecService {
	return &RecService{meals: meals, foods: foods, llm: llm, now: time.Now}
}

type Recommendations struct {
	Source          string            `json:"source"` // model|rules
	Recommendations []string          `json:"recommendations"`
	Items           []models.FoodItem `json:"items"`
}

// GetRecs suggests what to eat next from today's menu given what the user has
// logged so far. The chat model writes the advice when configured; otherwise,
// or when it fails, simple rules pick items to close the biggest gap.
func (r *RecService) GetRecs(ctx context.Context, userID string) (*Recommendations, error) {
	totals, err := r.meals.TodayTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	menu, err := r.foods.Search(ctx, FoodSearch{Date: utils.ISODate(r.now()), Limit: 200})
	if err != nil {
		return nil, err
	}

	if r.llm != nil {
		recs, err := r.modelRecs(ctx, totals, menu)
		if err == nil && len(recs) > 0 {
			return &Recommendations{Source: "model", Recommendations: recs, Items: []models.FoodItem{}}, nil
		}
		slog.Warn("model recommendations unavailable, using rules", "user_id", userID, "err", err)
	}
	recs, items := ruleRecs(totals, menu)
	return &Recommendations{Source: "rules", Recommendations: recs, Items: items}, nil
}

func (r *RecService) modelRecs(ctx context.Context, t *DailyTotals, menu []models.FoodItem) ([]string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "So far today: %.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat, %.0fmg sodium over %d logged items.\n",
		t.Totals.Calories, t.Totals.Protein, t.Totals.Carbs, t.Totals.Fat, t.Totals.Sodium, t.Totals.Count)
	for _, k := range goalKeys {
		if p, ok := t.Progress[k]; ok {
			fmt.Fprintf(&sb, "Goal %s: %.0f (%.0f%% reached)\n", k, p.Goal, p.Percent)
		}
	}
	if len(menu) == 0 {
		sb.WriteString("The dining halls have no menu loaded for today.\n")
	} else {
		sb.WriteString("Today's dining hall items:\n")
		for i, it := range menu {
			if i == maxPromptItems {
				break
			}
			fmt.Fprintf(&sb, "- %s (%s %s): %d kcal, %.0fg protein\n",
				it.Name, deref(it.Location), deref(it.MealType), it.Calories, it.Protein)
		}
	}
	sb.WriteString("\nSuggest 3-5 practical choices or adjustments for the rest of today, favoring balance and fiber and limiting sodium and added sugar. Return plain bullet points.")

	resp, err := r.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, sb.String()),
	}, llms.WithTemperature(0.2), llms.WithMaxTokens(400))
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty recommendations from model")
	}
	return splitBullets(resp.Choices[0].Content), nil
}

func splitBullets(text string) []string {
	var recs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "-•* \t")
		if line != "" {
			recs = append(recs, line)
		}
	}
	return recs
}

// ruleRecs picks up to three menu items for the nutrient furthest behind its goal.
func ruleRecs(t *DailyTotals, menu []models.FoodItem) ([]string, []models.FoodItem) {
	if len(menu) == 0 {
		return []string{"No dining hall menu is loaded for today. Check back after the next menu update."}, []models.FoodItem{}
	}

	gap, lowest := "", 101.0
	for _, k := range goalKeys {
		if p, ok := t.Progress[k]; ok && p.Percent < lowest {
			gap, lowest = k, p.Percent
		}
	}

	items := append([]models.FoodItem(nil), menu...)
	var recs []string
	switch gap {
	case "protein":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Protein > items[j].Protein })
		recs = append(recs, fmt.Sprintf("You are at %.0f%% of your protein goal; these are today's highest-protein picks.", lowest))
	case "calories", "carbs", "fat":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Calories > items[j].Calories })
		recs = append(recs, fmt.Sprintf("You are at %.0f%% of your %s goal; these items will help close the gap.", lowest, gap))
	default:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Sodium < items[j].Sodium })
		recs = append(recs, "You have met your goals for today; these are today's lowest-sodium options if you are still hungry.")
	}
	if len(items) > 3 {
		items = items[:3]
	}
	for _, it := range items {
		recs = append(recs, fmt.Sprintf("%s at %s: %d kcal, %.0fg protein", it.Name, deref(it.Location), it.Calories, it.Protein))
	}
	return recs, items
}
