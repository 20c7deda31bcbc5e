package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func newRecFixture(t *testing.T, model ChatModel) (*RecService, *toolFixture) {
	t.Helper()
	f := newToolFixture(t)
	meals := NewMealService(f.db)
	meals.now = func() time.Time { return toolNow }
	rs := NewRecService(meals, NewFoodService(f.db, nil), model)
	rs.now = func() time.Time { return toolNow }
	return rs, f
}

func TestRecommendationsFromModel(t *testing.T) {
	model := &scriptedModel{replies: []*llms.ContentResponse{
		textReply("- Try the Burrito Bowl at Worcester\n\n• Add a side salad\n* Drink water with lunch"),
	}}
	rs, _ := newRecFixture(t, model)

	recs, err := rs.GetRecs(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "model", recs.Source)
	assert.Equal(t, []string{
		"Try the Burrito Bowl at Worcester", "Add a side salad", "Drink water with lunch",
	}, recs.Recommendations)

	prompt := model.calls[0][0].Parts[0].(llms.TextContent).Text
	assert.Contains(t, prompt, "Burrito Bowl (Worcester Lunch): 650 kcal")
	assert.NotContains(t, prompt, "Iced Tea")
}

func TestRecommendationsFallBackToRules(t *testing.T) {
	rs, f := newRecFixture(t, &scriptedModel{err: errors.New("quota exceeded")})
	ctx := context.Background()
	_, err := NewProfileService(f.db).Update(ctx, "user-1", ProfileUpdate{GoalProtein: ptr(120.0)})
	require.NoError(t, err)
	seedFood(t, f.db, "Garden Salad", "Worcester", "Mon November 10, 2025", "Lunch", 80, 2)

	recs, err := rs.GetRecs(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "rules", recs.Source)
	assert.Contains(t, recs.Recommendations[0], "0% of your protein goal")
	require.Len(t, recs.Items, 2)
	assert.Equal(t, "Burrito Bowl", recs.Items[0].Name)
	assert.Len(t, recs.Recommendations, 3)
}

func TestRecommendationsWithoutModel(t *testing.T) {
	rs, _ := newRecFixture(t, nil)
	recs, err := rs.GetRecs(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "rules", recs.Source)
	assert.Contains(t, recs.Recommendations[0], "lowest-sodium")

	rs.now = func() time.Time { return toolNow.AddDate(0, 0, 30) }
	recs, err = rs.GetRecs(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"No dining hall menu is loaded for today. Check back after the next menu update."}, recs.Recommendations)
	assert.Empty(t, recs.Items)
}

func TestSplitBullets(t *testing.T) {
	assert.Equal(t, []string{"one", "two"}, splitBullets("  - one\n\n\t•  two \n - \n"))
	assert.Empty(t, splitBullets(""))
}
