package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mealNow = time.Date(2025, 11, 12, 12, 0, 0, 0, time.Local)

func newMealFixture(t *testing.T) (*MealService, uint) {
	t.Helper()
	db := newTestDB(t)
	seedProfile(t, db, "user-1")
	f := seedFood(t, db, "Burrito Bowl", "Worcester", "Wed November 12, 2025", "Lunch", 500, 30)
	svc := NewMealService(db)
	svc.now = func() time.Time { return mealNow }
	return svc, f.ID
}

func TestMealCreateDefaults(t *testing.T) {
	svc, foodID := newMealFixture(t)
	e, err := svc.Create(context.Background(), MealEntryInput{
		ProfileID: "user-1", FoodItemID: foodID, MealCategory: "Lunch",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-11-12", e.EntryDate)
	assert.Equal(t, 1.0, e.Servings)
	require.NotNil(t, e.FoodItem)
	assert.Equal(t, "Burrito Bowl", e.FoodItem.Name)
}

func TestMealCreateErrors(t *testing.T) {
	svc, foodID := newMealFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, MealEntryInput{ProfileID: "user-1", FoodItemID: 999, MealCategory: "Lunch"})
	e := requireKind(t, err, KindNotFound)
	assert.Equal(t, "food_item", e.Entity)

	_, err = svc.Create(ctx, MealEntryInput{ProfileID: "ghost", FoodItemID: foodID, MealCategory: "Lunch"})
	e = requireKind(t, err, KindNotFound)
	assert.Equal(t, "profile", e.Entity)

	_, err = svc.Create(ctx, MealEntryInput{ProfileID: "user-1", FoodItemID: foodID, MealCategory: "Snack"})
	requireKind(t, err, KindValidation)

	_, err = svc.Create(ctx, MealEntryInput{ProfileID: "user-1", FoodItemID: foodID, MealCategory: "Lunch", Servings: ptr(25.0)})
	e = requireKind(t, err, KindValidation)
	assert.Equal(t, "servings", e.Field)

	_, err = svc.Create(ctx, MealEntryInput{ProfileID: "user-1", FoodItemID: foodID, MealCategory: "Lunch", EntryDate: "11/12/2025"})
	e = requireKind(t, err, KindValidation)
	assert.Equal(t, "entry_date", e.Field)
}

func TestMealUpdateAndDelete(t *testing.T) {
	svc, foodID := newMealFixture(t)
	ctx := context.Background()
	e, err := svc.Create(ctx, MealEntryInput{ProfileID: "user-1", FoodItemID: foodID, MealCategory: "Lunch"})
	require.NoError(t, err)

	updated, err := svc.UpdateServings(ctx, e.ID, 2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, updated.Servings)

	_, err = svc.UpdateServings(ctx, e.ID, 0)
	requireKind(t, err, KindValidation)
	_, err = svc.UpdateServings(ctx, 999, 1)
	requireKind(t, err, KindNotFound)

	require.NoError(t, svc.Delete(ctx, e.ID))
	requireKind(t, svc.Delete(ctx, e.ID), KindNotFound)
	_, err = svc.Get(ctx, e.ID)
	requireKind(t, err, KindNotFound)
}

func TestDailyTotalsProgress(t *testing.T) {
	svc, foodID := newMealFixture(t)
	ctx := context.Background()
	_, err := NewProfileService(svc.db).Update(ctx, "user-1", ProfileUpdate{GoalProtein: ptr(120.0)})
	require.NoError(t, err)

	for _, cat := range []string{"Lunch", "Dinner"} {
		_, err := svc.Create(ctx, MealEntryInput{ProfileID: "user-1", FoodItemID: foodID, MealCategory: cat, Servings: ptr(1.5)})
		require.NoError(t, err)
	}

	tot, err := svc.TodayTotals(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-11-12", tot.Date)
	assert.Equal(t, 2, tot.Totals.Count)
	assert.Equal(t, 1500.0, tot.Totals.Calories)
	assert.Equal(t, 90.0, tot.Totals.Protein)

	require.Contains(t, tot.Progress, "protein")
	assert.Equal(t, 75.0, tot.Progress["protein"].Percent)
	// no calorie goal set: TDEE stands in
	assert.Equal(t, 2633.06, tot.Progress["calories"].Goal)
	assert.NotContains(t, tot.Progress, "fat")

	day, err := svc.Today(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, day.Meals.Lunch, 1)
	assert.Len(t, day.Meals.Dinner, 1)
	assert.Equal(t, 750.0, day.CategoryTotals["Dinner"].Calories)
}

func TestDailyTotalsWithoutProfile(t *testing.T) {
	svc, _ := newMealFixture(t)
	tot, err := svc.DailyTotals(context.Background(), "nobody", "2025-11-12")
	require.NoError(t, err)
	assert.Zero(t, tot.Totals.Count)
	assert.Nil(t, tot.Progress)

	_, err = svc.DailyTotals(context.Background(), "nobody", "Nov 12")
	requireKind(t, err, KindValidation)
}

func TestDateRangeAndHistory(t *testing.T) {
	svc, foodID := newMealFixture(t)
	ctx := context.Background()
	for _, d := range []string{"2025-11-06", "2025-11-10", "2025-11-12"} {
		_, err := svc.Create(ctx, MealEntryInput{ProfileID: "user-1", FoodItemID: foodID, MealCategory: "Lunch", EntryDate: d})
		require.NoError(t, err)
	}

	days, err := svc.DateRange(ctx, "user-1", "2025-11-09", "2025-11-12")
	require.NoError(t, err)
	require.Len(t, days, 4)
	assert.Equal(t, 0, days[0].Totals.Count)
	assert.Equal(t, 1, days[1].Totals.Count)

	_, err = svc.DateRange(ctx, "user-1", "2025-11-12", "2025-11-01")
	requireKind(t, err, KindValidation)
	_, err = svc.DateRange(ctx, "user-1", "2025-01-01", "2025-12-31")
	requireKind(t, err, KindValidation)

	h, err := svc.History(ctx, "user-1", 7)
	require.NoError(t, err)
	assert.Equal(t, "2025-11-06", h.StartDate)
	assert.Equal(t, "2025-11-12", h.EndDate)
	assert.Len(t, h.Days, 7)
	assert.Equal(t, 3, h.Totals.Count)
	assert.Equal(t, 1500.0, h.Totals.Calories)

	_, err = svc.History(ctx, "user-1", 31)
	requireKind(t, err, KindValidation)
}
