package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"studenteats/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chickenInput() FoodItemInput {
	return FoodItemInput{
		Name:        "Grilled Chicken",
		ServingSize: "4 oz",
		Calories:    220,
		Protein:     35,
		TotalFat:    6,
		Sodium:      420,
		Location:    ptr("Worcester"),
		Date:        ptr("2025-11-10"),
		MealType:    ptr("Lunch"),
	}
}

func TestCreateOrGetIsIdempotent(t *testing.T) {
	svc := NewFoodService(newTestDB(t), nil)
	ctx := context.Background()

	first, err := svc.CreateOrGet(ctx, chickenInput())
	require.NoError(t, err)
	assert.Equal(t, "Mon November 10, 2025", *first.Date)

	in := chickenInput()
	in.Calories = 999
	in.Date = ptr("Monday, November 10th, 2025")
	second, err := svc.CreateOrGet(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 220, second.Calories)
}

func TestCreateOrGetConcurrent(t *testing.T) {
	db := newTestDB(t)
	svc := NewFoodService(db, nil)

	var wg sync.WaitGroup
	ids := make([]uint, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item, err := svc.CreateOrGet(context.Background(), chickenInput())
			if assert.NoError(t, err) {
				ids[i] = item.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	var count int64
	require.NoError(t, db.Model(&models.FoodItem{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateOrGetValidation(t *testing.T) {
	svc := NewFoodService(newTestDB(t), nil)
	in := chickenInput()
	in.Name = ""
	_, err := svc.CreateOrGet(context.Background(), in)
	e := requireKind(t, err, KindValidation)
	assert.Equal(t, "name", e.Field)

	in = chickenInput()
	in.MealType = ptr("Brunch")
	_, err = svc.CreateOrGet(context.Background(), in)
	e = requireKind(t, err, KindValidation)
	assert.Equal(t, "meal_type", e.Field)
}

func TestSearch(t *testing.T) {
	db := newTestDB(t)
	svc := NewFoodService(db, nil)
	ctx := context.Background()
	seedFood(t, db, "Chicken Parm", "Worcester", "Mon November 10, 2025", "Dinner", 600, 40)
	seedFood(t, db, "Chicken Soup", "Franklin", "Mon November 10, 2025", "Lunch", 150, 10)
	seedFood(t, db, "Oatmeal", "Worcester", "Tue November 11, 2025", "Breakfast", 150, 5)

	items, err := svc.Search(ctx, FoodSearch{Query: "CHICKEN"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Chicken Parm", items[0].Name)

	items, err = svc.Search(ctx, FoodSearch{Query: "chicken", Date: "2025-11-10", Location: "frank"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Chicken Soup", items[0].Name)

	items, err = svc.Search(ctx, FoodSearch{MealType: "breakfast"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = svc.Search(ctx, FoodSearch{MealType: "brunch"})
	requireKind(t, err, KindValidation)
	_, err = svc.Search(ctx, FoodSearch{Limit: 500})
	requireKind(t, err, KindValidation)
	_, err = svc.Search(ctx, FoodSearch{Limit: -1})
	requireKind(t, err, KindValidation)
}

func TestAvailableDatesSortedChronologically(t *testing.T) {
	db := newTestDB(t)
	svc := NewFoodService(db, nil)
	seedFood(t, db, "A", "Worcester", "Wed November 12, 2025", "Lunch", 100, 1)
	seedFood(t, db, "B", "Worcester", "Mon November 10, 2025", "Lunch", 100, 1)
	seedFood(t, db, "C", "Franklin", "Tue November 11, 2025", "Lunch", 100, 1)
	seedFood(t, db, "D", "Franklin", "Tue November 11, 2025", "Dinner", 100, 1)
	seedFood(t, db, "E", "Franklin", "someday", "Dinner", 100, 1)

	dates, err := svc.AvailableDates(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Mon November 10, 2025", "Tue November 11, 2025", "Wed November 12, 2025", "someday",
	}, dates)

	dates, err = svc.AvailableDates(context.Background(), "worcester")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mon November 10, 2025", "Wed November 12, 2025"}, dates)
}

func TestMenuFor(t *testing.T) {
	db := newTestDB(t)
	svc := NewFoodService(db, nil)
	seedFood(t, db, "Pancakes", "Worcester", "Mon November 10, 2025", "Breakfast", 300, 6)
	seedFood(t, db, "Tacos", "Worcester", "Mon November 10, 2025", "Dinner", 500, 20)
	seedFood(t, db, "Salad", "Franklin", "Mon November 10, 2025", "Lunch", 100, 2)

	menu, err := svc.MenuFor(context.Background(), "Worcester", "2025-11-10")
	require.NoError(t, err)
	assert.Len(t, menu["Breakfast"], 1)
	assert.NotNil(t, menu["Lunch"])
	assert.Empty(t, menu["Lunch"])
	assert.Len(t, menu["Dinner"], 1)

	_, err = svc.MenuFor(context.Background(), " ", "2025-11-10")
	requireKind(t, err, KindValidation)
}

func TestGetAndDetail(t *testing.T) {
	db := newTestDB(t)
	svc := NewFoodService(db, nil)
	f := seedFood(t, db, "Bacon Burger", "Worcester", "Mon November 10, 2025", "Dinner", 900, 45)
	require.NoError(t, db.Model(&f).Update("sodium", 1500).Error)

	d, err := svc.Detail(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bacon Burger", d.Name)
	require.NotEmpty(t, d.Flags)
	assert.Equal(t, "sodium_very_high", d.Flags[0].Code)

	_, err = svc.Get(context.Background(), 9999)
	e := requireKind(t, err, KindNotFound)
	assert.Equal(t, "food_item", e.Entity)
	assert.Equal(t, "9999", e.ID)
}

func TestListPaging(t *testing.T) {
	db := newTestDB(t)
	svc := NewFoodService(db, nil)
	for _, n := range []string{"C", "A", "B"} {
		seedFood(t, db, n, "Worcester", "Mon November 10, 2025", "Lunch", 100, 1)
	}
	items, err := svc.List(context.Background(), 2, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "B", items[0].Name)

	_, err = svc.List(context.Background(), 10, -1)
	requireKind(t, err, KindValidation)
}

type fakeLabels struct {
	labels []string
	err    error
}

func (f fakeLabels) RecognizeLabels(context.Context, string) ([]string, error) { return f.labels, f.err }

func TestRecognize(t *testing.T) {
	db := newTestDB(t)
	seedFood(t, db, "Pepperoni Pizza", "Worcester", "Mon November 10, 2025", "Dinner", 700, 25)

	_, err := NewFoodService(db, nil).Recognize(context.Background(), "data:image/png;base64,AA==", "")
	requireKind(t, err, KindUpstream)

	svc := NewFoodService(db, fakeLabels{labels: []string{"Food", "Pizza", "Cheese"}})
	got, err := svc.Recognize(context.Background(), "data:image/png;base64,AA==", "2025-11-10")
	require.NoError(t, err)
	assert.Equal(t, "Pizza", got.Matched)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Pepperoni Pizza", got.Items[0].Name)

	svc = NewFoodService(db, fakeLabels{err: errors.New("throttled")})
	_, err = svc.Recognize(context.Background(), "data:image/png;base64,AA==", "")
	requireKind(t, err, KindUpstream)
}
