package services

import (
	"testing"

	"studenteats/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeOrders(t *testing.T) {
	orders := []models.Order{
		{Status: models.StatusCompleted, DeliveryOption: models.OptionDelivery,
			TotalCalories: 800, TotalProtein: 40, TotalCarbs: 90, TotalFat: 30,
			Items: []models.OrderItem{
				{FoodItemID: 1, FoodItemName: "Burrito Bowl", Quantity: 1},
				{FoodItemID: 2, FoodItemName: "Iced Tea", Quantity: 2},
			}},
		{Status: models.StatusDelivered, DeliveryOption: models.OptionPickup,
			TotalCalories: 400, TotalProtein: 20, TotalCarbs: 30, TotalFat: 10,
			Items: []models.OrderItem{{FoodItemID: 1, FoodItemName: "Burrito Bowl", Quantity: 1}}},
		{Status: models.StatusPending, DeliveryOption: models.OptionDelivery, TotalCalories: 5000,
			Items: []models.OrderItem{{FoodItemID: 3, FoodItemName: "Cookie", Quantity: 2}}},
		{Status: models.StatusCancelled, DeliveryOption: models.OptionDelivery},
	}

	st := SummarizeOrders(orders, 2)
	assert.Equal(t, 4, st.TotalOrders)
	assert.Equal(t, 1, st.ActiveOrders)
	assert.Equal(t, 2, st.CompletedOrders)
	assert.Equal(t, 1, st.CancelledOrders)

	assert.Equal(t, 1200.0, st.CompletedTotals.Calories)
	assert.Equal(t, 600.0, st.AveragePerOrder.Calories)
	assert.Equal(t, 30.0, st.AveragePerOrder.Protein)

	assert.Equal(t, 3, st.DeliveryOrders)
	assert.Equal(t, 1, st.PickupOrders)
	assert.Equal(t, 0.75, st.DeliveryRatio)
	assert.Equal(t, 0.25, st.PickupRatio)

	// three items tie at quantity 2; first appearance wins the slots
	require.Len(t, st.TopItems, 2)
	assert.Equal(t, "Burrito Bowl", st.TopItems[0].Name)
	assert.Equal(t, 2, st.TopItems[0].Orders)
	assert.Equal(t, "Iced Tea", st.TopItems[1].Name)
}

func TestSummarizeOrdersEmpty(t *testing.T) {
	st := SummarizeOrders(nil, 5)
	assert.Zero(t, st.TotalOrders)
	assert.Zero(t, st.DeliveryRatio)
	assert.Zero(t, st.AveragePerOrder.Calories)
	assert.NotNil(t, st.TopItems)
	assert.Empty(t, st.TopItems)
}
