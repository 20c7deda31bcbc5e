package services

import (
	"sort"

	"studenteats/models"
	"studenteats/utils"
)

type MacroTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type ItemFrequency struct {
	FoodItemID uint   `json:"food_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Orders     int    `json:"orders"`
}

type OrderStats struct {
	TotalOrders     int `json:"total_orders"`
	ActiveOrders    int `json:"active_orders"`
	CompletedOrders int `json:"completed_orders"`
	CancelledOrders int `json:"cancelled_orders"`

	CompletedTotals MacroTotals `json:"completed_totals"`
	AveragePerOrder MacroTotals `json:"average_per_completed_order"`

	DeliveryOrders int     `json:"delivery_orders"`
	PickupOrders   int     `json:"pickup_orders"`
	DeliveryRatio  float64 `json:"delivery_ratio"`
	PickupRatio    float64 `json:"pickup_ratio"`

	TopItems []ItemFrequency `json:"top_items"`
}

// SummarizeOrders rolls up orders given most recent first. Nutrient sums and
// averages only count completed orders; everything else counts all of them.
// Ties in TopItems keep first-appearance order.
func SummarizeOrders(orders []models.Order, topK int) OrderStats {
	st := OrderStats{TotalOrders: len(orders), TopItems: []ItemFrequency{}}

	var freq []ItemFrequency
	index := map[uint]int{}

	for _, o := range orders {
		switch {
		case o.Status.Active():
			st.ActiveOrders++
		case o.Status.Completed():
			st.CompletedOrders++
			st.CompletedTotals.Calories += float64(o.TotalCalories)
			st.CompletedTotals.Protein += o.TotalProtein
			st.CompletedTotals.Carbs += o.TotalCarbs
			st.CompletedTotals.Fat += o.TotalFat
		case o.Status == models.StatusCancelled:
			st.CancelledOrders++
		}

		if o.DeliveryOption == models.OptionPickup {
			st.PickupOrders++
		} else {
			st.DeliveryOrders++
		}

		for _, it := range o.Items {
			i, ok := index[it.FoodItemID]
			if !ok {
				i = len(freq)
				index[it.FoodItemID] = i
				freq = append(freq, ItemFrequency{FoodItemID: it.FoodItemID, Name: it.FoodItemName})
			}
			freq[i].Quantity += it.Quantity
			freq[i].Orders++
		}
	}

	n := st.CompletedOrders
	st.AveragePerOrder = MacroTotals{
		Calories: utils.Round2(avg(st.CompletedTotals.Calories, n)),
		Protein:  utils.Round2(avg(st.CompletedTotals.Protein, n)),
		Carbs:    utils.Round2(avg(st.CompletedTotals.Carbs, n)),
		Fat:      utils.Round2(avg(st.CompletedTotals.Fat, n)),
	}
	st.DeliveryRatio = avg(float64(st.DeliveryOrders), st.TotalOrders)
	st.PickupRatio = avg(float64(st.PickupOrders), st.TotalOrders)

	sort.SliceStable(freq, func(a, b int) bool { return freq[a].Quantity > freq[b].Quantity })
	if topK > 0 && len(freq) > topK {
		freq = freq[:topK]
	}
	st.TopItems = append(st.TopItems, freq...)
	return st
}
