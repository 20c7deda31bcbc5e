package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"studenteats/models"
	"studenteats/utils"

	"github.com/tmc/langchaingo/llms"
)

const weekendClosedMessage = "Grab N Go is closed for the weekend (Saturday and Sunday). Please pick a weekday date."

type UserLocation struct {
	Latitude  float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" binding:"gte=-180,lte=180"`
	Label     string  `json:"label"`
}

// ToolContext is who a tool call acts for.
type ToolContext struct {
	UserID   string
	Location *UserLocation
}

type toolHandler func(ctx context.Context, tc ToolContext, args json.RawMessage) (string, error)

type AgentTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"input_schema"`
	handler     toolHandler
}

// ToolRegistry exposes service operations as named tools for the chat model and MCP clients.
type ToolRegistry struct {
	tools  []AgentTool
	byName map[string]int

	foods  *FoodService
	orders *OrderService
	meals  *MealService
	now    func() time.Time
}

func NewToolRegistry(foods *FoodService, orders *OrderService, meals *MealService) *ToolRegistry {
	r := &ToolRegistry{byName: map[string]int{}, foods: foods, orders: orders, meals: meals, now: time.Now}

	r.register(AgentTool{
		Name:        "search_food_items",
		Description: "Search the dining hall catalog by name, hall, meal and date. Dates default to today.",
		Parameters: object(map[string]any{
			"search_term": str("Substring of the food name; empty matches everything"),
			"location":    str("Dining hall name"),
			"meal_type":   enum("Meal slot", utils.MealTypes...),
			"date":        str("Date such as 2025-11-10, 'Monday' or 'tomorrow'"),
		}),
		handler: r.searchFoodItems,
	})
	r.register(AgentTool{
		Name:        "create_order",
		Description: "Place an order. food_item_ids and quantities are parallel lists.",
		Parameters: object(map[string]any{
			"food_item_ids":        map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
			"quantities":           map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
			"delivery_location":    str("Where to deliver, e.g. a dorm and room"),
			"delivery_option":      enum("How the order is fulfilled", "delivery", "pickup"),
			"special_instructions": str("Notes for the kitchen or courier"),
		}, "food_item_ids", "delivery_location"),
		handler: r.createOrder,
	})
	r.register(AgentTool{
		Name:        "get_my_orders",
		Description: "List the user's recent orders, newest first.",
		Parameters: object(map[string]any{
			"status": enum("Only orders in this status", statusNames()...),
			"limit":  map[string]any{"type": "integer", "description": "At most this many orders (default 5)"},
		}),
		handler: r.getMyOrders,
	})
	r.register(AgentTool{
		Name:        "get_order_details",
		Description: "Show one of the user's orders with its items and totals.",
		Parameters:  object(map[string]any{"order_id": str("Order id")}, "order_id"),
		handler:     r.getOrderDetails,
	})
	r.register(AgentTool{
		Name:        "get_order_stats",
		Description: "Summarize the user's ordering habits over the last 90 days.",
		Parameters:  object(map[string]any{}),
		handler:     r.getOrderStats,
	})
	r.register(AgentTool{
		Name:        "log_meal",
		Description: "Record that the user ate a catalog item.",
		Parameters: object(map[string]any{
			"food_item_id":  map[string]any{"type": "integer"},
			"meal_category": enum("Meal slot", utils.MealTypes...),
			"servings":      map[string]any{"type": "number", "description": "Servings eaten, default 1"},
			"entry_date":    str("YYYY-MM-DD, default today"),
		}, "food_item_id", "meal_category"),
		handler: r.logMeal,
	})
	r.register(AgentTool{
		Name:        "get_daily_totals",
		Description: "Nutrition totals for one day of the user's meal log.",
		Parameters:  object(map[string]any{"date": str("YYYY-MM-DD, default today")}),
		handler:     r.getDailyTotals,
	})
	return r
}

func (r *ToolRegistry) register(t AgentTool) {
	r.byName[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
}

func (r *ToolRegistry) Tools() []AgentTool { return r.tools }

// Definitions renders the registry as langchaingo function tools.
func (r *ToolRegistry) Definitions() []llms.Tool {
	out := make([]llms.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// Invoke runs a tool by name with JSON arguments and returns its text result.
func (r *ToolRegistry) Invoke(ctx context.Context, tc ToolContext, name, args string) (string, error) {
	i, ok := r.byName[name]
	if !ok {
		return "", Validation("name", fmt.Sprintf("unknown tool %q", name))
	}
	if strings.TrimSpace(tc.UserID) == "" {
		return "", Validation("user_id", "user_id is required")
	}
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	return r.tools[i].handler(ctx, tc, json.RawMessage(args))
}

func decodeArgs(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return ValidationFromBinding(err)
	}
	return nil
}

// ---------- Handlers ----------

func (r *ToolRegistry) searchFoodItems(ctx context.Context, _ ToolContext, raw json.RawMessage) (string, error) {
	var args struct {
		SearchTerm string `json:"search_term"`
		Location   string `json:"location"`
		MealType   string `json:"meal_type"`
		Date       string `json:"date"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	now := r.now()
	date := args.Date
	if strings.TrimSpace(date) == "" {
		date = "today"
	}
	canonical := utils.NormalizeDateAt(date, now)
	if utils.IsWeekendAt(canonical, now) {
		return weekendClosedMessage, nil
	}

	items, err := r.foods.Search(ctx, FoodSearch{
		Query:    args.SearchTerm,
		Date:     canonical,
		Location: args.Location,
		MealType: args.MealType,
		Limit:    15,
	})
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		msg := fmt.Sprintf("No items matching %q on %s.", args.SearchTerm, canonical)
		dates, err := r.foods.AvailableDates(ctx, args.Location)
		if err != nil {
			slog.Warn("available dates lookup failed", "err", err)
			return msg, nil
		}
		if len(dates) > 0 {
			msg += " Menus are available for: " + strings.Join(dates, "; ") + "."
		}
		return msg, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d item(s) for %s:\n", len(items), canonical)
	for _, it := range items {
		fmt.Fprintf(&b, "- [id %d] %s (%s, %s, %s): %d cal, %.1fg protein, %.1fg carbs, %.1fg fat\n",
			it.ID, it.Name, deref(it.Location), deref(it.MealType), it.ServingSize,
			it.Calories, it.Protein, it.TotalCarb, it.TotalFat)
	}
	return b.String(), nil
}

func (r *ToolRegistry) createOrder(ctx context.Context, tc ToolContext, raw json.RawMessage) (string, error) {
	var args struct {
		FoodItemIDs         []uint  `json:"food_item_ids"`
		Quantities          []int   `json:"quantities"`
		DeliveryLocation    string  `json:"delivery_location"`
		DeliveryOption      string  `json:"delivery_option"`
		SpecialInstructions *string `json:"special_instructions"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	items, err := ParallelItems(args.FoodItemIDs, args.Quantities)
	if err != nil {
		return "", err
	}

	in := CreateOrderInput{
		UserID:              tc.UserID,
		DeliveryLocation:    args.DeliveryLocation,
		DeliveryOption:      args.DeliveryOption,
		SpecialInstructions: args.SpecialInstructions,
	}
	if in.DeliveryLocation == "" && tc.Location != nil {
		in.DeliveryLocation = tc.Location.Label
	}
	if tc.Location != nil {
		lat, lng := tc.Location.Latitude, tc.Location.Longitude
		in.DeliveryLatitude, in.DeliveryLongitude = &lat, &lng
	}
	in.Items = items

	o, err := r.orders.Create(ctx, in)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Order %s placed with %d item(s) for %s to %s. Total: %d cal, %.1fg protein. Status: %s.",
		o.ID, len(o.Items), o.DeliveryOption, o.DeliveryLocation, o.TotalCalories, o.TotalProtein, o.Status), nil
}

func (r *ToolRegistry) getMyOrders(ctx context.Context, tc ToolContext, raw json.RawMessage) (string, error) {
	var args struct {
		Status string `json:"status"`
		Limit  int    `json:"limit"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	if args.Limit <= 0 {
		args.Limit = 5
	}
	orders, err := r.orders.List(ctx, OrderFilter{UserID: tc.UserID, Status: args.Status, Limit: args.Limit})
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return "You have no orders yet.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d order(s):\n", len(orders))
	for _, o := range orders {
		fmt.Fprintf(&b, "- %s: %s, %d item(s), %d cal, placed %s\n",
			o.ID, o.Status, len(o.Items), o.TotalCalories, o.CreatedAt.Format(time.RFC822))
	}
	return b.String(), nil
}

func (r *ToolRegistry) getOrderDetails(ctx context.Context, tc ToolContext, raw json.RawMessage) (string, error) {
	var args struct {
		OrderID string `json:"order_id"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	if args.OrderID == "" {
		return "", Validation("order_id", "order_id is required")
	}
	o, err := r.orders.Get(ctx, args.OrderID)
	if err != nil {
		return "", err
	}
	if o.UserID != tc.UserID {
		return "", NotFound("order", args.OrderID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s (%s, %s to %s)\n", o.ID, o.Status, o.DeliveryOption, o.DeliveryLocation)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %dx %s: %d cal each\n", it.Quantity, it.FoodItemName, it.Calories)
	}
	fmt.Fprintf(&b, "Totals: %d cal, %.1fg protein, %.1fg carbs, %.1fg fat",
		o.TotalCalories, o.TotalProtein, o.TotalCarbs, o.TotalFat)
	return b.String(), nil
}

func (r *ToolRegistry) getOrderStats(ctx context.Context, tc ToolContext, _ json.RawMessage) (string, error) {
	st, err := r.orders.Stats(ctx, tc.UserID)
	if err != nil {
		return "", err
	}
	if st.TotalOrders == 0 {
		return "No orders in the last 90 days.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d order(s): %d active, %d completed, %d cancelled. Delivery %.0f%%, pickup %.0f%%.\n",
		st.TotalOrders, st.ActiveOrders, st.CompletedOrders, st.CancelledOrders,
		st.DeliveryRatio*100, st.PickupRatio*100)
	fmt.Fprintf(&b, "Average completed order: %.0f cal, %.1fg protein.\n",
		st.AveragePerOrder.Calories, st.AveragePerOrder.Protein)
	for i, it := range st.TopItems {
		fmt.Fprintf(&b, "%d. %s (x%d)\n", i+1, it.Name, it.Quantity)
	}
	return b.String(), nil
}

func (r *ToolRegistry) logMeal(ctx context.Context, tc ToolContext, raw json.RawMessage) (string, error) {
	var args struct {
		FoodItemID   uint     `json:"food_item_id"`
		MealCategory string   `json:"meal_category"`
		Servings     *float64 `json:"servings"`
		EntryDate    string   `json:"entry_date"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	e, err := r.meals.Create(ctx, MealEntryInput{
		ProfileID:    tc.UserID,
		FoodItemID:   args.FoodItemID,
		EntryDate:    args.EntryDate,
		MealCategory: args.MealCategory,
		Servings:     args.Servings,
	})
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("item %d", e.FoodItemID)
	if e.FoodItem != nil {
		name = e.FoodItem.Name
	}
	return fmt.Sprintf("Logged %.2g serving(s) of %s for %s on %s.", e.Servings, name, e.MealCategory, e.EntryDate), nil
}

func (r *ToolRegistry) getDailyTotals(ctx context.Context, tc ToolContext, raw json.RawMessage) (string, error) {
	var args struct {
		Date string `json:"date"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	if args.Date == "" {
		args.Date = utils.ISODate(r.now())
	}
	t, err := r.meals.DailyTotals(ctx, tc.UserID, args.Date)
	if err != nil {
		return "", err
	}
	out := fmt.Sprintf("%s: %d entries, %.0f cal, %.1fg protein, %.1fg carbs, %.1fg fat, %.0fmg sodium.",
		t.Date, t.Totals.Count, t.Totals.Calories, t.Totals.Protein, t.Totals.Carbs, t.Totals.Fat, t.Totals.Sodium)
	if p, ok := t.Progress["calories"]; ok {
		out += fmt.Sprintf(" That is %.0f%% of the %.0f cal goal.", p.Percent, p.Goal)
	}
	return out, nil
}

// ---------- Schema helpers ----------

func object(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func str(desc string) map[string]any { return map[string]any{"type": "string", "description": desc} }

func enum(desc string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": desc, "enum": values}
}

func statusNames() []string {
	out := make([]string, 0, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		out = append(out, string(s))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
