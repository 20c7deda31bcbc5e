package services

import (
	"context"
	"math"
	"strings"
	"time"

	"studenteats/models"

	"gorm.io/gorm"
)

const (
	statsWindowDays = 90
	statsMaxOrders  = 100
	statsTopItems   = 5
)

// OrderNotifier hears about every order change after it is committed.
type OrderNotifier interface {
	OrderChanged(ctx context.Context, order *models.Order, event string)
}

type OrderService struct {
	db       *gorm.DB
	notifier OrderNotifier
	now      func() time.Time
}

func NewOrderService(db *gorm.DB, notifier OrderNotifier) *OrderService {
	return &OrderService{db: db, notifier: notifier, now: time.Now}
}

type OrderItemInput struct {
	FoodItemID uint `json:"food_item_id" binding:"required,gt=0"`
	Quantity   int  `json:"quantity" binding:"gte=0,lte=50"` // 0 means 1
}

type CreateOrderInput struct {
	UserID              string           `json:"user_id" binding:"required"`
	DeliveryLocation    string           `json:"delivery_location" binding:"required,max=500"`
	DeliveryLatitude    *float64         `json:"delivery_latitude" binding:"omitempty,gte=-90,lte=90"`
	DeliveryLongitude   *float64         `json:"delivery_longitude" binding:"omitempty,gte=-180,lte=180"`
	DeliveryTime        *time.Time       `json:"delivery_time"`
	SpecialInstructions *string          `json:"special_instructions" binding:"omitempty,max=1000"`
	DeliveryOption      string           `json:"delivery_option" binding:"omitempty,oneof=delivery pickup"`
	Items               []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

type OrderUpdate struct {
	DeliveryLocation    *string    `json:"delivery_location" binding:"omitempty,min=1,max=500"`
	DeliveryLatitude    *float64   `json:"delivery_latitude" binding:"omitempty,gte=-90,lte=90"`
	DeliveryLongitude   *float64   `json:"delivery_longitude" binding:"omitempty,gte=-180,lte=180"`
	DeliveryTime        *time.Time `json:"delivery_time"`
	SpecialInstructions *string    `json:"special_instructions" binding:"omitempty,max=1000"`
	DeliveryOption      *string    `json:"delivery_option" binding:"omitempty,oneof=delivery pickup"`
}

type OrderFilter struct {
	UserID string `form:"user_id"`
	Status string `form:"status"`
	Limit  int    `form:"limit"`
}

// ParallelItems pairs food_item_ids with quantities. A nil quantities list
// means one of each; otherwise both lists must be the same length.
func ParallelItems(ids []uint, quantities []int) ([]OrderItemInput, error) {
	if len(ids) == 0 {
		return nil, Validation("food_item_ids", "at least one food item is required")
	}
	if quantities != nil && len(quantities) != len(ids) {
		return nil, Validation("quantities", "food_item_ids and quantities must have the same length")
	}
	out := make([]OrderItemInput, 0, len(ids))
	for i, id := range ids {
		qty := 1
		if quantities != nil {
			qty = quantities[i]
		}
		if qty < 1 {
			return nil, Validation("quantities", "every quantity must be at least 1")
		}
		out = append(out, OrderItemInput{FoodItemID: id, Quantity: qty})
	}
	return out, nil
}

// ---------- Create ----------

// Create validates everything and resolves every food item before writing.
// The order, its items and its totals are written in one transaction.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	location := strings.TrimSpace(in.DeliveryLocation)
	if location == "" {
		return nil, Validation("delivery_location", "delivery_location is required")
	}
	option := models.OptionDelivery
	if in.DeliveryOption != "" {
		option = models.DeliveryOption(in.DeliveryOption)
	}

	db := s.db.WithContext(ctx)
	if err := db.Select("id").Where("id = ?", in.UserID).First(&models.Profile{}).Error; err != nil {
		return nil, lookupErr("profile", in.UserID, err)
	}
	items := make([]models.OrderItem, 0, len(in.Items))
	base := s.now().UTC()
	for i, it := range in.Items {
		item, err := s.snapshotItem(ctx, db, it)
		if err != nil {
			return nil, err
		}
		// one batch insert shares a timestamp; offsets keep line order
		item.CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
		items = append(items, item)
	}

	order := models.Order{
		UserID:              in.UserID,
		DeliveryLocation:    location,
		DeliveryLatitude:    in.DeliveryLatitude,
		DeliveryLongitude:   in.DeliveryLongitude,
		DeliveryTime:        in.DeliveryTime,
		SpecialInstructions: in.SpecialInstructions,
		DeliveryOption:      option,
		Status:              models.StatusPending,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return recomputeTotals(tx, order.ID)
	})
	if err != nil {
		return nil, Upstream("creating order", err)
	}

	out, err := s.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, out, "order.created")
	return out, nil
}

func (s *OrderService) snapshotItem(ctx context.Context, db *gorm.DB, in OrderItemInput) (models.OrderItem, error) {
	if in.Quantity < 0 {
		return models.OrderItem{}, Validation("quantity", "quantity must be at least 1")
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	var food models.FoodItem
	if err := db.First(&food, in.FoodItemID).Error; err != nil {
		return models.OrderItem{}, lookupErr("food_item", in.FoodItemID, err)
	}
	return models.OrderItem{
		FoodItemID:   food.ID,
		FoodItemName: food.Name,
		Quantity:     qty,
		Calories:     food.Calories,
		Protein:      food.Protein,
		Carbs:        food.TotalCarb,
		Fat:          food.TotalFat,
		DiningHall:   food.Location,
	}, nil
}

// recomputeTotals rewrites the cached totals from the order's current items.
func recomputeTotals(tx *gorm.DB, orderID string) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	t := OrderItemTotals(items)
	return tx.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]any{
		"total_calories": int(math.Round(t.Calories)),
		"total_protein":  t.Protein,
		"total_carbs":    t.Carbs,
		"total_fat":      t.Fat,
	}).Error
}

// ---------- Reads ----------

func (s *OrderService) Get(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Preload("Items", orderItemsOrder).Where("id = ?", orderID).First(&o).Error
	if err != nil {
		return nil, lookupErr("order", orderID, err)
	}
	return &o, nil
}

func orderItemsOrder(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }

// List returns orders newest first with items attached.
func (s *OrderService) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	limit, err := clampLimit(f.Limit, 50, 100)
	if err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx).Preload("Items", orderItemsOrder)
	if f.UserID != "" {
		tx = tx.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		st := models.OrderStatus(f.Status)
		if !st.Valid() {
			return nil, invalidStatus()
		}
		tx = tx.Where("status = ?", st)
	}
	var orders []models.Order
	if err := tx.Order("created_at DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, Upstream("listing orders", err)
	}
	return orders, nil
}

func (s *OrderService) UserOrders(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	if limit == 0 {
		limit = 20
	}
	return s.List(ctx, OrderFilter{UserID: userID, Limit: limit})
}

// Stats summarizes the last 90 days of a user's orders, at most 100 of them.
func (s *OrderService) Stats(ctx context.Context, userID string) (*OrderStats, error) {
	since := s.now().UTC().AddDate(0, 0, -statsWindowDays)
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", orderItemsOrder).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Limit(statsMaxOrders).
		Find(&orders).Error
	if err != nil {
		return nil, Upstream("loading order history", err)
	}
	st := SummarizeOrders(orders, statsTopItems)
	return &st, nil
}

// ---------- Mutations ----------

// mutate runs fn under a row lock on the order so concurrent edits to the same
// order apply one at a time, then reloads and announces the result.
func (s *OrderService) mutate(ctx context.Context, orderID, event string, fn func(tx *gorm.DB, o *models.Order) error) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := forUpdate(tx).Where("id = ?", orderID).First(&o).Error; err != nil {
			return lookupErr("order", orderID, err)
		}
		return fn(tx, &o)
	})
	if err != nil {
		return nil, Upstream("updating order", err)
	}
	out, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, out, event)
	return out, nil
}

func (s *OrderService) UpdateDetails(ctx context.Context, orderID string, in OrderUpdate) (*models.Order, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.DeliveryLocation != nil {
		loc := strings.TrimSpace(*in.DeliveryLocation)
		if loc == "" {
			return nil, Validation("delivery_location", "delivery_location must not be empty")
		}
		updates["delivery_location"] = loc
	}
	if in.DeliveryLatitude != nil {
		updates["delivery_latitude"] = *in.DeliveryLatitude
	}
	if in.DeliveryLongitude != nil {
		updates["delivery_longitude"] = *in.DeliveryLongitude
	}
	if in.DeliveryTime != nil {
		updates["delivery_time"] = *in.DeliveryTime
	}
	if in.SpecialInstructions != nil {
		updates["special_instructions"] = *in.SpecialInstructions
	}
	if in.DeliveryOption != nil {
		updates["delivery_option"] = *in.DeliveryOption
	}
	if len(updates) == 0 {
		return nil, Validation("body", "no fields to update")
	}
	return s.mutate(ctx, orderID, "order.updated", func(tx *gorm.DB, o *models.Order) error {
		return tx.Model(o).Updates(updates).Error
	})
}

// UpdateStatus accepts any of the seven statuses from any other; there is no
// transition table. Each change is recorded in order_status_changes.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	st := models.OrderStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return nil, invalidStatus()
	}
	return s.mutate(ctx, orderID, "order.status_changed", func(tx *gorm.DB, o *models.Order) error {
		change := models.OrderStatusChange{OrderID: o.ID, FromStatus: o.Status, ToStatus: st}
		if err := tx.Create(&change).Error; err != nil {
			return err
		}
		return tx.Model(o).Update("status", st).Error
	})
}

// Cancel is a soft status change; the order and its items stay.
func (s *OrderService) Cancel(ctx context.Context, orderID string) (*models.Order, error) {
	return s.UpdateStatus(ctx, orderID, string(models.StatusCancelled))
}

func (s *OrderService) StatusHistory(ctx context.Context, orderID string) ([]models.OrderStatusChange, error) {
	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}
	var changes []models.OrderStatusChange
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&changes).Error; err != nil {
		return nil, Upstream("loading status history", err)
	}
	return changes, nil
}

func (s *OrderService) AddItem(ctx context.Context, orderID string, in OrderItemInput) (*models.Order, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	item, err := s.snapshotItem(ctx, s.db.WithContext(ctx), in)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, orderID, "order.item_added", func(tx *gorm.DB, o *models.Order) error {
		item.OrderID = o.ID
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return recomputeTotals(tx, o.ID)
	})
}

func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID string) (*models.Order, error) {
	return s.mutate(ctx, orderID, "order.item_removed", func(tx *gorm.DB, o *models.Order) error {
		res := tx.Where("id = ? AND order_id = ?", itemID, o.ID).Delete(&models.OrderItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return NotFound("order_item", itemID)
		}
		return recomputeTotals(tx, o.ID)
	})
}

func (s *OrderService) notify(ctx context.Context, o *models.Order, event string) {
	if s.notifier != nil {
		s.notifier.OrderChanged(ctx, o, event)
	}
}

func invalidStatus() *Error {
	return Validation("status",
		"status must be one of: pending preparing ready out_for_delivery delivered completed cancelled")
}
