package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	StatusPending, StatusPreparing, StatusReady, StatusOutForDelivery,
	StatusDelivered, StatusCompleted, StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s OrderStatus) Active() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusOutForDelivery:
		return true
	}
	return false
}

func (s OrderStatus) Completed() bool { return s == StatusDelivered || s == StatusCompleted }

type DeliveryOption string

const (
	OptionDelivery DeliveryOption = "delivery"
	OptionPickup   DeliveryOption = "pickup"
)

// Order totals are a write-through cache of its items, refreshed on every item change.
type Order struct {
	ID                  string         `gorm:"primaryKey;size:36" json:"id"`
	UserID              string         `gorm:"size:64;not null;index" json:"user_id"`
	DeliveryLocation    string         `gorm:"type:text;not null" json:"delivery_location"`
	DeliveryLatitude    *float64       `json:"delivery_latitude,omitempty"`
	DeliveryLongitude   *float64       `json:"delivery_longitude,omitempty"`
	DeliveryTime        *time.Time     `json:"delivery_time,omitempty"`
	SpecialInstructions *string        `gorm:"type:text" json:"special_instructions,omitempty"`
	DeliveryOption      DeliveryOption `gorm:"size:16;not null" json:"delivery_option"`
	Status              OrderStatus    `gorm:"size:24;not null;index" json:"status"`
	TotalCalories       int            `json:"total_calories"`
	TotalProtein        float64        `json:"total_protein"`
	TotalCarbs          float64        `json:"total_carbs"`
	TotalFat            float64        `json:"total_fat"`
	Items               []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem snapshots the catalog row at order time.
type OrderItem struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	OrderID      string    `gorm:"size:36;not null;index" json:"order_id"`
	FoodItemID   uint      `gorm:"not null" json:"food_item_id"`
	FoodItemName string    `gorm:"size:200;not null" json:"food_item_name"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	Calories     int       `json:"calories"`
	Protein      float64   `json:"protein"`
	Carbs        float64   `json:"carbs"`
	Fat          float64   `json:"fat"`
	DiningHall   *string   `gorm:"size:100" json:"dining_hall,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// OrderStatusChange is an append-only audit of status updates.
type OrderStatusChange struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OrderID    string      `gorm:"size:36;not null;index" json:"order_id"`
	FromStatus OrderStatus `gorm:"size:24" json:"from_status"`
	ToStatus   OrderStatus `gorm:"size:24;not null" json:"to_status"`
	CreatedAt  time.Time   `json:"created_at"`
}
