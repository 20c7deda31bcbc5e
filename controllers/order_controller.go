package controllers

import (
	"encoding/json"
	"net/http"

	"studenteats/middlewares"
	"studenteats/services"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(svc *services.OrderService) *OrderController {
	return &OrderController{Orders: svc}
}

// createOrderRequest accepts items either as a list of {food_item_id, quantity}
// or as parallel food_item_ids / quantities arrays.
type createOrderRequest struct {
	services.CreateOrderInput
	FoodItemIDs []uint `json:"food_item_ids"`
	Quantities  []int  `json:"quantities"`
}

// POST /orders
func (oc *OrderController) Create(c *gin.Context) {
	var req createOrderRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		respondError(c, services.ValidationFromBinding(err))
		return
	}
	in := req.CreateOrderInput
	if authed := middlewares.UserID(c); authed != "" && in.UserID == "" {
		in.UserID = authed
	}
	if !sameUser(c, in.UserID) {
		return
	}
	if len(in.Items) == 0 && (req.FoodItemIDs != nil || req.Quantities != nil) {
		items, err := services.ParallelItems(req.FoodItemIDs, req.Quantities)
		if err != nil {
			respondError(c, err)
			return
		}
		in.Items = items
	}
	o, err := oc.Orders.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// GET /orders?user_id&status&limit
func (oc *OrderController) List(c *gin.Context) {
	var f services.OrderFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		respondError(c, services.ValidationFromBinding(err))
		return
	}
	if authed := middlewares.UserID(c); authed != "" && f.UserID == "" {
		f.UserID = authed
	}
	if !sameUser(c, f.UserID) {
		return
	}
	orders, err := oc.Orders.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// load fetches the order named in the path and checks the caller may see it.
func (oc *OrderController) load(c *gin.Context) bool {
	o, err := oc.Orders.Get(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return false
	}
	if !sameUser(c, o.UserID) {
		return false
	}
	c.Set("order", o)
	return true
}

// GET /orders/:order_id
func (oc *OrderController) Get(c *gin.Context) {
	if !oc.load(c) {
		return
	}
	o, _ := c.Get("order")
	c.JSON(http.StatusOK, o)
}

// PATCH /orders/:order_id
func (oc *OrderController) Update(c *gin.Context) {
	var in services.OrderUpdate
	if !bindJSON(c, &in) || !oc.load(c) {
		return
	}
	o, err := oc.Orders.UpdateDetails(c.Request.Context(), c.Param("order_id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// PATCH /orders/:order_id/status {status}
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &body) || !oc.load(c) {
		return
	}
	o, err := oc.Orders.UpdateStatus(c.Request.Context(), c.Param("order_id"), body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// DELETE /orders/:order_id
func (oc *OrderController) Cancel(c *gin.Context) {
	if !oc.load(c) {
		return
	}
	o, err := oc.Orders.Cancel(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// GET /orders/:order_id/history
func (oc *OrderController) History(c *gin.Context) {
	if !oc.load(c) {
		return
	}
	changes, err := oc.Orders.StatusHistory(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": c.Param("order_id"), "changes": changes})
}

// POST /orders/:order_id/items
func (oc *OrderController) AddItem(c *gin.Context) {
	var in services.OrderItemInput
	if !bindJSON(c, &in) || !oc.load(c) {
		return
	}
	o, err := oc.Orders.AddItem(c.Request.Context(), c.Param("order_id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// DELETE /orders/:order_id/items/:item_id
func (oc *OrderController) RemoveItem(c *gin.Context) {
	if !oc.load(c) {
		return
	}
	o, err := oc.Orders.RemoveItem(c.Request.Context(), c.Param("order_id"), c.Param("item_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// GET /users/:user_id/orders?limit
func (oc *OrderController) UserOrders(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	orders, err := oc.Orders.UserOrders(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// GET /users/:user_id/orders/stats
func (oc *OrderController) Stats(c *gin.Context) {
	userID := c.Param("user_id")
	if !sameUser(c, userID) {
		return
	}
	st, err := oc.Orders.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
