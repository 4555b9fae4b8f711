package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecom-backend/internal/identity"
	ord "ecom-backend/internal/order"
)

// placeOrderHandler converts the caller's cart into an order.
// @Summary Place an order from the current cart
// @Produce json
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string "Cart is empty"
// @Failure 409 {object} map[string]string "Insufficient stock"
// @Router /api/order/place_order [post]
func placeOrderHandler(engine *ord.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := engine.PlaceOrder(c.Request.Context(), identity.FromContext(c))
		if err != nil {
			var stockErr *ord.InsufficientStockError
			switch {
			case errors.Is(err, ord.ErrEmptyCart):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
			case errors.As(err, &stockErr):
				c.JSON(http.StatusConflict, gin.H{"error": stockErr.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "order error"})
			}
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "Order placed", "order_id": o.ID})
	}
}

// updateStatusHandler is the admin-only forward status transition.
// @Summary Update an order's status
// @Accept json
// @Produce json
// @Param status body order.UpdateStatusRequest true "new status"
// @Success 200 {object} map[string]string
// @Router /api/order/{id}/update_status [post]
func updateStatusHandler(engine *ord.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		o, err := engine.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, identity.IsAdmin(c))
		if err != nil {
			switch {
			case errors.Is(err, ord.ErrForbidden):
				c.JSON(http.StatusForbidden, gin.H{"error": "admin privilege required"})
			case errors.Is(err, ord.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			case errors.Is(err, ord.ErrInvalidStatus):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "update error"})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "Order status updated to " + string(o.Status)})
	}
}

func getOrderHandler(engine *ord.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := engine.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		// owners see their own orders, admins see all
		owner := identity.FromContext(c)
		if !identity.IsAdmin(c) && o.Owner() != owner {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func listOrdersHandler(engine *ord.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		orders, err := engine.ListByOwner(c.Request.Context(), identity.FromContext(c), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list error"})
			return
		}
		if orders == nil {
			orders = []ord.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"items": orders})
	}
}
