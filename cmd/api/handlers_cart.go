package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecom-backend/internal/cart"
	"ecom-backend/internal/identity"
)

// addToCartHandler upserts a line item for the caller's cart. The quantity of
// an existing (owner, product) item is overwritten, not incremented.
// @Summary Add a product to the cart
// @Accept json
// @Produce json
// @Param item body cart.AddItemRequest true "item"
// @Success 201 {object} cart.Item
// @Router /api/cart [post]
func addToCartHandler(carts cart.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		item, err := carts.AddOrUpdate(c.Request.Context(), identity.FromContext(c), req.ProductID, req.Quantity)
		if err != nil {
			if err == cart.ErrProductNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart error"})
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func listCartHandler(carts cart.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := carts.ListByOwner(c.Request.Context(), identity.FromContext(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart error"})
			return
		}
		if items == nil {
			items = []cart.Item{}
		}
		c.JSON(http.StatusOK, items)
	}
}

func removeFromCartHandler(carts cart.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := carts.Remove(c.Request.Context(), identity.FromContext(c), c.Param("product_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart error"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func listUserCartHandler(carts cart.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := carts.ListByOwner(c.Request.Context(), identity.User(c.Param("user_id")))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart error"})
			return
		}
		if items == nil {
			items = []cart.Item{}
		}
		c.JSON(http.StatusOK, items)
	}
}
