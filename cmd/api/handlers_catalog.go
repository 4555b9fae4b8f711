package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ecom-backend/internal/cache"
	"ecom-backend/internal/category"
	"ecom-backend/internal/product"
)

// Collection cache keys, invalidated on every write before responding.
const (
	productsCacheKey   = "products"
	categoriesCacheKey = "categories"
)

func listCategoriesHandler(categories category.Repository, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := cc.Get(categoriesCacheKey, 0, func() (interface{}, error) {
			return categories.List(c.Request.Context())
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list error"})
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func createCategoryHandler(categories category.Repository, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cat := &category.Category{ID: uuid.NewString(), Name: req.Name}
		if err := categories.Create(c.Request.Context(), cat); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create error"})
			return
		}
		cc.Invalidate(categoriesCacheKey)
		c.JSON(http.StatusCreated, cat)
	}
}

func updateCategoryHandler(categories category.Repository, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cat := &category.Category{ID: c.Param("id"), Name: req.Name}
		if err := categories.Update(c.Request.Context(), cat); err != nil {
			if err == category.ErrNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update error"})
			return
		}
		cc.Invalidate(categoriesCacheKey)
		c.JSON(http.StatusOK, cat)
	}
}

func deleteCategoryHandler(categories category.Repository, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := categories.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete error"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		cc.Invalidate(categoriesCacheKey)
		c.Status(http.StatusNoContent)
	}
}

func parseProductQuery(c *gin.Context) (product.Query, bool) {
	var q product.Query
	filtered := false

	if v := c.Query("category"); v != "" {
		q.CategoryID = v
		filtered = true
	}
	if v := c.Query("min_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			q.MinPrice = &d
			filtered = true
		}
	}
	if v := c.Query("max_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			q.MaxPrice = &d
			filtered = true
		}
	}
	if v := c.Query("in_stock"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			q.InStock = &b
			filtered = true
		}
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			q.Page = n
			filtered = true
		}
	}
	if v := c.Query("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.PageSize = n
			// a non-default page size must not populate the shared key
			filtered = true
		}
	}
	return q, filtered
}

// listProductsHandler serves the catalog listing. The unfiltered first page is
// served through the read-through cache; filtered queries go to the store.
// @Summary List products
// @Produce json
// @Success 200 {object} product.ListResponse
// @Router /api/products [get]
func listProductsHandler(products product.Repository, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, filtered := parseProductQuery(c)

		load := func() (interface{}, error) {
			return products.List(c.Request.Context(), q)
		}

		var v interface{}
		var err error
		if filtered {
			v, err = load()
		} else {
			v, err = cc.Get(productsCacheKey, 0, load)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list error"})
			return
		}
		items, _ := v.([]product.Product)
		page := q.Page
		if page < 1 {
			page = 1
		}
		size := q.PageSize
		if size <= 0 || size > 10 {
			size = 10
		}
		c.JSON(http.StatusOK, product.ListResponse{Page: page, PageSize: size, Items: items})
	}
}

func getProductHandler(products product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := products.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// createProductHandler adds a product to the inventory.
// @Summary Create a product
// @Accept json
// @Produce json
// @Param product body product.CreateProductRequest true "product"
// @Success 201 {object} product.Product
// @Router /api/products [post]
func createProductHandler(products product.Repository, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil || price.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
			return
		}
		p := &product.Product{
			ID:          uuid.NewString(),
			Name:        req.Name,
			Description: req.Description,
			Price:       price,
			Stock:       req.Stock,
			CategoryID:  req.CategoryID,
		}
		if err := products.Create(c.Request.Context(), p); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create error"})
			return
		}
		cc.Invalidate(productsCacheKey)
		c.JSON(http.StatusCreated, p)
	}
}

func updateProductHandler(products product.Repository, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()
		current, err := products.GetByID(ctx, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}

		updatePrice := false
		price := current.Price
		if req.Price != "" {
			d, err := decimal.NewFromString(req.Price)
			if err != nil || d.IsNegative() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
				return
			}
			price = d
			updatePrice = true
		}
		stock := current.Stock
		if req.Stock != nil {
			if *req.Stock < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stock"})
				return
			}
			stock = *req.Stock
		}

		p := &product.Product{
			ID:          current.ID,
			Name:        req.Name,
			Description: req.Description,
			Price:       price,
			Stock:       stock,
			CategoryID:  req.CategoryID,
		}
		if err := products.Update(ctx, p, updatePrice); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update error"})
			return
		}
		cc.Invalidate(productsCacheKey)
		out, err := products.GetByID(ctx, current.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "refetch error"})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteProductHandler(products product.Repository, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := products.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete error"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		cc.Invalidate(productsCacheKey)
		c.Status(http.StatusNoContent)
	}
}
