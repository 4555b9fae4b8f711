package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"ecom-backend/internal/cache"
	"ecom-backend/internal/cart"
	"ecom-backend/internal/category"
	"ecom-backend/internal/config"
	"ecom-backend/internal/httpx"
	"ecom-backend/internal/identity"
	"ecom-backend/internal/notify"
	ord "ecom-backend/internal/order"
	"ecom-backend/internal/product"
	"ecom-backend/internal/user"
)

type app struct {
	cfg        config.Config
	log        *zap.Logger
	users      user.Repository
	tokens     *user.TokenManager
	categories category.Repository
	products   product.Repository
	carts      cart.Repository
	engine     *ord.Engine
	bus        notify.Bus
	cache      *cache.Cache
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpx.RequestID())
	r.Use(httpx.Logger(a.log))
	r.Use(identity.Resolve(a.tokens, identity.SessionCookie{
		Name:   a.cfg.SessionCookieName,
		Secure: a.cfg.SessionCookieSecure,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		api.POST("/users/register", registerHandler(a.users))
		api.GET("/users/profile", requireAuth(), getProfileHandler(a.users))
		api.PUT("/users/profile", requireAuth(), updateProfileHandler(a.users))
		api.POST("/token", obtainTokenHandler(a.users, a.tokens))
		api.POST("/token/refresh", refreshTokenHandler(a.users, a.tokens))

		api.GET("/categories", listCategoriesHandler(a.categories, a.cache))
		api.POST("/categories", adminOnly(), createCategoryHandler(a.categories, a.cache))
		api.PUT("/categories/:id", adminOnly(), updateCategoryHandler(a.categories, a.cache))
		api.DELETE("/categories/:id", adminOnly(), deleteCategoryHandler(a.categories, a.cache))

		api.GET("/products", listProductsHandler(a.products, a.cache))
		api.GET("/products/:id", getProductHandler(a.products))
		api.POST("/products", adminOnly(), createProductHandler(a.products, a.cache))
		api.PUT("/products/:id", adminOnly(), updateProductHandler(a.products, a.cache))
		api.DELETE("/products/:id", adminOnly(), deleteProductHandler(a.products, a.cache))

		api.GET("/cart", listCartHandler(a.carts))
		api.POST("/cart", addToCartHandler(a.carts))
		api.DELETE("/cart/:product_id", removeFromCartHandler(a.carts))
		api.GET("/cart/user/:user_id", adminOnly(), listUserCartHandler(a.carts))

		api.POST("/order/place_order", placeOrderHandler(a.engine))
		api.POST("/order/:id/update_status", updateStatusHandler(a.engine))
		api.GET("/order", listOrdersHandler(a.engine))
		api.GET("/order/:id", getOrderHandler(a.engine))
	}

	r.GET("/ws/notifications", wsNotificationsHandler(a.bus, a.log))

	return r
}

func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity.FromContext(c).IsAnonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identity.IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin privilege required"})
			return
		}
		c.Next()
	}
}
