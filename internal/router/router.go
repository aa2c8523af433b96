package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	storeController          *controller.StoreController
	cartController           *controller.CartController
	checkoutController       *controller.CheckoutController
	checkoutSocketController *controller.CheckoutSocketController
	sessionMiddleware        *middleware.SessionMiddleware
	gatherer                 prometheus.Gatherer
	config                   *config.Config
}

func NewRouter(
	storeController *controller.StoreController,
	cartController *controller.CartController,
	checkoutController *controller.CheckoutController,
	checkoutSocketController *controller.CheckoutSocketController,
	sessionMiddleware *middleware.SessionMiddleware,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
) *Router {
	return &Router{
		storeController:          storeController,
		cartController:           cartController,
		checkoutController:       checkoutController,
		checkoutSocketController: checkoutSocketController,
		sessionMiddleware:        sessionMiddleware,
		gatherer:                 gatherer,
		config:                   cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Storefront API is running",
		})
	})
	if r.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		stores := v1.Group("/stores")
		{
			stores.GET("/:id/payment-methods", r.storeController.GetPaymentMethods)
		}

		cart := v1.Group("/cart")
		cart.Use(r.sessionMiddleware.Handle())
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("/items", r.cartController.AddItem)
			cart.PUT("/items/:product_id", r.cartController.UpdateItem)
			cart.DELETE("/items/:product_id", r.cartController.RemoveItem)
			cart.DELETE("", r.cartController.ClearCart)
		}

		checkout := v1.Group("/checkout")
		checkout.Use(r.sessionMiddleware.Handle())
		{
			checkout.POST("", r.checkoutController.Open)
			checkout.GET("", r.checkoutController.Get)
			checkout.DELETE("", r.checkoutController.Leave)
			checkout.PUT("/payment", r.checkoutController.SelectPayment)
			checkout.PUT("/details", r.checkoutController.UpdateDetails)
			checkout.POST("/review", r.checkoutController.RequestReview)
			checkout.DELETE("/review", r.checkoutController.CancelReview)
			checkout.POST("/confirm", r.checkoutController.Confirm)
			checkout.POST("/retry", r.checkoutController.Retry)
			checkout.POST("/continue", r.checkoutController.Continue)
			checkout.GET("/ws", r.checkoutSocketController.Handle)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Cart-Session, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Cart-Session, X-Request-ID, X-Cart-Persisted")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
