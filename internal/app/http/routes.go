package routes

import (
	adminapi "storefront-app/internal/api/admin"
	businessapi "storefront-app/internal/api/businesses"
	checkoutapi "storefront-app/internal/api/checkout"
	configapi "storefront-app/internal/api/platformconfig"
	stripewebhooks "storefront-app/internal/api/stripewebhook"
	"storefront-app/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers carries the wired-up request handlers into route registration;
// nothing here reaches for globals.
type Handlers struct {
	Checkout   *checkoutapi.Handler
	Webhook    *stripewebhooks.Handler
	Businesses *businessapi.Handler
	Config     *configapi.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	// The webhook route must see the raw body, so no body-rewriting
	// middleware may run in front of it.
	r.POST("/webhook", h.Webhook.StripeWebhook)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/create-checkout-session", h.Checkout.CreateCheckoutSession)

	r.POST("/admin/login", adminapi.Login)

	// Admin routes: shared secret or bearer token.
	admin := r.Group("/")
	admin.Use(middleware.SanitizeInput(), middleware.AdminAuth())

	admin.POST("/create-business", h.Businesses.CreateBusiness)
	admin.POST("/update-business", h.Businesses.UpdateBusiness)
	admin.POST("/delete-business", h.Businesses.DeleteBusiness)

	admin.GET("/config/read", h.Config.ReadConfig)
	admin.PUT("/config/update", h.Config.UpdateConfig)
}
