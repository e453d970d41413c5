package main

import (
	"log"
	"time"

	"storefront-app/config"
	"storefront-app/database"
	"storefront-app/internal/alert"
	businessapi "storefront-app/internal/api/businesses"
	checkoutapi "storefront-app/internal/api/checkout"
	configapi "storefront-app/internal/api/platformconfig"
	stripewebhooks "storefront-app/internal/api/stripewebhook"
	routes "storefront-app/internal/app/http"
	"storefront-app/internal/checkout"
	"storefront-app/internal/domain/platform"
	"storefront-app/internal/processor"
	"storefront-app/internal/settlement"
	"storefront-app/internal/vault"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()
	db := database.Init(config.DB_URL)

	cipher, err := vault.NewSecretCipher(config.MasterKey())
	if err != nil {
		log.Fatal("Failed to initialize credential cipher:", err)
	}
	credentialVault := vault.New(vault.NewGormStore(db), cipher)

	platformConfig := platform.NewStore(db)
	builder := checkout.NewBuilder(credentialVault, processor.NewStripeClient, config.SUCCESS_URL, config.CANCEL_URL)
	settler := settlement.NewSettler(settlement.NewGormMarkers(db), platformConfig)

	// Settlement transfers run under the platform account; tenant keys from
	// the vault scope checkout only.
	platformClient := processor.NewStripeClient(config.STRIPE_SECRET_KEY)

	handlers := routes.Handlers{
		Checkout:   checkoutapi.NewHandler(builder),
		Webhook:    stripewebhooks.NewHandler(settler, platformClient, config.STRIPE_WEBHOOK_SECRET, alert.NewNotifierFromEnv()),
		Businesses: businessapi.NewHandler(credentialVault),
		Config:     configapi.NewHandler(platformConfig),
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Admin-Password"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, handlers)

	r.Run(":" + config.PORT)
}
