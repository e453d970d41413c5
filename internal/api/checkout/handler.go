package checkout

import (
	"errors"
	"net/http"

	checkoutflow "storefront-app/internal/checkout"
	"storefront-app/internal/vault"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

type Handler struct {
	builder *checkoutflow.Builder
}

func NewHandler(builder *checkoutflow.Builder) *Handler {
	return &Handler{builder: builder}
}

type productDTO struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
}

type createSessionDTO struct {
	// Either the business id or, in split-key deployments, the circulating
	// public key identifies the tenant.
	BusinessID uint         `json:"business_id"`
	StripePK   string       `json:"stripe_pk"`
	Products   []productDTO `json:"products" binding:"required,min=1,dive"`
}

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body createSessionDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body does not meet the checkout specification"})
		return
	}
	if body.BusinessID == 0 && body.StripePK == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_id or stripe_pk is required"})
		return
	}

	products := make([]checkoutflow.ProductRequest, len(body.Products))
	for i, p := range body.Products {
		products[i] = checkoutflow.ProductRequest{ProductID: p.ProductID, Quantity: p.Quantity}
	}

	var session *stripe.CheckoutSession
	var err error
	if body.BusinessID != 0 {
		session, err = h.builder.BuildSession(c.Request.Context(), body.BusinessID, products)
	} else {
		session, err = h.builder.BuildSessionForPublicKey(c.Request.Context(), body.StripePK, products)
	}
	if err != nil {
		writeCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func writeCheckoutError(c *gin.Context, err error) {
	if errors.Is(err, vault.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No credential stored for this business"})
		return
	}

	// Processor rejections pass through with the processor's own status and
	// code rather than being wrapped.
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		status := stripeErr.HTTPStatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": string(stripeErr.Code)})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
}
