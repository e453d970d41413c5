// Package processor is the capability surface over the payment processor.
// Each Client is scoped to exactly one secret key; there is no shared
// package-global key, which is what keeps tenants isolated.
package processor

import (
	"context"

	"github.com/stripe/stripe-go/v75"
)

// DonationAccount is the reserved metadata account_id marking platform
// donations. Donation line items settle to the platform in full.
const DonationAccount = "donation"

// MetadataAccountID is the product metadata key naming the connected
// account that owns a product.
const MetadataAccountID = "account_id"

type Client interface {
	Product(ctx context.Context, id string) (*stripe.Product, error)
	// DefaultPrice returns the first active price listed for a product.
	DefaultPrice(ctx context.Context, productID string) (*stripe.Price, error)
	Account(ctx context.Context, id string) (*stripe.Account, error)
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	SessionLineItems(ctx context.Context, sessionID string) ([]*stripe.LineItem, error)
	PaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error)
}

// Factory builds a Client scoped to one secret key. Handlers receive a
// Factory so tests can swap in fakes and every request gets its own handle.
type Factory func(secretKey string) Client
