package checkout

import (
	"context"
	"fmt"

	"storefront-app/internal/domain/businesses"
	"storefront-app/internal/processor"

	"github.com/stripe/stripe-go/v75"
	"golang.org/x/sync/errgroup"
)

// ProductRequest is one requested catalog entry.
type ProductRequest struct {
	ProductID string
	Quantity  int64
}

// credentialResolver is the slice of the vault the builder needs.
type credentialResolver interface {
	Resolve(businessID uint) (businesses.Credential, error)
	ResolveByPublicKey(publicKey string) (string, error)
}

// Builder assembles a processor checkout session for one business. Every
// call resolves the tenant credential fresh and builds its own scoped
// client; nothing is shared across requests.
type Builder struct {
	vault      credentialResolver
	clients    processor.Factory
	successURL string
	cancelURL  string
}

func NewBuilder(vault credentialResolver, clients processor.Factory, successURL, cancelURL string) *Builder {
	return &Builder{vault: vault, clients: clients, successURL: successURL, cancelURL: cancelURL}
}

// BuildSession resolves the business credential and creates a checkout
// session with one line item per requested product. Product lookups run
// concurrently but line items keep the caller's order. Any lookup failure
// aborts before the session is created.
func (b *Builder) BuildSession(ctx context.Context, businessID uint, products []ProductRequest) (*stripe.CheckoutSession, error) {
	cred, err := b.vault.Resolve(businessID)
	if err != nil {
		return nil, err
	}
	return b.build(ctx, b.clients(cred.Secret), products)
}

// BuildSessionForPublicKey is the split-key entry point: the caller
// identifies the tenant by its circulating public key.
func (b *Builder) BuildSessionForPublicKey(ctx context.Context, publicKey string, products []ProductRequest) (*stripe.CheckoutSession, error) {
	secret, err := b.vault.ResolveByPublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	return b.build(ctx, b.clients(secret), products)
}

func (b *Builder) build(ctx context.Context, pc processor.Client, products []ProductRequest) (*stripe.CheckoutSession, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("at least one product is required")
	}

	// Fan out per product, fan in by index so line items match request order.
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, len(products))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			item, err := b.resolveLineItem(gctx, pc, p)
			if err != nil {
				return err
			}
			lineItems[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes:  stripe.StringSlice([]string{"card"}),
		LineItems:           lineItems,
		Mode:                stripe.String(string(stripe.CheckoutSessionModePayment)),
		AutomaticTax:        &stripe.CheckoutSessionAutomaticTaxParams{Enabled: stripe.Bool(true)},
		AllowPromotionCodes: stripe.Bool(true),
		SuccessURL:          stripe.String(b.successURL),
		CancelURL:           stripe.String(b.cancelURL),
	}
	return pc.CreateCheckoutSession(ctx, params)
}

func (b *Builder) resolveLineItem(ctx context.Context, pc processor.Client, p ProductRequest) (*stripe.CheckoutSessionLineItemParams, error) {
	product, err := pc.Product(ctx, p.ProductID)
	if err != nil {
		return nil, err
	}

	price, err := pc.DefaultPrice(ctx, p.ProductID)
	if err != nil {
		return nil, err
	}

	// Guard against cross-tenant product reuse: the owning account named in
	// the product metadata must exist, unless it is the donation sentinel.
	accountID := product.Metadata[processor.MetadataAccountID]
	if accountID != processor.DonationAccount {
		if _, err := pc.Account(ctx, accountID); err != nil {
			return nil, err
		}
	}

	return &stripe.CheckoutSessionLineItemParams{
		Price:    stripe.String(price.ID),
		Quantity: stripe.Int64(p.Quantity),
	}, nil
}
