package processor

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

type stripeClient struct {
	api *client.API
}

// NewStripeClient builds a Stripe client bound to the given secret key.
// It deliberately avoids the package-global stripe.Key so that two requests
// for different businesses can never share credentials.
func NewStripeClient(secretKey string) Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeClient{api: api}
}

func (c *stripeClient) Product(ctx context.Context, id string) (*stripe.Product, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx
	return c.api.Products.Get(id, params)
}

func (c *stripeClient) DefaultPrice(ctx context.Context, productID string) (*stripe.Price, error) {
	params := &stripe.PriceListParams{Product: stripe.String(productID)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := c.api.Prices.List(params)
	if it.Next() {
		return it.Price(), nil
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("no price configured for product %s", productID)
}

func (c *stripeClient) Account(ctx context.Context, id string) (*stripe.Account, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx
	return c.api.Accounts.GetByID(id, params)
}

func (c *stripeClient) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return c.api.CheckoutSessions.New(params)
}

func (c *stripeClient) SessionLineItems(ctx context.Context, sessionID string) ([]*stripe.LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{Session: stripe.String(sessionID)}
	params.Context = ctx

	var items []*stripe.LineItem
	it := c.api.CheckoutSessions.ListLineItems(params)
	for it.Next() {
		items = append(items, it.LineItem())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *stripeClient) PaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")
	return c.api.PaymentIntents.Get(id, params)
}

func (c *stripeClient) CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
	params.Context = ctx
	return c.api.Transfers.New(params)
}
