package settlement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"storefront-app/internal/processor"

	"github.com/stripe/stripe-go/v75"
)

var ErrAlreadySettled = errors.New("checkout session already settled")

type markerStore interface {
	// MarkSettled records a session as settled, returning ErrAlreadySettled
	// if a previous delivery got there first.
	MarkSettled(sessionID string) error
}

type cutSource interface {
	ServiceCut() (float64, error)
}

// TransferResult reports the outcome for one line item. Donation items are
// recorded with Donation set and no transfer; failed items carry Err while
// their siblings settle normally.
type TransferResult struct {
	ProductID   string
	Destination string
	Amount      int64
	Currency    string
	TransferID  string
	Donation    bool
	Err         error
}

// Settler computes and executes the revenue split for a completed checkout.
type Settler struct {
	markers markerStore
	cuts    cutSource
}

func NewSettler(markers markerStore, cuts cutSource) *Settler {
	return &Settler{markers: markers, cuts: cuts}
}

// Settle directs each line item's payout to its owning business. The
// service cut is read once so every item in the event settles at the same
// rate. Items are processed concurrently and independently: one failed
// transfer never cancels the rest.
func (s *Settler) Settle(ctx context.Context, pc processor.Client, session *stripe.CheckoutSession) ([]TransferResult, error) {
	if session == nil || session.ID == "" {
		return nil, errors.New("settlement requires a checkout session id")
	}

	if err := s.markers.MarkSettled(session.ID); err != nil {
		return nil, err
	}

	cut, err := s.cuts.ServiceCut()
	if err != nil {
		return nil, fmt.Errorf("failed to read service cut: %w", err)
	}

	items, err := pc.SessionLineItems(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items for %s: %w", session.ID, err)
	}

	if session.PaymentIntent == nil || session.PaymentIntent.ID == "" {
		return nil, fmt.Errorf("session %s has no payment intent", session.ID)
	}
	intent, err := pc.PaymentIntent(ctx, session.PaymentIntent.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment intent: %w", err)
	}
	if intent.LatestCharge == nil || intent.LatestCharge.ID == "" {
		return nil, fmt.Errorf("payment intent %s has no charge to source transfers from", intent.ID)
	}
	chargeID := intent.LatestCharge.ID
	currency := string(session.Currency)

	results := make([]TransferResult, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		i, item := i, item
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.settleItem(ctx, pc, item, cut, currency, chargeID)
		}()
	}
	wg.Wait()

	return results, nil
}

func (s *Settler) settleItem(ctx context.Context, pc processor.Client, item *stripe.LineItem, cut float64, currency, chargeID string) TransferResult {
	var r TransferResult
	if item.Price == nil || item.Price.Product == nil || item.Price.Product.ID == "" {
		r.Err = errors.New("line item has no resolvable product")
		return r
	}
	r.ProductID = item.Price.Product.ID

	product, err := pc.Product(ctx, r.ProductID)
	if err != nil {
		r.Err = fmt.Errorf("failed to resolve owner of product %s: %w", r.ProductID, err)
		return r
	}

	r.Destination = product.Metadata[processor.MetadataAccountID]
	if r.Destination == processor.DonationAccount {
		// Donations pass through in full; no transfer leaves the platform.
		r.Donation = true
		return r
	}

	if currency == "" {
		currency = string(item.Currency)
	}
	r.Amount = Payout(item.AmountTotal, item.Quantity, cut)
	r.Currency = currency

	transfer, err := pc.CreateTransfer(ctx, &stripe.TransferParams{
		Amount:            stripe.Int64(r.Amount),
		Currency:          stripe.String(currency),
		Destination:       stripe.String(r.Destination),
		SourceTransaction: stripe.String(chargeID),
	})
	if err != nil {
		r.Err = err
		return r
	}
	r.TransferID = transfer.ID
	return r
}

// Payout is the amount owed to the business for one line item: the post-tax
// line total less the platform cut, floored so rounding error never eats
// into the cut, times quantity.
func Payout(amountTotal, quantity int64, serviceCut float64) int64 {
	return int64(math.Floor(float64(amountTotal)*(1-serviceCut))) * quantity
}

// Failures filters the results down to items whose transfer failed.
func Failures(results []TransferResult) []TransferResult {
	var failed []TransferResult
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
