package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront-app/internal/domain/businesses"
	"storefront-app/internal/processor"
	"storefront-app/internal/vault"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
)

type fakeResolver struct {
	creds   map[uint]businesses.Credential
	secrets map[string]string
}

func (r *fakeResolver) Resolve(id uint) (businesses.Credential, error) {
	cred, ok := r.creds[id]
	if !ok {
		return businesses.Credential{}, vault.ErrNotFound
	}
	return cred, nil
}

func (r *fakeResolver) ResolveByPublicKey(pk string) (string, error) {
	secret, ok := r.secrets[pk]
	if !ok {
		return "", vault.ErrNotFound
	}
	return secret, nil
}

// catalogClient fakes the processor catalog for one tenant key.
type catalogClient struct {
	key string

	mu           sync.Mutex
	productErr   map[string]error
	productDelay map[string]time.Duration
	accountCalls []string
	sessions     []*stripe.CheckoutSessionParams
}

func (c *catalogClient) Product(_ context.Context, id string) (*stripe.Product, error) {
	if d := c.productDelay[id]; d > 0 {
		time.Sleep(d)
	}
	if err := c.productErr[id]; err != nil {
		return nil, err
	}
	if id == "prod_donation" {
		return &stripe.Product{ID: id, Metadata: map[string]string{"account_id": "donation"}}, nil
	}
	return &stripe.Product{
		ID:          id,
		Description: "desc of " + id,
		Metadata:    map[string]string{"account_id": "acct_" + id},
	}, nil
}

func (c *catalogClient) DefaultPrice(_ context.Context, productID string) (*stripe.Price, error) {
	return &stripe.Price{ID: "price_" + productID}, nil
}

func (c *catalogClient) Account(_ context.Context, id string) (*stripe.Account, error) {
	c.mu.Lock()
	c.accountCalls = append(c.accountCalls, id)
	c.mu.Unlock()
	return &stripe.Account{ID: id}, nil
}

func (c *catalogClient) CreateCheckoutSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	c.mu.Lock()
	c.sessions = append(c.sessions, params)
	c.mu.Unlock()
	return &stripe.CheckoutSession{ID: "cs_" + c.key}, nil
}

func (c *catalogClient) SessionLineItems(context.Context, string) ([]*stripe.LineItem, error) {
	return nil, errors.New("not used in checkout")
}

func (c *catalogClient) PaymentIntent(context.Context, string) (*stripe.PaymentIntent, error) {
	return nil, errors.New("not used in checkout")
}

func (c *catalogClient) CreateTransfer(context.Context, *stripe.TransferParams) (*stripe.Transfer, error) {
	return nil, errors.New("not used in checkout")
}

// trackingFactory remembers every client it hands out, keyed by secret.
type trackingFactory struct {
	mu      sync.Mutex
	clients map[string]*catalogClient
	delays  map[string]time.Duration
	errs    map[string]error
}

func newTrackingFactory() *trackingFactory {
	return &trackingFactory{clients: map[string]*catalogClient{}}
}

func (f *trackingFactory) build(secret string) processor.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[secret]
	if !ok {
		c = &catalogClient{key: secret, productDelay: f.delays, productErr: f.errs}
		f.clients[secret] = c
	}
	return c
}

func newTestBuilder(f *trackingFactory) *Builder {
	resolver := &fakeResolver{
		creds: map[uint]businesses.Credential{
			1: businesses.Single("sk_biz_one"),
			2: businesses.Single("sk_biz_two"),
		},
		secrets: map[string]string{"pk_biz_one": "sk_biz_one"},
	}
	return NewBuilder(resolver, f.build, "https://platform.example/thanks", "https://platform.example/canceled")
}

func TestBuildSessionPreservesRequestOrder(t *testing.T) {
	f := newTrackingFactory()
	// First product resolves slowest so completion order inverts request
	// order; line items must still come back in request order.
	f.delays = map[string]time.Duration{
		"prod_a": 30 * time.Millisecond,
		"prod_b": 15 * time.Millisecond,
		"prod_c": 0,
	}
	b := newTestBuilder(f)

	session, err := b.BuildSession(context.Background(), 1, []ProductRequest{
		{ProductID: "prod_a", Quantity: 1},
		{ProductID: "prod_b", Quantity: 2},
		{ProductID: "prod_c", Quantity: 3},
	})
	require.NoError(t, err)
	require.NotNil(t, session)

	client := f.clients["sk_biz_one"]
	require.Len(t, client.sessions, 1)
	items := client.sessions[0].LineItems
	require.Len(t, items, 3)
	require.Equal(t, "price_prod_a", stripe.StringValue(items[0].Price))
	require.Equal(t, "price_prod_b", stripe.StringValue(items[1].Price))
	require.Equal(t, "price_prod_c", stripe.StringValue(items[2].Price))
	require.Equal(t, int64(2), stripe.Int64Value(items[1].Quantity))
}

func TestBuildSessionFailsClosedOnProductError(t *testing.T) {
	f := newTrackingFactory()
	f.errs = map[string]error{"prod_b": errors.New("no such product")}
	b := newTestBuilder(f)

	_, err := b.BuildSession(context.Background(), 1, []ProductRequest{
		{ProductID: "prod_a", Quantity: 1},
		{ProductID: "prod_b", Quantity: 1},
	})
	require.Error(t, err)

	// All-or-nothing: no partial session may be created.
	require.Empty(t, f.clients["sk_biz_one"].sessions)
}

func TestBuildSessionUnknownBusiness(t *testing.T) {
	f := newTrackingFactory()
	b := newTestBuilder(f)

	_, err := b.BuildSession(context.Background(), 42, []ProductRequest{{ProductID: "prod_a", Quantity: 1}})
	require.ErrorIs(t, err, vault.ErrNotFound)
	require.Empty(t, f.clients, "no processor client may be built without a credential")
}

func TestBuildSessionTenantIsolation(t *testing.T) {
	f := newTrackingFactory()
	b := newTestBuilder(f)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		businessID := uint(1 + i%2)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.BuildSession(context.Background(), businessID, []ProductRequest{{ProductID: "prod_a", Quantity: 1}})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// Each business's sessions were created only on the client scoped to
	// its own secret.
	require.Len(t, f.clients, 2)
	require.Len(t, f.clients["sk_biz_one"].sessions, 4)
	require.Len(t, f.clients["sk_biz_two"].sessions, 4)
}

func TestBuildSessionForPublicKey(t *testing.T) {
	f := newTrackingFactory()
	b := newTestBuilder(f)

	session, err := b.BuildSessionForPublicKey(context.Background(), "pk_biz_one", []ProductRequest{{ProductID: "prod_a", Quantity: 1}})
	require.NoError(t, err)
	require.Equal(t, "cs_sk_biz_one", session.ID)

	_, err = b.BuildSessionForPublicKey(context.Background(), "pk_unknown", nil)
	require.ErrorIs(t, err, vault.ErrNotFound)
}

func TestBuildSessionVerifiesOwningAccount(t *testing.T) {
	f := newTrackingFactory()
	b := newTestBuilder(f)

	_, err := b.BuildSession(context.Background(), 1, []ProductRequest{{ProductID: "prod_a", Quantity: 1}})
	require.NoError(t, err)
	require.Equal(t, []string{"acct_prod_a"}, f.clients["sk_biz_one"].accountCalls)
}

func TestBuildSessionSkipsAccountCheckForDonations(t *testing.T) {
	f := newTrackingFactory()
	b := newTestBuilder(f)

	_, err := b.BuildSession(context.Background(), 1, []ProductRequest{{ProductID: "prod_donation", Quantity: 1}})
	require.NoError(t, err)
	require.Empty(t, f.clients["sk_biz_one"].accountCalls)
}

func TestBuildSessionRequiresProducts(t *testing.T) {
	f := newTrackingFactory()
	b := newTestBuilder(f)

	_, err := b.BuildSession(context.Background(), 1, nil)
	require.Error(t, err)
}
