package vault

import (
	"bytes"
	"testing"

	"storefront-app/internal/domain/businesses"

	"github.com/stretchr/testify/require"
)

// memStore is an in-memory stand-in for the gorm store, good enough to
// exercise the vault's encryption and mutation rules.
type memStore struct {
	rows   map[uint]*businesses.Business
	pairs  map[string]*businesses.StripeKeyPair
	nextID uint
	writes int
}

func newMemStore() *memStore {
	return &memStore{
		rows:   map[uint]*businesses.Business{},
		pairs:  map[string]*businesses.StripeKeyPair{},
		nextID: 1,
	}
}

func (s *memStore) createBusiness(b *businesses.Business, pair *businesses.StripeKeyPair) error {
	if b.ID == 0 {
		b.ID = s.nextID
		s.nextID++
	}
	if _, ok := s.rows[b.ID]; ok {
		return ErrDuplicateKey
	}
	if pair != nil {
		if _, ok := s.pairs[pair.StripePublicKey]; ok {
			return ErrDuplicateKey
		}
		cp := *pair
		s.pairs[pair.StripePublicKey] = &cp
	}
	cp := *b
	s.rows[b.ID] = &cp
	s.writes++
	return nil
}

func (s *memStore) getBusiness(id uint) (*businesses.Business, error) {
	b, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *memStore) applyUpdate(b *businesses.Business, newPair *businesses.StripeKeyPair, removePK *string) error {
	if _, ok := s.rows[b.ID]; !ok {
		return ErrNotFound
	}
	if newPair != nil {
		if _, ok := s.pairs[newPair.StripePublicKey]; ok {
			return ErrDuplicateKey
		}
		cp := *newPair
		s.pairs[newPair.StripePublicKey] = &cp
	}
	cp := *b
	s.rows[b.ID] = &cp
	if removePK != nil {
		delete(s.pairs, *removePK)
	}
	s.writes++
	return nil
}

func (s *memStore) deleteBusiness(b *businesses.Business) error {
	if _, ok := s.rows[b.ID]; !ok {
		return ErrNotFound
	}
	if b.StripePublicKey != nil {
		delete(s.pairs, *b.StripePublicKey)
	}
	delete(s.rows, b.ID)
	s.writes++
	return nil
}

func (s *memStore) getPairForBusiness(publicKey string) (*businesses.StripeKeyPair, error) {
	pair, ok := s.pairs[publicKey]
	if !ok {
		return nil, ErrNotFound
	}
	for _, b := range s.rows {
		if b.StripePublicKey != nil && *b.StripePublicKey == publicKey {
			cp := *pair
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func newTestVault(t *testing.T) (*Vault, *memStore) {
	t.Helper()
	cipher, err := NewSecretCipher(testKey(t))
	require.NoError(t, err)
	store := newMemStore()
	return New(store, cipher), store
}

func TestStoreAndResolveSingleKey(t *testing.T) {
	v, store := newTestVault(t)

	require.NoError(t, v.Store(1, "Taco Shop", businesses.Single("sk_test_taco")))

	// At rest the secret is ciphertext only.
	row := store.rows[1]
	require.NotEmpty(t, row.SecretCiphertext)
	require.False(t, bytes.Contains(row.SecretCiphertext, []byte("sk_test_taco")))

	cred, err := v.Resolve(1)
	require.NoError(t, err)
	require.Equal(t, businesses.ModeSingle, cred.Mode)
	require.Equal(t, "sk_test_taco", cred.Secret)
}

func TestStoreAndResolveSplitKey(t *testing.T) {
	v, _ := newTestVault(t)

	require.NoError(t, v.Store(2, "Bakery", businesses.Split("pk_test_bakery", "sk_test_bakery")))

	cred, err := v.Resolve(2)
	require.NoError(t, err)
	require.Equal(t, businesses.ModeSplit, cred.Mode)
	require.Equal(t, "pk_test_bakery", cred.PublicKey)
	require.Equal(t, "sk_test_bakery", cred.Secret)

	secret, err := v.ResolveByPublicKey("pk_test_bakery")
	require.NoError(t, err)
	require.Equal(t, "sk_test_bakery", secret)
}

func TestResolveUnknownBusiness(t *testing.T) {
	v, _ := newTestVault(t)

	_, err := v.Resolve(99)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = v.ResolveByPublicKey("pk_missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDuplicateBusiness(t *testing.T) {
	v, _ := newTestVault(t)

	require.NoError(t, v.Store(1, "First", businesses.Single("sk_a")))
	require.ErrorIs(t, v.Store(1, "Second", businesses.Single("sk_b")), ErrDuplicateKey)
}

func TestUpdateWithoutChangesIsRejected(t *testing.T) {
	v, store := newTestVault(t)

	require.NoError(t, v.Store(1, "Shop", businesses.Single("sk_a")))
	writes := store.writes

	require.ErrorIs(t, v.Update(1, nil, nil), ErrNoChangeRequested)
	require.Equal(t, writes, store.writes, "no-op update must not write")
}

func TestUpdateNameOnly(t *testing.T) {
	v, _ := newTestVault(t)

	require.NoError(t, v.Store(1, "Old Name", businesses.Single("sk_a")))
	name := "New Name"
	require.NoError(t, v.Update(1, &name, nil))

	b, err := v.store.getBusiness(1)
	require.NoError(t, err)
	require.Equal(t, "New Name", b.Name)

	cred, err := v.Resolve(1)
	require.NoError(t, err)
	require.Equal(t, "sk_a", cred.Secret)
}

func TestSplitPairIsImmutable(t *testing.T) {
	v, _ := newTestVault(t)

	require.NoError(t, v.Store(1, "Bakery", businesses.Split("pk_1", "sk_1")))

	// Re-pairing the circulating public key with a different secret is not
	// an update path that exists.
	cred := businesses.Split("pk_1", "sk_other")
	require.ErrorIs(t, v.Update(1, nil, &cred), ErrPairImmutable)

	secret, err := v.ResolveByPublicKey("pk_1")
	require.NoError(t, err)
	require.Equal(t, "sk_1", secret)
}

func TestRotateCreatesNewPairAndDropsOld(t *testing.T) {
	v, _ := newTestVault(t)

	require.NoError(t, v.Store(1, "Bakery", businesses.Split("pk_old", "sk_old")))
	require.NoError(t, v.Rotate(1, businesses.Split("pk_new", "sk_new")))

	secret, err := v.ResolveByPublicKey("pk_new")
	require.NoError(t, err)
	require.Equal(t, "sk_new", secret)

	_, err = v.ResolveByPublicKey("pk_old")
	require.ErrorIs(t, err, ErrNotFound)

	cred, err := v.Resolve(1)
	require.NoError(t, err)
	require.Equal(t, "pk_new", cred.PublicKey)
}

func TestRemoveInvalidatesCredential(t *testing.T) {
	v, _ := newTestVault(t)

	require.NoError(t, v.Store(1, "Bakery", businesses.Split("pk_1", "sk_1")))
	require.NoError(t, v.Remove(1))

	_, err := v.Resolve(1)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = v.ResolveByPublicKey("pk_1")
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, v.Remove(1), ErrNotFound)
}

func TestStoreRejectsInvalidCredential(t *testing.T) {
	v, _ := newTestVault(t)

	if err := v.Store(1, "Shop", businesses.Credential{Mode: businesses.ModeSingle}); err == nil {
		t.Fatal("expected empty secret to be rejected")
	}
	if err := v.Store(1, "Shop", businesses.Credential{Mode: businesses.ModeSplit, Secret: "sk"}); err == nil {
		t.Fatal("expected missing public key to be rejected")
	}
	if err := v.Store(1, "", businesses.Single("sk")); err == nil {
		t.Fatal("expected empty name to be rejected")
	}
}
