package vault

import (
	"errors"
	"fmt"

	"storefront-app/internal/domain/businesses"
)

var (
	ErrNotFound          = errors.New("business credential not found")
	ErrDuplicateKey      = errors.New("business or key already exists")
	ErrNoChangeRequested = errors.New("no change requested")
	ErrPairImmutable     = errors.New("public key already paired; rotation requires a new pair")
	ErrValidation        = errors.New("invalid business or credential")
)

// store is the persistence seam under the vault. The gorm implementation is
// the production one; tests swap in an in-memory store. Implementations
// return the vault sentinel errors above.
type store interface {
	createBusiness(b *businesses.Business, pair *businesses.StripeKeyPair) error
	getBusiness(id uint) (*businesses.Business, error)
	// applyUpdate persists b and, in the same transaction, inserts newPair
	// and deletes the pair keyed by removePK when they are non-nil.
	applyUpdate(b *businesses.Business, newPair *businesses.StripeKeyPair, removePK *string) error
	deleteBusiness(b *businesses.Business) error
	// getPairForBusiness joins the key-pair relation against the business
	// relation, so orphaned pairs never resolve.
	getPairForBusiness(publicKey string) (*businesses.StripeKeyPair, error)
}

// Vault is the encrypted credential store. Secrets are sealed before they
// reach the underlying store and unsealed only on Resolve; plaintext never
// touches persistent storage and is never logged.
type Vault struct {
	store  store
	cipher *SecretCipher
}

func New(store store, cipher *SecretCipher) *Vault {
	return &Vault{store: store, cipher: cipher}
}

// Store creates a business with its credential. A zero businessID lets the
// database assign one.
func (v *Vault) Store(businessID uint, name string, cred businesses.Credential) error {
	if name == "" {
		return fmt.Errorf("%w: business name is required", ErrValidation)
	}
	if err := cred.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	ciphertext, err := v.cipher.Encrypt(cred.Secret)
	if err != nil {
		return err
	}

	b := &businesses.Business{ID: businessID, Name: name}
	var pair *businesses.StripeKeyPair
	switch cred.Mode {
	case businesses.ModeSingle:
		b.SecretCiphertext = ciphertext
	case businesses.ModeSplit:
		b.StripePublicKey = &cred.PublicKey
		pair = &businesses.StripeKeyPair{
			StripePublicKey:  cred.PublicKey,
			SecretCiphertext: ciphertext,
		}
	}

	return v.store.createBusiness(b, pair)
}

// Resolve returns the decrypted credential for a business. The secret is for
// server-side processor calls only and must not be serialized into any
// response.
func (v *Vault) Resolve(businessID uint) (businesses.Credential, error) {
	b, err := v.store.getBusiness(businessID)
	if err != nil {
		return businesses.Credential{}, err
	}

	if len(b.SecretCiphertext) > 0 {
		secret, err := v.cipher.Decrypt(b.SecretCiphertext)
		if err != nil {
			return businesses.Credential{}, err
		}
		return businesses.Single(secret), nil
	}

	if b.StripePublicKey != nil {
		pair, err := v.store.getPairForBusiness(*b.StripePublicKey)
		if err != nil {
			return businesses.Credential{}, err
		}
		secret, err := v.cipher.Decrypt(pair.SecretCiphertext)
		if err != nil {
			return businesses.Credential{}, err
		}
		return businesses.Split(*b.StripePublicKey, secret), nil
	}

	return businesses.Credential{}, ErrNotFound
}

// ResolveByPublicKey returns the decrypted secret paired with a circulating
// public key.
func (v *Vault) ResolveByPublicKey(publicKey string) (string, error) {
	pair, err := v.store.getPairForBusiness(publicKey)
	if err != nil {
		return "", err
	}
	return v.cipher.Decrypt(pair.SecretCiphertext)
}

// Update changes the business name, its credential, or both. With neither
// supplied it fails with ErrNoChangeRequested and performs no write. A new
// split credential is a rotation: the new pair is inserted and the old pair
// deleted, never edited in place.
func (v *Vault) Update(businessID uint, newName *string, newCred *businesses.Credential) error {
	if newName == nil && newCred == nil {
		return ErrNoChangeRequested
	}

	b, err := v.store.getBusiness(businessID)
	if err != nil {
		return err
	}

	if newName != nil {
		b.Name = *newName
	}

	var newPair *businesses.StripeKeyPair
	var removePK *string
	if newCred != nil {
		if err := newCred.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		ciphertext, err := v.cipher.Encrypt(newCred.Secret)
		if err != nil {
			return err
		}

		removePK = b.StripePublicKey
		if newCred.Mode == businesses.ModeSplit && removePK != nil && *removePK == newCred.PublicKey {
			return ErrPairImmutable
		}
		switch newCred.Mode {
		case businesses.ModeSingle:
			b.SecretCiphertext = ciphertext
			b.StripePublicKey = nil
		case businesses.ModeSplit:
			b.SecretCiphertext = nil
			b.StripePublicKey = &newCred.PublicKey
			newPair = &businesses.StripeKeyPair{
				StripePublicKey:  newCred.PublicKey,
				SecretCiphertext: ciphertext,
			}
		}
	}

	return v.store.applyUpdate(b, newPair, removePK)
}

// Rotate replaces a business's credential with a fresh one.
func (v *Vault) Rotate(businessID uint, newCred businesses.Credential) error {
	return v.Update(businessID, nil, &newCred)
}

// Remove deletes a business and its key pair, invalidating the credential.
func (v *Vault) Remove(businessID uint) error {
	b, err := v.store.getBusiness(businessID)
	if err != nil {
		return err
	}
	if err := v.store.deleteBusiness(b); err != nil {
		return fmt.Errorf("failed to delete business %d: %w", businessID, err)
	}
	return nil
}
