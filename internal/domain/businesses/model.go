package businesses

import (
	"errors"
	"time"
)

// CredentialMode tags which key layout a business uses.
type CredentialMode string

const (
	// ModeSingle stores one restricted/secret key directly on the business row.
	ModeSingle CredentialMode = "single"
	// ModeSplit pairs a public key on the business row with a secret held in
	// a separate relation.
	ModeSplit CredentialMode = "split"
)

// Credential is the unified view over both key layouts. Secret holds the
// plaintext processor key and only ever lives in memory; the vault encrypts
// it before anything is persisted.
type Credential struct {
	Mode      CredentialMode
	PublicKey string
	Secret    string
}

func Single(secret string) Credential {
	return Credential{Mode: ModeSingle, Secret: secret}
}

func Split(publicKey, secret string) Credential {
	return Credential{Mode: ModeSplit, PublicKey: publicKey, Secret: secret}
}

func (c Credential) Validate() error {
	if c.Secret == "" {
		return errors.New("credential secret is required")
	}
	switch c.Mode {
	case ModeSingle:
		return nil
	case ModeSplit:
		if c.PublicKey == "" {
			return errors.New("split credential requires a public key")
		}
		return nil
	default:
		return errors.New("unknown credential mode")
	}
}

type Business struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"not null"`

	// Split-key mode: points at the StripeKeyPair relation.
	StripePublicKey *string `gorm:"column:stripe_pk;uniqueIndex:idx_businesses_stripe_pk"`

	// Single-key mode: ciphertext of the secret key, sealed by the vault.
	SecretCiphertext []byte `gorm:"column:stripe_sk_enc"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StripeKeyPair is the split-key secret relation. Rows are immutable once
// created: rotation inserts a new pair and deletes the old one, so a public
// key in circulation always resolves to exactly one valid secret.
type StripeKeyPair struct {
	StripePublicKey  string `gorm:"column:stripe_pk;primaryKey"`
	SecretCiphertext []byte `gorm:"column:stripe_sk_enc;not null"`
	CreatedAt        time.Time
}
