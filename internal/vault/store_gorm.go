package vault

import (
	"errors"

	"storefront-app/internal/domain/businesses"

	"gorm.io/gorm"
)

// gormStore backs the vault with postgres. database.Init opens gorm with
// TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore wires the vault persistence onto an injected gorm handle.
func NewGormStore(db *gorm.DB) *gormStore {
	return &gormStore{db: db}
}

func (s *gormStore) createBusiness(b *businesses.Business, pair *businesses.StripeKeyPair) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if pair != nil {
			if err := tx.Create(pair).Error; err != nil {
				return err
			}
		}
		return tx.Create(b).Error
	})
	return translate(err)
}

func (s *gormStore) getBusiness(id uint) (*businesses.Business, error) {
	var b businesses.Business
	if err := s.db.First(&b, id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *gormStore) applyUpdate(b *businesses.Business, newPair *businesses.StripeKeyPair, removePK *string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if newPair != nil {
			if err := tx.Create(newPair).Error; err != nil {
				return err
			}
		}
		// Save with explicit Select so nil key columns are written out,
		// not skipped.
		if err := tx.Model(b).Select("Name", "StripePublicKey", "SecretCiphertext").Updates(b).Error; err != nil {
			return err
		}
		if removePK != nil {
			if err := tx.Delete(&businesses.StripeKeyPair{StripePublicKey: *removePK}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err)
}

func (s *gormStore) deleteBusiness(b *businesses.Business) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if b.StripePublicKey != nil {
			if err := tx.Delete(&businesses.StripeKeyPair{StripePublicKey: *b.StripePublicKey}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&businesses.Business{}, b.ID).Error
	})
	return translate(err)
}

func (s *gormStore) getPairForBusiness(publicKey string) (*businesses.StripeKeyPair, error) {
	var pair businesses.StripeKeyPair
	err := s.db.
		Joins("JOIN businesses ON businesses.stripe_pk = stripe_key_pairs.stripe_pk").
		Where("stripe_key_pairs.stripe_pk = ?", publicKey).
		First(&pair).Error
	if err != nil {
		return nil, translate(err)
	}
	return &pair, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return err
	}
}
