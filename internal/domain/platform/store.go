package platform

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var ErrInvalidServiceCut = errors.New("service_cut must be in [0, 1)")

// Store reads and updates the configuration singleton. The service cut is
// read fresh on every settlement, so an admin update takes effect on the
// next webhook without a restart.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Read() (*Config, error) {
	var cfg Config
	if err := s.db.First(&cfg, ConfigID).Error; err != nil {
		return nil, fmt.Errorf("failed to read platform config: %w", err)
	}
	return &cfg, nil
}

func (s *Store) ServiceCut() (float64, error) {
	cfg, err := s.Read()
	if err != nil {
		return 0, err
	}
	return cfg.ServiceCut, nil
}

func (s *Store) Update(serviceCut float64) error {
	if err := ValidateServiceCut(serviceCut); err != nil {
		return err
	}
	res := s.db.Model(&Config{}).Where("id = ?", ConfigID).Update("service_cut", serviceCut)
	if res.Error != nil {
		return fmt.Errorf("failed to update platform config: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return s.db.Create(&Config{ID: ConfigID, ServiceCut: serviceCut}).Error
	}
	return nil
}

func ValidateServiceCut(cut float64) error {
	if cut < 0 || cut >= 1 {
		return ErrInvalidServiceCut
	}
	return nil
}
