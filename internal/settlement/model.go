package settlement

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// SettledSession is the idempotency marker for webhook redelivery: one row
// per checkout session that has entered settlement. The primary key makes a
// second delivery of the same session a no-op instead of a double payout.
type SettledSession struct {
	SessionID string `gorm:"primaryKey;column:session_id"`
	SettledAt time.Time
}

// GormMarkers persists settlement markers in postgres.
type GormMarkers struct {
	db *gorm.DB
}

func NewGormMarkers(db *gorm.DB) *GormMarkers {
	return &GormMarkers{db: db}
}

func (m *GormMarkers) MarkSettled(sessionID string) error {
	err := m.db.Create(&SettledSession{SessionID: sessionID, SettledAt: time.Now()}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadySettled
	}
	return err
}
