package platform

// Config is the process-wide platform configuration. Exactly one row exists
// (ConfigID); the store never writes any other ID.
type Config struct {
	ID uint `gorm:"primaryKey" json:"-"`

	// ServiceCut is the platform's fractional take of each sale, in [0,1).
	ServiceCut float64 `gorm:"not null" json:"service_cut"`
}

// ConfigID is the fixed primary key of the singleton row.
const ConfigID uint = 1
