package database

import (
	"fmt"
	"log"

	"storefront-app/internal/domain/businesses"
	"storefront-app/internal/domain/platform"
	"storefront-app/internal/settlement"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Init opens the database and migrates the schema. TranslateError lets the
// vault and settlement markers see unique violations as
// gorm.ErrDuplicatedKey instead of driver-specific errors.
func Init(dsn string) *gorm.DB {
	if dsn == "" {
		log.Fatal("❌ DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&businesses.Business{},
		&businesses.StripeKeyPair{},
		&platform.Config{},
		&settlement.SettledSession{},
	); err != nil {
		log.Fatal("❌ AutoMigrate error:", err)
	}

	// Seed the configuration singleton so the first settlement never races
	// an unconfigured service cut.
	if err := db.FirstOrCreate(&platform.Config{}, platform.Config{ID: platform.ConfigID}).Error; err != nil {
		log.Fatal("❌ Failed to seed platform config:", err)
	}

	fmt.Println("✅ Connected and migrated successfully")
	return db
}
