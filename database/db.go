package database

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB is the shared handle used by the middlewares; controllers receive an
// injected handle from Connect instead of importing this global.
var DB *gorm.DB

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Connect opens the store connection and returns the handle. TranslateError
// is enabled so unique violations surface as gorm.ErrDuplicatedKey, which the
// billing processor relies on for bill-number conflict detection.
func Connect() (*gorm.DB, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		env("DB_HOST", "localhost"),
		env("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		env("DB_NAME", "generalstore"),
		env("DB_PORT", "5432"),
		env("DB_SSLMODE", "disable"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	DB = db
	return db, nil
}
