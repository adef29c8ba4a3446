package database

import (
	"log"
	"os"

	"generalstore-backend/models"

	"gorm.io/gorm"
)

// SeedOwner creates the initial owner account when the users table is empty,
// so a fresh deployment can log in. Credentials come from OWNER_USERNAME /
// OWNER_PASSWORD with development defaults.
func SeedOwner(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username := os.Getenv("OWNER_USERNAME")
	if username == "" {
		username = "owner"
	}
	password := os.Getenv("OWNER_PASSWORD")
	if password == "" {
		password = "changeme"
		log.Println("OWNER_PASSWORD not set, seeding owner with default password")
	}

	owner := models.User{
		Username: username,
		Name:     "Store Owner",
		Role:     models.RoleOwner,
	}
	owner.SetPassword(password)
	if err := db.Create(&owner).Error; err != nil {
		return err
	}
	log.Printf("seeded owner account %q", username)
	return nil
}
