// internal/database/seed.go
package database

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
)

type seedProduct struct {
	name     string
	price    string
	stock    int
	category string
}

var seedProducts = []seedProduct{
	{name: "Laptop Gaming X", price: "15000000", stock: 10, category: "Elektronik"},
	{name: "Mouse Wireless", price: "250000", stock: 50, category: "Elektronik"},
	{name: "Kaos Polos Hitam", price: "75000", stock: 100, category: "Fashion"},
}

// SeedInitialData inserts demo users, categories and products. Existing rows
// are left untouched so the seed can run on every start.
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	users := []struct {
		name, email string
		role        models.UserRole
	}{
		{"Administrator", "admin@example.com", models.UserRoleAdmin},
		{"Budi Santoso", "user1@example.com", models.UserRoleUser},
		{"Siti Aminah", "user2@example.com", models.UserRoleUser},
	}
	for _, u := range users {
		var count int64
		db.Model(&models.User{}).Where("email = ?", u.email).Count(&count)
		if count > 0 {
			continue
		}
		user := &models.User{Name: u.name, Email: u.email, Role: u.role}
		if err := user.SetPassword("Password123"); err != nil {
			return fmt.Errorf("failed to set password for %s: %w", u.email, err)
		}
		if err := db.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", u.email, err)
		}
	}

	categories := make(map[string]models.Category)
	for _, name := range []string{"Elektronik", "Fashion"} {
		var category models.Category
		if err := db.Where("name = ?", name).FirstOrCreate(&category, models.Category{Name: name}).Error; err != nil {
			return fmt.Errorf("failed to create category %s: %w", name, err)
		}
		categories[name] = category
	}

	for _, p := range seedProducts {
		var count int64
		db.Model(&models.Product{}).Where("name = ?", p.name).Count(&count)
		if count > 0 {
			continue
		}
		categoryID := categories[p.category].ID
		product := &models.Product{
			Name:       p.name,
			Price:      decimal.RequireFromString(p.price),
			Stock:      p.stock,
			CategoryID: &categoryID,
		}
		if err := db.Create(product).Error; err != nil {
			logrus.WithError(err).WithField("product", p.name).Warn("Failed to seed product")
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}
