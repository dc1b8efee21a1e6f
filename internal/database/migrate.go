package database

import (
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/models"
)

// Migrate creates or updates the schema for every entity in the data model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.ShoppingCartItem{},
	)
}
