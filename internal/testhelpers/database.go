package testhelpers

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/database"
	"github.com/plateful/backend/internal/models"
)

// SetupTestDB opens a fresh in-memory SQLite database for a test. Each test
// gets its own database, keyed by the test name, so parallel tests do not
// share state.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// TestConfig returns a config with defaults suitable for unit tests.
func TestConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-jwt-secret",
		MinCookingTime:      1,
		MaxCookingTime:      32000,
		MinIngredientAmount: 1,
		MaxIngredientAmount: 32000,
		PageSize:            6,
		RecipesLimit:        3,
	}
}

// CreateTestUser inserts a user with a bcrypt-hashed password.
func CreateTestUser(t *testing.T, db *gorm.DB, email, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTag inserts a tag with a color and slug derived from the name.
func CreateTestTag(t *testing.T, db *gorm.DB, name, color, slug string) *models.Tag {
	t.Helper()

	tag := &models.Tag{Name: name, Color: color, Slug: slug}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}
	return tag
}

// CreateTestIngredient inserts an ingredient.
func CreateTestIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()

	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ingredient).Error; err != nil {
		t.Fatalf("failed to create test ingredient: %v", err)
	}
	return ingredient
}

// CreateTestRecipe inserts a recipe with the given tags and one ingredient
// link per entry in amounts.
func CreateTestRecipe(t *testing.T, db *gorm.DB, authorID uuid.UUID, name string, tags []models.Tag, amounts map[uuid.UUID]int) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		Name:        name,
		ImageURL:    "https://example.com/" + strings.ReplaceAll(name, " ", "-") + ".png",
		Text:        "Instructions for " + name,
		CookingTime: 30,
		AuthorID:    authorID,
		Tags:        tags,
	}
	if err := db.Create(recipe).Error; err != nil {
		t.Fatalf("failed to create test recipe: %v", err)
	}

	for ingredientID, amount := range amounts {
		link := &models.RecipeIngredient{
			RecipeID:     recipe.ID,
			IngredientID: ingredientID,
			Amount:       amount,
		}
		if err := db.Create(link).Error; err != nil {
			t.Fatalf("failed to link ingredient: %v", err)
		}
	}
	return recipe
}
