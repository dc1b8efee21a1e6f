package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/models"
)

// CatalogService serves the read-only tag and ingredient reference data.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new CatalogService instance.
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListTags returns all tags ordered by name. Unpaginated.
func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// GetTag retrieves a tag by ID.
func (s *CatalogService) GetTag(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// likeEscaper neutralizes LIKE wildcards so the query text matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchIngredients performs a case-insensitive prefix match on ingredient
// names. An empty query returns all ingredients. Unpaginated.
func (s *CatalogService) SearchIngredients(ctx context.Context, name string) ([]models.Ingredient, error) {
	q := s.db.WithContext(ctx).Order("name")
	if name != "" {
		prefix := likeEscaper.Replace(strings.ToLower(name))
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, prefix+"%")
	}

	var ingredients []models.Ingredient
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

// EnsureIngredient creates the (name, unit) ingredient if it does not exist.
// Used by the CSV import command.
func (s *CatalogService) EnsureIngredient(ctx context.Context, name, measurementUnit string) (*models.Ingredient, error) {
	ingredient := models.Ingredient{Name: name, MeasurementUnit: measurementUnit}
	err := s.db.WithContext(ctx).
		Where("name = ? AND measurement_unit = ?", name, measurementUnit).
		FirstOrCreate(&ingredient).Error
	if err != nil {
		return nil, err
	}
	return &ingredient, nil
}
