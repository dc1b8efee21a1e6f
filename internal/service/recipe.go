package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/models"
)

// RecipeService handles recipe CRUD, membership toggles and the shopping
// list aggregation.
type RecipeService struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewRecipeService creates a new RecipeService instance.
func NewRecipeService(db *gorm.DB, cfg *config.Config) *RecipeService {
	return &RecipeService{db: db, cfg: cfg}
}

// IngredientAmount is one (ingredient, quantity) pair of a recipe payload.
type IngredientAmount struct {
	IngredientID uuid.UUID
	Amount       int
}

// RecipeInput carries a validated-at-the-edge recipe payload. The author is
// always injected from the authenticated caller, never from the payload.
type RecipeInput struct {
	Name        string
	ImageURL    string
	Text        string
	CookingTime int
	Ingredients []IngredientAmount
	TagIDs      []uuid.UUID
}

// RecipeUpdateInput allows partial updates of scalar fields. Ingredients and
// TagIDs must be supplied together or the update is rejected; when present
// the full child sets are replaced, not merged.
type RecipeUpdateInput struct {
	Name        *string
	ImageURL    *string
	Text        *string
	CookingTime *int
	Ingredients []IngredientAmount
	TagIDs      []uuid.UUID
}

func (s *RecipeService) validateIngredients(ctx context.Context, ingredients []IngredientAmount) error {
	if len(ingredients) == 0 {
		return validationErrorf("add at least one ingredient")
	}

	seen := make(map[uuid.UUID]bool, len(ingredients))
	ids := make([]uuid.UUID, 0, len(ingredients))
	for _, item := range ingredients {
		if seen[item.IngredientID] {
			return validationErrorf("duplicate ingredients are present")
		}
		seen[item.IngredientID] = true
		ids = append(ids, item.IngredientID)

		if item.Amount < s.cfg.MinIngredientAmount || item.Amount > s.cfg.MaxIngredientAmount {
			return validationErrorf(fmt.Sprintf(
				"ingredient amount must be between %d and %d",
				s.cfg.MinIngredientAmount, s.cfg.MaxIngredientAmount))
		}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).
		Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(ids) {
		return validationErrorf("the specified ingredient does not exist")
	}
	return nil
}

func (s *RecipeService) loadTags(ctx context.Context, tagIDs []uuid.UUID) ([]models.Tag, error) {
	if len(tagIDs) == 0 {
		return nil, validationErrorf("add at least one tag")
	}

	seen := make(map[uuid.UUID]bool, len(tagIDs))
	for _, id := range tagIDs {
		if seen[id] {
			return nil, validationErrorf("tags must be unique")
		}
		seen[id] = true
	}

	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, validationErrorf("the specified tag does not exist")
	}
	return tags, nil
}

func (s *RecipeService) validateCookingTime(cookingTime int) error {
	if cookingTime < s.cfg.MinCookingTime || cookingTime > s.cfg.MaxCookingTime {
		return validationErrorf(fmt.Sprintf(
			"cooking time must be between %d and %d minutes",
			s.cfg.MinCookingTime, s.cfg.MaxCookingTime))
	}
	return nil
}

// Create validates and persists a recipe, its tag set and ingredient links.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, input RecipeInput) (*models.Recipe, error) {
	if input.ImageURL == "" {
		return nil, validationErrorf("an image is required to create a recipe")
	}
	if err := s.validateCookingTime(input.CookingTime); err != nil {
		return nil, err
	}
	if err := s.validateIngredients(ctx, input.Ingredients); err != nil {
		return nil, err
	}
	tags, err := s.loadTags(ctx, input.TagIDs)
	if err != nil {
		return nil, err
	}

	var nameCount int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("name = ?", input.Name).Count(&nameCount).Error; err != nil {
		return nil, err
	}
	if nameCount > 0 {
		return nil, validationErrorf("a recipe with this name already exists")
	}

	recipe := models.Recipe{
		Name:        input.Name,
		ImageURL:    input.ImageURL,
		Text:        input.Text,
		CookingTime: input.CookingTime,
		AuthorID:    authorID,
		Tags:        tags,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		return createIngredientLinks(tx, recipe.ID, input.Ingredients)
	})
	if err != nil {
		// The unique index still covers soft-deleted rows, so a name that
		// belonged to a deleted recipe (or a concurrent insert racing past
		// the pre-check) lands here.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationErrorf("a recipe with this name already exists")
		}
		return nil, err
	}

	return s.Get(ctx, recipe.ID)
}

// createIngredientLinks batch-inserts the RecipeIngredient rows in one call.
func createIngredientLinks(tx *gorm.DB, recipeID uuid.UUID, ingredients []IngredientAmount) error {
	links := make([]models.RecipeIngredient, 0, len(ingredients))
	for _, item := range ingredients {
		links = append(links, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.IngredientID,
			Amount:       item.Amount,
		})
	}
	return tx.Create(&links).Error
}

// Get retrieves a recipe with its tags, ingredients and author.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		First(&recipe, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// Update applies a partial update. Child sets are replaced wholesale.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID uuid.UUID, input RecipeUpdateInput) (*models.Recipe, error) {
	recipe, err := s.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrForbidden
	}

	// Tags and ingredients travel together on update so a partial request
	// can never silently keep a stale child set.
	if input.Ingredients == nil || input.TagIDs == nil {
		return nil, validationErrorf("both tags and ingredients are required")
	}

	if input.CookingTime != nil {
		if err := s.validateCookingTime(*input.CookingTime); err != nil {
			return nil, err
		}
	}
	if err := s.validateIngredients(ctx, input.Ingredients); err != nil {
		return nil, err
	}
	tags, err := s.loadTags(ctx, input.TagIDs)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Text != nil {
		updates["text"] = *input.Text
	}
	if input.CookingTime != nil {
		updates["cooking_time"] = *input.CookingTime
	}
	if input.ImageURL != nil {
		if *input.ImageURL == "" {
			return nil, validationErrorf("image must not be empty")
		}
		updates["image_url"] = *input.ImageURL
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(recipe).Updates(updates).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return createIngredientLinks(tx, recipe.ID, input.Ingredients)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationErrorf("a recipe with this name already exists")
		}
		return nil, err
	}

	return s.Get(ctx, recipeID)
}

// Delete removes a recipe together with its ingredient links, tag links and
// any favorite or cart rows referencing it. Author-only.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID uuid.UUID) error {
	recipe, err := s.Get(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != userID {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.ShoppingCartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
}

// RecipeFilter holds the optional list filters. Favorited and InCart apply
// only when a viewer is present; for anonymous callers they are no-ops.
type RecipeFilter struct {
	AuthorID  *uuid.UUID
	TagSlugs  []string
	Favorited bool
	InCart    bool
}

// List returns a newest-first page of recipes plus the unpaged total.
func (s *RecipeService) List(ctx context.Context, viewerID *uuid.UUID, filter RecipeFilter, page, limit int) ([]models.Recipe, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Recipe{})

	if filter.AuthorID != nil {
		q = q.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		q = q.Where("recipes.id IN (?)", s.db.Model(&models.Tag{}).
			Select("recipe_tags.recipe_id").
			Joins("JOIN recipe_tags ON recipe_tags.tag_id = tags.id").
			Where("tags.slug IN ?", filter.TagSlugs))
	}
	if viewerID != nil {
		if filter.Favorited {
			q = q.Where("recipes.id IN (?)", s.db.Model(&models.Favorite{}).
				Select("recipe_id").Where("user_id = ?", *viewerID))
		}
		if filter.InCart {
			q = q.Where("recipes.id IN (?)", s.db.Model(&models.ShoppingCartItem{}).
				Select("recipe_id").Where("user_id = ?", *viewerID))
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := q.
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		Order("recipes.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// ListByAuthor returns up to limit newest recipes of an author. Used for the
// subscription payload enrichment.
func (s *RecipeService) ListByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]models.Recipe, error) {
	var recipes []models.Recipe
	q := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// CountByAuthor returns the total number of recipes an author has published.
func (s *RecipeService) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

// AddFavorite marks a recipe as a favorite of the user.
func (s *RecipeService) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	return s.addMembership(ctx, userID, recipeID, func(userID, recipeID uuid.UUID) interface{} {
		return &models.Favorite{UserID: userID, RecipeID: recipeID}
	})
}

// RemoveFavorite removes the favorite pair; ErrNotInList when absent.
func (s *RecipeService) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeMembership(ctx, userID, recipeID, &models.Favorite{})
}

// AddToCart queues a recipe in the user's shopping cart.
func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	return s.addMembership(ctx, userID, recipeID, func(userID, recipeID uuid.UUID) interface{} {
		return &models.ShoppingCartItem{UserID: userID, RecipeID: recipeID}
	})
}

// RemoveFromCart removes the cart pair; ErrNotInList when absent.
func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeMembership(ctx, userID, recipeID, &models.ShoppingCartItem{})
}

func (s *RecipeService) addMembership(ctx context.Context, userID, recipeID uuid.UUID, newRow func(userID, recipeID uuid.UUID) interface{}) (*models.Recipe, error) {
	recipe, err := s.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	row := newRow(userID, recipeID)
	var count int64
	if err := s.db.WithContext(ctx).Model(row).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyExists
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		// A concurrent insert of the same pair loses to the unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return recipe, nil
}

func (s *RecipeService) removeMembership(ctx context.Context, userID, recipeID uuid.UUID, model interface{}) error {
	if _, err := s.Get(ctx, recipeID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotInList
	}
	return nil
}

// ViewerFlags returns which of the given recipes the viewer has favorited
// and which are in their cart, in two queries.
func (s *RecipeService) ViewerFlags(ctx context.Context, viewerID uuid.UUID, recipeIDs []uuid.UUID) (favorited, inCart map[uuid.UUID]bool, err error) {
	favorited = make(map[uuid.UUID]bool)
	inCart = make(map[uuid.UUID]bool)
	if len(recipeIDs) == 0 {
		return favorited, inCart, nil
	}

	var favIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id IN ?", viewerID, recipeIDs).
		Pluck("recipe_id", &favIDs).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range favIDs {
		favorited[id] = true
	}

	var cartIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.ShoppingCartItem{}).
		Where("user_id = ? AND recipe_id IN ?", viewerID, recipeIDs).
		Pluck("recipe_id", &cartIDs).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range cartIDs {
		inCart[id] = true
	}

	return favorited, inCart, nil
}

// ShoppingListItem is one aggregated line of the shopping list.
type ShoppingListItem struct {
	Name            string
	MeasurementUnit string
	Total           int
}

// ShoppingList aggregates every ingredient of every recipe in the user's
// cart, summed per (name, measurement unit) and ordered by name.
func (s *RecipeService) ShoppingList(ctx context.Context, userID uuid.UUID) ([]ShoppingListItem, error) {
	var items []ShoppingListItem
	err := s.db.WithContext(ctx).Model(&models.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_cart_items.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// RenderShoppingList formats the aggregated list as a flat text document,
// one line per ingredient group.
func RenderShoppingList(items []ShoppingListItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "* %s %s - %d\n", item.Name, item.MeasurementUnit, item.Total)
	}
	return b.String()
}
