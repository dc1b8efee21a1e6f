package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/service"
)

type RecipeHandler struct {
	recipeService *service.RecipeService
	userService   *service.UserService
	authService   *service.AuthService
	imageStore    service.ImageStore
	rateLimiter   *middleware.RateLimiter
	cfg           *config.Config
}

func NewRecipeHandler(
	recipeService *service.RecipeService,
	userService *service.UserService,
	authService *service.AuthService,
	imageStore service.ImageStore,
	rateLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		userService:   userService,
		authService:   authService,
		imageStore:    imageStore,
		rateLimiter:   rateLimiter,
		cfg:           cfg,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", middleware.OptionalAuthMiddleware(h.authService), h.ListRecipes)
		recipes.GET("/download_shopping_cart", middleware.AuthMiddleware(h.authService), h.DownloadShoppingCart)
		recipes.GET("/:id", middleware.OptionalAuthMiddleware(h.authService), h.GetRecipe)

		create := []gin.HandlerFunc{middleware.AuthMiddleware(h.authService)}
		if h.rateLimiter != nil {
			create = append(create, h.rateLimiter.RateLimitMiddleware())
		}
		recipes.POST("", append(create, h.CreateRecipe)...)

		recipes.PATCH("/:id", middleware.AuthMiddleware(h.authService), h.UpdateRecipe)
		recipes.DELETE("/:id", middleware.AuthMiddleware(h.authService), h.DeleteRecipe)
		recipes.POST("/:id/favorite", middleware.AuthMiddleware(h.authService), h.AddFavorite)
		recipes.DELETE("/:id/favorite", middleware.AuthMiddleware(h.authService), h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", middleware.AuthMiddleware(h.authService), h.AddToShoppingCart)
		recipes.DELETE("/:id/shopping_cart", middleware.AuthMiddleware(h.authService), h.RemoveFromShoppingCart)
	}
}

// parseBoolFilter accepts the usual boolean spellings ("1", "true", ...).
func parseBoolFilter(value string) bool {
	b, err := strconv.ParseBool(value)
	return err == nil && b
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var filter service.RecipeFilter

	if author := c.Query("author"); author != "" {
		authorID, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id"})
			return
		}
		filter.AuthorID = &authorID
	}
	filter.TagSlugs = c.QueryArray("tags")
	filter.Favorited = parseBoolFilter(c.Query("is_favorited"))
	filter.InCart = parseBoolFilter(c.Query("is_in_shopping_cart"))

	var viewerID *uuid.UUID
	if id, ok := middleware.CurrentUserID(c); ok {
		viewerID = &id
	}

	params := parsePageParams(c, h.cfg.PageSize)
	recipes, total, err := h.recipeService.List(c.Request.Context(), viewerID, filter, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	results, err := h.serializeRecipes(c, viewerID, recipes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPaginatedResponse(c, total, params, results))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	recipe, err := h.recipeService.Get(c.Request.Context(), recipeID)
	if err != nil {
		respondError(c, err)
		return
	}

	var viewerID *uuid.UUID
	if id, ok := middleware.CurrentUserID(c); ok {
		viewerID = &id
	}

	results, err := h.serializeRecipes(c, viewerID, []models.Recipe{*recipe})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, results[0])
}

// resolveImage turns the payload image into a stored URL. Base64 data URIs
// are decoded and persisted; http(s) URLs pass through unchanged.
func (h *RecipeHandler) resolveImage(c *gin.Context, image string) (string, bool) {
	if image == "" || strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image, true
	}

	data, contentType, err := service.DecodeBase64Image(image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}

	url, err := h.imageStore.Save(c.Request.Context(), data, contentType)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return url, true
}

func ingredientAmounts(items []IngredientAmountRequest) []service.IngredientAmount {
	if items == nil {
		return nil
	}
	amounts := make([]service.IngredientAmount, 0, len(items))
	for _, item := range items {
		amounts = append(amounts, service.IngredientAmount{
			IngredientID: item.ID,
			Amount:       item.Amount,
		})
	}
	return amounts
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	imageURL, ok := h.resolveImage(c, req.Image)
	if !ok {
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), userID, service.RecipeInput{
		Name:        req.Name,
		ImageURL:    imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Ingredients: ingredientAmounts(req.Ingredients),
		TagIDs:      req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	results, err := h.serializeRecipes(c, &userID, []models.Recipe{*recipe})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, results[0])
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var req UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	input := service.RecipeUpdateInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Ingredients: ingredientAmounts(req.Ingredients),
		TagIDs:      req.Tags,
	}
	if req.Image != nil {
		imageURL, ok := h.resolveImage(c, *req.Image)
		if !ok {
			return
		}
		input.ImageURL = &imageURL
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), userID, recipeID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	results, err := h.serializeRecipes(c, &userID, []models.Recipe{*recipe})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, results[0])
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.recipeService.Delete(c.Request.Context(), userID, recipeID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addMembership(c, h.recipeService.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeMembership(c, h.recipeService.RemoveFavorite)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	h.addMembership(c, h.recipeService.AddToCart)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	h.removeMembership(c, h.recipeService.RemoveFromCart)
}

// addMembership handles the shared favorite/shopping-cart POST flow:
// resolve the recipe, add the row, respond with the short recipe payload.
func (h *RecipeHandler) addMembership(c *gin.Context, add func(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error)) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipe, err := add(c.Request.Context(), userID, recipeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newShortRecipeResponse(*recipe))
}

func (h *RecipeHandler) removeMembership(c *gin.Context, remove func(ctx context.Context, userID, recipeID uuid.UUID) error) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := remove(c.Request.Context(), userID, recipeID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	items, err := h.recipeService.ShoppingList(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	content := service.RenderShoppingList(items)
	c.Header("Content-Disposition", `attachment; filename="shopping_cart.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}

// serializeRecipes builds recipe responses with the per-viewer flags
// resolved in a constant number of queries.
func (h *RecipeHandler) serializeRecipes(c *gin.Context, viewerID *uuid.UUID, recipes []models.Recipe) ([]RecipeResponse, error) {
	recipeIDs := make([]uuid.UUID, 0, len(recipes))
	authorIDs := make([]uuid.UUID, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited := map[uuid.UUID]bool{}
	inCart := map[uuid.UUID]bool{}
	subscribed := map[uuid.UUID]bool{}
	if viewerID != nil {
		var err error
		favorited, inCart, err = h.recipeService.ViewerFlags(c.Request.Context(), *viewerID, recipeIDs)
		if err != nil {
			return nil, err
		}
		subscribed, err = h.userService.SubscribedAuthorIDs(c.Request.Context(), *viewerID, authorIDs)
		if err != nil {
			return nil, err
		}
	}

	results := make([]RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		author := newUserResponse(r.Author, subscribed[r.AuthorID])
		results = append(results, newRecipeResponse(r, author, favorited[r.ID], inCart[r.ID]))
	}
	return results, nil
}
