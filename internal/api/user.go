package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/service"
)

type UserHandler struct {
	userService   *service.UserService
	recipeService *service.RecipeService
	authService   *service.AuthService
	cfg           *config.Config
}

func NewUserHandler(
	userService *service.UserService,
	recipeService *service.RecipeService,
	authService *service.AuthService,
	cfg *config.Config,
) *UserHandler {
	return &UserHandler{
		userService:   userService,
		recipeService: recipeService,
		authService:   authService,
		cfg:           cfg,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("", middleware.OptionalAuthMiddleware(h.authService), h.ListUsers)
		users.GET("/me", middleware.AuthMiddleware(h.authService), h.Me)
		users.GET("/subscriptions", middleware.AuthMiddleware(h.authService), h.ListSubscriptions)
		users.GET("/:id", middleware.OptionalAuthMiddleware(h.authService), h.GetUser)
		users.POST("/:id/subscribe", middleware.AuthMiddleware(h.authService), h.Subscribe)
		users.DELETE("/:id/subscribe", middleware.AuthMiddleware(h.authService), h.Unsubscribe)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(*user, false))
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	params := parsePageParams(c, h.cfg.PageSize)

	users, total, err := h.userService.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	subscribed := map[uuid.UUID]bool{}
	if viewerID, ok := middleware.CurrentUserID(c); ok {
		ids := make([]uuid.UUID, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		subscribed, err = h.userService.SubscribedAuthorIDs(c.Request.Context(), viewerID, ids)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	results := make([]UserResponse, 0, len(users))
	for _, u := range users {
		results = append(results, newUserResponse(u, subscribed[u.ID]))
	}

	c.JSON(http.StatusOK, newPaginatedResponse(c, total, params, results))
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	user, err := h.userService.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(*user, false))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	user, err := h.userService.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	isSubscribed := false
	if viewerID, ok := middleware.CurrentUserID(c); ok {
		isSubscribed, err = h.userService.IsSubscribed(c.Request.Context(), viewerID, user.ID)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, newUserResponse(*user, isSubscribed))
}

// recipesLimit caps how many recipes are embedded per author in
// subscription payloads.
func (h *UserHandler) recipesLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("recipes_limit", strconv.Itoa(h.cfg.RecipesLimit)))
	if err != nil || limit < 1 {
		return h.cfg.RecipesLimit
	}
	return limit
}

func (h *UserHandler) subscriptionResponse(c *gin.Context, author models.User, limit int) (*SubscriptionUserResponse, error) {
	recipes, err := h.recipeService.ListByAuthor(c.Request.Context(), author.ID, limit)
	if err != nil {
		return nil, err
	}
	count, err := h.recipeService.CountByAuthor(c.Request.Context(), author.ID)
	if err != nil {
		return nil, err
	}

	short := make([]ShortRecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		short = append(short, newShortRecipeResponse(r))
	}

	return &SubscriptionUserResponse{
		UserResponse: newUserResponse(author, true),
		Recipes:      short,
		RecipesCount: count,
	}, nil
}

func (h *UserHandler) ListSubscriptions(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	params := parsePageParams(c, h.cfg.PageSize)
	authors, total, err := h.userService.Subscriptions(c.Request.Context(), userID, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	limit := h.recipesLimit(c)
	results := make([]SubscriptionUserResponse, 0, len(authors))
	for _, author := range authors {
		resp, err := h.subscriptionResponse(c, author, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		results = append(results, *resp)
	}

	c.JSON(http.StatusOK, newPaginatedResponse(c, total, params, results))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	author, err := h.userService.Subscribe(c.Request.Context(), userID, authorID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.subscriptionResponse(c, *author, h.recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.userService.Unsubscribe(c.Request.Context(), userID, authorID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
