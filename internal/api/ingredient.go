package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plateful/backend/internal/service"
)

type IngredientHandler struct {
	catalogService *service.CatalogService
}

func NewIngredientHandler(catalogService *service.CatalogService) *IngredientHandler {
	return &IngredientHandler{catalogService: catalogService}
}

func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ingredients", h.SearchIngredients)
}

// SearchIngredients lists ingredients whose names start with the given
// prefix, case-insensitively. Without a query it returns the full catalog.
func (h *IngredientHandler) SearchIngredients(c *gin.Context) {
	ingredients, err := h.catalogService.SearchIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredients)
}
