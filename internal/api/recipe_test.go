package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/backend/internal/api"
	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/testhelpers"
)

func seedCatalog(t *testing.T, e *testEnv) (*models.Tag, *models.Ingredient) {
	t.Helper()
	tag := testhelpers.CreateTestTag(t, e.db, "Breakfast", "#E26C2D", "breakfast")
	flour := testhelpers.CreateTestIngredient(t, e.db, "flour", "g")
	return tag, flour
}

func recipePayload(name string, tagID, ingredientID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"name":         name,
		"image":        testImageDataURI(),
		"text":         "Mix and fry.",
		"cooking_time": 20,
		"tags":         []uuid.UUID{tagID},
		"ingredients": []map[string]interface{}{
			{"id": ingredientID, "amount": 200},
		},
	}
}

func TestCreateAndGetRecipe(t *testing.T) {
	e := setupAPI(t)
	tag, flour := seedCatalog(t, e)
	_, token := e.registerUser(t, "alice@example.com", "alice")

	w := e.request(t, http.MethodPost, "/api/recipes", token, recipePayload("Pancakes", tag.ID, flour.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created api.RecipeResponse
	decodeJSON(t, w, &created)
	assert.Equal(t, "Pancakes", created.Name)
	assert.Equal(t, "alice", created.Author.Username)
	require.Len(t, created.Tags, 1)
	assert.Equal(t, "breakfast", created.Tags[0].Slug)
	require.Len(t, created.Ingredients, 1)
	assert.Equal(t, flour.ID, created.Ingredients[0].ID)
	assert.Equal(t, 200, created.Ingredients[0].Amount)
	assert.Contains(t, created.Image, "/media/recipe-images/")

	w = e.request(t, http.MethodGet, "/api/recipes/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched api.RecipeResponse
	decodeJSON(t, w, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Ingredients, fetched.Ingredients)
	assert.False(t, fetched.IsFavorited)
}

func TestCreateRecipeRequiresAuth(t *testing.T) {
	e := setupAPI(t)
	tag, flour := seedCatalog(t, e)

	w := e.request(t, http.MethodPost, "/api/recipes", "", recipePayload("Pancakes", tag.ID, flour.ID))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipeValidationErrors(t *testing.T) {
	e := setupAPI(t)
	tag, flour := seedCatalog(t, e)
	_, token := e.registerUser(t, "alice@example.com", "alice")

	t.Run("missing image", func(t *testing.T) {
		payload := recipePayload("No Image", tag.ID, flour.ID)
		payload["image"] = ""
		w := e.request(t, http.MethodPost, "/api/recipes", token, payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown tag", func(t *testing.T) {
		payload := recipePayload("Ghost Tag", uuid.New(), flour.ID)
		w := e.request(t, http.MethodPost, "/api/recipes", token, payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateRecipe(t *testing.T) {
	e := setupAPI(t)
	tag, flour := seedCatalog(t, e)
	_, token := e.registerUser(t, "alice@example.com", "alice")
	_, otherToken := e.registerUser(t, "bob@example.com", "bob")

	w := e.request(t, http.MethodPost, "/api/recipes", token, recipePayload("Pancakes", tag.ID, flour.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var created api.RecipeResponse
	decodeJSON(t, w, &created)

	update := map[string]interface{}{
		"name": "Thin Pancakes",
		"tags": []uuid.UUID{tag.ID},
		"ingredients": []map[string]interface{}{
			{"id": flour.ID, "amount": 150},
		},
	}

	t.Run("author updates", func(t *testing.T) {
		w := e.request(t, http.MethodPatch, "/api/recipes/"+created.ID.String(), token, update)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var updated api.RecipeResponse
		decodeJSON(t, w, &updated)
		assert.Equal(t, "Thin Pancakes", updated.Name)
		assert.Equal(t, 150, updated.Ingredients[0].Amount)
	})

	t.Run("non-author is forbidden", func(t *testing.T) {
		w := e.request(t, http.MethodPatch, "/api/recipes/"+created.ID.String(), otherToken, update)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("partial update without child sets fails", func(t *testing.T) {
		w := e.request(t, http.MethodPatch, "/api/recipes/"+created.ID.String(), token, map[string]interface{}{
			"name": "Just a Rename",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteRecipe(t *testing.T) {
	e := setupAPI(t)
	tag, flour := seedCatalog(t, e)
	_, token := e.registerUser(t, "alice@example.com", "alice")

	w := e.request(t, http.MethodPost, "/api/recipes", token, recipePayload("Pancakes", tag.ID, flour.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var created api.RecipeResponse
	decodeJSON(t, w, &created)

	w = e.request(t, http.MethodDelete, "/api/recipes/"+created.ID.String(), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.request(t, http.MethodGet, "/api/recipes/"+created.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRecipesFilters(t *testing.T) {
	e := setupAPI(t)
	tag, flour := seedCatalog(t, e)
	dinner := testhelpers.CreateTestTag(t, e.db, "Dinner", "#49B64E", "dinner")
	aliceID, token := e.registerUser(t, "alice@example.com", "alice")

	w := e.request(t, http.MethodPost, "/api/recipes", token, recipePayload("Pancakes", tag.ID, flour.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var pancakes api.RecipeResponse
	decodeJSON(t, w, &pancakes)

	w = e.request(t, http.MethodPost, "/api/recipes", token, recipePayload("Stew", dinner.ID, flour.ID))
	require.Equal(t, http.StatusCreated, w.Code)

	listCount := func(t *testing.T, path, token string) int64 {
		w := e.request(t, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var page api.PaginatedResponse
		decodeJSON(t, w, &page)
		return page.Count
	}

	t.Run("by tag", func(t *testing.T) {
		assert.EqualValues(t, 1, listCount(t, "/api/recipes?tags=breakfast", ""))
		assert.EqualValues(t, 2, listCount(t, "/api/recipes?tags=breakfast&tags=dinner", ""))
	})

	t.Run("by author", func(t *testing.T) {
		assert.EqualValues(t, 2, listCount(t, "/api/recipes?author="+aliceID, ""))
		assert.EqualValues(t, 0, listCount(t, "/api/recipes?author="+uuid.NewString(), ""))
	})

	t.Run("favorites need a viewer", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/recipes/"+pancakes.ID.String()+"/favorite", token, nil)
		require.Equal(t, http.StatusCreated, w.Code)

		assert.EqualValues(t, 1, listCount(t, "/api/recipes?is_favorited=1", token))
		assert.EqualValues(t, 2, listCount(t, "/api/recipes?is_favorited=1", ""))
	})

	t.Run("pagination envelope", func(t *testing.T) {
		w := e.request(t, http.MethodGet, "/api/recipes?limit=1", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var page api.PaginatedResponse
		decodeJSON(t, w, &page)
		assert.EqualValues(t, 2, page.Count)
		require.NotNil(t, page.Next)
		assert.Contains(t, *page.Next, "page=2")
		assert.Nil(t, page.Previous)
	})
}

func TestFavoriteEndpoints(t *testing.T) {
	e := setupAPI(t)
	tag, flour := seedCatalog(t, e)
	_, token := e.registerUser(t, "alice@example.com", "alice")

	w := e.request(t, http.MethodPost, "/api/recipes", token, recipePayload("Pancakes", tag.ID, flour.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var created api.RecipeResponse
	decodeJSON(t, w, &created)

	favoriteURL := "/api/recipes/" + created.ID.String() + "/favorite"

	t.Run("add returns the short payload", func(t *testing.T) {
		w := e.request(t, http.MethodPost, favoriteURL, token, nil)
		require.Equal(t, http.StatusCreated, w.Code)

		var short api.ShortRecipeResponse
		decodeJSON(t, w, &short)
		assert.Equal(t, created.ID, short.ID)
		assert.Equal(t, "Pancakes", short.Name)
	})

	t.Run("adding twice fails", func(t *testing.T) {
		w := e.request(t, http.MethodPost, favoriteURL, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("flag shows up for the viewer", func(t *testing.T) {
		w := e.request(t, http.MethodGet, "/api/recipes/"+created.ID.String(), token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var fetched api.RecipeResponse
		decodeJSON(t, w, &fetched)
		assert.True(t, fetched.IsFavorited)
	})

	t.Run("remove twice fails", func(t *testing.T) {
		w := e.request(t, http.MethodDelete, favoriteURL, token, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = e.request(t, http.MethodDelete, favoriteURL, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing recipe is 404", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/recipes/"+uuid.NewString()+"/favorite", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDownloadShoppingCart(t *testing.T) {
	e := setupAPI(t)
	tag, flour := seedCatalog(t, e)
	sugar := testhelpers.CreateTestIngredient(t, e.db, "sugar", "g")
	_, token := e.registerUser(t, "alice@example.com", "alice")

	payload := recipePayload("Pancakes", tag.ID, flour.ID)
	payload["ingredients"] = []map[string]interface{}{
		{"id": flour.ID, "amount": 200},
		{"id": sugar.ID, "amount": 50},
	}
	w := e.request(t, http.MethodPost, "/api/recipes", token, payload)
	require.Equal(t, http.StatusCreated, w.Code)
	var pancakes api.RecipeResponse
	decodeJSON(t, w, &pancakes)

	bread := recipePayload("Bread", tag.ID, flour.ID)
	bread["ingredients"] = []map[string]interface{}{
		{"id": flour.ID, "amount": 300},
	}
	w = e.request(t, http.MethodPost, "/api/recipes", token, bread)
	require.Equal(t, http.StatusCreated, w.Code)
	var loaf api.RecipeResponse
	decodeJSON(t, w, &loaf)

	for _, id := range []uuid.UUID{pancakes.ID, loaf.ID} {
		w = e.request(t, http.MethodPost, fmt.Sprintf("/api/recipes/%s/shopping_cart", id), token, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w = e.request(t, http.MethodGet, "/api/recipes/download_shopping_cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "shopping_cart.txt")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "* flour g - 500\n* sugar g - 50\n", w.Body.String())
}

func TestDownloadShoppingCartRequiresAuth(t *testing.T) {
	e := setupAPI(t)

	w := e.request(t, http.MethodGet, "/api/recipes/download_shopping_cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
