package api_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/backend/internal/api"
	"github.com/plateful/backend/internal/testhelpers"
)

func TestRegisterEndpoint(t *testing.T) {
	e := setupAPI(t)

	payload := map[string]interface{}{
		"email":      "alice@example.com",
		"username":   "alice",
		"first_name": "Alice",
		"last_name":  "Cooper",
		"password":   "password123",
	}

	t.Run("success", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/users", "", payload)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var user api.UserResponse
		decodeJSON(t, w, &user)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.False(t, user.IsSubscribed)
	})

	t.Run("duplicate email", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/users", "", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/users", "", map[string]interface{}{
			"email": "bob@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/users", "", map[string]interface{}{
			"email":      "bob@example.com",
			"username":   "bob",
			"first_name": "Bob",
			"last_name":  "Smith",
			"password":   "short",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLoginAndLogoutEndpoints(t *testing.T) {
	e := setupAPI(t)
	e.registerUser(t, "alice@example.com", "alice")

	w := e.request(t, http.MethodPost, "/api/auth/token/login", "", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tokenResp api.TokenResponse
	decodeJSON(t, w, &tokenResp)
	require.NotEmpty(t, tokenResp.AuthToken)

	t.Run("wrong password", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/auth/token/login", "", map[string]interface{}{
			"email":    "alice@example.com",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("logout", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/auth/token/logout", tokenResp.AuthToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("logout without a token", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/auth/token/logout", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMeEndpoint(t *testing.T) {
	e := setupAPI(t)
	aliceID, token := e.registerUser(t, "alice@example.com", "alice")

	w := e.request(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var user api.UserResponse
	decodeJSON(t, w, &user)
	assert.Equal(t, aliceID, user.ID.String())

	w = e.request(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetUserEndpoint(t *testing.T) {
	e := setupAPI(t)
	aliceID, _ := e.registerUser(t, "alice@example.com", "alice")
	_, bobToken := e.registerUser(t, "bob@example.com", "bob")

	t.Run("anonymous", func(t *testing.T) {
		w := e.request(t, http.MethodGet, "/api/users/"+aliceID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var user api.UserResponse
		decodeJSON(t, w, &user)
		assert.Equal(t, "alice", user.Username)
		assert.False(t, user.IsSubscribed)
	})

	t.Run("subscribed viewer sees the flag", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/users/"+aliceID+"/subscribe", bobToken, nil)
		require.Equal(t, http.StatusCreated, w.Code)

		w = e.request(t, http.MethodGet, "/api/users/"+aliceID, bobToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var user api.UserResponse
		decodeJSON(t, w, &user)
		assert.True(t, user.IsSubscribed)
	})

	t.Run("unknown user", func(t *testing.T) {
		w := e.request(t, http.MethodGet, "/api/users/"+uuid.NewString(), "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSubscriptionEndpoints(t *testing.T) {
	e := setupAPI(t)
	aliceID, aliceToken := e.registerUser(t, "alice@example.com", "alice")
	_, bobToken := e.registerUser(t, "bob@example.com", "bob")

	tag, flour := seedCatalog(t, e)
	for _, name := range []string{"Pancakes", "Waffles", "Crepes", "Omelette"} {
		w := e.request(t, http.MethodPost, "/api/recipes", aliceToken, recipePayload(name, tag.ID, flour.ID))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	t.Run("subscribe returns enriched author", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/users/"+aliceID+"/subscribe", bobToken, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var author api.SubscriptionUserResponse
		decodeJSON(t, w, &author)
		assert.Equal(t, "alice", author.Username)
		assert.True(t, author.IsSubscribed)
		assert.EqualValues(t, 4, author.RecipesCount)
		assert.Len(t, author.Recipes, 3)
	})

	t.Run("self subscription fails", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/users/"+aliceID+"/subscribe", aliceToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate subscription fails", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/users/"+aliceID+"/subscribe", bobToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list honors recipes_limit", func(t *testing.T) {
		w := e.request(t, http.MethodGet, "/api/users/subscriptions?recipes_limit=2", bobToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var page struct {
			Count   int64                          `json:"count"`
			Results []api.SubscriptionUserResponse `json:"results"`
		}
		decodeJSON(t, w, &page)
		assert.EqualValues(t, 1, page.Count)
		require.Len(t, page.Results, 1)
		assert.Len(t, page.Results[0].Recipes, 2)
		assert.EqualValues(t, 4, page.Results[0].RecipesCount)
	})

	t.Run("unsubscribe", func(t *testing.T) {
		w := e.request(t, http.MethodDelete, "/api/users/"+aliceID+"/subscribe", bobToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = e.request(t, http.MethodDelete, "/api/users/"+aliceID+"/subscribe", bobToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown author is 404", func(t *testing.T) {
		w := e.request(t, http.MethodPost, "/api/users/"+uuid.NewString()+"/subscribe", bobToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListUsersEndpoint(t *testing.T) {
	e := setupAPI(t)
	e.registerUser(t, "alice@example.com", "alice")
	e.registerUser(t, "bob@example.com", "bob")

	w := e.request(t, http.MethodGet, "/api/users?limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Count   int64              `json:"count"`
		Next    *string            `json:"next"`
		Results []api.UserResponse `json:"results"`
	}
	decodeJSON(t, w, &page)
	assert.EqualValues(t, 2, page.Count)
	assert.Len(t, page.Results, 1)
	require.NotNil(t, page.Next)
}

func TestCatalogEndpoints(t *testing.T) {
	e := setupAPI(t)
	tag := testhelpers.CreateTestTag(t, e.db, "Breakfast", "#E26C2D", "breakfast")
	testhelpers.CreateTestIngredient(t, e.db, "flour", "g")
	testhelpers.CreateTestIngredient(t, e.db, "sugar", "g")

	t.Run("list tags", func(t *testing.T) {
		w := e.request(t, http.MethodGet, "/api/tags", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var tags []map[string]interface{}
		decodeJSON(t, w, &tags)
		require.Len(t, tags, 1)
		assert.Equal(t, "breakfast", tags[0]["slug"])
	})

	t.Run("get tag", func(t *testing.T) {
		w := e.request(t, http.MethodGet, "/api/tags/"+tag.ID.String(), "", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = e.request(t, http.MethodGet, "/api/tags/"+uuid.NewString(), "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("search ingredients", func(t *testing.T) {
		w := e.request(t, http.MethodGet, "/api/ingredients?name=fl", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var ingredients []map[string]interface{}
		decodeJSON(t, w, &ingredients)
		require.Len(t, ingredients, 1)
		assert.Equal(t, "flour", ingredients[0]["name"])
	})
}
