package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/api"
	"github.com/plateful/backend/internal/router"
	"github.com/plateful/backend/internal/service"
	"github.com/plateful/backend/internal/testhelpers"
)

type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	auth    *service.AuthService
	recipes *service.RecipeService
	users   *service.UserService
}

func setupAPI(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDB(t)
	cfg := testhelpers.TestConfig()

	authService := service.NewAuthService(db, cfg.JWTSecret, nil)
	userService := service.NewUserService(db)
	recipeService := service.NewRecipeService(db, cfg)
	catalogService := service.NewCatalogService(db)
	imageStore := service.NewLocalImageStore(t.TempDir(), "/media")

	handlers := router.Handlers{
		Auth:       api.NewAuthHandler(authService),
		User:       api.NewUserHandler(userService, recipeService, authService, cfg),
		Recipe:     api.NewRecipeHandler(recipeService, userService, authService, imageStore, nil, cfg),
		Tag:        api.NewTagHandler(catalogService),
		Ingredient: api.NewIngredientHandler(catalogService),
	}

	return &testEnv{
		router:  router.SetupRouter(db, handlers),
		db:      db,
		auth:    authService,
		recipes: recipeService,
		users:   userService,
	}
}

// request performs an HTTP request against the test router. A non-empty token
// is sent as a bearer token; a non-nil body is JSON-encoded.
func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

// registerUser creates a user through the auth service and returns the user
// ID together with a valid token.
func (e *testEnv) registerUser(t *testing.T, email, username string) (string, string) {
	t.Helper()

	user, err := e.auth.Register(context.Background(), service.RegisterInput{
		Email:     email,
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "password123",
	})
	require.NoError(t, err)

	token, err := e.auth.GenerateToken(user.ID)
	require.NoError(t, err)

	return user.ID.String(), token
}

func testImageDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake png bytes"))
}
