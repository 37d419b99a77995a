package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ready2cook/backend/config"
	"github.com/ready2cook/backend/internal/domain"
	"github.com/ready2cook/backend/internal/infrastructure/cache"
	"github.com/ready2cook/backend/internal/infrastructure/imagestore"
	"github.com/ready2cook/backend/internal/infrastructure/kvstore"
	"github.com/ready2cook/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockRecipeAPIClient is a mock implementation of domain.RecipeAPIClient
type mockRecipeAPIClient struct {
	mu          sync.Mutex
	matches     []domain.APIRecipeMatch
	searchError error
	info        map[domain.RecipeID]*domain.APIRecipeInformation
	infoError   error
	searchCalls int
}

func newMockRecipeAPIClient() *mockRecipeAPIClient {
	return &mockRecipeAPIClient{info: make(map[domain.RecipeID]*domain.APIRecipeInformation)}
}

func (m *mockRecipeAPIClient) SearchByIngredients(ctx context.Context, ingredients string, limit int) ([]domain.APIRecipeMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	if m.searchError != nil {
		return nil, m.searchError
	}
	return m.matches, nil
}

func (m *mockRecipeAPIClient) GetRecipeInformation(ctx context.Context, id domain.RecipeID) (*domain.APIRecipeInformation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.infoError != nil {
		return nil, m.infoError
	}
	if info, ok := m.info[id]; ok {
		return info, nil
	}
	return nil, domain.ErrRecipeNotFound
}

// brokenStore fails every operation
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, error) { return "", errors.New("io error") }
func (brokenStore) Set(context.Context, string, string) error   { return errors.New("io error") }
func (brokenStore) Remove(context.Context, string) error        { return errors.New("io error") }

type testEnv struct {
	router    *gin.Engine
	client    *mockRecipeAPIClient
	store     domain.KeyValueStore
	imageDir  string
	uploadDir string
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*", "https://app.ready2cook.example"},
			MaxUploadBytes: 1 << 20,
		},
		RateLimit: config.RateLimitConfig{PerIP: 1000},
	}
}

func newTestEnv(t *testing.T, store domain.KeyValueStore) *testEnv {
	t.Helper()
	if store == nil {
		store = kvstore.NewMemoryStore()
	}

	imageDir := filepath.Join(t.TempDir(), "images")
	images, err := imagestore.NewLocalStore(imageDir)
	require.NoError(t, err)
	uploadDir := filepath.Join(t.TempDir(), "uploads")

	client := newMockRecipeAPIClient()
	search := usecase.NewRecipeSearchService(cache.NewMemorySearchCache(), client, usecase.SearchServiceConfig{}, nil)
	favorites := usecase.NewFavoritesService(store, "", nil)
	recipes := usecase.NewUserRecipeService(store, "", images, nil)

	cfg := testConfig()
	handler := NewHandler(search, favorites, recipes, HandlerConfig{
		UploadDir:      uploadDir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}, nil)

	return &testEnv{
		router:    SetupRouter(cfg, handler, nil),
		client:    client,
		store:     store,
		imageDir:  images.Dir(),
		uploadDir: uploadDir,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}

// recipeForm builds a multipart create request. An empty imageName skips the file part.
func recipeForm(t *testing.T, fields map[string]string, imageName string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if imageName != "" {
		part, err := mw.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/my-recipes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func validForm() map[string]string {
	return map[string]string{
		"title":        "Pancakes",
		"ingredients":  "egg\nflour\nmilk",
		"instructions": "Mix.\nFry.",
		"cookingTime":  "20",
		"servings":     "4",
	}
}

func TestHealthCheckEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	decode(t, w, &response)
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "ready2cook-backend", response["service"])

	for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
		w := env.do(t, method, "/health", "")
		assert.Equal(t, http.StatusNotFound, w.Code, "method %s", method)
	}
}

func TestSearchEndpoint(t *testing.T) {
	t.Run("returns enriched results then serves from cache", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.client.matches = []domain.APIRecipeMatch{{ID: "716429", Title: "Pasta", UsedIngredientCount: 2}}
		env.client.info["716429"] = &domain.APIRecipeInformation{ID: "716429", ReadyInMinutes: 45, Vegetarian: true}

		w := env.do(t, http.MethodGet, "/api/v1/recipes/search?ingredients=garlic,pasta", "")
		require.Equal(t, http.StatusOK, w.Code)

		var first domain.SearchResult
		decode(t, w, &first)
		require.Len(t, first.Recipes, 1)
		assert.Equal(t, "garlic,pasta", first.Query)
		assert.False(t, first.FromCache)
		require.NotNil(t, first.Recipes[0].CookingTimeMinutes)
		assert.Equal(t, 45, *first.Recipes[0].CookingTimeMinutes)

		w = env.do(t, http.MethodGet, "/api/v1/recipes/search?ingredients=garlic,pasta", "")
		var second domain.SearchResult
		decode(t, w, &second)
		assert.True(t, second.FromCache)
		assert.Equal(t, 1, env.client.searchCalls)
	})

	t.Run("empty query does nothing", func(t *testing.T) {
		env := newTestEnv(t, nil)

		w := env.do(t, http.MethodGet, "/api/v1/recipes/search", "")

		require.Equal(t, http.StatusOK, w.Code)
		var result domain.SearchResult
		decode(t, w, &result)
		assert.Empty(t, result.Recipes)
		assert.Zero(t, env.client.searchCalls)
	})

	t.Run("remote failure degrades softly", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.client.searchError = domain.ErrRecipeAPIFailure

		w := env.do(t, http.MethodGet, "/api/v1/recipes/search?ingredients=egg", "")

		require.Equal(t, http.StatusOK, w.Code)
		var result domain.SearchResult
		decode(t, w, &result)
		assert.True(t, result.Degraded)
		assert.NotNil(t, result.Recipes)
		assert.Empty(t, result.Recipes)
	})
}

func TestRecipeDetailsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.client.info["42"] = &domain.APIRecipeInformation{
		ID:                  "42",
		Title:               "Pancakes",
		Servings:            2,
		ExtendedIngredients: []domain.APIIngredient{{Name: "egg", Original: "2 eggs"}},
		Instructions:        "<p>Whisk.</p>",
	}

	w := env.do(t, http.MethodGet, "/api/v1/recipes/42", "")
	require.Equal(t, http.StatusOK, w.Code)
	var details domain.RecipeDetails
	decode(t, w, &details)
	assert.Equal(t, "Pancakes", details.Title)
	assert.Equal(t, "<p>Whisk.</p>", details.Instructions)
	require.Len(t, details.Ingredients, 1)
	assert.Equal(t, "2 eggs", details.Ingredients[0].Original)

	w = env.do(t, http.MethodGet, "/api/v1/recipes/404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.client.infoError = domain.ErrRecipeAPIFailure
	w = env.do(t, http.MethodGet, "/api/v1/recipes/42", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), msgDetailsLoad)
}

func TestFavoritesEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	recipe := `{"id":123,"title":"Chicken Fried Rice","image":"rice.jpg","usedIngredientCount":2,"missedIngredientCount":1}`

	w := env.do(t, http.MethodPost, "/api/v1/favorites/toggle", recipe)
	require.Equal(t, http.StatusOK, w.Code)
	var toggled map[string]interface{}
	decode(t, w, &toggled)
	assert.Equal(t, true, toggled["liked"])

	w = env.do(t, http.MethodPost, "/api/v1/favorites", recipe)
	require.Equal(t, http.StatusOK, w.Code)

	var state map[string]interface{}
	w = env.do(t, http.MethodGet, "/api/v1/favorites/123", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &state)
	assert.Equal(t, true, state["liked"])
	assert.Equal(t, "123", state["id"])

	w = env.do(t, http.MethodGet, "/api/v1/favorites/456", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &state)
	assert.Equal(t, false, state["liked"])

	w = env.do(t, http.MethodGet, "/api/v1/favorites", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Recipes []domain.RecipeSummary `json:"recipes"`
		Dropped int                    `json:"dropped"`
	}
	decode(t, w, &list)
	require.Len(t, list.Recipes, 1)
	assert.Equal(t, domain.RecipeID("123"), list.Recipes[0].ID)

	w = env.do(t, http.MethodPost, "/api/v1/favorites/toggle", recipe)
	decode(t, w, &toggled)
	assert.Equal(t, false, toggled["liked"])

	w = env.do(t, http.MethodPost, "/api/v1/favorites", recipe)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, "/api/v1/favorites/123", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodDelete, "/api/v1/favorites/123", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/favorites", "")
	decode(t, w, &list)
	assert.Empty(t, list.Recipes)
}

func TestFavoritesEndpoints_BadInput(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/v1/favorites", `{"title":"no id"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/favorites/toggle", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFavoritesEndpoints_StorageFailure(t *testing.T) {
	env := newTestEnv(t, brokenStore{})

	w := env.do(t, http.MethodGet, "/api/v1/favorites", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), msgFavoritesLoad)

	w = env.do(t, http.MethodGet, "/api/v1/favorites/1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), msgFavoritesLoad)

	w = env.do(t, http.MethodPost, "/api/v1/favorites", `{"id":1,"title":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), msgFavoritesSave)
}

func TestMyRecipesEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	req := recipeForm(t, validForm(), "IMG_0001.jpg", []byte("jpeg-bytes"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		domain.UserRecipe
		InstructionsHTML string `json:"instructionsHtml"`
	}
	decode(t, w, &created)
	assert.Equal(t, []string{"egg", "flour", "milk"}, created.Ingredients)
	assert.Equal(t, "<p>Mix.<br/>Fry.</p>", created.InstructionsHTML)
	assert.Equal(t, filepath.Join(env.imageDir, "IMG_0001.jpg"), created.Image)

	data, err := os.ReadFile(created.Image)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	leftovers, _ := os.ReadDir(env.uploadDir)
	assert.Empty(t, leftovers, "per-request upload dirs must be cleaned up")

	w = env.do(t, http.MethodGet, "/api/v1/my-recipes/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"instructionsHtml"`)

	w = env.do(t, http.MethodGet, "/api/v1/my-recipes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Recipes []domain.UserRecipe `json:"recipes"`
	}
	decode(t, w, &list)
	require.Len(t, list.Recipes, 1)

	w = env.do(t, http.MethodDelete, "/api/v1/my-recipes/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/my-recipes/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, err = os.Stat(created.Image)
	assert.True(t, os.IsNotExist(err), "image should be removed with its recipe")
}

func TestCreateMyRecipe_Validation(t *testing.T) {
	t.Run("missing image", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, recipeForm(t, validForm(), "", nil))

		require.Equal(t, http.StatusBadRequest, w.Code)
		var body struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		decode(t, w, &body)
		assert.Contains(t, body.Fields, "imagePath")
		assert.Contains(t, body.Error, "please fill in all fields")
	})

	t.Run("missing title does not persist", func(t *testing.T) {
		env := newTestEnv(t, nil)
		fields := validForm()
		delete(fields, "title")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, recipeForm(t, fields, "a.jpg", []byte("x")))

		require.Equal(t, http.StatusBadRequest, w.Code)
		_, err := env.store.Get(context.Background(), usecase.DefaultRecipesKey)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
		entries, _ := os.ReadDir(env.imageDir)
		assert.Empty(t, entries)
	})

	t.Run("json image path is ignored", func(t *testing.T) {
		env := newTestEnv(t, nil)
		victim := filepath.Join(t.TempDir(), "secret.txt")
		require.NoError(t, os.WriteFile(victim, []byte("keep me"), 0o644))

		body, _ := json.Marshal(map[string]string{
			"title": "t", "ingredients": "i", "instructions": "s",
			"cookingTime": "1", "servings": "1", "imagePath": victim,
		})
		w := env.do(t, http.MethodPost, "/api/v1/my-recipes", string(body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		_, err := os.Stat(victim)
		assert.NoError(t, err)
	})
}

func TestMyRecipesEndpoints_StorageFailure(t *testing.T) {
	env := newTestEnv(t, brokenStore{})

	w := env.do(t, http.MethodGet, "/api/v1/my-recipes", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), msgRecipesLoad)

	req := recipeForm(t, validForm(), "b.jpg", []byte("x"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), msgRecipeSave)

	entries, _ := os.ReadDir(env.imageDir)
	assert.Empty(t, entries, "relocated image must be rolled back")
}

func TestCORSIntegration(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:19006")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:19006", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRecoveryMiddleware(t *testing.T) {
	env := newTestEnv(t, nil)
	env.router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := env.do(t, http.MethodGet, "/panic", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestJSONResponses(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/health", "/api/v1/favorites", "/api/v1/my-recipes", "/api/v1/recipes/search?ingredients=x"} {
		w := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"), path)
		var v interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), path)
	}
}

func TestUploadName(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":              "photo.jpg",
		"../../etc/passwd":       "passwd",
		`C:\Users\me\dinner.png`: "dinner.png",
		"":                       "image",
		"/":                      "image",
		"..":                     "image",
	}
	for in, want := range tests {
		assert.Equal(t, want, uploadName(in), "uploadName(%q)", in)
	}
}
