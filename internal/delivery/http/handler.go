package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ready2cook/backend/internal/domain"
	"github.com/ready2cook/backend/internal/usecase"
)

// User-facing alert texts
const (
	msgFavoritesLoad  = "Failed to load your favorite recipes."
	msgFavoritesSave  = "Failed to update your favorites."
	msgRecipesLoad    = "Failed to load your recipes."
	msgRecipeSave     = "Failed to save the recipe."
	msgRecipeDelete   = "Failed to delete the recipe."
	msgDetailsLoad    = "Failed to load recipe details."
	msgInvalidRequest = "Invalid request."
	msgNotFound       = "Recipe not found."
)

// HandlerConfig holds upload settings for the HTTP handlers
type HandlerConfig struct {
	UploadDir      string
	MaxUploadBytes int64
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	search    *usecase.RecipeSearchService
	favorites *usecase.FavoritesService
	recipes   *usecase.UserRecipeService
	config    HandlerConfig
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	search *usecase.RecipeSearchService,
	favorites *usecase.FavoritesService,
	recipes *usecase.UserRecipeService,
	config HandlerConfig,
	logger *zap.Logger,
) *Handler {
	if config.UploadDir == "" {
		config.UploadDir = filepath.Join(os.TempDir(), "ready2cook-uploads")
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 10 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		search:    search,
		favorites: favorites,
		recipes:   recipes,
		config:    config,
		logger:    logger.Named("http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ready2cook-backend",
		"version": "1.0.0",
	})
}

// SearchRecipes handles GET /recipes/search?ingredients=...
// Remote failures come back as an empty, degraded result with status 200.
func (h *Handler) SearchRecipes(c *gin.Context) {
	result := h.search.Search(c.Request.Context(), c.Query("ingredients"))
	c.JSON(http.StatusOK, result)
}

// GetRecipe returns the full remote recipe
func (h *Handler) GetRecipe(c *gin.Context) {
	details, err := h.search.GetRecipeDetails(c.Request.Context(), domain.RecipeID(c.Param("id")))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			respondError(c, http.StatusBadRequest, msgInvalidRequest)
		case errors.Is(err, domain.ErrRecipeNotFound):
			respondError(c, http.StatusNotFound, msgNotFound)
		default:
			respondError(c, http.StatusBadGateway, msgDetailsLoad)
		}
		return
	}
	c.JSON(http.StatusOK, details)
}

// ListFavorites returns the favorites collection
func (h *Handler) ListFavorites(c *gin.Context) {
	result, err := h.favorites.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, msgFavoritesLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recipes": result.Records,
		"dropped": result.Dropped,
	})
}

// AddFavorite stores a recipe summary as favorite. Adding twice is a no-op.
func (h *Handler) AddFavorite(c *gin.Context) {
	var recipe domain.RecipeSummary
	if err := c.ShouldBindJSON(&recipe); err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	if err := h.favorites.Add(c.Request.Context(), recipe); err != nil {
		h.favoritesError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": recipe.ID, "liked": true})
}

// ToggleFavorite flips the favorite state of a recipe
func (h *Handler) ToggleFavorite(c *gin.Context) {
	var recipe domain.RecipeSummary
	if err := c.ShouldBindJSON(&recipe); err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	liked, err := h.favorites.Toggle(c.Request.Context(), recipe)
	if err != nil {
		h.favoritesError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": recipe.ID, "liked": liked})
}

// GetFavorite reports whether a recipe is liked, for the heart state on
// search results and detail screens
func (h *Handler) GetFavorite(c *gin.Context) {
	id := domain.RecipeID(c.Param("id"))
	liked, err := h.favorites.IsFavorite(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, msgFavoritesLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "liked": liked})
}

// RemoveFavorite deletes a favorite by id
func (h *Handler) RemoveFavorite(c *gin.Context) {
	if err := h.favorites.Remove(c.Request.Context(), domain.RecipeID(c.Param("id"))); err != nil {
		h.favoritesError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) favoritesError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidRequest) {
		respondError(c, http.StatusBadRequest, "Recipe id is required.")
		return
	}
	respondError(c, http.StatusInternalServerError, msgFavoritesSave)
}

// userRecipeResponse adds the rendered instructions to a user recipe
type userRecipeResponse struct {
	domain.UserRecipe
	InstructionsHTML string `json:"instructionsHtml"`
}

// ListMyRecipes returns the user's own recipes
func (h *Handler) ListMyRecipes(c *gin.Context) {
	result, err := h.recipes.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, msgRecipesLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recipes": result.Records,
		"dropped": result.Dropped,
	})
}

// GetMyRecipe returns one user recipe with its instructions rendered
func (h *Handler) GetMyRecipe(c *gin.Context) {
	recipe, err := h.recipes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrRecipeNotFound) {
			respondError(c, http.StatusNotFound, msgNotFound)
			return
		}
		respondError(c, http.StatusInternalServerError, msgRecipesLoad)
		return
	}
	c.JSON(http.StatusOK, userRecipeResponse{
		UserRecipe:       *recipe,
		InstructionsHTML: recipe.InstructionsHTML(),
	})
}

// CreateMyRecipe accepts a multipart form with the recipe fields and an
// "image" file. The upload lands in a per-request directory and is moved
// into durable storage by the service.
func (h *Handler) CreateMyRecipe(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.MaxUploadBytes)

	var input domain.UserRecipeInput
	if err := c.ShouldBind(&input); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "Image is too large.")
			return
		}
		respondError(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	// Only an uploaded file may name the image source.
	input.ImagePath = ""

	file, err := c.FormFile("image")
	switch {
	case err == nil:
		if err := os.MkdirAll(h.config.UploadDir, 0o755); err != nil {
			h.logger.Error("failed to create upload dir", zap.Error(err))
			respondError(c, http.StatusInternalServerError, msgRecipeSave)
			return
		}
		tmpDir, err := os.MkdirTemp(h.config.UploadDir, "upload-*")
		if err != nil {
			h.logger.Error("failed to create upload dir", zap.Error(err))
			respondError(c, http.StatusInternalServerError, msgRecipeSave)
			return
		}
		defer os.RemoveAll(tmpDir)

		dest := filepath.Join(tmpDir, uploadName(file.Filename))
		if err := c.SaveUploadedFile(file, dest); err != nil {
			h.logger.Error("failed to save upload", zap.Error(err))
			respondError(c, http.StatusInternalServerError, msgRecipeSave)
			return
		}
		input.ImagePath = dest
	case errors.Is(err, http.ErrMissingFile):
		// left empty so validation reports the missing image
	default:
		respondError(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), input)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  verr.Error(),
				"fields": verr.Fields,
			})
		case errors.Is(err, domain.ErrInvalidRequest):
			respondError(c, http.StatusBadRequest, msgInvalidRequest)
		default:
			respondError(c, http.StatusInternalServerError, msgRecipeSave)
		}
		return
	}

	c.JSON(http.StatusCreated, userRecipeResponse{
		UserRecipe:       *recipe,
		InstructionsHTML: recipe.InstructionsHTML(),
	})
}

// DeleteMyRecipe removes a user recipe. Confirmation is up to the client.
func (h *Handler) DeleteMyRecipe(c *gin.Context) {
	if err := h.recipes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, http.StatusInternalServerError, msgRecipeDelete)
		return
	}
	c.Status(http.StatusNoContent)
}

// uploadName keeps the client file name but strips any directory part.
func uploadName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." || strings.TrimSpace(name) == "" {
		return "image"
	}
	return name
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
