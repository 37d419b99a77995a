package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ready2cook/backend/internal/domain"
	"github.com/ready2cook/backend/internal/infrastructure/kvstore"
)

// DefaultRecipesKey is the store key holding the user recipe collection.
const DefaultRecipesKey = "recipes"

// UserRecipeService manages recipes written by the user. Each recipe owns
// an image that is moved into durable storage before the record is saved.
type UserRecipeService struct {
	// mu orders image moves and discards with the record changes that
	// reference them, so a discard never races a commit of the same path.
	mu      sync.Mutex
	recipes *kvstore.Collection[domain.UserRecipe]
	images  domain.ImageStore
	logger  *zap.Logger
	newID   func() (string, error)
	now     func() time.Time
}

// NewUserRecipeService creates a user recipe service persisting under key
func NewUserRecipeService(store domain.KeyValueStore, key string, images domain.ImageStore, logger *zap.Logger) *UserRecipeService {
	if key == "" {
		key = DefaultRecipesKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserRecipeService{
		recipes: kvstore.NewCollection(store, key, hasUserRecipeID),
		images:  images,
		logger:  logger.Named("user_recipes"),
		newID:   newRecipeID,
		now:     time.Now,
	}
}

// newRecipeID returns a time-ordered UUID, so ids sort by creation.
func newRecipeID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func hasUserRecipeID(r domain.UserRecipe) bool {
	return strings.TrimSpace(r.ID) != ""
}

// List returns the persisted user recipes in creation order.
func (s *UserRecipeService) List(ctx context.Context) (domain.LoadResult[domain.UserRecipe], error) {
	result, err := s.recipes.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load recipes", zap.Error(err))
		return result, err
	}
	if result.Dropped > 0 || result.Corrupt {
		s.logger.Warn("dropped invalid recipes",
			zap.String("key", s.recipes.Key()),
			zap.Int("dropped", result.Dropped),
			zap.Bool("corrupt", result.Corrupt))
	}
	return result, nil
}

// Get returns the user recipe with id or ErrRecipeNotFound.
func (s *UserRecipeService) Get(ctx context.Context, id string) (*domain.UserRecipe, error) {
	result, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range result.Records {
		if r.ID == id {
			recipe := r
			return &recipe, nil
		}
	}
	return nil, domain.ErrRecipeNotFound
}

// Create validates input, moves its image into durable storage and appends
// the new recipe. If saving fails the moved image is discarded again.
func (s *UserRecipeService) Create(ctx context.Context, input domain.UserRecipeInput) (*domain.UserRecipe, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		s.logger.Error("failed to generate recipe id", zap.Error(err))
		return nil, errors.Join(domain.ErrStorage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	location, err := s.images.Relocate(ctx, input.ImagePath)
	if err != nil {
		s.logger.Error("failed to relocate image", zap.String("source", input.ImagePath), zap.Error(err))
		return nil, err
	}

	recipe := domain.UserRecipe{
		ID:           id,
		Title:        strings.TrimSpace(input.Title),
		Ingredients:  domain.SplitIngredients(input.Ingredients),
		Instructions: input.Instructions,
		CookingTime:  strings.TrimSpace(input.CookingTime),
		Servings:     strings.TrimSpace(input.Servings),
		Image:        location,
		CreatedAt:    s.now().UTC(),
	}

	_, err = s.recipes.Update(ctx, func(records []domain.UserRecipe) ([]domain.UserRecipe, bool) {
		return append(records, recipe), true
	})
	if err != nil {
		s.logger.Error("failed to save recipe", zap.String("recipe_id", id), zap.Error(err))
		s.discardUnreferenced(ctx, location)
		return nil, err
	}

	s.logger.Info("recipe created", zap.String("recipe_id", id), zap.String("title", recipe.Title))
	return &recipe, nil
}

// Delete removes the recipe with id. Its image is discarded unless another
// recipe still points at it. Deleting an unknown id succeeds.
func (s *UserRecipeService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed *domain.UserRecipe
	_, err := s.recipes.Update(ctx, func(records []domain.UserRecipe) ([]domain.UserRecipe, bool) {
		next := make([]domain.UserRecipe, 0, len(records))
		for _, r := range records {
			if r.ID == id {
				rec := r
				removed = &rec
				continue
			}
			next = append(next, r)
		}
		return next, removed != nil
	})
	if err != nil {
		s.logger.Error("failed to delete recipe", zap.String("recipe_id", id), zap.Error(err))
		return err
	}
	if removed == nil || removed.Image == "" {
		return nil
	}

	s.discardUnreferenced(ctx, removed.Image)
	return nil
}

// discardUnreferenced removes the image at location unless a persisted
// recipe still points at it. Same-name uploads share one durable path, so a
// failed or deleted recipe may not own the file. Callers hold s.mu.
func (s *UserRecipeService) discardUnreferenced(ctx context.Context, location string) {
	current, err := s.recipes.Load(ctx)
	if err != nil {
		s.logger.Warn("keeping image, recipes unreadable", zap.String("image", location), zap.Error(err))
		return
	}
	for _, r := range current.Records {
		if r.Image == location {
			s.logger.Debug("image still referenced", zap.String("image", location), zap.String("recipe_id", r.ID))
			return
		}
	}
	if err := s.images.Discard(ctx, location); err != nil {
		s.logger.Warn("failed to discard image", zap.String("image", location), zap.Error(err))
	}
}
