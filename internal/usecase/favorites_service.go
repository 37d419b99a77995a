package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ready2cook/backend/internal/domain"
	"github.com/ready2cook/backend/internal/infrastructure/kvstore"
)

// DefaultFavoritesKey is the store key holding the favorites collection.
const DefaultFavoritesKey = "likedRecipes"

// FavoritesService keeps the set of favorited remote recipes, in the order
// they were added.
type FavoritesService struct {
	favorites *kvstore.Collection[domain.RecipeSummary]
	logger    *zap.Logger
}

// NewFavoritesService creates a favorites service persisting under key
func NewFavoritesService(store domain.KeyValueStore, key string, logger *zap.Logger) *FavoritesService {
	if key == "" {
		key = DefaultFavoritesKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FavoritesService{
		favorites: kvstore.NewCollection(store, key, hasRecipeID),
		logger:    logger.Named("favorites"),
	}
}

func hasRecipeID(r domain.RecipeSummary) bool {
	return strings.TrimSpace(r.ID.String()) != ""
}

// List returns the persisted favorites. Entries without an id are left out
// and counted in Dropped.
func (s *FavoritesService) List(ctx context.Context) (domain.LoadResult[domain.RecipeSummary], error) {
	result, err := s.favorites.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load favorites", zap.Error(err))
		return result, err
	}
	s.reportDropped(result)
	return result, nil
}

// Add appends recipe unless a favorite with the same id exists.
func (s *FavoritesService) Add(ctx context.Context, recipe domain.RecipeSummary) error {
	if !hasRecipeID(recipe) {
		return domain.ErrInvalidRequest
	}

	result, err := s.favorites.Update(ctx, func(records []domain.RecipeSummary) ([]domain.RecipeSummary, bool) {
		if indexOfFavorite(records, recipe.ID) >= 0 {
			return records, false
		}
		return append(records, recipe), true
	})
	if err != nil {
		s.logger.Error("failed to add favorite", zap.String("recipe_id", recipe.ID.String()), zap.Error(err))
		return err
	}
	s.reportDropped(result)
	return nil
}

// Remove deletes the favorite with id. Removing an unknown id succeeds
// without writing.
func (s *FavoritesService) Remove(ctx context.Context, id domain.RecipeID) error {
	result, err := s.favorites.Update(ctx, func(records []domain.RecipeSummary) ([]domain.RecipeSummary, bool) {
		return removeFavorite(records, id)
	})
	if err != nil {
		s.logger.Error("failed to remove favorite", zap.String("recipe_id", id.String()), zap.Error(err))
		return err
	}
	s.reportDropped(result)
	return nil
}

// Toggle removes recipe when it is a favorite and adds it otherwise.
// It reports whether recipe is a favorite afterwards.
func (s *FavoritesService) Toggle(ctx context.Context, recipe domain.RecipeSummary) (bool, error) {
	if !hasRecipeID(recipe) {
		return false, domain.ErrInvalidRequest
	}

	var liked bool
	_, err := s.favorites.Update(ctx, func(records []domain.RecipeSummary) ([]domain.RecipeSummary, bool) {
		if next, removed := removeFavorite(records, recipe.ID); removed {
			liked = false
			return next, true
		}
		liked = true
		return append(records, recipe), true
	})
	if err != nil {
		s.logger.Error("failed to toggle favorite", zap.String("recipe_id", recipe.ID.String()), zap.Error(err))
		return false, err
	}
	return liked, nil
}

// IsFavorite reports whether id is in the favorites collection.
func (s *FavoritesService) IsFavorite(ctx context.Context, id domain.RecipeID) (bool, error) {
	result, err := s.favorites.Load(ctx)
	if err != nil {
		return false, err
	}
	return indexOfFavorite(result.Records, id) >= 0, nil
}

func (s *FavoritesService) reportDropped(result domain.LoadResult[domain.RecipeSummary]) {
	if result.Dropped == 0 && !result.Corrupt {
		return
	}
	s.logger.Warn("dropped invalid favorites",
		zap.String("key", s.favorites.Key()),
		zap.Int("dropped", result.Dropped),
		zap.Bool("corrupt", result.Corrupt))
}

func indexOfFavorite(records []domain.RecipeSummary, id domain.RecipeID) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func removeFavorite(records []domain.RecipeSummary, id domain.RecipeID) ([]domain.RecipeSummary, bool) {
	next := make([]domain.RecipeSummary, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			next = append(next, r)
		}
	}
	return next, len(next) != len(records)
}
