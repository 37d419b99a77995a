package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ready2cook/backend/internal/domain"
	"github.com/ready2cook/backend/internal/infrastructure/spoonacular"
)

const (
	defaultSearchLimit       = 5
	defaultEnrichConcurrency = 5
)

// SearchServiceConfig holds configuration for the recipe search service
type SearchServiceConfig struct {
	// ResultLimit bounds the number of matches requested from the catalog.
	ResultLimit int
	// EnrichConcurrency bounds the parallel detail fetches per search.
	EnrichConcurrency int
}

// RecipeSearchService finds recipes by ingredients, enriches them with
// detail data and remembers results per query.
type RecipeSearchService struct {
	cache             domain.SearchCache
	client            domain.RecipeAPIClient
	logger            *zap.Logger
	limit             int
	enrichConcurrency int
}

// NewRecipeSearchService creates a new search service with dependencies
func NewRecipeSearchService(
	cache domain.SearchCache,
	client domain.RecipeAPIClient,
	config SearchServiceConfig,
	logger *zap.Logger,
) *RecipeSearchService {
	limit := config.ResultLimit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	concurrency := config.EnrichConcurrency
	if concurrency <= 0 {
		concurrency = defaultEnrichConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RecipeSearchService{
		cache:             cache,
		client:            client,
		logger:            logger.Named("search"),
		limit:             limit,
		enrichConcurrency: concurrency,
	}
}

// Search returns recipes matching the ingredient query. It never fails:
// a remote failure yields an empty, Degraded result.
// Flow: check cache -> bulk search -> enrich each match -> filter -> cache -> return
func (s *RecipeSearchService) Search(ctx context.Context, query string) domain.SearchResult {
	result := domain.SearchResult{Query: query, Recipes: []domain.RecipeSummary{}}

	if strings.TrimSpace(query) == "" {
		return result
	}

	cached, err := s.cache.Lookup(ctx, query)
	if err == nil {
		result.Recipes = cached
		result.FromCache = true
		return result
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn("cache lookup failed", zap.String("query", query), zap.Error(err))
	}

	ingredients := FormatIngredientQuery(ParseIngredientQuery(query))
	if ingredients == "" {
		return result
	}

	matches, err := s.client.SearchByIngredients(ctx, ingredients, s.limit)
	if err != nil {
		s.logger.Error("recipe search failed",
			zap.String("query", query),
			zap.String("ingredients", ingredients),
			zap.Error(err))
		result.Degraded = true
		return result
	}

	// Empty results are not cached so a retry can fetch again.
	if len(matches) == 0 {
		return result
	}

	recipes := withTitles(s.enrich(ctx, matches))
	if len(recipes) == 0 {
		return result
	}

	if err := s.cache.Store(ctx, query, recipes); err != nil {
		s.logger.Warn("cache store failed", zap.String("query", query), zap.Error(err))
	}

	result.Recipes = recipes
	return result
}

// enrich fetches details for every match in parallel. A failed fetch keeps
// the match without enrichment. Output order follows input order.
func (s *RecipeSearchService) enrich(ctx context.Context, matches []domain.APIRecipeMatch) []domain.RecipeSummary {
	summaries := make([]domain.RecipeSummary, len(matches))

	var g errgroup.Group
	g.SetLimit(s.enrichConcurrency)

	for i, match := range matches {
		summaries[i] = spoonacular.MapToSummary(match)
		if match.ID == "" {
			continue
		}
		g.Go(func() error {
			info, err := s.client.GetRecipeInformation(ctx, match.ID)
			if err != nil {
				s.logger.Warn("enrichment failed",
					zap.String("recipe_id", match.ID.String()),
					zap.Error(err))
				return nil
			}
			summaries[i] = spoonacular.Enrich(summaries[i], info)
			return nil
		})
	}
	_ = g.Wait()

	return summaries
}

// GetRecipeDetails loads the full remote recipe for the detail screen.
// Details are not cached.
func (s *RecipeSearchService) GetRecipeDetails(ctx context.Context, id domain.RecipeID) (*domain.RecipeDetails, error) {
	if strings.TrimSpace(id.String()) == "" {
		return nil, domain.ErrInvalidRequest
	}

	info, err := s.client.GetRecipeInformation(ctx, id)
	if err != nil {
		s.logger.Error("recipe details failed", zap.String("recipe_id", id.String()), zap.Error(err))
		if errors.Is(err, domain.ErrRecipeNotFound) || errors.Is(err, domain.ErrRecipeAPIFailure) {
			return nil, err
		}
		return nil, errors.Join(domain.ErrRecipeAPIFailure, err)
	}
	if info == nil {
		return nil, domain.ErrRecipeNotFound
	}

	details := spoonacular.MapToDetails(info)
	if details.ID == "" {
		details.ID = id
	}
	return details, nil
}

// withTitles drops summaries without a usable title.
func withTitles(summaries []domain.RecipeSummary) []domain.RecipeSummary {
	out := make([]domain.RecipeSummary, 0, len(summaries))
	for _, summary := range summaries {
		if strings.TrimSpace(summary.Title) == "" {
			continue
		}
		out = append(out, summary)
	}
	return out
}
