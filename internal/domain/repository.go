package domain

import (
	"context"
)

// SearchCache maps the raw ingredient query to the last successful result
// list for the lifetime of the process.
type SearchCache interface {
	// Lookup returns ErrCacheMiss when the query has not been stored.
	Lookup(ctx context.Context, query string) ([]RecipeSummary, error)
	Store(ctx context.Context, query string, results []RecipeSummary) error
}

// RecipeAPIClient defines the interface for the remote recipe catalog
type RecipeAPIClient interface {
	SearchByIngredients(ctx context.Context, ingredients string, limit int) ([]APIRecipeMatch, error)
	GetRecipeInformation(ctx context.Context, id RecipeID) (*APIRecipeInformation, error)
}

// KeyValueStore is a durable string store. Get returns ErrKeyNotFound for
// absent keys; Remove of an absent key succeeds.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
}

// ImageStore moves transient images into storage that outlives the process.
type ImageStore interface {
	// Relocate moves the file at sourcePath into durable storage and returns
	// its new location. The name is derived from the source file name.
	Relocate(ctx context.Context, sourcePath string) (string, error)
	// Discard removes a previously relocated image.
	Discard(ctx context.Context, location string) error
}
