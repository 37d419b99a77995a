package domain

import "errors"

var (
	// ErrRecipeNotFound is returned when a recipe id is unknown locally or remotely
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrRecipeAPIFailure is returned when a remote search or detail request fails
	ErrRecipeAPIFailure = errors.New("recipe API request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrStorage is returned when a key-value or file storage operation fails
	ErrStorage = errors.New("storage operation failed")

	// ErrKeyNotFound is returned by a KeyValueStore when the key holds no value
	ErrKeyNotFound = errors.New("key not found")

	// ErrCacheMiss is returned when a query is not in the search cache
	ErrCacheMiss = errors.New("cache miss")
)
