package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/ready2cook/backend/internal/domain"
)

// MockSearchCache is a mock implementation of domain.SearchCache
type MockSearchCache struct {
	mu          sync.Mutex
	data        map[string][]domain.RecipeSummary
	lookupError error
	storeError  error
	storeCalls  int
}

func NewMockSearchCache() *MockSearchCache {
	return &MockSearchCache{data: make(map[string][]domain.RecipeSummary)}
}

func (m *MockSearchCache) Lookup(ctx context.Context, query string) ([]domain.RecipeSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupError != nil {
		return nil, m.lookupError
	}
	if v, ok := m.data[query]; ok {
		return v, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockSearchCache) Store(ctx context.Context, query string, results []domain.RecipeSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeCalls++
	if m.storeError != nil {
		return m.storeError
	}
	m.data[query] = results
	return nil
}

func (m *MockSearchCache) has(query string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[query]
	return ok
}

// MockRecipeAPIClient is a mock implementation of domain.RecipeAPIClient
type MockRecipeAPIClient struct {
	mu          sync.Mutex
	matches     []domain.APIRecipeMatch
	searchError error
	info        map[domain.RecipeID]*domain.APIRecipeInformation
	infoErrors  map[domain.RecipeID]error
	searchCalls int
	infoCalls   int
	lastQuery   string
	lastLimit   int
}

func NewMockRecipeAPIClient() *MockRecipeAPIClient {
	return &MockRecipeAPIClient{
		info:       make(map[domain.RecipeID]*domain.APIRecipeInformation),
		infoErrors: make(map[domain.RecipeID]error),
	}
}

func (m *MockRecipeAPIClient) SearchByIngredients(ctx context.Context, ingredients string, limit int) ([]domain.APIRecipeMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	m.lastQuery = ingredients
	m.lastLimit = limit
	if m.searchError != nil {
		return nil, m.searchError
	}
	out := make([]domain.APIRecipeMatch, len(m.matches))
	copy(out, m.matches)
	return out, nil
}

func (m *MockRecipeAPIClient) GetRecipeInformation(ctx context.Context, id domain.RecipeID) (*domain.APIRecipeInformation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoCalls++
	if err, ok := m.infoErrors[id]; ok {
		return nil, err
	}
	if info, ok := m.info[id]; ok {
		return info, nil
	}
	return nil, domain.ErrRecipeNotFound
}

// MockImageStore is a mock implementation of domain.ImageStore
type MockImageStore struct {
	dir           string
	relocateError error
	discardError  error
	relocated     []string
	discarded     []string
}

func NewMockImageStore() *MockImageStore {
	return &MockImageStore{dir: "/data/images"}
}

func (m *MockImageStore) Relocate(ctx context.Context, sourcePath string) (string, error) {
	if m.relocateError != nil {
		return "", m.relocateError
	}
	dest := filepath.Join(m.dir, filepath.Base(sourcePath))
	m.relocated = append(m.relocated, sourcePath)
	return dest, nil
}

func (m *MockImageStore) Discard(ctx context.Context, location string) error {
	m.discarded = append(m.discarded, location)
	return m.discardError
}

// failingKVStore fails reads and/or writes on demand.
type failingKVStore struct {
	domain.KeyValueStore
	getError error
	setError error
}

func (f *failingKVStore) Get(ctx context.Context, key string) (string, error) {
	if f.getError != nil {
		return "", f.getError
	}
	return f.KeyValueStore.Get(ctx, key)
}

func (f *failingKVStore) Set(ctx context.Context, key, value string) error {
	if f.setError != nil {
		return f.setError
	}
	return f.KeyValueStore.Set(ctx, key, value)
}

var errDiskFull = errors.New("disk full")
