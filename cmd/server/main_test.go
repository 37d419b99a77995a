package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ready2cook/backend/config"
	"github.com/ready2cook/backend/internal/domain"
	"github.com/ready2cook/backend/internal/infrastructure/kvstore"
)

type recordingCloser struct {
	closed int
}

func (r *recordingCloser) Close() error {
	r.closed++
	return nil
}

// stubStore swaps openKeyValueStore for a memory store with an observable closer.
func stubStore(t *testing.T) *recordingCloser {
	t.Helper()
	closer := &recordingCloser{}
	original := openKeyValueStore
	openKeyValueStore = func(context.Context, config.StoreConfig) (domain.KeyValueStore, io.Closer, error) {
		return kvstore.NewMemoryStore(), closer, nil
	}
	t.Cleanup(func() { openKeyValueStore = original })
	return closer
}

func runConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "0",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
			UploadDir:      filepath.Join(t.TempDir(), "uploads"),
		},
		Spoonacular: config.SpoonacularConfig{
			APIKey:            "test-key",
			BaseURL:           "http://127.0.0.1:1",
			SearchLimit:       5,
			RequestsPerSecond: 1,
			Burst:             1,
		},
		Store:     config.StoreConfig{Type: "memory"},
		Images:    config.ImagesConfig{Type: "local", Dir: filepath.Join(t.TempDir(), "images")},
		RateLimit: config.RateLimitConfig{PerIP: 100},
	}
}

func TestRun_ImageSetupFailureClosesStore(t *testing.T) {
	closer := stubStore(t)
	cfg := runConfig(t)
	cfg.Images.Type = "floppy"

	err := run(context.Background(), cfg, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "image storage")
	assert.Equal(t, 1, closer.closed)
}

func TestRun_StoreOpenFailure(t *testing.T) {
	cfg := runConfig(t)
	cfg.Store.Type = "tape"

	err := run(context.Background(), cfg, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store type")
}

func TestRun_ShutsDownWhenContextEnds(t *testing.T) {
	closer := stubStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := run(ctx, runConfig(t), zap.NewNop())

	assert.NoError(t, err)
	assert.Equal(t, 1, closer.closed)
}
