// tests_helpers.go

package sycksec

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// Test Helper Functions

var testMasterSecret = "test-master-secret-32-bytes-long!!"

func createTestEngine(t *testing.T, config Config) *tokenEngine {
	t.Helper()

	engine, err := NewTokenEngine(context.Background(), config, nil)
	require.NoError(t, err)
	return engine.(*tokenEngine)
}

func createDefaultTestEngine(t *testing.T) *tokenEngine {
	t.Helper()
	return createTestEngine(t, DefaultConfig(testMasterSecret))
}

// fixClock pins the engine clock to a settable instant and returns both the
// base instant and a function advancing the clock relative to it.
func fixClock(engine *tokenEngine) (time.Time, func(offset time.Duration)) {
	base := time.Now().UTC().Truncate(time.Second)
	current := base
	engine.now = func() time.Time { return current }
	return base, func(offset time.Duration) { current = base.Add(offset) }
}

func deterministicRecipe() Recipe {
	recipe := DefaultRecipe()
	recipe.Version = "deterministic-v1"
	recipe.RandomizeNoise = false
	return recipe
}

func varianceRecipe() Recipe {
	recipe := DefaultRecipe()
	recipe.Version = "variance-v1"
	recipe.NoiseVariance = 2
	return recipe
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}
