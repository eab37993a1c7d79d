package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

func sampleResult(id string) *models.AnalysisResult {
	return &models.AnalysisResult{
		AnalysisID:      id,
		AnalysisVersion: "1.1.0",
		Metrics:         models.Metrics{Overall: 82, EyeContact: 80, Confidence: 84.5, BodyLanguage: 85, Speaking: 88, Engagement: 79},
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryFingerprintCache()

	res, ok, err := c.Get(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)
}

func TestMemoryCacheHitReturnsStoredObject(t *testing.T) {
	c := NewMemoryFingerprintCache()
	stored := sampleResult("abc12345")

	require.NoError(t, c.Put(context.Background(), "deadbeef", stored))

	got, ok, err := c.Get(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.True(t, ok)
	// A hit returns the identical stored object, not a copy.
	assert.Same(t, stored, got)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheOverwriteIsIdempotent(t *testing.T) {
	c := NewMemoryFingerprintCache()
	first := sampleResult("abc12345")
	second := sampleResult("abc12345")

	require.NoError(t, c.Put(context.Background(), "deadbeef", first))
	require.NoError(t, c.Put(context.Background(), "deadbeef", second))

	got, ok, err := c.Get(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first, got)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	c := NewMemoryFingerprintCache()
	result := sampleResult("abc12345")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Put(context.Background(), "deadbeef", result)
			_, _, _ = c.Get(context.Background(), "deadbeef")
		}()
	}
	wg.Wait()

	got, ok, err := c.Get(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, result, got)
}
