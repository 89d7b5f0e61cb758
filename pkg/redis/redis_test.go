package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/revcast/pkg/config"
)

func TestNew_Disabled(t *testing.T) {
	client, err := New(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(Disabled(), "revcast")

	require.NoError(t, cache.Set(ctx, KeyLatestRun, map[string]int{"a": 1}, time.Minute))

	var out map[string]int
	found, err := cache.Get(ctx, KeyLatestRun, &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, KeyLatestRun))
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "revcast")
	cfg := PipelineRunLimit(0.2, 1)

	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, cfg.Limit, remaining)
}

func TestPipelineRunLimit(t *testing.T) {
	tests := []struct {
		name       string
		rate       float64
		burst      int
		wantWindow time.Duration
	}{
		{"one every five seconds", 0.2, 1, 5 * time.Second},
		{"fast rate clamps to a second", 10, 2, time.Second},
		{"burst widens window", 0.5, 3, 6 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := PipelineRunLimit(tt.rate, tt.burst)
			assert.Equal(t, "pipeline_run", cfg.Key)
			assert.Equal(t, tt.burst, cfg.Limit)
			assert.Equal(t, tt.wantWindow, cfg.Window)
		})
	}
}

func TestReportKey(t *testing.T) {
	assert.Equal(t, "run:abc:alerts", ReportKey("abc", "alerts"))
}
