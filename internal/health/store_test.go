package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, found, err := store.GetService(ctx, "api")
	require.NoError(t, err)
	assert.False(t, found)

	rec := ServiceHealth{
		Name:      "api",
		Status:    StatusHealthy,
		Latency:   12.5,
		LastCheck: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		NextCheck: time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC),
	}
	require.NoError(t, store.PutService(ctx, rec))

	got, found, err := store.GetService(ctx, "api")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec, got)

	list, err := store.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStoreMetrics(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	m, err := store.GetMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, Metrics{}, m)

	want := Metrics{TotalChecks: 7, SuccessRate: 85.7, AvgLatency: 42.1, CostSavings: 0.0007}
	require.NoError(t, store.PutMetrics(ctx, want))

	m, err = store.GetMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, m)
}

func TestDecodeRecord(t *testing.T) {
	rec := decodeRecord("api", []byte(`{"name":"api","status":"healthy","latency":3.2,"consecutiveFailures":1}`))
	assert.Equal(t, "api", rec.Name)
	assert.Equal(t, StatusHealthy, rec.Status)
	assert.Equal(t, 1, rec.ConsecutiveFailures)

	// A blob missing the name inherits the hash field key.
	rec = decodeRecord("api", []byte(`{"status":"down"}`))
	assert.Equal(t, "api", rec.Name)
	assert.Equal(t, StatusDown, rec.Status)

	// Negative counters from a tampered blob are clamped.
	rec = decodeRecord("api", []byte(`{"name":"api","consecutiveFailures":-4}`))
	assert.Equal(t, 0, rec.ConsecutiveFailures)
}

func TestDecodeRecordMalformed(t *testing.T) {
	rec := decodeRecord("api", []byte(`{not json`))
	assert.Equal(t, "api", rec.Name)
	assert.Equal(t, StatusDegraded, rec.Status)
	assert.Equal(t, 0, rec.ConsecutiveFailures)
}
