package distance

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcrm-billing/internal/storage"
)

type memCache struct {
	updates map[string]float64
}

func (m *memCache) UpdateClientDistance(_ context.Context, code string, km float64) error {
	if m.updates == nil {
		m.updates = map[string]float64{}
	}
	m.updates[code] = km
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient() storage.Client {
	return storage.Client{Code: "ACME", Address: "Via Roma 1", City: "Torino"}
}

func TestResolve_CachedDistanceSkipsLookup(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	cache := &memCache{}
	r := NewResolver(testLogger(), srv.URL, cache)

	cached := 12.5
	c := testClient()
	c.DistanceKm = &cached

	got := r.Resolve(context.Background(), c)
	require.NotNil(t, got)
	assert.Equal(t, 12.5, *got)
	assert.False(t, called)
}

func TestResolve_LooksUpAndCaches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ACME", r.URL.Query().Get("client"))
		_, _ = w.Write([]byte(`{"distance_km": 34.2}`))
	}))
	defer srv.Close()

	cache := &memCache{}
	r := NewResolver(testLogger(), srv.URL, cache)

	got := r.Resolve(context.Background(), testClient())
	require.NotNil(t, got)
	assert.Equal(t, 34.2, *got)
	assert.Equal(t, 34.2, cache.updates["ACME"])
}

func TestResolve_FailureMeansNoSurcharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewResolver(testLogger(), srv.URL, &memCache{})

	assert.Nil(t, r.Resolve(context.Background(), testClient()))
}

func TestResolve_NoEndpointConfigured(t *testing.T) {
	r := NewResolver(testLogger(), "", &memCache{})
	assert.Nil(t, r.Resolve(context.Background(), testClient()))
}
