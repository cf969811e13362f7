// Package distance resolves a client's travel distance through an external
// geocoding endpoint. Resolution is strictly best-effort: any failure means
// "no km surcharge", never a blocked invoice.
package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"fieldcrm-billing/internal/storage"
)

type ClientDistanceCache interface {
	UpdateClientDistance(ctx context.Context, code string, km float64) error
}

type Resolver struct {
	baseURL string
	http    *http.Client
	cache   ClientDistanceCache
	log     *slog.Logger
}

func NewResolver(log *slog.Logger, baseURL string, cache ClientDistanceCache) *Resolver {
	return &Resolver{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 3 * time.Second},
		cache:   cache,
		log:     log,
	}
}

// Resolve returns the one-way distance in km, nil when unknown. A distance
// already cached on the client row is returned as is; a fresh lookup is
// written back so the geocoder is hit at most once per client.
func (r *Resolver) Resolve(ctx context.Context, client storage.Client) *float64 {
	const op = "service.distance.Resolve"

	if client.DistanceKm != nil {
		return client.DistanceKm
	}
	if r.baseURL == "" || client.Address == "" {
		return nil
	}

	km, err := r.lookup(ctx, client)
	if err != nil {
		r.log.Warn("distance resolution failed, skipping km surcharge",
			slog.String("op", op), slog.String("client", client.Code), slog.String("error", err.Error()))
		return nil
	}

	if err := r.cache.UpdateClientDistance(ctx, client.Code, km); err != nil {
		r.log.Warn("failed to cache client distance",
			slog.String("op", op), slog.String("client", client.Code), slog.String("error", err.Error()))
	}

	return &km
}

func (r *Resolver) lookup(ctx context.Context, client storage.Client) (float64, error) {
	q := url.Values{}
	q.Set("client", client.Code)
	q.Set("address", client.Address+", "+client.City)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("geocoder returned %d: %s", resp.StatusCode, body)
	}

	var out struct {
		DistanceKm float64 `json:"distance_km"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}

	return out.DistanceKm, nil
}
