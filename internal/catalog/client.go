package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pefman/w40k-volley/internal/models"
)

var httpClient = &http.Client{Timeout: 8 * time.Second}

type cached struct {
	units []models.Profile
	at    time.Time
}

// Client fetches profile records from a remote data API.
type Client struct {
	BaseURL string
	TTL     time.Duration

	mu    sync.RWMutex
	cache map[string]cached
}

func NewClient(baseURL string, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Client{BaseURL: baseURL, TTL: ttl, cache: make(map[string]cached)}
}

func (c *Client) apiGet(ctx context.Context, path string, out interface{}) error {
	base := strings.TrimRight(c.BaseURL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("GET %s: %w", path, models.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: api status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toSlug(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "&", "and")
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "--", "-")
	return s
}

// FetchFactions lists the faction names the API serves.
func (c *Client) FetchFactions(ctx context.Context) ([]string, error) {
	var res []string
	if err := c.apiGet(ctx, "/api/factions", &res); err != nil {
		return nil, err
	}
	return res, nil
}

// FetchUnits returns every profile of a faction, from cache while fresh.
func (c *Client) FetchUnits(ctx context.Context, faction string) ([]models.Profile, error) {
	slug := toSlug(faction)
	c.mu.RLock()
	hit, ok := c.cache[slug]
	c.mu.RUnlock()
	if ok && time.Since(hit.at) < c.TTL {
		out := make([]models.Profile, len(hit.units))
		copy(out, hit.units)
		return out, nil
	}

	var res []models.Profile
	if err := c.apiGet(ctx, "/api/"+slug+"/units", &res); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cache[slug] = cached{units: res, at: time.Now()}
	c.mu.Unlock()
	return res, nil
}

// Sync loads a faction from the API into cat.
func (c *Client) Sync(ctx context.Context, cat *Catalog, faction string) (int, error) {
	units, err := c.FetchUnits(ctx, faction)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", faction, err)
	}
	cat.Add(faction, units...)
	return len(units), nil
}
