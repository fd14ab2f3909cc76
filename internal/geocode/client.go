// Package geocode resolves free-text locations to coordinates and back,
// feeding the post-authoring draft with a normalized address triple.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/greenloop/ecopost/backend/internal/models"
)

const (
	defaultBaseURL = "https://api.maptiler.com/geocoding"

	// forwardLimit caps autocomplete candidates per lookup
	forwardLimit = 5
)

// Client calls the MapTiler geocoding API
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a new geocoding client
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
	}
}

// WithBaseURL overrides the API endpoint, used by tests
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// feature is one result in a geocoding response
type feature struct {
	ID        string    `json:"id"`
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"` // [longitude, latitude]
}

type geocodeResponse struct {
	Features []feature `json:"features"`
}

// ForwardSearch resolves free text to up to five ranked location candidates
func (c *Client) ForwardSearch(ctx context.Context, query string) ([]models.LocationCandidate, error) {
	endpoint := fmt.Sprintf("%s/%s.json?key=%s&limit=%d&autocomplete=true",
		c.baseURL, url.PathEscape(query), url.QueryEscape(c.apiKey), forwardLimit)

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.LocationCandidate, 0, len(resp.Features))
	for _, f := range resp.Features {
		if len(f.Center) < 2 {
			continue
		}
		candidates = append(candidates, models.LocationCandidate{
			PlaceID:     f.ID,
			DisplayName: f.PlaceName,
			Longitude:   f.Center[0],
			Latitude:    f.Center[1],
		})
		if len(candidates) == forwardLimit {
			break
		}
	}
	return candidates, nil
}

// Reverse resolves a point to the nearest known place name
func (c *Client) Reverse(ctx context.Context, longitude, latitude float64) (string, error) {
	endpoint := fmt.Sprintf("%s/%f,%f.json?key=%s&limit=1",
		c.baseURL, longitude, latitude, url.QueryEscape(c.apiKey))

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}
	if len(resp.Features) == 0 {
		return "", fmt.Errorf("no place found at %f,%f", longitude, latitude)
	}
	return resp.Features[0].PlaceName, nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*geocodeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request failed: status %d", resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &decoded, nil
}
