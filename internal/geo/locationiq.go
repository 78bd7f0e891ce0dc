package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/your-org/moments/internal/config"
	"github.com/your-org/moments/internal/models"
)

// Resolver turns decimal coordinates into a place. A nil place with a nil
// error means the provider had no match.
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (*models.Place, error)
}

var ErrUnauthorized = errors.New("geocoding provider rejected credentials")

// LocationIQ implements Resolver against the LocationIQ reverse endpoint.
type LocationIQ struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ Resolver = (*LocationIQ)(nil)

// NewLocationIQ returns nil when no API key is configured.
func NewLocationIQ(cfg config.LocationIQConfig) *LocationIQ {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	return &LocationIQ{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Country string `json:"country"`
	} `json:"address"`
}

func (c *LocationIQ) Resolve(ctx context.Context, lat, lon float64) (*models.Place, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/reverse.php?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("locationiq error %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	city := firstNonEmpty(out.Address.City, out.Address.Town, out.Address.Village)
	if out.DisplayName == "" && city == "" && out.Address.Country == "" {
		return nil, nil
	}
	return &models.Place{
		Address: out.DisplayName,
		City:    city,
		Country: out.Address.Country,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
