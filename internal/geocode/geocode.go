package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// Nominatim resolves free-text addresses through an OSM Nominatim search endpoint.
type Nominatim struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func NewNominatim(baseURL, userAgent string, timeout time.Duration) *Nominatim {
	return &Nominatim{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  userAgent,
	}
}

// Lookup returns the first match for address.
func (n *Nominatim) Lookup(ctx context.Context, address string) (*Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("empty address")
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", results[0].Lon, err)
	}
	return &Point{Lat: lat, Lng: lng}, nil
}

// Resolve is Lookup with failures logged and swallowed. A report without
// coordinates is still a valid report.
func (n *Nominatim) Resolve(ctx context.Context, address string) *Point {
	p, err := n.Lookup(ctx, address)
	if err != nil {
		slog.Warn("geocode failed", "error", err, "address", address)
		return nil
	}
	return p
}
