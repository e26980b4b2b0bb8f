package authapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/Amatex1/pryde-backend-sub001/internal/auth/session"
)

// HTTPGeoLocator resolves IPs against an external ip-to-location HTTP
// service returning {"city","region","country"} JSON. The session
// facade bounds each lookup with its own timeout and treats every
// failure as an unknown location.
type HTTPGeoLocator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGeoLocator constructs a locator for the given base URL, e.g.
// "https://geo.internal/lookup". The IP is appended as a path segment.
func NewHTTPGeoLocator(baseURL string, client *http.Client) *HTTPGeoLocator {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPGeoLocator{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  client,
	}
}

// Locate implements session.GeoLocator.
func (g *HTTPGeoLocator) Locate(ctx context.Context, ip net.IP) (session.Location, error) {
	if ip == nil {
		return session.Location{}, nil
	}
	// Private and loopback addresses never resolve; skip the round trip.
	if ip.IsLoopback() || ip.IsPrivate() {
		return session.Location{}, nil
	}

	u := g.baseURL + "/" + url.PathEscape(ip.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return session.Location{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return session.Location{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return session.Location{}, fmt.Errorf("geo: lookup status %d", resp.StatusCode)
	}

	var body struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return session.Location{}, fmt.Errorf("geo: decode: %w", err)
	}

	return session.Location{
		City:    strings.TrimSpace(body.City),
		Region:  strings.TrimSpace(body.Region),
		Country: strings.ToUpper(strings.TrimSpace(body.Country)),
	}, nil
}
