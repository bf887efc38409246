// Package geoip resolves client IPs to coarse locations using an
// ip-api.com style JSON endpoint. Location is enrichment only: every
// failure mode degrades to a sentinel value instead of an error.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sentinel location values
const (
	Unknown = "Unknown"
	Local   = "Local"
)

// Location is the coarse geolocation triple recorded per click
type Location struct {
	Country string
	Region  string
	City    string
}

// UnknownLocation is recorded when the lookup fails or times out.
func UnknownLocation() Location {
	return Location{Country: Unknown, Region: Unknown, City: Unknown}
}

// LocalLocation is recorded for private and loopback client IPs.
func LocalLocation() Location {
	return Location{Country: Local, Region: Local, City: Local}
}

// Locator maps a client IP to a coarse location
type Locator interface {
	Lookup(ctx context.Context, ip string) Location
}

// Client is a Locator backed by an HTTP geolocation service
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client against the given base URL. The timeout
// bounds every lookup so a slow geo service can never stall a
// redirect.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// lookupResponse matches the ip-api.com JSON payload
type lookupResponse struct {
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
}

// Lookup resolves ip to a location. Private and loopback addresses
// resolve to the Local sentinel without a network call; any lookup
// failure resolves to the Unknown sentinel.
func (c *Client) Lookup(ctx context.Context, ip string) Location {
	if ip == "" {
		return UnknownLocation()
	}
	if isPrivate(ip) {
		return LocalLocation()
	}

	url := fmt.Sprintf("%s/json/%s?fields=country,city,regionName", c.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn("geoip: building lookup request failed", zap.String("ip", ip), zap.Error(err))
		return UnknownLocation()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("geoip: lookup failed", zap.String("ip", ip), zap.Error(err))
		return UnknownLocation()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("geoip: lookup returned non-OK status",
			zap.String("ip", ip), zap.Int("status", resp.StatusCode))
		return UnknownLocation()
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("geoip: decoding lookup response failed", zap.String("ip", ip), zap.Error(err))
		return UnknownLocation()
	}

	return Location{
		Country: orUnknown(payload.Country),
		Region:  orUnknown(payload.RegionName),
		City:    orUnknown(payload.City),
	}
}

// isPrivate reports whether ip is a loopback, RFC1918, or link-local
// address. Unparseable strings are treated as non-private so they
// still get the Unknown sentinel from a failed lookup.
func isPrivate(ip string) bool {
	if ip == "localhost" {
		return true
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast()
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
