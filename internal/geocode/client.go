package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/f1rq/LifeMap/config"
)

// Nominatim usage policy requires a descriptive User-Agent.
// Endpoints used: /search?q=<text>&format=json and /reverse?lat=&lon=&format=json

// Place is one geocoding result
type Place struct {
	DisplayName string  `json:"display_name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Type        string  `json:"type,omitempty"`
	Category    string  `json:"category,omitempty"`
	Importance  float64 `json:"importance,omitempty"`
}

// Coordinates parses the place's latitude and longitude.
func (p *Place) Coordinates() (float64, float64, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return 0, 0, errors.Wrap(err, "invalid latitude")
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return 0, 0, errors.Wrap(err, "invalid longitude")
	}
	return lat, lon, nil
}

// Client calls a Nominatim-compatible place-search API. The API is
// public and uncontrolled: calls are read-only and best-effort, with no
// retry or backoff.
type Client struct {
	baseURL        string
	userAgent      string
	acceptLanguage string
	limit          int
	client         *http.Client
}

// NewClient creates a geocoding client from configuration.
func NewClient(cfg config.NominatimConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 8
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		userAgent:      cfg.UserAgent,
		acceptLanguage: cfg.AcceptLanguage,
		limit:          limit,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: tr,
		},
	}
}

// Search returns ranked place candidates for a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty search query")
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(c.limit))
	if c.acceptLanguage != "" {
		q.Set("accept-language", c.acceptLanguage)
	}

	var places []Place
	if err := c.get(ctx, "/search", q, &places); err != nil {
		return nil, err
	}
	return places, nil
}

// Reverse returns the best-match place for a coordinate.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "json")
	if c.acceptLanguage != "" {
		q.Set("accept-language", c.acceptLanguage)
	}

	var body struct {
		Place
		Error string `json:"error"`
	}
	if err := c.get(ctx, "/reverse", q, &body); err != nil {
		return nil, err
	}
	if body.Error != "" {
		return nil, errors.Errorf("geocode: %s", body.Error)
	}
	return &body.Place, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build geocode request")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "geocode request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.Errorf("geocode: rate limited (%d)", resp.StatusCode)
	}
	if resp.StatusCode/100 != 2 {
		return errors.Errorf("geocode: http %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode geocode response")
	}
	return nil
}
