// Package geocode resolves free-text addresses with the Yandex Geocoder HTTP API.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Yandex Geocoder endpoint.
const DefaultBaseURL = "https://geocode-maps.yandex.ru/v1/"

// Client geocodes a single free-text address.
type Client interface {
	// Geocode asks the provider for the first candidate of query. A query with
	// no candidates returns a Result with Matched=false and a nil error.
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Result holds the first candidate returned by the provider.
type Result struct {
	Matched    bool
	Formatted  string  // provider-normalized address, "" when absent
	Latitude   float64 // valid only when HasPoint
	Longitude  float64
	HasPoint   bool
	PostalCode string // "" when absent
	Precision  string // "exact", "number", "near", "street", "other"
	Kind       string // "house", "street", "locality", ...
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(g *geocoder) {
		g.httpClient.Timeout = d
	}
}

// WithRateLimit caps outgoing requests per second. Zero or negative disables the cap.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		if rps <= 0 {
			g.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		if u != "" {
			g.baseURL = u
		}
	}
}

// WithLang sets the response language, e.g. "ru_RU".
func WithLang(lang string) Option {
	return func(g *geocoder) {
		if lang != "" {
			g.lang = lang
		}
	}
}

type geocoder struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	lang       string
	limiter    *rate.Limiter
}

// NewClient creates a Yandex geocoding Client.
func NewClient(apiKey string, opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		lang:       "ru_RU",
		limiter:    rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}
