package geocode

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"
)

// newTestLimiter creates a rate limiter that effectively does not limit for tests.
func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// newTestGeocoder points a geocoder at a test server.
func newTestGeocoder(t *testing.T, h http.HandlerFunc) *geocoder {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &geocoder{
		httpClient: srv.Client(),
		apiKey:     "test-key",
		baseURL:    srv.URL + "/v1/",
		lang:       "ru_RU",
		limiter:    newTestLimiter(),
	}
}
