package geocode

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const balashikhaResponse = `{
  "response": {
    "GeoObjectCollection": {
      "metaDataProperty": {"GeocoderResponseMetaData": {"found": "1", "results": "1"}},
      "featureMember": [{
        "GeoObject": {
          "metaDataProperty": {
            "GeocoderMetaData": {
              "kind": "house",
              "text": "Россия, Московская область, Балашиха, улица Ленина, 5",
              "precision": "exact",
              "Address": {
                "country_code": "RU",
                "formatted": "Россия, Московская область, Балашиха, улица Ленина, 5",
                "postal_code": "143900"
              }
            }
          },
          "Point": {"pos": "37.938199 55.796339"}
        }
      }]
    }
  }
}`

func TestYandexGeocode_Match(t *testing.T) {
	var got *http.Request
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, balashikhaResponse)
	})

	res, err := g.Geocode(context.Background(), "Россия, область Московская, г. Балашиха, ул. Ленина, д. 5")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.True(t, res.HasPoint)
	assert.InDelta(t, 55.796339, res.Latitude, 1e-9)
	assert.InDelta(t, 37.938199, res.Longitude, 1e-9)
	assert.Equal(t, "143900", res.PostalCode)
	assert.Equal(t, "Россия, Московская область, Балашиха, улица Ленина, 5", res.Formatted)
	assert.Equal(t, "exact", res.Precision)
	assert.Equal(t, "house", res.Kind)

	require.NotNil(t, got)
	q := got.URL.Query()
	assert.Equal(t, "/v1/", got.URL.Path)
	assert.Equal(t, "test-key", q.Get("apikey"))
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "1", q.Get("results"))
	assert.Equal(t, "ru_RU", q.Get("lang"))
	assert.Contains(t, q.Get("geocode"), "г. Балашиха")
}

func TestYandexGeocode_NoCandidates(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"response":{"GeoObjectCollection":{"featureMember":[]}}}`)
	})

	res, err := g.Geocode(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestYandexGeocode_PartialCandidate(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"response":{"GeoObjectCollection":{"featureMember":[
			{"GeoObject":{"Point":{"pos":"37.6 55.7"}}}
		]}}}`)
	})

	res, err := g.Geocode(context.Background(), "Москва")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.True(t, res.HasPoint)
	assert.Empty(t, res.PostalCode)
	assert.Empty(t, res.Formatted)
}

func TestYandexGeocode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"forbidden", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"statusCode":403,"error":"Forbidden","message":"Invalid api key"}`)
		}},
		{"malformed json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"response":`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGeocoder(t, tt.handler)
			_, err := g.Geocode(context.Background(), "query")
			require.Error(t, err)
		})
	}
}

func TestYandexGeocode_Timeout(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	g.httpClient.Timeout = 50 * time.Millisecond

	_, err := g.Geocode(context.Background(), "query")
	require.Error(t, err)
}

func TestYandexGeocode_RequiresKeyAndQuery(t *testing.T) {
	_, err := NewClient("").Geocode(context.Background(), "query")
	require.Error(t, err)

	_, err = NewClient("key").Geocode(context.Background(), "  ")
	require.Error(t, err)
}

func TestParsePos(t *testing.T) {
	lat, lon, ok := ParsePos("37.617635 55.755814")
	require.True(t, ok)
	assert.InDelta(t, 55.755814, lat, 1e-9)
	assert.InDelta(t, 37.617635, lon, 1e-9)

	for _, bad := range []string{"", "37.6", "a b", "37.6 b", "1 2 3"} {
		_, _, ok := ParsePos(bad)
		assert.False(t, ok, bad)
	}
}

func TestNewClient_Options(t *testing.T) {
	hc := &http.Client{}
	c := NewClient("key",
		WithHTTPClient(hc),
		WithTimeout(3*time.Second),
		WithBaseURL("http://localhost/geo/"),
		WithLang("en_US"),
		WithRateLimit(0),
	).(*geocoder)

	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, 3*time.Second, hc.Timeout)
	assert.Equal(t, "http://localhost/geo/", c.baseURL)
	assert.Equal(t, "en_US", c.lang)

	d := NewClient("key", WithBaseURL(""), WithLang("")).(*geocoder)
	assert.Equal(t, DefaultBaseURL, d.baseURL)
	assert.Equal(t, "ru_RU", d.lang)
}
