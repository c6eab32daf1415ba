package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// yandexResponse is the JSON response of the Yandex Geocoder API.
type yandexResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject yandexGeoObject `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

type yandexGeoObject struct {
	MetaDataProperty struct {
		GeocoderMetaData struct {
			Kind      string `json:"kind"`
			Text      string `json:"text"`
			Precision string `json:"precision"`
			Address   struct {
				CountryCode string `json:"country_code"`
				Formatted   string `json:"formatted"`
				PostalCode  string `json:"postal_code"`
			} `json:"Address"`
		} `json:"GeocoderMetaData"`
	} `json:"metaDataProperty"`
	Point struct {
		Pos string `json:"pos"`
	} `json:"Point"`
}

// Geocode issues one request for query asking for a single result.
func (g *geocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	if g.apiKey == "" {
		return nil, eris.New("geocode: yandex api key not configured")
	}
	if strings.TrimSpace(query) == "" {
		return nil, eris.New("geocode: empty query")
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: yandex rate limit")
	}

	params := url.Values{
		"apikey":  {g.apiKey},
		"geocode": {query},
		"format":  {"json"},
		"results": {"1"},
		"lang":    {g.lang},
	}

	reqURL := g.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: yandex build request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: yandex request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("geocode: yandex returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: yandex read body")
	}

	var yr yandexResponse
	if err := json.Unmarshal(body, &yr); err != nil {
		return nil, eris.Wrap(err, "geocode: yandex parse response")
	}

	members := yr.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		return &Result{Matched: false}, nil
	}
	return resultFromGeoObject(members[0].GeoObject), nil
}

func resultFromGeoObject(obj yandexGeoObject) *Result {
	meta := obj.MetaDataProperty.GeocoderMetaData
	r := &Result{
		Matched:    true,
		Formatted:  meta.Address.Formatted,
		PostalCode: meta.Address.PostalCode,
		Precision:  meta.Precision,
		Kind:       meta.Kind,
	}
	if lat, lon, ok := ParsePos(obj.Point.Pos); ok {
		r.Latitude, r.Longitude, r.HasPoint = lat, lon, true
	}
	return r
}

// ParsePos reads the provider's "longitude latitude" pair and returns it as
// latitude, longitude.
func ParsePos(pos string) (lat, lon float64, ok bool) {
	fields := strings.Fields(pos)
	if len(fields) != 2 {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, false
	}
	lat, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}
