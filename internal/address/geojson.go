package address

import (
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/geodata/internal/model"
)

// Feature renders a located base address as a GeoJSON point in WGS 84.
// Returns nil when the address has no point.
func Feature(b *model.BaseAddress) *geojson.Feature {
	lat, lon, ok := b.Coordinates()
	if !ok {
		return nil
	}
	props := map[string]any{
		"full_address": deref(b.FullAddress),
		"is_verified":  b.IsVerified,
	}
	if b.NormalAddress != nil {
		props["normal_address"] = *b.NormalAddress
	}
	if b.PostalCode != nil {
		props["postal_code"] = *b.PostalCode
	}
	if b.S2Cell != nil {
		props["s2_cell"] = *b.S2Cell
	}
	return &geojson.Feature{
		ID:         strconv.FormatInt(b.ID, 10),
		Geometry:   geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326),
		Properties: props,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
