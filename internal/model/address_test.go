package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressFullAddress_UnitOrder(t *testing.T) {
	base := BaseAddress{FullAddress: ptr("Россия, область Московская, г. Балашиха, ул. Ленина, д. 1")}
	a := Address{Entrance: 2, Floor: ptr(5), Apartment: 15}

	full := a.FullAddress(base)
	assert.Equal(t, "Россия, область Московская, г. Балашиха, ул. Ленина, д. 1, подъезд 2, этаж 5, кв. 15", full)

	i := strings.Index(full, "подъезд 2")
	j := strings.Index(full, "этаж 5")
	k := strings.Index(full, "кв. 15")
	require.True(t, i >= 0 && j >= 0 && k >= 0)
	assert.Less(t, i, j)
	assert.Less(t, j, k)
}

func TestAddressFullAddress_NoFloor(t *testing.T) {
	base := BaseAddress{FullAddress: ptr("addr")}
	a := Address{Entrance: 1, Apartment: 7}
	assert.Equal(t, "addr, подъезд 1, кв. 7", a.FullAddress(base))
}

func TestAddressEmptyBase(t *testing.T) {
	a := Address{Entrance: 1, Apartment: 7}
	assert.Equal(t, "", a.FullAddress(BaseAddress{}))
	assert.Equal(t, "", a.NormalAddress(BaseAddress{NormalAddress: ptr("")}))
}

func TestAddressNormalAddress(t *testing.T) {
	base := BaseAddress{NormalAddress: ptr("Россия, Балашиха, улица Ленина, 1")}
	a := Address{Entrance: 3, Floor: ptr(2), Apartment: 40}
	assert.Equal(t, "Россия, Балашиха, улица Ленина, 1, подъезд 3, этаж 2, кв. 40", a.NormalAddress(base))
}

func TestAddressValidate(t *testing.T) {
	valid := Address{Entrance: 1, Apartment: 1}
	require.NoError(t, valid.Validate())
	require.NoError(t, Address{Entrance: 40, Floor: ptr(250), Apartment: 32000, Intercom: ptr(32000)}.Validate())

	tests := []struct {
		name string
		addr Address
	}{
		{"entrance zero", Address{Entrance: 0, Apartment: 1}},
		{"entrance over", Address{Entrance: 41, Apartment: 1}},
		{"floor zero", Address{Entrance: 1, Floor: ptr(0), Apartment: 1}},
		{"floor over", Address{Entrance: 1, Floor: ptr(251), Apartment: 1}},
		{"apartment zero", Address{Entrance: 1, Apartment: 0}},
		{"apartment over", Address{Entrance: 1, Apartment: 32001}},
		{"intercom over", Address{Entrance: 1, Apartment: 1, Intercom: ptr(32001)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.addr.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestBaseAddressValidate(t *testing.T) {
	assert.NoError(t, BaseAddress{House: "12А", Building: "2"}.Validate())
	assert.Error(t, BaseAddress{House: "  "}.Validate())
	assert.Error(t, BaseAddress{House: strings.Repeat("1", MaxHouseLen+1)}.Validate())
	assert.Error(t, BaseAddress{House: "1", Building: strings.Repeat("к", MaxBuildingLen+1)}.Validate())
	assert.Error(t, BaseAddress{House: "1", PostalCode: ptr("12345678901")}.Validate())
	assert.Error(t, BaseAddress{House: "1", Latitude: ptr(100.0)}.Validate())
}

func TestBaseAddressCoordinates(t *testing.T) {
	_, _, ok := BaseAddress{Latitude: ptr(55.75)}.Coordinates()
	assert.False(t, ok)

	lat, lon, ok := BaseAddress{Latitude: ptr(55.75), Longitude: ptr(37.61)}.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 55.75, lat)
	assert.Equal(t, 37.61, lon)
}
