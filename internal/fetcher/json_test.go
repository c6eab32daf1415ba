package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
	Code string `json:"cca2"`
}

func TestDecodeJSONArray(t *testing.T) {
	items, err := DecodeJSONArray[item](context.Background(),
		strings.NewReader(`[{"name":"Russia","cca2":"RU"},{"name":"Belarus","cca2":"BY"}]`))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, item{Name: "Belarus", Code: "BY"}, items[1])
}

func TestDecodeJSONArray_Empty(t *testing.T) {
	items, err := DecodeJSONArray[item](context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = DecodeJSONArray[item](context.Background(), strings.NewReader("[]"))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDecodeJSONArray_NotArray(t *testing.T) {
	_, err := DecodeJSONArray[item](context.Background(), strings.NewReader(`{"name":"x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected '['")
}

func TestDecodeJSONArray_BadElement(t *testing.T) {
	_, err := DecodeJSONArray[item](context.Background(), strings.NewReader(`[{"name":1}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode element 0")
}
