//go:build !integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geodata/internal/config"
	"github.com/sells-group/geodata/internal/model"
)

func TestInitStore_SQLite(t *testing.T) {
	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "test.db"),
		},
	}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	defer st.Close() //nolint:errcheck
}

func TestInitStore_SQLiteDefaultDSN(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(origDir) //nolint:errcheck

	cfg = &config.Config{Store: config.StoreConfig{Driver: "sqlite"}}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	assert.FileExists(t, filepath.Join(tmpDir, "geodata.db"))
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "mysql"}}

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestOpenStore_ValidatesPostgresURL(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "postgres"}}

	_, err := openStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url")
}

func TestAddStreet(t *testing.T) {
	ctx := context.Background()
	cfg = &config.Config{
		Store: config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "streets.db")},
	}
	st, err := openStore(ctx)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	part := &model.PartWorld{NameRU: "Европа", NameEN: "Europe"}
	require.NoError(t, st.UpsertPartWorld(ctx, part))
	region := &model.RegionWorld{PartWorldID: part.ID, NameRU: "Восточная Европа", NameEN: "Eastern Europe"}
	require.NoError(t, st.UpsertRegionWorld(ctx, region))
	cca2 := "RU"
	ru := &model.Country{RegionWorldID: region.ID, NameRU: "Россия", NameEN: "Russia", CCA2: &cca2,
		Area: 17098246, Population: 146000000, Latitude: 60, Longitude: 100}
	require.NoError(t, st.UpsertCountry(ctx, ru))
	oblast, err := st.GetNodeTypeByName(ctx, "oblast")
	require.NoError(t, err)
	node := &model.Node{CountryID: ru.ID, NodeTypeID: oblast.ID, NameRU: "Московская область", NameEN: "Moscow Oblast", NameNative: "Московская"}
	require.NoError(t, st.CreateNode(ctx, node))
	city := &model.City{NodeID: node.ID, NameRU: "Балашиха", NameEN: "Balashikha", NameNative: "Балашиха"}
	require.NoError(t, st.CreateCity(ctx, city))

	s, err := addStreet(ctx, st, city.ID, "улица", " Ленина ")
	require.NoError(t, err)
	assert.Equal(t, "Ленина", s.NameNative)
	assert.NotZero(t, s.ID)

	again, err := addStreet(ctx, st, city.ID, "ул.", "Ленина")
	require.NoError(t, err)
	assert.Equal(t, s.ID, again.ID)

	_, err = addStreet(ctx, st, city.ID, "ул.", "  ")
	require.ErrorIs(t, err, model.ErrInvalid)

	_, err = addStreet(ctx, st, city.ID+100, "ул.", "Мира")
	require.Error(t, err)
}
