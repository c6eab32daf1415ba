package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subcommandNames(c *cobra.Command) map[string]bool {
	names := make(map[string]bool)
	for _, sub := range c.Commands() {
		names[sub.Name()] = true
	}
	return names
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(rootCmd)

	expected := []string{"migrate", "download", "timezones", "import", "imports", "node", "street", "address", "geocode", "ip"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "geodata", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	flag := rootCmd.PersistentFlags().Lookup("output")
	require.NotNil(t, flag)
	assert.Equal(t, "table", flag.DefValue)
}

func TestImportCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(importCmd)
	for _, name := range []string{"countries", "states", "cities"} {
		assert.True(t, names[name], "expected import subcommand %q not found", name)
	}
}

func TestImportCommand_Flags(t *testing.T) {
	flag := importStatesCmd.Flags().Lookup("table")
	require.NotNil(t, flag, "import states should have --table flag")
	assert.Equal(t, "states", flag.DefValue)

	flag = importCitiesCmd.Flags().Lookup("table")
	require.NotNil(t, flag)
	assert.Equal(t, "cities", flag.DefValue)

	require.NotNil(t, importCountriesCmd.Flags().Lookup("file"))

	flag = importsCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "20", flag.DefValue)
}

func TestAddressCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(addressCmd)
	for _, name := range []string{"save", "unit", "reverify"} {
		assert.True(t, names[name], "expected address subcommand %q not found", name)
	}

	require.NotNil(t, addressSaveCmd.Flags().Lookup("street"))
	require.NotNil(t, addressSaveCmd.Flags().Lookup("house"))
	require.NotNil(t, addressSaveCmd.Flags().Lookup("building"))

	flag := addressUnitCmd.Flags().Lookup("entrance")
	require.NotNil(t, flag)
	assert.Equal(t, "1", flag.DefValue)
}

func TestGeocodeStatus_Flags(t *testing.T) {
	flag := geocodeStatusCmd.Flags().Lookup("days")
	require.NotNil(t, flag)
	assert.Equal(t, "7", flag.DefValue)
}

func TestStreetAdd_DefaultType(t *testing.T) {
	flag := streetAddCmd.Flags().Lookup("type")
	require.NotNil(t, flag)
	assert.Equal(t, "ул.", flag.DefValue)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "абвгд...", truncate("абвгдежзик", 8))
}
