package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeFlagUsesConfiguredZone(t *testing.T) {
	viper.Set("timezone", "UTC")
	t.Cleanup(func() { viper.Set("timezone", "") })

	got, err := parseTimeFlag("2025-03-11T09:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC), got)

	_, err = parseTimeFlag("tomorrow")
	assert.Error(t, err)
}

func TestParseDateFlag(t *testing.T) {
	viper.Set("timezone", "UTC")
	t.Cleanup(func() { viper.Set("timezone", "") })

	d, err := parseDateFlag("date", "")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDateFlag("date", "2025-03-11")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), *d)

	_, err = parseDateFlag("start", "11/03/2025")
	assert.EqualError(t, err, "--start must be 2006-01-02")
}

func TestLocationRejectsUnknownZone(t *testing.T) {
	viper.Set("timezone", "Mars/Olympus_Mons")
	t.Cleanup(func() { viper.Set("timezone", "") })

	_, err := location()
	assert.Error(t, err)
}

func TestCommandTreeRegistersEverything(t *testing.T) {
	registerCommands()
	t.Cleanup(func() { rootCmd.ResetCommands() })

	for _, path := range [][]string{
		{"schedule"}, {"cancel"}, {"list", "upcoming"}, {"list", "pending"},
		{"slot", "providers"}, {"report", "cancellations"}, {"provider", "agenda"}, {"patient", "deactivate"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
