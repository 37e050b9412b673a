package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfigEnvOverridesFlatKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "config.yaml"),
		[]byte("osrm_base_url: http://from-file\nnominatim_rps: 2\n"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("OSRM_BASE_URL", "http://from-env")

	viper.Reset()
	t.Cleanup(viper.Reset)

	require.NoError(t, ReadConfig())
	assert.Equal(t, "http://from-env", viper.GetString("OSRM_BASE_URL"))
	assert.Equal(t, "http://from-env", viper.GetString("osrm_base_url"))
	assert.Equal(t, 2.0, viper.GetFloat64("NOMINATIM_RPS"))
}
