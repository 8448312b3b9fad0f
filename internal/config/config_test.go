package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ModeOffline, cfg.Mode)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "./data", cfg.BlobBasePath)
	assert.Equal(t, 3, cfg.AgeBandWidth)
	assert.Equal(t, "five-band", cfg.BandScheme)
	assert.False(t, cfg.ExcludeSelf)
	assert.Equal(t, language.Turkish, cfg.Locale())
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3010"}, cfg.CORSOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MOTORSKILL_HTTP_ADDR", ":9090")
	t.Setenv("MOTORSKILL_DB_DRIVER", "memory")
	t.Setenv("MOTORSKILL_AGE_BAND_WIDTH", "6")
	t.Setenv("MOTORSKILL_EXCLUDE_SELF", "true")
	t.Setenv("MOTORSKILL_BAND_SCHEME", "three-band")
	t.Setenv("MOTORSKILL_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, 6, cfg.AgeBandWidth)
	assert.True(t, cfg.ExcludeSelf)
	assert.Equal(t, "three-band", cfg.BandScheme)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motorskill.yaml")
	body := "http_addr: \":7070\"\nname_locale: en\ncors_origins:\n  - https://x.example\n  - https://y.example\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, language.English, cfg.Locale())
	assert.Equal(t, []string{"https://x.example", "https://y.example"}, cfg.CORSOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"MOTORSKILL_DB_DRIVER":      "mysql",
		"MOTORSKILL_AGE_BAND_WIDTH": "0",
		"MOTORSKILL_BAND_SCHEME":    "seven-band",
		"MOTORSKILL_MODE":           "online", // dev secret refused
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := Load(viper.New(), "")
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MOTORSKILL_LOG_LEVEL=debug\n"), 0o644))
	t.Setenv("MOTORSKILL_LOG_LEVEL", "")
	os.Unsetenv("MOTORSKILL_LOG_LEVEL")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}
