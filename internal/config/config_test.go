package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizconv/internal/config"
)

type testConfig struct {
	HTTP struct {
		Port int32
	}

	Convert struct {
		Format              string
		AllowUnknownVersion bool
	}
}

func TestLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("http:\n  port: 8080\n"), 0o600))
	t.Setenv("QUIZCONV_CONVERT_ALLOWUNKNOWNVERSION", "true")

	var c testConfig
	c.Convert.Format = "js"

	require.NoError(t, config.Load(file, &c))

	assert.Equal(t, int32(8080), c.HTTP.Port)
	assert.Equal(t, "js", c.Convert.Format, "defaults should survive")
	assert.True(t, c.Convert.AllowUnknownVersion, "environment should override")
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("http:\n  port: 8080\nconvert:\n  format: xml\n"), 0o600))
	t.Setenv("QUIZCONV_HTTP_PORT", "9090")
	t.Setenv("QUIZCONV_CONVERT_ALLOWUNKNOWNVERSION", "true")

	var c testConfig
	require.NoError(t, config.Load(file, &c))

	assert.Equal(t, int32(9090), c.HTTP.Port, "environment should win over the file")
	assert.Equal(t, "xml", c.Convert.Format)
	assert.True(t, c.Convert.AllowUnknownVersion, "keys missing from the file should still read the environment")
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("QUIZCONV_CONVERT_FORMAT", "xml")

	var c testConfig
	require.NoError(t, config.Load("", &c))

	assert.Equal(t, "xml", c.Convert.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	var c testConfig
	err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), &c)

	assert.Error(t, err)
}
