package config

import (
	"testing"

	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSources_PriorityOrdering(t *testing.T) {
	sources := DefaultSources("bgutils.yaml", nil)
	require.Len(t, sources, 4)

	for i := 1; i < len(sources); i++ {
		assert.Greater(t, sources[i].Priority(), sources[i-1].Priority(),
			"source %s should have higher priority than %s", sources[i].Name(), sources[i-1].Name())
	}
}

func TestDefaultSource_LoadsAllKnownKeys(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, (&DefaultSource{}).Load(k))

	for key := range DefaultConfigAsMap() {
		assert.True(t, k.Exists(key), "expected default key %q to be loaded", key)
	}
}

func TestFileSource_EmptyPathIsNoop(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, (&FileSource{}).Load(k))
	assert.Empty(t, k.Keys())
}

func TestEnvSource_MapsUnderscoredLeafKeys(t *testing.T) {
	t.Setenv("BGUTILS_SERVICES_BATTERY_WARN_BELOW_PERCENT", "30")
	t.Setenv("BGUTILS_CONTROL_ADDR", "127.0.0.1:9000")

	k := koanf.New(".")
	require.NoError(t, (&EnvSource{}).Load(k))

	assert.Equal(t, "30", k.String("services.battery.warn_below_percent"))
	assert.Equal(t, "127.0.0.1:9000", k.String("control.addr"))
}

func TestEnvSource_IgnoresUnprefixedVariables(t *testing.T) {
	t.Setenv("SOME_OTHER_VAR", "value")

	k := koanf.New(".")
	require.NoError(t, (&EnvSource{}).Load(k))

	assert.False(t, k.Exists("some.other.var"))
}
