// cmd/bgutils/commands/run_test.go
package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spitoglou/background-utils/pkg/config"
)

func TestBuildRegistryDefaults(t *testing.T) {
	cfgMgr := config.NewManager()
	require.NoError(t, cfgMgr.Load(nil, ""))

	reg, err := buildRegistry(cfgMgr, t.TempDir())
	require.NoError(t, err)

	// Mail and netwatch default to disabled because they need credentials
	// or a probe target to be useful.
	assert.Equal(t, []string{"heartbeat", "battery", "janitor"}, reg.Names())
}

func TestBuildRegistryAllDisabled(t *testing.T) {
	t.Setenv("BGUTILS_SERVICES_HEARTBEAT_ENABLED", "false")
	t.Setenv("BGUTILS_SERVICES_BATTERY_ENABLED", "false")
	t.Setenv("BGUTILS_SERVICES_JANITOR_ENABLED", "false")

	cfgMgr := config.NewManager()
	require.NoError(t, cfgMgr.Load(nil, ""))

	reg, err := buildRegistry(cfgMgr, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestBuildRegistryEnablesConfiguredServices(t *testing.T) {
	t.Setenv("BGUTILS_SERVICES_NETWATCH_ENABLED", "true")
	t.Setenv("BGUTILS_SERVICES_MAIL_ENABLED", "true")

	cfgMgr := config.NewManager()
	require.NoError(t, cfgMgr.Load(nil, ""))

	reg, err := buildRegistry(cfgMgr, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []string{"heartbeat", "battery", "mailwatch", "netwatch", "janitor"}, reg.Names())
}
