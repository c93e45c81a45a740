package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderalabs/ragline/internal/config"
)

func TestSettingsCmd_Flags(t *testing.T) {
	for _, name := range []string{"pipeline", "data-dir", "verbose-logging"} {
		assert.NotNil(t, settingsCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestApplySettingsFlags(t *testing.T) {
	cmd := settingsCmd
	require.NoError(t, cmd.Flags().Set("pipeline", "custom.yml"))
	defer func() {
		require.NoError(t, cmd.Flags().Set("pipeline", ""))
		cmd.Flags().Lookup("pipeline").Changed = false
	}()

	settings := &config.Settings{DataDir: "/srv/ragline"}
	changed := applySettingsFlags(cmd, settings)

	assert.True(t, changed)
	assert.Equal(t, "custom.yml", settings.PipelinePath)
	// Flags that were not passed leave their settings alone.
	assert.Equal(t, "/srv/ragline", settings.DataDir)
}

func TestPrintSettings_Defaults(t *testing.T) {
	buf := new(bytes.Buffer)
	cmd := settingsCmd
	cmd.SetOut(buf)

	printSettings(cmd, &config.Settings{})

	assert.Contains(t, buf.String(), "pipeline: pipeline.yml")
	assert.Contains(t, buf.String(), "data_dir: (from pipeline)")
}
