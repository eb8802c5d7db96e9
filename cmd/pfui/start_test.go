package main

import (
	"testing"

	"github.com/b3nj5m1n/pfui/internal/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisksCommandRejectsMissingConfig(t *testing.T) {
	t.Parallel()
	cmd := newDisksCommand(config.NewLoader(afero.NewMemMapFs()))
	cmd.SetArgs([]string{"--config", "/nope/pfui.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
}

func TestDisksCommandRejectsInvalidLogLevel(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/pfui/pfui.yaml", []byte("device_dir: /dev\n"), 0o644))
	cmd := newDisksCommand(config.NewLoader(fs))
	cmd.SetArgs([]string{"--config", "/etc/pfui/pfui.yaml", "--log-level", "loud"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestRootCommandLayout(t *testing.T) {
	t.Parallel()
	root := newRootCommand()

	disks, _, err := root.Find([]string{"start", "disks"})
	require.NoError(t, err)
	assert.Equal(t, "disks", disks.Name())
	assert.NotNil(t, disks.Flags().Lookup("config"))
	assert.NotNil(t, disks.Flags().Lookup("log-level"))
}
