package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)

	assert.Equal(t, "/dev", cfg.DeviceDir)
	assert.Equal(t, DefaultMountRoot(), cfg.MountRoot)
	assert.Equal(t, "proc", cfg.MountTable)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.InitialDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.Delay)
	assert.Equal(t, 10, cfg.Retry.Attempts)
	assert.Empty(t, cfg.Ignore)
	assert.False(t, cfg.ScanExisting)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.ConfigPath)
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	yaml := `
mount_root: /media/alice
mount_table: udisks2
retry:
  delay: 250ms
  attempts: 4
ignore: [sda1, sda2]
scan_existing: true
log:
  level: debug
`
	require.NoError(t, afero.WriteFile(fs, "/home/alice/pfui.yaml", []byte(yaml), 0o600))

	cfg, err := Load(fs, "/home/alice/pfui.yaml")
	require.NoError(t, err)

	assert.Equal(t, "/media/alice", cfg.MountRoot)
	assert.Equal(t, "udisks2", cfg.MountTable)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Delay)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.InitialDelay, "unset keys keep defaults")
	assert.Equal(t, 4, cfg.Retry.Attempts)
	assert.Equal(t, []string{"sda1", "sda2"}, cfg.Ignore)
	assert.True(t, cfg.ScanExisting)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/home/alice/pfui.yaml", cfg.ConfigPath)
}

func TestLoad_SearchPath(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	path := filepath.Join(xdg.ConfigHome, "pfui", "pfui.toml")
	require.NoError(t, afero.WriteFile(fs, path, []byte("mount_root = \"/media/bob/\"\n"), 0o600))

	cfg, err := Load(fs, "")
	require.NoError(t, err)
	assert.Equal(t, "/media/bob", cfg.MountRoot, "paths are cleaned")
	assert.Equal(t, path, cfg.ConfigPath)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	_, err := Load(afero.NewMemMapFs(), "/nope/pfui.yaml")
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown backend":  "watch_backend: kqueue\n",
		"unknown table":    "mount_table: fstab\n",
		"zero attempts":    "retry:\n  attempts: 0\n",
		"negative delay":   "retry:\n  delay: -1s\n",
		"same directories": "device_dir: /dev\nmount_root: /dev\n",
		"bad log level":    "log:\n  level: loud\n",
	}

	for name, yaml := range tests {
		yaml := yaml
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/etc/pfui/pfui.yaml", []byte(yaml), 0o600))

			_, err := Load(fs, "/etc/pfui/pfui.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PFUI_MOUNT_ROOT", "/media/env")
	t.Setenv("PFUI_RETRY_ATTEMPTS", "3")
	t.Setenv("PFUI_IGNORE", "sda1,sda3")

	cfg, err := Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)

	assert.Equal(t, "/media/env", cfg.MountRoot)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, []string{"sda1", "sda3"}, cfg.Ignore)
}

func TestLoader_FlagOverride(t *testing.T) {
	t.Parallel()

	l := NewLoader(afero.NewMemMapFs())
	l.Viper().Set("log.level", "warn")

	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}
