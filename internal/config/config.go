package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/b3nj5m1n/pfui/internal/drives"
	"github.com/b3nj5m1n/pfui/internal/mounttable"
	"github.com/b3nj5m1n/pfui/internal/sysutil"
	"github.com/b3nj5m1n/pfui/internal/watcher"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	appName   = "pfui"
	envPrefix = "PFUI"
)

type Config struct {
	DeviceDir    string             `mapstructure:"device_dir" validate:"required"`
	MountRoot    string             `mapstructure:"mount_root" validate:"required,nefield=DeviceDir"`
	WatchBackend string             `mapstructure:"watch_backend" validate:"oneof=inotify fsnotify"`
	MountTable   string             `mapstructure:"mount_table" validate:"oneof=proc udisks2"`
	Retry        drives.RetryPolicy `mapstructure:"retry"`
	Ignore       []string           `mapstructure:"ignore"`
	ScanExisting bool               `mapstructure:"scan_existing"`
	Log          sysutil.LogConfig  `mapstructure:"log"`

	// ConfigPath is the file that was read, empty when running on defaults.
	ConfigPath string `mapstructure:"-"`
}

// Loader reads configuration from files, the environment and bound flags.
type Loader struct {
	v  *viper.Viper
	fs afero.Fs
}

func NewLoader(fsys afero.Fs) *Loader {
	v := viper.New()
	v.SetFs(fsys)
	setDefaults(v)
	return &Loader{v: v, fs: fsys}
}

// Viper exposes the underlying instance so commands can bind their flags.
func (l *Loader) Viper() *viper.Viper { return l.v }

// Load reads explicitPath when given (it must exist), otherwise the first pfui.{yaml,toml,json}
// found in $XDG_CONFIG_HOME/pfui or /etc/pfui. Missing optional files are not an error.
func (l *Loader) Load(explicitPath string) (*Config, error) {
	v := l.v
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName(appName)
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, appName))
		v.AddConfigPath(filepath.Join("/etc", appName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.DeviceDir = filepath.Clean(cfg.DeviceDir)
	cfg.MountRoot = filepath.Clean(cfg.MountRoot)
	cfg.ConfigPath = v.ConfigFileUsed()

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is NewLoader(fsys).Load(explicitPath).
func Load(fsys afero.Fs, explicitPath string) (*Config, error) {
	return NewLoader(fsys).Load(explicitPath)
}

func setDefaults(v *viper.Viper) {
	retry := drives.DefaultRetryPolicy()

	v.SetDefault("device_dir", "/dev")
	v.SetDefault("mount_root", DefaultMountRoot())
	v.SetDefault("watch_backend", watcher.DefaultBackend())
	v.SetDefault("mount_table", mounttable.KindProc)
	v.SetDefault("retry.initial_delay", retry.InitialDelay)
	v.SetDefault("retry.delay", retry.Delay)
	v.SetDefault("retry.attempts", retry.Attempts)
	v.SetDefault("ignore", []string{})
	v.SetDefault("scan_existing", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dev", false)
	v.SetDefault("log.file", "")
}

// DefaultMountRoot is where udisks mounts removable media for the invoking user.
func DefaultMountRoot() string {
	return filepath.Join("/run/media", currentUser())
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

func validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
