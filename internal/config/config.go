package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/thiagokokada/gitbind/internal/git"
)

const (
	KeyLogLevel      = "log.level"
	KeyLogFormat     = "log.format"
	KeyWatchDebounce = "watch.debounce"

	EnvPrefix = "GITBIND"
	fileName  = "gitbind"
)

type Config struct {
	Log   LogConfig
	Watch WatchConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type WatchConfig struct {
	Debounce time.Duration
}

// SetDefaults registers the default value of every known key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyWatchDebounce, git.DefaultWatchDelay)
}

// Load reads configuration into v and decodes it. When cfgFile is empty,
// gitbind.yaml is searched in the working directory and then in
// $HOME/.config/gitbind; a missing file is not an error. Environment
// variables (GITBIND_LOG_LEVEL, ...) override the file, and flags bound to
// v by the caller override both.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "gitbind"))
		}
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment")
	} else {
		slog.Debug("using config file", slog.String("path", v.ConfigFileUsed()))
	}
	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		Watch: WatchConfig{
			Debounce: v.GetDuration(KeyWatchDebounce),
		},
	}
	if cfg.Watch.Debounce < 0 {
		return Config{}, fmt.Errorf("%s must not be negative, got %s", KeyWatchDebounce, cfg.Watch.Debounce)
	}
	return cfg, nil
}
