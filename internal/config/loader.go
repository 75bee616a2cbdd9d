package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configDir  = ".sqlfn"
	configFile = "config"
	configType = "yaml"
	envPrefix  = "SQLFN"
)

// DefaultDir returns $SQLFN_CONFIG_DIR, or ~/.sqlfn.
func DefaultDir() (string, error) {
	if dir := os.Getenv(envPrefix + "_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configFile)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)

	// SQLFN_PREFERENCES_TIMEOUT=5s and the like override the file.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("preferences.theme", "default")
	v.SetDefault("preferences.default_connection", "")
	v.SetDefault("preferences.timeout", 30*time.Second)
	v.SetDefault("preferences.batch_size", 1000)
	v.SetDefault("preferences.log_level", "warn")
	return v
}

// Load reads dir/config.yaml. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	v := newViper(dir)
	cfg := &Config{}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to dir/config.yaml. Passwords of profiles that read them
// from the keyring are never written.
func Save(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	conns := make([]Connection, len(cfg.Connections))
	for i, c := range cfg.Connections {
		if c.PasswordFromKeyring {
			c.Password = ""
		}
		conns[i] = c
	}

	v := viper.New()
	v.Set("connections", conns)
	v.Set("preferences", cfg.Preferences)

	path := filepath.Join(dir, configFile+"."+configType)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SaveConnection adds or replaces conn in the config stored in dir.
func SaveConnection(dir string, conn Connection) error {
	cfg, err := Load(dir)
	if err != nil {
		return err
	}
	cfg.PutConnection(conn)
	return Save(dir, cfg)
}
