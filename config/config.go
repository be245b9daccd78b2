package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	EspansoPath  string   `mapstructure:"espanso_path"`
	Repo         string   `mapstructure:"repo"`
	Branch       string   `mapstructure:"branch"`
	Token        string   `mapstructure:"token"`
	DaemonPort   int      `mapstructure:"daemon_port"`
	DBPath       string   `mapstructure:"db_path"`
	SyncInterval int      `mapstructure:"sync_interval"`
	DebounceMS   int      `mapstructure:"debounce_ms"`
	BufferSize   int      `mapstructure:"buffer_size"`
	IgnoreList   []string `mapstructure:"ignore_list"`
}

var Default = Config{
	Branch:       "main",
	DaemonPort:   9402,
	DBPath:       "espansync.db",
	SyncInterval: 300,
	DebounceMS:   500,
	BufferSize:   100,
	IgnoreList:   []string{".git", ".DS_Store", "*.tmp", "*.swp", "*~"},
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home dir: %w", err)
	}

	configDir := filepath.Join(home, ".espansync")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	viper.SetDefault("espanso_path", defaultEspansoPath(home))
	viper.SetDefault("branch", Default.Branch)
	viper.SetDefault("daemon_port", Default.DaemonPort)
	viper.SetDefault("db_path", filepath.Join(configDir, Default.DBPath))
	viper.SetDefault("sync_interval", Default.SyncInterval)
	viper.SetDefault("debounce_ms", Default.DebounceMS)
	viper.SetDefault("buffer_size", Default.BufferSize)
	viper.SetDefault("ignore_list", Default.IgnoreList)

	viper.SetEnvPrefix("ESPANSYNC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// defaultEspansoPath mirrors espanso's own config dir lookup per platform.
func defaultEspansoPath(home string) string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "espanso")
	}

	return filepath.Join(home, ".config", "espanso")
}
