package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Media   MediaConfig   `mapstructure:"media"`
	Audio   AudioConfig   `mapstructure:"audio"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the streaming backend configuration
type ServerConfig struct {
	URL          string `mapstructure:"url"`           // API base URL
	AccessToken  string `mapstructure:"access_token"`  // Bearer token for authenticated calls
	RefreshToken string `mapstructure:"refresh_token"` // Exchanged on 401/403
}

// MediaConfig holds media URL formatting configuration
type MediaConfig struct {
	CloudName string `mapstructure:"cloud_name"` // Cloudinary cloud for CDN-relative paths
}

// AudioConfig holds audio output configuration
type AudioConfig struct {
	Volume     float64 `mapstructure:"volume"`      // Initial volume [0,1]
	Notify     bool    `mapstructure:"notify"`      // Desktop now-playing notifications
	SampleRate int     `mapstructure:"sample_rate"` // Speaker sample rate in Hz
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme     string `mapstructure:"theme"`
	ShowQuote bool   `mapstructure:"show_quote"` // Rotating quote when nothing is playing
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{},
		Media:  MediaConfig{},
		Audio: AudioConfig{
			Volume:     0.7,
			Notify:     true,
			SampleRate: 44100,
		},
		UI: UIConfig{
			Theme:     "default",
			ShowQuote: true,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "strum", "strum.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "strum", "strum.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "strum")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "strum")
	}
}

// defaultCachePath returns the default cache directory for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "strum", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "strum", "cache")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("STRUM")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("server.url", cfg.Server.URL)
	viper.Set("server.access_token", cfg.Server.AccessToken)
	viper.Set("server.refresh_token", cfg.Server.RefreshToken)

	viper.Set("media.cloud_name", cfg.Media.CloudName)

	viper.Set("audio.volume", cfg.Audio.Volume)
	viper.Set("audio.notify", cfg.Audio.Notify)
	viper.Set("audio.sample_rate", cfg.Audio.SampleRate)

	viper.Set("ui.theme", cfg.UI.Theme)
	viper.Set("ui.show_quote", cfg.UI.ShowQuote)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveTokens updates just the token pair in the configuration. Called by the
// API client after a successful refresh.
func SaveTokens(access, refresh string) error {
	viper.Set("server.access_token", access)
	viper.Set("server.refresh_token", refresh)

	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ClearSession removes the stored token pair while preserving other settings
func ClearSession() error {
	return SaveTokens("", "")
}

// IsConfigured returns true if the server URL is set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != ""
}

// IsAuthenticated returns true if a bearer token is stored
func (c *Config) IsAuthenticated() bool {
	return c.Server.AccessToken != ""
}

// GetCachePath returns the cache directory path
func GetCachePath() string {
	return defaultCachePath()
}
