package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server         ServerConfig    `yaml:"server" mapstructure:"server"`
	Logging        LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	Paths          PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Downloads      DownloadsConfig `yaml:"downloads" mapstructure:"downloads"`
	Authentication AuthConfig      `yaml:"authentication" mapstructure:"authentication"`
	CheckUpdates   bool            `yaml:"check_updates" mapstructure:"check_updates"`
	AutoArchive    bool            `yaml:"auto_archive" mapstructure:"auto_archive"`
	path           string
}

type ServerConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Host    string `yaml:"host" mapstructure:"host"`
	Port    int    `yaml:"port" mapstructure:"port"`
}

type LoggingConfig struct {
	LogPath           string `yaml:"log_path" mapstructure:"log_path"`
	EnableFileLogging bool   `yaml:"enable_file_logging" mapstructure:"enable_file_logging"`
}

type PathsConfig struct {
	DownloadPath      string `yaml:"download_path" mapstructure:"download_path"`
	DownloaderPath    string `yaml:"downloader_path" mapstructure:"downloader_path"`
	LocalDatabasePath string `yaml:"local_database_path" mapstructure:"local_database_path"`
}

type DownloadsConfig struct {
	// MaxConcurrent caps how many downloads transfer at once.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// StaggerMs spaces out sibling downloads of a multi-item post.
	StaggerMs int `yaml:"stagger_ms" mapstructure:"stagger_ms"`
	// SettleTimeoutMs bounds the wait for a dismissed download to stop.
	SettleTimeoutMs int `yaml:"settle_timeout_ms" mapstructure:"settle_timeout_ms"`
	// CookieSource is one of none, chrome, firefox, edge.
	CookieSource string `yaml:"cookie_source" mapstructure:"cookie_source"`
	Quality      string `yaml:"quality" mapstructure:"quality"`
}

func (d DownloadsConfig) StaggerInterval() time.Duration {
	return time.Duration(d.StaggerMs) * time.Millisecond
}

func (d DownloadsConfig) SettleTimeout() time.Duration {
	return time.Duration(d.SettleTimeoutMs) * time.Millisecond
}

type AuthConfig struct {
	RequireAuth  bool   `yaml:"require_auth" mapstructure:"require_auth"`
	Username     string `yaml:"username" mapstructure:"username"`
	PasswordHash string `yaml:"password" mapstructure:"password"`
	Secret       string `yaml:"secret" mapstructure:"secret"`
}

var (
	instance     *Config
	instanceOnce sync.Once
)

func Instance() *Config {
	if instance == nil {
		instanceOnce.Do(func() {
			instance = &Config{}
			instance.Downloads.MaxConcurrent = 3
			instance.Downloads.StaggerMs = 200
			instance.Downloads.SettleTimeoutMs = 3000
		})
	}
	return instance
}

func (c *Config) SetPath(path string) { c.path = path }

// Path of the directory containing the config file
func (c *Config) Dir() string { return filepath.Dir(c.path) }

// Absolute path of the config file
func (c *Config) Path() string { return c.path }

// WriteDefault materializes the config file with the current values so
// a first run leaves an editable file behind. Existing files are never
// touched.
func (c *Config) WriteDefault() error {
	if _, err := os.Stat(c.path); err == nil {
		return nil
	}

	out, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, out, 0o644)
}
