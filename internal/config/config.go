// Package config loads and manages the CLI configuration.
//
// Settings come from mrate.toml in the config directory, overridable with
// MRATE_* environment variables (e.g. MRATE_REMOTE_TOKEN overrides
// remote.token). Missing files fall back to defaults; a token can be stored
// with SetToken or entered interactively with PromptToken.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds all CLI settings.
type Config struct {
	Cache    CacheConfig    `toml:"cache"`
	Remote   RemoteConfig   `toml:"remote"`
	Storage  StorageConfig  `toml:"storage"`
	Identity IdentityConfig `toml:"identity"`
	Daemon   DaemonConfig   `toml:"daemon"`
}

// CacheConfig holds local cache settings.
type CacheConfig struct {
	Path string `toml:"path"`
}

// RemoteConfig holds remote document store settings.
type RemoteConfig struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StorageConfig holds object storage settings for image uploads.
type StorageConfig struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// IdentityConfig identifies the account the CLI acts as.
type IdentityConfig struct {
	UID      string `toml:"uid"`
	FullName string `toml:"full_name"`
	PhotoURL string `toml:"photo_url"`
}

// DaemonConfig holds background daemon settings.
type DaemonConfig struct {
	RefreshSeconds int    `toml:"refresh_seconds"`
	DropDir        string `toml:"drop_dir"`
	LogFile        string `toml:"log_file"`
	DashboardPort  int    `toml:"dashboard_port"`
}

// Dir returns the configuration directory, creating nothing.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(base, "mrate"), nil
}

// File returns the path of the config file inside dir.
func File(dir string) string {
	return filepath.Join(dir, "mrate.toml")
}

// Default returns the built-in defaults rooted at dir.
func Default(dir string) *Config {
	return &Config{
		Cache: CacheConfig{
			Path: filepath.Join(dir, "cache.db"),
		},
		Remote: RemoteConfig{
			BaseURL:        "http://localhost:9090",
			TimeoutSeconds: 15,
		},
		Storage: StorageConfig{
			Region: "us-east-1",
		},
		Daemon: DaemonConfig{
			RefreshSeconds: 30,
			DashboardPort:  8080,
			LogFile:        filepath.Join(dir, "daemon.log"),
		},
	}
}

// Load reads the config file from dir, applying defaults and MRATE_*
// environment overrides. A missing file is not an error.
func Load(dir string) (*Config, error) {
	def := Default(dir)

	v := viper.New()
	v.SetConfigName("mrate")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("MRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("cache.path", def.Cache.Path)
	v.SetDefault("remote.base_url", def.Remote.BaseURL)
	v.SetDefault("remote.token", "")
	v.SetDefault("remote.timeout_seconds", def.Remote.TimeoutSeconds)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", def.Storage.Region)
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("identity.uid", "")
	v.SetDefault("identity.full_name", "")
	v.SetDefault("identity.photo_url", "")
	v.SetDefault("daemon.refresh_seconds", def.Daemon.RefreshSeconds)
	v.SetDefault("daemon.drop_dir", "")
	v.SetDefault("daemon.log_file", def.Daemon.LogFile)
	v.SetDefault("daemon.dashboard_port", def.Daemon.DashboardPort)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &Config{
		Cache: CacheConfig{
			Path: v.GetString("cache.path"),
		},
		Remote: RemoteConfig{
			BaseURL:        v.GetString("remote.base_url"),
			Token:          v.GetString("remote.token"),
			TimeoutSeconds: v.GetInt("remote.timeout_seconds"),
		},
		Storage: StorageConfig{
			Bucket:          v.GetString("storage.bucket"),
			Region:          v.GetString("storage.region"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
		},
		Identity: IdentityConfig{
			UID:      v.GetString("identity.uid"),
			FullName: v.GetString("identity.full_name"),
			PhotoURL: v.GetString("identity.photo_url"),
		},
		Daemon: DaemonConfig{
			RefreshSeconds: v.GetInt("daemon.refresh_seconds"),
			DropDir:        v.GetString("daemon.drop_dir"),
			LogFile:        v.GetString("daemon.log_file"),
			DashboardPort:  v.GetInt("daemon.dashboard_port"),
		},
	}, nil
}

// Init writes a default config file into dir. Fails if one already exists.
func Init(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := File(dir)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	if err := writeTOML(path, Default(dir)); err != nil {
		return "", err
	}
	return path, nil
}

// SetToken stores the remote access token in the config file, creating the
// file with defaults if needed.
func SetToken(dir, token string) error {
	cfg, err := Load(dir)
	if err != nil {
		return err
	}
	cfg.Remote.Token = token

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return writeTOML(File(dir), cfg)
}

// PromptToken reads a token from the terminal without echoing it.
func PromptToken() (string, error) {
	fmt.Fprint(os.Stderr, "Remote access token: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("token is empty")
	}
	return token, nil
}

// LogWriter returns a size-rotated writer for daemon logs.
func LogWriter(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

// writeTOML writes cfg to path atomically. Token material gets 0600.
func writeTOML(path string, cfg *Config) error {
	tmpPath := path + ".tmp"
	// #nosec G304 - controlled path under the config dir
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename config file: %w", err)
	}
	return nil
}
