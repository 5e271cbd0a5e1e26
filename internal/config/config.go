package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"auto3d/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains on-disk locations used by the poller.
type Paths struct {
	StateFile string `toml:"state_file"`
	HistoryDB string `toml:"history_db"`
	LogDir    string `toml:"log_dir"`
}

// Catalog contains Shopify Admin API settings.
type Catalog struct {
	Shop               string `toml:"shop"`
	AccessToken        string `toml:"access_token"`
	APIVersion         string `toml:"api_version"`
	Endpoint           string `toml:"endpoint"`
	PageSize           int    `toml:"page_size"`
	MetafieldNamespace string `toml:"metafield_namespace"`
	RequestTimeout     int    `toml:"request_timeout_seconds"`
}

// Generator contains image-to-3D service settings.
type Generator struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	PollInterval   int    `toml:"poll_interval_seconds"`
	MaxWait        int    `toml:"max_wait_seconds"` // 0 waits forever
	AssetFormat    string `toml:"asset_format"`
	EnableTexture  bool   `toml:"enable_texture"`
	RequestTimeout int    `toml:"request_timeout_seconds"`
}

// Workflow contains poll loop and pipeline behaviour.
type Workflow struct {
	PollInterval      int    `toml:"poll_interval_seconds"`
	RetryFailed       bool   `toml:"retry_failed"`
	UploadFilename    string `toml:"upload_filename"`
	ErrorMessageLimit int    `toml:"error_message_limit"`
}

// API contains the optional status server settings. An empty bind disables it.
type API struct {
	Bind string `toml:"bind"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Attached       bool   `toml:"attached"`
	Failed         bool   `toml:"failed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for auto3d.
//
// Configuration sections by subsystem:
//   - Paths: state document, attempt journal and log locations
//   - Catalog: Shopify shop, token and query sizing
//   - Generator: Meshy credentials and task polling
//   - Workflow: poll cadence and failure retry policy
//   - API: optional status/metrics HTTP server
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Catalog       Catalog       `toml:"catalog"`
	Generator     Generator     `toml:"generator"`
	Workflow      Workflow      `toml:"workflow"`
	API           API           `toml:"api"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DotEnvFiles lists the dotenv files consulted before environment lookups.
// Earlier files win; variables already present in the environment are never
// overridden.
var DotEnvFiles = []string{".env", ".env.local"}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/auto3d/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	if err := loadDotEnv(DotEnvFiles...); err != nil {
		return nil, "", false, err
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv(paths ...string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// ResolvePath reports which configuration file Load would read for path, and
// whether it exists.
func ResolvePath(path string) (string, bool, error) {
	return resolveConfigPath(strings.TrimSpace(path))
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/auto3d/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("auto3d.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the parent directories of every file auto3d writes.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, filepath.Dir(c.Paths.StateFile)}
	if strings.TrimSpace(c.Paths.HistoryDB) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CatalogEndpoint returns the GraphQL endpoint for the configured shop.
func (c *Config) CatalogEndpoint() string {
	if endpoint := strings.TrimSpace(c.Catalog.Endpoint); endpoint != "" {
		return endpoint
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.Catalog.Shop, c.Catalog.APIVersion)
}

// PollInterval returns the delay between catalog poll cycles.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.PollInterval) * time.Second
}

// GeneratorPollInterval returns the delay between generation task status checks.
func (c *Config) GeneratorPollInterval() time.Duration {
	return time.Duration(c.Generator.PollInterval) * time.Second
}

// GeneratorMaxWait returns the generation ceiling; zero means unbounded.
func (c *Config) GeneratorMaxWait() time.Duration {
	return time.Duration(c.Generator.MaxWait) * time.Second
}

// LockPath returns the writer lock that guards the state document.
func (c *Config) LockPath() string {
	return c.Paths.StateFile + ".lock"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if err := fileutil.WriteAtomic(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
