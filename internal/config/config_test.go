package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"auto3d/internal/config"
)

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("SHOP", "demo.myshopify.com")
	t.Setenv("SHOPIFY_ADMIN_TOKEN", "shpat_test")
	t.Setenv("MESHY_API_KEY", "msy_test")
}

func TestLoadDefaultConfigUsesEnvCredentialsAndExpandsPaths(t *testing.T) {
	setCredentials(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "auto3d", "auto3d_state.json")
	if cfg.Paths.StateFile != wantState {
		t.Fatalf("unexpected state file: got %q want %q", cfg.Paths.StateFile, wantState)
	}
	if cfg.LockPath() != wantState+".lock" {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if cfg.Catalog.Shop != "demo.myshopify.com" {
		t.Fatalf("expected shop from env, got %q", cfg.Catalog.Shop)
	}
	if cfg.Catalog.PageSize != 15 {
		t.Fatalf("expected page size 15, got %d", cfg.Catalog.PageSize)
	}
	if cfg.PollInterval() != 5*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.GeneratorPollInterval() != 4*time.Second {
		t.Fatalf("unexpected generator poll interval: %s", cfg.GeneratorPollInterval())
	}
	if cfg.GeneratorMaxWait() != 0 {
		t.Fatalf("expected unbounded generation wait, got %s", cfg.GeneratorMaxWait())
	}
	if cfg.Workflow.RetryFailed {
		t.Fatal("expected retry_failed disabled by default")
	}
	if cfg.Workflow.UploadFilename != "auto3d.glb" {
		t.Fatalf("unexpected upload filename: %q", cfg.Workflow.UploadFilename)
	}
	if got := cfg.CatalogEndpoint(); got != "https://demo.myshopify.com/admin/api/2025-04/graphql.json" {
		t.Fatalf("unexpected endpoint: %q", got)
	}
	if cfg.API.Bind != "" {
		t.Fatalf("expected API server disabled by default, got %q", cfg.API.Bind)
	}
}

func TestLoadCustomPath(t *testing.T) {
	setCredentials(t)
	t.Chdir(t.TempDir())
	configPath := filepath.Join(t.TempDir(), "auto3d.toml")

	type payload struct {
		Catalog struct {
			Shop     string `toml:"shop"`
			PageSize int    `toml:"page_size"`
		} `toml:"catalog"`
		Generator struct {
			MaxWait int `toml:"max_wait_seconds"`
		} `toml:"generator"`
		Workflow struct {
			RetryFailed bool `toml:"retry_failed"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Catalog.Shop = "https://file-shop.myshopify.com/"
	custom.Catalog.PageSize = 50
	custom.Generator.MaxWait = 900
	custom.Workflow.RetryFailed = true
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Catalog.Shop != "file-shop.myshopify.com" {
		t.Fatalf("expected normalized shop from file, got %q", cfg.Catalog.Shop)
	}
	if cfg.Catalog.PageSize != 50 {
		t.Fatalf("expected page size 50, got %d", cfg.Catalog.PageSize)
	}
	if cfg.GeneratorMaxWait() != 15*time.Minute {
		t.Fatalf("expected 15m max wait, got %s", cfg.GeneratorMaxWait())
	}
	if !cfg.Workflow.RetryFailed {
		t.Fatal("expected retry_failed from file")
	}
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SHOP", "env-shop.myshopify.com")
	// Ensure the remaining keys are unset so the dotenv values apply.
	t.Setenv("SHOPIFY_ADMIN_TOKEN", "")
	os.Unsetenv("SHOPIFY_ADMIN_TOKEN")
	t.Setenv("MESHY_API_KEY", "")
	os.Unsetenv("MESHY_API_KEY")

	dotenv := "SHOP=dotenv-shop.myshopify.com\nSHOPIFY_ADMIN_TOKEN=from-dotenv\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env.local"), []byte("MESHY_API_KEY=from-local\n"), 0o600); err != nil {
		t.Fatalf("write .env.local: %v", err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Catalog.Shop != "env-shop.myshopify.com" {
		t.Fatalf("expected process env to win, got %q", cfg.Catalog.Shop)
	}
	if cfg.Catalog.AccessToken != "from-dotenv" {
		t.Fatalf("expected token from .env, got %q", cfg.Catalog.AccessToken)
	}
	if cfg.Generator.APIKey != "from-local" {
		t.Fatalf("expected api key from .env.local, got %q", cfg.Generator.APIKey)
	}
}

func TestLoadFailsWithoutCredentials(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("SHOP", "demo.myshopify.com")
	t.Setenv("SHOPIFY_ADMIN_TOKEN", "token")
	t.Setenv("MESHY_API_KEY", "")
	os.Unsetenv("MESHY_API_KEY")

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected missing credential error")
	}
	if !errors.Is(err, config.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if !strings.Contains(err.Error(), "MESHY_API_KEY") {
		t.Fatalf("expected error to name MESHY_API_KEY, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_meshy_api_key_here") {
		t.Fatalf("sample config missing placeholder Meshy key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StateFile, "auto3d") {
		t.Fatalf("expected state file to contain auto3d, got %q", cfg.Paths.StateFile)
	}
	if cfg.Catalog.PageSize != 15 {
		t.Fatalf("expected sample page size 15, got %d", cfg.Catalog.PageSize)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	valid := func() config.Config {
		cfg := config.Default()
		cfg.Catalog.Shop = "demo.myshopify.com"
		cfg.Catalog.AccessToken = "token"
		cfg.Generator.APIKey = "key"
		return cfg
	}

	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("expected defaults with credentials to validate, got %v", err)
	}

	cases := map[string]func(*config.Config){
		"page size zero":       func(c *config.Config) { c.Catalog.PageSize = 0 },
		"page size too large":  func(c *config.Config) { c.Catalog.PageSize = 251 },
		"negative max wait":    func(c *config.Config) { c.Generator.MaxWait = -1 },
		"zero poll interval":   func(c *config.Config) { c.Workflow.PollInterval = 0 },
		"zero generator poll":  func(c *config.Config) { c.Generator.PollInterval = 0 },
		"non glb filename":     func(c *config.Config) { c.Workflow.UploadFilename = "model.obj" },
		"unknown log format":   func(c *config.Config) { c.Logging.Format = "xml" },
		"shop with path":       func(c *config.Config) { c.Catalog.Shop = "demo.myshopify.com/admin" },
		"missing access token": func(c *config.Config) { c.Catalog.AccessToken = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateFile = filepath.Join(base, "state", "auto3d_state.json")
	cfg.Paths.HistoryDB = filepath.Join(base, "db", "history.db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{"state", "db", "logs"} {
		if info, err := os.Stat(filepath.Join(base, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist: %v", dir, err)
		}
	}
}
