package testsupport

import (
	"path/filepath"
	"testing"

	"auto3d/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories and dummy
// credentials per test. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Catalog.Shop = "test-shop.myshopify.com"
	cfgVal.Catalog.AccessToken = "shpat_test"
	cfgVal.Generator.APIKey = "msy_test"
	cfgVal.Paths.StateFile = filepath.Join(base, "state", "auto3d_state.json")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "state", "history.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Generator.PollInterval = 1
	cfgVal.Workflow.PollInterval = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithCatalogEndpoint points the catalog client at a fake GraphQL server.
func WithCatalogEndpoint(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Endpoint = endpoint
	}
}

// WithGeneratorBaseURL points the generation client at a fake server.
func WithGeneratorBaseURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Generator.BaseURL = baseURL
	}
}

// WithNtfyTopic enables notifications against the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithoutHistory disables the attempt journal.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.HistoryDB = ""
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Paths.StateFile))
}
