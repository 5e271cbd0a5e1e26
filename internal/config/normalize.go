package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeGenerator()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateFile) == "" {
		c.Paths.StateFile = defaultStateFile
	}
	if c.Paths.StateFile, err = expandPath(c.Paths.StateFile); err != nil {
		return fmt.Errorf("paths.state_file: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	if c.Catalog.Shop == "" {
		if value, ok := os.LookupEnv("SHOP"); ok {
			c.Catalog.Shop = value
		}
	}
	if c.Catalog.AccessToken == "" {
		if value, ok := os.LookupEnv("SHOPIFY_ADMIN_TOKEN"); ok {
			c.Catalog.AccessToken = value
		}
	}
	c.Catalog.Shop = normalizeShop(c.Catalog.Shop)
	c.Catalog.AccessToken = strings.TrimSpace(c.Catalog.AccessToken)
	c.Catalog.Endpoint = strings.TrimSpace(c.Catalog.Endpoint)
	c.Catalog.APIVersion = strings.TrimSpace(c.Catalog.APIVersion)
	if c.Catalog.APIVersion == "" {
		c.Catalog.APIVersion = defaultCatalogAPIVersion
	}
	c.Catalog.MetafieldNamespace = strings.TrimSpace(c.Catalog.MetafieldNamespace)
	if c.Catalog.MetafieldNamespace == "" {
		c.Catalog.MetafieldNamespace = defaultMetafieldNamespace
	}
	if c.Catalog.PageSize == 0 {
		c.Catalog.PageSize = defaultCatalogPageSize
	}
	if c.Catalog.RequestTimeout <= 0 {
		c.Catalog.RequestTimeout = defaultCatalogRequestTimeout
	}
}

// normalizeShop reduces "https://shop.example.com/" style input to the bare host.
func normalizeShop(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "https://")
	value = strings.TrimPrefix(value, "http://")
	return strings.TrimRight(value, "/")
}

func (c *Config) normalizeGenerator() {
	if c.Generator.APIKey == "" {
		if value, ok := os.LookupEnv("MESHY_API_KEY"); ok {
			c.Generator.APIKey = value
		}
	}
	c.Generator.APIKey = strings.TrimSpace(c.Generator.APIKey)
	c.Generator.BaseURL = strings.TrimRight(strings.TrimSpace(c.Generator.BaseURL), "/")
	if c.Generator.BaseURL == "" {
		c.Generator.BaseURL = defaultGeneratorBaseURL
	}
	c.Generator.AssetFormat = strings.ToLower(strings.TrimSpace(c.Generator.AssetFormat))
	if c.Generator.AssetFormat == "" {
		c.Generator.AssetFormat = defaultGeneratorAssetFormat
	}
	if c.Generator.PollInterval == 0 {
		c.Generator.PollInterval = defaultGeneratorPollInterval
	}
	if c.Generator.RequestTimeout <= 0 {
		c.Generator.RequestTimeout = defaultGeneratorTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollInterval == 0 {
		c.Workflow.PollInterval = defaultWorkflowPollInterval
	}
	c.Workflow.UploadFilename = strings.TrimSpace(c.Workflow.UploadFilename)
	if c.Workflow.UploadFilename == "" {
		c.Workflow.UploadFilename = defaultUploadFilename
	}
	if c.Workflow.ErrorMessageLimit == 0 {
		c.Workflow.ErrorMessageLimit = defaultErrorMessageLimit
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("AUTO3D_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	c.API.Bind = strings.TrimSpace(c.API.Bind)
}
