package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredential marks a required credential that was not configured.
var ErrMissingCredential = errors.New("missing credential")

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCredentials(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateGenerator(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCredentials() error {
	required := []struct {
		key   string
		env   string
		value string
	}{
		{key: "catalog.shop", env: "SHOP", value: c.Catalog.Shop},
		{key: "catalog.access_token", env: "SHOPIFY_ADMIN_TOKEN", value: c.Catalog.AccessToken},
		{key: "generator.api_key", env: "MESHY_API_KEY", value: c.Generator.APIKey},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) != "" {
			continue
		}
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/auto3d/config.toml"
		}
		return fmt.Errorf("%w: %s is required. Set %s env var or edit %s (create with 'auto3d config init')",
			ErrMissingCredential, field.key, field.env, defaultPath)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.PageSize < 1 || c.Catalog.PageSize > maxCatalogPageSize {
		return fmt.Errorf("catalog.page_size must be between 1 and %d", maxCatalogPageSize)
	}
	if strings.ContainsAny(c.Catalog.Shop, "/ ") {
		return errors.New("catalog.shop must be a bare host such as example.myshopify.com")
	}
	return nil
}

func (c *Config) validateGenerator() error {
	if c.Generator.PollInterval <= 0 {
		return errors.New("generator.poll_interval_seconds must be positive")
	}
	if c.Generator.MaxWait < 0 {
		return errors.New("generator.max_wait_seconds must be zero (unbounded) or positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollInterval <= 0 {
		return errors.New("workflow.poll_interval_seconds must be positive")
	}
	if c.Workflow.ErrorMessageLimit <= 0 {
		return errors.New("workflow.error_message_limit must be positive")
	}
	if !strings.HasSuffix(strings.ToLower(c.Workflow.UploadFilename), ".glb") {
		return errors.New("workflow.upload_filename must end with .glb")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
