package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"auto3d/internal/logging"
	"auto3d/internal/services"
)

const (
	defaultAPIVersion  = "2025-04"
	defaultNamespace   = "auto3d"
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 4 << 10
)

// Client provides access to the Shopify Admin GraphQL API.
type Client struct {
	shop       string
	token      string
	apiVersion string
	endpoint   string
	namespace  string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the GraphQL URL derived from the shop and API version.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithAPIVersion overrides the Admin API version (default 2025-04).
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if version = strings.TrimSpace(version); version != "" {
			c.apiVersion = version
		}
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithNamespace overrides the metafield namespace used by SetStatus.
func WithNamespace(namespace string) Option {
	return func(c *Client) {
		if namespace = strings.TrimSpace(namespace); namespace != "" {
			c.namespace = namespace
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a catalog client for shop (e.g. example.myshopify.com).
func New(shop, accessToken string, opts ...Option) (*Client, error) {
	shop = strings.TrimSpace(shop)
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, errors.New("shopify access token required")
	}
	client := &Client{
		shop:       shop,
		token:      accessToken,
		apiVersion: defaultAPIVersion,
		namespace:  defaultNamespace,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.endpoint == "" {
		if shop == "" {
			return nil, errors.New("shopify shop or endpoint required")
		}
		client.endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, client.apiVersion)
	}
	client.logger = logging.NewComponentLogger(client.logger, "catalog")
	return client, nil
}

// Endpoint returns the GraphQL URL in use.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do posts a GraphQL document and decodes the data member into out.
func (c *Client) do(ctx context.Context, op, query string, variables map[string]any, out any) error {
	if variables == nil {
		variables = map[string]any{}
	}
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return services.Wrap(services.ErrTransient, "catalog", op, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(excerpt)}
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return services.Wrap(services.ErrValidation, "catalog", op, "decode response", err)
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return &GraphQLError{Messages: messages}
	}

	c.logger.Debug("graphql request completed",
		logging.String("operation", op),
		logging.Duration("request_latency", latency))

	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return services.Wrap(services.ErrValidation, "catalog", op, "decode data", err)
	}
	return nil
}
