package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"auto3d/internal/logging"
)

const (
	defaultBaseURL      = "https://api.meshy.ai"
	defaultPollInterval = 4 * time.Second
	defaultAssetFormat  = "glb"
	defaultHTTPTimeout  = 60 * time.Second
	maxErrorBody        = 4 << 10
	taskPath            = "/openapi/v1/image-to-3d"
	genericFailure      = "generation failed"
)

// Task statuses reported by the service.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusSucceeded  = "SUCCEEDED"
	StatusFailed     = "FAILED"
	StatusCanceled   = "CANCELED"
	StatusExpired    = "EXPIRED"
)

// Asset is a downloaded model.
type Asset struct {
	TaskID string
	Format string
	Data   []byte
}

// Client provides access to the Meshy image-to-3D API.
type Client struct {
	apiKey        string
	baseURL       string
	httpClient    *http.Client
	pollInterval  time.Duration
	maxWait       time.Duration
	assetFormat   string
	enableTexture bool
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the service root (default https://api.meshy.ai).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
			c.baseURL = baseURL
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

// WithPollInterval overrides the delay between task status checks.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithMaxWait bounds how long Await waits for a task. Zero waits forever.
func WithMaxWait(limit time.Duration) Option {
	return func(c *Client) {
		if limit >= 0 {
			c.maxWait = limit
		}
	}
}

// WithAssetFormat selects the model format to download (default glb).
func WithAssetFormat(format string) Option {
	return func(c *Client) {
		if format = strings.ToLower(strings.TrimSpace(format)); format != "" {
			c.assetFormat = format
		}
	}
}

// WithTexture toggles texture generation.
func WithTexture(enabled bool) Option {
	return func(c *Client) {
		c.enableTexture = enabled
	}
}

// WithLogger attaches a logger for progress reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a generation client.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("meshy api key required")
	}
	client := &Client{
		apiKey:        apiKey,
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: defaultHTTPTimeout},
		pollInterval:  defaultPollInterval,
		assetFormat:   defaultAssetFormat,
		enableTexture: true,
		logger:        logging.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "generator")
	return client, nil
}

// Format returns the asset format the client downloads.
func (c *Client) Format() string {
	return c.assetFormat
}

type createRequest struct {
	ImageURL      string `json:"image_url"`
	EnableTexture bool   `json:"enable_texture"`
}

type createResponse struct {
	TaskID string `json:"task_id"`
	Result string `json:"result"`
}

// Submit creates an image-to-3D task and returns its id.
func (c *Client) Submit(ctx context.Context, imageURL string) (string, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return "", errors.New("submit: image url required")
	}
	body, err := json.Marshal(createRequest{ImageURL: imageURL, EnableTexture: c.enableTexture})
	if err != nil {
		return "", fmt.Errorf("submit: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+taskPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("submit: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var payload createResponse
	if err := c.doJSON(req, "submit", &payload); err != nil {
		return "", err
	}
	taskID := strings.TrimSpace(payload.TaskID)
	if taskID == "" {
		taskID = strings.TrimSpace(payload.Result)
	}
	if taskID == "" {
		return "", ErrMissingTaskID
	}
	c.logger.Info("generation task submitted",
		logging.String("task_id", taskID),
		logging.String(logging.FieldEventType, "generation_submitted"),
		logging.String("image_url", imageURL))
	return taskID, nil
}

type taskAsset struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

type taskResponse struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Progress  *int              `json:"progress"`
	ModelURL  string            `json:"model_url"`
	ModelURLs map[string]string `json:"model_urls"`
	Assets    []taskAsset       `json:"assets"`
	TaskError *struct {
		Message string `json:"message"`
	} `json:"task_error"`
	Error string `json:"error"`
}

// downloadURL picks the direct model URL, then the per-format map, then the
// first asset whose format matches.
func (t taskResponse) downloadURL(format string) string {
	if u := strings.TrimSpace(t.ModelURL); u != "" {
		return u
	}
	if u := strings.TrimSpace(t.ModelURLs[format]); u != "" {
		return u
	}
	for _, asset := range t.Assets {
		if strings.EqualFold(asset.Format, format) && strings.TrimSpace(asset.URL) != "" {
			return asset.URL
		}
	}
	return ""
}

func (t taskResponse) failureMessage() string {
	if t.TaskError != nil {
		if msg := strings.TrimSpace(t.TaskError.Message); msg != "" {
			return msg
		}
	}
	if msg := strings.TrimSpace(t.Error); msg != "" {
		return msg
	}
	return genericFailure
}

func (t taskResponse) percent() int {
	if t.Progress == nil {
		return -1
	}
	return *t.Progress
}

// Await polls a task until it settles and returns the downloaded model.
func (c *Client) Await(ctx context.Context, taskID string) (Asset, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return Asset{}, errors.New("await: task id required")
	}
	var deadline time.Time
	if c.maxWait > 0 {
		deadline = c.now().Add(c.maxWait)
	}
	sampler := logging.NewProgressSampler(10)

	for {
		task, err := c.fetchTask(ctx, taskID)
		if err != nil {
			return Asset{}, err
		}
		status := strings.ToUpper(strings.TrimSpace(task.Status))
		if sampler.ShouldLog(task.percent(), status) {
			c.logger.Info("generation progress",
				logging.String("task_id", taskID),
				logging.String(logging.FieldProgressStatus, status),
				logging.Int(logging.FieldProgressPercent, max(task.percent(), 0)))
		}

		switch status {
		case StatusSucceeded:
			modelURL := task.downloadURL(c.assetFormat)
			if modelURL == "" {
				return Asset{}, ErrMissingModelURL
			}
			data, err := c.download(ctx, modelURL)
			if err != nil {
				return Asset{}, err
			}
			return Asset{TaskID: taskID, Format: c.assetFormat, Data: data}, nil
		case StatusFailed, StatusCanceled, StatusExpired:
			return Asset{}, &TaskFailedError{TaskID: taskID, Status: status, Message: task.failureMessage()}
		}

		if !deadline.IsZero() && !c.now().Before(deadline) {
			return Asset{}, fmt.Errorf("%w: task %s still %s after %s", ErrTimedOut, taskID, status, c.maxWait)
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Asset{}, ctx.Err()
		case <-timer.C:
		}
	}
}

// Generate submits a task for imageURL and waits for its model.
func (c *Client) Generate(ctx context.Context, imageURL string) (Asset, error) {
	taskID, err := c.Submit(ctx, imageURL)
	if err != nil {
		return Asset{}, err
	}
	return c.Await(ctx, taskID)
}

func (c *Client) fetchTask(ctx context.Context, taskID string) (taskResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+taskPath+"/"+url.PathEscape(taskID), nil)
	if err != nil {
		return taskResponse{}, fmt.Errorf("poll: build request: %w", err)
	}
	var task taskResponse
	if err := c.doJSON(req, "poll", &task); err != nil {
		return taskResponse{}, err
	}
	return task, nil
}

func (c *Client) doJSON(req *http.Request, op string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("meshy %s: execute request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(excerpt)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("meshy %s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) download(ctx context.Context, modelURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, modelURL, nil)
	if err != nil {
		return nil, fmt.Errorf("download: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("meshy download: execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Op: "download", StatusCode: resp.StatusCode, Body: string(excerpt)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("meshy download: read body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: downloaded model is empty", ErrMissingModelURL)
	}
	c.logger.Debug("model downloaded", logging.Int("size_bytes", len(data)))
	return data, nil
}
