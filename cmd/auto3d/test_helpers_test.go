package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"auto3d/internal/config"
	"auto3d/internal/testsupport"
)

const testProductID = "gid://shopify/Product/42"

// fakeRemote serves both the catalog GraphQL endpoint and the generation API.
type fakeRemote struct {
	server *httptest.Server

	mu         sync.Mutex
	queries    []string
	statuses   []string
	uploads    int
	hasModel   bool
	taskStatus string
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	f := &fakeRemote{taskStatus: "SUCCEEDED"}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /graphql", f.handleGraphQL)
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.uploads++
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /openapi/v1/image-to-3d", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"task-1"}`))
	})
	mux.HandleFunc("GET /openapi/v1/image-to-3d/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status := f.taskStatus
		f.mu.Unlock()
		body := map[string]any{"id": r.PathValue("id"), "status": status, "progress": 100}
		if status == "SUCCEEDED" {
			body["model_urls"] = map[string]string{"glb": f.server.URL + "/files/model.glb"}
		} else {
			body["task_error"] = map[string]string{"message": "image could not be processed"}
		}
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("GET /openapi/v1/balance", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"balance":50}`))
	})
	mux.HandleFunc("GET /files/model.glb", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(testsupport.ModelBytes(64))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeRemote) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, req.Query)

	var data any
	switch {
	case strings.Contains(req.Query, "metafieldsSet"):
		if value, ok := req.Variables["value"].(string); ok {
			f.statuses = append(f.statuses, value)
		}
		data = map[string]any{"metafieldsSet": map[string]any{"userErrors": []any{}}}
	case strings.Contains(req.Query, "stagedUploadsCreate"):
		data = map[string]any{"stagedUploadsCreate": map[string]any{
			"stagedTargets": []any{map[string]any{
				"url":         f.server.URL + "/upload",
				"resourceUrl": "https://files.example/auto3d.glb",
				"parameters":  []any{map[string]any{"name": "key", "value": "tmp/auto3d.glb"}},
			}},
			"userErrors": []any{},
		}}
	case strings.Contains(req.Query, "productCreateMedia"):
		f.hasModel = true
		data = map[string]any{"productCreateMedia": map[string]any{
			"media":           []any{map[string]any{"id": "gid://shopify/Model3d/7", "status": "UPLOADED"}},
			"mediaUserErrors": []any{},
		}}
	case strings.Contains(req.Query, "products("):
		data = map[string]any{"products": map[string]any{"edges": []any{
			map[string]any{"node": f.productNode()},
		}}}
	case strings.Contains(req.Query, "product("):
		if req.Variables["id"] != testProductID {
			data = map[string]any{"product": nil}
			break
		}
		data = map[string]any{"product": f.productNode()}
	case strings.Contains(req.Query, "shop {"):
		data = map[string]any{"shop": map[string]any{"name": "Test Shop", "myshopifyDomain": "test-shop.myshopify.com"}}
	default:
		http.Error(w, "unexpected query", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func (f *fakeRemote) productNode() map[string]any {
	media := []any{}
	if f.hasModel {
		media = append(media, map[string]any{"node": map[string]any{"mediaContentType": "MODEL_3D"}})
	}
	return map[string]any{
		"id":        testProductID,
		"title":     "Ceramic Mug",
		"updatedAt": "2026-10-01T12:00:00Z",
		"images": map[string]any{"edges": []any{
			map[string]any{"node": map[string]any{"id": "gid://shopify/ProductImage/1", "url": "https://cdn.example/mug.jpg"}},
		}},
		"media": map[string]any{"edges": media},
	}
}

func (f *fakeRemote) setTaskStatus(status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taskStatus = status
}

func (f *fakeRemote) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

func (f *fakeRemote) echoed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.statuses...)
}

type cliTestEnv struct {
	cfg        *config.Config
	remote     *fakeRemote
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	remote := newFakeRemote(t)
	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"SHOP", "SHOPIFY_ADMIN_TOKEN", "MESHY_API_KEY", "AUTO3D_NTFY_TOPIC"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	base := []testsupport.ConfigOption{
		testsupport.WithCatalogEndpoint(remote.server.URL + "/graphql"),
		testsupport.WithGeneratorBaseURL(remote.server.URL),
	}
	cfg := testsupport.NewConfig(t, append(base, opts...)...)

	configPath := filepath.Join(homeDir, ".config", "auto3d", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		remote:     remote,
		configPath: configPath,
		baseDir:    testsupport.BaseDir(cfg),
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n%s", needle, haystack)
	}
}
