package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"auto3d/internal/catalog"
	"auto3d/internal/config"
	"auto3d/internal/generator"
	"auto3d/internal/tracker"
)

const remoteCheckTimeout = 15 * time.Second

// ShopProber confirms catalog credentials.
type ShopProber interface {
	ShopName(ctx context.Context) (string, error)
}

// BalanceProber confirms generation credentials.
type BalanceProber interface {
	Balance(ctx context.Context) (int, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStateDocument verifies the state document parses.
func CheckStateDocument(path string) Result {
	const name = "State document"
	store, err := tracker.Open(path, nil)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d products tracked)", path, store.Count())}
}

// CheckWriterLock reports whether a poller currently holds the writer lock.
// A held lock is not a failure.
func CheckWriterLock(path string) Result {
	const name = "Writer lock"
	lock, err := tracker.AcquireLock(path)
	switch {
	case errors.Is(err, tracker.ErrLocked):
		return Result{Name: name, Passed: true, Detail: "held by a running poller"}
	case err != nil:
		return Result{Name: name, Detail: err.Error()}
	}
	_ = lock.Release()
	return Result{Name: name, Passed: true, Detail: "free"}
}

// CheckCatalog verifies the catalog API is reachable and the token is valid.
func CheckCatalog(ctx context.Context, prober ShopProber) Result {
	const name = "Catalog API"
	checkCtx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()

	shop, err := prober.ShopName(checkCtx)
	if err != nil {
		var apiErr *catalog.APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return Result{Name: name, Detail: "auth failed (check SHOPIFY_ADMIN_TOKEN)"}
		}
		return Result{Name: name, Detail: summarizeRemoteError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (%s)", shop)}
}

// CheckGenerator verifies the generation API is reachable and the key is valid.
func CheckGenerator(ctx context.Context, prober BalanceProber) Result {
	const name = "Generation API"
	checkCtx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()

	balance, err := prober.Balance(checkCtx)
	if err != nil {
		var apiErr *generator.APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return Result{Name: name, Detail: "auth failed (check MESHY_API_KEY)"}
		}
		return Result{Name: name, Detail: summarizeRemoteError(err)}
	}
	if balance <= 0 {
		return Result{Name: name, Detail: "Reachable but no credits remain"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (%d credits)", balance)}
}

// CheckNotifications reports the notification configuration. It never sends.
func CheckNotifications(cfg *config.Config) Result {
	const name = "Notifications"
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("ntfy %s", topic)}
}

func summarizeRemoteError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (API unreachable)"
	}
	return err.Error()
}
