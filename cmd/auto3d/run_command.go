package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"auto3d/internal/api"
	"auto3d/internal/logging"
	"auto3d/internal/pipeline"
	"auto3d/internal/poller"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the catalog and attach generated models until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, err := ctx.openWriter(runCtx)
			if err != nil {
				return err
			}
			defer w.Close()

			if once {
				summary, err := w.poller.RunCycle(runCtx)
				if err != nil {
					return err
				}
				printSummary(cmd.OutOrStdout(), summary)
				return nil
			}
			return runLoop(runCtx, w)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single poll cycle and exit")
	return cmd
}

// runLoop runs the poller and, when api.bind is set, the status server until
// ctx is cancelled or either fails.
func runLoop(ctx context.Context, w *writer) error {
	w.logger.Info("auto3d starting",
		logging.String("shop", w.cfg.Catalog.Shop),
		logging.Int("page_size", w.cfg.Catalog.PageSize),
		logging.Duration("interval", w.cfg.PollInterval()),
		logging.String(logging.FieldEventType, "poller_start"),
	)

	server := api.NewServer(w.cfg.API.Bind, api.ServerConfig{
		State:     w.state,
		History:   historyReader(w),
		Metrics:   w.metrics.Handler(),
		Logger:    w.logger,
		StartTime: time.Now(),
	})
	if err := server.Listen(); err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return w.poller.Run(groupCtx)
	})
	if server != nil {
		group.Go(func() error {
			return server.Serve(groupCtx)
		})
	}

	err := group.Wait()
	if err != nil {
		if notifyErr := w.notifier.NotifyError(context.Background(), err, "poller"); notifyErr != nil {
			w.logger.Warn("error notification failed", logging.Error(notifyErr))
		}
		return err
	}
	w.logger.Info("auto3d shutting down", logging.String(logging.FieldEventType, "poller_stop"))
	return nil
}

// historyReader returns a nil interface when the journal is disabled.
func historyReader(w *writer) api.HistoryReader {
	if w.journal == nil {
		return nil
	}
	return w.journal
}

func printSummary(out io.Writer, summary poller.Summary) {
	fmt.Fprintf(out, "Cycle %s: %d products evaluated in %s\n",
		summary.RunID, summary.Evaluated, summary.Duration.Round(time.Millisecond))
	decisions := make([]string, 0, len(summary.Decisions))
	for decision := range summary.Decisions {
		decisions = append(decisions, string(decision))
	}
	sort.Strings(decisions)
	parts := make([]string, 0, len(decisions))
	for _, decision := range decisions {
		parts = append(parts, fmt.Sprintf("%s=%d", decision, summary.Decisions[pipeline.Decision(decision)]))
	}
	if len(parts) > 0 {
		fmt.Fprintf(out, "Decisions: %s\n", strings.Join(parts, ", "))
	}
	if summary.Errors > 0 {
		fmt.Fprintf(out, "Errors: %d\n", summary.Errors)
	}
}
