package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"auto3d/internal/catalog"
	"auto3d/internal/logging"
	"auto3d/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var productFlag string
	var eventFlag string
	var levelFlag string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the auto3d log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			level := strings.ToLower(strings.TrimSpace(levelFlag))
			switch level {
			case "", "debug", "info", "warn", "error":
			default:
				return fmt.Errorf("unknown level %q (valid: debug, info, warn, error)", levelFlag)
			}

			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			filter := logs.Filter{
				ProductID: catalog.ProductGID(productFlag),
				EventType: strings.TrimSpace(eventFlag),
				MinLevel:  level,
			}

			entries, offset, err := logs.Last(path, lines, filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				fmt.Fprintln(out, entry.Text())
			}
			if !follow {
				if len(entries) == 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "No log entries in %s\n", path)
				}
				return nil
			}

			followCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return logs.Follow(followCtx, path, offset, 0, filter, func(entry logs.Entry) {
				fmt.Fprintln(out, entry.Text())
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries")
	cmd.Flags().StringVar(&productFlag, "product", "", "Only show entries for this product id")
	cmd.Flags().StringVar(&eventFlag, "event", "", "Only show entries with this event type")
	cmd.Flags().StringVar(&levelFlag, "level", "", "Minimum level to show")
	return cmd
}
