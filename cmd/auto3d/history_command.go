package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"auto3d/internal/api"
	"auto3d/internal/catalog"
	"auto3d/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var productFlag string
	var statusFlag string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent generation attempts from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.HistoryDB == "" {
				return errors.New("attempt history is disabled (paths.history_db is empty)")
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			attempts, err := store.List(cmd.Context(), history.Filter{
				ProductID: catalog.ProductGID(productFlag),
				Status:    statusFlag,
				Limit:     limit,
			})
			if err != nil {
				return err
			}

			if asJSON {
				out := api.HistoryResponse{Attempts: make([]api.Attempt, 0, len(attempts))}
				for _, attempt := range attempts {
					out.Attempts = append(out.Attempts, api.FromAttempt(attempt))
				}
				return writeJSON(cmd, out)
			}
			if len(attempts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No attempts recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderHistoryTable(attempts))
			return nil
		},
	}

	cmd.Flags().StringVar(&productFlag, "product", "", "Only show attempts for this product id")
	cmd.Flags().StringVar(&statusFlag, "status", "", "Only show attempts with this status")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum attempts to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func renderHistoryTable(attempts []history.Attempt) string {
	rows := make([][]string, 0, len(attempts))
	for _, attempt := range attempts {
		duration := "-"
		if attempt.Finished() {
			duration = attempt.Duration().Round(time.Second).String()
		}
		rows = append(rows, []string{
			strconv.FormatInt(attempt.ID, 10),
			catalog.LegacyID(attempt.ProductID),
			attempt.Title,
			attempt.Status,
			humanize.Time(attempt.StartedAt),
			duration,
			attempt.Error,
		})
	}
	return renderTable([]tableColumn{
		{Header: "ID", Align: alignRight},
		{Header: "Product", Align: alignRight},
		{Header: "Title", MaxWidth: 32},
		{Header: "Status"},
		{Header: "Started"},
		{Header: "Took", Align: alignRight},
		{Header: "Error", MaxWidth: 48},
	}, rows)
}
