package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"auto3d/internal/api"
	"auto3d/internal/catalog"
	"auto3d/internal/logging"
	"auto3d/internal/tracker"
)

const fingerprintDisplayLength = 12

func newStateCommand(ctx *commandContext) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect the tracked product state document",
	}
	stateCmd.AddCommand(newStateListCommand(ctx))
	stateCmd.AddCommand(newStateShowCommand(ctx))
	return stateCmd
}

func (c *commandContext) openStateReader() (*tracker.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := tracker.Open(cfg.Paths.StateFile, logging.NewNop())
	if err != nil {
		return nil, fmt.Errorf("open state document: %w", err)
	}
	return store, nil
}

func newStateListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked products",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := tracker.Status(strings.ToLower(strings.TrimSpace(statusFilter)))
			if filter != "" && !filter.Valid() {
				return fmt.Errorf("unknown status %q (valid: %s)", statusFilter, joinStatuses(tracker.Statuses))
			}

			store, err := ctx.openStateReader()
			if err != nil {
				return err
			}
			var records []tracker.Record
			for _, record := range store.List() {
				if filter == "" || record.Status == filter {
					records = append(records, record)
				}
			}

			if asJSON {
				entries := make([]api.StateEntry, 0, len(records))
				for _, record := range records {
					entries = append(entries, api.FromRecord(record))
				}
				return writeJSON(cmd, api.StateListResponse{
					Products: entries,
					Counts:   api.StatusCounts(store.CountByStatus()),
				})
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No tracked products")
				return nil
			}
			fmt.Fprintln(out, renderStateTable(records))
			fmt.Fprintln(out, formatCounts(store.CountByStatus()))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show products with this status")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newStateShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show the tracked state of one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID := catalog.ProductGID(args[0])
			store, err := ctx.openStateReader()
			if err != nil {
				return err
			}
			entry, ok := store.Get(productID)
			if !ok {
				return fmt.Errorf("product %s is not tracked", productID)
			}
			record := tracker.Record{ProductID: productID, Entry: entry}
			if asJSON {
				return writeJSON(cmd, api.FromRecord(record))
			}

			colorize := shouldColorize(cmd.OutOrStdout())
			out := cmd.OutOrStdout()
			for _, line := range renderSectionHeader(nonEmptyTitle(entry.Title, productID), colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("product", statusInfo, productID, colorize))
			fmt.Fprintln(out, renderStatusLine("status", trackerStatusKind(entry.Status), string(entry.Status), colorize))
			fmt.Fprintln(out, renderStatusLine("fingerprint", statusInfo, entry.LastFingerprint, colorize))
			if entry.MediaID != "" {
				fmt.Fprintln(out, renderStatusLine("media", statusInfo, entry.MediaID, colorize))
			}
			if entry.Error != "" {
				fmt.Fprintln(out, renderStatusLine("error", statusError, entry.Error, colorize))
			}
			if !entry.UpdatedAt.IsZero() {
				fmt.Fprintln(out, renderStatusLine("updated", statusInfo, humanize.Time(entry.UpdatedAt), colorize))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func renderStateTable(records []tracker.Record) string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		updated := ""
		if !record.UpdatedAt.IsZero() {
			updated = humanize.Time(record.UpdatedAt)
		}
		rows = append(rows, []string{
			catalog.LegacyID(record.ProductID),
			record.Title,
			string(record.Status),
			shortFingerprint(record.LastFingerprint),
			record.MediaID,
			updated,
			record.Error,
		})
	}
	return renderTable([]tableColumn{
		{Header: "Product", Align: alignRight},
		{Header: "Title", MaxWidth: 32},
		{Header: "Status"},
		{Header: "Fingerprint"},
		{Header: "Media"},
		{Header: "Updated"},
		{Header: "Error", MaxWidth: 48},
	}, rows)
}

func formatCounts(counts map[tracker.Status]int) string {
	parts := make([]string, 0, len(counts))
	for _, status := range tracker.Statuses {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", status, n))
		}
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return fmt.Sprintf("%s tracked (%s)", humanize.Comma(int64(total)), strings.Join(parts, ", "))
}

func joinStatuses(statuses []tracker.Status) string {
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func shortFingerprint(fp string) string {
	if len(fp) <= fingerprintDisplayLength {
		return fp
	}
	return fp[:fingerprintDisplayLength]
}

func nonEmptyTitle(title, fallback string) string {
	if strings.TrimSpace(title) == "" {
		return fallback
	}
	return title
}
