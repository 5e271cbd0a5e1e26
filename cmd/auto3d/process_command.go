package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"auto3d/internal/catalog"
	"auto3d/internal/pipeline"
)

type processOutput struct {
	ProductID string `json:"productId"`
	Decision  string `json:"decision"`
	Status    string `json:"status,omitempty"`
	MediaID   string `json:"mediaId,omitempty"`
	Error     string `json:"error,omitempty"`
}

func newProcessOutput(result pipeline.Result) processOutput {
	out := processOutput{
		ProductID: result.ProductID,
		Decision:  string(result.Decision),
		Status:    string(result.Status),
		MediaID:   result.MediaID,
	}
	if result.Failure != nil {
		out.Error = result.Failure.Error()
	}
	return out
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "process <product-id>",
		Short: "Run the pipeline once for a single product",
		Long: "Run the pipeline once for a single product. The id may be a full gid or the\n" +
			"numeric product id. Exits zero once the pipeline has run, even if generation failed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID := catalog.ProductGID(args[0])
			if productID == "" {
				return errors.New("product id is required")
			}

			w, err := ctx.openWriter(cmd.Context())
			if err != nil {
				return err
			}
			defer w.Close()

			result, err := w.poller.ProcessOne(cmd.Context(), productID)
			if err != nil {
				if errors.Is(err, catalog.ErrProductNotFound) {
					return fmt.Errorf("product %s not found", productID)
				}
				return err
			}
			if result.Err != nil {
				return fmt.Errorf("record outcome: %w", result.Err)
			}
			if asJSON {
				return writeJSON(cmd, newProcessOutput(result))
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func printResult(out io.Writer, result pipeline.Result) {
	fmt.Fprintf(out, "Product:  %s\n", result.ProductID)
	fmt.Fprintf(out, "Decision: %s\n", result.Decision)
	if result.Status != "" {
		fmt.Fprintf(out, "Status:   %s\n", result.Status)
	}
	if result.MediaID != "" {
		fmt.Fprintf(out, "Media:    %s\n", result.MediaID)
	}
	if result.Failure != nil {
		fmt.Fprintf(out, "Error:    %v\n", result.Failure)
	}
}
