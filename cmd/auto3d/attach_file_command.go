package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"auto3d/internal/catalog"
)

// glbMagic opens every binary glTF container.
var glbMagic = []byte("glTF")

func newAttachFileCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "attach-file <product-id> <file.glb>",
		Short: "Upload a local GLB and attach it to a product without generation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID := catalog.ProductGID(args[0])
			if productID == "" {
				return errors.New("product id is required")
			}
			data, err := readModelFile(args[1], force)
			if err != nil {
				return err
			}

			w, err := ctx.openWriter(cmd.Context())
			if err != nil {
				return err
			}
			defer w.Close()

			product, err := w.catalog.GetProduct(cmd.Context(), productID)
			if err != nil {
				if errors.Is(err, catalog.ErrProductNotFound) {
					return fmt.Errorf("product %s not found", productID)
				}
				return err
			}

			result, err := w.orchestrator.AttachFile(cmd.Context(), product, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Attached %s (%s) to %s as %s\n",
				args[1], humanize.IBytes(uint64(len(data))), productID, result.MediaID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the binary glTF header check")
	return cmd
}

func readModelFile(path string, force bool) ([]byte, error) {
	path = strings.TrimSpace(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("model file %s is empty", path)
	}
	if !force && !bytes.HasPrefix(data, glbMagic) {
		return nil, fmt.Errorf("%s is not a binary glTF file (use --force to upload anyway)", path)
	}
	return data, nil
}
