package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"auto3d/internal/logging"
	"auto3d/internal/preflight"
)

const doctorTimeout = 30 * time.Second

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "doctor",
		Short:       "Check configuration, local paths and remote credentials",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			cfg, err := ctx.ensureConfig()
			if err != nil {
				if asJSON {
					_ = writeJSON(cmd, []preflight.Result{{Name: "Configuration", Detail: err.Error()}})
				} else {
					fmt.Fprintln(out, renderStatusLine("configuration", statusError, err.Error(), colorize))
				}
				return errors.New("configuration invalid")
			}

			var probes preflight.Probes
			if !offline {
				logger := logging.NewNop()
				catalogClient, err := newCatalogClient(cfg, logger)
				if err != nil {
					return err
				}
				generatorClient, err := newGeneratorClient(cfg, logger)
				if err != nil {
					return err
				}
				probes = preflight.Probes{Catalog: catalogClient, Generator: generatorClient}
			}

			checkCtx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
			defer cancel()
			results := append([]preflight.Result{{
				Name:   "Configuration",
				Passed: true,
				Detail: nonEmptyTitle(ctx.configPath, "defaults and environment"),
			}}, preflight.RunAll(checkCtx, cfg, probes)...)

			if asJSON {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				for _, line := range renderSectionHeader("auto3d doctor", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, line := range preflightLines(results, colorize) {
					fmt.Fprintln(out, line)
				}
			}

			if failed := preflight.Failed(results); failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip catalog and generator reachability checks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}
