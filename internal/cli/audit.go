// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"github.com/alvinbaena/pwd-fortress/internal/audit"
	"github.com/alvinbaena/pwd-fortress/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"io"
	"os"
	"path/filepath"
	"time"
)

var (
	auditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Audit a file of passwords, one per line, and write a report without the passwords in it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return auditCommand(cmd.Context(), cmd.OutOrStdout())
		},
	}
)

//goland:noinspection GoUnhandledErrorResult
func init() {
	auditCmd.Flags().StringVarP(&inputFile, "in-file", "i", "", "Passwords input file path, one per line (required)")
	auditCmd.MarkFlagRequired("in-file")
	auditCmd.Flags().StringVarP(&outFile, "out-file", "o", "", "Report output path. Defaults to stdout")
	auditCmd.Flags().StringVarP(&format, "format", "f", "json", "Report format: json or yaml")
	auditCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite any existing files while writing the results.")
	auditCmd.Flags().IntVarP(&threads, "threads", "t", 0, "Number of threads to use for the lookups. If omitted defaults to four times the number of logical processors of the machine.")

	rootCmd.AddCommand(auditCmd)
}

func auditCommand(ctx context.Context, stdout io.Writer) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)
	if ctx == nil {
		ctx = context.Background()
	}

	reportFormat, err := audit.ReportFormat(format)
	if err != nil {
		return err
	}

	s := util.Stats()
	defer s()

	file, err := os.Open(inputFile)
	if err != nil {
		return err
	}

	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			log.Error().Err(err).Msg("error closing passwords file")
		}
	}(file)

	var out io.Writer = stdout
	if outFile != "" {
		abs, err := filepath.Abs(outFile)
		if err != nil {
			log.Fatal().Err(err).Msgf("could not get absolute path of file")
		}

		if !overwrite {
			if _, err := os.Stat(abs); err == nil {
				log.Fatal().Msgf("file %s exists and overwrite flag is not set", abs)
			}
		}

		report, err := os.Create(abs)
		if err != nil {
			return err
		}

		defer func(report *os.File) {
			if err := report.Close(); err != nil {
				log.Error().Err(err).Msg("error closing report file")
			}
		}(report)
		out = report
	}

	settings := cliLookupSettings()
	// Batches repeat prefixes far more often than single checks do.
	settings.cacheSize = 32 << 20
	settings.cacheTTL = 10 * time.Minute
	client, cleanup, err := newLookupClient(settings)
	if err != nil {
		return err
	}
	defer cleanup()
	defer client.Stats()

	summary, err := audit.NewBatch(audit.NewAuditor(client), threads).Run(ctx, file)
	if err != nil {
		return err
	}

	log.Info().Msgf("audited %d passwords: %d pwned, %d with unknown leak status, %d weak",
		summary.Total, summary.Pwned, summary.Unknown, summary.Weak)
	return audit.WriteReport(out, summary, reportFormat)
}
