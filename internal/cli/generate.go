// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"errors"
	"fmt"
	"github.com/alvinbaena/pwd-fortress/internal/audit"
	"github.com/alvinbaena/pwd-fortress/internal/util"
	"github.com/alvinbaena/pwd-fortress/pkg/generator"
	"github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"io"
)

var (
	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate passphrases (Word-Word-Word-Word123) or 16 character random passwords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateCommand(cmd.Context(), cmd.OutOrStdout())
		},
	}
)

func init() {
	generateCmd.Flags().StringVarP(&strategy, "strategy", "t", "passphrase", "Generation strategy: passphrase or random")
	generateCmd.Flags().IntVarP(&count, "count", "c", 1, "Amount of passwords to generate")
	generateCmd.Flags().BoolVar(&copyResult, "copy", false, "Copy the last generated password to the clipboard")
	generateCmd.Flags().BoolVar(&checkResult, "check", false, "Also check each generated password against the Pwned Passwords corpus")
	generateCmd.Flags().BoolVar(&secure, "secure", false, "Draw from the system's cryptographic random source instead of the default pseudorandom one")

	rootCmd.AddCommand(generateCmd)
}

func generateCommand(ctx context.Context, out io.Writer) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)
	if ctx == nil {
		ctx = context.Background()
	}

	if count < 1 {
		return errors.New("count must be at least 1")
	}

	s, err := generator.ParseStrategy(strategy)
	if err != nil {
		return err
	}

	var src generator.RandomSource
	if secure {
		src = generator.NewCryptoSource()
	}
	gen := generator.New(src)

	var auditor *audit.Auditor
	if checkResult {
		client, cleanup, err := newLookupClient(cliLookupSettings())
		if err != nil {
			return err
		}
		defer cleanup()
		auditor = audit.NewAuditor(client)
	}

	var last string
	for i := 0; i < count; i++ {
		password, err := gen.Generate(generator.Config{Strategy: s})
		if err != nil {
			return err
		}
		last = password

		if auditor == nil {
			if _, err = fmt.Fprintln(out, password); err != nil {
				return err
			}
			continue
		}

		report := auditor.Audit(ctx, password)
		if _, err = fmt.Fprintf(out, "%s\t%s\n", password, audit.FormatLeak(report)); err != nil {
			return err
		}
	}

	if copyResult {
		if err = clipboard.WriteAll(last); err != nil {
			log.Warn().Err(err).Msg("could not copy the password to the clipboard")
		} else {
			log.Info().Msg("password copied to the clipboard")
		}
	}

	return nil
}
