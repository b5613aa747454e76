// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"errors"
	"github.com/alvinbaena/pwd-fortress/internal/audit"
	"github.com/alvinbaena/pwd-fortress/internal/util"
	"github.com/alvinbaena/pwd-fortress/pkg/hibp"
	"github.com/alvinbaena/pwd-fortress/pkg/strength"
	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"strings"
)

var (
	checkCmd = &cobra.Command{
		Use:   "check [PASSWORD]",
		Short: "Audit a password's strength and check it against the Pwned Passwords corpus",
		Args: func(cmd *cobra.Command, args []string) error {
			if !interactive {
				if err := cobra.ExactArgs(1)(cmd, args); err != nil {
					return err
				}
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return checkCommand(cmd.Context(), "")
			}
			return checkCommand(cmd.Context(), args[0])
		},
	}
)

//goland:noinspection GoUnhandledErrorResult
func init() {
	checkCmd.Flags().BoolVarP(&interactive, "interactive", "n", false, "Interactive mode.")
	checkCmd.Flags().BoolVarP(&hashed, "hashed", "s", false, "If the supplied password will be a Hexadecimal SHA1 hash or a plain text string.")

	rootCmd.AddCommand(checkCmd)
}

func checkCommand(ctx context.Context, password string) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)
	if ctx == nil {
		ctx = context.Background()
	}

	client, cleanup, err := newLookupClient(cliLookupSettings())
	if err != nil {
		return err
	}
	defer cleanup()
	defer client.Stats()

	session := audit.NewSession(audit.NewAuditor(client))

	if !interactive {
		return processInput(ctx, password, client, session)
	}

	label := "Password"
	if hashed {
		label = "SHA1 Hex hash"
	}

	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if len(input) == 0 {
				return errors.New("please enter a valid password")
			}
			if hashed && !hibp.IsSHA1Hex(input) {
				return errors.New("input is not a valid SHA1 Hexadecimal hash")
			}
			return nil
		},
	}

	if !hashed {
		prompt.Mask = '*'
	} else {
		log.Info().Msgf("flag 'hashed' is set. Please use SHA1 hashed passwords.")
	}

	log.Info().Msgf("running interactive session. ^C to exit")
	if err = runInteractiveSession(ctx, prompt, client, session); err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			log.Info().Msgf("goodbye")
		} else {
			log.Error().Err(err).Msgf("error during interactive session")
		}
		// No return to avoid the default cobra error message
		return nil
	}

	return nil
}

func runInteractiveSession(ctx context.Context, prompt promptui.Prompt, client *hibp.Client, session *audit.Session) error {
	for {
		result, err := prompt.Run()
		if err != nil {
			return err
		}

		if err = processInput(ctx, result, client, session); err != nil {
			log.Error().Err(err).Msg("error processing input")
		}
	}
}

func processInput(ctx context.Context, input string, client *hibp.Client, session *audit.Session) error {
	if hashed {
		if !hibp.IsSHA1Hex(input) {
			return errors.New("input is not a valid SHA1 Hexadecimal hash")
		}

		report := audit.Report{Checked: true, Leak: hibp.LookupFailed}
		if count, err := client.LookupDigest(ctx, strings.ToUpper(input)); err == nil {
			report.Leak = hibp.Result{Count: count}
		} else {
			log.Debug().Err(err).Msg("hash lookup failed")
		}
		printLeak(report)
		return nil
	}

	report, err := session.Submit(ctx, input)
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

func printReport(report audit.Report) {
	s := report.Strength
	log.Info().Msgf("strength: %s (%d/4). Time to crack: %s", strength.Label(s.Score), s.Score, s.CrackTimeDisplay)
	if s.Feedback != "" {
		log.Warn().Msg(s.Feedback)
	} else {
		log.Info().Msg("no obvious patterns found")
	}
	printLeak(report)
}

func printLeak(report audit.Report) {
	msg := audit.FormatLeak(report)
	switch {
	case report.Checked && report.Leak.Failed:
		log.Warn().Msg(msg)
	case report.Leak.Pwned():
		log.Error().Msg(msg)
	default:
		log.Info().Msg(msg)
	}
}
