// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"github.com/alvinbaena/pwd-fortress/pkg/hibp"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "pwdfortress [COMMAND] [OPTIONS]",
		Short: "Audit and generate passwords",
		Long: "Audit passwords for strength and check them against the Pwned Passwords (haveibeenpwned.com) " +
			"breach corpus using k-anonymity: only the first 5 characters of the SHA1 hash ever leave this machine. " +
			"This command also generates passphrases and random passwords",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print more information on the processing")
	rootCmd.PersistentFlags().BoolVar(&profile, "profile", false, "Enable the profiling server (pprof) when running commands")
	rootCmd.PersistentFlags().Uint16Var(&pprofPort, "profile-port", 6060, "The port to use for the pprof server. Only used if the profile flag is set")
	rootCmd.PersistentFlags().StringVar(&hibpURL, "hibp-url", hibp.DefaultBaseURL, "Base URL of the Pwned Passwords range API")
	rootCmd.PersistentFlags().DurationVar(&hibpTimeout, "hibp-timeout", hibp.DefaultTimeout, "Timeout for each range request")
	rootCmd.PersistentFlags().IntVar(&hibpRetries, "hibp-retries", 0, "Retries for failed range requests. By default a lookup is a single best-effort request")
	rootCmd.PersistentFlags().BoolVar(&hibpPadding, "hibp-padding", false, "Ask the range API to pad responses, hiding the prefix from anyone watching response sizes")
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
