// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package util

import (
	"fmt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"
	"unicode"
)

// SetupLogger sends the global logger to stdout, with colours only when stdout is a terminal.
func SetupLogger() {
	noColor := !term.IsTerminal(int(os.Stdout.Fd()))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: noColor, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func Stats() func() {
	start := time.Now()
	return func() {
		log.Debug().Msgf("time to run %v", time.Since(start))
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		log.Debug().Msgf("Alloc: %d MB, TotalAlloc: %d MB, Requested: %d MB",
			ms.Alloc/1024/1024, ms.TotalAlloc/1024/1024, ms.Sys/1024/1024)
		log.Debug().Msgf("Mallocs: %d, Frees: %d, GC: %d", ms.Mallocs, ms.Frees, ms.NumGC)
	}
}

func ApplyCliSettings(verbose bool, profile bool, pprofPort uint16) {
	if verbose {
		log.Warn().Msgf("verbosity up")
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if profile {
		log.Info().Msgf("profiling is enabled for this session. Server will listen on port %d", pprofPort)
		go func() {
			if err := http.ListenAndServe(fmt.Sprintf("localhost:%d", pprofPort), nil); err != nil {
				log.Error().Err(err).Msgf("error starting profiling server on port %d", pprofPort)
				return
			}
		}()
	}
}

// ToScreamingSnakeCase turns struct field names (TLSCert, SelfTLS) into their environment variable
// names (TLS_CERT, SELF_TLS). Space separated field lists are converted name by name.
func ToScreamingSnakeCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = screamingSnake(w)
	}
	return strings.Join(words, ", ")
}

// FieldConditions renders validator "Field value" pairs (required_if=SelfTLS false) with environment
// variable names, as SELF_TLS=false. Several pairs are joined with "and".
func FieldConditions(param string) string {
	words := strings.Fields(param)
	conditions := make([]string, 0, (len(words)+1)/2)
	for i := 0; i < len(words); i += 2 {
		if i+1 == len(words) {
			conditions = append(conditions, screamingSnake(words[i]))
			break
		}
		conditions = append(conditions, screamingSnake(words[i])+"="+words[i+1])
	}
	return strings.Join(conditions, " and ")
}

func screamingSnake(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToUpper(r))
	}
	return sb.String()
}
