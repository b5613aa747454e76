// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"github.com/alvinbaena/pwd-fortress/internal/cli"
	"github.com/alvinbaena/pwd-fortress/internal/util"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	util.SetupLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
