// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import "time"

var (
	// root
	verbose bool
	// root
	profile bool
	// root
	pprofPort uint16
	// root
	hibpURL string
	// root
	hibpTimeout time.Duration
	// root
	hibpRetries int
	// root
	hibpPadding bool
	// audit
	inputFile string
	// audit
	outFile string
	// audit
	format string
	// audit
	threads int
	// audit
	overwrite bool
	// check
	interactive bool
	// check
	hashed bool
	// generate
	strategy string
	// generate
	count int
	// generate
	copyResult bool
	// generate
	checkResult bool
	// generate
	secure bool
	// serve
	selfTLS bool
	// serve
	tlsCert string
	// serve
	tlsKey string
	// serve
	port uint16
	// serve
	maxConnections int
)
