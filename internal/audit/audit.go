// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package audit

import (
	"context"
	"github.com/alvinbaena/pwd-fortress/pkg/hibp"
	"github.com/alvinbaena/pwd-fortress/pkg/strength"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"unicode/utf8"
)

// MinLookupLength is the length a credential has to exceed before it is worth a remote lookup.
const MinLookupLength = 3

// Lookuper is the breach lookup the auditor depends on. *hibp.Client satisfies it.
type Lookuper interface {
	Lookup(ctx context.Context, credential string) hibp.Result
}

type Report struct {
	Strength strength.Analysis `json:"strength" yaml:"strength"`
	Leak     hibp.Result       `json:"leak" yaml:"leak"`
	// Checked is false when the credential was too short for a lookup, Leak is meaningless then.
	Checked bool `json:"checked" yaml:"checked"`
}

// Auditor scores a credential and checks it against the breach corpus.
type Auditor struct {
	lookup Lookuper
}

func NewAuditor(lookup Lookuper) *Auditor {
	return &Auditor{lookup: lookup}
}

func (a *Auditor) Audit(ctx context.Context, credential string) Report {
	report := Report{Strength: strength.Analyze(credential)}
	if !ShouldLookup(credential) {
		return report
	}

	report.Leak = a.lookup.Lookup(ctx, credential)
	report.Checked = true
	return report
}

// ShouldLookup applies the minimum length policy for remote lookups.
func ShouldLookup(credential string) bool {
	return utf8.RuneCountInString(credential) > MinLookupLength
}

// FormatLeak renders the leak status of a report. Unknown status is never shown as safe.
func FormatLeak(r Report) string {
	if !r.Checked {
		return "Too short to check for leaks."
	}
	if r.Leak.Failed {
		return "Leak status unknown, the lookup failed."
	}
	if r.Leak.Count == 0 {
		return "No leaks found."
	}

	if r.Leak.Count == 1 {
		return "Leaked once!"
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("Leaked %d times!", r.Leak.Count)
}
