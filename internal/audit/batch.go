// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/alvinbaena/pwd-fortress/pkg/strength"
	"github.com/jfcg/sorty/v2"
	"github.com/rs/zerolog/log"
	"github.com/thinhdanggroup/executor"
	"gopkg.in/yaml.v3"
	"io"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// Entry is the audit of one input line, identified by its line number. Nothing derived from the
// credential text is part of an entry.
type Entry struct {
	Line         int    `json:"line" yaml:"line"`
	Score        int    `json:"score" yaml:"score"`
	Strength     string `json:"strength" yaml:"strength"`
	Feedback     string `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	CrackTime    string `json:"crack_time" yaml:"crack_time"`
	Checked      bool   `json:"checked" yaml:"checked"`
	Leaks        *int64 `json:"leaks" yaml:"leaks"`
	LookupFailed bool   `json:"lookup_failed" yaml:"lookup_failed"`
}

type Summary struct {
	Generated time.Time `json:"generated" yaml:"generated"`
	Total     int       `json:"total" yaml:"total"`
	Pwned     int       `json:"pwned" yaml:"pwned"`
	Unknown   int       `json:"unknown" yaml:"unknown"`
	Weak      int       `json:"weak" yaml:"weak"`
	Entries   []Entry   `json:"entries" yaml:"entries"`
}

// Batch audits many credentials concurrently with a bounded pool of workers.
type Batch struct {
	auditor *Auditor
	threads int
}

// NewBatch creates a batch auditor. threads < 1 defaults to four workers per logical processor,
// lookups spend almost all of their time waiting on the network.
func NewBatch(auditor *Auditor, threads int) *Batch {
	if threads < 1 {
		threads = runtime.NumCPU() * 4
	}
	return &Batch{auditor: auditor, threads: threads}
}

// Run audits every non empty line of in. Entries come back ordered from most to least leaked, with
// failed lookups after confirmed leaks and unchecked credentials last.
func (b *Batch) Run(ctx context.Context, in io.Reader) (*Summary, error) {
	var lines []string
	var lineNumbers []int

	scanner := bufio.NewScanner(in)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		lines = append(lines, text)
		lineNumbers = append(lineNumbers, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading credentials: %w", err)
	}

	// This is a bounded thread pool. I just didn't want to implement it myself...
	tasks, err := executor.New(executor.Config{
		ReqPerSeconds: 0,
		QueueSize:     2 * b.threads,
		NumWorkers:    b.threads,
	})
	if err != nil {
		return nil, err
	}
	defer tasks.Close()

	log.Info().Msgf("auditing %d credentials with %d threads", len(lines), b.threads)
	entries := make([]Entry, len(lines))
	var done int64
	for i := range lines {
		if err = tasks.Publish(func(i int) {
			entries[i] = newEntry(lineNumbers[i], b.auditor.Audit(ctx, lines[i]))
			if c := atomic.AddInt64(&done, 1); c%100 == 0 {
				log.Debug().Msgf("%d/%d credentials audited", c, len(lines))
			}
		}, i); err != nil {
			return nil, fmt.Errorf("error scheduling audit for line %d: %w", lineNumbers[i], err)
		}
	}
	tasks.Wait()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	sortEntries(entries)
	return summarize(entries), nil
}

func newEntry(line int, r Report) Entry {
	e := Entry{
		Line:         line,
		Score:        r.Strength.Score,
		Strength:     strength.Label(r.Strength.Score),
		Feedback:     r.Strength.Feedback,
		CrackTime:    r.Strength.CrackTimeDisplay,
		Checked:      r.Checked,
		LookupFailed: r.Checked && r.Leak.Failed,
	}
	if r.Checked && r.Leak.Known() {
		count := r.Leak.Count
		e.Leaks = &count
	}
	return e
}

// rank orders entries: known leak counts first, then unknown, then unchecked.
func rank(e Entry) int64 {
	switch {
	case e.Leaks != nil:
		return *e.Leaks
	case e.LookupFailed:
		return -1
	}
	return -2
}

func sortEntries(entries []Entry) {
	lsw := func(i, k, r, s int) bool {
		ri, rk := rank(entries[i]), rank(entries[k])
		if ri > rk || (ri == rk && entries[i].Line < entries[k].Line) {
			if r != s {
				entries[r], entries[s] = entries[s], entries[r]
			}
			return true
		}
		return false
	}
	sorty.Sort(len(entries), lsw)
}

func summarize(entries []Entry) *Summary {
	s := &Summary{Generated: time.Now().UTC(), Total: len(entries), Entries: entries}
	for _, e := range entries {
		if e.Leaks != nil && *e.Leaks > 0 {
			s.Pwned++
		}
		if e.LookupFailed {
			s.Unknown++
		}
		if e.Score < 3 {
			s.Weak++
		}
	}
	return s
}

// ErrUnknownFormat is returned for report formats other than json and yaml.
var ErrUnknownFormat = errors.New("unknown report format")

// ReportFormat normalizes a report format name, an empty name is json.
func ReportFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "json", "":
		return "json", nil
	case "yaml", "yml":
		return "yaml", nil
	}
	return "", fmt.Errorf("%w %q, use json or yaml", ErrUnknownFormat, format)
}

// WriteReport encodes the summary as "json" or "yaml".
func WriteReport(w io.Writer, s *Summary, format string) error {
	format, err := ReportFormat(format)
	if err != nil {
		return err
	}

	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
