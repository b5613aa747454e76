// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

// Package generator creates human facing default passwords, either XKCD style passphrases
// (Word-Word-Word-Word123) or fixed length random strings.
package generator

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	PassphraseWords     = 4
	PassphraseSeparator = "-"
	PassphraseDigitsMin = 100
	PassphraseDigitsMax = 999

	RandomLength = 16
	// Alphabet holds the 70 symbols random passwords are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"
)

var ErrUnknownStrategy = errors.New("unknown generation strategy")

//go:embed words.txt
var wordsFile string

var defaultWords = loadWords(wordsFile)

type Strategy int

const (
	Passphrase Strategy = iota
	RandomCharset
)

func (s Strategy) String() string {
	switch s {
	case Passphrase:
		return "passphrase"
	case RandomCharset:
		return "random"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts the names printed by Strategy.String, case-insensitive.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "passphrase", "xkcd", "words":
		return Passphrase, nil
	case "random", "charset":
		return RandomCharset, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Config selects how a single password is generated. Word count, digit count and length are fixed.
type Config struct {
	Strategy Strategy
}

type Generator struct {
	src   RandomSource
	words []string
}

type Option func(g *Generator)

// WithWords replaces the embedded word corpus. Blank words and words with anything but letters are dropped.
func WithWords(words []string) Option {
	return func(g *Generator) {
		g.words = loadWords(strings.Join(words, "\n"))
	}
}

// New creates a generator drawing from src. A nil src means NewMathSource.
func New(src RandomSource, opts ...Option) *Generator {
	if src == nil {
		src = NewMathSource()
	}

	g := &Generator{src: src, words: defaultWords}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Generate(cfg Config) (string, error) {
	switch cfg.Strategy {
	case Passphrase:
		if len(g.words) == 0 {
			return "", errors.New("passphrase generation requires a non-empty word list")
		}
		return g.Passphrase(), nil
	case RandomCharset:
		return g.Random(), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownStrategy, cfg.Strategy)
}

// Passphrase draws PassphraseWords words with replacement, capitalises them, joins them with
// PassphraseSeparator and appends a number in [PassphraseDigitsMin, PassphraseDigitsMax].
func (g *Generator) Passphrase() string {
	var sb strings.Builder
	for i := 0; i < PassphraseWords; i++ {
		if i > 0 {
			sb.WriteString(PassphraseSeparator)
		}
		sb.WriteString(capitalize(g.words[g.src.Intn(len(g.words))]))
	}

	digits := PassphraseDigitsMin + g.src.Intn(PassphraseDigitsMax-PassphraseDigitsMin+1)
	sb.WriteString(strconv.Itoa(digits))
	return sb.String()
}

// Random draws RandomLength symbols from Alphabet with replacement.
func (g *Generator) Random() string {
	buf := make([]byte, RandomLength)
	for i := range buf {
		buf[i] = Alphabet[g.src.Intn(len(Alphabet))]
	}
	return string(buf)
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}

func notLetter(r rune) bool {
	return !unicode.IsLetter(r)
}

func loadWords(raw string) []string {
	words := make([]string, 0, 1024)
	for _, line := range strings.Split(raw, "\n") {
		word := strings.ToLower(strings.TrimSpace(line))
		// Separators or digits inside a word would break the passphrase shape.
		if word == "" || strings.IndexFunc(word, notLetter) >= 0 {
			continue
		}
		words = append(words, word)
	}
	return words
}
