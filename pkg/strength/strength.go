// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

// Package strength scores passwords with zxcvbn and turns the weakest matched pattern into a short,
// human readable warning.
package strength

import (
	"github.com/nbutton23/zxcvbn-go"
	"github.com/nbutton23/zxcvbn-go/match"
)

type Analysis struct {
	Score            int     `json:"score" yaml:"score"`
	Feedback         string  `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	CrackTime        float64 `json:"crack_time" yaml:"crack_time"`
	CrackTimeDisplay string  `json:"crack_time_display" yaml:"crack_time_display"`
}

var labels = [...]string{"very weak", "weak", "fair", "strong", "very strong"}

// Label names a 0-4 score.
func Label(score int) string {
	if score < 0 {
		score = 0
	}
	if score >= len(labels) {
		score = len(labels) - 1
	}
	return labels[score]
}

// Analyze scores the password. userInputs are words the password should not be built from
// (user names, site names...).
func Analyze(password string, userInputs ...string) Analysis {
	if password == "" {
		return Analysis{Score: 0, Feedback: "Use a few words, avoid common phrases.", CrackTimeDisplay: "instant"}
	}

	res := zxcvbn.PasswordStrength(password, userInputs)
	return Analysis{
		Score:            res.Score,
		Feedback:         feedback(res.Score, res.MatchSequence),
		CrackTime:        res.CrackTime,
		CrackTimeDisplay: res.CrackTimeDisplay,
	}
}

func feedback(score int, sequence []match.Match) string {
	// Strong enough, nothing useful to say.
	if score > 2 {
		return ""
	}

	var longest *match.Match
	for i := range sequence {
		m := &sequence[i]
		if m.Pattern == "bruteforce" {
			continue
		}
		if longest == nil || len(m.Token) > len(longest.Token) {
			longest = m
		}
	}

	if longest != nil {
		if warning := patternWarning(longest, len(sequence) == 1); warning != "" {
			return warning
		}
	}

	return "Add another word or two. Uncommon words are better."
}

func patternWarning(m *match.Match, whole bool) string {
	switch m.Pattern {
	case "dictionary":
		switch {
		case m.DictionaryName == "Passwords" && whole:
			return "This is a very common password."
		case m.DictionaryName == "Passwords":
			return "This is similar to a commonly used password."
		case m.DictionaryName == "Surnames" || m.DictionaryName == "MaleNames" || m.DictionaryName == "FemaleNames":
			return "Names and surnames by themselves are easy to guess."
		case m.DictionaryName == "UserInputs" || m.DictionaryName == "user_inputs":
			return "Avoid words related to you or the site."
		case whole:
			return "A word by itself is easy to guess."
		}
		return "Common words are easy to guess."
	case "spatial":
		return "Straight rows or short patterns of keys are easy to guess."
	case "repeat":
		return "Repeats like \"aaa\" or \"abcabcabc\" are easy to guess."
	case "sequence":
		return "Sequences like abc or 6543 are easy to guess."
	case "date":
		return "Dates are often easy to guess."
	}
	return ""
}
