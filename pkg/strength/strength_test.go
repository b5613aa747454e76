// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package strength

import "testing"

func TestAnalyze(t *testing.T) {
	weak := Analyze("password")
	if weak.Score != 0 {
		t.Errorf("password should score 0, scored %d", weak.Score)
	}
	if weak.Feedback == "" {
		t.Errorf("a weak password should get feedback")
	}
	if weak.CrackTimeDisplay == "" {
		t.Errorf("crack time display should not be empty")
	}

	strong := Analyze("Velvet-Granite-Pickle-Harbor917")
	if strong.Score < 3 {
		t.Errorf("a four word passphrase should score at least 3, scored %d", strong.Score)
	}
	if strong.Feedback != "" {
		t.Errorf("a strong password should not get feedback, got %q", strong.Feedback)
	}
	if strong.CrackTime <= weak.CrackTime {
		t.Errorf("the passphrase should take longer to crack than 'password'")
	}
}

func TestAnalyze_Empty(t *testing.T) {
	if a := Analyze(""); a.Score != 0 || a.Feedback == "" {
		t.Errorf("empty password should score 0 with feedback, got %+v", a)
	}
}

func TestLabel(t *testing.T) {
	cases := map[int]string{-1: "very weak", 0: "very weak", 2: "fair", 4: "very strong", 7: "very strong"}
	for score, want := range cases {
		if got := Label(score); got != want {
			t.Errorf("Label(%d): %s, want: %s", score, got, want)
		}
	}
}
