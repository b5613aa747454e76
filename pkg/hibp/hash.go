// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
)

const (
	// PrefixLen is the amount of digest characters sent to the range API. k-anonymity needs the hash like this.
	PrefixLen = 5
	// SuffixLen is the amount of digest characters kept locally and compared against the range response.
	SuffixLen = sha1.Size*2 - PrefixLen
)

var sha1Hex = regexp.MustCompile(`^[a-fA-F\d]{40}$`)

// Hasher turns a credential into a hexadecimal digest. The Client only cares about the
// digest being upper case hexadecimal of at least PrefixLen characters.
type Hasher interface {
	Digest(credential string) string
}

// SHA1Hasher is the hasher the Pwned Passwords range API is keyed by.
type SHA1Hasher struct{}

func (SHA1Hasher) Digest(credential string) string {
	sum := sha1.Sum([]byte(credential))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Split separates a digest into the prefix that is sent over the network and the suffix that is not.
func Split(digest string) (prefix string, suffix string) {
	if len(digest) < PrefixLen {
		return digest, ""
	}
	return digest[:PrefixLen], digest[PrefixLen:]
}

// IsSHA1Hex reports whether s is a 40 character hexadecimal SHA1 digest.
func IsSHA1Hex(s string) bool {
	return sha1Hex.MatchString(s)
}
