// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrMalformedRange = errors.New("malformed range response")

// ParseRange reads a range response body, newline separated SUFFIX:COUNT records, and returns the
// count of the record whose suffix is exactly the given one. Zero means the suffix is not present.
//
// The comparison is done against the whole record suffix, never as a substring, so suffixes of
// other entries that happen to overlap cannot produce false positives.
func ParseRange(body io.Reader, suffix string) (int64, error) {
	var found int64
	matched := false

	scanner := bufio.NewScanner(body)
	line := 0
	for scanner.Scan() {
		line++
		// The API uses CRLF, be lenient with stray whitespace too.
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		recordSuffix, rawCount, ok := strings.Cut(text, ":")
		if !ok {
			return 0, fmt.Errorf("%w: line %d has no separator", ErrMalformedRange, line)
		}

		count, err := strconv.ParseInt(strings.TrimSpace(rawCount), 10, 64)
		if err != nil || count < 0 {
			return 0, fmt.Errorf("%w: line %d has an invalid count %q", ErrMalformedRange, line, rawCount)
		}

		if !matched && strings.EqualFold(recordSuffix, suffix) {
			found = count
			matched = true
		}
	}

	if err := scanner.Err(); err != nil {
		return 0, err
	}

	return found, nil
}
