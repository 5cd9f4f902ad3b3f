// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package llm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

var (
	trailingComma   = regexp.MustCompile(`,(\s*[}\]])`)
	isoDurationExpr = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)
)

// ExtractJSON isolates the outermost JSON object in model output and repairs
// the common defects: surrounding prose or code fences, trailing commas and
// single-quoted strings. The returned bytes are valid JSON.
func ExtractJSON(raw string) ([]byte, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrInvalidResponse)
	}
	text := raw[start : end+1]

	if json.Valid([]byte(text)) {
		return []byte(text), nil
	}
	if fixed := trailingComma.ReplaceAllString(text, "$1"); json.Valid([]byte(fixed)) {
		return []byte(fixed), nil
	}
	fixed := trailingComma.ReplaceAllString(strings.ReplaceAll(text, "'", `"`), "$1")
	if json.Valid([]byte(fixed)) {
		return []byte(fixed), nil
	}
	return nil, fmt.Errorf("%w: malformed JSON object", ErrInvalidResponse)
}

// ParseJSON extracts the JSON object in raw and decodes it into v.
func ParseJSON(raw string, v any) error {
	data, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// ParseISODuration converts an ISO 8601 duration such as PT1H30M into whole
// minutes, rounding seconds up. It returns false for anything it cannot read.
func ParseISODuration(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "P" || s == "PT" {
		return 0, false
	}
	m := isoDurationExpr.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	atoi := func(v string) int {
		n, _ := strconv.Atoi(v) //nolint:errcheck // regexp guarantees digits
		return n
	}
	minutes := atoi(m[1])*24*60 + atoi(m[2])*60 + atoi(m[3])
	if m[4] != "" {
		secs, _ := strconv.ParseFloat(m[4], 64) //nolint:errcheck // regexp guarantees a number
		if secs > 0 {
			minutes += int((secs + 59) / 60)
		}
	}
	return minutes, true
}

// FormatISODuration renders minutes as PT#H#M.
func FormatISODuration(minutes int) string {
	if minutes <= 0 {
		return "PT0M"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("PT%dM", m)
	case m == 0:
		return fmt.Sprintf("PT%dH", h)
	default:
		return fmt.Sprintf("PT%dH%dM", h, m)
	}
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
