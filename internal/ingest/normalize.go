package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanValue normalizes one raw field value from an untrusted file:
// byte-order-mark stripped, surrounding whitespace trimmed, internal
// whitespace runs collapsed to a single space, C0/C1 control characters
// removed. Output is NFC so visually identical values compare equal.
// Cleaning an already-clean value is a no-op.
func CleanValue(value string) string {
	s := strings.TrimPrefix(value, "\ufeff")
	s = strings.TrimSpace(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x7f && r <= 0x9f) {
			return -1
		}
		return r
	}, s)
	return norm.NFC.String(s)
}

// CoerceNumber cleans the value, strips every character that is not a digit,
// '.', or '-', and parses the remainder as a float. The ok result is false on
// empty input or when parsing yields nothing finite.
func CoerceNumber(value string) (float64, bool) {
	cleaned := CleanValue(value)
	if cleaned == "" {
		return 0, false
	}

	stripped := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, cleaned)
	if stripped == "" {
		return 0, false
	}

	parsed, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}
