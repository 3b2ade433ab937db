// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "FR"

// minMatchDigits is the floor below which a number is considered too short
// to be compared: short fragments would otherwise produce false duplicate
// matches.
const minMatchDigits = 8

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// MatchKey reduces a phone number to a canonical digit string used for
// duplicate detection. A national leading "0" and the "+33" country prefix
// map to the same key, so "06 12 34 56 78" and "+33612345678" compare equal.
// Returns "" when the input carries fewer than minMatchDigits significant
// digits.
func MatchKey(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	if number, err := phonenumbers.Parse(trimmed, defaultRegion); err == nil && phonenumbers.IsValidNumber(number) {
		key := strings.TrimPrefix(phonenumbers.Format(number, phonenumbers.E164), "+")
		if countDigits(key) < minMatchDigits {
			return ""
		}
		return key
	}

	digits := stripNonDigits(trimmed)
	switch {
	case strings.HasPrefix(digits, "33"):
		// Already carries the country prefix.
	case strings.HasPrefix(digits, "0"):
		digits = "33" + digits[1:]
	}

	if countDigits(digits) < minMatchDigits {
		return ""
	}
	return digits
}

func stripNonDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func countDigits(value string) int {
	count := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}
