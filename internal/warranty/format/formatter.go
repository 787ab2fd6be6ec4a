package format

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultClaimNumberPrefix = "WC"
	DefaultSequenceWidth     = 5
)

// FormatClaimNumber renders <prefix>-<year>-<seq> with seq zero-padded to width.
// A sequence wider than width is printed in full.
//
// The function is pure: no clock, no DB access.
func FormatClaimNumber(prefix string, year int, seq int64, width int) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("claim number prefix is empty")
	}
	if year < 1 || year > 9999 {
		return "", fmt.Errorf("invalid claim year: %d", year)
	}
	if seq <= 0 {
		return "", fmt.Errorf("invalid claim sequence: %d", seq)
	}
	if width <= 0 {
		width = DefaultSequenceWidth
	}
	return fmt.Sprintf("%s-%04d-%0*d", prefix, year, width, seq), nil
}

// ParseClaimNumber splits a claim number back into year and sequence.
func ParseClaimNumber(prefix, number string) (int, int64, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(number), strings.TrimSpace(prefix)+"-")
	if !ok {
		return 0, 0, fmt.Errorf("claim number %q does not start with %q", number, prefix)
	}
	yearPart, seqPart, ok := strings.Cut(rest, "-")
	if !ok || len(yearPart) != 4 || seqPart == "" {
		return 0, 0, fmt.Errorf("malformed claim number: %q", number)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed claim year: %w", err)
	}
	seq, err := strconv.ParseInt(seqPart, 10, 64)
	if err != nil || seq <= 0 {
		return 0, 0, fmt.Errorf("malformed claim sequence: %q", seqPart)
	}
	return year, seq, nil
}
