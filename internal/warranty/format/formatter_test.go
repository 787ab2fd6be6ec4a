package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatClaimNumber(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		year   int
		seq    int64
		width  int
		want   string
	}{
		{name: "first of year", prefix: "WC", year: 2025, seq: 1, width: 5, want: "WC-2025-00001"},
		{name: "mid sequence", prefix: "WC", year: 2025, seq: 42, width: 5, want: "WC-2025-00042"},
		{name: "overflows width", prefix: "WC", year: 2025, seq: 123456, width: 5, want: "WC-2025-123456"},
		{name: "custom prefix", prefix: "RV", year: 2026, seq: 7, width: 3, want: "RV-2026-007"},
		{name: "zero width uses default", prefix: "WC", year: 2025, seq: 9, width: 0, want: "WC-2025-00009"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatClaimNumber(tt.prefix, tt.year, tt.seq, tt.width)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatClaimNumberRejectsInvalidInput(t *testing.T) {
	_, err := FormatClaimNumber("", 2025, 1, 5)
	assert.Error(t, err)

	_, err = FormatClaimNumber("WC", 2025, 0, 5)
	assert.Error(t, err)

	_, err = FormatClaimNumber("WC", 0, 1, 5)
	assert.Error(t, err)
}

func TestParseClaimNumber(t *testing.T) {
	year, seq, err := ParseClaimNumber("WC", "WC-2025-00042")
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, int64(42), seq)

	for _, bad := range []string{"XX-2025-00001", "WC-25-00001", "WC-2025-", "WC-2025-abc", "WC-2025-00000"} {
		_, _, err := ParseClaimNumber("WC", bad)
		assert.Error(t, err, bad)
	}
}
