package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegion_Normalize_Accepted(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want NormalizedPhone
	}{
		{"trunk prefix", "0771234567", "94771234567"},
		{"already international", "94771234567", "94771234567"},
		{"plus and spaces", "+94 77 123 4567", "94771234567"},
		{"dashes and parens", "(077) 123-4567", "94771234567"},
		{"only one trunk zero replaced", "00771234567", "940771234567"},
		// no length validation: a short calling-code-prefixed string still passes
		{"short but prefixed", "94", "94"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SriLanka.Normalize(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRegion_Normalize_Rejected(t *testing.T) {
	for _, raw := range []string{"+14155550123", "4155550123", "", "   ", "abc", "+44 20 7946 0958"} {
		t.Run(raw, func(t *testing.T) {
			got, err := SriLanka.Normalize(raw)
			assert.ErrorIs(t, err, ErrNonRegionalPhone)
			assert.Empty(t, got)
		})
	}
}

func TestRegion_Normalize_OutputIsDigitsWithCallingCode(t *testing.T) {
	for _, raw := range []string{"0712345678", "0 7 1 2", "+94-71-000-0000", "0"} {
		got, err := SriLanka.Normalize(raw)
		require.NoError(t, err, raw)
		assert.Regexp(t, `^94[0-9]*$`, got.String())
	}
}

func TestRegion_Normalize_CustomRegion(t *testing.T) {
	r := NewRegion("91", "0", 330)
	got, err := r.Normalize("09876543210")
	require.NoError(t, err)
	assert.Equal(t, NormalizedPhone("919876543210"), got)

	_, err = r.Normalize("0771234567")
	assert.NoError(t, err)
	_, err = r.Normalize("94771234567")
	assert.ErrorIs(t, err, ErrNonRegionalPhone)
}
