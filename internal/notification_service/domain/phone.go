package domain

import "strings"

// NormalizedPhone is a digits-only address that starts with the region's calling code.
type NormalizedPhone string

func (p NormalizedPhone) String() string { return string(p) }

// Normalize strips every non-digit from raw, swaps a single leading trunk prefix
// for the calling code and rejects anything that then lacks the calling code.
//
// This is a heuristic, not E.164 validation: digit count is not checked, so a
// malformed number that happens to start with the calling code is accepted.
func (r Region) Normalize(raw string) (NormalizedPhone, error) {
	var b strings.Builder
	b.Grow(len(raw) + len(r.CallingCode))
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	digits := b.String()

	if r.TrunkPrefix != "" && strings.HasPrefix(digits, r.TrunkPrefix) {
		digits = r.CallingCode + strings.TrimPrefix(digits, r.TrunkPrefix)
	}
	if digits == "" || !strings.HasPrefix(digits, r.CallingCode) {
		return "", ErrNonRegionalPhone
	}
	return NormalizedPhone(digits), nil
}
