package utils

import "strings"

const maskVisible = 2

// MaskValue hides a secret for logging, keeping only a short prefix of
// values long enough that the prefix does not give them away.
func MaskValue(v string) string {
	if len(v) < 4*maskVisible {
		return strings.Repeat("*", len(v))
	}
	return v[:maskVisible] + strings.Repeat("*", len(v)-maskVisible)
}
