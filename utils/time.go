// utils/time.go
package utils

import "time"

// ParseTimePtr parses an RFC 3339 timestamp, returning nil for absent or
// unparseable input.
func ParseTimePtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}
