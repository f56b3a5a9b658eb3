package service

import (
	"strconv"
	"strings"
	"time"
)

// parseDeviceTimestamp accepts RFC 3339 (with or without fractional
// seconds) or integer Unix milliseconds, the two forms nodes emit.
// It returns nil for empty or unparseable input.
func parseDeviceTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		u := t.UTC()
		return &u
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		u := time.UnixMilli(ms).UTC()
		return &u
	}
	return nil
}
