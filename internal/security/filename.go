// Package security holds input hygiene helpers for values that end up in
// file names or HTTP headers.
package security

import "strings"

const maxFilenameLen = 128

// SanitizeFilename turns s into something safe to embed in a file name or a
// Content-Disposition header. Runs of characters outside [A-Za-z0-9._-]
// become a single underscore and leading or trailing dots and underscores
// are dropped. An empty result is returned as "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	pendingUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		if isFilenameRune(r) {
			if pendingUnderscore {
				b.WriteByte('_')
				pendingUnderscore = false
			}
			b.WriteRune(r)
			continue
		}
		pendingUnderscore = b.Len() > 0
	}
	if out := strings.Trim(b.String(), "._"); out != "" {
		return out
	}
	return "unknown"
}

func isFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-':
		return true
	}
	return false
}
