package exam

import (
	"strings"
	"time"
	"unicode"
)

const maxFilenameRunes = 100

// SanitizeFilename strips path separators, control characters and
// characters that are reserved on common filesystems.
func SanitizeFilename(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsSpace(r):
			r = ' '
		case unicode.IsControl(r), strings.ContainsRune(`<>:"/\|?*`, r):
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), " ._")
	if rs := []rune(out); len(rs) > maxFilenameRunes {
		out = strings.TrimRight(string(rs[:maxFilenameRunes]), " ._")
	}
	return out
}

// FileName returns the download name for an export: the sanitized test name
// when one is given, otherwise the policy default plus a timestamp.
func FileName(testName string, policy Policy, format Format, now time.Time) string {
	if name := SanitizeFilename(testName); name != "" {
		return name + format.Extension()
	}
	return policy.DefaultBaseName() + "_" + now.Format("20060102_150405") + format.Extension()
}
