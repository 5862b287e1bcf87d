// Package util provides common utility functions used across the codebase.
package util

import (
	"regexp"
	"strings"
)

var shellUnsafe = regexp.MustCompile(`[^A-Za-z0-9_@%+=:,./-]`)

// ShellQuote returns s in a form a POSIX shell reads back as the single word s.
// Words made only of safe characters are returned unchanged; everything else is
// wrapped in single quotes, with embedded single quotes written as '"'"'.
//
// The output is byte-for-byte stable because archive keys are derived from it.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !shellUnsafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellUnsplit merges an argument vector into one command line such that
// running it through `sh -c` is equivalent to executing args directly.
func ShellUnsplit(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = ShellQuote(a)
	}
	return strings.Join(quoted, " ")
}

// IsShellName reports whether name can be assigned as a variable by a POSIX
// shell: letters, digits and underscores only, not starting with a digit.
func IsShellName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
