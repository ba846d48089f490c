// Package namematch implements tail-anchored, escape-aware matching between
// qualified symbol names, e.g. "Tasks.Csc" against "Microsoft.Build.Tasks.Csc".
package namematch

import "strings"

// IsPartialMatch reports whether two qualified names refer to the same symbol,
// allowing one to be a trailing portion of the other.
//
// Names of equal length match iff they are case-insensitively equal.
// Otherwise the longer name must end with the shorter one (case-insensitive)
// and the character immediately preceding the suffix must be an unescaped
// '.' or '+', so the suffix starts on a segment boundary. A separator is
// escaped when an odd number of consecutive '\' characters precede it.
//
// The empty string matches anything.
func IsPartialMatch(nameA, nameB string) bool {
	if len(nameA) == len(nameB) {
		return strings.EqualFold(nameA, nameB)
	}

	longer, shorter := nameA, nameB
	if len(longer) < len(shorter) {
		longer, shorter = shorter, longer
	}

	if shorter == "" {
		return true
	}

	if !strings.HasSuffix(strings.ToLower(longer), strings.ToLower(shorter)) {
		return false
	}

	sep := len(longer) - len(shorter) - 1
	if longer[sep] != '.' && longer[sep] != '+' {
		return false
	}

	return !isEscaped(longer, sep)
}

// isEscaped reports whether the character at index i is escaped, i.e. is
// preceded by an odd number of consecutive backslashes.
func isEscaped(s string, i int) bool {
	backslashes := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		backslashes++
	}

	return backslashes%2 == 1
}
