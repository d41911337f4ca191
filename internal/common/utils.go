package common

import "strings"

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// SafePathComponent turns a location label into a single file name component
// that cannot climb out of the directory it is joined to.
func SafePathComponent(s string) string {
	s = strings.TrimSpace(s)
	if HasAny(s, "/", "\\", "\x00") {
		s = strings.Map(func(r rune) rune {
			switch r {
			case '/', '\\', 0:
				return '_'
			}
			return r
		}, s)
	}
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
