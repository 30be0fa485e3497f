package http

import (
	"net/http"
	"strconv"
	"strings"
	"unicode"
)

// sanitizeInput drops control characters other than tab and line breaks,
// then trims surrounding space.
func sanitizeInput(s string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(clean)
}

// confirmed reports whether the caller acknowledged a destructive action
// with ?confirm=true or an X-Confirm header.
func confirmed(r *http.Request) bool {
	if v := r.URL.Query().Get("confirm"); truthy(v) {
		return true
	}
	return truthy(r.Header.Get("X-Confirm"))
}

func truthy(v string) bool {
	ok, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && ok
}
