// Package stamp renders event timestamps using moment.js-style format
// strings. Browser-side tooling and note templates standardize on the moment
// token vocabulary ("YYYY-MM-DD HH:mm"), so settings accept that form and we
// translate it to a Go reference layout once per render.
package stamp

import (
	"strings"
	"time"
)

// DefaultLayout is the moment-style format used when none is configured.
const DefaultLayout = "YYYY-MM-DD HH:mm"

// tokens maps moment format tokens to Go reference-time fragments.
// Order matters: longer tokens must win over their prefixes.
var tokens = []struct {
	moment string
	layout string
}{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"DD", "02"},
	{"D", "2"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"HH", "15"},
	{"H", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"A", "PM"},
	{"a", "pm"},
	{"ZZ", "-0700"},
	{"Z", "-07:00"},
}

// GoLayout translates a moment-style format string to a Go time layout.
// Text wrapped in square brackets is passed through literally, as in moment.
// An empty input yields the translation of DefaultLayout.
func GoLayout(momentLayout string) string {
	if momentLayout == "" {
		momentLayout = DefaultLayout
	}
	var b strings.Builder
	for i := 0; i < len(momentLayout); {
		if momentLayout[i] == '[' {
			if end := strings.IndexByte(momentLayout[i:], ']'); end >= 0 {
				b.WriteString(momentLayout[i+1 : i+end])
				i += end + 1
				continue
			}
		}
		matched := false
		for _, tok := range tokens {
			if strings.HasPrefix(momentLayout[i:], tok.moment) {
				b.WriteString(tok.layout)
				i += len(tok.moment)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(momentLayout[i])
			i++
		}
	}
	return b.String()
}

// Format renders t with the given moment-style format string.
func Format(t time.Time, momentLayout string) string {
	return t.Format(GoLayout(momentLayout))
}
