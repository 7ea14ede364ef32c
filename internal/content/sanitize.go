package content

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// Sanitize strips null bytes and percent-encodes every non-ASCII rune so the
// output is safe to move through transports that choke on surrogate pairs.
// The contract is ASCII-only output.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])

		switch {
		case r == 0:
			// drop NULs
		case r == utf8.RuneError && size == 1:
			// invalid byte, drop it
		case r < utf8.RuneSelf:
			b.WriteByte(byte(r))
		default:
			b.WriteString(url.QueryEscape(string(r)))
		}

		i += size
	}

	return b.String()
}
