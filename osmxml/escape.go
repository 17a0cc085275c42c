// Package osmxml implements the OSM 0.6 / osmChange XML dialect: a
// streaming SAX-style decoder that fills osmbuf.Buffers, and an encoder
// that serializes committed Buffers back to UTF-8 XML text (§4.F).
package osmxml

import "strings"

// escapeAttr escapes an attribute value the way the OSM XML dialect
// requires: the five standard XML entities plus the three whitespace
// control characters that would otherwise break a single-line
// attribute (§4.F, §8 "XML entities").
func escapeAttr(s string) string {
	if !strings.ContainsAny(s, "&\"'<>\n\r\t") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '\n':
			b.WriteString("&#10;")
		case '\r':
			b.WriteString("&#13;")
		case '\t':
			b.WriteString("&#9;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
