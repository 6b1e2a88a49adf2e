// Package sanitize turns raw Latin-1 text from quiz files into text that can
// be embedded in single-quoted script literals and markup.
package sanitize

import (
	"golang.org/x/text/encoding/charmap"
)

var entities = [256]string{
	'\'': `\'`,
	0xC4: "&Auml;",
	0xE4: "&auml;",
	0xD6: "&Ouml;",
	0xF6: "&ouml;",
	0xDC: "&Uuml;",
	0xFC: "&uuml;",
	0xDF: "&szlig;",
	'<':  " ",
	'>':  " ",
}

// String escapes apostrophes, replaces German umlauts and sharp s with HTML
// entities and blanks out angle brackets. All other bytes are copied as is,
// so the result keeps the Latin-1 encoding of the input.
func String(raw []byte) string {
	n := 0
	for _, c := range raw {
		if e := entities[c]; e != "" {
			n += len(e)
		} else {
			n++
		}
	}

	out := make([]byte, 0, n)
	for _, c := range raw {
		if e := entities[c]; e != "" {
			out = append(out, e...)
		} else {
			out = append(out, c)
		}
	}

	return string(out)
}

// ToUTF8 transcodes sanitized Latin-1 text to UTF-8. Entities and escapes
// produced by String are plain ASCII and pass through untouched.
func ToUTF8(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			u, err := charmap.ISO8859_1.NewDecoder().String(s)
			if err != nil {
				return s
			}
			return u
		}
	}
	return s
}
