package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"unicode"

	"github.com/victornm/quizconv/internal/decode"
)

// prompter asks yes/no questions on the terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// confirm reads until the first y or n, ignoring case and any other input.
// End of input counts as no.
func (p *prompter) confirm() bool {
	fmt.Fprint(p.out, "Continue? [y/n] ")
	for {
		r, _, err := p.in.ReadRune()
		if err != nil {
			return false
		}
		switch unicode.ToLower(r) {
		case 'y':
			return true
		case 'n':
			return false
		}
	}
}

func (p *prompter) versionPolicy(_ context.Context, m decode.VersionMismatch) decode.Decision {
	fmt.Fprintf(p.out, "Unknown version %q in %s, expected %q\n", m.Got, m.File, m.Want)
	if p.confirm() {
		return decode.Proceed
	}
	return decode.Abort
}
