package render

import (
	"fmt"
	"io"

	"github.com/victornm/quizconv/internal/domain"
)

func writeJS(w io.Writer, qs []domain.Question) error {
	ew := &errWriter{w: w}

	ew.printf("questions = [\n")
	for i, q := range qs {
		writeJSObject(ew, q)
		if i < len(qs)-1 {
			ew.printf(",\n")
		}
	}
	ew.printf(" ];")

	return ew.err
}

func writeJSObject(ew *errWriter, q domain.Question) {
	ew.printf("\t{\n"+
		"\t'nr': %d,\n"+
		"\t'text': '%s',\n"+
		"\t'points': %d,\n"+
		"\t'category': %d,\n"+
		"\t'followup': %d,\n"+
		"\t'answer': [\n",
		q.Number, q.Text, q.Points, q.Category, q.Followup)

	for i, a := range q.Answers {
		ew.printf("\t\t{ 'text': '%s', 'correct': %t }", a.Text, a.Correct)
		if i < len(q.Answers)-1 {
			ew.printf(",\n")
		}
	}

	ew.printf("\n\t\t]\n\t}")
}

// errWriter keeps the first write error so the layout code can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	if _, err := fmt.Fprintf(ew.w, format, args...); err != nil {
		ew.err = fmt.Errorf("render: write: %w", err)
	}
}
