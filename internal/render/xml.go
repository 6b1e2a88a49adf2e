package render

import (
	"io"

	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/errors"
)

func writeXML(w io.Writer, topics *domain.TopicTable, qs []domain.Question) error {
	ew := &errWriter{w: w}

	ew.printf("<questionfile>\n")
	for _, q := range qs {
		name, ok := topics.Name(q.Category)
		if !ok {
			return errors.New(errors.CodeNotFound,
				errors.WithMessagef("no category with id %d (question %d)", q.Category, q.Number),
			)
		}

		ew.printf("<question>\n<text>%s</text>\n", q.Text)
		ew.printf("<category>%s</category>\n", name)
		ew.printf("<number>%d</number>\n", q.Number)
		ew.printf("<points>%d</points>\n", q.Points)
		ew.printf("<followup>%d</followup>\n", q.Followup)
		for _, a := range q.Answers {
			ew.printf("<answer>\n<text>%s</text>\n", a.Text)
			ew.printf("<correct>%c</correct>\n</answer>\n", correctMark(a.Correct))
		}
		ew.printf("</question>\n\n")
	}
	ew.printf("</questionfile>\n")

	return ew.err
}

func correctMark(ok bool) byte {
	if ok {
		return '1'
	}
	return '0'
}
