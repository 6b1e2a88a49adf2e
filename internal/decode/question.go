package decode

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/victornm/quizconv/internal/binfile"
	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/errors"
	"github.com/victornm/quizconv/internal/sanitize"
	"github.com/victornm/quizconv/internal/telemetry"
)

const (
	questionHeaderSize = 23
	// unidentified bytes between the file header and the first record
	questionPreambleSize = 2
)

// recordHeader is the fixed-size prefix of a question record.
type recordHeader [questionHeaderSize]byte

func (h *recordHeader) number() int   { return int(binary.BigEndian.Uint16(h[2:4])) }
func (h *recordHeader) points() int   { return int(h[15]) }
func (h *recordHeader) followup() int { return int(binary.BigEndian.Uint16(h[10:12])) }
func (h *recordHeader) category() int { return int(binary.BigEndian.Uint16(h[6:8])) }

// flag is zero when the record has no category of its own.
func (h *recordHeader) flag() int { return int(h[4] | h[5] | h[6] | h[7]) }

func (h *recordHeader) correct(i int) bool { return h[18]&(1<<i) != 0 }

// DecodeQuestions reads a question file.
func DecodeQuestions(ctx context.Context, src io.Reader, opts ...Option) (*domain.QuestionCollection, error) {
	o := newOptions(opts)
	if o.file == "" {
		o.file = "question file"
	}

	r := binfile.NewReader(src)
	if _, err := readHeader(ctx, r, o, QuestionFileVersion); err != nil {
		return nil, err
	}
	r.Skip(questionPreambleSize)

	c := domain.NewQuestionCollection()
	d := questionDecoder{r: r, o: o}
	for !r.AtEnd() {
		q, ok := d.next(ctx)
		if !ok {
			break
		}

		if o.topics != nil {
			if _, found := o.topics.Name(q.Category); !found {
				return nil, errors.New(errors.CodeNotFound,
					errors.WithMessagef("no category with id %d (question %d)", q.Category, q.Number),
				)
			}
		}

		c.Append(q)
		telemetry.RecordsDecoded.WithLabelValues(telemetry.KindQuestion).Inc()
	}

	if err := sourceError(r, o.file); err != nil {
		return nil, err
	}

	return c, nil
}

type questionDecoder struct {
	r *binfile.Reader
	o *options

	// lastCategory holds the flag word of the previous record, not its
	// category id. A record without a category inherits it, so a second
	// record in a row without one gets 0.
	lastCategory int
}

func (d *questionDecoder) next(ctx context.Context) (domain.Question, bool) {
	var h recordHeader
	copy(h[:], d.r.ReadFixed(questionHeaderSize))

	text, ok := d.r.ReadString16()
	if !ok {
		return domain.Question{}, false
	}

	q := domain.Question{
		Number:   h.number(),
		Text:     sanitize.String(text),
		Points:   h.points(),
		Followup: h.followup(),
	}

	f := h.flag()
	if f == 0 {
		q.Category = d.lastCategory
	} else {
		q.Category = h.category()
	}
	d.lastCategory = f

	for i := range q.Answers {
		n, ok := d.r.ReadU16()
		if !ok {
			return d.truncated(ctx, q.Number, i)
		}
		a, ok := d.r.ReadBlock(int(n))
		if !ok {
			return d.truncated(ctx, q.Number, i)
		}

		q.Answers[i] = domain.Answer{
			Text:    sanitize.String(a),
			Correct: h.correct(i),
		}
	}

	if term := d.r.ReadU32(); term != 0 {
		telemetry.DecodeWarnings.WithLabelValues(telemetry.ReasonTerminator).Inc()
		d.o.logger.WarnContext(ctx, "decode: question not terminated by 0",
			"file", d.o.file, "question", q.Number, "terminator", term)
	}

	d.o.logger.DebugContext(ctx, "decode: question", "number", q.Number, "category", q.Category)
	return q, true
}

func (d *questionDecoder) truncated(ctx context.Context, number, answer int) (domain.Question, bool) {
	telemetry.DecodeWarnings.WithLabelValues(telemetry.ReasonTruncated).Inc()
	d.o.logger.DebugContext(ctx, "decode: question record truncated",
		"file", d.o.file, "question", number, "answer", answer, "offset", d.r.Offset())
	return domain.Question{}, false
}
