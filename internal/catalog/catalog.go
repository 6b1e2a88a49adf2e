// Package catalog persists converted quizzes.
//
// Texts are stored as raw bytes because sanitized text keeps the Latin-1
// encoding of the source files.
package catalog

import (
	"context"
	"fmt"

	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/errors"
	"github.com/victornm/quizconv/internal/event"
)

// Store saves and loads catalogs.
type Store interface {
	Save(ctx context.Context, c *domain.Catalog) error
	Get(ctx context.Context, id string) (*domain.Catalog, error)
	List(ctx context.Context) ([]domain.CatalogSummary, error)
	Close() error
}

// Subscribe saves every converted catalog published on the bus.
func Subscribe(eb *event.Bus, s Store) {
	eb.Subscribe(domain.EventNameQuizConverted, "catalog", func(ctx context.Context, e event.Event) error {
		c := e.(domain.EventQuizConverted).Catalog
		if err := s.Save(ctx, c); err != nil {
			return fmt.Errorf("catalog: save %s: %w", c.CatalogID, err)
		}
		return nil
	})
}

func notFound(id string) error {
	return errors.New(errors.CodeNotFound, errors.WithMessagef("catalog not found: %s", id))
}

func validate(c *domain.Catalog) error {
	if c == nil || c.CatalogID == "" {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("catalog without id"))
	}
	if c.Topics == nil || c.Questions == nil {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("catalog %s is incomplete", c.CatalogID))
	}
	return nil
}

// answerRow is one answer slot of a stored question.
type answerRow struct {
	question int
	slot     int
	text     []byte
	correct  bool
}

func answerRows(qs []domain.Question) []answerRow {
	rows := make([]answerRow, 0, len(qs)*domain.AnswerCount)
	for i, q := range qs {
		for j, a := range q.Answers {
			rows = append(rows, answerRow{question: i, slot: j, text: []byte(a.Text), correct: a.Correct})
		}
	}
	return rows
}

// assemble fills the collections of c from rows loaded in position order.
func assemble(c *domain.Catalog, topics []domain.Topic, qs []domain.Question, answers []answerRow) error {
	c.Topics = domain.NewTopicTable()
	for _, t := range topics {
		c.Topics.Add(t.ID, t.Name)
	}

	for _, a := range answers {
		if a.question < 0 || a.question >= len(qs) || a.slot < 0 || a.slot >= domain.AnswerCount {
			return errors.Internal(fmt.Errorf("catalog %s: answer out of range: question=%d slot=%d",
				c.CatalogID, a.question, a.slot))
		}
		qs[a.question].Answers[a.slot] = domain.Answer{Text: string(a.text), Correct: a.correct}
	}

	c.Questions = domain.NewQuestionCollection()
	for _, q := range qs {
		c.Questions.Append(q)
	}
	return nil
}
