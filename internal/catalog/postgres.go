package catalog

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/errors"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS catalogs (
	catalog_id    UUID PRIMARY KEY,
	topic_file    TEXT NOT NULL,
	question_file TEXT NOT NULL,
	create_time   TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS catalog_topics (
	catalog_id UUID NOT NULL REFERENCES catalogs (catalog_id) ON DELETE CASCADE,
	position   INT NOT NULL,
	topic_id   INT NOT NULL,
	name       BYTEA NOT NULL,
	PRIMARY KEY (catalog_id, position)
);
CREATE TABLE IF NOT EXISTS catalog_questions (
	catalog_id UUID NOT NULL REFERENCES catalogs (catalog_id) ON DELETE CASCADE,
	position   INT NOT NULL,
	number     INT NOT NULL,
	text       BYTEA NOT NULL,
	points     INT NOT NULL,
	category   INT NOT NULL,
	followup   INT NOT NULL,
	PRIMARY KEY (catalog_id, position)
);
CREATE TABLE IF NOT EXISTS catalog_answers (
	catalog_id UUID NOT NULL REFERENCES catalogs (catalog_id) ON DELETE CASCADE,
	question   INT NOT NULL,
	slot       INT NOT NULL,
	text       BYTEA NOT NULL,
	correct    BOOLEAN NOT NULL,
	PRIMARY KEY (catalog_id, question, slot)
);`

type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres wraps a connected pool and creates the schema if needed.
func NewPostgres(ctx context.Context, db *pgxpool.Pool) (*Postgres, error) {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("catalog: migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (s *Postgres) Close() error {
	s.db.Close()
	return nil
}

func (s *Postgres) Save(ctx context.Context, c *domain.Catalog) (err error) {
	if err := validate(c); err != nil {
		return err
	}

	id, err := uuid.Parse(c.CatalogID)
	if err != nil {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid catalog id %q", c.CatalogID),
			errors.WithCause(err))
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const insCatalogStmt = `INSERT INTO catalogs (catalog_id, topic_file, question_file, create_time) VALUES ($1, $2, $3, $4);`

	_, err = tx.Exec(ctx, insCatalogStmt, id, c.TopicFile, c.QuestionFile, c.CreateTime)
	var pgErr *pgconn.PgError
	const codeUniqueViolation = "23505"
	if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("catalog already exists: %s", c.CatalogID),
			errors.WithCause(err))
	}
	if err != nil {
		return fmt.Errorf("insert catalog: %w", err)
	}

	topics := c.Topics.Topics()
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"catalog_topics"},
		[]string{"catalog_id", "position", "topic_id", "name"},
		pgx.CopyFromSlice(len(topics), func(i int) ([]any, error) {
			return []any{id, i, topics[i].ID, []byte(topics[i].Name)}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy topics: %w", err)
	}

	qs := c.Questions.Questions()
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"catalog_questions"},
		[]string{"catalog_id", "position", "number", "text", "points", "category", "followup"},
		pgx.CopyFromSlice(len(qs), func(i int) ([]any, error) {
			q := qs[i]
			return []any{id, i, q.Number, []byte(q.Text), q.Points, q.Category, q.Followup}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy questions: %w", err)
	}

	answers := answerRows(qs)
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"catalog_answers"},
		[]string{"catalog_id", "question", "slot", "text", "correct"},
		pgx.CopyFromSlice(len(answers), func(i int) ([]any, error) {
			a := answers[i]
			return []any{id, a.question, a.slot, a.text, a.correct}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy answers: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Postgres) Get(ctx context.Context, id string) (*domain.Catalog, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, notFound(id)
	}

	const catalogStmt = `SELECT topic_file, question_file, create_time FROM catalogs WHERE catalog_id = $1;`

	c := &domain.Catalog{CatalogID: uid.String()}
	err = s.db.QueryRow(ctx, catalogStmt, uid).Scan(&c.TopicFile, &c.QuestionFile, &c.CreateTime)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("select catalog: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT topic_id, name FROM catalog_topics WHERE catalog_id = $1 ORDER BY position;`, uid)
	if err != nil {
		return nil, fmt.Errorf("select topics: %w", err)
	}
	topics, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Topic, error) {
		var (
			t    domain.Topic
			name []byte
		)
		err := r.Scan(&t.ID, &name)
		t.Name = string(name)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect topics: %w", err)
	}

	rows, err = s.db.Query(ctx, `SELECT number, text, points, category, followup FROM catalog_questions WHERE catalog_id = $1 ORDER BY position;`, uid)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	qs, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Question, error) {
		var (
			q    domain.Question
			text []byte
		)
		err := r.Scan(&q.Number, &text, &q.Points, &q.Category, &q.Followup)
		q.Text = string(text)
		return q, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect questions: %w", err)
	}

	rows, err = s.db.Query(ctx, `SELECT question, slot, text, correct FROM catalog_answers WHERE catalog_id = $1 ORDER BY question, slot;`, uid)
	if err != nil {
		return nil, fmt.Errorf("select answers: %w", err)
	}
	answers, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (answerRow, error) {
		var a answerRow
		err := r.Scan(&a.question, &a.slot, &a.text, &a.correct)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect answers: %w", err)
	}

	if err := assemble(c, topics, qs, answers); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Postgres) List(ctx context.Context) ([]domain.CatalogSummary, error) {
	const stmt = `
SELECT c.catalog_id::text, c.topic_file, c.question_file, c.create_time,
	(SELECT COUNT(*) FROM catalog_topics t WHERE t.catalog_id = c.catalog_id),
	(SELECT COUNT(*) FROM catalog_questions q WHERE q.catalog_id = c.catalog_id)
FROM catalogs c
ORDER BY c.create_time DESC;`

	rows, err := s.db.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("select catalogs: %w", err)
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.CatalogSummary, error) {
		var cs domain.CatalogSummary
		err := r.Scan(&cs.CatalogID, &cs.TopicFile, &cs.QuestionFile, &cs.CreateTime, &cs.TopicCount, &cs.QuestionCount)
		return cs, err
	})
}
