package catalog

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/errors"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS catalogs (
	catalog_id    TEXT PRIMARY KEY,
	topic_file    TEXT NOT NULL,
	question_file TEXT NOT NULL,
	create_time   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS catalog_topics (
	catalog_id TEXT NOT NULL REFERENCES catalogs (catalog_id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	topic_id   INTEGER NOT NULL,
	name       TEXT NOT NULL,
	PRIMARY KEY (catalog_id, position)
);
CREATE TABLE IF NOT EXISTS catalog_questions (
	catalog_id TEXT NOT NULL REFERENCES catalogs (catalog_id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	number     INTEGER NOT NULL,
	text       TEXT NOT NULL,
	points     INTEGER NOT NULL,
	category   INTEGER NOT NULL,
	followup   INTEGER NOT NULL,
	PRIMARY KEY (catalog_id, position)
);
CREATE TABLE IF NOT EXISTS catalog_answers (
	catalog_id TEXT NOT NULL REFERENCES catalogs (catalog_id) ON DELETE CASCADE,
	question   INTEGER NOT NULL,
	slot       INTEGER NOT NULL,
	text       TEXT NOT NULL,
	correct    INTEGER NOT NULL,
	PRIMARY KEY (catalog_id, question, slot)
);
CREATE INDEX IF NOT EXISTS idx_catalogs_create_time ON catalogs (create_time);`

// SQLite stores catalogs in a local database file. ":memory:" gives a
// throwaway database.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}

	// an in-memory database lives only as long as its connection
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range []string{"PRAGMA foreign_keys=ON", "PRAGMA journal_mode=WAL", sqliteSchema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("catalog: migrate: %w", err)
		}
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Save(ctx context.Context, c *domain.Catalog) (err error) {
	if err := validate(c); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback())
		}
	}()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalogs WHERE catalog_id = ?`, c.CatalogID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check catalog: %w", err)
	}
	if exists > 0 {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("catalog already exists: %s", c.CatalogID))
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO catalogs (catalog_id, topic_file, question_file, create_time) VALUES (?, ?, ?, ?)`,
		c.CatalogID, c.TopicFile, c.QuestionFile, c.CreateTime.UnixNano())
	if err != nil {
		return fmt.Errorf("insert catalog: %w", err)
	}

	for i, t := range c.Topics.Topics() {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO catalog_topics (catalog_id, position, topic_id, name) VALUES (?, ?, ?, ?)`,
			c.CatalogID, i, t.ID, t.Name)
		if err != nil {
			return fmt.Errorf("insert topic %d: %w", i, err)
		}
	}

	qs := c.Questions.Questions()
	for i, q := range qs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO catalog_questions (catalog_id, position, number, text, points, category, followup) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.CatalogID, i, q.Number, q.Text, q.Points, q.Category, q.Followup)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	for _, a := range answerRows(qs) {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO catalog_answers (catalog_id, question, slot, text, correct) VALUES (?, ?, ?, ?, ?)`,
			c.CatalogID, a.question, a.slot, string(a.text), a.correct)
		if err != nil {
			return fmt.Errorf("insert answer %d/%d: %w", a.question, a.slot, err)
		}
	}

	return tx.Commit()
}

func (s *SQLite) Get(ctx context.Context, id string) (*domain.Catalog, error) {
	var created int64
	c := &domain.Catalog{CatalogID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT topic_file, question_file, create_time FROM catalogs WHERE catalog_id = ?`, id,
	).Scan(&c.TopicFile, &c.QuestionFile, &created)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("select catalog: %w", err)
	}
	c.CreateTime = time.Unix(0, created).UTC()

	topics, err := collect(ctx, s.db,
		`SELECT topic_id, name FROM catalog_topics WHERE catalog_id = ? ORDER BY position`, id,
		func(r *sql.Rows) (domain.Topic, error) {
			var t domain.Topic
			err := r.Scan(&t.ID, &t.Name)
			return t, err
		})
	if err != nil {
		return nil, fmt.Errorf("select topics: %w", err)
	}

	qs, err := collect(ctx, s.db,
		`SELECT number, text, points, category, followup FROM catalog_questions WHERE catalog_id = ? ORDER BY position`, id,
		func(r *sql.Rows) (domain.Question, error) {
			var q domain.Question
			err := r.Scan(&q.Number, &q.Text, &q.Points, &q.Category, &q.Followup)
			return q, err
		})
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}

	answers, err := collect(ctx, s.db,
		`SELECT question, slot, text, correct FROM catalog_answers WHERE catalog_id = ? ORDER BY question, slot`, id,
		func(r *sql.Rows) (answerRow, error) {
			var (
				a    answerRow
				text string
			)
			err := r.Scan(&a.question, &a.slot, &text, &a.correct)
			a.text = []byte(text)
			return a, err
		})
	if err != nil {
		return nil, fmt.Errorf("select answers: %w", err)
	}

	if err := assemble(c, topics, qs, answers); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLite) List(ctx context.Context) ([]domain.CatalogSummary, error) {
	const stmt = `
SELECT c.catalog_id, c.topic_file, c.question_file, c.create_time,
	(SELECT COUNT(*) FROM catalog_topics t WHERE t.catalog_id = c.catalog_id),
	(SELECT COUNT(*) FROM catalog_questions q WHERE q.catalog_id = c.catalog_id)
FROM catalogs c
ORDER BY c.create_time DESC`

	return collect(ctx, s.db, strings.TrimSpace(stmt), nil, func(r *sql.Rows) (domain.CatalogSummary, error) {
		var (
			cs      domain.CatalogSummary
			created int64
		)
		err := r.Scan(&cs.CatalogID, &cs.TopicFile, &cs.QuestionFile, &created, &cs.TopicCount, &cs.QuestionCount)
		cs.CreateTime = time.Unix(0, created).UTC()
		return cs, err
	})
}

// collect runs a query with at most one argument and scans every row with fn.
func collect[T any](ctx context.Context, db *sql.DB, query string, arg any, fn func(*sql.Rows) (T, error)) ([]T, error) {
	var args []any
	if arg != nil {
		args = append(args, arg)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := fn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
