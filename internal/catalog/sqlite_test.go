package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizconv/internal/catalog"
	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/errors"
	"github.com/victornm/quizconv/internal/event"
)

func newTestStore(t *testing.T) *catalog.SQLite {
	t.Helper()

	s, err := catalog.NewSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestCatalog(id string) *domain.Catalog {
	topics := domain.NewTopicTable()
	topics.Add(1, "Wildbiologie")
	topics.Add(2, "Waffenrecht &auml;")

	qs := domain.NewQuestionCollection()
	qs.Append(domain.Question{
		Number: 10, Text: `Was ist ein \'Keiler\'?`, Points: 3, Category: 1, Followup: 11,
		Answers: [4]domain.Answer{{Text: "Hirsch"}, {Text: "Wildschwein", Correct: true}, {Text: ""}, {Text: string([]byte{0xE9})}},
	})
	qs.Append(domain.Question{
		Number: 11, Text: "Kaliber?", Points: 1, Category: 2,
		Answers: [4]domain.Answer{{Text: "a", Correct: true}, {Text: "b"}, {Text: "c"}, {Text: "d", Correct: true}},
	})

	return &domain.Catalog{
		CatalogID:    id,
		TopicFile:    "THEMEN.DAT",
		QuestionFile: "FRAGEN.DAT",
		Topics:       topics,
		Questions:    qs,
		CreateTime:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQLite_SaveGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	want := newTestCatalog("c1")

	require.NoError(t, s.Save(ctx, want))

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, want.CatalogID, got.CatalogID)
	assert.Equal(t, want.TopicFile, got.TopicFile)
	assert.Equal(t, want.QuestionFile, got.QuestionFile)
	assert.True(t, want.CreateTime.Equal(got.CreateTime))
	assert.Equal(t, want.Topics.Topics(), got.Topics.Topics())
	assert.Equal(t, want.Questions.Questions(), got.Questions.Questions())
}

func TestSQLite_SaveTwice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, newTestCatalog("c1")))
	err := s.Save(ctx, newTestCatalog("c1"))
	assert.True(t, errors.Is(err, errors.CodeAlreadyExists), "got %v", err)
}

func TestSQLite_SaveInvalid(t *testing.T) {
	s := newTestStore(t)

	err := s.Save(context.Background(), &domain.Catalog{})
	assert.True(t, errors.Is(err, errors.CodeInvalidArgument))
}

func TestSQLite_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestSQLite_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := newTestCatalog("c1")
	newer := newTestCatalog("c2")
	newer.CreateTime = older.CreateTime.Add(time.Hour)
	newer.Questions = domain.NewQuestionCollection()

	require.NoError(t, s.Save(ctx, older))
	require.NoError(t, s.Save(ctx, newer))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c2", got[0].CatalogID)
	assert.Equal(t, 2, got[0].TopicCount)
	assert.Equal(t, 0, got[0].QuestionCount)
	assert.Equal(t, older.Summary(), got[1])
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(t)
	eb := event.NewBus()
	catalog.Subscribe(eb, s)

	eb.Publish(context.Background(), domain.EventQuizConverted{Catalog: newTestCatalog("c9"), Format: "js"})
	eb.Stop()

	got, err := s.Get(context.Background(), "c9")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Questions.Len())
}
