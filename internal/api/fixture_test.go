package api_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizconv/internal/api"
	"github.com/victornm/quizconv/internal/catalog"
	"github.com/victornm/quizconv/internal/convert"
	"github.com/victornm/quizconv/internal/decode"
	"github.com/victornm/quizconv/internal/event"
)

func str8(b *bytes.Buffer, s string) {
	b.WriteByte(byte(len(s)))
	b.WriteString(s)
}

func str16(b *bytes.Buffer, s string) {
	b.Write(binary.BigEndian.AppendUint16(nil, uint16(len(s))))
	b.WriteString(s)
}

func topicFile(version string) []byte {
	var b bytes.Buffer
	str8(&b, "MMM Themen")
	str8(&b, version)
	b.Write([]byte{0, 0, 0, 0, 0, 3})
	str8(&b, "J\xe4ger")
	return b.Bytes()
}

func emptyTopicFile() []byte {
	var b bytes.Buffer
	str8(&b, "MMM Themen")
	str8(&b, decode.TopicFileVersion)
	return b.Bytes()
}

// questionFile holds one question in category 3 with the second answer correct.
func questionFile() []byte {
	var b bytes.Buffer
	str8(&b, "MMM Fragen")
	str8(&b, decode.QuestionFileVersion)
	b.Write([]byte{0, 0})

	var h [23]byte
	h[3] = 7
	h[7] = 3
	h[15] = 2
	h[18] = 0b0010
	b.Write(h[:])
	str16(&b, "Wer?")
	for _, a := range []string{"a", "b", "c", "d"} {
		str16(&b, a)
	}
	b.Write([]byte{0, 0, 0, 0})
	return b.Bytes()
}

type fixture struct {
	eb       *event.Bus
	catalogs *catalog.SQLite
	engine   *gin.Engine
	api      *api.API
}

type fixtureOption func(*api.Config)

func withRedis(r api.Redis, prefix string) fixtureOption {
	return func(c *api.Config) {
		c.Redis = r
		c.PubsubPrefix = prefix
	}
}

func makeFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := catalog.NewSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		eb:       event.NewBus(),
		catalogs: store,
		engine:   gin.New(),
	}
	catalog.Subscribe(f.eb, store)

	c := api.Config{
		HTTP:     f.engine,
		EventBus: f.eb,
		Convert: convert.NewService(convert.Config{
			EventBus: f.eb,
			Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		}),
		Catalogs: store,
	}
	for _, opt := range opts {
		opt(&c)
	}
	f.api = api.New(c)

	return f
}
