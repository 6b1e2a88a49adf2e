package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/sanitize"
)

const maxConcurrent = 100

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	Conversion struct {
		CatalogID     string    `json:"catalog_id"`
		Format        string    `json:"format"`
		TopicFile     string    `json:"topic_file"`
		QuestionFile  string    `json:"question_file"`
		TopicCount    int       `json:"topic_count"`
		QuestionCount int       `json:"question_count"`
		CreateTime    time.Time `json:"create_time"`
	}
)

// ConversionsChannel is the channel every conversion is announced on.
// FormatChannel carries the conversions of one format only.
func ConversionsChannel(prefix string) string {
	return prefix + ":conversions"
}

func FormatChannel(prefix, format string) string {
	return fmt.Sprintf("%s:conversions:%s", prefix, format)
}

func (a *API) PublishQuizConverted(ctx context.Context, e domain.EventQuizConverted) error {
	s := e.Catalog.Summary()

	data := Conversion{
		CatalogID:     s.CatalogID,
		Format:        e.Format,
		TopicFile:     sanitize.ToUTF8(s.TopicFile),
		QuestionFile:  sanitize.ToUTF8(s.QuestionFile),
		TopicCount:    s.TopicCount,
		QuestionCount: s.QuestionCount,
		CreateTime:    s.CreateTime,
	}

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, ch := range []string{ConversionsChannel(a.prefix), FormatChannel(a.prefix, e.Format)} {
		eg.Go(func() error {
			return a.publishNotification(ctx, ch, e.Name(), data)
		})
	}

	return eg.Wait()
}

func (a *API) publishNotification(ctx context.Context, channel, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, channel, b).Err()
}
