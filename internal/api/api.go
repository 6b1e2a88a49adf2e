// Package api exposes the conversion service over HTTP and gRPC and forwards
// conversion events to redis subscribers.
package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/victornm/quizconv/internal/catalog"
	"github.com/victornm/quizconv/internal/convert"
	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/event"
	"github.com/victornm/quizconv/internal/render"
)

const defaultMaxUploadSize = 8 << 20

type Config struct {
	HTTP     gin.IRouter
	GRPC     *grpc.Server
	EventBus *event.Bus
	Convert  *convert.Service

	// Catalogs enables the catalog routes when set.
	Catalogs catalog.Store

	// Redis enables conversion notifications when set.
	Redis        Redis
	PubsubPrefix string

	DefaultFormat render.Format
	MaxUploadSize int64
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	cs       *convert.Service
	catalogs catalog.Store

	redis  Redis
	prefix string

	format        render.Format
	maxUploadSize int64
}

func New(c Config) *API {
	a := &API{
		cs:            c.Convert,
		catalogs:      c.Catalogs,
		redis:         c.Redis,
		prefix:        c.PubsubPrefix,
		format:        c.DefaultFormat,
		maxUploadSize: c.MaxUploadSize,
	}
	if a.format == "" {
		a.format = render.FormatJS
	}
	if a.maxUploadSize <= 0 {
		a.maxUploadSize = defaultMaxUploadSize
	}

	if c.HTTP != nil {
		a.registerHTTP(c.HTTP)
	}

	if c.GRPC != nil {
		RegisterConverterServer(c.GRPC, a)
	}

	if c.Redis != nil && c.EventBus != nil {
		c.EventBus.Subscribe(domain.EventNameQuizConverted, "pubsub", func(ctx context.Context, e event.Event) error {
			return a.PublishQuizConverted(ctx, e.(domain.EventQuizConverted))
		})
	}

	return a
}
