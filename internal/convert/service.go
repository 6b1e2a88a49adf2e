// Package convert runs a whole conversion: decode both files, optionally
// sort, render, and announce the result.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/quizconv/internal/cache"
	"github.com/victornm/quizconv/internal/decode"
	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/errors"
	"github.com/victornm/quizconv/internal/event"
	"github.com/victornm/quizconv/internal/render"
	"github.com/victornm/quizconv/internal/telemetry"
)

// ResultCache stores rendered conversions. *cache.Cache implements it.
type ResultCache interface {
	Get(ctx context.Context, key string) (*cache.Entry, bool, error)
	Put(ctx context.Context, key string, e cache.Entry) error
}

type Config struct {
	EventBus *event.Bus
	// Cache is optional.
	Cache  ResultCache
	Logger *slog.Logger
}

type Service struct {
	eb     *event.Bus
	cache  ResultCache
	logger *slog.Logger
	now    func() time.Time
}

func NewService(c Config) *Service {
	l := c.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Service{
		eb:     c.EventBus,
		cache:  c.Cache,
		logger: l,
		now:    time.Now,
	}
}

type Request struct {
	Topics    []byte
	Questions []byte

	// TopicFile and QuestionFile name the inputs in logs and the stored catalog.
	TopicFile    string
	QuestionFile string

	Format              render.Format
	Sort                bool
	AllowUnknownVersion bool

	// VersionPolicy overrides AllowUnknownVersion. Requests with a policy
	// bypass the cache since the outcome depends on the caller.
	VersionPolicy decode.VersionPolicy
}

type Result struct {
	CatalogID string
	// Catalog is nil when the output came from the cache.
	Catalog *domain.Catalog
	Output  []byte
	Cached  bool
}

// Convert turns a topic file and a question file into the requested format.
func (s *Service) Convert(ctx context.Context, req Request) (*Result, error) {
	if req.Format == "" {
		req.Format = render.FormatJS
	}
	f, err := render.ParseFormat(string(req.Format))
	if err != nil {
		return nil, err
	}
	req.Format = f

	var key string
	if s.cache != nil && req.VersionPolicy == nil {
		key = cacheKey(req)
		if res := s.lookup(ctx, key, req.Format); res != nil {
			return res, nil
		}
	}

	start := s.now()
	c, out, err := s.convert(ctx, req)
	if err != nil {
		return nil, err
	}
	telemetry.ConversionDuration.Observe(time.Since(start).Seconds())
	telemetry.Conversions.WithLabelValues(string(req.Format), "miss").Inc()

	s.logger.InfoContext(ctx, "convert: converted",
		"catalog_id", c.CatalogID,
		"format", req.Format,
		"topics", c.Topics.Len(),
		"questions", c.Questions.Len(),
	)

	if key != "" {
		e := cache.Entry{CatalogID: c.CatalogID, Format: string(req.Format), Output: out}
		if err := s.cache.Put(ctx, key, e); err != nil {
			s.logger.WarnContext(ctx, "convert: cache put failed", "error", err)
		}
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventQuizConverted{Catalog: c, Format: string(req.Format)})
	}

	return &Result{CatalogID: c.CatalogID, Catalog: c, Output: out}, nil
}

func (s *Service) lookup(ctx context.Context, key string, f render.Format) *Result {
	e, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "convert: cache get failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	telemetry.Conversions.WithLabelValues(string(f), "hit").Inc()
	s.logger.DebugContext(ctx, "convert: cache hit", "catalog_id", e.CatalogID)
	return &Result{CatalogID: e.CatalogID, Output: e.Output, Cached: true}
}

func (s *Service) convert(ctx context.Context, req Request) (*domain.Catalog, []byte, error) {
	policy := req.VersionPolicy
	if policy == nil {
		policy = decode.AlwaysAbort
		if req.AllowUnknownVersion {
			policy = decode.AlwaysProceed
		}
	}

	topics, err := decode.DecodeTopics(ctx, bytes.NewReader(req.Topics),
		decode.WithLogger(s.logger),
		decode.WithVersionPolicy(policy),
		decode.WithFileName(req.TopicFile),
	)
	if err != nil {
		return nil, nil, err
	}

	opts := []decode.Option{
		decode.WithLogger(s.logger),
		decode.WithVersionPolicy(policy),
		decode.WithFileName(req.QuestionFile),
	}
	if req.Format == render.FormatXML {
		opts = append(opts, decode.WithTopics(topics))
	}
	questions, err := decode.DecodeQuestions(ctx, bytes.NewReader(req.Questions), opts...)
	if err != nil {
		return nil, nil, err
	}

	if req.Sort {
		questions.SortByNumber()
	}

	var out bytes.Buffer
	if err := render.Render(&out, topics, questions, req.Format); err != nil {
		return nil, nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, nil, errors.Internal(fmt.Errorf("generate catalog ID: %w", err))
	}

	c := &domain.Catalog{
		CatalogID:    id.String(),
		TopicFile:    req.TopicFile,
		QuestionFile: req.QuestionFile,
		Topics:       topics,
		Questions:    questions,
		CreateTime:   s.now().UTC(),
	}
	return c, out.Bytes(), nil
}

func cacheKey(req Request) string {
	return cache.Key(
		req.Topics,
		req.Questions,
		[]byte(req.Format),
		[]byte(strconv.FormatBool(req.Sort)),
		[]byte(strconv.FormatBool(req.AllowUnknownVersion)),
	)
}
