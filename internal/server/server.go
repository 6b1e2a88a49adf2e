package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/victornm/quizconv/internal/api"
	"github.com/victornm/quizconv/internal/cache"
	"github.com/victornm/quizconv/internal/catalog"
	"github.com/victornm/quizconv/internal/convert"
	"github.com/victornm/quizconv/internal/event"
	"github.com/victornm/quizconv/internal/render"
	"github.com/victornm/quizconv/internal/telemetry"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	GRPC struct {
		Port int32
	}

	// Empty Addrs disable the cache or the notifications.
	Redis struct {
		Cache struct {
			Addrs  []string
			Pass   string
			Prefix string
			TTL    time.Duration
		}

		Pubsub struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	// Catalog selects where converted catalogs are kept. An empty driver
	// disables the catalog routes.
	Catalog struct {
		Driver string

		SQLite struct {
			Path string
		}

		Postgres struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Convert struct {
		Format        string
		MaxUploadSize int64
	}
}

// DefaultConfig returns the values used for keys missing from the config file.
func DefaultConfig() Config {
	var c Config
	c.HTTP.Port = 8080
	c.GRPC.Port = 8081
	c.Redis.Cache.Prefix = "quizconv"
	c.Redis.Cache.TTL = 24 * time.Hour
	c.Redis.Pubsub.Prefix = "quizconv"
	c.Catalog.Driver = DriverSQLite
	c.Catalog.SQLite.Path = "quizconv.db"
	c.Convert.Format = string(render.FormatJS)
	c.Convert.MaxUploadSize = 8 << 20
	return c
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			cache  redis.UniversalClient
			pubsub redis.UniversalClient
		}

		catalogs catalog.Store
	}

	service struct {
		convert *convert.Service
	}

	http *http.Server
	grpc *grpc.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	if err := s.initService(); err != nil {
		return nil, fmt.Errorf("server: init service: %w", err)
	}

	if err := s.initAPI(); err != nil {
		return nil, fmt.Errorf("server: init api: %w", err)
	}
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initCatalog(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(name string, addrs []string, pass string) (redis.UniversalClient, error) {
		if len(addrs) == 0 {
			return nil, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: pass,
		})

		if err := telemetry.MonitorRedis(r, name); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.cache, err = connect("cache", s.c.Redis.Cache.Addrs, s.c.Redis.Cache.Pass)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	s.infra.redis.pubsub, err = connect("pubsub", s.c.Redis.Pubsub.Addrs, s.c.Redis.Pubsub.Pass)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initCatalog() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch s.c.Catalog.Driver {
	case "":
		return nil

	case DriverSQLite:
		store, err := catalog.NewSQLite(ctx, s.c.Catalog.SQLite.Path)
		if err != nil {
			return err
		}
		s.infra.catalogs = store
		return nil

	case DriverPostgres:
		p := s.c.Catalog.Postgres
		cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", p.User, p.Pass, p.Addr, p.Name))
		if err != nil {
			return err
		}

		db, err := pgxpool.NewWithConfig(ctx, cc)
		if err != nil {
			return err
		}

		if err := db.Ping(ctx); err != nil {
			db.Close()
			return err
		}

		store, err := catalog.NewPostgres(ctx, db)
		if err != nil {
			db.Close()
			return err
		}
		s.infra.catalogs = store
		return nil

	default:
		return fmt.Errorf("unknown driver %q", s.c.Catalog.Driver)
	}
}

func (s *Server) initService() error {
	cc := convert.Config{
		EventBus: s.eb,
	}

	if s.infra.redis.cache != nil {
		c, err := cache.New(cache.Config{
			Redis:  s.infra.redis.cache,
			Prefix: s.c.Redis.Cache.Prefix,
			TTL:    s.c.Redis.Cache.TTL,
		})
		if err != nil {
			return err
		}
		cc.Cache = c
	}

	s.service.convert = convert.NewService(cc)

	if s.infra.catalogs != nil {
		catalog.Subscribe(s.eb, s.infra.catalogs)
	}

	return nil
}

func (s *Server) initAPI() error {
	format, err := render.ParseFormat(s.c.Convert.Format)
	if err != nil {
		return err
	}

	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	s.grpc = grpc.NewServer(telemetry.GRPCServerOptions(slog.Default())...)

	c := api.Config{
		HTTP:          e,
		GRPC:          s.grpc,
		EventBus:      s.eb,
		Convert:       s.service.convert,
		Catalogs:      s.infra.catalogs,
		DefaultFormat: format,
		MaxUploadSize: s.c.Convert.MaxUploadSize,
	}
	if s.infra.redis.pubsub != nil {
		c.Redis = s.infra.redis.pubsub
		c.PubsubPrefix = s.c.Redis.Pubsub.Prefix
	}
	api.New(c)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
	return nil
}

// Start serves HTTP and gRPC until Shutdown or the first listener error.
func (s *Server) Start() error {
	ctx := context.TODO()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		return fmt.Errorf("grpc server: listen: %w", err)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	err = eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
	return err
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.grpc.GracefulStop()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	if s.infra.catalogs != nil {
		if err := s.infra.catalogs.Close(); err != nil {
			slog.ErrorContext(ctx, "server: close catalog store failed", "error", err)
		}
	}
	for _, r := range []redis.UniversalClient{s.infra.redis.cache, s.infra.redis.pubsub} {
		if r != nil {
			r.Close()
		}
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
