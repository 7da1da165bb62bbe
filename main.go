//
// blogapi
// =======
// Blog content API with a Redis read-path cache in front of durable
// storage: per-post view counters, like sets and serialized detail
// payloads, reconciled back to the database on a throttled cadence.
//
// Boot the server:
// ----------------
// $ go run . -config config.yaml
//
// Client requests:
// ----------------
// $ curl http://localhost:3333/posts
// $ curl http://localhost:3333/posts/1
// $ curl -X POST -H 'Authorization: Token token-peter' http://localhost:3333/posts/1/like
//
// Pass -routes to generate router documentation instead of serving.
//
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/docgen"
	"github.com/go-chi/render"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/global"
	export "go.opentelemetry.io/otel/sdk/export/metric"
	"go.opentelemetry.io/otel/sdk/metric/aggregator/histogram"
	controller "go.opentelemetry.io/otel/sdk/metric/controller/basic"
	processor "go.opentelemetry.io/otel/sdk/metric/processor/basic"
	selector "go.opentelemetry.io/otel/sdk/metric/selector/simple"

	"github.com/SergeyParamoshkin/blogapi/internal/auth"
	"github.com/SergeyParamoshkin/blogapi/internal/cachestore"
	"github.com/SergeyParamoshkin/blogapi/internal/config"
	"github.com/SergeyParamoshkin/blogapi/internal/post"
	"github.com/SergeyParamoshkin/blogapi/internal/store"
)

const ServiceName = "blogapi"

type CtxKey int8

const (
	CtxKeyLogger CtxKey = iota
)

type App struct {
	sugarLogger *zap.SugaredLogger
	config      config.Config
}

// nolint
func main() {
	var (
		routes     = flag.Bool("routes", false, "Generate router documentation")
		configPath = flag.String("config", config.GetEnv("CONFIG", ""), "path to YAML config file")
	)

	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync() // flushes buffer, if any
	sugar := logger.Sugar()

	cfg, err := config.Load(*configPath)
	if err != nil {
		sugar.Fatalw("failed to load config", "error", err)
	}

	a := App{
		sugarLogger: sugar,
		config:      cfg,
	}

	promConfig := prometheus.Config{}
	c := controller.New(
		processor.New(
			selector.NewWithHistogramDistribution(
				histogram.WithExplicitBoundaries(promConfig.DefaultHistogramBoundaries),
			),
			export.CumulativeExportKindSelector(),
			processor.WithMemory(true),
		),
	)
	exporter, err := prometheus.New(promConfig, c)
	if err != nil {
		a.sugarLogger.Panicf("failed to initialize prometheus exporter %v", err)
	}
	global.SetMeterProvider(exporter.MeterProvider())

	meter := global.Meter(ServiceName)
	labels := []attribute.KeyValue{
		attribute.String("status", "200")}
	completedCount := metric.Must(meter).NewInt64Counter(
		"http/server/completed_count",
		metric.WithDescription("Count of completed requests, by HTTP method and response status"),
	).Bind(labels...)
	defer completedCount.Unbind()

	// The cache client is a shared dependency with an explicit lifecycle:
	// connected and health-checked here, injected into the service.
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		a.sugarLogger.Fatalw("failed to ping redis", "addr", cfg.Redis.Addr, "error", err)
	}

	var durable store.Store
	if cfg.Postgres.DSN != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Postgres.DSN)
		if err != nil {
			a.sugarLogger.Fatalw("failed to connect to postgres", "error", err)
		}
		defer pool.Close()

		if err := pool.Ping(pingCtx); err != nil {
			a.sugarLogger.Fatalw("failed to ping postgres", "error", err)
		}
		durable = store.NewPostgres(pool)
	} else {
		mem := store.NewMemory()
		store.SeedFixtures(mem)
		durable = mem
		a.sugarLogger.Infow("no postgres dsn configured, using in-memory store with fixtures")
	}

	svc := post.NewService(durable, cachestore.NewRedis(rdb), cfg.Cache.TTL, cfg.Cache.FlushEvery, sugar)
	posts := post.NewResource(svc, sugar)

	r := chi.NewRouter()

	diagRouter := chi.NewRouter()
	diagRouter.Get("/metrics", exporter.ServeHTTP)

	r.Use(middleware.RequestID)
	r.Use(a.Logger)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.URLFormat)
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(auth.Middleware(durable))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("root.")); err != nil {
			sugar.Errorw(err.Error())
		}
	})

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		logger := r.Context().Value(CtxKeyLogger).(*zap.SugaredLogger)
		logger.Infow("ping with middle")
		completedCount.Add(r.Context(), 1)
		if _, err := w.Write([]byte("pong")); err != nil {
			sugar.Errorw(err.Error())
		}
	})

	r.Mount("/posts", posts.Routes())
	r.Get("/categories", posts.Categories)

	// Passing -routes to the program will generate docs for the above
	// router definition.
	if *routes {
		// nolint
		fmt.Println(docgen.MarkdownRoutesDoc(r, docgen.MarkdownOpts{
			ProjectPath: "github.com/SergeyParamoshkin/blogapi",
			Intro:       "blogapi generated docs.",
		}))

		return
	}

	go func() {
		if err := http.ListenAndServe(cfg.Addr, r); err != nil {
			a.sugarLogger.Errorw(err.Error())
			os.Exit(1)
		}
	}()

	if err := http.ListenAndServe(cfg.DiagAddr, diagRouter); err != nil {
		a.sugarLogger.Errorw(err.Error())
	}
}

func (a *App) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), CtxKeyLogger, a.sugarLogger)))
	})
}
