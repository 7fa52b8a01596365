package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"fairdraw/internal/geo"
	jwttoken "fairdraw/internal/jwt_token"
	"fairdraw/internal/notify"
	"fairdraw/internal/payments"
	"fairdraw/internal/platform/config"
	"fairdraw/internal/platform/httpserver"
	"fairdraw/internal/platform/logger"
	"fairdraw/internal/platform/middleware"
	platformredis "fairdraw/internal/platform/redis"
	"fairdraw/internal/raffle/handler"
	rafflemetrics "fairdraw/internal/raffle/metrics"
	"fairdraw/internal/raffle/service"
	entrystore "fairdraw/internal/raffle/store/entry"
	poolstore "fairdraw/internal/raffle/store/pool"
	ticketstore "fairdraw/internal/raffle/store/ticket"
	"fairdraw/internal/scheduler"
	"fairdraw/migrations"
	"fairdraw/pkg/platform/httputil"
	"fairdraw/pkg/platform/middleware/requesttime"
	"fairdraw/pkg/platform/tx"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in internal services packages. Clients are
// constructed here and torn down here; nothing holds ambient global state.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	var (
		pools   service.PoolStore
		entries service.EntryStore
		tickets service.TicketStore
		runner  tx.Runner
	)
	if cfg.DatabaseURL != "" {
		pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pgPool.Close()
		if err := migrations.Apply(ctx, pgPool); err != nil {
			return err
		}
		pools = poolstore.NewPostgres(pgPool)
		entries = entrystore.NewPostgres(pgPool)
		tickets = ticketstore.NewPostgres(pgPool)
		runner = tx.NewPgxRunner(pgPool)
		log.Info("storage: postgres")
	} else {
		pools = poolstore.NewInMemory()
		entries = entrystore.NewInMemory()
		tickets = ticketstore.NewInMemory()
		runner = tx.NewMemoryRunner()
		log.Warn("storage: in-memory (DATABASE_URL not set)")
	}

	var notifier service.Notifier = notify.NewInMemory()
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := notify.NewKafka(ctx, cfg.KafkaBrokers, cfg.NotifyTopic, log)
		if err != nil {
			return err
		}
		defer kafka.Close()
		notifier = kafka
		log.Info("notifications: kafka", "topic", cfg.NotifyTopic)
	} else {
		log.Warn("notifications: in-memory (KAFKA_BROKERS not set)")
	}

	var backend scheduler.Backend = scheduler.NewMemoryBackend()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		backend = scheduler.NewRedisBackend(redisClient.Client)
		log.Info("scheduler: redis")
	} else {
		log.Warn("scheduler: in-memory (REDIS_URL not set)")
	}

	svc := service.New(pools, entries, tickets,
		service.WithTxRunner(runner),
		service.WithNotifier(notifier),
		service.WithPaymentGateway(payments.NewStubGateway()),
		service.WithGeoVerifier(geo.NewAllowAll()),
		service.WithScheduler(scheduler.New(backend)),
		service.WithMetrics(rafflemetrics.New()),
		service.WithLogger(log),
		service.WithPublicBaseURL(cfg.PublicBaseURL),
	)

	worker := scheduler.NewWorker(backend, drawJobHandler(svc), log, scheduler.WorkerConfig{
		Concurrency: cfg.DrawWorkers,
		MaxAttempts: cfg.DrawMaxAttempts,
	})

	tokens := jwttoken.NewJWTService(cfg.OperatorSigningKey, "fairdraw")
	h := handler.New(svc, log)

	router := chi.NewRouter()
	router.Use(requesttime.Middleware)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Group(h.Register)
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireOperator(tokens, log))
		h.RegisterOperator(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting fairdraw", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// drawJobHandler adapts the scheduler's job callback onto the draw engine.
// An already-COMPLETED pool is success, not failure: at-least-once delivery
// means redundant triggers are expected.
func drawJobHandler(svc *service.Service) scheduler.HandlerFunc {
	return func(ctx context.Context, jobID string, payload []byte) error {
		poolID, err := service.PoolIDFromJobPayload(payload)
		if err != nil {
			return err
		}
		_, err = svc.Draw(ctx, poolID)
		if service.IsAlreadyDrawn(err) {
			return nil
		}
		return err
	}
}
