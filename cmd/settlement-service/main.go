package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/dice-settlement/internal/dice"
	"github.com/radieske/dice-settlement/internal/ledger"
	"github.com/radieske/dice-settlement/internal/settlement"
	httpapi "github.com/radieske/dice-settlement/internal/settlement-service/http"
	"github.com/radieske/dice-settlement/internal/settlement-service/producer"
	"github.com/radieske/dice-settlement/internal/settlement-service/pubsub"
	"github.com/radieske/dice-settlement/internal/settlement-service/receipts"
	"github.com/radieske/dice-settlement/internal/settlement-service/ws"
	"github.com/radieske/dice-settlement/internal/shared/cache"
	"github.com/radieske/dice-settlement/internal/shared/config"
	"github.com/radieske/dice-settlement/internal/shared/db"
	"github.com/radieske/dice-settlement/internal/shared/kafka"
	"github.com/radieske/dice-settlement/internal/shared/logger"
	"github.com/radieske/dice-settlement/internal/shared/metrics"
)

func main() {
	// .env é opcional (local); variáveis do ambiente têm precedência
	_ = godotenv.Load()

	cfg, err := config.Load("settlement-service")
	if err != nil {
		panic(fmt.Errorf("config: %w", err))
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	program, err := dice.ParsePubkey(cfg.ProgramID)
	if err != nil {
		log.Fatal("invalid DICE_PROGRAM_ID", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	health := metrics.HealthChecks{}

	// ledger: Postgres em produção, memória para testes locais
	var pg *sql.DB
	if cfg.LedgerBackend == config.LedgerPostgres {
		pg, err = db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		health["postgres"] = pg.PingContext
		log.Info("postgres ledger connected")
	}
	store, err := ledger.Open(cfg.LedgerBackend, pg, program)
	if err != nil {
		log.Fatal("ledger", zap.Error(err))
	}
	if cfg.LedgerBackend == config.LedgerMemory {
		log.Warn("using in-memory ledger; state is lost on restart")
	}

	redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()
	health["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	log.Info("redis connected")

	if cfg.Env == "local" || cfg.Env == "dev" {
		if err := kafka.EnsureTopics(ctx, log, cfg.KafkaBrokers,
			cfg.TopicSettleRequested, cfg.TopicBetResolved, cfg.TopicSettleRequestedDLQ); err != nil {
			log.Warn("ensure kafka topics", zap.Error(err))
		}
	}
	resolvedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetResolved)
	defer resolvedWriter.Close()

	rstore := receipts.NewRedisStore(redisClient, cfg.ReceiptTTL)

	// executor: recibos no Redis, evento no Kafka e broadcast para o WebSocket
	ex := settlement.NewExecutor(log, store, program)
	ex.Clock = dice.WallClock{Genesis: cfg.GenesisTime, SlotDuration: cfg.SlotDuration}
	ex.RefundTimeoutSlots = cfg.RefundTimeoutSlots
	ex.Metrics = settlement.NewMetrics(prometheus.DefaultRegisterer)
	ex.Notifiers = []settlement.Notifier{
		rstore,
		producer.NewKafkaPublisher(resolvedWriter, log),
		pubsub.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel),
	}

	hub := ws.NewHub(log, func(r *http.Request) bool { return true })
	if err := ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, log); err != nil {
		log.Fatal("redis subscribe", zap.Error(err))
	}

	api := &httpapi.API{Log: log, Settler: ex, Ledger: store, Receipts: rstore, Hub: hub}
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log, health.Check)

	go func() {
		log.Info("settlement-service listening",
			zap.String("addr", srv.Addr),
			zap.String("program", program.String()),
			zap.String("ledger", cfg.LedgerBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = msrv.Shutdown(shutdownCtx)
	log.Info("settlement-service stopped")
}
