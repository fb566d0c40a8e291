package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/dice-settlement/internal/dice"
	"github.com/radieske/dice-settlement/internal/ledger"
	"github.com/radieske/dice-settlement/internal/settlement"
	"github.com/radieske/dice-settlement/internal/settlement-service/producer"
	"github.com/radieske/dice-settlement/internal/settlement-service/pubsub"
	"github.com/radieske/dice-settlement/internal/settlement-service/receipts"
	"github.com/radieske/dice-settlement/internal/settlement-worker/consumer"
	"github.com/radieske/dice-settlement/internal/shared/cache"
	"github.com/radieske/dice-settlement/internal/shared/config"
	"github.com/radieske/dice-settlement/internal/shared/db"
	"github.com/radieske/dice-settlement/internal/shared/kafka"
	"github.com/radieske/dice-settlement/internal/shared/logger"
	"github.com/radieske/dice-settlement/internal/shared/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("settlement-worker")
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
	if cfg.LedgerBackend != config.LedgerPostgres {
		// o worker divide o ledger com o settlement-service
		log.Fatal("settlement-worker requires LEDGER_BACKEND=postgres", zap.String("ledger", cfg.LedgerBackend))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicSettleRequested, cfg.ConsumerGroup)
	defer reader.Close()
	resolvedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetResolved)
	defer resolvedWriter.Close()
	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettleRequestedDLQ)
	defer dlqWriter.Close()

	ex := settlement.NewExecutor(log, ledger.NewPostgres(pg, program), program)
	ex.Clock = dice.WallClock{Genesis: cfg.GenesisTime, SlotDuration: cfg.SlotDuration}
	ex.RefundTimeoutSlots = cfg.RefundTimeoutSlots
	ex.Metrics = settlement.NewMetrics(prometheus.DefaultRegisterer)
	ex.Notifiers = []settlement.Notifier{
		receipts.NewRedisStore(redisClient, cfg.ReceiptTTL),
		producer.NewKafkaPublisher(resolvedWriter, log),
		pubsub.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel),
	}

	// Métricas do consumo (as da liquidação vêm do Executor)
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "dice_worker_messages_consumed_total", Help: "mensagens consumidas"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "dice_worker_settled_total", Help: "pedidos liquidados"})
	dead := prometheus.NewCounter(prometheus.CounterOpts{Name: "dice_worker_dead_letters_total", Help: "pedidos enviados para a DLQ"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "dice_worker_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, dead, errorsBy)

	proc := &consumer.Processor{
		Log:          log,
		Reader:       reader,
		Settler:      ex,
		DLQ:          dlqWriter,
		MaxAttempts:  cfg.MaxAttempts,
		Backoff:      300 * time.Millisecond,
		OnConsumed:   func() { consumed.Inc() },
		OnSettled:    func() { settled.Inc() },
		OnDeadLetter: func() { dead.Inc() },
		OnError:      func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	health := metrics.HealthChecks{
		"postgres": pg.PingContext,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log, health.Check)

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicSettleRequested),
		zap.String("publish", cfg.TopicBetResolved),
		zap.String("dlq", cfg.TopicSettleRequestedDLQ))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = msrv.Shutdown(shutdownCtx)
	log.Info("settlement-worker stopped")
}
