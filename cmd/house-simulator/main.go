package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/minio/sha256-simd"
	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/dice-settlement/internal/dice"
	"github.com/radieske/dice-settlement/internal/house"
	"github.com/radieske/dice-settlement/internal/ledger"
	"github.com/radieske/dice-settlement/internal/shared/config"
	"github.com/radieske/dice-settlement/internal/shared/db"
	"github.com/radieske/dice-settlement/internal/shared/kafka"
	"github.com/radieske/dice-settlement/internal/shared/logger"
	"github.com/radieske/dice-settlement/internal/shared/metrics"
)

const (
	vaultFunding = 1_000_000_000_000
	betDeposit   = 2_039_280 // rent de um registro de aposta
)

var (
	betsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "house_sim_bets_opened_total",
		Help: "Apostas abertas pelo simulador",
	})
	settleRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "house_sim_settle_requests_total",
		Help: "Pedidos de liquidação publicados",
	})
	simErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "house_sim_errors_total",
		Help: "Erros do simulador por estágio",
	}, []string{"stage"})
)

// houseSeed lê HOUSE_KEY_SEED ou gera uma chave efêmera
func houseSeed(cfg config.Config, log *zap.Logger) ([]byte, error) {
	if cfg.HouseKeySeed != "" {
		return base58.Decode(cfg.HouseKeySeed)
	}
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	log.Warn("HOUSE_KEY_SEED not set, using ephemeral house key")
	return seed, nil
}

// players deriva endereços fixos para os jogadores simulados
func players(n int) []dice.Pubkey {
	out := make([]dice.Pubkey, n)
	for i := range out {
		out[i] = dice.Pubkey(sha256.Sum256([]byte(fmt.Sprintf("sim-player-%d", i))))
	}
	return out
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("house-simulator")
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
	if cfg.SimPlayers < 1 {
		log.Fatal("SIM_PLAYERS must be at least 1", zap.Int("players", cfg.SimPlayers))
	}
	seed, err := houseSeed(cfg, log)
	if err != nil {
		log.Fatal("house key", zap.Error(err))
	}
	signer, err := house.NewSigner(seed)
	if err != nil {
		log.Fatal("house key", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	store := ledger.NewPostgres(pg, program)

	if err := kafka.EnsureTopics(ctx, log, cfg.KafkaBrokers, cfg.TopicSettleRequested); err != nil {
		log.Warn("ensure kafka topics", zap.Error(err))
	}
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettleRequested)
	defer writer.Close()

	prometheus.MustRegister(betsOpened, settleRequests, simErrors)
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log, metrics.HealthChecks{"postgres": pg.PingContext}.Check)
	defer msrv.Close()

	vault, _, err := dice.VaultAddress(program, signer.Pubkey())
	if err != nil {
		log.Fatal("vault address", zap.Error(err))
	}
	if err := house.Fund(ctx, store, vault, vaultFunding); err != nil {
		log.Fatal("fund vault", zap.Error(err))
	}
	log.Info("house simulator started",
		zap.String("house", signer.Pubkey().String()),
		zap.String("vault", vault.String()),
		zap.String("publish", cfg.TopicSettleRequested),
		zap.Duration("interval", cfg.SimInterval))

	clock := dice.WallClock{Genesis: cfg.GenesisTime, SlotDuration: cfg.SlotDuration}
	pool := players(cfg.SimPlayers)
	rng := mrand.New(mrand.NewSource(time.Now().UnixNano()))

	// Abre uma aposta e publica o pedido de liquidação a cada intervalo
	ticker := time.NewTicker(cfg.SimInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("house simulator stopped")
			return
		case <-ticker.C:
		}

		player := pool[rng.Intn(len(pool))]
		amount := uint64(1_000_000 + rng.Int63n(99_000_000))
		bet := dice.Bet{
			Player: player,
			House:  signer.Pubkey(),
			Seed:   randomSeed(rng),
			Slot:   clock.CurrentSlot(),
			Amount: amount,
			Roll:   uint8(2 + rng.Intn(98)), // 2..99
		}

		// o stake entra no cofre; o depósito sai do jogador
		if err := house.Fund(ctx, store, player, betDeposit); err != nil {
			simErrors.WithLabelValues("fund").Inc()
			log.Warn("fund player", zap.Error(err))
			continue
		}
		if err := house.Fund(ctx, store, vault, amount); err != nil {
			simErrors.WithLabelValues("fund").Inc()
			log.Warn("fund vault", zap.Error(err))
			continue
		}
		addr, bet, err := house.OpenBet(ctx, store, program, bet, betDeposit)
		if err != nil {
			simErrors.WithLabelValues("open").Inc()
			log.Warn("open bet", zap.Error(err))
			continue
		}
		betsOpened.Inc()

		ev := signer.SettleEvent(addr, &bet)
		if err := kafka.WriteJSON(ctx, writer, ev.Bet, ev); err != nil {
			simErrors.WithLabelValues("publish").Inc()
			log.Warn("publish settle request", zap.Error(err))
			continue
		}
		settleRequests.Inc()
		log.Debug("settle request published",
			zap.String("bet", ev.Bet),
			zap.Uint8("roll", bet.Roll),
			zap.Uint64("amount", bet.Amount))
	}
}

func randomSeed(rng *mrand.Rand) dice.Seed {
	var s dice.Seed
	binary.LittleEndian.PutUint64(s[:8], rng.Uint64())
	binary.LittleEndian.PutUint64(s[8:], rng.Uint64())
	return s
}
