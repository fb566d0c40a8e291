package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ctopics "github.com/radieske/dice-settlement/pkg/contracts/topics"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DICE_PROGRAM_ID", "Dice111111111111111111111111111111111111111")

	cfg, err := Load("settlement-service")
	require.NoError(t, err)

	assert.Equal(t, "settlement-service", cfg.ServiceName)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, LedgerPostgres, cfg.LedgerBackend)
	assert.Equal(t, uint64(1000), cfg.RefundTimeoutSlots)
	assert.Equal(t, 400*time.Millisecond, cfg.SlotDuration)
	assert.Equal(t, 24*time.Hour, cfg.ReceiptTTL)
	assert.Equal(t, ctopics.BetSettleRequested, cfg.TopicSettleRequested)
	assert.Equal(t, ctopics.BetResolved, cfg.TopicBetResolved)
	assert.Equal(t, ctopics.ResolutionsBroadcast, cfg.RedisPubSubChannel)
	assert.Equal(t, "8084", cfg.HTTPPort)
	assert.Equal(t, "9100", cfg.MetricsPort)
	assert.Equal(t, 3, cfg.MaxAttempts)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DICE_PROGRAM_ID", "Dice111111111111111111111111111111111111111")
	t.Setenv("SERVICE_NAME", "settlement-worker")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("LEDGER_BACKEND", "memory")
	t.Setenv("REFUND_TIMEOUT_SLOTS", "50")
	t.Setenv("KAFKA_TOPIC_BET_RESOLVED", "custom_resolved")
	t.Setenv("METRICS_PORT_WORKER", "9999")

	cfg, err := Load("ignored")
	require.NoError(t, err)

	assert.Equal(t, "settlement-worker", cfg.ServiceName)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, LedgerMemory, cfg.LedgerBackend)
	assert.Equal(t, uint64(50), cfg.RefundTimeoutSlots)
	assert.Equal(t, "custom_resolved", cfg.TopicBetResolved)
	assert.Equal(t, "", cfg.HTTPPort)
	assert.Equal(t, "9999", cfg.MetricsPort)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load("settlement-service")
	assert.Error(t, err, "program id is required")

	t.Setenv("DICE_PROGRAM_ID", "Dice111111111111111111111111111111111111111")
	t.Setenv("LEDGER_BACKEND", "sqlite")
	_, err = Load("settlement-service")
	assert.Error(t, err)
}

func TestLoadSimulatorDefaults(t *testing.T) {
	t.Setenv("DICE_PROGRAM_ID", "Dice111111111111111111111111111111111111111")

	cfg, err := Load("house-simulator")
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.SimInterval)
	assert.Equal(t, 4, cfg.SimPlayers)
	assert.Empty(t, cfg.HouseKeySeed)
	assert.Equal(t, "9102", cfg.MetricsPort)
}
