package producer

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/dice-settlement/internal/settlement"
	"github.com/radieske/dice-settlement/internal/shared/kafka"
	"github.com/radieske/dice-settlement/pkg/contracts/events"
)

// KafkaPublisher publica eventos bet_resolved; a chave é o endereço da aposta.
type KafkaPublisher struct {
	Writer kafka.MessageWriter
	Log    *zap.Logger
}

func NewKafkaPublisher(w kafka.MessageWriter, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Log: log}
}

func (p *KafkaPublisher) PublishResolved(ctx context.Context, e events.BetResolved) error {
	if err := kafka.WriteJSON(ctx, p.Writer, e.Bet, e); err != nil {
		p.Log.Error("publish bet_resolved", zap.String("bet", e.Bet), zap.Error(err))
		return err
	}
	p.Log.Debug("published bet_resolved", zap.String("bet", e.Bet), zap.String("status", e.Status))
	return nil
}

func (p *KafkaPublisher) NotifyResolved(ctx context.Context, rec *settlement.Receipt) error {
	return p.PublishResolved(ctx, rec.Event())
}
