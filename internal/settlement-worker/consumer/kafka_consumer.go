package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/radieske/dice-settlement/internal/dice"
	"github.com/radieske/dice-settlement/internal/settlement"
	"github.com/radieske/dice-settlement/internal/shared/kafka"
	"github.com/radieske/dice-settlement/pkg/contracts/events"
)

// Settler é o lado do Executor usado pelo worker
type Settler interface {
	Settle(ctx context.Context, req settlement.SettleRequest) (*settlement.Receipt, error)
}

// DeadLetter é o envelope publicado na DLQ com a mensagem original
type DeadLetter struct {
	Error    string          `json:"error"`
	Code     string          `json:"code,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	Attempts int             `json:"attempts"`
	Payload  json.RawMessage `json:"payload"`
	Ts       time.Time       `json:"ts"`
}

// Processor consome pedidos de liquidação do Kafka e chama o Executor.
// Erros de autenticação, estado e entrada vão direto para a DLQ;
// saldo insuficiente e falhas de infraestrutura são repetidos até MaxAttempts.
type Processor struct {
	Log         *zap.Logger
	Reader      kafka.MessageReader
	Settler     Settler
	DLQ         kafka.MessageWriter // opcional
	MaxAttempts int
	Backoff     time.Duration

	OnConsumed   func()       // métricas (counter++)
	OnSettled    func()       // métricas
	OnDeadLetter func()       // métricas
	OnError      func(string) // métricas por fase
}

// Run inicia o loop principal de consumo até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := kafka.ReadNext(ctx, p.Reader)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.onError("read")
			if err := sleep(ctx, 500*time.Millisecond); err != nil {
				return err
			}
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		if err := p.Handle(ctx, m); err != nil {
			return err
		}
	}
}

// Handle processa uma mensagem. Só devolve erro quando o contexto é cancelado;
// o resto termina em sucesso, descarte ou DLQ.
func (p *Processor) Handle(ctx context.Context, m kafka.Message) error {
	var ev events.SettleRequested
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		p.Log.Warn("invalid message", zap.Error(err))
		p.onError("decode")
		p.deadLetter(ctx, m, errors.Wrap(err, "decode settle request"), 0)
		return nil
	}
	req, err := settlement.SettleRequestFromEvent(ev)
	if err != nil {
		p.Log.Warn("invalid settle request", zap.String("request_id", ev.RequestID), zap.Error(err))
		p.onError("decode")
		p.deadLetter(ctx, m, err, 0)
		return nil
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		rec, err := p.Settler.Settle(ctx, req)
		if err == nil {
			if p.OnSettled != nil {
				p.OnSettled()
			}
			p.Log.Debug("settle request processed",
				zap.String("request_id", ev.RequestID),
				zap.String("bet", rec.Bet.String()),
				zap.String("status", string(rec.Status)))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// reentrega de um pedido já liquidado
		if errors.Is(err, dice.ErrBetNotFound) {
			p.Log.Info("bet already closed, dropping request",
				zap.String("request_id", ev.RequestID),
				zap.String("bet", ev.Bet))
			return nil
		}

		p.onError("settle")
		if !retryable(err) || i == attempts {
			p.deadLetter(ctx, m, err, i)
			return nil
		}
		p.Log.Warn("settle failed, retrying",
			zap.String("request_id", ev.RequestID),
			zap.Int("attempt", i),
			zap.Error(err))
		if err := sleep(ctx, p.Backoff*time.Duration(i)); err != nil {
			return err
		}
	}
	return nil
}

// retryable: saldo do cofre pode ser reposto; erros sem Kind são de infraestrutura
func retryable(err error) bool {
	switch dice.KindOf(err) {
	case dice.KindFunds, "":
		return true
	}
	return false
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, cause error, attempts int) {
	if p.OnDeadLetter != nil {
		p.OnDeadLetter()
	}
	p.Log.Error("settle request dead-lettered",
		zap.ByteString("key", m.Key),
		zap.String("code", dice.CodeOf(cause)),
		zap.Int("attempts", attempts),
		zap.Error(cause))
	if p.DLQ == nil {
		return
	}

	dl := DeadLetter{
		Error:    cause.Error(),
		Code:     dice.CodeOf(cause),
		Kind:     string(dice.KindOf(cause)),
		Attempts: attempts,
		Payload:  m.Value,
		Ts:       time.Now().UTC(),
	}
	if !json.Valid(m.Value) {
		dl.Payload, _ = json.Marshal(string(m.Value))
	}
	if err := kafka.WriteJSON(ctx, p.DLQ, string(m.Key), dl); err != nil {
		p.Log.Error("dlq write failed", zap.Error(err))
		p.onError("dlq")
	}
}

func (p *Processor) onError(phase string) {
	if p.OnError != nil {
		p.OnError(phase)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
