package receipts

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/radieske/dice-settlement/internal/dice"
	"github.com/radieske/dice-settlement/internal/settlement"
)

// quantos recibos recentes ficam no índice por jogador
const playerIndexSize = 100

var ErrNotFound = errors.New("receipt not found")

// RedisStore guarda os recibos de liquidação para consulta e auditoria
// Client: cliente Redis
// TTL: tempo de expiração dos recibos e do índice por jogador
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(c *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: c, TTL: ttl}
}

func receiptKey(bet dice.Pubkey) string   { return "dice:receipt:" + bet.String() }
func playerKey(player dice.Pubkey) string { return "dice:receipts:player:" + player.String() }

// Save grava o recibo e o coloca no topo do índice do jogador, numa transação MULTI.
func (s *RedisStore) Save(ctx context.Context, rec *settlement.Receipt) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal receipt")
	}
	_, err = s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, receiptKey(rec.Bet), b, s.TTL)
		p.LPush(ctx, playerKey(rec.Player), rec.Bet.String())
		p.LTrim(ctx, playerKey(rec.Player), 0, playerIndexSize-1)
		if s.TTL > 0 {
			p.Expire(ctx, playerKey(rec.Player), s.TTL)
		}
		return nil
	})
	return errors.Wrap(err, "save receipt")
}

func (s *RedisStore) Get(ctx context.Context, bet dice.Pubkey) (*settlement.Receipt, error) {
	b, err := s.Client.Get(ctx, receiptKey(bet)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get receipt")
	}
	var rec settlement.Receipt
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, errors.Wrap(err, "decode receipt")
	}
	return &rec, nil
}

// ListByPlayer devolve os recibos mais recentes do jogador; recibos expirados são pulados.
func (s *RedisStore) ListByPlayer(ctx context.Context, player dice.Pubkey, limit int) ([]settlement.Receipt, error) {
	if limit <= 0 || limit > playerIndexSize {
		limit = playerIndexSize
	}
	bets, err := s.Client.LRange(ctx, playerKey(player), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list player receipts")
	}
	if len(bets) == 0 {
		return []settlement.Receipt{}, nil
	}

	keys := make([]string, len(bets))
	for i, b := range bets {
		keys[i] = "dice:receipt:" + b
	}
	vals, err := s.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "load player receipts")
	}

	out := make([]settlement.Receipt, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec settlement.Receipt
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, errors.Wrap(err, "decode receipt")
		}
		out = append(out, rec)
	}
	return out, nil
}

// NotifyResolved permite plugar o store como Notifier do Executor.
func (s *RedisStore) NotifyResolved(ctx context.Context, rec *settlement.Receipt) error {
	return s.Save(ctx, rec)
}
