package pubsub

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/radieske/dice-settlement/internal/settlement"
	"github.com/radieske/dice-settlement/internal/settlement-service/ws"
)

// RedisBroadcaster publica resoluções no canal lido pelo ws de cada réplica
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, payload []byte) error {
	return errors.Wrap(b.r.Publish(ctx, b.channel, payload).Err(), "redis publish")
}

func (b *RedisBroadcaster) NotifyResolved(ctx context.Context, rec *settlement.Receipt) error {
	payload, err := json.Marshal(ws.Update{
		Bet:     rec.Bet.String(),
		Player:  rec.Player.String(),
		Payload: rec.Event(),
	})
	if err != nil {
		return errors.Wrap(err, "marshal update")
	}
	return b.Publish(ctx, payload)
}
