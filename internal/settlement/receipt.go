package settlement

import (
	"time"

	"github.com/radieske/dice-settlement/internal/dice"
	"github.com/radieske/dice-settlement/pkg/contracts/events"
)

type Status string

const (
	StatusWon      Status = "WON"
	StatusLost     Status = "LOST"
	StatusRefunded Status = "REFUNDED"
)

// Receipt descreve uma aposta resolvida. O registro já foi destruído quando o recibo existe.
type Receipt struct {
	ID              string      `json:"id"`
	Bet             dice.Pubkey `json:"bet"`
	Player          dice.Pubkey `json:"player"`
	House           dice.Pubkey `json:"house"`
	Vault           dice.Pubkey `json:"vault"`
	Seed            dice.Seed   `json:"seed"`
	Amount          uint64      `json:"amount"`
	Roll            uint8       `json:"roll"`
	Outcome         uint8       `json:"outcome,omitempty"`
	Status          Status      `json:"status"`
	Payout          uint64      `json:"payout"`
	DepositReturned uint64      `json:"deposit_returned"`
	Signature       []byte      `json:"signature,omitempty"`
	ResolvedAt      time.Time   `json:"resolved_at"`
}

// Event converte o recibo no contrato publicado no Kafka e no Pub/Sub.
func (r *Receipt) Event() events.BetResolved {
	return events.BetResolved{
		EventID:         r.ID,
		Bet:             r.Bet.String(),
		Player:          r.Player.String(),
		House:           r.House.String(),
		Vault:           r.Vault.String(),
		Seed:            r.Seed.String(),
		Amount:          r.Amount,
		Roll:            r.Roll,
		Outcome:         r.Outcome,
		Status:          string(r.Status),
		Payout:          r.Payout,
		DepositReturned: r.DepositReturned,
		ResolvedAt:      r.ResolvedAt,
	}
}
