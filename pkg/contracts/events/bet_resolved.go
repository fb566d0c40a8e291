package events

import "time"

// Evento publicado no tópico "bet_resolved" e no canal de broadcast após cada liquidação.
type BetResolved struct {
	EventID         string    `json:"event_id"`
	Bet             string    `json:"bet"`
	Player          string    `json:"player"`
	House           string    `json:"house"`
	Vault           string    `json:"vault"`
	Seed            string    `json:"seed"` // decimal u128
	Amount          uint64    `json:"amount"`
	Roll            uint8     `json:"roll"`
	Outcome         uint8     `json:"outcome,omitempty"` // ausente em reembolsos
	Status          string    `json:"status"`            // "WON" | "LOST" | "REFUNDED"
	Payout          uint64    `json:"payout"`
	DepositReturned uint64    `json:"deposit_returned"`
	ResolvedAt      time.Time `json:"resolved_at"`
}
