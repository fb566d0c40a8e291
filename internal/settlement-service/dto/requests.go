package dto

import "github.com/radieske/dice-settlement/pkg/contracts/events"

// SettleRequest é o corpo de POST /v1/bets/{address}/settle
type SettleRequest struct {
	House             string                   `json:"house"`
	Signature         []byte                   `json:"signature"` // base64
	VerifyInstruction events.VerifyInstruction `json:"verify_instruction"`
}

// RefundRequest é o corpo de POST /v1/bets/{address}/refund
type RefundRequest struct {
	House  string `json:"house"`
	Player string `json:"player"`
}
