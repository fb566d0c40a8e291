package dto

import "github.com/radieske/dice-settlement/internal/dice"

// BetResponse é um registro ainda aberto
type BetResponse struct {
	Address string `json:"address"`
	dice.Bet
}

// OutcomeResponse é a repetição do sorteio a partir de uma assinatura (auditoria)
type OutcomeResponse struct {
	Outcome      uint8  `json:"outcome"`
	HouseEdgeBps int    `json:"house_edge_bps"`
	Roll         uint8  `json:"roll,omitempty"`
	Win          *bool  `json:"win,omitempty"`
	Payout       uint64 `json:"payout,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Kind  string `json:"kind,omitempty"`
}
