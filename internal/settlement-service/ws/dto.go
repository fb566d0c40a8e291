package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Bet ou Player: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type   string `json:"type"`
	Bet    string `json:"bet,omitempty"`
	Player string `json:"player,omitempty"`
}

// Update é a resolução enviada aos clientes inscritos na aposta ou no jogador
type Update struct {
	Bet     string      `json:"bet"`
	Player  string      `json:"player"`
	Payload interface{} `json:"payload"`
}
