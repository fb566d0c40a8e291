package events

// AccountMeta referencia uma conta numa instrução (base58).
type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer,omitempty"`
	IsWritable bool   `json:"is_writable,omitempty"`
}

// VerifyInstruction é a instrução ed25519 que acompanha o pedido de liquidação.
type VerifyInstruction struct {
	ProgramID string        `json:"program_id"`
	Accounts  []AccountMeta `json:"accounts,omitempty"`
	Data      []byte        `json:"data"` // base64
}

// Evento publicado no tópico "bet_settle_requested" pela casa (ou pelo serviço de colocação).
type SettleRequested struct {
	RequestID         string            `json:"request_id"`
	Bet               string            `json:"bet"`
	House             string            `json:"house"`
	Signature         []byte            `json:"signature"` // base64
	VerifyInstruction VerifyInstruction `json:"verify_instruction"`
	TsUnixMs          int64             `json:"ts_unix_ms"`
}
