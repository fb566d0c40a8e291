package dice

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	MinRoll = 1
	MaxRoll = 100

	// MessageLen é o tamanho da mensagem canônica assinada pela casa.
	MessageLen = PubkeySize + 16 + 8 + 8 + 1 + 1
)

// Bet é o registro de aposta aberto pela colocação e consumido pela liquidação.
type Bet struct {
	Player Pubkey `json:"player"`
	House  Pubkey `json:"house"`
	Vault  Pubkey `json:"vault"`
	Seed   Seed   `json:"seed"`
	Slot   uint64 `json:"slot"`
	Amount uint64 `json:"amount"`
	Roll   uint8  `json:"roll"`
	Bump   uint8  `json:"bump"`
}

func (b *Bet) Validate() error {
	if b.Roll < MinRoll || b.Roll > MaxRoll {
		return errors.Wrapf(ErrInvalidRoll, "roll %d", b.Roll)
	}
	if b.Amount == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Message serializa o registro na ordem assinada pela casa:
// player | seed (le16) | slot (le8) | amount (le8) | roll | bump
func (b *Bet) Message() []byte {
	msg := make([]byte, 0, MessageLen)
	msg = append(msg, b.Player[:]...)
	msg = append(msg, b.Seed[:]...)
	msg = binary.LittleEndian.AppendUint64(msg, b.Slot)
	msg = binary.LittleEndian.AppendUint64(msg, b.Amount)
	msg = append(msg, b.Roll, b.Bump)
	return msg
}
