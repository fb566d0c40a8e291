package settlement

import (
	"github.com/pkg/errors"

	"github.com/radieske/dice-settlement/internal/dice"
	"github.com/radieske/dice-settlement/pkg/contracts/events"
)

// SettleRequest traz a aposta a resolver, a casa, a assinatura informada
// e a instrução de verificação que viaja na mesma transação.
type SettleRequest struct {
	Bet          dice.Pubkey
	House        dice.Pubkey
	Signature    []byte
	Verification dice.Instruction
}

type RefundRequest struct {
	Bet    dice.Pubkey
	House  dice.Pubkey
	Player dice.Pubkey
}

// ParseInstruction converte a instrução do contrato para o formato do domínio.
func ParseInstruction(in events.VerifyInstruction) (dice.Instruction, error) {
	var ix dice.Instruction
	var err error
	if ix.ProgramID, err = dice.ParsePubkey(in.ProgramID); err != nil {
		return ix, errors.Wrap(err, "program_id")
	}
	for i, a := range in.Accounts {
		pk, err := dice.ParsePubkey(a.Pubkey)
		if err != nil {
			return ix, errors.Wrapf(err, "accounts[%d]", i)
		}
		ix.Accounts = append(ix.Accounts, dice.AccountMeta{Pubkey: pk, IsSigner: a.IsSigner, IsWritable: a.IsWritable})
	}
	ix.Data = in.Data
	return ix, nil
}

// SettleRequestFromEvent monta o pedido a partir do evento consumido do Kafka.
func SettleRequestFromEvent(ev events.SettleRequested) (SettleRequest, error) {
	var req SettleRequest
	var err error
	if req.Bet, err = dice.ParsePubkey(ev.Bet); err != nil {
		return req, errors.Wrap(err, "bet")
	}
	if req.House, err = dice.ParsePubkey(ev.House); err != nil {
		return req, errors.Wrap(err, "house")
	}
	if req.Verification, err = ParseInstruction(ev.VerifyInstruction); err != nil {
		return req, err
	}
	req.Signature = ev.Signature
	return req, nil
}
