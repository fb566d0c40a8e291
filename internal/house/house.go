// Package house reúne o lado da casa usado pelo simulador e pelos testes de ponta a ponta:
// abertura de apostas no ledger e assinatura do registro para a liquidação.
package house

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/radieske/dice-settlement/internal/dice"
	"github.com/radieske/dice-settlement/internal/ledger"
	"github.com/radieske/dice-settlement/pkg/contracts/events"
)

// Signer guarda a chave ed25519 da casa
type Signer struct {
	key ed25519.PrivateKey
	pub dice.Pubkey
}

// NewSigner deriva a chave a partir de uma seed de 32 bytes
func NewSigner(seed []byte) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Errorf("house seed must have %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	key := ed25519.NewKeyFromSeed(seed)
	pub, err := dice.PubkeyFromBytes(key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &Signer{key: key, pub: pub}, nil
}

func (s *Signer) Pubkey() dice.Pubkey { return s.pub }

// Sign assina a mensagem canônica da aposta e monta a instrução de verificação
func (s *Signer) Sign(bet *dice.Bet) ([]byte, dice.Instruction) {
	msg := bet.Message()
	sig := ed25519.Sign(s.key, msg)
	return sig, dice.NewEd25519Instruction(s.pub, msg, sig)
}

// SettleEvent monta o pedido publicado em bet_settle_requested
func (s *Signer) SettleEvent(addr dice.Pubkey, bet *dice.Bet) events.SettleRequested {
	sig, ix := s.Sign(bet)
	return events.SettleRequested{
		RequestID:         uuid.NewString(),
		Bet:               addr.String(),
		House:             s.pub.String(),
		Signature:         sig,
		VerifyInstruction: EncodeInstruction(ix),
		TsUnixMs:          time.Now().UnixMilli(),
	}
}

// EncodeInstruction converte a instrução do domínio para o contrato (base58/base64)
func EncodeInstruction(ix dice.Instruction) events.VerifyInstruction {
	out := events.VerifyInstruction{ProgramID: ix.ProgramID.String(), Data: ix.Data}
	for _, a := range ix.Accounts {
		out.Accounts = append(out.Accounts, events.AccountMeta{
			Pubkey:     a.Pubkey.String(),
			IsSigner:   a.IsSigner,
			IsWritable: a.IsWritable,
		})
	}
	return out
}

// OpenBet completa cofre, endereço e bump do registro e grava a aposta,
// debitando o depósito do jogador. Devolve o endereço e o registro gravado.
func OpenBet(ctx context.Context, store ledger.Store, program dice.Pubkey, bet dice.Bet, deposit uint64) (dice.Pubkey, dice.Bet, error) {
	vault, _, err := dice.VaultAddress(program, bet.House)
	if err != nil {
		return dice.Pubkey{}, bet, err
	}
	bet.Vault = vault

	addr, bump, err := dice.BetAddress(program, vault, bet.Seed)
	if err != nil {
		return dice.Pubkey{}, bet, err
	}
	bet.Bump = bump
	if err := bet.Validate(); err != nil {
		return dice.Pubkey{}, bet, err
	}

	err = store.Atomic(ctx, func(tx ledger.Tx) error {
		return tx.CreateBet(ctx, addr, &bet, deposit)
	})
	if err != nil {
		return dice.Pubkey{}, bet, errors.Wrapf(err, "open bet %s", addr)
	}
	return addr, bet, nil
}

// Fund credita lamports numa conta (cofre ou jogador) do ambiente simulado
func Fund(ctx context.Context, store ledger.Store, addr dice.Pubkey, amount uint64) error {
	return store.Atomic(ctx, func(tx ledger.Tx) error {
		return tx.Credit(ctx, addr, amount)
	})
}
