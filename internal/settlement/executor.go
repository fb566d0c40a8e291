package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/radieske/dice-settlement/internal/dice"
	"github.com/radieske/dice-settlement/internal/ledger"
)

// Notifier recebe cada recibo depois do commit (cache de recibos, Kafka, Pub/Sub).
type Notifier interface {
	NotifyResolved(ctx context.Context, rec *Receipt) error
}

type NotifierFunc func(ctx context.Context, rec *Receipt) error

func (f NotifierFunc) NotifyResolved(ctx context.Context, rec *Receipt) error { return f(ctx, rec) }

// Executor é o único ponto de entrada da liquidação: autentica a assinatura da casa,
// deriva o resultado, paga e fecha o registro numa única unidade atômica do ledger.
type Executor struct {
	Log                *zap.Logger
	Store              ledger.Store
	Program            dice.Pubkey
	Verifier           dice.SignatureVerifier
	Clock              dice.SlotClock
	RefundTimeoutSlots uint64
	Metrics            *Metrics
	Notifiers          []Notifier

	now func() time.Time
}

func NewExecutor(log *zap.Logger, store ledger.Store, program dice.Pubkey) *Executor {
	return &Executor{
		Log:                log,
		Store:              store,
		Program:            program,
		Verifier:           dice.Ed25519Program{},
		Clock:              dice.WallClock{SlotDuration: dice.DefaultSlotDuration},
		RefundTimeoutSlots: dice.DefaultRefundTimeoutSlots,
		now:                time.Now,
	}
}

// Settle resolve a aposta. Qualquer erro deixa o ledger exatamente como estava.
func (e *Executor) Settle(ctx context.Context, req SettleRequest) (*Receipt, error) {
	start := time.Now()
	rec, err := e.settle(ctx, req)
	e.Metrics.observe("settle", start, rec, err)
	if err != nil {
		e.Log.Warn("settle failed",
			zap.String("bet", req.Bet.String()),
			zap.String("code", dice.CodeOf(err)),
			zap.Error(err))
		return nil, err
	}

	e.Log.Info("bet settled",
		zap.String("bet", rec.Bet.String()),
		zap.String("player", rec.Player.String()),
		zap.String("status", string(rec.Status)),
		zap.Uint8("roll", rec.Roll),
		zap.Uint8("outcome", rec.Outcome),
		zap.Uint64("payout", rec.Payout))
	e.notify(ctx, rec)
	return rec, nil
}

func (e *Executor) settle(ctx context.Context, req SettleRequest) (*Receipt, error) {
	// o host verifica a instrução ed25519 antes de qualquer acesso ao estado
	if err := e.Verifier.Verify(req.Verification); err != nil {
		return nil, errors.Wrap(err, "host verification")
	}

	var rec *Receipt
	err := e.Store.Atomic(ctx, func(tx ledger.Tx) error {
		bet, vaultBump, err := e.loadOwnedBet(ctx, tx, req.Bet, req.House)
		if err != nil {
			return err
		}

		if err := dice.Authenticate(bet, req.House, req.Signature, req.Verification); err != nil {
			return err
		}

		outcome := dice.DeriveOutcome(req.Signature)
		payout, err := dice.ComputePayout(bet, outcome)
		if err != nil {
			return err
		}
		if payout > 0 {
			if err := tx.Transfer(ctx, bet.Vault, bet.Player, payout, dice.VaultSigner(req.House, vaultBump)); err != nil {
				return errors.Wrap(err, "pay player")
			}
		}

		deposit, err := tx.CloseBet(ctx, req.Bet, bet.Player)
		if err != nil {
			return errors.Wrap(err, "close bet")
		}

		status := StatusLost
		if dice.IsWin(bet, outcome) {
			status = StatusWon
		}
		rec = e.newReceipt(req.Bet, bet, status, payout, deposit)
		rec.Outcome = outcome
		rec.Signature = req.Signature
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Refund devolve o valor apostado quando a casa não liquidou dentro do prazo.
func (e *Executor) Refund(ctx context.Context, req RefundRequest) (*Receipt, error) {
	start := time.Now()
	rec, err := e.refund(ctx, req)
	e.Metrics.observe("refund", start, rec, err)
	if err != nil {
		e.Log.Warn("refund failed",
			zap.String("bet", req.Bet.String()),
			zap.String("code", dice.CodeOf(err)),
			zap.Error(err))
		return nil, err
	}

	e.Log.Info("bet refunded",
		zap.String("bet", rec.Bet.String()),
		zap.String("player", rec.Player.String()),
		zap.Uint64("amount", rec.Payout))
	e.notify(ctx, rec)
	return rec, nil
}

func (e *Executor) refund(ctx context.Context, req RefundRequest) (*Receipt, error) {
	current := e.Clock.CurrentSlot()

	var rec *Receipt
	err := e.Store.Atomic(ctx, func(tx ledger.Tx) error {
		bet, vaultBump, err := e.loadOwnedBet(ctx, tx, req.Bet, req.House)
		if err != nil {
			return err
		}
		if bet.Player != req.Player {
			return errors.Wrapf(dice.ErrPlayerMismatch, "bet %s belongs to %s", req.Bet, bet.Player)
		}
		if !dice.RefundDue(bet.Slot, current, e.RefundTimeoutSlots) {
			return errors.Wrapf(dice.ErrTimeoutNotReached, "placed at slot %d, now %d, timeout %d",
				bet.Slot, current, e.RefundTimeoutSlots)
		}

		if err := tx.Transfer(ctx, bet.Vault, bet.Player, bet.Amount, dice.VaultSigner(req.House, vaultBump)); err != nil {
			return errors.Wrap(err, "refund player")
		}
		deposit, err := tx.CloseBet(ctx, req.Bet, bet.Player)
		if err != nil {
			return errors.Wrap(err, "close bet")
		}
		rec = e.newReceipt(req.Bet, bet, StatusRefunded, bet.Amount, deposit)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// loadOwnedBet carrega o registro e confere que ele pertence ao cofre da casa
// e ao endereço informado. Devolve também o bump do cofre.
func (e *Executor) loadOwnedBet(ctx context.Context, tx ledger.Tx, addr, house dice.Pubkey) (*dice.Bet, uint8, error) {
	bet, err := tx.LoadBet(ctx, addr)
	if err != nil {
		return nil, 0, err
	}
	if err := bet.Validate(); err != nil {
		return nil, 0, err
	}

	vault, vaultBump, err := dice.VaultAddress(e.Program, house)
	if err != nil {
		return nil, 0, err
	}
	if bet.House != house || bet.Vault != vault {
		return nil, 0, errors.Wrapf(dice.ErrVaultMismatch, "bet vault %s, house %s derives %s", bet.Vault, house, vault)
	}

	seeds := append(dice.BetSeeds(vault, bet.Seed), []byte{bet.Bump})
	derived, err := dice.CreateProgramAddress(seeds, e.Program)
	if err != nil || derived != addr {
		return nil, 0, errors.Wrapf(dice.ErrBetAddressMismatch, "vault %s seed %s", vault, bet.Seed)
	}
	return bet, vaultBump, nil
}

func (e *Executor) newReceipt(addr dice.Pubkey, bet *dice.Bet, status Status, payout, deposit uint64) *Receipt {
	now := time.Now
	if e.now != nil {
		now = e.now
	}
	return &Receipt{
		ID:              uuid.NewString(),
		Bet:             addr,
		Player:          bet.Player,
		House:           bet.House,
		Vault:           bet.Vault,
		Seed:            bet.Seed,
		Amount:          bet.Amount,
		Roll:            bet.Roll,
		Status:          status,
		Payout:          payout,
		DepositReturned: deposit,
		ResolvedAt:      now().UTC(),
	}
}

// notify propaga o recibo; falhas aqui não desfazem a liquidação já confirmada
func (e *Executor) notify(ctx context.Context, rec *Receipt) {
	for _, n := range e.Notifiers {
		if err := n.NotifyResolved(ctx, rec); err != nil {
			e.Metrics.notifyFailed()
			e.Log.Warn("notify resolved failed", zap.String("bet", rec.Bet.String()), zap.Error(err))
		}
	}
}
