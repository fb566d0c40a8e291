package ledger

import (
	"context"
	"math/bits"
	"sync"

	"github.com/pkg/errors"

	"github.com/radieske/dice-settlement/internal/dice"
)

type betEntry struct {
	bet     dice.Bet
	deposit uint64
}

type memState struct {
	accounts map[dice.Pubkey]uint64
	bets     map[dice.Pubkey]betEntry
}

func (s memState) clone() memState {
	c := memState{
		accounts: make(map[dice.Pubkey]uint64, len(s.accounts)),
		bets:     make(map[dice.Pubkey]betEntry, len(s.bets)),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.bets {
		c.bets[k] = v
	}
	return c
}

// Memory é um ledger em memória. Cada unidade trabalha numa cópia do estado,
// trocada pelo estado atual só quando fn termina sem erro.
type Memory struct {
	mu      sync.Mutex
	program dice.Pubkey
	state   memState
}

func NewMemory(program dice.Pubkey) *Memory {
	return &Memory{
		program: program,
		state: memState{
			accounts: map[dice.Pubkey]uint64{},
			bets:     map[dice.Pubkey]betEntry{},
		},
	}
}

func (m *Memory) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.state.clone()
	if err := fn(&memTx{program: m.program, state: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

type memTx struct {
	program dice.Pubkey
	state   memState
}

func (t *memTx) LoadBet(_ context.Context, addr dice.Pubkey) (*dice.Bet, error) {
	e, ok := t.state.bets[addr]
	if !ok {
		return nil, errors.Wrapf(dice.ErrBetNotFound, "bet %s", addr)
	}
	bet := e.bet
	return &bet, nil
}

func (t *memTx) Balance(_ context.Context, addr dice.Pubkey) (uint64, error) {
	return t.state.accounts[addr], nil
}

func (t *memTx) Transfer(ctx context.Context, from, to dice.Pubkey, amount uint64, signer dice.SignerSeeds) error {
	if err := dice.CheckSigner(from, signer, t.program); err != nil {
		return err
	}
	if err := t.debit(from, amount); err != nil {
		return err
	}
	return t.Credit(ctx, to, amount)
}

func (t *memTx) Credit(_ context.Context, addr dice.Pubkey, amount uint64) error {
	sum, carry := bits.Add64(t.state.accounts[addr], amount, 0)
	if carry != 0 {
		return errors.Wrapf(dice.ErrOverflow, "credit %d to %s", amount, addr)
	}
	t.state.accounts[addr] = sum
	return nil
}

func (t *memTx) debit(addr dice.Pubkey, amount uint64) error {
	bal := t.state.accounts[addr]
	if bal < amount {
		return errors.Wrapf(dice.ErrInsufficientFunds, "%s has %d, needs %d", addr, bal, amount)
	}
	t.state.accounts[addr] = bal - amount
	return nil
}

func (t *memTx) CreateBet(_ context.Context, addr dice.Pubkey, bet *dice.Bet, deposit uint64) error {
	if _, ok := t.state.bets[addr]; ok {
		return errors.Wrapf(dice.ErrBetExists, "bet %s", addr)
	}
	for _, e := range t.state.bets {
		if e.bet.Vault == bet.Vault && e.bet.Seed == bet.Seed {
			return errors.Wrapf(dice.ErrBetExists, "vault %s seed %s", bet.Vault, bet.Seed)
		}
	}
	if err := t.debit(bet.Player, deposit); err != nil {
		return err
	}
	t.state.bets[addr] = betEntry{bet: *bet, deposit: deposit}
	return nil
}

func (t *memTx) CloseBet(ctx context.Context, addr, dest dice.Pubkey) (uint64, error) {
	e, ok := t.state.bets[addr]
	if !ok {
		return 0, errors.Wrapf(dice.ErrBetNotFound, "bet %s", addr)
	}
	delete(t.state.bets, addr)
	if err := t.Credit(ctx, dest, e.deposit); err != nil {
		return 0, err
	}
	return e.deposit, nil
}
