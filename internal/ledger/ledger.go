package ledger

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/radieske/dice-settlement/internal/dice"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Open escolhe a implementação pelo nome do backend. Nome desconhecido é erro:
// cair para a memória em silêncio perderia o estado no restart.
func Open(backend string, db *sql.DB, program dice.Pubkey) (Store, error) {
	switch backend {
	case BackendPostgres:
		if db == nil {
			return nil, errors.New("postgres ledger requires a database")
		}
		return NewPostgres(db, program), nil
	case BackendMemory:
		return NewMemory(program), nil
	}
	return nil, errors.Errorf("unknown ledger backend %q", backend)
}

// Store executa unidades de trabalho atômicas sobre contas e registros de aposta.
// Se fn devolver erro nada do que foi feito dentro dela é persistido.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// Tx é a visão do ledger dentro de uma unidade atômica.
type Tx interface {
	LoadBet(ctx context.Context, addr dice.Pubkey) (*dice.Bet, error)
	Balance(ctx context.Context, addr dice.Pubkey) (uint64, error)

	// Transfer move lamports de uma conta do programa; signer precisa derivar from.
	Transfer(ctx context.Context, from, to dice.Pubkey, amount uint64, signer dice.SignerSeeds) error
	// Credit financia uma conta por fora do programa (colocação, inicialização do cofre).
	Credit(ctx context.Context, addr dice.Pubkey, amount uint64) error

	// CreateBet abre o registro e debita o depósito do jogador.
	CreateBet(ctx context.Context, addr dice.Pubkey, bet *dice.Bet, deposit uint64) error
	// CloseBet destrói o registro e devolve o depósito para dest.
	CloseBet(ctx context.Context, addr, dest dice.Pubkey) (uint64, error)
}

// LookupBet lê um registro aberto numa unidade própria.
func LookupBet(ctx context.Context, s Store, addr dice.Pubkey) (*dice.Bet, error) {
	var bet *dice.Bet
	err := s.Atomic(ctx, func(tx Tx) error {
		var err error
		bet, err = tx.LoadBet(ctx, addr)
		return err
	})
	return bet, err
}

// LookupBalance lê o saldo de uma conta numa unidade própria.
func LookupBalance(ctx context.Context, s Store, addr dice.Pubkey) (uint64, error) {
	var bal uint64
	err := s.Atomic(ctx, func(tx Tx) error {
		var err error
		bal, err = tx.Balance(ctx, addr)
		return err
	})
	return bal, err
}
