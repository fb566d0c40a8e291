package ledger

import (
	"context"
	"database/sql"
	"math"
	"math/big"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/radieske/dice-settlement/internal/dice"
)

var maxLamports = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// Postgres implementa o ledger em banco; cada unidade é uma transação
// com lock pessimista nas linhas tocadas.
type Postgres struct {
	db      *sql.DB
	program dice.Pubkey
}

func NewPostgres(db *sql.DB, program dice.Pubkey) *Postgres {
	return &Postgres{db: db, program: program}
}

func (p *Postgres) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin ledger tx")
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx, program: p.program}); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit ledger tx")
}

type pgTx struct {
	tx      *sql.Tx
	program dice.Pubkey
}

func toDecimal(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

func fromDecimal(d decimal.Decimal) (uint64, error) {
	if d.IsNegative() || d.GreaterThan(maxLamports) || !d.Equal(d.Truncate(0)) {
		return 0, errors.Wrapf(dice.ErrOverflow, "%s lamports", d)
	}
	return d.BigInt().Uint64(), nil
}

func (t *pgTx) LoadBet(ctx context.Context, addr dice.Pubkey) (*dice.Bet, error) {
	var (
		player, house, vault string
		seed                 []byte
		slot                 int64
		amount               decimal.Decimal
		roll, bump           int16
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT player, house, vault, seed, slot, amount, roll, bump FROM dice_bets WHERE address=$1 FOR UPDATE`,
		addr.String()).Scan(&player, &house, &vault, &seed, &slot, &amount, &roll, &bump)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(dice.ErrBetNotFound, "bet %s", addr)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load bet")
	}

	bet := &dice.Bet{Slot: uint64(slot), Roll: uint8(roll), Bump: uint8(bump)}
	if bet.Player, err = dice.ParsePubkey(player); err != nil {
		return nil, errors.Wrap(err, "bet player")
	}
	if bet.House, err = dice.ParsePubkey(house); err != nil {
		return nil, errors.Wrap(err, "bet house")
	}
	if bet.Vault, err = dice.ParsePubkey(vault); err != nil {
		return nil, errors.Wrap(err, "bet vault")
	}
	if len(seed) != len(bet.Seed) {
		return nil, errors.Wrapf(dice.ErrInvalidSeed, "stored seed has %d bytes", len(seed))
	}
	copy(bet.Seed[:], seed)
	if bet.Amount, err = fromDecimal(amount); err != nil {
		return nil, err
	}
	return bet, nil
}

func (t *pgTx) Balance(ctx context.Context, addr dice.Pubkey) (uint64, error) {
	var bal decimal.Decimal
	err := t.tx.QueryRowContext(ctx, `SELECT lamports FROM dice_accounts WHERE address=$1`, addr.String()).Scan(&bal)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "read balance")
	}
	return fromDecimal(bal)
}

func (t *pgTx) Transfer(ctx context.Context, from, to dice.Pubkey, amount uint64, signer dice.SignerSeeds) error {
	if err := dice.CheckSigner(from, signer, t.program); err != nil {
		return err
	}
	if err := t.debit(ctx, from, amount, "transfer:"+to.String()); err != nil {
		return err
	}
	return t.credit(ctx, to, amount, "transfer:"+from.String())
}

func (t *pgTx) Credit(ctx context.Context, addr dice.Pubkey, amount uint64) error {
	return t.credit(ctx, addr, amount, "fund")
}

// debit trava a conta, confere o saldo e registra o DEBIT no ledger
func (t *pgTx) debit(ctx context.Context, addr dice.Pubkey, amount uint64, desc string) error {
	var bal decimal.Decimal
	err := t.tx.QueryRowContext(ctx, `SELECT lamports FROM dice_accounts WHERE address=$1 FOR UPDATE`, addr.String()).Scan(&bal)
	if err == sql.ErrNoRows {
		bal = decimal.Zero
	} else if err != nil {
		return errors.Wrap(err, "lock account")
	}

	want := toDecimal(amount)
	if bal.LessThan(want) {
		return errors.Wrapf(dice.ErrInsufficientFunds, "%s has %s, needs %d", addr, bal, amount)
	}
	if amount == 0 {
		return nil
	}

	if _, err := t.tx.ExecContext(ctx,
		`UPDATE dice_accounts SET lamports = lamports - $1, updated_at = NOW() WHERE address=$2`,
		want, addr.String()); err != nil {
		return errors.Wrap(err, "debit account")
	}
	return t.entry(ctx, addr, "DEBIT", want, desc)
}

func (t *pgTx) credit(ctx context.Context, addr dice.Pubkey, amount uint64, desc string) error {
	if amount == 0 {
		return nil
	}
	want := toDecimal(amount)

	var bal decimal.Decimal
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO dice_accounts (address, lamports) VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET lamports = dice_accounts.lamports + EXCLUDED.lamports, updated_at = NOW()
		RETURNING lamports`,
		addr.String(), want).Scan(&bal)
	if err != nil {
		return errors.Wrap(err, "credit account")
	}
	if bal.GreaterThan(maxLamports) {
		return errors.Wrapf(dice.ErrOverflow, "credit %d to %s", amount, addr)
	}
	return t.entry(ctx, addr, "CREDIT", want, desc)
}

func (t *pgTx) entry(ctx context.Context, addr dice.Pubkey, op string, amount decimal.Decimal, desc string) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO dice_ledger (id, address, operation_type, amount, description) VALUES ($1,$2,$3,$4,$5)`,
		uuid.NewString(), addr.String(), op, amount, desc)
	return errors.Wrap(err, "insert ledger entry")
}

func (t *pgTx) CreateBet(ctx context.Context, addr dice.Pubkey, bet *dice.Bet, deposit uint64) error {
	if bet.Slot > math.MaxInt64 {
		return errors.Wrapf(dice.ErrOverflow, "slot %d", bet.Slot)
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO dice_bets (address, player, house, vault, seed, slot, amount, roll, bump, deposit)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) ON CONFLICT DO NOTHING`,
		addr.String(), bet.Player.String(), bet.House.String(), bet.Vault.String(), bet.Seed[:],
		int64(bet.Slot), toDecimal(bet.Amount), int16(bet.Roll), int16(bet.Bump), toDecimal(deposit))
	if err != nil {
		return errors.Wrap(err, "insert bet")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "insert bet")
	}
	if n == 0 {
		return errors.Wrapf(dice.ErrBetExists, "bet %s", addr)
	}
	return t.debit(ctx, bet.Player, deposit, "deposit:"+addr.String())
}

func (t *pgTx) CloseBet(ctx context.Context, addr, dest dice.Pubkey) (uint64, error) {
	var dep decimal.Decimal
	err := t.tx.QueryRowContext(ctx,
		`DELETE FROM dice_bets WHERE address=$1 RETURNING deposit`, addr.String()).Scan(&dep)
	if err == sql.ErrNoRows {
		return 0, errors.Wrapf(dice.ErrBetNotFound, "bet %s", addr)
	}
	if err != nil {
		return 0, errors.Wrap(err, "close bet")
	}
	deposit, err := fromDecimal(dep)
	if err != nil {
		return 0, err
	}
	if err := t.credit(ctx, dest, deposit, "close:"+addr.String()); err != nil {
		return 0, err
	}
	return deposit, nil
}
