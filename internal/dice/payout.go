package dice

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const (
	// HouseEdgeBps é a margem da casa em pontos-base (1,5%).
	HouseEdgeBps   = 150
	bpsDenominator = 10_000
)

var (
	payoutNumerator   = uint256.NewInt(bpsDenominator - HouseEdgeBps)
	payoutDenominator = uint256.NewInt(bpsDenominator)
)

// IsWin: o jogador vence quando o resultado fica estritamente abaixo do roll.
func IsWin(bet *Bet, outcome uint8) bool { return outcome < bet.Roll }

// ComputePayout devolve quanto o cofre paga ao jogador (0 em caso de derrota).
func ComputePayout(bet *Bet, outcome uint8) (uint64, error) {
	if !IsWin(bet, outcome) {
		return 0, nil
	}
	return applyHouseEdge(bet.Amount)
}

func applyHouseEdge(amount uint64) (uint64, error) {
	p, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(amount), payoutNumerator)
	if overflow {
		return 0, errors.Wrapf(ErrOverflow, "payout of %d", amount)
	}
	p.Div(p, payoutDenominator)
	return toLamports(p)
}

func toLamports(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, errors.Wrapf(ErrOverflow, "%s lamports", v.Dec())
	}
	return v.Uint64(), nil
}
