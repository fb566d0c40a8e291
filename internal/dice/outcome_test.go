package dice

import (
	"bytes"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leUint128(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	return new(big.Int).SetBytes(be)
}

// referenceOutcome refaz a derivação com math/big.
func referenceOutcome(d [32]byte) uint8 {
	mod128 := new(big.Int).Lsh(big.NewInt(1), 128)
	sum := new(big.Int).Add(leUint128(d[:16]), leUint128(d[16:]))
	sum.Mod(sum, mod128)
	sum.Mod(sum, big.NewInt(OutcomeRange))
	return uint8(sum.Int64()) + 1
}

func TestOutcomeFromDigestVectors(t *testing.T) {
	var zero [32]byte
	assert.Equal(t, uint8(1), outcomeFromDigest(zero))

	var d [32]byte
	d[0] = 29
	assert.Equal(t, uint8(30), outcomeFromDigest(d))

	// lower = 2^128-1, upper = 0 -> 55 + 1
	var maxLower [32]byte
	for i := 0; i < 16; i++ {
		maxLower[i] = 0xff
	}
	assert.Equal(t, uint8(56), outcomeFromDigest(maxLower))

	// lower = 2^128-1, upper = 1 -> soma estoura para 0
	wrap := maxLower
	wrap[16] = 1
	assert.Equal(t, uint8(1), outcomeFromDigest(wrap))

	// a metade superior pesa igual à inferior
	var upper [32]byte
	upper[16] = 29
	assert.Equal(t, uint8(30), outcomeFromDigest(upper))
}

func TestOutcomeMatchesReference(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		var d [32]byte
		_, _ = r.Read(d[:])
		got := outcomeFromDigest(d)
		require.Equal(t, referenceOutcome(d), got)
		require.GreaterOrEqual(t, got, uint8(1))
		require.LessOrEqual(t, got, uint8(100))
	}
}

func FuzzOutcomeFromDigest(f *testing.F) {
	f.Add(make([]byte, 32))
	f.Add(bytes.Repeat([]byte{0xff}, 32))
	f.Add(append(bytes.Repeat([]byte{0xff}, 16), append([]byte{1}, make([]byte, 15)...)...))
	f.Fuzz(func(t *testing.T, raw []byte) {
		var d [32]byte
		copy(d[:], raw)
		got := outcomeFromDigest(d)
		require.Equal(t, referenceOutcome(d), got)
		require.GreaterOrEqual(t, got, uint8(1))
		require.LessOrEqual(t, got, uint8(100))
	})
}

func TestDeriveOutcomeDeterministic(t *testing.T) {
	house, priv := keyFromByte(t, 1)
	bet := sampleBet(t, house)
	sig, _ := signedInstruction(t, &bet, priv)

	first := DeriveOutcome(sig)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DeriveOutcome(sig))
	}
	assert.GreaterOrEqual(t, first, uint8(1))
	assert.LessOrEqual(t, first, uint8(100))
}

func TestOutcomeBias(t *testing.T) {
	mod128 := new(big.Int).Lsh(big.NewInt(1), 128)
	rem := new(big.Int).Mod(mod128, big.NewInt(OutcomeRange))
	assert.Equal(t, int64(OutcomeBias), rem.Int64())
}
