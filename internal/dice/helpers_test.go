package dice

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/minio/sha256-simd"
	"github.com/stretchr/testify/require"
)

var testProgram = Pubkey(sha256.Sum256([]byte("dice-settlement-program")))

func keyFromByte(t *testing.T, b byte) (Pubkey, ed25519.PrivateKey) {
	t.Helper()
	priv := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{b}, ed25519.SeedSize))
	pk, err := PubkeyFromBytes(priv.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	return pk, priv
}

func sampleBet(t *testing.T, house Pubkey) Bet {
	t.Helper()
	player, _ := keyFromByte(t, 9)
	vault, _, err := VaultAddress(testProgram, house)
	require.NoError(t, err)
	seed := SeedFromUint64(42)
	_, bump, err := BetAddress(testProgram, vault, seed)
	require.NoError(t, err)
	return Bet{
		Player: player,
		House:  house,
		Vault:  vault,
		Seed:   seed,
		Slot:   1234,
		Amount: 1_000_000,
		Roll:   50,
		Bump:   bump,
	}
}

// signedInstruction devolve a assinatura da casa sobre o registro e a instrução que a prova.
func signedInstruction(t *testing.T, bet *Bet, priv ed25519.PrivateKey) ([]byte, Instruction) {
	t.Helper()
	pub, err := PubkeyFromBytes(priv.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	msg := bet.Message()
	sig := ed25519.Sign(priv, msg)
	return sig, NewEd25519Instruction(pub, msg, sig)
}
