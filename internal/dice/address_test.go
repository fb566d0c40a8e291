package dice

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindProgramAddressIsOffCurve(t *testing.T) {
	house, _ := keyFromByte(t, 3)

	vault, bump, err := VaultAddress(testProgram, house)
	require.NoError(t, err)
	assert.False(t, isOnCurve(vault[:]))

	again, err := CreateProgramAddress(VaultSigner(house, bump), testProgram)
	require.NoError(t, err)
	assert.Equal(t, vault, again)

	// chaves ed25519 comuns estão na curva
	assert.True(t, isOnCurve(house[:]))
}

func TestFindProgramAddressUsesHighestBump(t *testing.T) {
	house, _ := keyFromByte(t, 3)
	_, bump, err := VaultAddress(testProgram, house)
	require.NoError(t, err)

	for b := 255; b > int(bump); b-- {
		_, err := CreateProgramAddress(VaultSigner(house, uint8(b)), testProgram)
		assert.True(t, errors.Is(err, ErrInvalidSeeds), "bump %d", b)
	}
}

func TestCreateProgramAddressRejectsOnCurve(t *testing.T) {
	house, _ := keyFromByte(t, 4)
	rejected := 0
	for b := 0; b < 256; b++ {
		if _, err := CreateProgramAddress(VaultSigner(house, uint8(b)), testProgram); err != nil {
			require.True(t, errors.Is(err, ErrInvalidSeeds))
			rejected++
		}
	}
	assert.Greater(t, rejected, 0)
}

func TestCreateProgramAddressLimits(t *testing.T) {
	tooMany := make([][]byte, MaxSeeds+1)
	_, err := CreateProgramAddress(tooMany, testProgram)
	assert.True(t, errors.Is(err, ErrInvalidSeeds))

	_, err = CreateProgramAddress([][]byte{bytes.Repeat([]byte{1}, MaxSeedLen+1)}, testProgram)
	assert.True(t, errors.Is(err, ErrInvalidSeeds))
}

func TestBetAddressDependsOnVaultAndSeed(t *testing.T) {
	houseA, _ := keyFromByte(t, 5)
	houseB, _ := keyFromByte(t, 6)
	vaultA, _, err := VaultAddress(testProgram, houseA)
	require.NoError(t, err)
	vaultB, _, err := VaultAddress(testProgram, houseB)
	require.NoError(t, err)

	a1, _, err := BetAddress(testProgram, vaultA, SeedFromUint64(1))
	require.NoError(t, err)
	a2, _, err := BetAddress(testProgram, vaultA, SeedFromUint64(2))
	require.NoError(t, err)
	b1, _, err := BetAddress(testProgram, vaultB, SeedFromUint64(1))
	require.NoError(t, err)

	assert.NotEqual(t, a1, a2)
	assert.NotEqual(t, a1, b1)
}

func TestCheckSigner(t *testing.T) {
	house, _ := keyFromByte(t, 5)
	other, _ := keyFromByte(t, 6)
	vault, bump, err := VaultAddress(testProgram, house)
	require.NoError(t, err)

	assert.NoError(t, CheckSigner(vault, VaultSigner(house, bump), testProgram))
	assert.True(t, errors.Is(CheckSigner(vault, VaultSigner(other, bump), testProgram), ErrInvalidAuthority))
	assert.True(t, errors.Is(CheckSigner(house, VaultSigner(house, bump), testProgram), ErrInvalidAuthority))
}
