package dice

import (
	"filippo.io/edwards25519"
	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"
)

const (
	MaxSeeds   = 16
	MaxSeedLen = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	vaultPrefix = []byte("vault")
	betPrefix   = []byte("bet")
)

// SignerSeeds são as seeds (já com o bump) que autorizam uma conta derivada do programa.
type SignerSeeds [][]byte

// CreateProgramAddress deriva um endereço fora da curva ed25519 a partir das seeds e do programa.
// Devolve ErrInvalidSeeds se as seeds excederem os limites ou o hash cair na curva.
func CreateProgramAddress(seeds [][]byte, program Pubkey) (Pubkey, error) {
	var addr Pubkey
	if len(seeds) > MaxSeeds {
		return addr, errors.Wrapf(ErrInvalidSeeds, "%d seeds", len(seeds))
	}

	h := sha256.New()
	for _, s := range seeds {
		if len(s) > MaxSeedLen {
			return addr, errors.Wrapf(ErrInvalidSeeds, "seed of %d bytes", len(s))
		}
		h.Write(s)
	}
	h.Write(program[:])
	h.Write([]byte(pdaMarker))
	copy(addr[:], h.Sum(nil))

	if isOnCurve(addr[:]) {
		return Pubkey{}, errors.Wrap(ErrInvalidSeeds, "address on curve")
	}
	return addr, nil
}

// FindProgramAddress procura o maior bump (255..0) que gera um endereço válido.
func FindProgramAddress(seeds [][]byte, program Pubkey) (Pubkey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}
		addr, err := CreateProgramAddress(withBump, program)
		if err == nil {
			return addr, uint8(bump), nil
		}
	}
	return Pubkey{}, 0, errors.Wrap(ErrInvalidSeeds, "no viable bump")
}

func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

func VaultSeeds(house Pubkey) [][]byte {
	return [][]byte{vaultPrefix, house[:]}
}

func VaultAddress(program, house Pubkey) (Pubkey, uint8, error) {
	return FindProgramAddress(VaultSeeds(house), program)
}

// VaultSigner monta as seeds com que o programa assina em nome do cofre.
func VaultSigner(house Pubkey, bump uint8) SignerSeeds {
	return SignerSeeds{vaultPrefix, house[:], {bump}}
}

func BetSeeds(vault Pubkey, seed Seed) [][]byte {
	return [][]byte{betPrefix, vault[:], seed[:]}
}

func BetAddress(program, vault Pubkey, seed Seed) (Pubkey, uint8, error) {
	return FindProgramAddress(BetSeeds(vault, seed), program)
}

// CheckSigner confirma que as seeds derivam exatamente addr.
func CheckSigner(addr Pubkey, signer SignerSeeds, program Pubkey) error {
	derived, err := CreateProgramAddress(signer, program)
	if err != nil {
		return errors.Wrap(ErrInvalidAuthority, err.Error())
	}
	if derived != addr {
		return errors.Wrapf(ErrInvalidAuthority, "seeds derive %s, not %s", derived, addr)
	}
	return nil
}
