package dice

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Seed é o inteiro de 128 bits escolhido pelo jogador, guardado em little-endian.
type Seed [16]byte

func SeedFromUint64(v uint64) Seed {
	var s Seed
	binary.LittleEndian.PutUint64(s[:8], v)
	return s
}

func ParseSeed(dec string) (Seed, error) {
	var s Seed
	v, err := uint256.FromDecimal(dec)
	if err != nil {
		return s, errors.Wrapf(ErrInvalidSeed, "%q: %v", dec, err)
	}
	if v[2] != 0 || v[3] != 0 {
		return s, errors.Wrapf(ErrInvalidSeed, "%q exceeds 128 bits", dec)
	}
	binary.LittleEndian.PutUint64(s[:8], v[0])
	binary.LittleEndian.PutUint64(s[8:], v[1])
	return s, nil
}

func (s Seed) uint() *uint256.Int {
	var v uint256.Int
	v[0] = binary.LittleEndian.Uint64(s[:8])
	v[1] = binary.LittleEndian.Uint64(s[8:])
	return &v
}

// String devolve o seed em decimal.
func (s Seed) String() string { return s.uint().Dec() }

func (s Seed) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Seed) UnmarshalText(text []byte) error {
	v, err := ParseSeed(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
