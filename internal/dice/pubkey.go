package dice

import (
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const PubkeySize = 32

// Pubkey identifica contas (jogador, casa, cofre, aposta) e programas.
type Pubkey [PubkeySize]byte

func ParsePubkey(s string) (Pubkey, error) {
	var pk Pubkey
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, errors.Wrapf(ErrInvalidPubkey, "decode %q: %v", s, err)
	}
	if len(raw) != PubkeySize {
		return pk, errors.Wrapf(ErrInvalidPubkey, "%q has %d bytes", s, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

func MustParsePubkey(s string) Pubkey {
	pk, err := ParsePubkey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var pk Pubkey
	if len(b) != PubkeySize {
		return pk, errors.Wrapf(ErrInvalidPubkey, "got %d bytes", len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

func (p Pubkey) String() string { return base58.Encode(p[:]) }

func (p Pubkey) IsZero() bool { return p == Pubkey{} }

func (p Pubkey) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Pubkey) UnmarshalText(text []byte) error {
	pk, err := ParsePubkey(string(text))
	if err != nil {
		return err
	}
	*p = pk
	return nil
}
