package dice

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
)

// SignatureVerifier é a verificação criptográfica feita pelo host antes da liquidação.
type SignatureVerifier interface {
	Verify(ix Instruction) error
}

// Ed25519Program reproduz o programa nativo: verifica toda entrada ed25519 legível da instrução.
// Instruções de outros programas não são tratadas aqui; o Authenticate as rejeita.
type Ed25519Program struct{}

func (Ed25519Program) Verify(ix Instruction) error {
	if ix.ProgramID != Ed25519ProgramID {
		return nil
	}
	if len(ix.Data) > signatureOffsetsStart && ix.Data[0] == 0 {
		return errors.Wrap(ErrInvalidInstructionData, "no signatures with trailing data")
	}

	// cabeçalho ilegível e entradas que apontam para outras instruções ficam
	// para o Authenticate, que as rejeita com MalformedHeader
	entries, err := UnpackEd25519Signatures(ix.Data)
	if err != nil {
		return nil
	}
	for i, e := range entries {
		if !e.IsVerifiable {
			continue
		}
		if !ed25519.Verify(ed25519.PublicKey(e.PublicKey), e.Message, e.Signature) {
			return errors.Wrapf(ErrSignatureInvalid, "entry %d", i)
		}
	}
	return nil
}

// VerifierFunc adapta uma função ao SignatureVerifier.
type VerifierFunc func(ix Instruction) error

func (f VerifierFunc) Verify(ix Instruction) error { return f(ix) }
