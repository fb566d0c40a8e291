package dice

import (
	"bytes"

	"github.com/pkg/errors"
)

// Authenticate confere que a instrução de verificação prova que a casa assinou exatamente
// este registro de aposta, e que a assinatura informada é a mesma verificada.
// As checagens seguem uma ordem fixa e param no primeiro erro.
func Authenticate(bet *Bet, house Pubkey, signature []byte, ix Instruction) error {
	if ix.ProgramID != Ed25519ProgramID {
		return errors.Wrapf(ErrWrongVerifier, "program %s", ix.ProgramID)
	}
	if len(ix.Accounts) != 0 {
		return errors.Wrapf(ErrUnexpectedAccounts, "%d accounts", len(ix.Accounts))
	}

	entries, err := UnpackEd25519Signatures(ix.Data)
	if err != nil {
		return errors.Wrap(ErrMalformedHeader, err.Error())
	}
	if len(entries) != 1 {
		return errors.Wrapf(ErrWrongSignatureCount, "%d signatures", len(entries))
	}

	e := entries[0]
	if !e.IsVerifiable {
		return ErrMalformedHeader
	}
	if !bytes.Equal(e.PublicKey, house[:]) {
		return ErrWrongSigner
	}
	if !bytes.Equal(e.Signature, signature) {
		return ErrSignatureMismatch
	}
	if !bytes.Equal(e.Message, bet.Message()) {
		return ErrMessageMismatch
	}
	return nil
}
