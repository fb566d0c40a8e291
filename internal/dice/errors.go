package dice

import (
	"github.com/pkg/errors"
)

// Kind agrupa os erros de liquidação por tratamento nas bordas (HTTP, worker).
type Kind string

const (
	KindAuth    Kind = "auth"
	KindNumeric Kind = "numeric"
	KindFunds   Kind = "funds"
	KindState   Kind = "state"
	KindInput   Kind = "input"
)

// Error é um erro sentinela do domínio; compare com errors.Is.
type Error struct {
	Code string
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newError(code string, kind Kind, msg string) *Error {
	return &Error{Code: code, Kind: kind, msg: msg}
}

// autenticação da assinatura da casa
var (
	ErrWrongVerifier          = newError("WrongVerifier", KindAuth, "verification instruction does not target the ed25519 program")
	ErrUnexpectedAccounts     = newError("UnexpectedAccounts", KindAuth, "verification instruction carries account references")
	ErrWrongSignatureCount    = newError("WrongSignatureCount", KindAuth, "verification instruction must carry exactly one signature")
	ErrMalformedHeader        = newError("MalformedHeader", KindAuth, "signature entry is not verifiable")
	ErrWrongSigner            = newError("WrongSigner", KindAuth, "signature was not produced by the house")
	ErrSignatureMismatch      = newError("SignatureMismatch", KindAuth, "claimed signature differs from the verified one")
	ErrMessageMismatch        = newError("MessageMismatch", KindAuth, "signed message is not the bet record")
	ErrSignatureInvalid       = newError("SignatureInvalid", KindAuth, "ed25519 signature does not verify")
	ErrInvalidInstructionData = newError("InvalidInstructionData", KindAuth, "ed25519 instruction data is malformed")
)

// aritmética
var ErrOverflow = newError("Overflow", KindNumeric, "arithmetic overflow")

// fundos
var ErrInsufficientFunds = newError("InsufficientFunds", KindFunds, "insufficient funds")

// estado do ledger / contas
var (
	ErrBetNotFound        = newError("BetNotFound", KindState, "bet not found")
	ErrBetExists          = newError("BetExists", KindState, "bet already exists for vault and seed")
	ErrVaultMismatch      = newError("VaultMismatch", KindState, "vault does not belong to house")
	ErrBetAddressMismatch = newError("BetAddressMismatch", KindState, "bet address does not match vault and seed")
	ErrPlayerMismatch     = newError("PlayerMismatch", KindState, "player does not own bet")
	ErrTimeoutNotReached  = newError("TimeoutNotReached", KindState, "refund timeout not reached")
	ErrInvalidAuthority   = newError("InvalidAuthority", KindState, "signer seeds do not derive source account")
	ErrInvalidSeeds       = newError("InvalidSeeds", KindState, "seeds do not yield a program address")
)

// validação de entrada
var (
	ErrInvalidRoll   = newError("InvalidRoll", KindInput, "roll must be between 1 and 100")
	ErrInvalidAmount = newError("InvalidAmount", KindInput, "amount must be positive")
	ErrInvalidPubkey = newError("InvalidPubkey", KindInput, "invalid public key")
	ErrInvalidSeed   = newError("InvalidSeed", KindInput, "invalid bet seed")
)

func asError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf devolve o Kind do primeiro erro de domínio da cadeia, ou "" se não houver.
func KindOf(err error) Kind {
	if e, ok := asError(err); ok {
		return e.Kind
	}
	return ""
}

// CodeOf devolve o código estável do erro de domínio, ou "" se não houver.
func CodeOf(err error) string {
	if e, ok := asError(err); ok {
		return e.Code
	}
	return ""
}

func IsAuth(err error) bool { return KindOf(err) == KindAuth }
