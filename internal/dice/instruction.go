package dice

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Ed25519ProgramID é o programa nativo de verificação ed25519 do host.
var Ed25519ProgramID = MustParsePubkey("Ed25519SigVerify111111111111111111111111111")

const (
	SignatureSize = 64

	signatureOffsetsStart = 2
	signatureOffsetsSize  = 14
	// índice que aponta para a própria instrução
	currentInstruction = math.MaxUint16
)

type AccountMeta struct {
	Pubkey     Pubkey `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

// Instruction é a instrução de verificação que acompanha a liquidação na mesma transação.
type Instruction struct {
	ProgramID Pubkey        `json:"program_id"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      []byte        `json:"data"`
}

// SignatureEntry é uma entrada decodificada da instrução ed25519.
// PublicKey, Signature e Message só são preenchidos quando apontam para a própria instrução.
type SignatureEntry struct {
	IsVerifiable bool
	PublicKey    []byte
	Signature    []byte
	Message      []byte
}

type signatureOffsets struct {
	signatureOffset           uint16
	signatureInstructionIndex uint16
	publicKeyOffset           uint16
	publicKeyInstructionIndex uint16
	messageDataOffset         uint16
	messageDataSize           uint16
	messageInstructionIndex   uint16
}

func readOffsets(b []byte) signatureOffsets {
	u16 := func(i int) uint16 { return binary.LittleEndian.Uint16(b[i:]) }
	return signatureOffsets{
		signatureOffset:           u16(0),
		signatureInstructionIndex: u16(2),
		publicKeyOffset:           u16(4),
		publicKeyInstructionIndex: u16(6),
		messageDataOffset:         u16(8),
		messageDataSize:           u16(10),
		messageInstructionIndex:   u16(12),
	}
}

func (o signatureOffsets) put(b []byte) {
	binary.LittleEndian.PutUint16(b[0:], o.signatureOffset)
	binary.LittleEndian.PutUint16(b[2:], o.signatureInstructionIndex)
	binary.LittleEndian.PutUint16(b[4:], o.publicKeyOffset)
	binary.LittleEndian.PutUint16(b[6:], o.publicKeyInstructionIndex)
	binary.LittleEndian.PutUint16(b[8:], o.messageDataOffset)
	binary.LittleEndian.PutUint16(b[10:], o.messageDataSize)
	binary.LittleEndian.PutUint16(b[12:], o.messageInstructionIndex)
}

func slice(data []byte, off, size int) ([]byte, error) {
	end := off + size
	if end > len(data) {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "range [%d:%d] past %d bytes", off, end, len(data))
	}
	return data[off:end], nil
}

// UnpackEd25519Signatures decodifica o cabeçalho e as entradas de uma instrução ed25519.
func UnpackEd25519Signatures(data []byte) ([]SignatureEntry, error) {
	if len(data) < signatureOffsetsStart {
		return nil, errors.Wrap(ErrInvalidInstructionData, "missing header")
	}
	count := int(data[0])
	if len(data) < signatureOffsetsStart+count*signatureOffsetsSize {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "header declares %d signatures", count)
	}

	entries := make([]SignatureEntry, 0, count)
	for i := 0; i < count; i++ {
		start := signatureOffsetsStart + i*signatureOffsetsSize
		o := readOffsets(data[start : start+signatureOffsetsSize])

		e := SignatureEntry{
			IsVerifiable: o.signatureInstructionIndex == currentInstruction &&
				o.publicKeyInstructionIndex == currentInstruction &&
				o.messageInstructionIndex == currentInstruction,
		}
		var err error
		if o.publicKeyInstructionIndex == currentInstruction {
			if e.PublicKey, err = slice(data, int(o.publicKeyOffset), PubkeySize); err != nil {
				return nil, err
			}
		}
		if o.signatureInstructionIndex == currentInstruction {
			if e.Signature, err = slice(data, int(o.signatureOffset), SignatureSize); err != nil {
				return nil, err
			}
		}
		if o.messageInstructionIndex == currentInstruction {
			if e.Message, err = slice(data, int(o.messageDataOffset), int(o.messageDataSize)); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// NewEd25519Instruction monta a instrução de verificação de uma assinatura,
// no mesmo layout gerado pelos clientes: cabeçalho, chave, assinatura, mensagem.
func NewEd25519Instruction(pub Pubkey, message, signature []byte) Instruction {
	const headerLen = signatureOffsetsStart + signatureOffsetsSize
	pkOff := headerLen
	sigOff := pkOff + PubkeySize
	msgOff := sigOff + SignatureSize

	data := make([]byte, msgOff+len(message))
	data[0] = 1
	signatureOffsets{
		signatureOffset:           uint16(sigOff),
		signatureInstructionIndex: currentInstruction,
		publicKeyOffset:           uint16(pkOff),
		publicKeyInstructionIndex: currentInstruction,
		messageDataOffset:         uint16(msgOff),
		messageDataSize:           uint16(len(message)),
		messageInstructionIndex:   currentInstruction,
	}.put(data[signatureOffsetsStart:headerLen])
	copy(data[pkOff:], pub[:])
	copy(data[sigOff:], signature)
	copy(data[msgOff:], message)

	return Instruction{ProgramID: Ed25519ProgramID, Data: data}
}
