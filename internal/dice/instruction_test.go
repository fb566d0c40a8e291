package dice

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withOffsets reescreve a entrada i de uma instrução já montada.
func withOffsets(t *testing.T, data []byte, i int, edit func(*signatureOffsets)) []byte {
	t.Helper()
	out := bytes.Clone(data)
	start := signatureOffsetsStart + i*signatureOffsetsSize
	o := readOffsets(out[start : start+signatureOffsetsSize])
	edit(&o)
	o.put(out[start : start+signatureOffsetsSize])
	return out
}

// duplicated declara duas entradas apontando para os mesmos dados.
func duplicated(data []byte) []byte {
	head := data[:signatureOffsetsStart+signatureOffsetsSize]
	out := make([]byte, 0, len(data)+signatureOffsetsSize)
	out = append(out, 2, 0)
	out = append(out, head[signatureOffsetsStart:]...)
	out = append(out, head[signatureOffsetsStart:]...)
	body := bytes.Clone(data[len(head):])
	out = append(out, body...)
	// desloca os offsets das duas entradas pelo tamanho da entrada extra
	for i := 0; i < 2; i++ {
		start := signatureOffsetsStart + i*signatureOffsetsSize
		o := readOffsets(out[start : start+signatureOffsetsSize])
		o.signatureOffset += signatureOffsetsSize
		o.publicKeyOffset += signatureOffsetsSize
		o.messageDataOffset += signatureOffsetsSize
		o.put(out[start : start+signatureOffsetsSize])
	}
	return out
}

func TestNewEd25519InstructionLayout(t *testing.T) {
	house, priv := keyFromByte(t, 1)
	bet := sampleBet(t, house)
	sig, ix := signedInstruction(t, &bet, priv)

	assert.Equal(t, Ed25519ProgramID, ix.ProgramID)
	assert.Empty(t, ix.Accounts)
	assert.Equal(t, byte(1), ix.Data[0])
	assert.Equal(t, house[:], ix.Data[16:48])
	assert.Equal(t, sig, ix.Data[48:112])
	assert.Equal(t, bet.Message(), ix.Data[112:])

	entries, err := UnpackEd25519Signatures(ix.Data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsVerifiable)
	assert.Equal(t, house[:], entries[0].PublicKey)
	assert.Equal(t, sig, entries[0].Signature)
	assert.Equal(t, bet.Message(), entries[0].Message)
}

func TestUnpackForeignInstructionIndex(t *testing.T) {
	house, priv := keyFromByte(t, 1)
	bet := sampleBet(t, house)
	_, ix := signedInstruction(t, &bet, priv)

	data := withOffsets(t, ix.Data, 0, func(o *signatureOffsets) { o.messageInstructionIndex = 0 })
	entries, err := UnpackEd25519Signatures(data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].IsVerifiable)
	assert.NotNil(t, entries[0].PublicKey)
	assert.NotNil(t, entries[0].Signature)
	assert.Nil(t, entries[0].Message)
}

func TestUnpackMalformed(t *testing.T) {
	house, priv := keyFromByte(t, 1)
	bet := sampleBet(t, house)
	_, ix := signedInstruction(t, &bet, priv)

	cases := map[string][]byte{
		"empty":             nil,
		"header only count": {1},
		"missing offsets":   {1, 0, 0, 0},
		"truncated message": ix.Data[:len(ix.Data)-1],
		"pubkey past end": withOffsets(t, ix.Data, 0, func(o *signatureOffsets) {
			o.publicKeyOffset = uint16(len(ix.Data))
		}),
	}
	for name, data := range cases {
		_, err := UnpackEd25519Signatures(data)
		assert.True(t, errors.Is(err, ErrInvalidInstructionData), name)
	}
}

func TestUnpackTwoEntries(t *testing.T) {
	house, priv := keyFromByte(t, 1)
	bet := sampleBet(t, house)
	sig, ix := signedInstruction(t, &bet, priv)

	entries, err := UnpackEd25519Signatures(duplicated(ix.Data))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, sig, e.Signature)
		assert.Equal(t, bet.Message(), e.Message)
	}
}
