package consumer

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/minio/sha256-simd"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/dice-settlement/internal/dice"
	"github.com/radieske/dice-settlement/internal/ledger"
	"github.com/radieske/dice-settlement/internal/settlement"
	"github.com/radieske/dice-settlement/pkg/contracts/events"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

// fakeReader entrega as mensagens em ordem e depois bloqueia até o cancelamento
type fakeReader struct {
	msgs []kafkago.Message
	errs []error
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafkago.Message{}, err
	}
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		return m, nil
	}
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

type scriptedSettler struct {
	errs  []error
	calls int
}

func (s *scriptedSettler) Settle(_ context.Context, req settlement.SettleRequest) (*settlement.Receipt, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &settlement.Receipt{Bet: req.Bet, Status: settlement.StatusLost}, nil
}

func requestMessage(t *testing.T) kafkago.Message {
	t.Helper()
	ev := events.SettleRequested{
		RequestID: "req-1",
		Bet:       dice.Pubkey{1}.String(),
		House:     dice.Pubkey{2}.String(),
		Signature: bytes.Repeat([]byte{7}, dice.SignatureSize),
		VerifyInstruction: events.VerifyInstruction{
			ProgramID: dice.Ed25519ProgramID.String(),
			Data:      []byte{1, 0},
		},
	}
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafkago.Message{Key: []byte(ev.Bet), Value: raw}
}

func newProcessor(s Settler, dlq *fakeWriter) *Processor {
	return &Processor{
		Log:         zap.NewNop(),
		Settler:     s,
		DLQ:         dlq,
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
	}
}

func deadLetters(t *testing.T, w *fakeWriter) []DeadLetter {
	t.Helper()
	out := make([]DeadLetter, 0, len(w.msgs))
	for _, m := range w.msgs {
		var dl DeadLetter
		require.NoError(t, json.Unmarshal(m.Value, &dl))
		out = append(out, dl)
	}
	return out
}

func TestHandleSettles(t *testing.T) {
	s := &scriptedSettler{}
	dlq := &fakeWriter{}
	settled := 0
	p := newProcessor(s, dlq)
	p.OnSettled = func() { settled++ }

	require.NoError(t, p.Handle(context.Background(), requestMessage(t)))
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, 1, settled)
	assert.Empty(t, dlq.msgs)
}

func TestHandleDecodeErrorGoesToDLQ(t *testing.T) {
	s := &scriptedSettler{}
	dlq := &fakeWriter{}
	p := newProcessor(s, dlq)

	require.NoError(t, p.Handle(context.Background(), kafkago.Message{Key: []byte("k"), Value: []byte("{oops")}))
	assert.Zero(t, s.calls)
	dls := deadLetters(t, dlq)
	require.Len(t, dls, 1)
	assert.Zero(t, dls[0].Attempts)
	var payload string
	require.NoError(t, json.Unmarshal(dls[0].Payload, &payload))
	assert.Equal(t, "{oops", payload)
}

func TestHandleInvalidPubkeyGoesToDLQ(t *testing.T) {
	raw, _ := json.Marshal(events.SettleRequested{Bet: "0OIl", House: dice.Pubkey{2}.String()})
	dlq := &fakeWriter{}
	p := newProcessor(&scriptedSettler{}, dlq)

	require.NoError(t, p.Handle(context.Background(), kafkago.Message{Value: raw}))
	dls := deadLetters(t, dlq)
	require.Len(t, dls, 1)
	assert.Equal(t, "InvalidPubkey", dls[0].Code)
	assert.Equal(t, "input", dls[0].Kind)
}

func TestHandleAuthErrorIsNotRetried(t *testing.T) {
	s := &scriptedSettler{errs: []error{dice.ErrWrongSigner}}
	dlq := &fakeWriter{}
	p := newProcessor(s, dlq)

	require.NoError(t, p.Handle(context.Background(), requestMessage(t)))
	assert.Equal(t, 1, s.calls)
	dls := deadLetters(t, dlq)
	require.Len(t, dls, 1)
	assert.Equal(t, "WrongSigner", dls[0].Code)
	assert.Equal(t, 1, dls[0].Attempts)
	assert.JSONEq(t, string(requestMessage(t).Value), string(dls[0].Payload))
}

func TestHandleRetriesFundsThenSucceeds(t *testing.T) {
	s := &scriptedSettler{errs: []error{dice.ErrInsufficientFunds, errors.New("conn reset")}}
	dlq := &fakeWriter{}
	p := newProcessor(s, dlq)

	require.NoError(t, p.Handle(context.Background(), requestMessage(t)))
	assert.Equal(t, 3, s.calls)
	assert.Empty(t, dlq.msgs)
}

func TestHandleExhaustsAttempts(t *testing.T) {
	s := &scriptedSettler{errs: []error{dice.ErrInsufficientFunds, dice.ErrInsufficientFunds, dice.ErrInsufficientFunds}}
	dlq := &fakeWriter{}
	dead := 0
	p := newProcessor(s, dlq)
	p.OnDeadLetter = func() { dead++ }

	require.NoError(t, p.Handle(context.Background(), requestMessage(t)))
	assert.Equal(t, 3, s.calls)
	assert.Equal(t, 1, dead)
	dls := deadLetters(t, dlq)
	require.Len(t, dls, 1)
	assert.Equal(t, "InsufficientFunds", dls[0].Code)
	assert.Equal(t, 3, dls[0].Attempts)
}

func TestHandleDropsAlreadyClosedBet(t *testing.T) {
	s := &scriptedSettler{errs: []error{dice.ErrBetNotFound}}
	dlq := &fakeWriter{}
	p := newProcessor(s, dlq)

	require.NoError(t, p.Handle(context.Background(), requestMessage(t)))
	assert.Equal(t, 1, s.calls)
	assert.Empty(t, dlq.msgs)
}

func TestHandleStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &scriptedSettler{errs: []error{dice.ErrInsufficientFunds}}
	p := newProcessor(s, &fakeWriter{})
	p.Backoff = time.Hour
	cancel()

	assert.ErrorIs(t, p.Handle(ctx, requestMessage(t)), context.Canceled)
}

func TestRunConsumesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &scriptedSettler{}
	phases := []string{}
	consumed := 0
	p := newProcessor(s, &fakeWriter{})
	p.Reader = &fakeReader{
		errs: []error{errors.New("broker down")},
		msgs: []kafkago.Message{requestMessage(t), requestMessage(t)},
	}
	p.OnError = func(phase string) { phases = append(phases, phase) }
	p.OnConsumed = func() {
		consumed++
		if consumed == 2 {
			cancel()
		}
	}

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"read"}, phases)
	assert.Equal(t, 2, consumed)
	assert.Equal(t, 2, s.calls)
}

func TestHandleWithExecutor(t *testing.T) {
	program := dice.Pubkey(sha256.Sum256([]byte("worker-test-program")))
	priv := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{3}, ed25519.SeedSize))
	house, err := dice.PubkeyFromBytes(priv.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	player := dice.Pubkey(sha256.Sum256([]byte("worker-player")))
	vault, _, err := dice.VaultAddress(program, house)
	require.NoError(t, err)
	seed := dice.SeedFromUint64(77)
	addr, bump, err := dice.BetAddress(program, vault, seed)
	require.NoError(t, err)
	bet := dice.Bet{Player: player, House: house, Vault: vault, Seed: seed, Slot: 1, Amount: 10_000, Roll: 50, Bump: bump}

	store := ledger.NewMemory(program)
	ctx := context.Background()
	require.NoError(t, store.Atomic(ctx, func(tx ledger.Tx) error {
		if err := tx.Credit(ctx, vault, 1_000_000); err != nil {
			return err
		}
		if err := tx.Credit(ctx, player, 500); err != nil {
			return err
		}
		return tx.CreateBet(ctx, addr, &bet, 500)
	}))

	msg := bet.Message()
	sig := ed25519.Sign(priv, msg)
	ix := dice.NewEd25519Instruction(house, msg, sig)
	raw, err := json.Marshal(events.SettleRequested{
		RequestID: "req-exec",
		Bet:       addr.String(),
		House:     house.String(),
		Signature: sig,
		VerifyInstruction: events.VerifyInstruction{
			ProgramID: ix.ProgramID.String(),
			Data:      ix.Data,
		},
	})
	require.NoError(t, err)

	dlq := &fakeWriter{}
	p := newProcessor(settlement.NewExecutor(zap.NewNop(), store, program), dlq)
	require.NoError(t, p.Handle(ctx, kafkago.Message{Key: []byte(addr.String()), Value: raw}))
	assert.Empty(t, dlq.msgs)

	_, err = ledger.LookupBet(ctx, store, addr)
	assert.ErrorIs(t, err, dice.ErrBetNotFound)

	// reentrega do mesmo pedido é descartada sem DLQ
	require.NoError(t, p.Handle(ctx, kafkago.Message{Key: []byte(addr.String()), Value: raw}))
	assert.Empty(t, dlq.msgs)
}
