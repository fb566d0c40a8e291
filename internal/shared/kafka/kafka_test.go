package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

type stubReader struct {
	msg kafka.Message
	err error
}

func (r stubReader) ReadMessage(context.Context) (kafka.Message, error) { return r.msg, r.err }

func TestWriteJSON(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, WriteJSON(context.Background(), w, "bet-1", map[string]int{"payout": 985000}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("bet-1"), w.msgs[0].Key)

	var got map[string]int
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, 985000, got["payout"])
	assert.False(t, w.msgs[0].Time.IsZero())
}

func TestWriteJSONPropagatesErrors(t *testing.T) {
	boom := errors.New("broker down")
	err := WriteJSON(context.Background(), &recordingWriter{err: boom}, "k", 1)
	assert.True(t, errors.Is(err, boom))

	err = WriteJSON(context.Background(), &recordingWriter{}, "k", make(chan int))
	assert.Error(t, err)
}

func TestReadNext(t *testing.T) {
	m, err := ReadNext(context.Background(), stubReader{msg: kafka.Message{Key: []byte("k")}})
	require.NoError(t, err)
	assert.Equal(t, []byte("k"), m.Key)

	_, err = ReadNext(context.Background(), stubReader{err: context.Canceled})
	assert.True(t, errors.Is(err, context.Canceled))
}
