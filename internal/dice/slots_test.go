package dice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWallClock(t *testing.T) {
	genesis := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := genesis.Add(4 * time.Second)
	c := WallClock{Genesis: genesis, SlotDuration: 400 * time.Millisecond, Now: func() time.Time { return now }}
	assert.Equal(t, uint64(10), c.CurrentSlot())

	now = genesis.Add(-time.Second)
	assert.Zero(t, c.CurrentSlot())

	now = genesis.Add(time.Second)
	c.SlotDuration = 0
	assert.Equal(t, uint64(2), c.CurrentSlot())
}

func TestRefundDue(t *testing.T) {
	assert.False(t, RefundDue(100, 100, DefaultRefundTimeoutSlots))
	assert.False(t, RefundDue(100, 1099, DefaultRefundTimeoutSlots))
	assert.True(t, RefundDue(100, 1100, DefaultRefundTimeoutSlots))
	// relógio atrás do slot da aposta
	assert.False(t, RefundDue(500, 10, 0))
	assert.Equal(t, uint64(9), FixedSlot(9).CurrentSlot())
}
