package dice

import "time"

const (
	DefaultRefundTimeoutSlots = 1000
	DefaultSlotDuration       = 400 * time.Millisecond
)

// SlotClock informa o slot corrente do host.
type SlotClock interface {
	CurrentSlot() uint64
}

// WallClock estima o slot a partir do relógio: (agora - gênese) / duração do slot.
type WallClock struct {
	Genesis      time.Time
	SlotDuration time.Duration
	Now          func() time.Time
}

func (c WallClock) CurrentSlot() uint64 {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	d := c.SlotDuration
	if d <= 0 {
		d = DefaultSlotDuration
	}
	elapsed := now().Sub(c.Genesis)
	if elapsed <= 0 {
		return 0
	}
	return uint64(elapsed / d)
}

// FixedSlot é um relógio parado, útil em backfills e testes.
type FixedSlot uint64

func (s FixedSlot) CurrentSlot() uint64 { return uint64(s) }

// RefundDue indica se a aposta colocada em placedSlot já pode ser reembolsada.
func RefundDue(placedSlot, currentSlot, timeout uint64) bool {
	return currentSlot >= placedSlot && currentSlot-placedSlot >= timeout
}
