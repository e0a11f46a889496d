package tracking

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/handosc/internal/frame"
)

// Hand is a read-only view of a tracked hand. Vector accessors report the
// zero vector while the hand is zeroed.
type Hand struct {
	id *HandIdentity
}

// ID is the hand's slot number.
func (h Hand) ID() int { return h.id.slot }

// RawID is the sensor identifier currently bound to the slot. Diagnostic
// only; it is not stable.
func (h Hand) RawID() int64 { return h.id.device }

// Zeroed reports whether the hand is in its soft-deleted state.
func (h Hand) Zeroed() bool { return h.id.zeroed }

func (h Hand) PalmPosition() r3.Vec {
	if h.id.zeroed {
		return frame.Zero
	}
	return h.id.raw.PalmPosition()
}

func (h Hand) PalmNormal() r3.Vec {
	if h.id.zeroed {
		return frame.Zero
	}
	return h.id.raw.PalmNormal()
}

// Fingers returns the hand's tracked fingers in ascending slot order. A
// zeroed hand zeroes all of its fingers.
func (h Hand) Fingers() []Finger {
	ids := h.id.child.Enumerate()
	out := make([]Finger, len(ids))
	for i, id := range ids {
		out[i] = Finger{id: id, handZeroed: h.id.zeroed}
	}
	return out
}

// Empty reports whether the hand currently has no tracked fingers.
func (h Hand) Empty() bool {
	return h.id.child.Len() == 0
}

// String renders the hand as "<Hand1 ||0 >": one column per finger slot,
// "|" live, "0" zeroed, blank for a free slot.
func (h Hand) String() string {
	var b strings.Builder
	next := 1
	for _, f := range h.id.child.Enumerate() {
		for ; next < f.slot; next++ {
			b.WriteByte(' ')
		}
		if f.zeroed {
			b.WriteByte('0')
		} else {
			b.WriteByte('|')
		}
		next++
	}
	return fmt.Sprintf("<Hand%d %s>", h.id.slot, b.String())
}

// Finger is a read-only view of a tracked finger.
type Finger struct {
	id         *FingerIdentity
	handZeroed bool
}

func (f Finger) ID() int      { return f.id.slot }
func (f Finger) RawID() int64 { return f.id.device }

// Zeroed reports whether the finger, or the hand owning it, is zeroed.
func (f Finger) Zeroed() bool { return f.id.zeroed || f.handZeroed }

func (f Finger) TipPosition() r3.Vec {
	if f.Zeroed() {
		return frame.Zero
	}
	return f.id.raw.TipPosition()
}

func (f Finger) Direction() r3.Vec {
	if f.Zeroed() {
		return frame.Zero
	}
	return f.id.raw.Direction()
}

// IsExtended forwards the raw flag unchanged.
func (f Finger) IsExtended() bool { return f.id.raw.IsExtended() }

func (f Finger) String() string {
	return fmt.Sprintf("<Finger%d>", f.id.slot)
}
