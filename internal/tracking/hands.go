package tracking

import (
	"github.com/rs/zerolog"

	"github.com/banshee-data/handosc/internal/frame"
)

// FingerTracker is the finger tier, owned by a single hand identity.
type FingerTracker = Tracker[frame.Finger, struct{}]

// HandIdentity is a hand-tier identity carrying its finger tracker.
type HandIdentity = Identity[frame.Hand, *FingerTracker]

// FingerIdentity is a finger-tier identity.
type FingerIdentity = Identity[frame.Finger, struct{}]

// HandTracker stabilizes hands and, through each hand, its fingers.
type HandTracker struct {
	hands *Tracker[frame.Hand, *FingerTracker]
}

// NewHandTracker creates a two-tier tracker with the same thresholds on
// both tiers.
func NewHandTracker(config Config, logger zerolog.Logger) *HandTracker {
	newFingers := func() *FingerTracker {
		return New[frame.Finger, struct{}]("finger", config, nil, logger)
	}
	return &HandTracker{hands: New[frame.Hand]("hand", config, newFingers, logger)}
}

// Tick ages and registers the frame's hands, then ticks the finger tracker
// of every hand present in the frame.
func (h *HandTracker) Tick(f frame.Frame) error {
	raw := f.Hands()
	if err := h.hands.Tick(raw); err != nil {
		return err
	}

	ticked := make(map[int]bool, len(raw))
	for _, rh := range raw {
		id, err := h.hands.Resolve(rh)
		if err != nil {
			return err
		}
		if ticked[id.slot] {
			continue
		}
		ticked[id.slot] = true
		if err := id.child.Tick(rh.Fingers()); err != nil {
			return err
		}
	}
	return nil
}

// Hands returns proxies for the tracked hands in ascending slot order.
func (h *HandTracker) Hands() []Hand {
	ids := h.hands.Enumerate()
	out := make([]Hand, len(ids))
	for i, id := range ids {
		out[i] = Hand{id: id}
	}
	return out
}

// Tier exposes the hand-tier tracker.
func (h *HandTracker) Tier() *Tracker[frame.Hand, *FingerTracker] {
	return h.hands
}
