package emitter

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/handosc/internal/frame"
	"github.com/banshee-data/handosc/internal/tracking"
)

// FingerSnapshot is one finger as it will be addressed on the wire.
type FingerSnapshot struct {
	ID        int64
	Tip       r3.Vec
	Direction r3.Vec
	Extended  bool
	Lost      bool // zeroed or cleared; vectors are placeholders
}

// HandSnapshot is one hand as it will be addressed on the wire.
type HandSnapshot struct {
	ID      int64
	Palm    r3.Vec
	Normal  r3.Vec
	Fingers []FingerSnapshot
	Label   string // verbose summary, e.g. "<Hand1 ||0>"
	Lost    bool   // zeroed or cleared; vectors are placeholders
}

// HandSource selects which identifiers and values a frame is published
// with.
type HandSource interface {
	Hands(f frame.Frame) ([]HandSnapshot, error)
}

// Stabilized publishes hands through a HandTracker: slot numbers, zeroed
// vectors for stale parts.
type Stabilized struct {
	tracker *tracking.HandTracker
}

// NewStabilized wraps tracker. The tracker is ticked once per call to Hands.
func NewStabilized(tracker *tracking.HandTracker) *Stabilized {
	return &Stabilized{tracker: tracker}
}

// Hands ticks the tracker with f and returns its hands in slot order.
func (s *Stabilized) Hands(f frame.Frame) ([]HandSnapshot, error) {
	if err := s.tracker.Tick(f); err != nil {
		return nil, err
	}

	hands := s.tracker.Hands()
	out := make([]HandSnapshot, 0, len(hands))
	for _, h := range hands {
		snap := HandSnapshot{
			ID:     int64(h.ID()),
			Palm:   h.PalmPosition(),
			Normal: h.PalmNormal(),
			Label:  h.String(),
			Lost:   h.Zeroed(),
		}
		for _, f := range h.Fingers() {
			snap.Fingers = append(snap.Fingers, FingerSnapshot{
				ID:        int64(f.ID()),
				Tip:       f.TipPosition(),
				Direction: f.Direction(),
				Extended:  f.IsExtended(),
				Lost:      f.Zeroed(),
			})
		}
		out = append(out, snap)
	}
	return out, nil
}

// Raw publishes the frame as reported, addressed by device id.
type Raw struct{}

// Hands returns the frame's hands in frame order.
func (Raw) Hands(f frame.Frame) ([]HandSnapshot, error) {
	raw := f.Hands()
	out := make([]HandSnapshot, 0, len(raw))
	for _, h := range raw {
		snap := HandSnapshot{
			ID:     h.DeviceID(),
			Palm:   h.PalmPosition(),
			Normal: h.PalmNormal(),
		}
		var label strings.Builder
		for _, f := range h.Fingers() {
			snap.Fingers = append(snap.Fingers, FingerSnapshot{
				ID:        f.DeviceID(),
				Tip:       f.TipPosition(),
				Direction: f.Direction(),
				Extended:  f.IsExtended(),
			})
			label.WriteByte('|')
		}
		snap.Label = fmt.Sprintf("<Hand%d %s>", h.DeviceID(), label.String())
		out = append(out, snap)
	}
	return out, nil
}
