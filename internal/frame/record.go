package frame

import "gonum.org/v1/gonum/spatial/r3"

// FingerRecord is a plain-data Finger. Positions are in device millimetres.
type FingerRecord struct {
	ID       int64  `json:"id"`
	Tip      r3.Vec `json:"tip"`
	Dir      r3.Vec `json:"dir"`
	Extended bool   `json:"extended"`
}

func (f FingerRecord) DeviceID() int64     { return f.ID }
func (f FingerRecord) TipPosition() r3.Vec { return f.Tip }
func (f FingerRecord) Direction() r3.Vec   { return f.Dir }
func (f FingerRecord) IsExtended() bool    { return f.Extended }

// HandRecord is a plain-data Hand.
type HandRecord struct {
	ID          int64          `json:"id"`
	Palm        r3.Vec         `json:"palm"`
	Normal      r3.Vec         `json:"normal"`
	FingerParts []FingerRecord `json:"fingers,omitempty"`
}

func (h HandRecord) DeviceID() int64      { return h.ID }
func (h HandRecord) PalmPosition() r3.Vec { return h.Palm }
func (h HandRecord) PalmNormal() r3.Vec   { return h.Normal }

// Fingers returns the hand's fingers in record order.
func (h HandRecord) Fingers() []Finger {
	out := make([]Finger, len(h.FingerParts))
	for i, f := range h.FingerParts {
		out[i] = f
	}
	return out
}

// FrameRecord is a plain-data Frame, also the unit of a JSON-lines
// recording.
type FrameRecord struct {
	Seq            uint64       `json:"seq"`
	TimestampNanos int64        `json:"ts"`
	HandParts      []HandRecord `json:"hands"`
}

func (f FrameRecord) Sequence() uint64 { return f.Seq }

// Hands returns the frame's hands in record order.
func (f FrameRecord) Hands() []Hand {
	out := make([]Hand, len(f.HandParts))
	for i, h := range f.HandParts {
		out[i] = h
	}
	return out
}

// Capture copies any Frame into a FrameRecord.
func Capture(f Frame, timestampNanos int64) FrameRecord {
	rec := FrameRecord{Seq: f.Sequence(), TimestampNanos: timestampNanos}
	for _, h := range f.Hands() {
		hr := HandRecord{ID: h.DeviceID(), Palm: h.PalmPosition(), Normal: h.PalmNormal()}
		for _, fg := range h.Fingers() {
			hr.FingerParts = append(hr.FingerParts, FingerRecord{
				ID:       fg.DeviceID(),
				Tip:      fg.TipPosition(),
				Dir:      fg.Direction(),
				Extended: fg.IsExtended(),
			})
		}
		rec.HandParts = append(rec.HandParts, hr)
	}
	return rec
}
