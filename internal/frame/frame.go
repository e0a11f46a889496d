package frame

import "gonum.org/v1/gonum/spatial/r3"

// Zero is the vector reported for parts that are no longer observed.
var Zero = r3.Vec{}

// Part is anything carrying a sensor-assigned device identifier.
type Part interface {
	DeviceID() int64
}

// Finger is the accessor contract for a raw finger record.
type Finger interface {
	Part
	TipPosition() r3.Vec
	Direction() r3.Vec
	IsExtended() bool
}

// Hand is the accessor contract for a raw hand record.
type Hand interface {
	Part
	PalmPosition() r3.Vec
	PalmNormal() r3.Vec
	Fingers() []Finger
}

// Frame is one sensor tick.
type Frame interface {
	Sequence() uint64
	Hands() []Hand
}
