package emitter

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Range is a device-space interval mapped onto [-0.5, +0.5].
type Range struct {
	Min, Max float64
}

// Normalize maps v linearly so Min -> -0.5 and Max -> +0.5. Values outside
// the range are not clamped.
func (r Range) Normalize(v float64) float64 {
	return (v-r.Min)/(r.Max-r.Min) - 0.5
}

// Ranges holds the optional x, y and z ranges; a nil entry passes the axis
// through unchanged.
type Ranges [3]*Range

// Empty reports whether no axis is remapped.
func (r Ranges) Empty() bool {
	return r[0] == nil && r[1] == nil && r[2] == nil
}

// Apply remaps each configured axis of v.
func (r Ranges) Apply(v r3.Vec) r3.Vec {
	if r[0] != nil {
		v.X = r[0].Normalize(v.X)
	}
	if r[1] != nil {
		v.Y = r[1].Normalize(v.Y)
	}
	if r[2] != nil {
		v.Z = r[2].Normalize(v.Z)
	}
	return v
}

// Remap applies Ranges to position vectors before handing them to Next.
// Directions are unit vectors and lost parts must read as the zero vector;
// both pass through untouched. A live part at the origin is remapped.
type Remap struct {
	Ranges Ranges
	Next   VectorEncoder
}

func (m Remap) EmitVector(sink Sink, prefix string, kind VectorKind, v r3.Vec, lost bool) error {
	if kind == Position && !lost {
		v = m.Ranges.Apply(v)
	}
	return m.Next.EmitVector(sink, prefix, kind, v, lost)
}
