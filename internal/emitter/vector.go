package emitter

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// VectorKind selects the address letter of a vector: "t" for positions,
// "d" for directions and normals.
type VectorKind int

const (
	Position VectorKind = iota
	Direction
)

func (k VectorKind) letter() string {
	if k == Position {
		return "t"
	}
	return "d"
}

// VectorEncoder emits one vector under prefix (e.g. "/hand1/palm/"). lost
// marks the placeholder vector of a zeroed or cleared part.
type VectorEncoder interface {
	EmitVector(sink Sink, prefix string, kind VectorKind, v r3.Vec, lost bool) error
}

// PerAxis sends one single-argument message per component:
// /hand1/palm/tx, /hand1/palm/ty, /hand1/palm/tz.
type PerAxis struct{}

func (PerAxis) EmitVector(sink Sink, prefix string, kind VectorKind, v r3.Vec, _ bool) error {
	base := prefix + kind.letter()
	if err := sink.Emit(base+"x", float32(v.X)); err != nil {
		return err
	}
	if err := sink.Emit(base+"y", float32(v.Y)); err != nil {
		return err
	}
	return sink.Emit(base+"z", float32(v.Z))
}

// MultiArg sends one message with three arguments: /hand1/palm/txyz.
type MultiArg struct{}

func (MultiArg) EmitVector(sink Sink, prefix string, kind VectorKind, v r3.Vec, _ bool) error {
	return sink.Emit(prefix+kind.letter()+"xyz", float32(v.X), float32(v.Y), float32(v.Z))
}
