// Package frame defines the per-tick data handed over by a hand-tracking
// sensor: an ordered set of hands, each with an ordered set of fingers.
//
// Raw parts carry device identifiers that the sensor reuses freely, so they
// are only meaningful within a single frame. Package tracking turns them into
// stable slot numbers.
//
// Key types: Frame, Hand, Finger (accessor contracts) and FrameRecord,
// HandRecord, FingerRecord (plain data implementations used by sources and
// recordings).
package frame
