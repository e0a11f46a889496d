package emitter

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/banshee-data/handosc/internal/frame"
	"github.com/banshee-data/handosc/internal/monitoring"
)

// Emitter publishes frames through the configured policy chain. It is
// driven by a single tick goroutine and is not safe for concurrent use.
type Emitter struct {
	source  HandSource
	vectors VectorEncoder
	out     Dispatcher
	stats   *monitoring.Stats
	logger  zerolog.Logger

	// hand id -> finger ids sent on the previous frame
	previous map[int64][]int64
}

// New assembles an Emitter from already selected policies.
func New(source HandSource, vectors VectorEncoder, out Dispatcher, stats *monitoring.Stats, logger zerolog.Logger) *Emitter {
	return &Emitter{
		source:   source,
		vectors:  vectors,
		out:      out,
		stats:    stats,
		logger:   logger,
		previous: make(map[int64][]int64),
	}
}

// Init sends /init. It must be called before the first Tick.
func (e *Emitter) Init() error {
	if err := e.out.Emit("/init"); err != nil {
		return fmt.Errorf("failed to send /init: %w", err)
	}
	e.logger.Info().Msg("initialized OSC listener")
	return nil
}

// Tick publishes one frame. Errors are returned as-is; nothing is retried,
// the next frame supersedes this one.
func (e *Emitter) Tick(f frame.Frame) error {
	e.stats.AddFrame()

	hands, err := e.source.Hands(f)
	if err != nil {
		return fmt.Errorf("frame %d: %w", f.Sequence(), err)
	}
	e.logFrame(hands)

	e.out.Begin()
	if err := e.emitFrame(hands); err != nil {
		e.out.Discard()
		return fmt.Errorf("frame %d: %w", f.Sequence(), err)
	}
	if err := e.out.Flush(); err != nil {
		return fmt.Errorf("frame %d: %w", f.Sequence(), err)
	}

	e.stats.Report()
	return nil
}

// Quit sends /quit. A failure is logged and swallowed: the receiver may
// already be gone.
func (e *Emitter) Quit() {
	if err := e.out.Emit("/quit"); err != nil {
		e.logger.Warn().Err(err).Msg("disconnected from OSC server (unable to quit gracefully)")
		return
	}
	e.logger.Info().Msg("exited OSC listener")
}

func (e *Emitter) emitFrame(hands []HandSnapshot) error {
	current := make(map[int64][]int64, len(hands))
	for _, h := range hands {
		if err := e.emitHand(h); err != nil {
			return err
		}
		ids := make([]int64, len(h.Fingers))
		for i, f := range h.Fingers {
			ids[i] = f.ID
		}
		current[h.ID] = ids
	}

	if err := e.clearLostHands(current); err != nil {
		return err
	}
	e.previous = current
	return nil
}

// clearLostHands sends one zeroed message set for every hand sent on the
// previous frame but not on this one. The packet may be lost; it is not
// repeated.
func (e *Emitter) clearLostHands(current map[int64][]int64) error {
	for _, handID := range slices.Sorted(maps.Keys(e.previous)) {
		if _, ok := current[handID]; ok {
			continue
		}
		lost := HandSnapshot{ID: handID, Lost: true}
		for _, fingerID := range e.previous[handID] {
			lost.Fingers = append(lost.Fingers, FingerSnapshot{ID: fingerID, Lost: true})
		}
		if err := e.emitHand(lost); err != nil {
			return err
		}
		e.logger.Info().Int64("hand", handID).Msg("clear lost hand")
	}
	return nil
}

func (e *Emitter) emitHand(h HandSnapshot) error {
	base := fmt.Sprintf("/hand%d", h.ID)

	for _, f := range h.Fingers {
		prefix := fmt.Sprintf("%s/finger%d/", base, f.ID)
		if err := e.vectors.EmitVector(e.out, prefix, Position, f.Tip, f.Lost); err != nil {
			return err
		}
		if err := e.vectors.EmitVector(e.out, prefix, Direction, f.Direction, f.Lost); err != nil {
			return err
		}
		extended := int32(0)
		if f.Extended {
			extended = 1
		}
		if err := e.out.Emit(prefix+"extended", extended); err != nil {
			return err
		}
	}

	palm := base + "/palm/"
	if err := e.vectors.EmitVector(e.out, palm, Position, h.Palm, h.Lost); err != nil {
		return err
	}
	return e.vectors.EmitVector(e.out, palm, Direction, h.Normal, h.Lost)
}

func (e *Emitter) logFrame(hands []HandSnapshot) {
	ev := e.logger.Debug()
	if !ev.Enabled() {
		return
	}
	if len(hands) == 0 {
		ev.Msg("no hands detected")
		return
	}
	labels := make([]string, len(hands))
	for i, h := range hands {
		labels[i] = h.Label
	}
	ev.Msg(strings.Join(labels, " "))
}
