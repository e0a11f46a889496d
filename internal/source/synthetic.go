package source

import (
	"context"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/handosc/internal/frame"
	"github.com/banshee-data/handosc/internal/timeutil"
)

// Synthetic generates hands moving on circular paths above the sensor.
// Fingers drop out and come back under a new device id, and whole hands
// vanish for a while and return with fresh ids, which is what a real sensor
// does when tracking is lost.
type Synthetic struct {
	Clock timeutil.Clock

	// Configuration
	FrameRate   float64 // frames per second
	HandCount   int
	FingerCount int
	Radius      float64 // millimetres, radius of the palm path
	Height      float64 // millimetres above the sensor
	Dropout     float64 // per finger per frame probability of losing a finger
	DropFrames  int     // frames a dropped finger stays away
	Vanish      float64 // per hand per frame probability of losing a hand
	VanishGap   int     // frames a lost hand stays away
	Frames      uint64  // stop after this many frames, 0 runs until cancelled

	// Internal state
	rng    *rand.Rand
	seq    uint64
	nextID int64
	hands  []synthHand
}

type synthHand struct {
	id      int64
	phase   float64
	absent  int
	fingers []synthFinger
}

type synthFinger struct {
	id     int64
	absent int
}

// NewSynthetic creates a generator with two five-fingered hands at 60 fps.
func NewSynthetic(clock timeutil.Clock, seed int64) *Synthetic {
	return &Synthetic{
		Clock:       clock,
		FrameRate:   60,
		HandCount:   2,
		FingerCount: 5,
		Radius:      120,
		Height:      200,
		Dropout:     0.01,
		DropFrames:  3,
		Vanish:      0.002,
		VanishGap:   30,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (g *Synthetic) id() int64 {
	g.nextID++
	return g.nextID
}

func (g *Synthetic) spawn(h *synthHand) {
	h.id = g.id()
	h.absent = 0
	h.fingers = make([]synthFinger, g.FingerCount)
	for i := range h.fingers {
		h.fingers[i] = synthFinger{id: g.id()}
	}
}

// Next advances the simulation by one frame.
func (g *Synthetic) Next() frame.FrameRecord {
	if g.hands == nil {
		g.hands = make([]synthHand, g.HandCount)
		for i := range g.hands {
			g.hands[i].phase = float64(i) * math.Pi
			g.spawn(&g.hands[i])
		}
	}

	g.seq++
	rec := frame.FrameRecord{Seq: g.seq}
	step := 2 * math.Pi / (4 * g.FrameRate) // one lap every four seconds

	for i := range g.hands {
		h := &g.hands[i]
		h.phase += step

		if h.absent > 0 {
			h.absent--
			if h.absent > 0 {
				continue
			}
			g.spawn(h)
		} else if g.rng.Float64() < g.Vanish {
			h.absent = g.VanishGap
			continue
		}
		rec.HandParts = append(rec.HandParts, g.hand(h, i))
	}
	return rec
}

func (g *Synthetic) hand(h *synthHand, index int) frame.HandRecord {
	side := float64(2*index-1) * g.Radius
	palm := r3.Vec{
		X: side + g.Radius*math.Cos(h.phase),
		Y: g.Height + 0.25*g.Radius*math.Sin(2*h.phase),
		Z: g.Radius * math.Sin(h.phase),
	}
	rec := frame.HandRecord{
		ID:     h.id,
		Palm:   palm,
		Normal: r3.Vec{Y: -1},
	}

	for j := range h.fingers {
		f := &h.fingers[j]
		if f.absent > 0 {
			f.absent--
			if f.absent > 0 {
				continue
			}
			f.id = g.id()
		} else if g.rng.Float64() < g.Dropout {
			f.absent = g.DropFrames
			continue
		}

		spread := (float64(j) - float64(len(h.fingers)-1)/2) * 0.3
		dir := r3.Unit(r3.Vec{X: math.Sin(spread), Z: -math.Cos(spread)})
		rec.FingerParts = append(rec.FingerParts, frame.FingerRecord{
			ID:       f.id,
			Tip:      r3.Add(palm, r3.Scale(80, dir)),
			Dir:      dir,
			Extended: math.Sin(h.phase+float64(j)) > -0.5,
		})
	}
	return rec
}

// Run delivers generated frames at FrameRate.
func (g *Synthetic) Run(ctx context.Context, l Listener) error {
	return session(ctx, l, func(ctx context.Context) error {
		ticker := g.Clock.NewTicker(time.Duration(float64(time.Second) / g.FrameRate))
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C():
				if err := l.Tick(g.Next()); err != nil {
					return err
				}
				if g.Frames > 0 && g.seq >= g.Frames {
					return nil
				}
			}
		}
	})
}
