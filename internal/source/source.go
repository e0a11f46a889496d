package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/banshee-data/handosc/internal/frame"
	"github.com/banshee-data/handosc/internal/timeutil"
)

// Listener receives the sensor lifecycle.
type Listener interface {
	Init() error
	Tick(f frame.Frame) error
	Quit()
}

// Source drives a Listener until the frames run out, the listener fails or
// ctx is cancelled. Cancellation is a clean stop and returns nil.
type Source interface {
	Run(ctx context.Context, l Listener) error
}

// session wraps deliver in the listener lifecycle. Quit is sent whenever
// Init succeeded.
func session(ctx context.Context, l Listener, deliver func(ctx context.Context) error) error {
	if err := l.Init(); err != nil {
		return err
	}
	defer l.Quit()

	err := deliver(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}

// Parse builds a source from a descriptor: "synthetic", "replay:<path>"
// or "udp:<host:port>".
func Parse(desc string, clock timeutil.Clock, logger zerolog.Logger) (Source, error) {
	kind, arg, _ := strings.Cut(desc, ":")
	switch kind {
	case "synthetic":
		return NewSynthetic(clock, clock.Now().UnixNano()), nil
	case "replay":
		if arg == "" {
			return nil, fmt.Errorf("replay source needs a path: %q", desc)
		}
		return &Replay{Path: arg, Clock: clock, Paced: true}, nil
	case "udp":
		if arg == "" {
			return nil, fmt.Errorf("udp source needs an address: %q", desc)
		}
		return ListenUDP(arg, clock, logger)
	default:
		return nil, fmt.Errorf("unknown frame source %q", desc)
	}
}
