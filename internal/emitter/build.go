package emitter

import (
	"github.com/rs/zerolog"

	"github.com/banshee-data/handosc/internal/monitoring"
	"github.com/banshee-data/handosc/internal/timeutil"
	"github.com/banshee-data/handosc/internal/tracking"
	"github.com/banshee-data/handosc/internal/transport"
)

// Options selects the policy chain.
type Options struct {
	Stabilize bool // false publishes raw device ids
	MultiArg  bool
	Bundle    bool
	Ranges    Ranges
	Tracker   tracking.Config
}

// DefaultOptions matches the bridge defaults: stabilized, per-axis,
// bundled, no remapping.
func DefaultOptions() Options {
	return Options{Stabilize: true, Bundle: true, Tracker: tracking.DefaultConfig()}
}

// Build composes the chain in its fixed order: source, vector encoding,
// remapping, dispatch.
func Build(opts Options, sender transport.Sender, clock timeutil.Clock, stats *monitoring.Stats, logger zerolog.Logger) *Emitter {
	var source HandSource = Raw{}
	if opts.Stabilize {
		source = NewStabilized(tracking.NewHandTracker(opts.Tracker, logger))
	}

	var vectors VectorEncoder = PerAxis{}
	if opts.MultiArg {
		vectors = MultiArg{}
	}
	if !opts.Ranges.Empty() {
		vectors = Remap{Ranges: opts.Ranges, Next: vectors}
	}

	var out Dispatcher = NewImmediate(sender, stats)
	if opts.Bundle {
		out = NewBundled(sender, clock, stats)
	}

	logger.Debug().
		Bool("stabilize", opts.Stabilize).
		Bool("multi_arg", opts.MultiArg).
		Bool("bundle", opts.Bundle).
		Bool("remap", !opts.Ranges.Empty()).
		Msg("message policy")
	return New(source, vectors, out, stats, logger)
}
