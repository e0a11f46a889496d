// Package bridge wires a frame source, the emitter chain and an OSC sender
// into the running bridge.
package bridge

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/banshee-data/handosc/internal/config"
	"github.com/banshee-data/handosc/internal/emitter"
	"github.com/banshee-data/handosc/internal/monitoring"
	"github.com/banshee-data/handosc/internal/source"
	"github.com/banshee-data/handosc/internal/timeutil"
	"github.com/banshee-data/handosc/internal/tracking"
	"github.com/banshee-data/handosc/internal/transport"
)

// OptionsFromConfig maps the configuration onto an emitter policy chain.
func OptionsFromConfig(cfg *config.Config) emitter.Options {
	opts := emitter.Options{
		Stabilize: !cfg.GetDumb(),
		MultiArg:  cfg.GetMultiArg(),
		Bundle:    !cfg.GetUnbundled(),
		Tracker: tracking.Config{
			MissThreshold:   cfg.GetMissThreshold(),
			PurgeMultiplier: cfg.GetPurgeMultiplier(),
		},
	}
	for i, b := range cfg.GetRanges() {
		if b != nil {
			opts.Ranges[i] = &emitter.Range{Min: b.Min, Max: b.Max}
		}
	}
	return opts
}

// Bridge publishes the frames of one source over one sender.
type Bridge struct {
	emitter *emitter.Emitter
	stats   *monitoring.Stats
	clock   timeutil.Clock
	logger  zerolog.Logger
}

// New builds the emitter chain described by cfg on top of sender.
func New(cfg *config.Config, sender transport.Sender, clock timeutil.Clock, logger zerolog.Logger) *Bridge {
	stats := monitoring.NewStats(clock, cfg.GetStatsInterval(), logger)
	return &Bridge{
		emitter: emitter.Build(OptionsFromConfig(cfg), sender, clock, stats, logger),
		stats:   stats,
		clock:   clock,
		logger:  logger,
	}
}

// Run drives the emitter from src until it ends. When record is non-nil
// every raw frame is also written to it.
func (b *Bridge) Run(ctx context.Context, src source.Source, record io.Writer) error {
	var l source.Listener = b.emitter
	if record != nil {
		l = source.NewRecorder(record, l, b.clock, b.logger)
	}

	err := src.Run(ctx, l)
	total := b.stats.Snapshot()
	b.logger.Info().
		Uint64("frames", total.Frames).
		Uint64("messages", total.Messages).
		Uint64("sends", total.Sends).
		Msg("bridge stopped")
	return err
}

// Stats exposes the running totals.
func (b *Bridge) Stats() monitoring.Snapshot {
	return b.stats.Snapshot()
}
