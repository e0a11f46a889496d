package emitter

import (
	"fmt"

	"github.com/hypebeast/go-osc/osc"

	"github.com/banshee-data/handosc/internal/monitoring"
	"github.com/banshee-data/handosc/internal/timeutil"
	"github.com/banshee-data/handosc/internal/transport"
)

// Sink is the emit-named-message capability every policy writes to.
type Sink interface {
	Emit(address string, args ...interface{}) error
}

// Dispatcher decides how a frame's messages reach the transport. Begin and
// Flush bracket one frame; Emit outside a frame sends immediately.
type Dispatcher interface {
	Sink
	Begin()
	Flush() error
	Discard()
}

// Immediate sends every message as its own datagram.
type Immediate struct {
	sender transport.Sender
	stats  *monitoring.Stats
}

// NewImmediate creates an unbundled dispatcher.
func NewImmediate(sender transport.Sender, stats *monitoring.Stats) *Immediate {
	return &Immediate{sender: sender, stats: stats}
}

func (d *Immediate) Emit(address string, args ...interface{}) error {
	d.stats.AddMessages(1)
	if err := d.sender.Send(osc.NewMessage(address, args...)); err != nil {
		return err
	}
	d.stats.AddSend()
	return nil
}

func (d *Immediate) Begin()       {}
func (d *Immediate) Flush() error { return nil }
func (d *Immediate) Discard()     {}

// Bundled collects a frame's messages into one OSC bundle and sends it on
// Flush. An empty bundle is not sent.
type Bundled struct {
	sender transport.Sender
	clock  timeutil.Clock
	stats  *monitoring.Stats
	bundle *osc.Bundle
}

// NewBundled creates a per-frame bundling dispatcher.
func NewBundled(sender transport.Sender, clock timeutil.Clock, stats *monitoring.Stats) *Bundled {
	return &Bundled{sender: sender, clock: clock, stats: stats}
}

// Begin opens a new bundle, dropping any unflushed one.
func (d *Bundled) Begin() {
	d.bundle = osc.NewBundle(d.clock.Now())
}

func (d *Bundled) Emit(address string, args ...interface{}) error {
	msg := osc.NewMessage(address, args...)
	d.stats.AddMessages(1)
	if d.bundle == nil {
		if err := d.sender.Send(msg); err != nil {
			return err
		}
		d.stats.AddSend()
		return nil
	}
	if err := d.bundle.Append(msg); err != nil {
		return fmt.Errorf("failed to append %s to bundle: %w", address, err)
	}
	return nil
}

// Flush sends the open bundle, if it holds anything, and closes it.
func (d *Bundled) Flush() error {
	bundle := d.bundle
	d.bundle = nil
	if bundle == nil || len(bundle.Messages) == 0 {
		return nil
	}
	if err := d.sender.Send(bundle); err != nil {
		return err
	}
	d.stats.AddSend()
	return nil
}

// Discard closes the open bundle without sending it.
func (d *Bundled) Discard() {
	d.bundle = nil
}
