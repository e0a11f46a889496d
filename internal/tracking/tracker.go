package tracking

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/rs/zerolog"

	"github.com/banshee-data/handosc/internal/frame"
)

// ErrInvariantViolation reports an internal inconsistency between the slot
// and device maps. It indicates a defect, never bad input.
var ErrInvariantViolation = errors.New("tracker invariant violation")

// Config holds the staleness thresholds shared by both tiers.
type Config struct {
	MissThreshold   int // Consecutive unseen ticks before an identity is zeroed
	PurgeMultiplier int // PurgeThreshold = MissThreshold * PurgeMultiplier
}

// DefaultConfig returns production-default thresholds.
func DefaultConfig() Config {
	return Config{MissThreshold: 5, PurgeMultiplier: 2}
}

// PurgeThreshold is the number of unseen ticks after which an identity is
// removed and its slot freed.
func (c Config) PurgeThreshold() int {
	return c.MissThreshold * c.PurgeMultiplier
}

// Validate checks the thresholds are usable.
func (c Config) Validate() error {
	if c.MissThreshold < 1 {
		return fmt.Errorf("miss threshold must be at least 1, got %d", c.MissThreshold)
	}
	if c.PurgeMultiplier < 1 {
		return fmt.Errorf("purge multiplier must be at least 1, got %d", c.PurgeMultiplier)
	}
	return nil
}

// Identity is the stable lineage of a raw part. C is per-identity state
// owned by the identity (the finger tracker for hands).
type Identity[P frame.Part, C any] struct {
	slot     int
	device   int64
	raw      P
	zeroed   bool
	lastSeen int
	child    C
}

// Slot is the stable public number of the identity.
func (id *Identity[P, C]) Slot() int { return id.slot }

// DeviceID is the sensor identifier the identity is currently bound to.
func (id *Identity[P, C]) DeviceID() int64 { return id.device }

// Raw returns the most recently observed raw part.
func (id *Identity[P, C]) Raw() P { return id.raw }

// Zeroed reports whether the part has been unseen for at least
// MissThreshold ticks.
func (id *Identity[P, C]) Zeroed() bool { return id.zeroed }

// LastSeen is the tracker tick on which the part was last observed.
func (id *Identity[P, C]) LastSeen() int { return id.lastSeen }

// Child returns the identity-owned state.
func (id *Identity[P, C]) Child() C { return id.child }

// Tracker assigns stable slots to one tier of parts.
type Tracker[P frame.Part, C any] struct {
	tier     string
	config   Config
	newChild func() C
	logger   zerolog.Logger

	slots    map[int]*Identity[P, C]
	byDevice map[int64]int
	ticks    int
}

// New creates a Tracker for the named tier. newChild, when non-nil, builds
// the state owned by each new identity.
func New[P frame.Part, C any](tier string, config Config, newChild func() C, logger zerolog.Logger) *Tracker[P, C] {
	return &Tracker[P, C]{
		tier:     tier,
		config:   config,
		newChild: newChild,
		logger:   logger,
		slots:    make(map[int]*Identity[P, C]),
		byDevice: make(map[int64]int),
	}
}

// Tick advances the tracker by one frame. Existing identities are aged
// first, then every part in parts is refreshed or registered.
func (t *Tracker[P, C]) Tick(parts []P) error {
	t.ticks++

	purgeAt := t.config.PurgeThreshold()
	for _, slot := range t.sortedSlots() {
		id := t.slots[slot]
		age := t.ticks - id.lastSeen
		switch {
		case age >= purgeAt:
			t.logger.Debug().Str("tier", t.tier).Int("slot", slot).Int64("device", id.device).Msg("drop lost part")
			t.remove(id)
		case age >= t.config.MissThreshold && !id.zeroed:
			t.logger.Debug().Str("tier", t.tier).Int("slot", slot).Int64("device", id.device).Msg("zeroing lost part")
			id.zeroed = true
		}
	}

	// Known parts are refreshed before new ones claim slots, so a zeroed
	// identity that reappears this tick is not evicted by a newcomer.
	var fresh []P
	for _, part := range parts {
		id, err := t.find(part.DeviceID())
		if err != nil {
			return err
		}
		if id == nil {
			fresh = append(fresh, part)
			continue
		}
		t.refresh(id, part)
	}
	for _, part := range fresh {
		id, err := t.find(part.DeviceID())
		if err != nil {
			return err
		}
		if id != nil {
			// Same device reported twice in one frame.
			t.refresh(id, part)
			continue
		}
		t.register(part)
	}
	return nil
}

// Lookup resolves a raw part to its identity through the device map. ok is
// false for an unknown device; a dangling mapping is reported as an error
// wrapping ErrInvariantViolation.
func (t *Tracker[P, C]) Lookup(part P) (id *Identity[P, C], ok bool, err error) {
	id, err = t.find(part.DeviceID())
	if err != nil {
		return nil, false, err
	}
	return id, id != nil, nil
}

// Resolve is Lookup for a part that must be registered, such as one present
// in the frame just ticked. A miss is an invariant violation.
func (t *Tracker[P, C]) Resolve(part P) (*Identity[P, C], error) {
	id, err := t.find(part.DeviceID())
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, fmt.Errorf("%w: %s device %d has no identity after tick %d",
			ErrInvariantViolation, t.tier, part.DeviceID(), t.ticks)
	}
	return id, nil
}

// Enumerate returns the live identities in ascending slot order. Zeroed
// identities are included; purged ones are gone.
func (t *Tracker[P, C]) Enumerate() []*Identity[P, C] {
	out := make([]*Identity[P, C], 0, len(t.slots))
	for _, slot := range t.sortedSlots() {
		out = append(out, t.slots[slot])
	}
	return out
}

// Len returns the number of enumerated identities.
func (t *Tracker[P, C]) Len() int {
	return len(t.slots)
}

// Active returns the number of identities that are not zeroed.
func (t *Tracker[P, C]) Active() int {
	n := 0
	for _, id := range t.slots {
		if !id.zeroed {
			n++
		}
	}
	return n
}

// Ticks returns the number of ticks processed.
func (t *Tracker[P, C]) Ticks() int {
	return t.ticks
}

// claimSlot returns the lowest slot that is free or held by a zeroed
// identity, evicting that identity.
func (t *Tracker[P, C]) claimSlot() int {
	for slot := 1; ; slot++ {
		id, ok := t.slots[slot]
		if !ok {
			return slot
		}
		if id.zeroed {
			t.logger.Debug().Str("tier", t.tier).Int("slot", slot).Int64("device", id.device).Msg("reclaiming zeroed slot")
			t.remove(id)
			return slot
		}
	}
}

func (t *Tracker[P, C]) register(part P) *Identity[P, C] {
	id := &Identity[P, C]{
		slot:     t.claimSlot(),
		device:   part.DeviceID(),
		raw:      part,
		lastSeen: t.ticks,
	}
	if t.newChild != nil {
		id.child = t.newChild()
	}
	t.slots[id.slot] = id
	t.byDevice[id.device] = id.slot
	return id
}

func (t *Tracker[P, C]) refresh(id *Identity[P, C], part P) {
	id.zeroed = false
	id.lastSeen = t.ticks
	id.raw = part
}

func (t *Tracker[P, C]) remove(id *Identity[P, C]) {
	delete(t.slots, id.slot)
	if t.byDevice[id.device] == id.slot {
		delete(t.byDevice, id.device)
	}
}

// find returns nil without error for an unknown device.
func (t *Tracker[P, C]) find(device int64) (*Identity[P, C], error) {
	slot, ok := t.byDevice[device]
	if !ok {
		return nil, nil
	}
	id, ok := t.slots[slot]
	if !ok || id.device != device {
		return nil, fmt.Errorf("%w: %s device %d maps to slot %d with no matching identity",
			ErrInvariantViolation, t.tier, device, slot)
	}
	return id, nil
}

func (t *Tracker[P, C]) sortedSlots() []int {
	return slices.Sorted(maps.Keys(t.slots))
}
