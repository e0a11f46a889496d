package tracking

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/handosc/internal/frame"
)

func newFingerTier(cfg Config) *FingerTracker {
	return New[frame.Finger, struct{}]("finger", cfg, nil, zerolog.Nop())
}

func fingers(devices ...int64) []frame.Finger {
	out := make([]frame.Finger, len(devices))
	for i, d := range devices {
		out[i] = frame.FingerRecord{
			ID:       d,
			Tip:      r3.Vec{X: float64(d), Y: 1, Z: 2},
			Dir:      r3.Vec{X: 0, Y: 0, Z: -1},
			Extended: d%2 == 0,
		}
	}
	return out
}

func slotsOf[P frame.Part, C any](tr *Tracker[P, C]) []int {
	var out []int
	for _, id := range tr.Enumerate() {
		out = append(out, id.Slot())
	}
	return out
}

// lookup resolves a device that must not trip an invariant.
func lookup(t *testing.T, tr *FingerTracker, device int64) (*FingerIdentity, bool) {
	t.Helper()
	id, ok, err := tr.Lookup(frame.FingerRecord{ID: device})
	require.NoError(t, err)
	return id, ok
}

// tickN ticks the tracker n times with the same parts.
func tickN(t *testing.T, tr *FingerTracker, n int, parts []frame.Finger) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, tr.Tick(parts))
	}
}

func TestConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.MissThreshold)
	assert.Equal(t, 10, cfg.PurgeThreshold())
	assert.NoError(t, cfg.Validate())

	assert.Error(t, Config{MissThreshold: 0, PurgeMultiplier: 2}.Validate())
	assert.Error(t, Config{MissThreshold: 3, PurgeMultiplier: 0}.Validate())
}

func TestSlotsStartAtOneAndStayLowest(t *testing.T) {
	t.Parallel()
	tr := newFingerTier(DefaultConfig())

	require.NoError(t, tr.Tick(fingers(17, 3, 8)))
	assert.Equal(t, []int{1, 2, 3}, slotsOf(tr))

	id, ok := lookup(t, tr, 3)
	require.True(t, ok)
	assert.Equal(t, 2, id.Slot())
	assert.Equal(t, int64(3), id.DeviceID())
}

func TestSlotStability(t *testing.T) {
	t.Parallel()
	tr := newFingerTier(DefaultConfig())

	orders := [][]int64{{40, 41, 42}, {42, 40, 41}, {41, 42, 40}}
	want := map[int64]int{}
	for tick := 0; tick < 30; tick++ {
		require.NoError(t, tr.Tick(fingers(orders[tick%len(orders)]...)))
		for _, dev := range []int64{40, 41, 42} {
			id, ok := lookup(t, tr, dev)
			require.True(t, ok)
			if tick == 0 {
				want[dev] = id.Slot()
				continue
			}
			assert.Equal(t, want[dev], id.Slot(), "device %d on tick %d", dev, tick+1)
			assert.Equal(t, tr.Ticks(), id.LastSeen())
		}
	}
}

func TestStalenessTiming(t *testing.T) {
	t.Parallel()
	tr := newFingerTier(DefaultConfig())

	require.NoError(t, tr.Tick(fingers(100))) // tick 1
	tickN(t, tr, 4, nil)                       // ticks 2-5
	ids := tr.Enumerate()
	require.Len(t, ids, 1)
	assert.False(t, ids[0].Zeroed(), "unseen for 4 ticks must not be zeroed yet")

	require.NoError(t, tr.Tick(nil)) // tick 6
	assert.True(t, ids[0].Zeroed())
	assert.Equal(t, 0, tr.Active())
	assert.Equal(t, 1, tr.Len())

	tickN(t, tr, 4, nil) // ticks 7-10
	assert.Equal(t, []int{1}, slotsOf(tr), "zeroed identities stay enumerated until purge")

	require.NoError(t, tr.Tick(nil)) // tick 11
	assert.Empty(t, tr.Enumerate())
	_, ok := lookup(t, tr, 100)
	assert.False(t, ok)
}

func TestRefreshClearsZeroed(t *testing.T) {
	t.Parallel()
	tr := newFingerTier(DefaultConfig())

	require.NoError(t, tr.Tick(fingers(5)))
	tickN(t, tr, 5, nil)
	id, ok := lookup(t, tr, 5)
	require.True(t, ok)
	require.True(t, id.Zeroed())

	require.NoError(t, tr.Tick(fingers(5)))
	assert.False(t, id.Zeroed())
	assert.Equal(t, 7, id.LastSeen())
	assert.Equal(t, 1, id.Slot())
}

func TestSlotReuseAfterPurge(t *testing.T) {
	t.Parallel()
	tr := newFingerTier(DefaultConfig())

	require.NoError(t, tr.Tick(fingers(1, 2))) // A=slot1, B=slot2
	for tick := 2; tick <= 11; tick++ {
		require.NoError(t, tr.Tick(fingers(2)))
	}
	assert.Equal(t, []int{2}, slotsOf(tr), "A purged on tick 11")

	require.NoError(t, tr.Tick(fingers(2, 3))) // tick 12, C appears
	c, ok := lookup(t, tr, 3)
	require.True(t, ok)
	assert.Equal(t, 1, c.Slot())
	assert.Equal(t, []int{1, 2}, slotsOf(tr))
}

func TestZeroedSlotIsReclaimed(t *testing.T) {
	t.Parallel()
	tr := newFingerTier(DefaultConfig())

	require.NoError(t, tr.Tick(fingers(10)))
	tickN(t, tr, 4, nil)
	require.NoError(t, tr.Tick(fingers(20))) // tick 6: 10 zeroed, then 20 registers

	d, ok := lookup(t, tr, 20)
	require.True(t, ok)
	assert.Equal(t, 1, d.Slot(), "newcomer takes the zeroed slot")
	_, ok = lookup(t, tr, 10)
	assert.False(t, ok, "evicted identity is unbound")

	require.NoError(t, tr.Tick(fingers(20, 10)))
	a, ok := lookup(t, tr, 10)
	require.True(t, ok)
	assert.Equal(t, 2, a.Slot())
}

func TestReappearingZeroedKeepsSlot(t *testing.T) {
	t.Parallel()
	tr := newFingerTier(DefaultConfig())

	require.NoError(t, tr.Tick(fingers(10)))
	tickN(t, tr, 5, nil)
	id, _ := lookup(t, tr, 10)
	require.True(t, id.Zeroed())

	// Newcomer listed first must not evict the returning part.
	require.NoError(t, tr.Tick(fingers(30, 10)))
	back, ok := lookup(t, tr, 10)
	require.True(t, ok)
	assert.Equal(t, 1, back.Slot())
	newcomer, ok := lookup(t, tr, 30)
	require.True(t, ok)
	assert.Equal(t, 2, newcomer.Slot())
}

func TestEnumerateOrderWithGaps(t *testing.T) {
	t.Parallel()
	tr := newFingerTier(Config{MissThreshold: 1, PurgeMultiplier: 2})

	require.NoError(t, tr.Tick(fingers(1, 2, 3, 4)))
	require.NoError(t, tr.Tick(fingers(1, 3, 4)))
	require.NoError(t, tr.Tick(fingers(4, 3, 1)))
	assert.Equal(t, []int{1, 3, 4}, slotsOf(tr))

	prev := 0
	for _, id := range tr.Enumerate() {
		assert.Greater(t, id.Slot(), prev)
		prev = id.Slot()
	}
}

func TestDuplicateDeviceInFrame(t *testing.T) {
	t.Parallel()
	tr := newFingerTier(DefaultConfig())

	require.NoError(t, tr.Tick(fingers(9, 9)))
	assert.Equal(t, []int{1}, slotsOf(tr))
}

func TestPurgeMultiplierOne(t *testing.T) {
	t.Parallel()
	tr := newFingerTier(Config{MissThreshold: 2, PurgeMultiplier: 1})

	require.NoError(t, tr.Tick(fingers(1)))
	require.NoError(t, tr.Tick(nil))
	require.Len(t, tr.Enumerate(), 1)
	assert.False(t, tr.Enumerate()[0].Zeroed())

	require.NoError(t, tr.Tick(nil))
	assert.Empty(t, tr.Enumerate(), "purge wins over zeroing on the same tick")
}

func TestInvariantViolation(t *testing.T) {
	t.Parallel()

	t.Run("dangling device mapping", func(t *testing.T) {
		t.Parallel()
		tr := newFingerTier(DefaultConfig())
		tr.byDevice[77] = 4

		err := tr.Tick(fingers(77))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvariantViolation)
	})

	t.Run("resolve unregistered part", func(t *testing.T) {
		t.Parallel()
		tr := newFingerTier(DefaultConfig())
		require.NoError(t, tr.Tick(fingers(1)))

		_, err := tr.Resolve(frame.FingerRecord{ID: 2})
		assert.ErrorIs(t, err, ErrInvariantViolation)

		id, err := tr.Resolve(frame.FingerRecord{ID: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, id.Slot())
	})

	t.Run("lookup reports dangling mapping", func(t *testing.T) {
		t.Parallel()
		tr := newFingerTier(DefaultConfig())
		tr.byDevice[5] = 1
		id, ok, err := tr.Lookup(frame.FingerRecord{ID: 5})
		assert.ErrorIs(t, err, ErrInvariantViolation)
		assert.False(t, ok)
		assert.Nil(t, id)
	})

	t.Run("lookup unknown device", func(t *testing.T) {
		t.Parallel()
		tr := newFingerTier(DefaultConfig())
		id, ok, err := tr.Lookup(frame.FingerRecord{ID: 5})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, id)
	})
}
