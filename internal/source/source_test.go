package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/handosc/internal/frame"
	"github.com/banshee-data/handosc/internal/timeutil"
)

// fakeListener records the lifecycle it is driven through.
type fakeListener struct {
	inits, quits int
	frames       []frame.Frame
	initErr      error
	tickErr      error
	// onTick runs after a frame is recorded, with the frame count so far.
	onTick func(n int)
}

func (f *fakeListener) Init() error {
	f.inits++
	return f.initErr
}

func (f *fakeListener) Tick(fr frame.Frame) error {
	f.frames = append(f.frames, fr)
	if f.onTick != nil {
		f.onTick(len(f.frames))
	}
	return f.tickErr
}

func (f *fakeListener) Quit() { f.quits++ }

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("quit follows a successful init", func(t *testing.T) {
		t.Parallel()
		l := &fakeListener{}
		err := session(context.Background(), l, func(context.Context) error { return nil })
		require.NoError(t, err)
		assert.Equal(t, 1, l.inits)
		assert.Equal(t, 1, l.quits)
	})

	t.Run("failed init skips delivery and quit", func(t *testing.T) {
		t.Parallel()
		l := &fakeListener{initErr: errors.New("no receiver")}
		called := false
		err := session(context.Background(), l, func(context.Context) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.False(t, called)
		assert.Equal(t, 0, l.quits)
	})

	t.Run("cancellation is a clean stop", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		l := &fakeListener{}
		err := session(ctx, l, func(ctx context.Context) error { return ctx.Err() })
		require.NoError(t, err)
		assert.Equal(t, 1, l.quits)
	})

	t.Run("delivery errors are returned", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		l := &fakeListener{}
		err := session(context.Background(), l, func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, l.quits)
	})
}

func TestParse(t *testing.T) {
	t.Parallel()
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	src, err := Parse("synthetic", clock, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Synthetic{}, src)

	src, err = Parse("replay:/tmp/session.jsonl", clock, zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &Replay{}, src)
	assert.Equal(t, "/tmp/session.jsonl", src.(*Replay).Path)
	assert.True(t, src.(*Replay).Paced)

	src, err = Parse("udp:127.0.0.1:0", clock, zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &UDP{}, src)
	require.NoError(t, src.(*UDP).socket.Close())

	for _, bad := range []string{"", "replay", "replay:", "udp:", "leap", "serial:/dev/tty0"} {
		_, err := Parse(bad, clock, zerolog.Nop())
		assert.Error(t, err, bad)
	}
}
