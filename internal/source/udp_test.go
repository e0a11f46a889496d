package source

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/handosc/internal/frame"
	"github.com/banshee-data/handosc/internal/timeutil"
)

// mockUDPSocket serves queued datagrams, then times out on every read.
type mockUDPSocket struct {
	mu        sync.Mutex
	packets   [][]byte
	readError error
	closed    bool
	deadlines int
}

func (m *mockUDPSocket) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, nil, net.ErrClosed
	}
	if m.readError != nil {
		err := m.readError
		m.readError = nil
		return 0, nil, err
	}
	if len(m.packets) == 0 {
		return 0, nil, &net.OpError{Op: "read", Net: "udp", Err: timeoutError{}}
	}
	n := copy(b, m.packets[0])
	m.packets = m.packets[1:]
	return n, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50000}, nil
}

func (m *mockUDPSocket) SetReadDeadline(time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadlines++
	return nil
}

func (m *mockUDPSocket) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockUDPSocket) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 7000}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func encodeFrame(t *testing.T, rec frame.FrameRecord) []byte {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	return data
}

func runUDP(ctx context.Context, t *testing.T, socket *mockUDPSocket, l *fakeListener) error {
	t.Helper()
	u := NewUDP(socket, timeutil.RealClock{}, zerolog.Nop())
	done := make(chan error, 1)
	go func() { done <- u.Run(ctx, l) }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("UDP source did not stop")
		return nil
	}
}

func TestUDPDeliversFrames(t *testing.T) {
	t.Parallel()
	g := steadySynthetic()
	first, second := g.Next(), g.Next()

	socket := &mockUDPSocket{
		readError: errors.New("connection refused"),
		packets: [][]byte{
			encodeFrame(t, first),
			[]byte("{not json"),
			encodeFrame(t, second),
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := &fakeListener{onTick: func(n int) {
		if n == 2 {
			cancel()
		}
	}}

	require.NoError(t, runUDP(ctx, t, socket, l))
	require.Len(t, l.frames, 2)
	assert.Equal(t, first, l.frames[0])
	assert.Equal(t, second, l.frames[1])
	assert.Equal(t, 1, l.inits)
	assert.Equal(t, 1, l.quits)
	assert.True(t, socket.closed)
	assert.Positive(t, socket.deadlines)
}

func TestUDPStopsOnListenerError(t *testing.T) {
	t.Parallel()
	boom := errors.New("send failed")
	socket := &mockUDPSocket{packets: [][]byte{encodeFrame(t, frame.FrameRecord{Seq: 1})}}
	l := &fakeListener{tickErr: boom}

	err := runUDP(context.Background(), t, socket, l)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, l.quits)
	assert.True(t, socket.closed)
}

func TestUDPClosedSocketEndsRun(t *testing.T) {
	t.Parallel()
	socket := &mockUDPSocket{closed: true}
	l := &fakeListener{}

	require.NoError(t, runUDP(context.Background(), t, socket, l))
	assert.Empty(t, l.frames)
	assert.Equal(t, 1, l.quits)
}

func TestListenUDPLoopback(t *testing.T) {
	t.Parallel()
	u, err := ListenUDP("127.0.0.1:0", timeutil.RealClock{}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	received := make(chan frame.Frame, 1)
	l := &fakeListener{onTick: func(int) { cancel() }}

	done := make(chan error, 1)
	go func() {
		err := u.Run(ctx, l)
		if len(l.frames) > 0 {
			received <- l.frames[0]
		}
		done <- err
	}()

	conn, err := net.Dial("udp", u.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	want := frame.FrameRecord{Seq: 42, HandParts: []frame.HandRecord{{ID: 3}}}
	payload := encodeFrame(t, want)

	// Resend until the reader picks one up.
	deadline := time.After(5 * time.Second)
	for {
		_, err := conn.Write(payload)
		require.NoError(t, err)
		select {
		case err := <-done:
			require.NoError(t, err)
			assert.Equal(t, want, <-received)
			return
		case <-deadline:
			t.Fatal("no frame received")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
