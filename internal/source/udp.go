package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/banshee-data/handosc/internal/frame"
	"github.com/banshee-data/handosc/internal/timeutil"
)

// maxDatagram bounds one JSON frame.
const maxDatagram = 64 * 1024

const readTimeout = 100 * time.Millisecond

// UDPSocket is the subset of *net.UDPConn the UDP source reads from.
// This abstraction enables unit testing without real network connections.
type UDPSocket interface {
	ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error)
	SetReadDeadline(t time.Time) error
	Close() error
	LocalAddr() net.Addr
}

// UDP receives one JSON frame record per datagram from an external sensor
// bridge. Malformed datagrams are logged and dropped.
type UDP struct {
	socket UDPSocket
	clock  timeutil.Clock
	logger zerolog.Logger
}

// ListenUDP binds address and returns a source reading from it.
func ListenUDP(address string, clock timeutil.Clock, logger zerolog.Logger) (*UDP, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP address: %w", err)
	}
	return NewUDP(conn, clock, logger), nil
}

// NewUDP reads frames from socket. Run closes it.
func NewUDP(socket UDPSocket, clock timeutil.Clock, logger zerolog.Logger) *UDP {
	return &UDP{socket: socket, clock: clock, logger: logger}
}

// Addr is the bound local address.
func (u *UDP) Addr() net.Addr { return u.socket.LocalAddr() }

// Run reads datagrams until ctx is cancelled or the socket is closed.
func (u *UDP) Run(ctx context.Context, l Listener) error {
	defer u.socket.Close()
	u.logger.Info().Stringer("addr", u.socket.LocalAddr()).Msg("listening for frames")

	return session(ctx, l, func(ctx context.Context) error {
		buf := make([]byte, maxDatagram)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Deadline lets the loop observe cancellation.
			if err := u.socket.SetReadDeadline(u.clock.Now().Add(readTimeout)); err != nil {
				return fmt.Errorf("failed to set read deadline: %w", err)
			}

			n, addr, err := u.socket.ReadFromUDP(buf)
			if err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					continue
				}
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				u.logger.Warn().Err(err).Msg("UDP read error")
				continue
			}

			var rec frame.FrameRecord
			if err := json.Unmarshal(buf[:n], &rec); err != nil {
				u.logger.Warn().Err(err).Stringer("from", addr).Msg("dropping malformed frame")
				continue
			}
			if err := l.Tick(rec); err != nil {
				return err
			}
		}
	})
}
