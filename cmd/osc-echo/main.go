// Command osc-echo is a test OSC server: it prints every message it receives
// as "address args...", one per line, with bundles flattened.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/rs/zerolog"

	"github.com/banshee-data/handosc/internal/monitoring"
	"github.com/banshee-data/handosc/internal/transport"
)

var (
	listen     = flag.String("listen", "127.0.0.1:8000", "UDP address to listen on")
	exitOnQuit = flag.Bool("exit-on-quit", false, "Exit after receiving /quit")
	verbose    = flag.Bool("verbose", false, "Log datagram sizes and senders")
)

// errQuit ends the loop after /quit.
var errQuit = errors.New("received /quit")

func main() {
	flag.Parse()
	logger := monitoring.NewLogger(os.Stderr, *verbose)

	addr, err := net.ResolveUDPAddr("udp", *listen)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve listen address")
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to listen")
	}
	defer conn.Close()
	logger.Info().Stringer("addr", conn.LocalAddr()).Msg("OSC echo server started")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, conn, os.Stdout, *exitOnQuit, logger); err != nil && !errors.Is(err, errQuit) {
		logger.Error().Err(err).Msg("echo server stopped")
	}
}

// packetConn is the part of *net.UDPConn serve reads from.
type packetConn interface {
	ReadFrom(b []byte) (int, net.Addr, error)
	SetReadDeadline(t time.Time) error
}

func serve(ctx context.Context, conn packetConn, out io.Writer, exitOnQuit bool, logger zerolog.Logger) error {
	buf := make([]byte, 65536)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond)); err != nil {
			return err
		}
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}
		logger.Debug().Int("bytes", n).Stringer("from", from).Msg("datagram")

		msgs, err := transport.Decode(buf[:n])
		if err != nil {
			logger.Warn().Err(err).Msg("dropping undecodable datagram")
			continue
		}
		for _, m := range msgs {
			fmt.Fprintln(out, format(m))
			if exitOnQuit && m.Address == "/quit" {
				return errQuit
			}
		}
	}
}

func format(m *osc.Message) string {
	var b strings.Builder
	b.WriteString(m.Address)
	for _, arg := range m.Arguments {
		fmt.Fprintf(&b, " %v", arg)
	}
	return b.String()
}
