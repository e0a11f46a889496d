package transport

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/hypebeast/go-osc/osc"
)

// ErrSend wraps every failure to encode or write a packet.
var ErrSend = errors.New("osc send failed")

// Sender is the single capability the emitter needs from a transport.
type Sender interface {
	Send(packet osc.Packet) error
}

// PacketWriter abstracts the UDP socket so the client can be tested without
// a network.
type PacketWriter interface {
	WriteTo(b []byte, addr net.Addr) (int, error)
	Close() error
}

// Client sends OSC packets to one host and port.
type Client struct {
	conn    PacketWriter
	addr    net.Addr
	address string
	sent    uint64
}

// Dial resolves host:port and opens an unconnected UDP socket for sending.
func Dial(host string, port int) (*Client, error) {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	udpAddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve OSC address %s: %w", address, err)
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open UDP socket: %w", err)
	}
	return NewClient(conn, udpAddr), nil
}

// NewClient wraps an existing socket.
func NewClient(conn PacketWriter, addr net.Addr) *Client {
	return &Client{conn: conn, addr: addr, address: addr.String()}
}

// Send encodes packet and writes it as one datagram.
func (c *Client) Send(packet osc.Packet) error {
	data, err := packet.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrSend, err)
	}
	if _, err := c.conn.WriteTo(data, c.addr); err != nil {
		return fmt.Errorf("%w: write to %s: %v", ErrSend, c.address, err)
	}
	c.sent++
	return nil
}

// Sent returns the number of datagrams written.
func (c *Client) Sent() uint64 {
	return c.sent
}

// Close closes the socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) String() string {
	return c.address
}
