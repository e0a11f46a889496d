package transport

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/hypebeast/go-osc/osc"
)

// ErrMalformed is returned for datagrams that are not OSC packets.
var ErrMalformed = errors.New("malformed OSC packet")

var bundleTag = []byte("#bundle")

// Decode parses one datagram into its messages, flattening bundles.
func Decode(data []byte) ([]*osc.Message, error) {
	if len(data) == 0 || (data[0] != '/' && !bytes.HasPrefix(data, bundleTag)) {
		return nil, fmt.Errorf("%w: %d bytes without an address or bundle tag", ErrMalformed, len(data))
	}
	packet, err := osc.ParsePacket(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if packet == nil {
		return nil, fmt.Errorf("%w: nothing decoded from %d bytes", ErrMalformed, len(data))
	}
	return Flatten(packet), nil
}

// Flatten returns the messages of a packet in order, descending into
// nested bundles.
func Flatten(packet osc.Packet) []*osc.Message {
	switch p := packet.(type) {
	case *osc.Message:
		return []*osc.Message{p}
	case *osc.Bundle:
		out := append([]*osc.Message(nil), p.Messages...)
		for _, b := range p.Bundles {
			out = append(out, Flatten(b)...)
		}
		return out
	}
	return nil
}
