package transport

import (
	"github.com/hypebeast/go-osc/osc"
)

// MemorySender records packets instead of sending them. It is used by tests
// and dry runs.
type MemorySender struct {
	// Packets holds every packet passed to Send, in order.
	Packets []osc.Packet
	// Err, if set, is returned by Send and the packet is not recorded.
	Err error
}

// Send records packet or returns Err.
func (m *MemorySender) Send(packet osc.Packet) error {
	if m.Err != nil {
		return m.Err
	}
	m.Packets = append(m.Packets, packet)
	return nil
}

// Messages returns every recorded message with bundles flattened.
func (m *MemorySender) Messages() []*osc.Message {
	var out []*osc.Message
	for _, p := range m.Packets {
		out = append(out, Flatten(p)...)
	}
	return out
}

// Reset discards the recorded packets.
func (m *MemorySender) Reset() {
	m.Packets = nil
}
