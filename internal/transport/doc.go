// Package transport sends OSC packets to a network listener.
//
// Delivery is connectionless and best-effort: packets are encoded with
// go-osc and written to an unconnected UDP socket, so a missing receiver
// does not surface as an error on later sends. There is no retry and no
// acknowledgement.
package transport
