// Package emitter turns each sensor frame into OSC messages.
//
// The message policy is a fixed chain selected once at startup:
//
//  1. HandSource: Stabilized (slot numbers from package tracking) or Raw
//     (sensor device ids, no lifecycle).
//  2. VectorEncoder: PerAxis (/tx /ty /tz) or MultiArg (/txyz).
//  3. Remap: optional per-axis [min,max] -> [-0.5,+0.5] for positions.
//  4. Dispatcher: Immediate (one datagram per message) or Bundled (one
//     bundle per frame).
//
// On top of the chain, the Emitter remembers which hands and fingers it sent
// on the previous frame and sends one zeroed message set for any hand that
// is no longer sent.
package emitter
