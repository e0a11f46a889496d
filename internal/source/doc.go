// Package source delivers hand-tracking frames to a Listener.
//
// A Source owns the listener lifecycle: Init once, Tick per frame, Quit on
// the way out. Sources provided here generate frames synthetically, replay
// a JSON-lines recording, or receive frames as JSON datagrams from an
// external sensor bridge.
package source
