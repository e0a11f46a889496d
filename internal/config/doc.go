// Package config holds the bridge configuration: target host and port,
// message policy switches, tracker thresholds, and optional per-axis
// remapping ranges.
package config
