// Package tracking turns raw, device-identified parts into stable,
// slot-numbered identities.
//
// Responsibilities: slot allocation (lowest free number, starting at 1),
// refresh on observation, soft deletion (zeroing) after MissThreshold ticks
// unseen, purge after PurgeThreshold ticks unseen, and ordered enumeration.
// Key types: Tracker, Identity, HandTracker, Hand, Finger.
//
// A Tracker is generic over the part kind. Hands and fingers are the two
// tiers: every hand identity owns its own finger Tracker, which is ticked in
// the same pass as the hand tier.
//
// Trackers are not safe for concurrent use; they are owned by the tick path.
package tracking
