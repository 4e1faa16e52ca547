// Package timeline tracks where each downloaded item starts inside a
// concatenated playlist and writes the playlist's combined HLS manifest.
//
// Lengths and offsets are decimal strings handled with arbitrary-precision
// arithmetic, so the start of item n is exactly the sum of the lengths
// before it no matter how long the playlist grows. Offsets are re-derived
// from scratch whenever the order changes.
package timeline
