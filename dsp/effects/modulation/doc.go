// Package modulation provides the bucket-brigade chorus: one or two
// sinusoidally modulated delay lines producing a stereo pair from a mono
// input, with bypass, single-line and dual-line modes.
package modulation
