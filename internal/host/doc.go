// Package host connects an engine to the outside world: an io.Reader
// stream for audio backends, an oto player, a raw terminal keyboard and a
// MIDI message decoder.
package host
