package host

import (
	"encoding/binary"
	"math"
	"sync"
)

// Source renders interleaved stereo float32 frames and returns how many
// frames were written. [synth.Engine] satisfies it.
type Source interface {
	Render(dst []float32) int
}

// Stream adapts a Source to an io.Reader producing interleaved stereo
// float32 little-endian samples.
type Stream struct {
	mu  sync.Mutex
	src Source
	buf []float32
}

// NewStream returns a stream reading from src.
func NewStream(src Source) *Stream {
	return &Stream{src: src}
}

// Read fills p with whole stereo frames. Trailing bytes that do not make
// up a frame are left untouched and not counted. It never returns an error.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}

	need := frames * 2
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}

	buf := s.buf[:need]
	if s.src == nil {
		clear(buf)
	} else {
		s.src.Render(buf)
	}

	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}

	return need * 4, nil
}
