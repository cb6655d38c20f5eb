// Package gesture debounces the discrete finger-count signal produced by hand
// tracking. Pose estimation flickers between readings from one frame to the
// next, so a code only counts once it has been seen on every sample of a
// short sliding window.
package gesture

// Gesture codes.
const (
	None         = 0
	TwoFingers   = 2
	ThreeFingers = 3
)

// Window is the number of identical consecutive samples required.
const Window = 5

// Normalize maps anything that is not a known code to None.
func Normalize(code int) int {
	switch code {
	case TwoFingers, ThreeFingers:
		return code
	default:
		return None
	}
}

type history struct {
	samples [Window]int
	next    int
	filled  int
}

func (h *history) push(code int) {
	h.samples[h.next] = code
	h.next = (h.next + 1) % Window
	if h.filled < Window {
		h.filled++
	}
}

func (h *history) allEqual(code int) bool {
	if h.filled < Window {
		return false
	}
	for _, s := range h.samples {
		if s != code {
			return false
		}
	}
	return true
}

// Stabilizer keeps one history per tracked key (usually a paddle side).
// The zero value is not usable; call NewStabilizer.
type Stabilizer[K comparable] struct {
	histories map[K]*history
}

// NewStabilizer returns a stabilizer with no history for any key.
func NewStabilizer[K comparable]() *Stabilizer[K] {
	return &Stabilizer[K]{histories: make(map[K]*history)}
}

// Push records a raw sample for key and returns the stable code: the sample
// itself when the last Window samples all match it, None otherwise.
func (s *Stabilizer[K]) Push(key K, code int) int {
	code = Normalize(code)
	h, ok := s.histories[key]
	if !ok {
		h = &history{}
		s.histories[key] = h
	}
	h.push(code)
	if h.allEqual(code) {
		return code
	}
	return None
}

// Reset forgets the history for key.
func (s *Stabilizer[K]) Reset(key K) {
	delete(s.histories, key)
}

// ResetAll forgets every history.
func (s *Stabilizer[K]) ResetAll() {
	clear(s.histories)
}
