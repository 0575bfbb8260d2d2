package dice

import (
	"math/rand"
	"sync"
)

// Source is the randomness provider for dice rolls.
type Source interface {
	// Intn returns a non-negative random int in [0, n). n > 0.
	Intn(n int) int
}

// NewSeededSource returns a deterministic Source safe for concurrent use.
// The same seed always yields the same sequence of faces.
func NewSeededSource(seed int64) Source {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// SequenceSource replays fixed faces (1-based) in order, wrapping around.
// It lets callers reproduce a known roll sequence.
type SequenceSource struct {
	mu    sync.Mutex
	faces []int
	next  int
}

// NewSequenceSource returns a Source that yields faces in order.
func NewSequenceSource(faces ...int) *SequenceSource {
	return &SequenceSource{faces: append([]int(nil), faces...)}
}

// Intn returns the next configured face minus one, clamped into [0, n).
func (s *SequenceSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.faces) == 0 {
		return 0
	}
	face := s.faces[s.next%len(s.faces)]
	s.next++
	switch {
	case face < 1:
		return 0
	case face > n:
		return n - 1
	default:
		return face - 1
	}
}

// Face draws one face in [1, sides].
func Face(src Source, sides int) int {
	return src.Intn(sides) + 1
}
