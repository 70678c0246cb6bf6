package model

// DefaultHistorySize is how many recent generations a History remembers.
const DefaultHistorySize = 5

// DefaultMaxPeriod is the longest cycle a History reports as stagnation.
const DefaultMaxPeriod = 3

// History keeps hashes of recent generations to detect still lifes and short
// oscillators.
type History struct {
	size      int
	maxPeriod int
	hashes    []string
}

// NewHistory creates a History remembering size generations and flagging
// cycles of up to maxPeriod generations.
func NewHistory(size, maxPeriod int) *History {
	size = max(1, size)
	return &History{
		size:      size,
		maxPeriod: min(max(1, maxPeriod), size),
	}
}

// Observe records g and reports whether it repeats one of the previous
// maxPeriod generations.
func (h *History) Observe(g *Grid) bool {
	hash := g.Hash()

	repeated := false
	for i := len(h.hashes) - 1; i >= 0 && i >= len(h.hashes)-h.maxPeriod; i-- {
		if h.hashes[i] == hash {
			repeated = true
			break
		}
	}

	h.hashes = append(h.hashes, hash)
	if len(h.hashes) > h.size {
		h.hashes = h.hashes[1:]
	}
	return repeated
}

// Reset forgets every recorded generation.
func (h *History) Reset() {
	h.hashes = nil
}

// Len returns the number of generations currently remembered.
func (h *History) Len() int {
	return len(h.hashes)
}
