package chunker

import "errors"

var (
	ErrInvalidChunkSize = errors.New("chunk size must be greater than zero")
	ErrInvalidOverlap   = errors.New("overlap must be non-negative and smaller than chunk size")
)

// Splitter cuts raw text into overlapping windows of at most chunkSize
// characters, preferring to break on paragraph, line, sentence and word
// boundaries, in that order. Splitting is deterministic: the same input and
// parameters always produce the same chunks, which makes document
// reprocessing idempotent.
type Splitter struct {
	chunkSize int
	overlap   int
}

// separators ordered from the most to the least desirable break point. The
// empty string means a hard cut at the window edge.
var separators = []string{"\n\n", "\n", ". ", " "}

func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, ErrInvalidOverlap
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split returns the ordered chunk texts for the given input. Empty input
// yields no chunks and no error. Adjacent chunks share exactly s.overlap
// characters; every chunk is at most chunkSize characters long, except the
// final one, which may run up to chunkSize+overlap to avoid emitting a
// trailing fragment shorter than the overlap itself.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for {
		remaining := len(runes) - start
		if remaining <= s.chunkSize+s.overlap {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}

		end := s.boundary(runes, start)
		chunks = append(chunks, string(runes[start:end]))
		start = end - s.overlap
	}
}

// boundary picks the cut position for the window starting at start. It takes
// the latest occurrence of the finest separator found in the second half of
// the window, so a chunk never ends up shorter than chunkSize/2 just because
// a paragraph break appeared early. Falls back to a hard cut.
func (s *Splitter) boundary(runes []rune, start int) int {
	limit := start + s.chunkSize
	minEnd := start + s.chunkSize/2
	if minEnd <= start+s.overlap {
		minEnd = start + s.overlap + 1
	}

	for _, sep := range separators {
		if idx := lastIndexWithin(runes, []rune(sep), minEnd, limit); idx >= 0 {
			return idx + len([]rune(sep))
		}
	}
	return limit
}

// lastIndexWithin finds the highest index in [lo, hi) at which sep occurs and
// still fits entirely before hi. Returns -1 when absent.
func lastIndexWithin(runes, sep []rune, lo, hi int) int {
	for i := hi - len(sep); i >= lo; i-- {
		if i < 0 {
			break
		}
		match := true
		for j := range sep {
			if runes[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
