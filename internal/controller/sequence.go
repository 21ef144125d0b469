package controller

// Operation names a backend call whose responses overwrite shared display state.
type Operation string

const (
	OpSimulate Operation = "simulate"
	OpUpload   Operation = "upload"
	OpDownload Operation = "download"
)

// sequencer issues increasing request numbers per operation. A response is
// applied only when its number is still the latest issued for its operation.
type sequencer struct {
	issued map[Operation]uint64
}

func newSequencer() *sequencer {
	return &sequencer{issued: make(map[Operation]uint64)}
}

func (s *sequencer) next(op Operation) uint64 {
	s.issued[op]++
	return s.issued[op]
}

func (s *sequencer) latest(op Operation, n uint64) bool {
	return s.issued[op] == n
}
