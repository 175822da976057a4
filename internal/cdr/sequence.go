package cdr

import "sync/atomic"

// Sequence hands out record identifiers. Safe for concurrent use.
// Values are never reused for the lifetime of the Sequence.
type Sequence struct {
	last atomic.Int64
}

// NewSequence returns a Sequence whose first Next() is base+1.
func NewSequence(base int64) *Sequence {
	s := &Sequence{}
	s.last.Store(base)
	return s
}

// Next advances the sequence by one and returns the new value.
func (s *Sequence) Next() int64 { return s.last.Add(1) }

// Last returns the most recently issued value (base if none).
func (s *Sequence) Last() int64 { return s.last.Load() }

// Reset rewinds the sequence. Intended for tests.
func (s *Sequence) Reset(base int64) { s.last.Store(base) }
