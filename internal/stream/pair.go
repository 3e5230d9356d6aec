// Package stream supplies snapshot pairs to the estimators: pair and source
// types, closed-form synthetic systems for generating test streams, and a
// CSV codec for recorded ones.
package stream

import "gonum.org/v1/gonum/mat"

// Pair is one snapshot pair: Y is the state one sample after X.
type Pair struct {
	X *mat.VecDense
	Y *mat.VecDense
}

// Dim returns the snapshot dimension.
func (p Pair) Dim() int {
	if p.X == nil {
		return 0
	}
	return p.X.Len()
}

// Clone returns a deep copy of the pair.
func (p Pair) Clone() Pair {
	return Pair{X: mat.VecDenseCopyOf(p.X), Y: mat.VecDenseCopyOf(p.Y)}
}

// Source yields snapshot pairs in time order.
type Source interface {
	Dim() int
	Next() (Pair, bool)
}

// SliceSource replays a fixed sequence of pairs.
type SliceSource struct {
	pairs []Pair
	pos   int
}

// NewSliceSource returns a source over pairs in the given order.
func NewSliceSource(pairs []Pair) *SliceSource {
	return &SliceSource{pairs: pairs}
}

// Dim returns the snapshot dimension, or 0 for an empty source.
func (s *SliceSource) Dim() int {
	if len(s.pairs) == 0 {
		return 0
	}
	return s.pairs[0].Dim()
}

// Next returns the next pair until the sequence is exhausted.
func (s *SliceSource) Next() (Pair, bool) {
	if s.pos >= len(s.pairs) {
		return Pair{}, false
	}
	p := s.pairs[s.pos]
	s.pos++
	return p, true
}

// Len returns the total number of pairs.
func (s *SliceSource) Len() int { return len(s.pairs) }

// Reset rewinds the source to the first pair.
func (s *SliceSource) Reset() { s.pos = 0 }
