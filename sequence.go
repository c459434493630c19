package kquery

import (
	"strconv"
	"sync/atomic"
)

// Sequence generates the placeholder tokens and the subquery
// aliases used by the builders.
//
// All the builders that take part in the same statement must share
// the same Sequence, otherwise their tokens might collide once the
// bindings of a subquery are merged into its parent.
//
// It is safe for concurrent use.
type Sequence struct {
	binders uint64
	aliases uint64
}

// NewSequence instantiates a Sequence starting from 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// NextBinder returns a new token of the form `:n<N>n`
func (s *Sequence) NextBinder() string {
	n := atomic.AddUint64(&s.binders, 1)
	return ":n" + strconv.FormatUint(n, 10) + "n"
}

// NextAlias returns a new alias of the form `A<N>`
func (s *Sequence) NextAlias() string {
	n := atomic.AddUint64(&s.aliases, 1)
	return "A" + strconv.FormatUint(n, 10)
}
