package journal

import "sync/atomic"

// sequence numbers frames. Values are gap-free within one process and resume
// after the highest stored seq when a journal is reopened.
type sequence struct {
	last atomic.Int64
}

func resumeSequence(last int64) *sequence {
	s := &sequence{}
	s.last.Store(last)
	return s
}

// next reserves the following seq.
func (s *sequence) next() int64 { return s.last.Add(1) }

// peek returns the seq the next frame will receive.
func (s *sequence) peek() int64 { return s.last.Load() + 1 }

func (s *sequence) current() int64 { return s.last.Load() }
