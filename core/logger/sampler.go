package logger

import "sync/atomic"

// ratioSampler lets num out of every den calls through. A zero ratio lets everything through.
type ratioSampler struct {
	num, den atomic.Int64
	calls    atomic.Uint64
}

func (s *ratioSampler) Set(num, den int) {
	if num <= 0 || den <= 0 {
		num, den = 0, 0
	}
	if num > den {
		num = den
	}
	s.num.Store(int64(num))
	s.den.Store(int64(den))
	s.calls.Store(0)
}

func (s *ratioSampler) Allow() bool {
	den := s.den.Load()
	if den <= 0 {
		return true
	}
	n := s.calls.Add(1) - 1
	return int64(n%uint64(den)) < s.num.Load()
}
