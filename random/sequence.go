package random

import "sync"

// Sequence は、あらかじめ決めた値を順番に返す Source です。
// 値を使い切ると最後の値を返し続けます。値が一つもない場合は 0 を返します。
type Sequence struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
	ii, fi int
}

// NewSequence は、IntN と Float64 がそれぞれ返す値の列から Sequence を生成します。
func NewSequence(ints []int, floats []float64) *Sequence {
	return &Sequence{ints: ints, floats: floats}
}

// Ints は IntN の値だけを持つ Sequence を生成します。Float64 は常に 0 を返します。
func Ints(v ...int) *Sequence {
	return NewSequence(v, nil)
}

// Floats は Float64 の値だけを持つ Sequence を生成します。IntN は常に 0 を返します。
func Floats(v ...float64) *Sequence {
	return NewSequence(nil, v)
}

// IntN は次の値を返します。値は [0, n) に丸められます。
func (s *Sequence) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 || n <= 0 {
		return 0
	}
	v := s.ints[min(s.ii, len(s.ints)-1)]
	s.ii++
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[min(s.fi, len(s.floats)-1)]
	s.fi++
	return v
}

var _ Source = (*Sequence)(nil)
