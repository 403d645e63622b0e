// Package random は、スコアリングやダイスで使う乱数源を抽象化します。
package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source は、エンジンが使う唯一の乱数源です。
// テストでは Sequence を差し込むことで結果を固定できます。
type Source interface {
	// IntN は [0, n) の一様な整数を返します。
	IntN(n int) int
	// Float64 は [0, 1) の一様な浮動小数を返します。
	Float64() float64
}

// Seeded は math/rand/v2 の PCG を使った Source の実装です。
// 複数のゴルーチンから呼ばれても安全です。
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded は seed から Seeded を生成します。seed が 0 の場合は現在時刻を使います。
func NewSeeded(seed uint64) *Seeded {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Seeded{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *Seeded) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *Seeded) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Bernoulli は確率 p で true を返します。
func Bernoulli(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}

// Uniform は [lo, hi] の一様な浮動小数を返します。
func Uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}

var _ Source = (*Seeded)(nil)
