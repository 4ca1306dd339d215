package engine

// XORShift32 is a small counter-based pseudo-random generator. Every
// generation step draws exclusively from one instance so that a given seed
// reproduces an identical level.
type XORShift32 struct {
	state uint32
}

// NewXORShift32 creates a generator from a 32-bit seed. Seed 0 would lock
// the recurrence at zero forever, so it is remapped to 1.
func NewXORShift32(seed uint32) *XORShift32 {
	if seed == 0 {
		seed = 1
	}
	return &XORShift32{state: seed}
}

// Next advances the state and returns a uniform float in [0, 1).
func (r *XORShift32) Next() float64 {
	s := r.state
	s ^= s << 13
	s ^= s >> 17
	s ^= s << 5
	r.state = s
	return float64(s) / (1 << 32)
}

// NextInt returns a uniform integer in [min, max).
func (r *XORShift32) NextInt(min, max int) int {
	return min + int(r.Next()*float64(max-min))
}

// Choice returns a uniformly picked element. Calling it on an empty slice
// is the caller's error.
func Choice[T any](r *XORShift32, items []T) T {
	return items[r.NextInt(0, len(items))]
}

// Shuffle permutes items in place with a Fisher-Yates walk from the last
// index down to 1.
func Shuffle[T any](r *XORShift32, items []T) {
	for i := len(items) - 1; i >= 1; i-- {
		j := int(r.Next() * float64(i+1))
		items[i], items[j] = items[j], items[i]
	}
}
