package game

// Pool is a free list of reusable values. Acquire pops a released value or
// builds a new one.
type Pool[T any] struct {
	free    []T
	factory func() T
}

// NewPool creates an empty pool
func NewPool[T any](factory func() T) *Pool[T] {
	return &Pool[T]{factory: factory}
}

// Acquire returns a released value, or a new one when none are free
func (p *Pool[T]) Acquire() T {
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		var zero T
		p.free[n-1] = zero
		p.free = p.free[:n-1]
		return v
	}
	return p.factory()
}

// Release hands v back for reuse
func (p *Pool[T]) Release(v T) {
	p.free = append(p.free, v)
}

// Size returns how many values are waiting to be reused
func (p *Pool[T]) Size() int {
	return len(p.free)
}
