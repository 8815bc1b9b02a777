// Package arena provides the per-tick frame allocator.
//
// Memory handed out by an Arena is valid only until the next Reset, which
// the cleanup phase performs once per tick. Anything that must outlive the
// tick is copied into ordinary heap memory first.
package arena

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	// ErrExhausted is returned when a request does not fit in the remaining
	// capacity. Nothing is allocated in that case.
	ErrExhausted = errors.New("arena: capacity exhausted")
	// ErrBadAlignment is returned for a non power-of-two alignment.
	ErrBadAlignment = errors.New("arena: alignment must be a power of two")
)

// Arena is a fixed-capacity bump allocator.
type Arena struct {
	buf    []byte
	base   uintptr
	offset int
	peak   int
}

// New allocates an arena of capacity bytes.
func New(capacity int) *Arena {
	if capacity < 0 {
		capacity = 0
	}
	a := &Arena{buf: make([]byte, capacity)}
	if capacity > 0 {
		a.base = uintptr(unsafe.Pointer(&a.buf[0]))
	}
	return a
}

// Allocate bump-allocates size bytes aligned to align and returns them
// zero-filled.
func (a *Arena) Allocate(size, align int) ([]byte, error) {
	if align <= 0 || align&(align-1) != 0 {
		return nil, ErrBadAlignment
	}
	if size < 0 {
		return nil, fmt.Errorf("arena: negative size %d", size)
	}
	addr := a.base + uintptr(a.offset)
	pad := int((uintptr(align) - addr%uintptr(align)) % uintptr(align))
	start := a.offset + pad
	if start+size > len(a.buf) || start+size < start {
		return nil, fmt.Errorf("%w: want %d bytes, %d of %d used", ErrExhausted, size, a.offset, len(a.buf))
	}
	a.offset = start + size
	if a.offset > a.peak {
		a.peak = a.offset
	}
	out := a.buf[start:a.offset:a.offset]
	clear(out)
	return out, nil
}

// Reset zeroes the buffer and rewinds to the start. It is the only way to
// reclaim space.
func (a *Arena) Reset() {
	clear(a.buf)
	a.offset = 0
}

func (a *Arena) Used() int     { return a.offset }
func (a *Arena) Capacity() int { return len(a.buf) }
func (a *Arena) Peak() int     { return a.peak }

// Slice allocates a zeroed []T of length n inside the arena. T must not
// contain pointers: the garbage collector does not scan arena memory.
func Slice[T any](a *Arena, n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return make([]T, n), nil
	}
	b, err := a.Allocate(size*n, int(unsafe.Alignof(zero)))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n), nil
}

// List is an append-only arena-backed slice with a fixed capacity.
type List[T any] struct {
	items []T
	n     int
}

// NewList reserves room for capacity elements.
func NewList[T any](a *Arena, capacity int) (*List[T], error) {
	items, err := Slice[T](a, capacity)
	if err != nil {
		return nil, err
	}
	return &List[T]{items: items}, nil
}

// Push appends v. It fails with ErrExhausted once the reserved capacity is
// used up rather than growing onto the heap.
func (l *List[T]) Push(v T) error {
	if l.n >= len(l.items) {
		return fmt.Errorf("%w: list capacity %d", ErrExhausted, len(l.items))
	}
	l.items[l.n] = v
	l.n++
	return nil
}

func (l *List[T]) Len() int    { return l.n }
func (l *List[T]) At(i int) *T { return &l.items[i] }
func (l *List[T]) Items() []T  { return l.items[:l.n] }
