package ecs

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID) bool
	Clear()
}

const invalidSlot = -1

// Pool is a sparse/dense component store. dense and owners are parallel
// arrays; sparse maps an entity index to its dense slot or invalidSlot.
// Removal swaps the last element into the hole, so iteration never meets a
// dead slot.
//
// Pointers handed out by Get and Attach stay valid until the next Attach or
// Remove on the same pool.
type Pool[T any] struct {
	dense  []T
	owners []EntityID
	sparse []int32
}

func NewPool[T any](capacity int) *Pool[T] {
	return &Pool[T]{
		dense:  make([]T, 0, capacity),
		owners: make([]EntityID, 0, capacity),
		sparse: make([]int32, 0, capacity),
	}
}

func (p *Pool[T]) slot(id EntityID) int32 {
	idx := int(id.Index())
	if idx >= len(p.sparse) {
		return invalidSlot
	}
	s := p.sparse[idx]
	if s == invalidSlot || p.owners[s] != id {
		return invalidSlot
	}
	return s
}

// Attach stores v for id, replacing any existing component.
func (p *Pool[T]) Attach(id EntityID, v T) *T {
	if s := p.slot(id); s != invalidSlot {
		p.dense[s] = v
		return &p.dense[s]
	}
	idx := int(id.Index())
	for len(p.sparse) <= idx {
		p.sparse = append(p.sparse, invalidSlot)
	}
	// a stale owner of the same index is dropped first
	if old := p.sparse[idx]; old != invalidSlot {
		p.removeSlot(old)
	}
	p.dense = append(p.dense, v)
	p.owners = append(p.owners, id)
	p.sparse[idx] = int32(len(p.dense) - 1)
	return &p.dense[len(p.dense)-1]
}

func (p *Pool[T]) Get(id EntityID) (*T, bool) {
	s := p.slot(id)
	if s == invalidSlot {
		return nil, false
	}
	return &p.dense[s], true
}

func (p *Pool[T]) Has(id EntityID) bool {
	return p.slot(id) != invalidSlot
}

// Remove deletes id's component in O(1). It reports whether one existed.
func (p *Pool[T]) Remove(id EntityID) bool {
	s := p.slot(id)
	if s == invalidSlot {
		return false
	}
	p.removeSlot(s)
	return true
}

func (p *Pool[T]) removeSlot(s int32) {
	last := int32(len(p.dense) - 1)
	removed := p.owners[s]
	if s != last {
		p.dense[s] = p.dense[last]
		p.owners[s] = p.owners[last]
		p.sparse[p.owners[s].Index()] = s
	}
	var zero T
	p.dense[last] = zero
	p.dense = p.dense[:last]
	p.owners = p.owners[:last]
	p.sparse[removed.Index()] = invalidSlot
}

func (p *Pool[T]) Len() int { return len(p.dense) }

// At returns the owner and component stored in dense slot i.
func (p *Pool[T]) At(i int) (EntityID, *T) {
	return p.owners[i], &p.dense[i]
}

// Each iterates the dense array in slot order. fn must not attach to or
// remove from this pool.
func (p *Pool[T]) Each(fn func(EntityID, *T)) {
	for i := range p.dense {
		fn(p.owners[i], &p.dense[i])
	}
}

func (p *Pool[T]) Clear() {
	clear(p.dense)
	p.dense = p.dense[:0]
	p.owners = p.owners[:0]
	p.sparse = p.sparse[:0]
}
