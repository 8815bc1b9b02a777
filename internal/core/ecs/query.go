package ecs

// Each2 iterates over entities that have both component A and B.
// It walks the smaller pool's dense array and looks up the other, so the visit
// order is the smaller pool's slot order.
func Each2[A, B any](pa *Pool[A], pb *Pool[B], fn func(EntityID, *A, *B)) {
	if pa.Len() <= pb.Len() {
		for i := range pa.dense {
			id := pa.owners[i]
			if b, ok := pb.Get(id); ok {
				fn(id, &pa.dense[i], b)
			}
		}
		return
	}
	for i := range pb.dense {
		id := pb.owners[i]
		if a, ok := pa.Get(id); ok {
			fn(id, a, &pb.dense[i])
		}
	}
}
