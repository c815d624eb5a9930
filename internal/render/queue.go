package render

// queue is a FIFO that ignores values already waiting in it.
type queue[T comparable] struct {
	items []T
	seen  map[T]struct{}
}

func (q *queue[T]) push(v T) bool {
	if q.seen == nil {
		q.seen = make(map[T]struct{})
	}
	if _, ok := q.seen[v]; ok {
		return false
	}
	q.seen[v] = struct{}{}
	q.items = append(q.items, v)
	return true
}

// drain empties the queue and returns its contents in push order.
func (q *queue[T]) drain() []T {
	out := q.items
	q.items = nil
	clear(q.seen)
	return out
}

func (q *queue[T]) len() int {
	return len(q.items)
}
