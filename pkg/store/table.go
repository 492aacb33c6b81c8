package store

// table keeps rows by ID and remembers insertion order.
type table[T any] struct {
	rows  map[string]T
	order []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

// put inserts or replaces a row and returns a func that reverts the change.
func (t *table[T]) put(id string, v T) func() {
	prev, existed := t.rows[id]
	t.rows[id] = v
	if existed {
		return func() { t.rows[id] = prev }
	}
	t.order = append(t.order, id)
	return func() {
		delete(t.rows, id)
		if n := len(t.order); n > 0 && t.order[n-1] == id {
			t.order = t.order[:n-1]
			return
		}
		filtered := t.order[:0]
		for _, item := range t.order {
			if item != id {
				filtered = append(filtered, item)
			}
		}
		t.order = filtered
	}
}

// each visits rows in insertion order until fn returns false.
func (t *table[T]) each(fn func(T) bool) {
	for _, id := range t.order {
		v, ok := t.rows[id]
		if !ok {
			continue
		}
		if !fn(v) {
			return
		}
	}
}

func (t *table[T]) all() []T {
	res := make([]T, 0, len(t.order))
	t.each(func(v T) bool {
		res = append(res, v)
		return true
	})
	return res
}

func (t *table[T]) len() int {
	return len(t.rows)
}
