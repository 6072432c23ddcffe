package container

import (
	"fmt"
	"hash/fnv"
)

// Table is a chained hash table with a fixed number of buckets.
//
// Keys are not stored separately from values: match reports whether a stored
// value carries the given key, which lets a key be a field embedded in a
// larger value.
type Table[K, V any] struct {
	buckets []*List[V]
	hash    func(K) uint32
	match   func(K, V) bool
	destroy func(V)
	size    int
}

// NewTable creates a table with n buckets. The bucket count never changes.
func NewTable[K, V any](n int, hash func(K) uint32, match func(K, V) bool, destroy func(V)) (*Table[K, V], error) {
	if n <= 0 {
		return nil, fmt.Errorf("bucket count must be > 0, got %d: %w", n, ErrInvalidArgument)
	}
	if hash == nil || match == nil {
		return nil, fmt.Errorf("hash and match functions are required: %w", ErrInvalidArgument)
	}

	t := &Table[K, V]{
		buckets: make([]*List[V], n),
		hash:    hash,
		match:   match,
		destroy: destroy,
	}
	for i := range t.buckets {
		t.buckets[i] = New(destroy)
	}
	return t, nil
}

// Len returns the number of stored values.
func (t *Table[K, V]) Len() int {
	return t.size
}

func (t *Table[K, V]) bucket(key K) *List[V] {
	return t.buckets[t.hash(key)%uint32(len(t.buckets))]
}

func (t *Table[K, V]) find(key K) (*List[V], *Node[V]) {
	if len(t.buckets) == 0 {
		return nil, nil
	}
	b := t.bucket(key)
	for n := b.Head(); n != nil; n = n.Next() {
		if t.match(key, n.Value) {
			return b, n
		}
	}
	return b, nil
}

// Insert stores v under key. If a value matching key is already present the
// table is unchanged and ErrDuplicate is returned.
func (t *Table[K, V]) Insert(v V, key K) error {
	b, n := t.find(key)
	if b == nil {
		return ErrInvalidArgument
	}
	if n != nil {
		return ErrDuplicate
	}
	b.Append(v)
	t.size++
	return nil
}

// Lookup returns the value matching key.
func (t *Table[K, V]) Lookup(key K) (V, bool) {
	_, n := t.find(key)
	if n == nil {
		var zero V
		return zero, false
	}
	return n.Value, true
}

// Remove unlinks and returns the value matching key. The destructor is not
// applied.
func (t *Table[K, V]) Remove(key K) (V, bool) {
	b, n := t.find(key)
	if n == nil {
		var zero V
		return zero, false
	}
	v, err := b.Remove(n)
	if err != nil {
		var zero V
		return zero, false
	}
	t.size--
	return v, true
}

// Destroy destroys every bucket, applying the destructor to each stored
// value, and releases the bucket array.
func (t *Table[K, V]) Destroy() {
	for _, b := range t.buckets {
		b.Destroy()
	}
	t.buckets = nil
	t.size = 0
}

// StringHash is an FNV-1a hash for string keys.
func StringHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
