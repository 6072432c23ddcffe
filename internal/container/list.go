// Package container provides the doubly-linked list and fixed-bucket hash
// table used to carry query arguments and results.
//
// Neither type is safe for concurrent use. Callers sharing a List or Table
// across goroutines must provide their own locking.
package container

import (
	"errors"
	"iter"
)

var (
	// ErrInvalidArgument is returned when an anchor node is inconsistent with
	// the list it is used on.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicate is returned by Table.Insert when the key is already present.
	ErrDuplicate = errors.New("key already present")
)

// Node is an element of a List.
type Node[T any] struct {
	prev, next *Node[T]
	owner      *List[T]
	Value      T
}

// Next returns the following node or nil at the tail.
func (n *Node[T]) Next() *Node[T] {
	return n.next
}

// Prev returns the preceding node or nil at the head.
func (n *Node[T]) Prev() *Node[T] {
	return n.prev
}

// List is a doubly-linked list that owns its values.
//
// The destroy function, if non-nil, is applied to every value still held when
// Destroy is called. Values handed back by Remove are no longer owned by the
// list and are never passed to destroy.
type List[T any] struct {
	count   int
	destroy func(T)
	head    *Node[T]
	tail    *Node[T]
}

// New creates an empty list with an optional destructor.
func New[T any](destroy func(T)) *List[T] {
	return &List[T]{destroy: destroy}
}

// Len returns the number of elements.
func (l *List[T]) Len() int {
	return l.count
}

// Head returns the first node, or nil when the list is empty.
func (l *List[T]) Head() *Node[T] {
	return l.head
}

// Tail returns the last node, or nil when the list is empty.
func (l *List[T]) Tail() *Node[T] {
	return l.tail
}

// checkAnchor validates the anchor for an insert. A nil anchor is only
// accepted on an empty list; a non-nil anchor must belong to l.
func (l *List[T]) checkAnchor(at *Node[T]) error {
	if at == nil {
		if l.count != 0 {
			return ErrInvalidArgument
		}
		return nil
	}
	if l.count == 0 || at.owner != l {
		return ErrInvalidArgument
	}
	return nil
}

// InsertAfter inserts v after the anchor node. Passing a nil anchor inserts
// the sole element of an empty list.
func (l *List[T]) InsertAfter(at *Node[T], v T) (*Node[T], error) {
	if err := l.checkAnchor(at); err != nil {
		return nil, err
	}

	n := &Node[T]{owner: l, Value: v}
	if at == nil {
		l.head, l.tail = n, n
	} else {
		n.prev = at
		n.next = at.next
		if at.next == nil {
			l.tail = n
		} else {
			at.next.prev = n
		}
		at.next = n
	}
	l.count++
	return n, nil
}

// InsertBefore inserts v before the anchor node. Passing a nil anchor inserts
// the sole element of an empty list.
func (l *List[T]) InsertBefore(at *Node[T], v T) (*Node[T], error) {
	if err := l.checkAnchor(at); err != nil {
		return nil, err
	}

	n := &Node[T]{owner: l, Value: v}
	if at == nil {
		l.head, l.tail = n, n
	} else {
		n.next = at
		n.prev = at.prev
		if at.prev == nil {
			l.head = n
		} else {
			at.prev.next = n
		}
		at.prev = n
	}
	l.count++
	return n, nil
}

// Append adds v at the tail.
func (l *List[T]) Append(v T) *Node[T] {
	// An anchor of l.tail is always valid: nil on empty, owned otherwise.
	n, _ := l.InsertAfter(l.tail, v)
	return n
}

// Remove unlinks n and returns its value. Ownership of the value passes to
// the caller; the destructor is not called.
func (l *List[T]) Remove(n *Node[T]) (T, error) {
	var zero T
	if n == nil || l.count == 0 || n.owner != l {
		return zero, ErrInvalidArgument
	}

	if n.prev == nil {
		l.head = n.next
	} else {
		n.prev.next = n.next
	}
	if n.next == nil {
		l.tail = n.prev
	} else {
		n.next.prev = n.prev
	}
	l.count--

	v := n.Value
	n.prev, n.next, n.owner = nil, nil, nil
	n.Value = zero
	return v, nil
}

// Destroy removes every element from the tail, applying the destructor to
// each, and leaves the list empty. It is safe to call on an empty list.
func (l *List[T]) Destroy() {
	for l.count > 0 {
		v, err := l.Remove(l.tail)
		if err != nil {
			break
		}
		if l.destroy != nil {
			l.destroy(v)
		}
	}
	l.head, l.tail, l.count = nil, nil, 0
}

// Values returns the elements in order as a new slice.
func (l *List[T]) Values() []T {
	out := make([]T, 0, l.count)
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.Value)
	}
	return out
}

// All iterates over the elements from head to tail.
func (l *List[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		i := 0
		for n := l.head; n != nil; n = n.next {
			if !yield(i, n.Value) {
				return
			}
			i++
		}
	}
}

// At returns the node at position i, or nil when out of range.
func (l *List[T]) At(i int) *Node[T] {
	if i < 0 || i >= l.count {
		return nil
	}
	n := l.head
	for ; i > 0; i-- {
		n = n.next
	}
	return n
}

// Clone returns a detached copy of n holding copyFn(n.Value). A nil copyFn
// copies the value by assignment. The returned node belongs to no list.
func Clone[T any](n *Node[T], copyFn func(T) T) *Node[T] {
	if n == nil {
		return nil
	}
	v := n.Value
	if copyFn != nil {
		v = copyFn(v)
	}
	return &Node[T]{Value: v}
}
