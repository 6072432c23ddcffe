// Package value defines the tagged database scalar carried in query argument
// and result lists.
//
// Value is a sealed interface: only the five kinds declared here implement
// it, so a type switch over Text, BigInt, SmallInt, Float and Timestamp is
// exhaustive.
package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jbweber/ailsa/internal/container"
)

// ErrKind is returned when a value is read as a kind it does not hold.
var ErrKind = errors.New("value kind mismatch")

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindText Kind = iota + 1
	KindBigInt
	KindSmallInt
	KindFloat
	KindTimestamp
)

// String returns the catalog name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBigInt:
		return "bigint"
	case KindSmallInt:
		return "smallint"
	case KindFloat:
		return "float"
	case KindTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k >= KindText && k <= KindTimestamp
}

// ParseKind converts a catalog name back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return KindText, nil
	case "bigint":
		return KindBigInt, nil
	case "smallint":
		return KindSmallInt, nil
	case "float":
		return KindFloat, nil
	case "timestamp":
		return KindTimestamp, nil
	default:
		return 0, fmt.Errorf("unknown value kind %q", s)
	}
}

// Value is a single database scalar.
type Value interface {
	Kind() Kind
	String() string
	sealed()
}

// Text is a character value.
type Text string

// BigInt is a signed 64-bit integer.
type BigInt int64

// SmallInt is a signed 16-bit integer.
type SmallInt int16

// Float is a double precision value.
type Float float64

// Timestamp is a point in time, normalised to UTC with second precision.
type Timestamp struct {
	time.Time
}

// TimestampOf returns t as a Timestamp truncated to whole seconds in UTC.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Second)}
}

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return TimestampOf(time.Now())
}

func (Text) Kind() Kind      { return KindText }
func (BigInt) Kind() Kind    { return KindBigInt }
func (SmallInt) Kind() Kind  { return KindSmallInt }
func (Float) Kind() Kind     { return KindFloat }
func (Timestamp) Kind() Kind { return KindTimestamp }

func (v Text) String() string     { return string(v) }
func (v BigInt) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v SmallInt) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string    { return strconv.FormatFloat(float64(v), 'f', -1, 64) }
func (v Timestamp) String() string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.DateTime)
}

func (Text) sealed()      {}
func (BigInt) sealed()    {}
func (SmallInt) sealed()  {}
func (Float) sealed()     {}
func (Timestamp) sealed() {}

// AsText returns the string held by a Text value.
func AsText(v Value) (string, error) {
	switch x := v.(type) {
	case Text:
		return string(x), nil
	default:
		return "", mismatch(v, KindText)
	}
}

// AsInt returns the integer held by a BigInt or SmallInt value.
func AsInt(v Value) (int64, error) {
	switch x := v.(type) {
	case BigInt:
		return int64(x), nil
	case SmallInt:
		return int64(x), nil
	default:
		return 0, mismatch(v, KindBigInt)
	}
}

// AsFloat returns the number held by a Float value.
func AsFloat(v Value) (float64, error) {
	switch x := v.(type) {
	case Float:
		return float64(x), nil
	default:
		return 0, mismatch(v, KindFloat)
	}
}

// AsTime returns the time held by a Timestamp value.
func AsTime(v Value) (time.Time, error) {
	switch x := v.(type) {
	case Timestamp:
		return x.Time, nil
	default:
		return time.Time{}, mismatch(v, KindTimestamp)
	}
}

func mismatch(v Value, want Kind) error {
	if v == nil {
		return fmt.Errorf("nil value, want %s: %w", want, ErrKind)
	}
	return fmt.Errorf("value is %s, want %s: %w", v.Kind(), want, ErrKind)
}

// Equal reports whether a and b hold the same kind and payload. Timestamps
// compare by instant.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if ta, ok := a.(Timestamp); ok {
		return ta.Equal(b.(Timestamp).Time)
	}
	return a == b
}

// List is an ordered sequence of values used for query arguments and
// results.
type List = container.List[Value]

// NewList returns a list holding vs in order.
func NewList(vs ...Value) *List {
	l := container.New[Value](nil)
	for _, v := range vs {
		l.Append(v)
	}
	return l
}

// Kinds returns the kind of each element of l in order.
func Kinds(l *List) []Kind {
	if l == nil {
		return nil
	}
	out := make([]Kind, 0, l.Len())
	for _, v := range l.All() {
		out = append(out, v.Kind())
	}
	return out
}

// Copy returns an independent copy of l. Values are immutable, so nodes are
// cloned by assignment.
func Copy(l *List) *List {
	out := container.New[Value](nil)
	if l == nil {
		return out
	}
	for n := l.Head(); n != nil; n = n.Next() {
		out.Append(container.Clone(n, nil).Value)
	}
	return out
}

// First returns the first element of l, if any.
func First(l *List) (Value, bool) {
	if l == nil || l.Len() == 0 {
		return nil, false
	}
	return l.Head().Value, true
}

// ToString, ToInt, ToFloat and ToTime read a result column whose kind the
// catalog already guarantees. A value of another kind reads as zero.

func ToString(v Value) string {
	s, _ := AsText(v)
	return s
}

func ToInt(v Value) int64 {
	n, _ := AsInt(v)
	return n
}

func ToFloat(v Value) float64 {
	f, _ := AsFloat(v)
	return f
}

func ToTime(v Value) time.Time {
	t, _ := AsTime(v)
	return t
}
