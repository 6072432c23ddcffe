// Package query holds the static catalog of SQL statements issued by ailsa,
// together with the error taxonomy shared by every backend.
//
// Each Descriptor carries its SQL text, written with '?' placeholders, and
// the ordered kind of every parameter and result column. A generic binder and
// materializer use these kinds, so no statement needs hand-written binding
// code. Descriptors are addressed by Family and ID and never change after
// start-up.
package query

import (
	"fmt"

	"github.com/jbweber/ailsa/internal/value"
)

// Family groups descriptors by statement shape.
type Family int

const (
	// Basic statements take no parameters and return rows.
	Basic Family = iota + 1
	// Argument statements take parameters and return rows.
	Argument
	// Insert statements add rows.
	Insert
	// Update statements modify rows.
	Update
	// Delete statements remove rows.
	Delete
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case Basic:
		return "basic"
	case Argument:
		return "argument"
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// IsWrite reports whether statements of the family modify data.
func (f Family) IsWrite() bool {
	return f == Insert || f == Update || f == Delete
}

// ID indexes a descriptor within its family.
type ID int

// Descriptor is one catalogued statement.
type Descriptor struct {
	Name    string
	SQL     string
	Params  []value.Kind
	Results []value.Kind
}

// ParamCount returns the number of placeholders.
func (d *Descriptor) ParamCount() int {
	return len(d.Params)
}

// Columns returns the number of declared result columns.
func (d *Descriptor) Columns() int {
	return len(d.Results)
}

// CheckArgs verifies that args matches the descriptor's parameter list in
// length and kind. It never touches an engine.
func (d *Descriptor) CheckArgs(args *value.List) error {
	n := 0
	if args != nil {
		n = args.Len()
	}
	if n != len(d.Params) {
		return Errorf(CodeArgument, d.Name, "got %d arguments, want %d", n, len(d.Params))
	}
	if n == 0 {
		return nil
	}
	for i, v := range args.All() {
		if v == nil {
			return Errorf(CodeArgument, d.Name, "argument %d is nil", i)
		}
		want := d.Params[i]
		if !want.Valid() {
			return Errorf(CodeType, d.Name, "parameter %d has unsupported kind %v", i, want)
		}
		if v.Kind() != want {
			return Errorf(CodeType, d.Name, "argument %d is %s, want %s", i, v.Kind(), want)
		}
	}
	return nil
}

var catalog = map[Family][]Descriptor{
	Basic:    basicQueries,
	Argument: argumentQueries,
	Insert:   insertQueries,
	Update:   updateQueries,
	Delete:   deleteQueries,
}

// Lookup returns the descriptor for (f, id).
func Lookup(f Family, id ID) (*Descriptor, error) {
	entries, ok := catalog[f]
	if !ok {
		return nil, Errorf(CodeArgument, "lookup", "unknown query family %v", f)
	}
	if id < 0 || int(id) >= len(entries) {
		return nil, Errorf(CodeArgument, "lookup", "no %s query with id %d", f, id)
	}
	return &entries[id], nil
}

// MustLookup is Lookup for ids known at compile time.
func MustLookup(f Family, id ID) *Descriptor {
	d, err := Lookup(f, id)
	if err != nil {
		panic(err)
	}
	return d
}

// Len returns the number of descriptors in a family.
func Len(f Family) int {
	return len(catalog[f])
}

// Rows splits a flat result list into rows of the descriptor's width.
func Rows(d *Descriptor, result *value.List) ([][]value.Value, error) {
	if result == nil || result.Len() == 0 {
		return nil, nil
	}
	width := d.Columns()
	if width == 0 {
		return nil, Errorf(CodeType, d.Name, "descriptor declares no result columns")
	}
	if result.Len()%width != 0 {
		return nil, Errorf(CodeFetch, d.Name, "%d values is not a multiple of %d columns", result.Len(), width)
	}

	rows := make([][]value.Value, 0, result.Len()/width)
	row := make([]value.Value, 0, width)
	for _, v := range result.All() {
		row = append(row, v)
		if len(row) == width {
			rows = append(rows, row)
			row = make([]value.Value, 0, width)
		}
	}
	return rows, nil
}
