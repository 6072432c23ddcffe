package backend

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/value"
)

// materialize walks rows and appends one value per column per row to a new
// list, in row-major order. A NULL column becomes the zero value of its kind.
//
// database/sql reports end of stream through Next and never yields an
// extra row, so the result length is always a multiple of the column count.
func materialize(rows *sql.Rows, d *query.Descriptor, kindOf func(string) (value.Kind, bool)) (*value.List, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, &query.Error{Code: query.CodeFetch, Err: err}
	}

	kinds := d.Results
	if len(kinds) == 0 {
		kinds, err = columnKinds(cols, kindOf)
		if err != nil {
			return nil, err
		}
	} else if len(cols) != len(kinds) {
		return nil, &query.Error{
			Code: query.CodeType,
			Err:  fmt.Errorf("statement returned %d columns, descriptor declares %d", len(cols), len(kinds)),
		}
	}

	result := value.NewList()
	if len(kinds) == 0 {
		return result, nil
	}

	cells := make([]cell, len(kinds))
	dest := make([]any, len(kinds))
	for rows.Next() {
		for i, k := range kinds {
			cells[i] = newCell(k)
			dest[i] = cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			code := query.CodeFetch
			if errors.Is(err, value.ErrKind) {
				code = query.CodeType
			}
			return nil, &query.Error{Code: code, Err: err}
		}
		for _, c := range cells {
			result.Append(c.value())
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &query.Error{Code: query.CodeFetch, Err: err}
	}

	if result.Len()%len(kinds) != 0 {
		return nil, &query.Error{
			Code: query.CodeFetch,
			Err:  fmt.Errorf("%d values is not a multiple of %d columns", result.Len(), len(kinds)),
		}
	}
	return result, nil
}

func columnKinds(cols []*sql.ColumnType, kindOf func(string) (value.Kind, bool)) ([]value.Kind, error) {
	kinds := make([]value.Kind, len(cols))
	for i, c := range cols {
		k, ok := kindOf(strings.ToUpper(c.DatabaseTypeName()))
		if !ok {
			return nil, &query.Error{
				Code: query.CodeType,
				Err:  fmt.Errorf("column %q has unsupported type %q", c.Name(), c.DatabaseTypeName()),
			}
		}
		kinds[i] = k
	}
	return kinds, nil
}

// cell is a sql.Scanner that produces one tagged value.
type cell interface {
	sql.Scanner
	value() value.Value
}

func newCell(k value.Kind) cell {
	switch k {
	case value.KindBigInt:
		return &intCell{}
	case value.KindSmallInt:
		return &intCell{small: true}
	case value.KindFloat:
		return &floatCell{}
	case value.KindTimestamp:
		return &timeCell{}
	default:
		return &textCell{}
	}
}

type textCell struct {
	v string
}

func (c *textCell) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		c.v = ""
	case string:
		c.v = s
	case []byte:
		c.v = string(s)
	case int64:
		c.v = strconv.FormatInt(s, 10)
	case float64:
		c.v = strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		c.v = strconv.FormatBool(s)
	case time.Time:
		c.v = s.UTC().Format(time.DateTime)
	default:
		c.v = fmt.Sprint(s)
	}
	return nil
}

func (c *textCell) value() value.Value { return value.Text(c.v) }

type intCell struct {
	v     int64
	small bool
}

func (c *intCell) Scan(src any) error {
	var n int64
	switch s := src.(type) {
	case nil:
		n = 0
	case int64:
		n = s
	case int32:
		n = int64(s)
	case int16:
		n = int64(s)
	case int8:
		n = int64(s)
	case int:
		n = int64(s)
	case uint32:
		n = int64(s)
	case uint16:
		n = int64(s)
	case uint8:
		n = int64(s)
	case uint64:
		if s > math.MaxInt64 {
			return fmt.Errorf("integer %d overflows bigint: %w", s, value.ErrKind)
		}
		n = int64(s)
	case bool:
		if s {
			n = 1
		}
	case float64:
		if s != math.Trunc(s) {
			return fmt.Errorf("float %v is not an integer: %w", s, value.ErrKind)
		}
		n = int64(s)
	case []byte:
		return c.Scan(string(s))
	case string:
		p, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("cannot read %q as integer: %w", s, value.ErrKind)
		}
		n = p
	default:
		return fmt.Errorf("cannot read %T as integer: %w", src, value.ErrKind)
	}

	if c.small && (n < math.MinInt16 || n > math.MaxInt16) {
		return fmt.Errorf("integer %d overflows smallint: %w", n, value.ErrKind)
	}
	c.v = n
	return nil
}

func (c *intCell) value() value.Value {
	if c.small {
		return value.SmallInt(c.v)
	}
	return value.BigInt(c.v)
}

type floatCell struct {
	v float64
}

func (c *floatCell) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		c.v = 0
	case float64:
		c.v = s
	case float32:
		c.v = float64(s)
	case int64:
		c.v = float64(s)
	case int32:
		c.v = float64(s)
	case []byte:
		return c.Scan(string(s))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("cannot read %q as float: %w", s, value.ErrKind)
		}
		c.v = f
	default:
		return fmt.Errorf("cannot read %T as float: %w", src, value.ErrKind)
	}
	return nil
}

func (c *floatCell) value() value.Value { return value.Float(c.v) }

// timeLayouts are the textual timestamp forms engines hand back when the
// driver does not parse them itself.
var timeLayouts = []string{
	time.DateTime,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

type timeCell struct {
	v time.Time
}

func (c *timeCell) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		c.v = time.Time{}
	case time.Time:
		c.v = s
	case []byte:
		return c.Scan(string(s))
	case string:
		t, err := parseTime(s)
		if err != nil {
			return err
		}
		c.v = t
	case int64:
		c.v = time.Unix(s, 0)
	default:
		return fmt.Errorf("cannot read %T as timestamp: %w", src, value.ErrKind)
	}
	return nil
}

func (c *timeCell) value() value.Value {
	if c.v.IsZero() {
		return value.Timestamp{}
	}
	return value.TimestampOf(c.v)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "0000-00-00") {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot read %q as timestamp: %w", s, value.ErrKind)
}
