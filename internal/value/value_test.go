package value

import (
	"errors"
	"testing"
	"time"
)

func TestKind_StringRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindText, KindBigInt, KindSmallInt, KindFloat, KindTimestamp} {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Errorf("ParseKind(%q) error = %v", k.String(), err)
			continue
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v, want %v", k.String(), got, k)
		}
		if !k.Valid() {
			t.Errorf("%v.Valid() = false", k)
		}
	}

	if _, err := ParseKind("blob"); err == nil {
		t.Error("ParseKind(blob) should fail")
	}
	if Kind(0).Valid() || Kind(99).Valid() {
		t.Error("out of range kinds should not be valid")
	}
}

func TestAccessors(t *testing.T) {
	when := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	tests := []struct {
		name     string
		v        Value
		wantKind Kind
		wantStr  string
	}{
		{name: "text", v: Text("web01"), wantKind: KindText, wantStr: "web01"},
		{name: "bigint", v: BigInt(42), wantKind: KindBigInt, wantStr: "42"},
		{name: "smallint", v: SmallInt(-7), wantKind: KindSmallInt, wantStr: "-7"},
		{name: "float", v: Float(2.5), wantKind: KindFloat, wantStr: "2.5"},
		{name: "timestamp", v: TimestampOf(when), wantKind: KindTimestamp, wantStr: "2026-03-14 15:09:26"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.v.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", tt.v.Kind(), tt.wantKind)
			}
			if tt.v.String() != tt.wantStr {
				t.Errorf("String() = %q, want %q", tt.v.String(), tt.wantStr)
			}

			_, errText := AsText(tt.v)
			_, errInt := AsInt(tt.v)
			_, errFloat := AsFloat(tt.v)
			_, errTime := AsTime(tt.v)

			checks := map[string]struct {
				err error
				ok  bool
			}{
				"AsText":  {errText, tt.wantKind == KindText},
				"AsInt":   {errInt, tt.wantKind == KindBigInt || tt.wantKind == KindSmallInt},
				"AsFloat": {errFloat, tt.wantKind == KindFloat},
				"AsTime":  {errTime, tt.wantKind == KindTimestamp},
			}
			for name, c := range checks {
				if c.ok && c.err != nil {
					t.Errorf("%s() error = %v", name, c.err)
				}
				if !c.ok && !errors.Is(c.err, ErrKind) {
					t.Errorf("%s() error = %v, want ErrKind", name, c.err)
				}
			}
		})
	}
}

func TestAccessors_Nil(t *testing.T) {
	if _, err := AsText(nil); !errors.Is(err, ErrKind) {
		t.Errorf("AsText(nil) error = %v, want ErrKind", err)
	}
}

func TestTimestampOf(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	ts := TimestampOf(time.Date(2026, 6, 1, 12, 0, 0, 999, loc))

	if ts.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", ts.Location())
	}
	if ts.Hour() != 10 || ts.Nanosecond() != 0 {
		t.Errorf("TimestampOf() = %v", ts.Time)
	}
	if (Timestamp{}).String() != "" {
		t.Error("zero Timestamp should render empty")
	}
}

func TestEqual(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{name: "same text", a: Text("a"), b: Text("a"), want: true},
		{name: "different text", a: Text("a"), b: Text("b"), want: false},
		{name: "bigint vs smallint", a: BigInt(1), b: SmallInt(1), want: false},
		{name: "timestamps across zones", a: TimestampOf(now), b: Timestamp{Time: now.UTC().Truncate(time.Second).In(time.Local)}, want: true},
		{name: "float", a: Float(1.5), b: Float(1.5), want: true},
		{name: "nil and value", a: nil, b: Text(""), want: false},
		{name: "both nil", a: nil, b: nil, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestNewListAndCopy(t *testing.T) {
	l := NewList(Text("web01"), BigInt(42), SmallInt(2))
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}

	kinds := Kinds(l)
	want := []Kind{KindText, KindBigInt, KindSmallInt}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Kinds()[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}

	c := Copy(l)
	if _, err := c.Remove(c.Head()); err != nil {
		t.Fatal(err)
	}
	if l.Len() != 3 || c.Len() != 2 {
		t.Errorf("Copy() not independent: original %d, copy %d", l.Len(), c.Len())
	}
	if Copy(nil).Len() != 0 || Kinds(nil) != nil {
		t.Error("nil list helpers should return empty results")
	}
}

func TestFirst(t *testing.T) {
	if _, ok := First(nil); ok {
		t.Error("First(nil) should report no value")
	}
	if _, ok := First(NewList()); ok {
		t.Error("First(empty) should report no value")
	}
	v, ok := First(NewList(BigInt(42), Text("x")))
	if !ok || !Equal(v, BigInt(42)) {
		t.Errorf("First() = %v, %v", v, ok)
	}
}

func TestLenientAccessors(t *testing.T) {
	ts := TimestampOf(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if ToString(Text("a")) != "a" || ToString(BigInt(1)) != "" {
		t.Error("ToString() mismatch")
	}
	if ToInt(SmallInt(3)) != 3 || ToInt(Text("3")) != 0 {
		t.Error("ToInt() mismatch")
	}
	if ToFloat(Float(1.5)) != 1.5 || ToFloat(nil) != 0 {
		t.Error("ToFloat() mismatch")
	}
	if !ToTime(ts).Equal(ts.Time) || !ToTime(Text("x")).IsZero() {
		t.Error("ToTime() mismatch")
	}
}
