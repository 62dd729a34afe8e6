package runtime

import (
	"fmt"
	"math"

	"pine/runtime-go/pkg/market"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindColor
	KindSeries
	KindMarketSeries
	KindAccessor
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindColor:
		return "color"
	case KindSeries:
		return "series"
	case KindMarketSeries:
		return "market_series"
	case KindAccessor:
		return "accessor"
	case KindCommand:
		return "command"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NilValue struct{}

func (NilValue) Kind() Kind { return KindNil }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

type IntegerValue struct {
	Val int64
}

func (v IntegerValue) Kind() Kind { return KindInteger }

type FloatValue struct {
	Val float64
}

func (v FloatValue) Kind() Kind { return KindFloat }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

// ColorValue is an opaque color token ("#FF0000"); the engine never
// interprets it beyond attaching it to draw commands.
type ColorValue struct {
	Val string
}

func (v ColorValue) Kind() Kind { return KindColor }

//-----------------------------------------------------------------------------
// Builtin variable accessors
//-----------------------------------------------------------------------------

// Host is the slice of runtime state a builtin variable accessor may read.
// Accessors must be idempotent: lookup may invoke them any number of times.
type Host interface {
	MarketData() market.Context
}

// AccessorValue is a builtin variable whose value depends on the live market
// context. Lookup invokes Get rather than returning the accessor itself.
type AccessorValue struct {
	Name string
	Get  func(Host) (Value, error)
}

func (v AccessorValue) Kind() Kind { return KindAccessor }

//-----------------------------------------------------------------------------
// Helpers
//-----------------------------------------------------------------------------

// NaN is the scripting language's missing-value sample (na).
func NaN() FloatValue {
	return FloatValue{Val: math.NaN()}
}

// IsSeries reports whether v is a series of either flavour.
func IsSeries(v Value) bool {
	if v == nil {
		return false
	}
	k := v.Kind()
	return k == KindSeries || k == KindMarketSeries
}

// Compatible implements the reassignment rule: series values are mutually
// compatible regardless of flavour, every other kind requires exact equality.
func Compatible(old, next Value) bool {
	if IsSeries(old) {
		return IsSeries(next)
	}
	if old == nil || next == nil {
		return false
	}
	return old.Kind() == next.Kind()
}

// AsFloat widens any numeric scalar to float64.
func AsFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case FloatValue:
		return n.Val, true
	case IntegerValue:
		return float64(n.Val), true
	case BoolValue:
		if n.Val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// IsNa reports whether v is the missing-value float.
func IsNa(v Value) bool {
	f, ok := v.(FloatValue)
	return ok && math.IsNaN(f.Val)
}

// Truthy mirrors the language's condition rule: false, 0, na and the empty
// string are false; everything else is true.
func Truthy(v Value) bool {
	switch n := v.(type) {
	case nil, NilValue:
		return false
	case BoolValue:
		return n.Val
	case IntegerValue:
		return n.Val != 0
	case FloatValue:
		return n.Val != 0 && !math.IsNaN(n.Val)
	case StringValue:
		return n.Val != ""
	default:
		return true
	}
}
