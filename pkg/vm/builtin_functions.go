package vm

import (
	"fmt"
	"math"

	"pine/runtime-go/pkg/runtime"
)

// defaultFunctions is the statically-checked builtin registry. Keys use
// identifier form; "math__max" registers under "math.max" (see loadFunctions).
var defaultFunctions = map[string]HostFunc{
	"input": baseInput,

	"na":  fnNa,
	"nz":  fnNz,
	"iff": fnIff,

	"abs":       fnAbs,
	"max":       fnMax,
	"min":       fnMin,
	"math__max": fnMax,
	"math__min": fnMin,
	"math__pow": fnPow,
	"sqrt":      numeric1("sqrt", math.Sqrt),
	"round":     numeric1("round", math.Round),
	"floor":     numeric1("floor", math.Floor),
	"ceil":      numeric1("ceil", math.Ceil),
	"log":       numeric1("log", math.Log),
	"exp":       numeric1("exp", math.Exp),

	"sma":        fnSma,
	"ema":        fnEma,
	"rma":        fnRma,
	"highest":    fnHighest,
	"lowest":     fnLowest,
	"change":     fnChange,
	"cross":      fnCross,
	"crossover":  fnCrossover,
	"crossunder": fnCrossunder,
}

//-----------------------------------------------------------------------------
// Scalar helpers
//-----------------------------------------------------------------------------

func numeric1(name string, impl func(float64) float64) HostFunc {
	specs := []argSpec{{name: "x", kind: runtime.KindFloat, required: true}}
	return func(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
		vals, err := expandArgs(args, kwargs, specs)
		if err != nil {
			return nil, err
		}
		x, _ := argFloat(vals[0])
		return runtime.FloatValue{Val: impl(x)}, nil
	}
}

var twoNumberSpecs = []argSpec{
	{name: "x", kind: runtime.KindFloat, required: true},
	{name: "y", kind: runtime.KindFloat, required: true},
}

// pickNumber keeps integer results integer when both operands were integers.
func pickNumber(x, y runtime.Value, f float64) runtime.Value {
	if x.Kind() == runtime.KindInteger && y.Kind() == runtime.KindInteger {
		return runtime.IntegerValue{Val: int64(f)}
	}
	return runtime.FloatValue{Val: f}
}

func fnMax(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	vals, err := expandArgs(args, kwargs, twoNumberSpecs)
	if err != nil {
		return nil, err
	}
	x, _ := argFloat(vals[0])
	y, _ := argFloat(vals[1])
	return pickNumber(vals[0], vals[1], math.Max(x, y)), nil
}

func fnMin(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	vals, err := expandArgs(args, kwargs, twoNumberSpecs)
	if err != nil {
		return nil, err
	}
	x, _ := argFloat(vals[0])
	y, _ := argFloat(vals[1])
	return pickNumber(vals[0], vals[1], math.Min(x, y)), nil
}

func fnPow(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	vals, err := expandArgs(args, kwargs, twoNumberSpecs)
	if err != nil {
		return nil, err
	}
	x, _ := argFloat(vals[0])
	y, _ := argFloat(vals[1])
	return runtime.FloatValue{Val: math.Pow(x, y)}, nil
}

func fnAbs(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	vals, err := expandArgs(args, kwargs, []argSpec{{name: "x", kind: runtime.KindFloat, required: true}})
	if err != nil {
		return nil, err
	}
	x, _ := argFloat(vals[0])
	return pickNumber(vals[0], vals[0], math.Abs(x)), nil
}

func fnNa(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	vals, err := expandArgs(args, kwargs, []argSpec{{name: "x", kind: kindAny, required: true}})
	if err != nil {
		return nil, err
	}
	x := vals[0]
	if runtime.IsSeries(x) {
		x = seriesOf(x).Last()
	}
	return runtime.BoolValue{Val: runtime.IsNa(x)}, nil
}

func fnNz(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	vals, err := expandArgs(args, kwargs, []argSpec{
		{name: "x", kind: kindAny, required: true},
		{name: "y", kind: runtime.KindFloat},
	})
	if err != nil {
		return nil, err
	}
	repl := 0.0
	if f, ok := argFloat(vals[1]); ok {
		repl = f
	}
	if runtime.IsSeries(vals[0]) {
		out := &runtime.SeriesValue{}
		for _, f := range seriesOf(vals[0]).Floats() {
			if math.IsNaN(f) {
				f = repl
			}
			out.Append(runtime.FloatValue{Val: f})
		}
		return out, nil
	}
	if runtime.IsNa(vals[0]) {
		return runtime.FloatValue{Val: repl}, nil
	}
	return vals[0], nil
}

func fnIff(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	vals, err := expandArgs(args, kwargs, []argSpec{
		{name: "condition", kind: kindAny, required: true},
		{name: "then", kind: kindAny, required: true},
		{name: "_else", kind: kindAny, required: true},
	})
	if err != nil {
		return nil, err
	}
	if runtime.Truthy(vals[0]) {
		return vals[1], nil
	}
	return vals[2], nil
}

//-----------------------------------------------------------------------------
// Series statistics
//-----------------------------------------------------------------------------

var seriesLengthSpecs = []argSpec{
	{name: "source", kind: runtime.KindSeries, required: true},
	{name: "length", kind: runtime.KindInteger, required: true},
}

func seriesLengthArgs(args []runtime.Value, kwargs map[string]runtime.Value) ([]float64, int, error) {
	vals, err := expandArgs(args, kwargs, seriesLengthSpecs)
	if err != nil {
		return nil, 0, err
	}
	length, _ := argInt(vals[1])
	if length < 1 {
		return nil, 0, fmt.Errorf("%w: length must be positive, got %d", runtime.ErrBadArgument, length)
	}
	return seriesOf(vals[0]).Floats(), int(length), nil
}

func rolling(data []float64, length int, window func([]float64) float64) *runtime.SeriesValue {
	out := &runtime.SeriesValue{}
	for i := range data {
		if i+1 < length {
			out.Append(runtime.NaN())
			continue
		}
		out.Append(runtime.FloatValue{Val: window(data[i+1-length : i+1])})
	}
	return out
}

func fnSma(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	data, length, err := seriesLengthArgs(args, kwargs)
	if err != nil {
		return nil, err
	}
	return rolling(data, length, func(win []float64) float64 {
		sum := 0.0
		for _, f := range win {
			sum += f
		}
		return sum / float64(len(win))
	}), nil
}

func fnHighest(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	data, length, err := seriesLengthArgs(args, kwargs)
	if err != nil {
		return nil, err
	}
	return rolling(data, length, func(win []float64) float64 {
		best := win[0]
		for _, f := range win[1:] {
			best = math.Max(best, f)
		}
		return best
	}), nil
}

func fnLowest(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	data, length, err := seriesLengthArgs(args, kwargs)
	if err != nil {
		return nil, err
	}
	return rolling(data, length, func(win []float64) float64 {
		best := win[0]
		for _, f := range win[1:] {
			best = math.Min(best, f)
		}
		return best
	}), nil
}

// smoothed builds the recursive exponential family: out[i] is a blend of the
// new sample and the previous output, seeded by the first non-na sample.
func smoothed(data []float64, alpha float64) *runtime.SeriesValue {
	out := &runtime.SeriesValue{}
	prev := math.NaN()
	for _, f := range data {
		switch {
		case math.IsNaN(f):
			// keep prev
		case math.IsNaN(prev):
			prev = f
		default:
			prev = alpha*f + (1-alpha)*prev
		}
		if math.IsNaN(prev) {
			out.Append(runtime.NaN())
		} else {
			out.Append(runtime.FloatValue{Val: prev})
		}
	}
	return out
}

func fnEma(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	data, length, err := seriesLengthArgs(args, kwargs)
	if err != nil {
		return nil, err
	}
	return smoothed(data, 2/float64(length+1)), nil
}

func fnRma(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	data, length, err := seriesLengthArgs(args, kwargs)
	if err != nil {
		return nil, err
	}
	return smoothed(data, 1/float64(length)), nil
}

func fnChange(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	vals, err := expandArgs(args, kwargs, []argSpec{{name: "source", kind: runtime.KindSeries, required: true}})
	if err != nil {
		return nil, err
	}
	data := seriesOf(vals[0]).Floats()
	out := &runtime.SeriesValue{}
	for i, f := range data {
		if i == 0 {
			out.Append(runtime.NaN())
			continue
		}
		out.Append(runtime.FloatValue{Val: f - data[i-1]})
	}
	return out, nil
}

//-----------------------------------------------------------------------------
// Crossings
//-----------------------------------------------------------------------------

var crossSpecs = []argSpec{
	{name: "x", kind: kindAny, required: true},
	{name: "y", kind: kindAny, required: true},
}

// pairFloats aligns two series-or-scalar arguments into equal-length sample
// slices; scalars repeat to the other side's length.
func pairFloats(x, y runtime.Value) ([]float64, []float64, error) {
	n := 0
	if runtime.IsSeries(x) {
		n = seriesOf(x).Len()
	}
	if runtime.IsSeries(y) && seriesOf(y).Len() > n {
		n = seriesOf(y).Len()
	}
	if n == 0 {
		return nil, nil, fmt.Errorf("%w: expected at least one series argument", runtime.ErrBadArgument)
	}
	expand := func(v runtime.Value) ([]float64, error) {
		if runtime.IsSeries(v) {
			data := seriesOf(v).Floats()
			// Shorter series align at the current bar; the missing head is na.
			for len(data) < n {
				data = append([]float64{math.NaN()}, data...)
			}
			return data, nil
		}
		f, ok := runtime.AsFloat(v)
		if !ok {
			return nil, fmt.Errorf("%w: expected number or series, got %s", runtime.ErrBadArgument, v.Kind())
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = f
		}
		return out, nil
	}
	xs, err := expand(x)
	if err != nil {
		return nil, nil, err
	}
	ys, err := expand(y)
	if err != nil {
		return nil, nil, err
	}
	return xs, ys, nil
}

func crossing(args []runtime.Value, kwargs map[string]runtime.Value, hit func(prevDiff, diff float64) bool) (runtime.Value, error) {
	vals, err := expandArgs(args, kwargs, crossSpecs)
	if err != nil {
		return nil, err
	}
	xs, ys, err := pairFloats(vals[0], vals[1])
	if err != nil {
		return nil, err
	}
	out := &runtime.SeriesValue{}
	for i := range xs {
		if i == 0 || math.IsNaN(xs[i]) || math.IsNaN(ys[i]) ||
			math.IsNaN(xs[i-1]) || math.IsNaN(ys[i-1]) {
			out.Append(runtime.BoolValue{Val: false})
			continue
		}
		out.Append(runtime.BoolValue{Val: hit(xs[i-1]-ys[i-1], xs[i]-ys[i])})
	}
	return out, nil
}

func fnCross(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	return crossing(args, kwargs, func(prev, cur float64) bool {
		return (prev < 0 && cur >= 0) || (prev > 0 && cur <= 0)
	})
}

func fnCrossover(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	return crossing(args, kwargs, func(prev, cur float64) bool {
		return prev < 0 && cur >= 0
	})
}

func fnCrossunder(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	return crossing(args, kwargs, func(prev, cur float64) bool {
		return prev > 0 && cur <= 0
	})
}
