package vm

import (
	"fmt"
	"strconv"

	"pine/runtime-go/pkg/market"
	"pine/runtime-go/pkg/runtime"
)

// Renderer is the rendering runtime: it evaluates a script with previously
// collected parameter values and accumulates the chart's draw commands in
// declaration order.
type Renderer struct {
	*VM
	Inputs   map[string]runtime.Value // stored parameter values, keyed by title
	Plots    []*DrawCommand
	inputIdx int
}

// NewRenderer builds a rendering runtime. inputs correlates with the scan
// pass's descriptors by title; pass Defaults(descriptors) to render with the
// declared defaults.
func NewRenderer(m market.Context, inputs map[string]runtime.Value) *Renderer {
	r := &Renderer{VM: New(m), Inputs: inputs}
	r.override("input", r.renderInput)
	r.override("plot", r.plot)
	r.override("hline", r.hline)
	r.override("fill", r.fill)
	return r
}

// Defaults flattens scan-pass descriptors to the stored-value map the
// renderer consumes, keyed by title.
func Defaults(descriptors []InputDescriptor) map[string]runtime.Value {
	out := make(map[string]runtime.Value, len(descriptors))
	for _, d := range descriptors {
		out[d.Title] = d.Default
	}
	return out
}

func (r *Renderer) renderInput(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	in, err := parseInputArgs(args, kwargs)
	if err != nil {
		return nil, err
	}

	r.inputIdx++
	if in.title == "" {
		in.title = fmt.Sprintf("input%d", r.inputIdx)
	}
	val, ok := r.Inputs[in.title]
	if !ok {
		return nil, fmt.Errorf("no value collected for input %q", in.title)
	}

	if in.typ == "" {
		in.typ, _ = inferInputType(in.defval)
	}
	return r.coerceInput(in.typ, val)
}

// coerceInput converts a stored parameter value to its declared type; source
// parameters are stored as a symbolic variable name and resolved against the
// live market context here.
func (r *Renderer) coerceInput(typ string, val runtime.Value) (runtime.Value, error) {
	switch typ {
	case "bool":
		return runtime.BoolValue{Val: runtime.Truthy(val)}, nil
	case "integer":
		return coerceInteger(val)
	case "float":
		return coerceFloat(val)
	case "source":
		name, ok := argString(val)
		if !ok {
			return nil, fmt.Errorf("%w: source input requires a variable name, got %s",
				runtime.ErrBadArgument, val.Kind())
		}
		return r.LookupVariable(name)
	default:
		return val, nil
	}
}

func coerceInteger(val runtime.Value) (runtime.Value, error) {
	switch n := val.(type) {
	case runtime.IntegerValue:
		return n, nil
	case runtime.FloatValue:
		return runtime.IntegerValue{Val: int64(n.Val)}, nil
	case runtime.BoolValue:
		if n.Val {
			return runtime.IntegerValue{Val: 1}, nil
		}
		return runtime.IntegerValue{Val: 0}, nil
	case runtime.StringValue:
		parsed, err := strconv.ParseInt(n.Val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", runtime.ErrBadArgument, n.Val)
		}
		return runtime.IntegerValue{Val: parsed}, nil
	default:
		return nil, fmt.Errorf("%w: cannot read %s as integer", runtime.ErrBadArgument, val.Kind())
	}
}

func coerceFloat(val runtime.Value) (runtime.Value, error) {
	if f, ok := runtime.AsFloat(val); ok {
		return runtime.FloatValue{Val: f}, nil
	}
	if s, ok := val.(runtime.StringValue); ok {
		parsed, err := strconv.ParseFloat(s.Val, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", runtime.ErrBadArgument, s.Val)
		}
		return runtime.FloatValue{Val: parsed}, nil
	}
	return nil, fmt.Errorf("%w: cannot read %s as float", runtime.ErrBadArgument, val.Kind())
}

var plotSpecs = []argSpec{
	{name: "series", kind: runtime.KindSeries, required: true},
	{name: "title", kind: runtime.KindString, required: true},
	{name: "color", kind: kindAny},
	{name: "linewidth", kind: runtime.KindInteger},
	{name: "style", kind: runtime.KindInteger},
	{name: "trackprice", kind: runtime.KindBool},
	{name: "transp", kind: runtime.KindInteger},
	{name: "histbase", kind: runtime.KindFloat},
	{name: "offset", kind: runtime.KindInteger},
	{name: "join", kind: runtime.KindBool},
	{name: "editable", kind: runtime.KindBool},
	{name: "show_last", kind: runtime.KindInteger},
}

func (r *Renderer) plot(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	vals, err := expandArgs(args, kwargs, plotSpecs)
	if err != nil {
		return nil, err
	}

	cmd := &DrawCommand{Type: "line", Series: vals[0]}
	cmd.Title, _ = argString(vals[1])
	if style, ok := argInt(vals[4]); ok && style != 0 {
		cmd.Type, cmd.Mark = styleType(style)
	}
	if color, ok := resolveColor(vals[2]); ok {
		cmd.Color = color
	}
	if width, ok := argInt(vals[3]); ok && width != 0 {
		cmd.Width = width
	}
	if transp, ok := argInt(vals[6]); ok && transp != 0 {
		cmd.Opacity = float64(transp) * 0.01
	}

	r.Plots = append(r.Plots, cmd)
	return cmd, nil
}

var hlineSpecs = []argSpec{
	{name: "price", kind: runtime.KindFloat, required: true},
	{name: "title", kind: runtime.KindString},
	{name: "color", kind: kindAny},
	{name: "linestyle", kind: runtime.KindInteger},
	{name: "linewidth", kind: runtime.KindInteger},
	{name: "editable", kind: runtime.KindBool},
}

func (r *Renderer) hline(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	vals, err := expandArgs(args, kwargs, hlineSpecs)
	if err != nil {
		return nil, err
	}

	price, _ := argFloat(vals[0])
	cmd := &DrawCommand{Type: "hline", Series: runtime.FloatValue{Val: price}}
	cmd.Title, _ = argString(vals[1])
	if color, ok := resolveColor(vals[2]); ok {
		cmd.Color = color
	}
	if width, ok := argInt(vals[4]); ok && width != 0 {
		cmd.Width = width
	}

	r.Plots = append(r.Plots, cmd)
	return cmd, nil
}

var fillSpecs = []argSpec{
	{name: "series1", kind: runtime.KindCommand, required: true},
	{name: "series2", kind: runtime.KindCommand, required: true},
	{name: "color", kind: kindAny},
	{name: "transp", kind: runtime.KindInteger},
	{name: "title", kind: runtime.KindString},
	{name: "editable", kind: runtime.KindBool},
	{name: "show_last", kind: runtime.KindInteger},
}

// fill shades the region between two previously drawn plots; its series
// arguments are the command records those plot calls returned.
func (r *Renderer) fill(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	vals, err := expandArgs(args, kwargs, fillSpecs)
	if err != nil {
		return nil, err
	}

	first, ok1 := vals[0].(*DrawCommand)
	second, ok2 := vals[1].(*DrawCommand)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: fill requires two plot results", runtime.ErrBadArgument)
	}
	cmd := &DrawCommand{Type: "fill", Series: first.Series, Series2: second.Series}
	cmd.Title, _ = argString(vals[4])
	if color, ok := resolveColor(vals[2]); ok {
		cmd.Color = color
	}
	if transp, ok := argInt(vals[3]); ok && transp != 0 {
		cmd.Opacity = float64(transp) * 0.01
	}

	r.Plots = append(r.Plots, cmd)
	return cmd, nil
}
