package vm

import (
	"pine/runtime-go/pkg/runtime"
)

// InputDescriptor is the declared schema for one user-configurable script
// parameter, collected in declaration order by the scan pass.
type InputDescriptor struct {
	Default runtime.Value
	Title   string
	Type    string
	Min     runtime.Value
	Max     runtime.Value
	Options runtime.Value
}

// inputArgs holds one parsed input() call.
type inputArgs struct {
	defval  runtime.Value
	title   string
	typ     string
	minval  runtime.Value
	maxval  runtime.Value
	confirm runtime.Value
	step    runtime.Value
	options runtime.Value
}

var inputSpecs = []argSpec{
	{name: "defval", kind: kindAny, required: true},
	{name: "title", kind: runtime.KindString},
	{name: "type", kind: runtime.KindString},
	{name: "minval", kind: kindAny},
	{name: "maxval", kind: kindAny},
	{name: "confirm", kind: runtime.KindBool},
	{name: "step", kind: kindAny},
	{name: "options", kind: kindAny},
}

func parseInputArgs(args []runtime.Value, kwargs map[string]runtime.Value) (inputArgs, error) {
	vals, err := expandArgs(args, kwargs, inputSpecs)
	if err != nil {
		return inputArgs{}, err
	}
	in := inputArgs{
		defval:  vals[0],
		minval:  vals[3],
		maxval:  vals[4],
		confirm: vals[5],
		step:    vals[6],
		options: vals[7],
	}
	in.title, _ = argString(vals[1])
	in.typ, _ = argString(vals[2])
	return in, nil
}

// inferInputType maps a default value's kind to the declared parameter type
// and picks what to record as the default: market series record their
// symbolic variable name, not the live data.
func inferInputType(defval runtime.Value) (string, runtime.Value) {
	switch d := defval.(type) {
	case runtime.BoolValue:
		return "bool", defval
	case runtime.IntegerValue:
		return "integer", defval
	case runtime.FloatValue:
		return "float", defval
	case *runtime.MarketSeriesValue:
		return "source", runtime.StringValue{Val: d.Name}
	default:
		return "string", defval
	}
}

// baseInput is the mode-independent input() handler: it validates the call
// and hands the default straight back, so a script evaluates with its
// defaults when neither execution mode has installed its own handler.
func baseInput(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	in, err := parseInputArgs(args, kwargs)
	if err != nil {
		return nil, err
	}
	return in.defval, nil
}
