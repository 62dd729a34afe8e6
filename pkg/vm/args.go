package vm

import (
	"fmt"

	"pine/runtime-go/pkg/runtime"
)

// kindAny disables the kind check for one argument slot.
const kindAny runtime.Kind = -1

type argSpec struct {
	name     string
	kind     runtime.Kind
	required bool
}

// expandArgs validates a builtin call's arguments against an ordered spec and
// returns one value per slot, nil where an optional argument was omitted.
// Positional arguments fill slots in order; named arguments fill by name and
// may not collide with a slot already filled positionally.
func expandArgs(args []runtime.Value, kwargs map[string]runtime.Value, specs []argSpec) ([]runtime.Value, error) {
	out := make([]runtime.Value, len(specs))
	if len(args) > len(specs) {
		return nil, fmt.Errorf("%w: expected at most %d positional arguments, got %d",
			runtime.ErrBadArgument, len(specs), len(args))
	}
	copy(out, args)

	for name, val := range kwargs {
		idx := -1
		for i, spec := range specs {
			if spec.name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: unknown argument %q", runtime.ErrBadArgument, name)
		}
		if out[idx] != nil {
			return nil, fmt.Errorf("%w: %q given both positionally and by name", runtime.ErrBadArgument, name)
		}
		out[idx] = val
	}

	for i, spec := range specs {
		if out[i] == nil {
			if spec.required {
				return nil, fmt.Errorf("%w: missing required argument %q", runtime.ErrBadArgument, spec.name)
			}
			continue
		}
		if err := checkArgKind(spec, out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func checkArgKind(spec argSpec, val runtime.Value) error {
	if spec.kind == kindAny {
		return nil
	}
	switch spec.kind {
	case runtime.KindSeries:
		// Either series flavour satisfies a series slot.
		if runtime.IsSeries(val) {
			return nil
		}
	case runtime.KindFloat:
		// Integers widen to float slots.
		if k := val.Kind(); k == runtime.KindFloat || k == runtime.KindInteger {
			return nil
		}
	default:
		if val.Kind() == spec.kind {
			return nil
		}
	}
	return fmt.Errorf("%w: %q must be %s, got %s", runtime.ErrBadArgument, spec.name, spec.kind, val.Kind())
}

// argInt and argFloat read validated optional slots, tolerating nil.
func argInt(v runtime.Value) (int64, bool) {
	if n, ok := v.(runtime.IntegerValue); ok {
		return n.Val, true
	}
	return 0, false
}

func argFloat(v runtime.Value) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return runtime.AsFloat(v)
}

func argString(v runtime.Value) (string, bool) {
	if n, ok := v.(runtime.StringValue); ok {
		return n.Val, true
	}
	return "", false
}
