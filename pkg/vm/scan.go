package vm

import (
	"fmt"

	"pine/runtime-go/pkg/market"
	"pine/runtime-go/pkg/runtime"
)

// Scanner is the input-scanning runtime: it evaluates a script once to
// collect the ordered schema of its declared parameters, leaving every other
// call's behaviour untouched. Drawing calls are swallowed during the scan so
// any renderable script is also scannable.
type Scanner struct {
	*VM
	Inputs []InputDescriptor
}

// NewScanner builds an input-scanning runtime over the given market context.
func NewScanner(m market.Context) *Scanner {
	s := &Scanner{VM: New(m)}
	s.override("input", s.scanInput)
	s.override("plot", discardDraw)
	s.override("hline", discardDraw)
	s.override("fill", discardDraw)
	return s
}

func (s *Scanner) scanInput(_ *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	in, err := parseInputArgs(args, kwargs)
	if err != nil {
		return nil, err
	}

	recorded := in.defval
	if in.typ == "" {
		in.typ, recorded = inferInputType(in.defval)
	}
	if in.title == "" {
		in.title = fmt.Sprintf("input%d", len(s.Inputs)+1)
	}

	s.Inputs = append(s.Inputs, InputDescriptor{
		Default: recorded,
		Title:   in.title,
		Type:    in.typ,
		Min:     in.minval,
		Max:     in.maxval,
		Options: in.options,
	})

	// The rest of the script keeps evaluating with the live default.
	return in.defval, nil
}

// discardDraw replaces the drawing calls during the scan pass; it accepts any
// arguments and produces nothing.
func discardDraw(_ *VM, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	return runtime.NaN(), nil
}
