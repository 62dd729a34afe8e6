// Package ast provides the node set chart scripts are built from. Each node
// implements the engine's single contract: evaluate against a given runtime.
package ast

import (
	"fmt"
	"math"

	"pine/runtime-go/pkg/runtime"
	"pine/runtime-go/pkg/vm"
)

// Script is a statement sequence; its value is the last statement's value.
type Script struct {
	Body []vm.Node
}

func (s *Script) Evaluate(v *vm.VM) (runtime.Value, error) {
	var last runtime.Value = runtime.NilValue{}
	for _, stmt := range s.Body {
		val, err := stmt.Evaluate(v)
		if err != nil {
			return nil, err
		}
		last = val
	}
	return last, nil
}

// Literal wraps a constant value.
type Literal struct {
	Val runtime.Value
}

func (n *Literal) Evaluate(v *vm.VM) (runtime.Value, error) {
	return n.Val, nil
}

// Ident resolves a name through the scope stack.
type Ident struct {
	Name string
}

func (n *Ident) Evaluate(v *vm.VM) (runtime.Value, error) {
	return v.LookupVariable(n.Name)
}

// Decl is declaration (`x = expr`): it binds in the innermost scope.
type Decl struct {
	Name string
	Expr vm.Node
}

func (n *Decl) Evaluate(v *vm.VM) (runtime.Value, error) {
	val, err := n.Expr.Evaluate(v)
	if err != nil {
		return nil, err
	}
	v.DefineVariable(n.Name, val)
	return val, nil
}

// Assign is mutation (`x := expr`): the name must already be declared
// somewhere in scope and the new value's kind must stay compatible.
type Assign struct {
	Name string
	Expr vm.Node
}

func (n *Assign) Evaluate(v *vm.VM) (runtime.Value, error) {
	val, err := n.Expr.Evaluate(v)
	if err != nil {
		return nil, err
	}
	return v.AssignVariable(n.Name, val)
}

// Index reaches back into a series' history: `x[2]` is two bars ago.
type Index struct {
	X    vm.Node
	Back vm.Node
}

func (n *Index) Evaluate(v *vm.VM) (runtime.Value, error) {
	target, err := n.X.Evaluate(v)
	if err != nil {
		return nil, err
	}
	if !runtime.IsSeries(target) {
		return nil, fmt.Errorf("%w: cannot index %s", runtime.ErrTypeMismatch, target.Kind())
	}
	backVal, err := n.Back.Evaluate(v)
	if err != nil {
		return nil, err
	}
	back, ok := backVal.(runtime.IntegerValue)
	if !ok || back.Val < 0 {
		return nil, fmt.Errorf("%w: history offset must be a non-negative integer", runtime.ErrTypeMismatch)
	}
	return seriesOf(target).At(-int(back.Val)), nil
}

// Cond is the ternary conditional expression.
type Cond struct {
	If   vm.Node
	Then vm.Node
	Else vm.Node
}

func (n *Cond) Evaluate(v *vm.VM) (runtime.Value, error) {
	cond, err := n.If.Evaluate(v)
	if err != nil {
		return nil, err
	}
	if runtime.Truthy(cond) {
		return n.Then.Evaluate(v)
	}
	if n.Else == nil {
		return runtime.NaN(), nil
	}
	return n.Else.Evaluate(v)
}

// Kwarg is one named argument in a call.
type Kwarg struct {
	Name string
	Expr vm.Node
}

// Call invokes a registry function with positional and named arguments.
type Call struct {
	Name   string
	Args   []vm.Node
	Kwargs []Kwarg
}

func (n *Call) Evaluate(v *vm.VM) (runtime.Value, error) {
	args := make([]runtime.Value, 0, len(n.Args))
	for _, argNode := range n.Args {
		val, err := argNode.Evaluate(v)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}
	var kwargs map[string]runtime.Value
	if len(n.Kwargs) > 0 {
		kwargs = make(map[string]runtime.Value, len(n.Kwargs))
		for _, kw := range n.Kwargs {
			val, err := kw.Expr.Evaluate(v)
			if err != nil {
				return nil, err
			}
			kwargs[kw.Name] = val
		}
	}
	return v.CallFunction(n.Name, args, kwargs)
}

// FuncDef registers a user-defined function under its name.
type FuncDef struct {
	Name   string
	Params []string
	Body   vm.Node
}

func (n *FuncDef) Evaluate(v *vm.VM) (runtime.Value, error) {
	v.RegisterFunction(n.Name, n.Params, n.Body)
	return runtime.NilValue{}, nil
}

// Unary applies "-" or "not".
type Unary struct {
	Op string
	X  vm.Node
}

func (n *Unary) Evaluate(v *vm.VM) (runtime.Value, error) {
	val, err := n.X.Evaluate(v)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "-":
		if runtime.IsSeries(val) {
			return mapSeries(seriesOf(val), func(f float64) float64 { return -f }), nil
		}
		switch x := val.(type) {
		case runtime.IntegerValue:
			return runtime.IntegerValue{Val: -x.Val}, nil
		case runtime.FloatValue:
			return runtime.FloatValue{Val: -x.Val}, nil
		}
		return nil, fmt.Errorf("%w: cannot negate %s", runtime.ErrTypeMismatch, val.Kind())
	case "not":
		return runtime.BoolValue{Val: !runtime.Truthy(val)}, nil
	default:
		return nil, fmt.Errorf("unsupported unary operator %q", n.Op)
	}
}

// Binary applies an arithmetic, comparison or logical operator. Arithmetic
// and comparisons distribute elementwise when either side is a series.
type Binary struct {
	Op string
	L  vm.Node
	R  vm.Node
}

func (n *Binary) Evaluate(v *vm.VM) (runtime.Value, error) {
	switch n.Op {
	case "and", "or":
		left, err := n.L.Evaluate(v)
		if err != nil {
			return nil, err
		}
		// Short-circuit.
		if n.Op == "and" && !runtime.Truthy(left) {
			return runtime.BoolValue{Val: false}, nil
		}
		if n.Op == "or" && runtime.Truthy(left) {
			return runtime.BoolValue{Val: true}, nil
		}
		right, err := n.R.Evaluate(v)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: runtime.Truthy(right)}, nil
	}

	left, err := n.L.Evaluate(v)
	if err != nil {
		return nil, err
	}
	right, err := n.R.Evaluate(v)
	if err != nil {
		return nil, err
	}
	return applyBinary(n.Op, left, right)
}

func seriesOf(v runtime.Value) *runtime.SeriesValue {
	switch s := v.(type) {
	case *runtime.SeriesValue:
		return s
	case *runtime.MarketSeriesValue:
		return &s.SeriesValue
	default:
		return nil
	}
}

func mapSeries(s *runtime.SeriesValue, f func(float64) float64) *runtime.SeriesValue {
	out := &runtime.SeriesValue{}
	for _, sample := range s.Floats() {
		out.Append(runtime.FloatValue{Val: f(sample)})
	}
	return out
}

func applyBinary(op string, left, right runtime.Value) (runtime.Value, error) {
	if runtime.IsSeries(left) || runtime.IsSeries(right) {
		return applySeriesBinary(op, left, right)
	}
	switch op {
	case "+", "-", "*", "/", "%":
		lf, lok := runtime.AsFloat(left)
		rf, rok := runtime.AsFloat(right)
		if !lok || !rok {
			return nil, fmt.Errorf("%w: %s %s %s", runtime.ErrTypeMismatch, left.Kind(), op, right.Kind())
		}
		f := numOp(op, lf, rf)
		if op != "/" && left.Kind() == runtime.KindInteger && right.Kind() == runtime.KindInteger {
			return runtime.IntegerValue{Val: int64(f)}, nil
		}
		return runtime.FloatValue{Val: f}, nil
	case "==", "!=":
		eq, err := valuesEqual(left, right)
		if err != nil {
			return nil, err
		}
		if op == "!=" {
			eq = !eq
		}
		return runtime.BoolValue{Val: eq}, nil
	case "<", "<=", ">", ">=":
		lf, lok := runtime.AsFloat(left)
		rf, rok := runtime.AsFloat(right)
		if !lok || !rok {
			return nil, fmt.Errorf("%w: %s %s %s", runtime.ErrTypeMismatch, left.Kind(), op, right.Kind())
		}
		return runtime.BoolValue{Val: cmpOp(op, lf, rf)}, nil
	default:
		return nil, fmt.Errorf("unsupported binary operator %q", op)
	}
}

func applySeriesBinary(op string, left, right runtime.Value) (runtime.Value, error) {
	ls, rs, err := alignSeries(left, right)
	if err != nil {
		return nil, err
	}
	out := &runtime.SeriesValue{}
	for i := range ls {
		switch op {
		case "+", "-", "*", "/", "%":
			out.Append(runtime.FloatValue{Val: numOp(op, ls[i], rs[i])})
		case "==", "!=", "<", "<=", ">", ">=":
			if math.IsNaN(ls[i]) || math.IsNaN(rs[i]) {
				out.Append(runtime.BoolValue{Val: false})
				continue
			}
			hit := cmpOp(op, ls[i], rs[i])
			out.Append(runtime.BoolValue{Val: hit})
		default:
			return nil, fmt.Errorf("unsupported binary operator %q", op)
		}
	}
	return out, nil
}

// alignSeries expands both operands to equal-length float slices; scalars
// repeat, and the shorter series is padded at the front with na.
func alignSeries(left, right runtime.Value) ([]float64, []float64, error) {
	n := 0
	if runtime.IsSeries(left) {
		n = seriesOf(left).Len()
	}
	if runtime.IsSeries(right) && seriesOf(right).Len() > n {
		n = seriesOf(right).Len()
	}
	expand := func(v runtime.Value) ([]float64, error) {
		if runtime.IsSeries(v) {
			data := seriesOf(v).Floats()
			for len(data) < n {
				data = append([]float64{math.NaN()}, data...)
			}
			return data, nil
		}
		f, ok := runtime.AsFloat(v)
		if !ok {
			return nil, fmt.Errorf("%w: cannot combine %s with a series", runtime.ErrTypeMismatch, v.Kind())
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = f
		}
		return out, nil
	}
	ls, err := expand(left)
	if err != nil {
		return nil, nil, err
	}
	rs, err := expand(right)
	if err != nil {
		return nil, nil, err
	}
	return ls, rs, nil
}

func numOp(op string, a, b float64) float64 {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	case "/":
		return a / b
	case "%":
		return math.Mod(a, b)
	default:
		return math.NaN()
	}
}

func cmpOp(op string, a, b float64) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	case "==":
		return a == b
	case "!=":
		return a != b
	default:
		return false
	}
}

func valuesEqual(left, right runtime.Value) (bool, error) {
	if lf, ok := runtime.AsFloat(left); ok {
		if rf, ok := runtime.AsFloat(right); ok {
			return lf == rf, nil
		}
		return false, nil
	}
	switch l := left.(type) {
	case runtime.StringValue:
		r, ok := right.(runtime.StringValue)
		return ok && l.Val == r.Val, nil
	case runtime.ColorValue:
		r, ok := right.(runtime.ColorValue)
		return ok && l.Val == r.Val, nil
	default:
		return left == right, nil
	}
}
