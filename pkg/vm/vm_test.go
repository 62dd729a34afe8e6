package vm

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"pine/runtime-go/pkg/market"
	"pine/runtime-go/pkg/runtime"
)

// The engine only requires nodes to expose Evaluate; these stubs are the
// whole AST surface the dispatch tests need.
type constNode struct {
	val runtime.Value
}

func (n constNode) Evaluate(*VM) (runtime.Value, error) { return n.val, nil }

type lookupNode struct {
	name string
}

func (n lookupNode) Evaluate(v *VM) (runtime.Value, error) { return v.LookupVariable(n.name) }

type failNode struct {
	err error
}

func (n failNode) Evaluate(*VM) (runtime.Value, error) { return nil, n.err }

func testMarket() *market.Snapshot {
	return &market.Snapshot{
		Open:  []float64{1, 2, 3},
		High:  []float64{2, 3, 4},
		Low:   []float64{0.5, 1.5, 2.5},
		Close: []float64{1.5, 2.5, 3.5},
	}
}

func TestCallUnknownFunction(t *testing.T) {
	v := New(testMarket())
	_, err := v.CallFunction("bogus", nil, nil)
	if !errors.Is(err, runtime.ErrUnknownFunction) {
		t.Fatalf("expected ErrUnknownFunction, got %v", err)
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Fatalf("error should carry the function name: %v", err)
	}
}

func TestCallHostFunction(t *testing.T) {
	v := New(testMarket())
	out, err := v.CallFunction("max", []runtime.Value{
		runtime.IntegerValue{Val: 3},
		runtime.IntegerValue{Val: 7},
	}, nil)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if n := out.(runtime.IntegerValue); n.Val != 7 {
		t.Fatalf("unexpected result %#v", out)
	}
}

func TestNamespacedRegistration(t *testing.T) {
	v := New(testMarket())
	out, err := v.CallFunction("math.max", []runtime.Value{
		runtime.FloatValue{Val: 1.5},
		runtime.FloatValue{Val: 2.5},
	}, nil)
	if err != nil {
		t.Fatalf("math.max call failed: %v", err)
	}
	if f, _ := runtime.AsFloat(out); f != 2.5 {
		t.Fatalf("unexpected result %#v", out)
	}
	if _, err := v.CallFunction("math__max", nil, nil); !errors.Is(err, runtime.ErrUnknownFunction) {
		t.Fatalf("raw table key must not be registered: %v", err)
	}
}

func TestCanonicalName(t *testing.T) {
	if got := canonicalName("math__max"); got != "math.max" {
		t.Fatalf("unexpected canonical name %q", got)
	}
	if got := canonicalName("_private"); got != "" {
		t.Fatalf("underscore-prefixed names must be skipped, got %q", got)
	}
	if got := canonicalName("plot"); got != "plot" {
		t.Fatalf("plain names must pass through, got %q", got)
	}
}

func TestHostArgumentErrorNamesFunction(t *testing.T) {
	v := New(testMarket())
	_, err := v.CallFunction("sqrt", []runtime.Value{runtime.StringValue{Val: "nope"}}, nil)
	if !errors.Is(err, runtime.ErrBadArgument) {
		t.Fatalf("expected ErrBadArgument, got %v", err)
	}
	if !strings.Contains(err.Error(), "sqrt") {
		t.Fatalf("error should carry the function name: %v", err)
	}
}

func TestHostUnimplementedSignal(t *testing.T) {
	v := New(testMarket())
	v.funcs["rsi"] = hostFn{impl: func(*VM, []runtime.Value, map[string]runtime.Value) (runtime.Value, error) {
		return nil, runtime.ErrNotImplemented
	}}
	_, err := v.CallFunction("rsi", nil, nil)
	if !errors.Is(err, runtime.ErrUnimplementedFunction) {
		t.Fatalf("expected ErrUnimplementedFunction, got %v", err)
	}
	if !strings.Contains(err.Error(), "rsi") {
		t.Fatalf("error should carry the function name: %v", err)
	}
}

func TestUserFunctionCall(t *testing.T) {
	v := New(testMarket())
	v.RegisterFunction("pick", []string{"a", "b"}, lookupNode{name: "b"})

	out, err := v.CallFunction("pick", []runtime.Value{
		runtime.IntegerValue{Val: 1},
		runtime.IntegerValue{Val: 2},
	}, nil)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if n := out.(runtime.IntegerValue); n.Val != 2 {
		t.Fatalf("unexpected result %#v", out)
	}
}

func TestUserFunctionNamedBinding(t *testing.T) {
	v := New(testMarket())
	v.RegisterFunction("pick", []string{"a", "b"}, lookupNode{name: "a"})

	out, err := v.CallFunction("pick",
		[]runtime.Value{runtime.IntegerValue{Val: 1}},
		map[string]runtime.Value{"b": runtime.IntegerValue{Val: 2}})
	if err != nil {
		t.Fatalf("mixed binding failed: %v", err)
	}
	if n := out.(runtime.IntegerValue); n.Val != 1 {
		t.Fatalf("unexpected result %#v", out)
	}
}

func TestUserFunctionMissingArgument(t *testing.T) {
	v := New(testMarket())
	v.RegisterFunction("pick", []string{"a", "b"}, lookupNode{name: "a"})

	// Only the named argument b: a stays unbound.
	_, err := v.CallFunction("pick", nil, map[string]runtime.Value{"b": runtime.IntegerValue{Val: 2}})
	if !errors.Is(err, runtime.ErrMissingArgument) {
		t.Fatalf("expected ErrMissingArgument, got %v", err)
	}

	// One positional argument: b stays unbound.
	_, err = v.CallFunction("pick", []runtime.Value{runtime.IntegerValue{Val: 1}}, nil)
	if !errors.Is(err, runtime.ErrMissingArgument) {
		t.Fatalf("expected ErrMissingArgument, got %v", err)
	}
}

func TestUserFunctionScopeReleasedOnFailure(t *testing.T) {
	v := New(testMarket())
	boom := fmt.Errorf("body exploded")
	v.RegisterFunction("bad", []string{"a"}, failNode{err: boom})

	before := v.ScopeDepth()
	_, err := v.CallFunction("bad", []runtime.Value{runtime.IntegerValue{Val: 1}}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected body failure, got %v", err)
	}
	if v.ScopeDepth() != before {
		t.Fatalf("scope leaked: before=%d after=%d", before, v.ScopeDepth())
	}
}

func TestUserFunctionArgumentsScoped(t *testing.T) {
	v := New(testMarket())
	v.RegisterFunction("id", []string{"a"}, lookupNode{name: "a"})

	if _, err := v.CallFunction("id", []runtime.Value{runtime.IntegerValue{Val: 5}}, nil); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if _, err := v.LookupVariable("a"); !errors.Is(err, runtime.ErrUnboundVariable) {
		t.Fatalf("argument leaked out of the call scope: %v", err)
	}
}

func TestLatestRegistrationWins(t *testing.T) {
	v := New(testMarket())
	v.RegisterFunction("abs", []string{"x"}, constNode{val: runtime.StringValue{Val: "shadowed"}})

	out, err := v.CallFunction("abs", []runtime.Value{runtime.IntegerValue{Val: -1}}, nil)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if s, ok := out.(runtime.StringValue); !ok || s.Val != "shadowed" {
		t.Fatalf("redefinition did not win: %#v", out)
	}
}

func TestOverlayWinsOverBase(t *testing.T) {
	v := New(testMarket())
	v.override("abs", func(*VM, []runtime.Value, map[string]runtime.Value) (runtime.Value, error) {
		return runtime.StringValue{Val: "overlaid"}, nil
	})
	out, err := v.CallFunction("abs", nil, nil)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if s := out.(runtime.StringValue); s.Val != "overlaid" {
		t.Fatalf("overlay ignored: %#v", out)
	}
}

func TestLookupInvokesAccessor(t *testing.T) {
	v := New(testMarket())
	out, err := v.LookupVariable("close")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	ms, ok := out.(*runtime.MarketSeriesValue)
	if !ok {
		t.Fatalf("expected market series, got %#v", out)
	}
	if f, _ := runtime.AsFloat(ms.At(0)); f != 3.5 {
		t.Fatalf("unexpected current close %v", f)
	}
}

func TestLookupUnimplementedVariable(t *testing.T) {
	v := New(testMarket()) // no volume data loaded
	_, err := v.LookupVariable("volume")
	if !errors.Is(err, runtime.ErrUnimplementedVariable) {
		t.Fatalf("expected ErrUnimplementedVariable, got %v", err)
	}
	if !strings.Contains(err.Error(), "volume") {
		t.Fatalf("error should carry the variable name: %v", err)
	}
}

func TestBarIndexVariable(t *testing.T) {
	v := New(testMarket())
	out, err := v.LookupVariable("n")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if n := out.(runtime.IntegerValue); n.Val != 2 {
		t.Fatalf("unexpected bar index %#v", out)
	}
}

func TestEvalScriptScopesTopLevel(t *testing.T) {
	v := New(testMarket())
	defineNode := evalFunc(func(v *VM) (runtime.Value, error) {
		v.DefineVariable("local", runtime.IntegerValue{Val: 1})
		return runtime.NilValue{}, nil
	})
	if _, err := v.EvalScript(defineNode); err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if _, err := v.LookupVariable("local"); !errors.Is(err, runtime.ErrUnboundVariable) {
		t.Fatalf("top-level local leaked into the global scope: %v", err)
	}
	if v.ScopeDepth() != 1 {
		t.Fatalf("unbalanced scopes after script: %d", v.ScopeDepth())
	}
}

type evalFunc func(*VM) (runtime.Value, error)

func (f evalFunc) Evaluate(v *VM) (runtime.Value, error) { return f(v) }

func TestExpandArgsRejectsCollision(t *testing.T) {
	specs := []argSpec{{name: "x", kind: kindAny, required: true}}
	_, err := expandArgs(
		[]runtime.Value{runtime.IntegerValue{Val: 1}},
		map[string]runtime.Value{"x": runtime.IntegerValue{Val: 2}},
		specs)
	if !errors.Is(err, runtime.ErrBadArgument) {
		t.Fatalf("expected ErrBadArgument, got %v", err)
	}
}

func TestExpandArgsRejectsUnknownName(t *testing.T) {
	specs := []argSpec{{name: "x", kind: kindAny, required: true}}
	_, err := expandArgs(nil, map[string]runtime.Value{"y": runtime.IntegerValue{Val: 2}}, specs)
	if !errors.Is(err, runtime.ErrBadArgument) {
		t.Fatalf("expected ErrBadArgument, got %v", err)
	}
}

func TestExpandArgsRejectsExtraPositional(t *testing.T) {
	specs := []argSpec{{name: "x", kind: kindAny, required: true}}
	_, err := expandArgs([]runtime.Value{
		runtime.IntegerValue{Val: 1},
		runtime.IntegerValue{Val: 2},
	}, nil, specs)
	if !errors.Is(err, runtime.ErrBadArgument) {
		t.Fatalf("expected ErrBadArgument, got %v", err)
	}
}
