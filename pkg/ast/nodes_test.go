package ast

import (
	"errors"
	"testing"

	"pine/runtime-go/pkg/market"
	"pine/runtime-go/pkg/runtime"
	"pine/runtime-go/pkg/vm"
)

func testMarket() *market.Snapshot {
	return &market.Snapshot{
		Open:  []float64{1, 2, 3},
		High:  []float64{2, 3, 4},
		Low:   []float64{0.5, 1.5, 2.5},
		Close: []float64{1.5, 2.5, 3.5},
	}
}

func evalScript(t *testing.T, script vm.Node) runtime.Value {
	t.Helper()
	v := vm.New(testMarket())
	out, err := v.EvalScript(script)
	if err != nil {
		t.Fatalf("script failed: %v", err)
	}
	return out
}

func TestDeclThenIdent(t *testing.T) {
	out := evalScript(t, Block(
		Let("x", Int(41)),
		Set("x", Bin("+", ID("x"), Int(1))),
		ID("x"),
	))
	if n := out.(runtime.IntegerValue); n.Val != 42 {
		t.Fatalf("unexpected result %#v", out)
	}
}

func TestAssignRequiresDeclaration(t *testing.T) {
	v := vm.New(testMarket())
	_, err := v.EvalScript(Block(Set("x", Int(1))))
	if !errors.Is(err, runtime.ErrUnboundVariable) {
		t.Fatalf("expected ErrUnboundVariable, got %v", err)
	}
}

func TestAssignKindChecked(t *testing.T) {
	v := vm.New(testMarket())
	_, err := v.EvalScript(Block(
		Let("x", Int(1)),
		Set("x", Str("oops")),
	))
	if !errors.Is(err, runtime.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestSeriesReassignmentCovariant(t *testing.T) {
	// A variable holding a market series may be reassigned a computed one.
	out := evalScript(t, Block(
		Let("src", ID("close")),
		Set("src", CallPos("sma", ID("close"), Int(2))),
		Idx(ID("src"), 0),
	))
	if f, _ := runtime.AsFloat(out); f != 3 {
		t.Fatalf("unexpected result %v", out)
	}
}

func TestHistoryIndexing(t *testing.T) {
	out := evalScript(t, Idx(ID("close"), 1))
	if f, _ := runtime.AsFloat(out); f != 2.5 {
		t.Fatalf("close[1] = %v, want 2.5", f)
	}

	out = evalScript(t, Idx(ID("close"), 10))
	if !runtime.IsNa(out) {
		t.Fatalf("indexing beyond history must read na, got %#v", out)
	}
}

func TestIndexRejectsScalar(t *testing.T) {
	v := vm.New(testMarket())
	_, err := v.EvalScript(Block(Idx(Int(5), 1)))
	if !errors.Is(err, runtime.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestBinaryScalars(t *testing.T) {
	out := evalScript(t, Bin("*", Int(6), Int(7)))
	if n, ok := out.(runtime.IntegerValue); !ok || n.Val != 42 {
		t.Fatalf("integer arithmetic broken: %#v", out)
	}

	out = evalScript(t, Bin("/", Int(1), Int(2)))
	if f, ok := out.(runtime.FloatValue); !ok || f.Val != 0.5 {
		t.Fatalf("division must widen to float: %#v", out)
	}

	out = evalScript(t, Bin("<", Float(1.5), Int(2)))
	if b := out.(runtime.BoolValue); !b.Val {
		t.Fatalf("comparison broken: %#v", out)
	}
}

func TestBinaryElementwiseOverSeries(t *testing.T) {
	out := evalScript(t, Block(
		Let("spread", Bin("-", ID("high"), ID("low"))),
		Idx(ID("spread"), 0),
	))
	if f, _ := runtime.AsFloat(out); f != 1.5 {
		t.Fatalf("elementwise subtraction broken: %v", f)
	}

	out = evalScript(t, Block(
		Let("scaled", Bin("*", ID("close"), Int(2))),
		Idx(ID("scaled"), 2),
	))
	if f, _ := runtime.AsFloat(out); f != 3 {
		t.Fatalf("scalar broadcasting broken: %v", f)
	}
}

func TestLogicShortCircuits(t *testing.T) {
	// The right side would fail with UnboundVariable if evaluated.
	out := evalScript(t, Bin("and", Bool(false), ID("ghost")))
	if b := out.(runtime.BoolValue); b.Val {
		t.Fatalf("expected false")
	}
	out = evalScript(t, Bin("or", Bool(true), ID("ghost")))
	if b := out.(runtime.BoolValue); !b.Val {
		t.Fatalf("expected true")
	}
}

func TestUnary(t *testing.T) {
	out := evalScript(t, Un("-", Int(3)))
	if n := out.(runtime.IntegerValue); n.Val != -3 {
		t.Fatalf("negation broken: %#v", out)
	}
	out = evalScript(t, Un("not", Bool(false)))
	if b := out.(runtime.BoolValue); !b.Val {
		t.Fatalf("not broken: %#v", out)
	}
}

func TestConditional(t *testing.T) {
	out := evalScript(t, Tern(Bin(">", Int(2), Int(1)), Str("up"), Str("down")))
	if s := out.(runtime.StringValue); s.Val != "up" {
		t.Fatalf("unexpected branch %#v", out)
	}

	out = evalScript(t, Tern(Bool(false), Str("up"), nil))
	if !runtime.IsNa(out) {
		t.Fatalf("missing else must produce na, got %#v", out)
	}
}

func TestUserFunctionDefinitionAndCall(t *testing.T) {
	out := evalScript(t, Block(
		Fn("mid", []string{"a", "b"},
			Bin("/", Bin("+", ID("a"), ID("b")), Float(2)),
		),
		CallPos("mid", Float(10), Float(20)),
	))
	if f, _ := runtime.AsFloat(out); f != 15 {
		t.Fatalf("user function broken: %v", f)
	}
}

func TestUserFunctionNamedArguments(t *testing.T) {
	out := evalScript(t, Block(
		Fn("mid", []string{"a", "b"},
			Bin("/", Bin("+", ID("a"), ID("b")), Float(2)),
		),
		CallKw("mid", []vm.Node{Float(10)}, Kw("b", Float(30))),
	))
	if f, _ := runtime.AsFloat(out); f != 20 {
		t.Fatalf("named binding broken: %v", f)
	}
}

func TestScriptValueIsLastStatement(t *testing.T) {
	out := evalScript(t, Block(Int(1), Int(2), Int(3)))
	if n := out.(runtime.IntegerValue); n.Val != 3 {
		t.Fatalf("unexpected script value %#v", out)
	}
}
