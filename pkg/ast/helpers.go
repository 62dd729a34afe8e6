package ast

import (
	"pine/runtime-go/pkg/runtime"
	"pine/runtime-go/pkg/vm"
)

// Compact constructors, mainly for building scripts in tests and fixtures.

func Block(stmts ...vm.Node) *Script {
	return &Script{Body: stmts}
}

func ID(name string) *Ident {
	return &Ident{Name: name}
}

func Bool(b bool) *Literal {
	return &Literal{Val: runtime.BoolValue{Val: b}}
}

func Int(i int64) *Literal {
	return &Literal{Val: runtime.IntegerValue{Val: i}}
}

func Float(f float64) *Literal {
	return &Literal{Val: runtime.FloatValue{Val: f}}
}

func Str(s string) *Literal {
	return &Literal{Val: runtime.StringValue{Val: s}}
}

func Let(name string, expr vm.Node) *Decl {
	return &Decl{Name: name, Expr: expr}
}

func Set(name string, expr vm.Node) *Assign {
	return &Assign{Name: name, Expr: expr}
}

func Bin(op string, l, r vm.Node) *Binary {
	return &Binary{Op: op, L: l, R: r}
}

func Un(op string, x vm.Node) *Unary {
	return &Unary{Op: op, X: x}
}

func Idx(x vm.Node, back int64) *Index {
	return &Index{X: x, Back: Int(back)}
}

func Tern(cond, then, els vm.Node) *Cond {
	return &Cond{If: cond, Then: then, Else: els}
}

func Kw(name string, expr vm.Node) Kwarg {
	return Kwarg{Name: name, Expr: expr}
}

func CallPos(name string, args ...vm.Node) *Call {
	return &Call{Name: name, Args: args}
}

func CallKw(name string, args []vm.Node, kwargs ...Kwarg) *Call {
	return &Call{Name: name, Args: args, Kwargs: kwargs}
}

func Fn(name string, params []string, body ...vm.Node) *FuncDef {
	return &FuncDef{Name: name, Params: params, Body: Block(body...)}
}
