// Package vm implements the evaluation engine for chart scripts: lexical
// scoping, builtin dispatch, and the scan/render execution modes.
package vm

import (
	"errors"
	"fmt"

	"pine/runtime-go/pkg/market"
	"pine/runtime-go/pkg/runtime"
)

// Node is the contract the engine requires from a script's syntax tree: one
// operation, evaluate against a given runtime. The engine never inspects
// node internals.
type Node interface {
	Evaluate(v *VM) (runtime.Value, error)
}

// HostFunc is a builtin implementation. It receives the calling runtime and
// the call's positional and named arguments.
type HostFunc func(v *VM, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error)

// funcEntry is either a host callable or a user-defined script function;
// dispatch matches on the concrete type.
type funcEntry interface {
	isFuncEntry()
}

type hostFn struct {
	impl HostFunc
}

func (hostFn) isFuncEntry() {}

type scriptFn struct {
	params []string
	body   Node
}

func (scriptFn) isFuncEntry() {}

// VM is the mode-independent evaluation engine. Each instance owns its scope
// stack and function registry; the two execution modes are built on top of it
// by overlaying individual registry entries.
type VM struct {
	market  market.Context
	scopes  *runtime.ScopeStack
	funcs   map[string]funcEntry
	overlay map[string]HostFunc
	Title   string
}

// New builds a runtime bound to a market context, with the default builtin
// library loaded into the registry and the global scope.
func New(m market.Context) *VM {
	v := &VM{
		market:  m,
		scopes:  runtime.NewScopeStack(),
		funcs:   make(map[string]funcEntry),
		overlay: make(map[string]HostFunc),
		Title:   "No Title",
	}
	v.loadFunctions(defaultFunctions)
	v.loadVariables(defaultVariables)
	return v
}

// MarketData exposes the market context to builtin variable accessors.
func (v *VM) MarketData() market.Context {
	return v.market
}

// ScopeDepth reports the live scope count (1 = global only).
func (v *VM) ScopeDepth() int {
	return v.scopes.Depth()
}

// PushScope and PopScope expose scope entry/exit for node evaluation. Callers
// must guarantee the pop on every exit path; prefer WithScope.
func (v *VM) PushScope() { v.scopes.Push() }
func (v *VM) PopScope()  { v.scopes.Pop() }

// WithScope runs fn inside a fresh scope with a guaranteed release.
func (v *VM) WithScope(fn func() error) error {
	return v.scopes.WithScope(fn)
}

// DefineVariable binds name in the innermost scope.
func (v *VM) DefineVariable(name string, value runtime.Value) {
	v.scopes.Define(name, value)
}

// AssignVariable mutates an already-declared name, wherever it is bound.
func (v *VM) AssignVariable(name string, value runtime.Value) (runtime.Value, error) {
	return v.scopes.Assign(name, value)
}

// LookupVariable resolves name through the scope stack. Builtin accessor
// values are invoked against the live runtime and their result returned.
func (v *VM) LookupVariable(name string) (runtime.Value, error) {
	val, err := v.scopes.Resolve(name)
	if err != nil {
		return nil, err
	}
	if acc, ok := val.(runtime.AccessorValue); ok {
		out, err := acc.Get(v)
		if err != nil {
			if errors.Is(err, runtime.ErrNotImplemented) {
				return nil, fmt.Errorf("%w: %s", runtime.ErrUnimplementedVariable, name)
			}
			return nil, err
		}
		return out, nil
	}
	return val, nil
}

// RegisterFunction installs a user-defined script function. The most recent
// registration under a name wins.
func (v *VM) RegisterFunction(name string, params []string, body Node) {
	v.funcs[name] = scriptFn{params: params, body: body}
}

// override installs a mode-specific handler; the overlay is consulted before
// the base registry.
func (v *VM) override(name string, fn HostFunc) {
	v.overlay[name] = fn
}

// CallFunction resolves name and dispatches to a host callable or a
// user-defined function body.
func (v *VM) CallFunction(name string, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	if fn, ok := v.overlay[name]; ok {
		return v.callHost(name, fn, args, kwargs)
	}
	entry, ok := v.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", runtime.ErrUnknownFunction, name)
	}
	switch fn := entry.(type) {
	case hostFn:
		return v.callHost(name, fn.impl, args, kwargs)
	case scriptFn:
		return v.callScript(name, fn, args, kwargs)
	default:
		return nil, fmt.Errorf("%w: %s", runtime.ErrUnknownFunction, name)
	}
}

func (v *VM) callHost(name string, fn HostFunc, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	out, err := fn(v, args, kwargs)
	if err != nil {
		if errors.Is(err, runtime.ErrNotImplemented) {
			return nil, fmt.Errorf("%w: %s", runtime.ErrUnimplementedFunction, name)
		}
		if errors.Is(err, runtime.ErrBadArgument) {
			return nil, fmt.Errorf("%w: %s", err, name)
		}
		return nil, err
	}
	return out, nil
}

func (v *VM) callScript(name string, fn scriptFn, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	var result runtime.Value
	err := v.scopes.WithScope(func() error {
		for i, param := range fn.params {
			if i >= len(args) {
				break
			}
			v.scopes.Define(param, args[i])
		}
		for k, a := range kwargs {
			v.scopes.Define(k, a)
		}
		for _, param := range fn.params {
			if !v.scopes.DefinedLocally(param) {
				return fmt.Errorf("%w: %s (calling %s)", runtime.ErrMissingArgument, param, name)
			}
		}
		out, err := fn.body.Evaluate(v)
		if err != nil {
			return err
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EvalScript evaluates a whole script inside one scope, so top-level locals
// do not leak into the global scope.
func (v *VM) EvalScript(node Node) (runtime.Value, error) {
	var result runtime.Value
	err := v.scopes.WithScope(func() error {
		out, err := node.Evaluate(v)
		if err != nil {
			return err
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
