package ast

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"pine/runtime-go/pkg/runtime"
	"pine/runtime-go/pkg/vm"
)

// DecodeScript parses a YAML script document into a node tree. The document
// is a nested mapping where every node carries a "type" discriminator; see
// DecodeNode for the node shapes.
func DecodeScript(data []byte) (vm.Node, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("script document: %w", err)
	}
	return DecodeNode(raw)
}

// DecodeNode turns one decoded mapping into an AST node.
func DecodeNode(node map[string]any) (vm.Node, error) {
	typ, _ := node["type"].(string)
	switch typ {
	case "Script":
		body, err := decodeBody(node["body"])
		if err != nil {
			return nil, err
		}
		return &Script{Body: body}, nil
	case "Literal":
		val, err := decodeScalar(node["value"])
		if err != nil {
			return nil, err
		}
		return &Literal{Val: val}, nil
	case "Ident":
		name, ok := node["name"].(string)
		if !ok {
			return nil, fmt.Errorf("Ident node missing name")
		}
		return &Ident{Name: name}, nil
	case "Decl", "Assign":
		name, ok := node["name"].(string)
		if !ok {
			return nil, fmt.Errorf("%s node missing name", typ)
		}
		expr, err := decodeChild(node, "expr")
		if err != nil {
			return nil, err
		}
		if typ == "Decl" {
			return &Decl{Name: name, Expr: expr}, nil
		}
		return &Assign{Name: name, Expr: expr}, nil
	case "Binary":
		op, _ := node["op"].(string)
		left, err := decodeChild(node, "left")
		if err != nil {
			return nil, err
		}
		right, err := decodeChild(node, "right")
		if err != nil {
			return nil, err
		}
		return &Binary{Op: op, L: left, R: right}, nil
	case "Unary":
		op, _ := node["op"].(string)
		x, err := decodeChild(node, "x")
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, X: x}, nil
	case "Index":
		x, err := decodeChild(node, "x")
		if err != nil {
			return nil, err
		}
		back, err := decodeChild(node, "back")
		if err != nil {
			return nil, err
		}
		return &Index{X: x, Back: back}, nil
	case "Cond":
		cond, err := decodeChild(node, "if")
		if err != nil {
			return nil, err
		}
		then, err := decodeChild(node, "then")
		if err != nil {
			return nil, err
		}
		var els vm.Node
		if _, ok := node["else"]; ok {
			els, err = decodeChild(node, "else")
			if err != nil {
				return nil, err
			}
		}
		return &Cond{If: cond, Then: then, Else: els}, nil
	case "Call":
		name, ok := node["name"].(string)
		if !ok {
			return nil, fmt.Errorf("Call node missing name")
		}
		call := &Call{Name: name}
		if rawArgs, ok := node["args"].([]any); ok {
			for _, raw := range rawArgs {
				child, ok := raw.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("call %s: invalid argument entry %T", name, raw)
				}
				arg, err := DecodeNode(child)
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, arg)
			}
		}
		if rawKwargs, ok := node["kwargs"].(map[string]any); ok {
			for key, raw := range rawKwargs {
				child, ok := raw.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("call %s: invalid named argument %q", name, key)
				}
				arg, err := DecodeNode(child)
				if err != nil {
					return nil, err
				}
				call.Kwargs = append(call.Kwargs, Kwarg{Name: key, Expr: arg})
			}
		}
		return call, nil
	case "FuncDef":
		name, ok := node["name"].(string)
		if !ok {
			return nil, fmt.Errorf("FuncDef node missing name")
		}
		var params []string
		if rawParams, ok := node["params"].([]any); ok {
			for _, raw := range rawParams {
				param, ok := raw.(string)
				if !ok {
					return nil, fmt.Errorf("function %s: invalid parameter %T", name, raw)
				}
				params = append(params, param)
			}
		}
		body, err := decodeBody(node["body"])
		if err != nil {
			return nil, err
		}
		return &FuncDef{Name: name, Params: params, Body: &Script{Body: body}}, nil
	default:
		return nil, fmt.Errorf("unknown node type %q", typ)
	}
}

func decodeBody(raw any) ([]vm.Node, error) {
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("body must be a sequence, got %T", raw)
	}
	body := make([]vm.Node, 0, len(entries))
	for _, entry := range entries {
		child, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid body entry %T", entry)
		}
		stmt, err := DecodeNode(child)
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	return body, nil
}

func decodeChild(node map[string]any, key string) (vm.Node, error) {
	child, ok := node[key].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing %q child node", key)
	}
	return DecodeNode(child)
}

func decodeScalar(raw any) (runtime.Value, error) {
	switch val := raw.(type) {
	case bool:
		return runtime.BoolValue{Val: val}, nil
	case int:
		return runtime.IntegerValue{Val: int64(val)}, nil
	case int64:
		return runtime.IntegerValue{Val: val}, nil
	case float64:
		return runtime.FloatValue{Val: val}, nil
	case string:
		return runtime.StringValue{Val: val}, nil
	case nil:
		return runtime.NaN(), nil
	default:
		return nil, fmt.Errorf("unsupported literal %T", raw)
	}
}
