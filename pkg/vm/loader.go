package vm

import (
	"strings"

	"pine/runtime-go/pkg/runtime"
)

// Registration tables use identifier-style keys: a double underscore becomes
// the namespacing dot ("math__max" registers as "math.max") and keys starting
// with an underscore are private helpers, skipped entirely.
func canonicalName(name string) string {
	if strings.HasPrefix(name, "_") {
		return ""
	}
	return strings.ReplaceAll(name, "__", ".")
}

func (v *VM) loadFunctions(table map[string]HostFunc) {
	for name, fn := range table {
		name = canonicalName(name)
		if name == "" {
			continue
		}
		v.funcs[name] = hostFn{impl: fn}
	}
}

func (v *VM) loadVariables(table map[string]runtime.Value) {
	for name, val := range table {
		name = canonicalName(name)
		if name == "" {
			continue
		}
		v.scopes.DefineGlobal(name, val)
	}
}
