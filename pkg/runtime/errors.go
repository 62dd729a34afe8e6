package runtime

import "errors"

// Every detected violation is fatal to the evaluation pass; the engine never
// recovers locally. Callers match on these sentinels with errors.Is.
var (
	ErrUnboundVariable       = errors.New("variable not found")
	ErrUnknownFunction       = errors.New("function not found")
	ErrTypeMismatch          = errors.New("invalid type to assign")
	ErrMissingArgument       = errors.New("missing argument")
	ErrBadArgument           = errors.New("bad argument")
	ErrUnimplementedVariable = errors.New("variable is not implemented")
	ErrUnimplementedFunction = errors.New("function is not implemented")

	// ErrNotImplemented is the signal a builtin returns when it is declared
	// but unsupported; the dispatcher rewraps it with the builtin's name as
	// ErrUnimplementedVariable or ErrUnimplementedFunction.
	ErrNotImplemented = errors.New("not implemented")
)
