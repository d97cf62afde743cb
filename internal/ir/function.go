package ir

// Function is a single function's declaration, locals layout, code
// container and debug-info side-table (spec.md §3 "Function").
type Function struct {
	ID   FuncID
	Name string

	Params       []TypeID
	Result       TypeID // NoType for a void return
	Variadic     bool
	ReturnsTwice bool // setjmp-like: may appear to return more than once

	LocalsType TypeID // NoType if the function declares no locals struct

	Code  *Code
	Debug *DebugInfo
}

// NewFunction returns a Function with a fresh, single-entry-block Code
// container and an empty debug-info table.
func NewFunction(name string) *Function {
	return &Function{
		Name:   name,
		Result: NoType,
		Code:   NewCode(),
		Debug:  NewDebugInfo(),
	}
}
