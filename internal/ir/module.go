package ir

import "sort"

// Module owns every function and type descriptor built from an external
// IR module (spec.md §3 "Module"). Nothing in this package constructs a
// Module from source text or an on-disk format — that belongs to the
// out-of-scope front-end/IR-builder collaborator named in spec.md §1;
// NewModule is the seam a caller already holding decoded types/functions
// plugs into.
type Module struct {
	Types     map[TypeID]*TypeDescriptor
	Functions map[FuncID]*Function

	nextType TypeID
	nextFunc FuncID
}

func NewModule() *Module {
	return &Module{
		Types:     make(map[TypeID]*TypeDescriptor),
		Functions: make(map[FuncID]*Function),
	}
}

// DefineType registers a descriptor under a freshly allocated id.
func (m *Module) DefineType(d TypeDescriptor) TypeID {
	id := m.nextType
	m.nextType++
	d.ID = id
	m.Types[id] = &d
	return id
}

// DefineFunction registers fn under a freshly allocated id.
func (m *Module) DefineFunction(fn *Function) FuncID {
	id := m.nextFunc
	m.nextFunc++
	fn.ID = id
	m.Functions[id] = fn
	return id
}

// FunctionIDs returns every function id in deterministic ascending order
// (spec.md §6 "iterate functions").
func (m *Module) FunctionIDs() []FuncID {
	ids := make([]FuncID, 0, len(m.Functions))
	for id := range m.Functions {
		ids = append(ids, id)
	}
	sortFuncIDs(ids)
	return ids
}

// TypeIDs returns every named type id in deterministic ascending order
// (spec.md §6 "iterate named types").
func (m *Module) TypeIDs() []TypeID {
	ids := make([]TypeID, 0, len(m.Types))
	for id := range m.Types {
		ids = append(ids, id)
	}
	sortTypeIDs(ids)
	return ids
}

func sortFuncIDs(ids []FuncID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func sortTypeIDs(ids []TypeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
