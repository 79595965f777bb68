// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ir implements a typed intermediate representation of compiled
// programs in static single assignment form.
//
// A Module owns every type, constant, global variable and function, and
// transitively every basic block and instruction. Types and scalar constants
// are uniqued: structurally equal requests return the identical handle, so
// handle equality is type equality. IR is constructed through the Builder,
// which verifies operand shapes and types on every operation.
//
// See: https://en.wikipedia.org/wiki/Intermediate_representation
package ir

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// GlobalVariable is a module level variable or constant definition.
type GlobalVariable struct {
	ValueBase
	Linkage
	parent     *Module
	isConstant bool
	init       Constant
}

// Parent returns the module owning g.
func (g *GlobalVariable) Parent() *Module { return g.parent }

// IsConstant reports whether g is immutable.
func (g *GlobalVariable) IsConstant() bool { return g.isConstant }

// Initializer returns the initializer of g, or nil for zero initialization.
func (g *GlobalVariable) Initializer() Constant { return g.init }

// Module is the top level container and sole owner of every IR entity. A
// module and everything it owns is single-threaded by contract.
type Module struct {
	ModuleName string
	Types      TypeCache

	funcs     []*Function
	funcIndex map[string]*Function

	globals     []*GlobalVariable
	globalIndex map[string]*GlobalVariable

	structs []*StructType

	constInts  map[constIntKey]*ConstantInt
	constFPs   map[constFPKey]*ConstantFP
	constNulls map[*PointerType]*ConstantPointerNull
	constZeros map[Type]*ConstantAggregateZero
}

// NewModule returns a new, empty module.
func NewModule(name string) *Module {
	return &Module{
		ModuleName:  name,
		Types:       TypeCache{},
		funcIndex:   map[string]*Function{},
		globalIndex: map[string]*GlobalVariable{},
		constInts:   map[constIntKey]*ConstantInt{},
		constFPs:    map[constFPKey]*ConstantFP{},
		constNulls:  map[*PointerType]*ConstantPointerNull{},
		constZeros:  map[Type]*ConstantAggregateZero{},
	}
}

// VoidType returns the void type.
func (m *Module) VoidType() *VoidType { return m.Types.VoidType() }

// IntType returns the integer type of the given bit width and signedness.
func (m *Module) IntType(bits int, signed bool) *IntType { return m.Types.IntType(bits, signed) }

// FloatType returns the floating point type of the given bit width.
func (m *Module) FloatType(bits int) *FloatType { return m.Types.FloatType(bits) }

// PointerType returns the type of a pointer to element.
func (m *Module) PointerType(element Type) *PointerType { return m.Types.PointerType(element) }

// ArrayType returns the type of items consecutive instances of item.
func (m *Module) ArrayType(item Type, items int64) *ArrayType { return m.Types.ArrayType(item, items) }

// VectorType returns the type of items lanes of item.
func (m *Module) VectorType(item Type, items int64) *VectorType {
	return m.Types.VectorType(item, items)
}

// FunctionType returns the type of a function taking params and returning
// ret.
func (m *Module) FunctionType(ret Type, params []Param) *FunctionType {
	return m.Types.FunctionType(ret, params)
}

// AnonStructType returns the anonymous struct type with the given members.
func (m *Module) AnonStructType(members []Member) *StructType {
	return m.Types.AnonStructType(members)
}

// CreateStructType registers a new opaque struct type under name.
func (m *Module) CreateStructType(name string) *StructType {
	t := m.Types.CreateStructType(name)
	m.structs = append(m.structs, t)
	return t
}

// StructType returns the named struct type registered under name, if any.
func (m *Module) StructType(name string) *StructType { return m.Types.StructType(name) }

// QualifiedType returns base wrapped with the qualifiers in q.
func (m *Module) QualifiedType(q Qualifier, base Type) Type { return m.Types.QualifiedType(q, base) }

// ParseType parses a type specifier and returns the canonical handle it
// denotes. Parsing the rendered name of a type returns the identical handle.
func (m *Module) ParseType(s string) (Type, error) {
	return m.Types.Type(TypeID(dict.ID([]byte(s))))
}

// MustParseType is like ParseType but panics on error.
func (m *Module) MustParseType(s string) Type {
	return m.Types.MustType(TypeID(dict.ID([]byte(s))))
}

// CreateFunction registers a new function with external linkage. The function
// name must be unique within the module.
func (m *Module) CreateFunction(name string, ret Type, params []Param) *Function {
	if m.funcIndex[name] != nil {
		panic(errors.New("duplicate function name: @%s", name))
	}

	f := &Function{
		Linkage:    ExternalLinkage,
		parent:     m,
		returnType: ret,
	}
	f.typ = m.FunctionType(ret, params)
	f.SetName(name)
	for i, p := range f.FunctionType().Params {
		a := &Argument{parent: f, index: i}
		a.typ = p.Type
		a.SetName(p.Name)
		f.args = append(f.args, a)
	}
	m.funcs = append(m.funcs, f)
	m.funcIndex[name] = f
	tlog.V("ir").Printw("function created", "name", name, "type", f.typ.String())
	return f
}

// Function returns the function registered under name, if any.
func (m *Module) Function(name string) *Function { return m.funcIndex[name] }

// Functions returns the functions of m in creation order.
func (m *Module) Functions() []*Function { return m.funcs }

// CreateGlobalVariable registers a new global with external linkage. A nil
// initializer means zero initialization. The global variable name must be
// unique within the module.
func (m *Module) CreateGlobalVariable(name string, t Type, isConstant bool, init Constant) *GlobalVariable {
	if m.globalIndex[name] != nil {
		panic(errors.New("duplicate global variable name: @%s", name))
	}

	if init != nil && Unqualified(init.Type()) != Unqualified(t) {
		panic(errors.New("global initializer type mismatch: @%s", name))
	}

	g := &GlobalVariable{
		Linkage:    ExternalLinkage,
		parent:     m,
		isConstant: isConstant,
		init:       init,
	}
	g.typ = t
	g.SetName(name)
	m.globals = append(m.globals, g)
	m.globalIndex[name] = g
	return g
}

// GlobalVariable returns the global registered under name, if any.
func (m *Module) GlobalVariable(name string) *GlobalVariable { return m.globalIndex[name] }

// Globals returns the global variables of m in creation order.
func (m *Module) Globals() []*GlobalVariable { return m.globals }

// Verify re-checks the structural invariants of every function in m.
func (m *Module) Verify() error {
	for _, f := range m.funcs {
		if err := f.Verify(); err != nil {
			return err
		}
	}
	return nil
}
