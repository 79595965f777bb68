// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"strconv"

	"tlog.app/go/errors"
)

// Argument is a formal parameter of a function.
type Argument struct {
	ValueBase
	parent *Function
	index  int
}

// Parent returns the function owning a.
func (a *Argument) Parent() *Function { return a.parent }

// Index returns the position of a in the argument list.
func (a *Argument) Index() int { return a.index }

// Function is an ordered list of basic blocks together with its formal
// arguments. The first block is the entry block.
type Function struct {
	ValueBase
	Linkage
	parent     *Module
	returnType Type
	args       []*Argument
	blocks     []*BasicBlock

	hiddenRetval     Type
	isInstanceMethod bool
	nameSeq          int
}

// Parent returns the module owning f.
func (f *Function) Parent() *Module { return f.parent }

// FunctionType returns the type of f.
func (f *Function) FunctionType() *FunctionType { return f.typ.(*FunctionType) }

// ReturnType returns the return type of f. It is void when a hidden return
// value type is set.
func (f *Function) ReturnType() Type { return f.returnType }

// NumArgs returns the number of formal arguments of f.
func (f *Function) NumArgs() int { return len(f.args) }

// Arg returns the i-th formal argument of f.
func (f *Function) Arg(i int) *Argument { return f.args[i] }

// Args returns the formal arguments of f.
func (f *Function) Args() []*Argument { return f.args }

// ParamTypes returns the types of the formal arguments of f.
func (f *Function) ParamTypes() []Type { return f.FunctionType().ParamTypes() }

// Blocks returns the basic blocks of f.
func (f *Function) Blocks() []*BasicBlock { return f.blocks }

// EntryBlock returns the first basic block of f, or nil.
func (f *Function) EntryBlock() *BasicBlock {
	if len(f.blocks) == 0 {
		return nil
	}

	return f.blocks[0]
}

// HiddenRetvalType returns the type of the implicit out-pointer parameter, if
// any.
func (f *Function) HiddenRetvalType() Type { return f.hiddenRetval }

// SetHiddenRetvalType marks f as returning an aggregate through an implicit
// out-pointer parameter. The logical return type of f becomes void.
func (f *Function) SetHiddenRetvalType(t Type) {
	f.hiddenRetval = t
	f.returnType = f.parent.VoidType()
}

// IsInstanceMethod reports whether f was lowered from an instance method.
func (f *Function) IsInstanceMethod() bool { return f.isInstanceMethod }

// SetInstanceMethod marks f as lowered from an instance method.
func (f *Function) SetInstanceMethod(v bool) { f.isInstanceMethod = v }

// CreateBasicBlock allocates a new owned block and appends it to f.
func (f *Function) CreateBasicBlock(name string) *BasicBlock {
	if name == "" {
		name = f.autoName()
	}

	b := &BasicBlock{parent: f}
	b.typ = f.parent.VoidType()
	b.SetName(name)
	f.blocks = append(f.blocks, b)
	return b
}

// RemoveBasicBlock unlinks b from f, destroying its instructions. A block
// with incoming CFG edges cannot be removed.
func (f *Function) RemoveBasicBlock(b *BasicBlock) {
	if b.parent != f {
		panic(errors.New("basic block not in function @%s", f.Name()))
	}

	if len(b.preds) != 0 {
		panic(errors.New("cannot remove basic block with predecessors: %%%s", b.Name()))
	}

	for b.tail != nil {
		b.Remove(b.tail)
	}
	for i, v := range f.blocks {
		if v == b {
			f.blocks = append(f.blocks[:i], f.blocks[i+1:]...)
			break
		}
	}
	b.parent = nil
}

func (f *Function) autoName() string {
	f.nameSeq++
	return "t" + strconv.Itoa(f.nameSeq)
}

// Verify re-checks the structural invariants of f and returns the first
// violation found, if any: terminator discipline, phi placement, CFG edge
// consistency, entry block reachability and def-use symmetry.
func (f *Function) Verify() error {
	if len(f.blocks) == 0 {
		return errors.New("function @%s has no blocks", f.Name())
	}

	if len(f.blocks[0].preds) != 0 {
		return errors.New("function @%s: entry block has predecessors", f.Name())
	}

	for _, b := range f.blocks {
		if err := f.verifyBlock(b); err != nil {
			return errors.Wrap(err, "function @%s", f.Name())
		}
	}
	return nil
}

func (f *Function) verifyBlock(b *BasicBlock) error {
	term := b.Terminator()
	if term == nil {
		return errors.New("block %%%s: missing terminator", b.Name())
	}

	phiDone := false
	for i := b.head; i != nil; i = i.next {
		if i.IsTerminator() && i != term {
			return errors.New("block %%%s: terminator %s before end of block", b.Name(), i.opcode)
		}

		switch {
		case i.opcode == Phi:
			if phiDone {
				return errors.New("block %%%s: phi after non-phi instruction", b.Name())
			}
		default:
			phiDone = true
		}

		for _, op := range i.Operands() {
			if countUses(i, op.Users()) != countOperands(op, i.Operands()) {
				return errors.New("block %%%s: asymmetric def-use edge on %%%s", b.Name(), i.Name())
			}
		}
	}

	var want []*BasicBlock
	switch term.opcode {
	case Br:
		want = []*BasicBlock{term.TrueSuccessor()}
	case CondBr:
		want = []*BasicBlock{term.TrueSuccessor(), term.FalseSuccessor()}
	}
	if len(want) != len(b.succs) {
		return errors.New("block %%%s: successor count inconsistent with terminator", b.Name())
	}

	for _, s := range want {
		n := 0
		for _, v := range b.succs {
			if v == s {
				n++
			}
		}
		k := 0
		for _, v := range s.preds {
			if v == b {
				k++
			}
		}
		if n == 0 || n != k {
			return errors.New("block %%%s: CFG edge to %%%s inconsistent", b.Name(), s.Name())
		}
	}
	return nil
}

func countUses(u User, users []User) int {
	n := 0
	for _, v := range users {
		if v == u {
			n++
		}
	}
	return n
}

func countOperands(v Value, operands []Value) int {
	n := 0
	for _, w := range operands {
		if w == v {
			n++
		}
	}
	return n
}
