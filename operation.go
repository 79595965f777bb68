// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"tlog.app/go/errors"
)

// Instruction is one SSA operation. The opcode selects which of the typed
// accessors are meaningful. Instructions are created by the factory functions
// below, which verify operand shapes and types; a malformed request fails
// construction immediately.
type Instruction struct {
	UserBase
	opcode Opcode
	parent *BasicBlock
	prev   *Instruction
	next   *Instruction

	ipred     ICmpPredicate
	fpred     FCmpPredicate
	allocated Type // Alloca
}

func newInstruction(op Opcode, typ Type) *Instruction {
	i := &Instruction{opcode: op}
	i.typ = typ
	i.self = i
	return i
}

// Opcode returns the operation selector of i.
func (i *Instruction) Opcode() Opcode { return i.opcode }

// Parent returns the basic block owning i, or nil before insertion.
func (i *Instruction) Parent() *BasicBlock { return i.parent }

// Prev returns the previous instruction within the parent block.
func (i *Instruction) Prev() *Instruction { return i.prev }

// Next returns the next instruction within the parent block.
func (i *Instruction) Next() *Instruction { return i.next }

// IsTerminator reports whether i ends its block.
func (i *Instruction) IsTerminator() bool { return i.opcode.IsTerminator() }

// ICmpPred returns the predicate of an icmp instruction.
func (i *Instruction) ICmpPred() ICmpPredicate { return i.ipred }

// FCmpPred returns the predicate of an fcmp instruction.
func (i *Instruction) FCmpPred() FCmpPredicate { return i.fpred }

// AllocatedType returns the element type of an alloca instruction.
func (i *Instruction) AllocatedType() Type { return i.allocated }

// LHS returns the first operand of a binary instruction.
func (i *Instruction) LHS() Value { return i.Operand(0) }

// RHS returns the second operand of a binary instruction.
func (i *Instruction) RHS() Value { return i.Operand(1) }

// Source returns the operand of a conversion instruction.
func (i *Instruction) Source() Value { return i.Operand(0) }

// Pointer returns the address operand of a load or store instruction.
func (i *Instruction) Pointer() Value {
	if i.opcode == Store {
		return i.Operand(1)
	}

	return i.Operand(0)
}

// StoredValue returns the value operand of a store instruction.
func (i *Instruction) StoredValue() Value { return i.Operand(0) }

// IsConditional reports whether a branch instruction has two successors.
func (i *Instruction) IsConditional() bool { return i.opcode == CondBr }

// Condition returns the i1 operand of a conditional branch.
func (i *Instruction) Condition() Value { return i.Operand(0) }

// TrueSuccessor returns the taken target of a branch.
func (i *Instruction) TrueSuccessor() *BasicBlock {
	if i.opcode == CondBr {
		return i.Operand(1).(*BasicBlock)
	}

	return i.Operand(0).(*BasicBlock)
}

// FalseSuccessor returns the fall-through target of a conditional branch.
func (i *Instruction) FalseSuccessor() *BasicBlock { return i.Operand(2).(*BasicBlock) }

// ReturnValue returns the operand of a ret instruction, or nil for ret void.
func (i *Instruction) ReturnValue() Value {
	if len(i.operands) == 0 {
		return nil
	}

	return i.Operand(0)
}

// Callee returns the callee operand of a call instruction.
func (i *Instruction) Callee() Value { return i.Operand(0) }

// Arguments returns the argument operands of a call instruction.
func (i *Instruction) Arguments() []Value { return i.Operands()[1:] }

// BasePointer returns the base address operand of a getelementptr
// instruction.
func (i *Instruction) BasePointer() Value { return i.Operand(0) }

// Indices returns the index operands of a getelementptr instruction.
func (i *Instruction) Indices() []Value { return i.Operands()[1:] }

// NumIncoming returns the number of incoming pairs of a phi instruction.
func (i *Instruction) NumIncoming() int { return len(i.operands) / 2 }

// IncomingValue returns the value of the n-th incoming pair.
func (i *Instruction) IncomingValue(n int) Value { return i.Operand(2 * n) }

// IncomingBlock returns the block of the n-th incoming pair.
func (i *Instruction) IncomingBlock(n int) *BasicBlock { return i.Operand(2*n + 1).(*BasicBlock) }

// AddIncoming appends an incoming (value, block) pair to a phi instruction.
func (i *Instruction) AddIncoming(v Value, b *BasicBlock) {
	if i.opcode != Phi {
		panic(errors.New("not a phi instruction: %v", i.opcode))
	}

	if v.Type() != i.Type() {
		panic(errors.New("Phi incoming value type mismatch"))
	}

	i.addOperand(v)
	i.addOperand(b)
}

func isIntBinop(op Opcode) bool {
	switch op {
	case UDiv, SDiv, URem, SRem, And, Or, Xor, Shl, LShr, AShr:
		return true
	}

	return false
}

func newBinary(op Opcode, lhs, rhs Value) *Instruction {
	if lhs.Type() != rhs.Type() {
		panic(errors.New("Operand type mismatch"))
	}

	switch {
	case isIntBinop(op):
		if !IsInteger(lhs.Type()) {
			switch op {
			case UDiv, SDiv, URem, SRem:
				panic(errors.New("Division requires integer types"))
			case Shl, LShr, AShr:
				panic(errors.New("Shift requires integer types"))
			default:
				panic(errors.New("Bitwise operation requires integer types"))
			}
		}
	case op == FAdd || op == FSub || op == FMul || op == FDiv:
		if !IsFloat(lhs.Type()) {
			panic(errors.New("Operand type mismatch"))
		}
	default:
		if !IsInteger(lhs.Type()) && !IsFloat(lhs.Type()) {
			panic(errors.New("Operand type mismatch"))
		}
	}

	i := newInstruction(op, lhs.Type())
	i.addOperand(lhs)
	i.addOperand(rhs)
	return i
}

func newUnary(op Opcode, v Value) *Instruction {
	switch op {
	case Neg, Not:
		if !IsInteger(v.Type()) {
			panic(errors.New("Operand type mismatch"))
		}
	case FNeg:
		if !IsFloat(v.Type()) {
			panic(errors.New("Operand type mismatch"))
		}
	}

	i := newInstruction(op, v.Type())
	i.addOperand(v)
	return i
}

func newICmp(pred ICmpPredicate, lhs, rhs Value, i1 *IntType) *Instruction {
	if !IsInteger(lhs.Type()) || !IsInteger(rhs.Type()) {
		panic(errors.New("ICmp requires integer operands"))
	}

	if lhs.Type() != rhs.Type() {
		panic(errors.New("Operand type mismatch"))
	}

	i := newInstruction(ICmp, i1)
	i.ipred = pred
	i.addOperand(lhs)
	i.addOperand(rhs)
	return i
}

func newFCmp(pred FCmpPredicate, lhs, rhs Value, i1 *IntType) *Instruction {
	if !IsFloat(lhs.Type()) || !IsFloat(rhs.Type()) {
		panic(errors.New("FCmp requires float operands"))
	}

	if lhs.Type() != rhs.Type() {
		panic(errors.New("Operand type mismatch"))
	}

	i := newInstruction(FCmp, i1)
	i.fpred = pred
	i.addOperand(lhs)
	i.addOperand(rhs)
	return i
}

func newAlloca(t Type, ptr *PointerType) *Instruction {
	if defaultModel.Sizeof(t) == 0 {
		panic(errors.New("Cannot allocate zero-sized type"))
	}

	i := newInstruction(Alloca, ptr)
	i.allocated = t
	return i
}

func newLoad(ptr Value) *Instruction {
	pt, ok := Unqualified(ptr.Type()).(*PointerType)
	if !ok {
		panic(errors.New("Load operand must be pointer"))
	}

	if defaultModel.Sizeof(pt.Element) == 0 {
		panic(errors.New("Cannot load zero-sized type"))
	}

	i := newInstruction(Load, pt.Element)
	i.addOperand(ptr)
	return i
}

func newStore(v, ptr Value, void *VoidType) *Instruction {
	pt, ok := Unqualified(ptr.Type()).(*PointerType)
	if !ok {
		panic(errors.New("Store operand must be pointer"))
	}

	if Unqualified(pt.Element) != Unqualified(v.Type()) {
		panic(errors.New("Stored value type mismatch"))
	}

	i := newInstruction(Store, void)
	i.addOperand(v)
	i.addOperand(ptr)
	return i
}

// gepWalk computes the pointee type reached by walking indices from base.
// The first index stays within the pointee of base; each further index steps
// into the current aggregate. Struct member selection requires a constant
// integer index.
func gepWalk(base Value, indices []Value) Type {
	pt, ok := Unqualified(base.Type()).(*PointerType)
	if !ok {
		panic(errors.New("GEP base must be pointer"))
	}

	if len(indices) == 0 {
		panic(errors.New("GEP requires at least one index"))
	}

	cur := pt.Element
	for n, idx := range indices {
		if !IsInteger(idx.Type()) {
			panic(errors.New("GEP index must be integer"))
		}

		if n == 0 {
			continue
		}

		switch x := Unqualified(cur).(type) {
		case *ArrayType:
			cur = x.Item
		case *VectorType:
			cur = x.Item
		case *StructType:
			c, ok := idx.(*ConstantInt)
			if !ok {
				panic(errors.New("Struct index must be constant integer"))
			}

			k := c.SExtValue()
			if k < 0 || k >= int64(x.NumMembers()) {
				panic(errors.New("Struct index out of bounds: %v", k))
			}

			cur = x.Member(int(k)).Type
		default:
			panic(errors.New("GEP into non-aggregate type: %s", cur))
		}
	}
	return cur
}

func newGEP(base Value, indices []Value, result *PointerType) *Instruction {
	i := newInstruction(GetElementPtr, result)
	i.addOperand(base)
	for _, v := range indices {
		i.addOperand(v)
	}
	return i
}

func newBr(target *BasicBlock, void *VoidType) *Instruction {
	i := newInstruction(Br, void)
	i.addOperand(target)
	return i
}

func newCondBr(cond Value, t, f *BasicBlock, i1 *IntType, void *VoidType) *Instruction {
	if cond.Type() != Type(i1) {
		panic(errors.New("Condition must be i1 type"))
	}

	i := newInstruction(CondBr, void)
	i.addOperand(cond)
	i.addOperand(t)
	i.addOperand(f)
	return i
}

func newRet(v Value, ret Type, void *VoidType) *Instruction {
	i := newInstruction(Ret, void)
	switch {
	case v == nil:
		if !IsVoid(ret) {
			panic(errors.New("Return type mismatch"))
		}
	default:
		if v.Type() != ret {
			panic(errors.New("Return type mismatch"))
		}

		i.addOperand(v)
	}
	return i
}

func newUnreachable(void *VoidType) *Instruction {
	return newInstruction(Unreachable, void)
}

func newPhi(t Type) *Instruction {
	return newInstruction(Phi, t)
}

func newCall(op Opcode, callee Value, args []Value, ft *FunctionType, result Type) *Instruction {
	if len(args) != len(ft.Params) {
		panic(errors.New("Call argument count mismatch: %v != %v", len(args), len(ft.Params)))
	}

	for n, v := range args {
		if v.Type() != ft.Params[n].Type {
			panic(errors.New("Call argument type mismatch: %v", n))
		}
	}
	i := newInstruction(op, result)
	i.addOperand(callee)
	for _, v := range args {
		i.addOperand(v)
	}
	return i
}

func newCast(op Opcode, v Value, to Type) *Instruction {
	st := Unqualified(v.Type())
	tt := Unqualified(to)
	switch op {
	case ZExt, SExt, Trunc:
		s, ok1 := st.(*IntType)
		t, ok2 := tt.(*IntType)
		if !ok1 || !ok2 {
			panic(errors.New("%s requires integer types", op))
		}

		switch op {
		case ZExt:
			if t.BitWidth <= s.BitWidth {
				panic(errors.New("ZExt must expand to larger type"))
			}
		case SExt:
			if t.BitWidth <= s.BitWidth {
				panic(errors.New("SExt must expand to larger type"))
			}
		case Trunc:
			if t.BitWidth >= s.BitWidth {
				panic(errors.New("Trunc must truncate to smaller type"))
			}
		}
	case FPExt, FPTrunc:
		s, ok1 := st.(*FloatType)
		t, ok2 := tt.(*FloatType)
		if !ok1 || !ok2 {
			panic(errors.New("%s requires float types", op))
		}

		if op == FPExt && t.BitWidth <= s.BitWidth {
			panic(errors.New("FPExt must expand to larger type"))
		}

		if op == FPTrunc && t.BitWidth >= s.BitWidth {
			panic(errors.New("FPTrunc must truncate to smaller type"))
		}
	case SIToFP, UIToFP:
		if !IsInteger(v.Type()) || !IsFloat(to) {
			panic(errors.New("%s requires integer to float conversion", op))
		}
	case FPToSI, FPToUI:
		if !IsFloat(v.Type()) || !IsInteger(to) {
			panic(errors.New("%s requires float to integer conversion", op))
		}
	case PtrToInt:
		if !IsPointer(v.Type()) || !IsInteger(to) {
			panic(errors.New("PtrToInt requires pointer to integer conversion"))
		}
	case IntToPtr:
		if !IsInteger(v.Type()) || !IsPointer(to) {
			panic(errors.New("IntToPtr requires integer to pointer conversion"))
		}
	case BitCast:
		if defaultModel.Sizeof(st) != defaultModel.Sizeof(tt) {
			panic(errors.New("Bitcast types must have same size"))
		}
	}

	i := newInstruction(op, to)
	i.addOperand(v)
	return i
}
