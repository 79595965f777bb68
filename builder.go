// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// Builder constructs instructions at an insertion point and verifies every
// request. With an insertion block and no position, instructions are appended
// to the block tail; with a position, they are inserted before it and the
// cursor stays stable.
type Builder struct {
	m     *Module
	block *BasicBlock
	pos   *Instruction
}

// NewBuilder returns a builder constructing IR owned by m.
func NewBuilder(m *Module) *Builder { return &Builder{m: m} }

// Module returns the module the builder constructs IR for.
func (b *Builder) Module() *Module { return b.m }

// InsertBlock returns the current insertion block, or nil.
func (b *Builder) InsertBlock() *BasicBlock { return b.block }

// SetInsertPoint makes the builder append to the tail of block.
func (b *Builder) SetInsertPoint(block *BasicBlock) {
	b.block = block
	b.pos = nil
	tlog.V("ir").Printw("insert point", "block", block.Name())
}

// SetInsertPointBefore makes the builder insert before inst. The cursor is
// stable: subsequent instructions keep landing before inst.
func (b *Builder) SetInsertPointBefore(inst *Instruction) {
	if inst.parent == nil {
		panic(errors.New("instruction has no parent block"))
	}

	b.block = inst.parent
	b.pos = inst
}

func (b *Builder) insert(i *Instruction, name string) *Instruction {
	if b.block == nil {
		panic(errors.New("no insertion point set"))
	}

	if !IsVoid(i.Type()) {
		if name == "" {
			name = b.block.parent.autoName()
		}
		i.SetName(name)
	}
	if b.pos != nil {
		b.block.InsertBefore(b.pos, i)
	} else {
		b.block.Append(i)
	}
	tlog.V("ir").Printw("emit", "op", i.opcode.String(), "name", i.Name(), "block", b.block.Name())
	return i
}

// CreateBinary emits a binary operation of the given opcode.
func (b *Builder) CreateBinary(op Opcode, lhs, rhs Value, name string) *Instruction {
	return b.insert(newBinary(op, lhs, rhs), name)
}

// CreateAdd emits an integer or float addition.
func (b *Builder) CreateAdd(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(Add, lhs, rhs, name)
}

// CreateSub emits an integer or float subtraction.
func (b *Builder) CreateSub(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(Sub, lhs, rhs, name)
}

// CreateMul emits an integer or float multiplication.
func (b *Builder) CreateMul(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(Mul, lhs, rhs, name)
}

// CreateUDiv emits an unsigned integer division.
func (b *Builder) CreateUDiv(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(UDiv, lhs, rhs, name)
}

// CreateSDiv emits a signed integer division.
func (b *Builder) CreateSDiv(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(SDiv, lhs, rhs, name)
}

// CreateURem emits an unsigned integer remainder.
func (b *Builder) CreateURem(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(URem, lhs, rhs, name)
}

// CreateSRem emits a signed integer remainder.
func (b *Builder) CreateSRem(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(SRem, lhs, rhs, name)
}

// CreateFAdd emits a float addition.
func (b *Builder) CreateFAdd(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(FAdd, lhs, rhs, name)
}

// CreateFSub emits a float subtraction.
func (b *Builder) CreateFSub(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(FSub, lhs, rhs, name)
}

// CreateFMul emits a float multiplication.
func (b *Builder) CreateFMul(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(FMul, lhs, rhs, name)
}

// CreateFDiv emits a float division.
func (b *Builder) CreateFDiv(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(FDiv, lhs, rhs, name)
}

// CreateAnd emits a bitwise and.
func (b *Builder) CreateAnd(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(And, lhs, rhs, name)
}

// CreateOr emits a bitwise or.
func (b *Builder) CreateOr(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(Or, lhs, rhs, name)
}

// CreateXor emits a bitwise exclusive or.
func (b *Builder) CreateXor(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(Xor, lhs, rhs, name)
}

// CreateShl emits a left shift.
func (b *Builder) CreateShl(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(Shl, lhs, rhs, name)
}

// CreateLShr emits a logical right shift.
func (b *Builder) CreateLShr(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(LShr, lhs, rhs, name)
}

// CreateAShr emits an arithmetic right shift.
func (b *Builder) CreateAShr(lhs, rhs Value, name string) *Instruction {
	return b.CreateBinary(AShr, lhs, rhs, name)
}

// CreateNeg emits an integer negation.
func (b *Builder) CreateNeg(v Value, name string) *Instruction {
	return b.insert(newUnary(Neg, v), name)
}

// CreateFNeg emits a float negation.
func (b *Builder) CreateFNeg(v Value, name string) *Instruction {
	return b.insert(newUnary(FNeg, v), name)
}

// CreateNot emits a bitwise complement.
func (b *Builder) CreateNot(v Value, name string) *Instruction {
	return b.insert(newUnary(Not, v), name)
}

// CreateICmp emits an integer comparison producing i1.
func (b *Builder) CreateICmp(pred ICmpPredicate, lhs, rhs Value, name string) *Instruction {
	return b.insert(newICmp(pred, lhs, rhs, b.m.IntType(1, true)), name)
}

// CreateFCmp emits a float comparison producing i1.
func (b *Builder) CreateFCmp(pred FCmpPredicate, lhs, rhs Value, name string) *Instruction {
	return b.insert(newFCmp(pred, lhs, rhs, b.m.IntType(1, true)), name)
}

// CreateAlloca emits a stack allocation of one instance of t.
func (b *Builder) CreateAlloca(t Type, name string) *Instruction {
	return b.insert(newAlloca(t, b.m.PointerType(t)), name)
}

// CreateLoad emits a load through ptr.
func (b *Builder) CreateLoad(ptr Value, name string) *Instruction {
	return b.insert(newLoad(ptr), name)
}

// CreateStore emits a store of v through ptr.
func (b *Builder) CreateStore(v, ptr Value) *Instruction {
	return b.insert(newStore(v, ptr, b.m.VoidType()), "")
}

// CreateGEP emits a typed address computation walking indices from base.
func (b *Builder) CreateGEP(base Value, indices []Value, name string) *Instruction {
	result := b.m.PointerType(gepWalk(base, indices))
	return b.insert(newGEP(base, indices, result), name)
}

// CreateStructGEP emits the address of the i-th member of the struct ptr
// points to.
func (b *Builder) CreateStructGEP(ptr Value, i int, name string) *Instruction {
	pt, ok := Unqualified(ptr.Type()).(*PointerType)
	if !ok {
		panic(errors.New("GEP base must be pointer"))
	}

	st, ok := Unqualified(pt.Element).(*StructType)
	if !ok {
		panic(errors.New("StructGEP base must point to struct"))
	}

	if i < 0 || i >= st.NumMembers() {
		panic(errors.New("Struct index out of bounds: %v", i))
	}

	i32 := b.m.IntType(32, true)
	return b.CreateGEP(ptr, []Value{b.m.GetConstantInt(i32, 0), b.m.GetConstantInt(i32, int64(i))}, name)
}

// CreateBr emits an unconditional branch and records the CFG edge.
func (b *Builder) CreateBr(target *BasicBlock) *Instruction {
	i := b.insert(newBr(target, b.m.VoidType()), "")
	b.block.AddSuccessor(target)
	return i
}

// CreateCondBr emits a conditional branch and records both CFG edges.
func (b *Builder) CreateCondBr(cond Value, t, f *BasicBlock) *Instruction {
	i := b.insert(newCondBr(cond, t, f, b.m.IntType(1, true), b.m.VoidType()), "")
	b.block.AddSuccessor(t)
	b.block.AddSuccessor(f)
	return i
}

// CreateRet emits a return of v, which must match the return type of the
// enclosing function. A function with a hidden return value type returns
// through its out-pointer parameter and takes a nil v here.
func (b *Builder) CreateRet(v Value) *Instruction {
	if b.block == nil {
		panic(errors.New("no insertion point set"))
	}

	f := b.block.parent
	if f.hiddenRetval != nil && v != nil {
		panic(errors.New("Return type mismatch"))
	}

	return b.insert(newRet(v, f.returnType, b.m.VoidType()), "")
}

// CreateRetVoid emits a return without a value.
func (b *Builder) CreateRetVoid() *Instruction { return b.CreateRet(nil) }

// CreateUnreachable emits an unreachable terminator.
func (b *Builder) CreateUnreachable() *Instruction {
	return b.insert(newUnreachable(b.m.VoidType()), "")
}

// CreatePhi emits a phi of type t. The instruction is placed at the end of
// the phi prefix of the insertion block regardless of the cursor, keeping
// phis in front by construction.
func (b *Builder) CreatePhi(t Type, name string) *Instruction {
	if b.block == nil {
		panic(errors.New("no insertion point set"))
	}

	i := newPhi(t)
	if name == "" {
		name = b.block.parent.autoName()
	}
	i.SetName(name)
	if pos := b.block.FirstNonPhi(); pos != nil {
		b.block.InsertBefore(pos, i)
	} else {
		b.block.Append(i)
	}
	tlog.V("ir").Printw("emit", "op", "phi", "name", name, "block", b.block.Name())
	return i
}

// CreateCall emits a direct call of callee.
func (b *Builder) CreateCall(callee *Function, args []Value, name string) *Instruction {
	return b.insert(newCall(Call, callee, args, callee.FunctionType(), callee.ReturnType()), name)
}

// CreateRawCall emits an indirect call through callee, any value of pointer
// to function type. The result type is recorded from the caller rather than
// derived from the callee handle.
func (b *Builder) CreateRawCall(callee Value, args []Value, result Type, name string) *Instruction {
	pt, ok := Unqualified(callee.Type()).(*PointerType)
	if !ok {
		panic(errors.New("Callee must be pointer to function"))
	}

	ft, ok := Unqualified(pt.Element).(*FunctionType)
	if !ok {
		panic(errors.New("Callee must be pointer to function"))
	}

	return b.insert(newCall(RawCall, callee, args, ft, result), name)
}

// CreateZExt emits a zero extension of v to the strictly wider integer type
// to.
func (b *Builder) CreateZExt(v Value, to Type, name string) *Instruction {
	return b.insert(newCast(ZExt, v, to), name)
}

// CreateSExt emits a sign extension of v to the strictly wider integer type
// to.
func (b *Builder) CreateSExt(v Value, to Type, name string) *Instruction {
	return b.insert(newCast(SExt, v, to), name)
}

// CreateTrunc emits a truncation of v to the strictly narrower integer type
// to.
func (b *Builder) CreateTrunc(v Value, to Type, name string) *Instruction {
	return b.insert(newCast(Trunc, v, to), name)
}

// CreateFPExt emits a float extension.
func (b *Builder) CreateFPExt(v Value, to Type, name string) *Instruction {
	return b.insert(newCast(FPExt, v, to), name)
}

// CreateFPTrunc emits a float truncation.
func (b *Builder) CreateFPTrunc(v Value, to Type, name string) *Instruction {
	return b.insert(newCast(FPTrunc, v, to), name)
}

// CreateSIToFP emits a signed integer to float conversion.
func (b *Builder) CreateSIToFP(v Value, to Type, name string) *Instruction {
	return b.insert(newCast(SIToFP, v, to), name)
}

// CreateUIToFP emits an unsigned integer to float conversion.
func (b *Builder) CreateUIToFP(v Value, to Type, name string) *Instruction {
	return b.insert(newCast(UIToFP, v, to), name)
}

// CreateFPToSI emits a float to signed integer conversion.
func (b *Builder) CreateFPToSI(v Value, to Type, name string) *Instruction {
	return b.insert(newCast(FPToSI, v, to), name)
}

// CreateFPToUI emits a float to unsigned integer conversion.
func (b *Builder) CreateFPToUI(v Value, to Type, name string) *Instruction {
	return b.insert(newCast(FPToUI, v, to), name)
}

// CreatePtrToInt emits a pointer to integer conversion.
func (b *Builder) CreatePtrToInt(v Value, to Type, name string) *Instruction {
	return b.insert(newCast(PtrToInt, v, to), name)
}

// CreateIntToPtr emits an integer to pointer conversion.
func (b *Builder) CreateIntToPtr(v Value, to Type, name string) *Instruction {
	return b.insert(newCast(IntToPtr, v, to), name)
}

// CreateBitCast emits a bit pattern preserving conversion between types of
// equal size.
func (b *Builder) CreateBitCast(v Value, to Type, name string) *Instruction {
	return b.insert(newCast(BitCast, v, to), name)
}

// CreateCast emits the conversion instruction appropriate for the source and
// target type. Casting to the identical type returns v and emits nothing.
// Integer widening picks sign or zero extension by the signedness of the
// source; integer to float conversions pick the signed or unsigned form by the
// signedness of the source, float to integer conversions by the signedness of
// the target. Combinations outside the dispatch table fail.
func (b *Builder) CreateCast(v Value, to Type, name string) Value {
	if v.Type() == to {
		return v
	}

	st := Unqualified(v.Type())
	tt := Unqualified(to)
	switch s := st.(type) {
	case *IntType:
		switch t := tt.(type) {
		case *IntType:
			switch {
			case s.BitWidth < t.BitWidth:
				if s.IsSigned {
					return b.CreateSExt(v, to, name)
				}

				return b.CreateZExt(v, to, name)
			case s.BitWidth > t.BitWidth:
				return b.CreateTrunc(v, to, name)
			}
		case *FloatType:
			if s.IsSigned {
				return b.CreateSIToFP(v, to, name)
			}

			return b.CreateUIToFP(v, to, name)
		case *PointerType:
			if defaultModel.Sizeof(s) == defaultModel.Sizeof(t) {
				return b.CreateBitCast(v, to, name)
			}
		}
	case *FloatType:
		switch t := tt.(type) {
		case *IntType:
			if t.IsSigned {
				return b.CreateFPToSI(v, to, name)
			}

			return b.CreateFPToUI(v, to, name)
		case *FloatType:
			if s.BitWidth < t.BitWidth {
				return b.CreateFPExt(v, to, name)
			}

			return b.CreateFPTrunc(v, to, name)
		}
	case *PointerType:
		switch t := tt.(type) {
		case *PointerType:
			return b.CreateBitCast(v, to, name)
		case *IntType:
			if defaultModel.Sizeof(s) == defaultModel.Sizeof(t) {
				return b.CreateBitCast(v, to, name)
			}
		}
	}
	panic(errors.New("Invalid cast from %s to %s", v.Type(), to))
}

// Int1 returns the i1 constant for v.
func (b *Builder) Int1(v bool) *ConstantInt {
	n := int64(0)
	if v {
		n = 1
	}
	return b.m.GetConstantInt(b.m.IntType(1, true), n)
}

// Int32 returns the i32 constant v.
func (b *Builder) Int32(v int64) *ConstantInt {
	return b.m.GetConstantInt(b.m.IntType(32, true), v)
}

// Int64 returns the i64 constant v.
func (b *Builder) Int64(v int64) *ConstantInt {
	return b.m.GetConstantInt(b.m.IntType(64, true), v)
}

// Float32 returns the f32 constant v.
func (b *Builder) Float32(v float64) *ConstantFP {
	return b.m.GetConstantFP(b.m.FloatType(32), v)
}

// Float64 returns the f64 constant v.
func (b *Builder) Float64(v float64) *ConstantFP {
	return b.m.GetConstantFP(b.m.FloatType(64), v)
}
