// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"bytes"
	"io"

	"github.com/ssakit/ir/internal/buffer"
	"github.com/cznic/strutil"
)

// FormatValue renders a value the way instruction operands are rendered:
// constants by their payload, globals and functions with an @ prefix,
// everything else with a % prefix.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case Constant:
		return x.AsString()
	case *GlobalVariable:
		return "@" + x.Name()
	case *Function:
		return "@" + x.Name()
	default:
		return "%" + v.Name()
	}
}

// InstructionString renders one instruction in its canonical form, without
// indentation.
func InstructionString(i *Instruction) string {
	var buf buffer.Bytes
	defer buf.Close()

	w := func(s string) { buf.Write([]byte(s)) }
	def := func() {
		w("%")
		w(i.Name())
		w(" = ")
	}
	operand := func(v Value) {
		w(v.Type().String())
		w(" ")
		w(FormatValue(v))
	}

	switch op := i.opcode; op {
	case Alloca:
		def()
		w("alloca ")
		w(i.allocated.String())
	case Load:
		def()
		w("load ")
		w(i.Type().String())
		w(", ")
		operand(i.Pointer())
	case Store:
		w("store ")
		operand(i.StoredValue())
		w(", ")
		operand(i.Pointer())
	case ICmp:
		def()
		w("icmp ")
		w(i.ipred.String())
		w(" ")
		operand(i.LHS())
		w(", ")
		w(FormatValue(i.RHS()))
	case FCmp:
		def()
		w("fcmp ")
		w(i.fpred.String())
		w(" ")
		operand(i.LHS())
		w(", ")
		w(FormatValue(i.RHS()))
	case GetElementPtr:
		def()
		w("getelementptr ")
		w(Unqualified(i.BasePointer().Type()).(*PointerType).Element.String())
		w(", ")
		operand(i.BasePointer())
		for _, v := range i.Indices() {
			w(", ")
			operand(v)
		}
	case Br:
		w("br label ")
		w(FormatValue(i.TrueSuccessor()))
	case CondBr:
		w("br ")
		operand(i.Condition())
		w(", label ")
		w(FormatValue(i.TrueSuccessor()))
		w(", label ")
		w(FormatValue(i.FalseSuccessor()))
	case Ret:
		if v := i.ReturnValue(); v != nil {
			w("ret ")
			operand(v)
		} else {
			w("ret void")
		}
	case Unreachable:
		w("unreachable")
	case Phi:
		def()
		w("phi ")
		w(i.Type().String())
		w(" ")
		for n := 0; n < i.NumIncoming(); n++ {
			if n != 0 {
				w(", ")
			}
			w("[ ")
			w(FormatValue(i.IncomingValue(n)))
			w(", ")
			w(FormatValue(i.IncomingBlock(n)))
			w(" ]")
		}
	case Call, RawCall:
		if !IsVoid(i.Type()) {
			def()
		}
		w("call ")
		w(i.Type().String())
		w(" ")
		w(FormatValue(i.Callee()))
		w("(")
		for n, v := range i.Arguments() {
			if n != 0 {
				w(", ")
			}
			operand(v)
		}
		w(")")
	case Neg, FNeg, Not:
		def()
		w(op.String())
		w(" ")
		operand(i.Source())
	case Trunc, ZExt, SExt, FPTrunc, FPExt, FPToUI, FPToSI, UIToFP, SIToFP, PtrToInt, IntToPtr, BitCast:
		def()
		w(op.String())
		w(" ")
		operand(i.Source())
		w(" to ")
		w(i.Type().String())
	default:
		def()
		w(op.String())
		w(" ")
		operand(i.LHS())
		w(", ")
		w(FormatValue(i.RHS()))
	}
	return string(buf.Bytes())
}

// PrintBasicBlock writes b in its canonical form: the label at column zero
// and every instruction indented.
func PrintBasicBlock(w io.Writer, b *BasicBlock) {
	f := strutil.IndentFormatter(w, "  ")
	printBasicBlock(f, b)
}

func printBasicBlock(f strutil.Formatter, b *BasicBlock) {
	f.Format("%s:\n%i", b.Name())
	for i := b.head; i != nil; i = i.next {
		f.Format("%s\n", InstructionString(i))
	}
	f.Format("%u")
}

// PrintFunction writes f in its canonical form. Functions without a body are
// rendered as declarations.
func PrintFunction(w io.Writer, fn *Function) {
	f := strutil.IndentFormatter(w, "  ")
	printFunction(f, fn)
}

func printFunction(f strutil.Formatter, fn *Function) {
	if len(fn.blocks) == 0 {
		f.Format("declare %s @%s(", fn.returnType, fn.Name())
		for i, t := range fn.ParamTypes() {
			if i != 0 {
				f.Format(", ")
			}
			f.Format("%s", t)
		}
		f.Format(")\n")
		return
	}

	f.Format("define %s @%s(", fn.returnType, fn.Name())
	for i, a := range fn.args {
		if i != 0 {
			f.Format(", ")
		}
		f.Format("%s %s", a.Type(), FormatValue(a))
	}
	f.Format(") {\n")
	for _, b := range fn.blocks {
		printBasicBlock(f, b)
	}
	f.Format("}\n")
}

// PrintGlobalVariable writes g in its canonical form.
func PrintGlobalVariable(w io.Writer, g *GlobalVariable) {
	f := strutil.IndentFormatter(w, "  ")
	printGlobalVariable(f, g)
}

func printGlobalVariable(f strutil.Formatter, g *GlobalVariable) {
	kind := "global"
	if g.isConstant {
		kind = "constant"
	}
	init := "zeroinitializer"
	if g.init != nil {
		init = g.init.AsString()
	}
	f.Format("@%s = %s %s %s\n", g.Name(), kind, g.Type(), init)
}

// PrintModule writes m in its canonical form: named struct definitions,
// global variables, then functions, in creation order.
func PrintModule(w io.Writer, m *Module) {
	f := strutil.IndentFormatter(w, "  ")
	for _, t := range m.structs {
		if t.Opaque() {
			f.Format("%s = type opaque\n", t)
			continue
		}

		f.Format("%s = type {", t)
		for i, v := range t.Members() {
			if i != 0 {
				f.Format(",")
			}
			f.Format(" %s", v.Type)
		}
		f.Format(" }\n")
	}
	for _, g := range m.globals {
		printGlobalVariable(f, g)
	}
	for _, fn := range m.funcs {
		printFunction(f, fn)
	}
}

// String renders m in its canonical textual form.
func (m *Module) String() string {
	var b bytes.Buffer
	PrintModule(&b, m)
	return b.String()
}
