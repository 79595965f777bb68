// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"strings"
	"testing"
)

func TestConstantIntUniqueness(t *testing.T) {
	m := NewModule("t")
	i8 := m.IntType(8, true)
	i32 := m.IntType(32, true)

	if g, e := m.GetConstantInt(i32, 42), m.GetConstantInt(i32, 42); g != e {
		t.Fatal(g, e)
	}

	if g, e := m.GetConstantInt(i32, 42), m.GetConstantInt(i8, 42); g == e {
		t.Fatal(g)
	}

	// Payloads agreeing modulo the bit width share the handle.
	if g, e := m.GetConstantInt(i8, 256+1), m.GetConstantInt(i8, 1); g != e {
		t.Fatal(g, e)
	}

	c := m.GetConstantInt(i8, -1)
	if g, e := c.ZExtValue(), uint64(255); g != e {
		t.Fatal(g, e)
	}

	if g, e := c.SExtValue(), int64(-1); g != e {
		t.Fatal(g, e)
	}

	if g, e := c.AsString(), "-1"; g != e {
		t.Fatal(g, e)
	}

	u8 := m.IntType(8, false)
	if g, e := m.GetConstantInt(u8, -1).AsString(), "255"; g != e {
		t.Fatal(g, e)
	}

	if g, e := m.SExtConstant(c, i32), m.GetConstantInt(i32, -1); g != e {
		t.Fatal(g, e)
	}

	if g, e := m.ZExtConstant(c, i32), m.GetConstantInt(i32, 255); g != e {
		t.Fatal(g, e)
	}
}

func TestConstantFPUniqueness(t *testing.T) {
	m := NewModule("t")
	f64 := m.FloatType(64)

	if g, e := m.GetConstantFP(f64, 3.25), m.GetConstantFP(f64, 3.25); g != e {
		t.Fatal(g, e)
	}

	// +0.0 and -0.0 have distinct bit patterns and distinct handles.
	pz := m.GetConstantFP(f64, 0.0)
	nz := m.GetConstantFP(f64, negZero())
	if pz == nz {
		t.Fatal(pz)
	}

	if g, e := pz.AsString(), "0.0"; g != e {
		t.Fatal(g, e)
	}

	if g, e := nz.AsString(), "-0.0"; g != e {
		t.Fatal(g, e)
	}

	if g, e := m.GetConstantFP(f64, 3.25).AsString(), "3.25"; g != e {
		t.Fatal(g, e)
	}
}

func negZero() float64 {
	z := 0.0
	return -z
}

func TestConstantAggregates(t *testing.T) {
	m := NewModule("t")
	i32 := m.IntType(32, true)

	null := m.GetConstantPointerNull(m.PointerType(i32))
	if g, e := null, m.GetConstantPointerNull(m.PointerType(i32)); g != e {
		t.Fatal(g, e)
	}

	if g, e := null.AsString(), "null"; g != e {
		t.Fatal(g, e)
	}

	arr := m.GetConstantArray(i32, []Constant{m.GetConstantInt(i32, 1), m.GetConstantInt(i32, 2)})
	if g, e := arr.Type().String(), "[2 x i32]"; g != e {
		t.Fatal(g, e)
	}

	if g, e := arr.AsString(), "[i32 1, i32 2]"; g != e {
		t.Fatal(g, e)
	}

	s := m.GetConstantString("hi")
	if g, e := s.Type().String(), "[3 x u8]"; g != e {
		t.Fatal(g, e)
	}

	if g, e := s.AsString(), `c"hi\00"`; g != e {
		t.Fatal(g, e)
	}

	z := m.GetConstantAggregateZero(m.ArrayType(i32, 8))
	if g, e := z.AsString(), "zeroinitializer"; g != e {
		t.Fatal(g, e)
	}
}

func TestModuleRegistries(t *testing.T) {
	m := NewModule("t")
	i32 := m.IntType(32, true)

	f := m.CreateFunction("f", i32, []Param{{Name: "x", Type: i32}})
	if g, e := m.Function("f"), f; g != e {
		t.Fatal(g, e)
	}

	if g := m.Function("nope"); g != nil {
		t.Fatal(g)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()

		m.CreateFunction("f", i32, nil)
	}()

	g := m.CreateGlobalVariable("counter", i32, false, m.GetConstantInt(i32, 0))
	if got, e := m.GlobalVariable("counter"), g; got != e {
		t.Fatal(got, e)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()

		m.CreateGlobalVariable("counter", i32, false, nil)
	}()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()

		m.CreateGlobalVariable("bad", i32, false, m.GetConstantFP(m.FloatType(64), 0))
	}()
}

func TestParseTypeRoundTrip(t *testing.T) {
	m := NewModule("t")
	i32 := m.IntType(32, true)

	typ, err := m.ParseType("i32")
	if err != nil {
		t.Fatal(err)
	}

	if g, e := typ, Type(i32); g != e {
		t.Fatal(g, e)
	}

	p := m.MustParseType("{ i32, f64 }*")
	if g, e := p, Type(m.PointerType(m.AnonStructType([]Member{{Type: i32}, {Type: m.FloatType(64)}}))); g != e {
		t.Fatal(g, e)
	}

	if _, err := m.ParseType("i7"); err == nil {
		t.Fatal("expected error")
	}
}

func TestVerifyDetectsMissingTerminator(t *testing.T) {
	m := NewModule("t")
	i32 := m.IntType(32, true)

	f := m.CreateFunction("f", i32, []Param{{Name: "x", Type: i32}})
	b := NewBuilder(m)
	b.SetInsertPoint(f.CreateBasicBlock("entry"))
	b.CreateAdd(f.Arg(0), f.Arg(0), "d")

	err := f.Verify()
	if err == nil {
		t.Fatal("expected error")
	}

	if !strings.Contains(err.Error(), "missing terminator") {
		t.Fatal(err)
	}
}

func TestVerifyDetectsPhiAfterNonPhi(t *testing.T) {
	m := NewModule("t")
	i32 := m.IntType(32, true)

	f := m.CreateFunction("f", i32, []Param{{Name: "x", Type: i32}})
	b := NewBuilder(m)
	entry := f.CreateBasicBlock("entry")
	b.SetInsertPoint(entry)
	add := b.CreateAdd(f.Arg(0), f.Arg(0), "d")
	b.CreateRet(add)

	phi := newPhi(i32)
	phi.SetName("p")
	entry.InsertBefore(entry.LastInstruction(), phi)

	err := f.Verify()
	if err == nil {
		t.Fatal("expected error")
	}

	if !strings.Contains(err.Error(), "phi after non-phi") {
		t.Fatal(err)
	}
}

func TestVerifyModule(t *testing.T) {
	m := NewModule("t")
	i32 := m.IntType(32, true)

	f := m.CreateFunction("add", i32, []Param{{Name: "x", Type: i32}, {Name: "y", Type: i32}})
	b := NewBuilder(m)
	b.SetInsertPoint(f.CreateBasicBlock("entry"))
	b.CreateRet(b.CreateAdd(f.Arg(0), f.Arg(1), "sum"))

	if err := m.Verify(); err != nil {
		t.Fatal(err)
	}

	g := m.CreateFunction("empty", m.VoidType(), nil)
	use(g)
	if err := m.Verify(); err == nil {
		t.Fatal("expected error")
	}
}

func TestRemoveBasicBlock(t *testing.T) {
	m := NewModule("t")
	i32 := m.IntType(32, true)

	f := m.CreateFunction("f", i32, []Param{{Name: "x", Type: i32}})
	b := NewBuilder(m)
	entry := f.CreateBasicBlock("entry")
	dead := f.CreateBasicBlock("dead")
	exit := f.CreateBasicBlock("exit")

	b.SetInsertPoint(entry)
	b.CreateBr(exit)

	b.SetInsertPoint(dead)
	b.CreateBr(exit)

	b.SetInsertPoint(exit)
	b.CreateRet(f.Arg(0))

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()

		f.RemoveBasicBlock(exit)
	}()

	if g, e := len(exit.Predecessors()), 2; g != e {
		t.Fatal(g, e)
	}

	f.RemoveBasicBlock(dead)
	if g, e := len(f.Blocks()), 2; g != e {
		t.Fatal(g, e)
	}

	// Removing the branch removed its CFG edge.
	if g, e := len(exit.Predecessors()), 1; g != e {
		t.Fatal(g, e)
	}

	if err := f.Verify(); err != nil {
		t.Fatal(err)
	}
}

func TestHiddenRetval(t *testing.T) {
	m := NewModule("t")
	i32 := m.IntType(32, true)

	s := m.CreateStructType("Big")
	s.SetBody([]Member{{Name: "a", Type: i32}, {Name: "b", Type: i32}})

	f := m.CreateFunction("mk", m.VoidType(), []Param{{Name: "out", Type: m.PointerType(s)}})
	f.SetHiddenRetvalType(s)
	if g, e := f.HiddenRetvalType(), Type(s); g != e {
		t.Fatal(g, e)
	}

	if !IsVoid(f.ReturnType()) {
		t.Fatal(f.ReturnType())
	}

	b := NewBuilder(m)
	b.SetInsertPoint(f.CreateBasicBlock("entry"))
	b.CreateRetVoid()

	if err := f.Verify(); err != nil {
		t.Fatal(err)
	}

	f.SetInstanceMethod(true)
	if !f.IsInstanceMethod() {
		t.Fatal("expected instance method")
	}
}
