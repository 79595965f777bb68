// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"testing"
)

func testFunc(m *Module) (*Function, *Builder) {
	i32 := m.IntType(32, true)
	f := m.CreateFunction("f", i32, []Param{{Name: "x", Type: i32}, {Name: "y", Type: i32}})
	b := NewBuilder(m)
	b.SetInsertPoint(f.CreateBasicBlock("entry"))
	return f, b
}

func TestUseSymmetry(t *testing.T) {
	m := NewModule("t")
	f, b := testFunc(m)

	x, y := f.Arg(0), f.Arg(1)
	add := b.CreateAdd(x, y, "sum")

	if g, e := len(x.Users()), 1; g != e {
		t.Fatal(g, e)
	}

	if g, e := x.Users()[0], User(add); g != e {
		t.Fatal(g, e)
	}

	if g, e := add.NumOperands(), 2; g != e {
		t.Fatal(g, e)
	}

	// Replacing an operand moves exactly one back-edge.
	add.SetOperand(1, x)
	if g, e := len(y.Users()), 0; g != e {
		t.Fatal(g, e)
	}

	if g, e := len(x.Users()), 2; g != e {
		t.Fatal(g, e)
	}

	// One user entry per occurrence.
	for _, u := range x.Users() {
		if g, e := u, User(add); g != e {
			t.Fatal(g, e)
		}
	}

	add.SetOperand(0, y)
	if g, e := len(x.Users()), 1; g != e {
		t.Fatal(g, e)
	}

	if g, e := len(y.Users()), 1; g != e {
		t.Fatal(g, e)
	}
}

func TestRemoveUseOf(t *testing.T) {
	m := NewModule("t")
	f, b := testFunc(m)

	x := f.Arg(0)
	add := b.CreateAdd(x, x, "dbl")

	if g, e := len(x.Users()), 2; g != e {
		t.Fatal(g, e)
	}

	add.RemoveUseOf(x)
	if g, e := add.NumOperands(), 0; g != e {
		t.Fatal(g, e)
	}

	if g, e := len(x.Users()), 0; g != e {
		t.Fatal(g, e)
	}
}

func TestRemoveInstruction(t *testing.T) {
	m := NewModule("t")
	f, b := testFunc(m)

	x, y := f.Arg(0), f.Arg(1)
	add := b.CreateAdd(x, y, "sum")
	mul := b.CreateMul(add, y, "prod")

	block := f.EntryBlock()
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()

		block.Remove(add)
	}()

	block.Remove(mul)
	if g, e := len(add.Users()), 0; g != e {
		t.Fatal(g, e)
	}

	block.Remove(add)
	if g, e := len(x.Users()), 0; g != e {
		t.Fatal(g, e)
	}

	if g, e := block.FirstInstruction(), (*Instruction)(nil); g != e {
		t.Fatal(g, e)
	}
}

func TestInsertBeforeAfter(t *testing.T) {
	m := NewModule("t")
	f, b := testFunc(m)

	x, y := f.Arg(0), f.Arg(1)
	add := b.CreateAdd(x, y, "sum")

	b.SetInsertPointBefore(add)
	sub := b.CreateSub(x, y, "dif")
	mul := b.CreateMul(x, y, "prod")

	block := f.EntryBlock()
	if g, e := block.FirstInstruction(), sub; g != e {
		t.Fatal(g, e)
	}

	if g, e := sub.Next(), mul; g != e {
		t.Fatal(g, e)
	}

	if g, e := mul.Next(), add; g != e {
		t.Fatal(g, e)
	}

	if g, e := block.LastInstruction(), add; g != e {
		t.Fatal(g, e)
	}
}
