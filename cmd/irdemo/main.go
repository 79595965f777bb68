// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command irdemo builds a few small functions through the ir package and
// prints the resulting module in its canonical textual form.
package main

import (
	"fmt"
	"os"

	"github.com/ssakit/ir"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
)

func main() {
	demoCmd := &cli.Command{
		Name:        "demo",
		Description: "build sample functions and print the module",
		Action:      demoAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "irdemo",
		Description: "irdemo showcases module construction with the ir package",
		Commands: []*cli.Command{
			demoCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func demoAct(c *cli.Command) (err error) {
	m := ir.NewModule("demo")
	b := ir.NewBuilder(m)

	i32 := m.IntType(32, true)

	buildAdd(m, b, i32)
	buildAbs(m, b, i32)
	buildPoint(m, b, i32)

	if err := m.Verify(); err != nil {
		return errors.Wrap(err, "verify")
	}

	fmt.Print(m)

	return nil
}

func buildAdd(m *ir.Module, b *ir.Builder, i32 ir.Type) {
	f := m.CreateFunction("add", i32, []ir.Param{{Name: "x", Type: i32}, {Name: "y", Type: i32}})
	b.SetInsertPoint(f.CreateBasicBlock("entry"))
	sum := b.CreateAdd(f.Arg(0), f.Arg(1), "sum")
	b.CreateRet(sum)
}

func buildAbs(m *ir.Module, b *ir.Builder, i32 ir.Type) {
	f := m.CreateFunction("abs", i32, []ir.Param{{Name: "x", Type: i32}})

	entry := f.CreateBasicBlock("entry")
	neg := f.CreateBasicBlock("neg")
	done := f.CreateBasicBlock("done")

	b.SetInsertPoint(entry)
	zero := m.GetConstantInt(m.IntType(32, true), 0)
	isNeg := b.CreateICmp(ir.ICmpSLT, f.Arg(0), zero, "isneg")
	b.CreateCondBr(isNeg, neg, done)

	b.SetInsertPoint(neg)
	negd := b.CreateNeg(f.Arg(0), "negd")
	b.CreateBr(done)

	b.SetInsertPoint(done)
	phi := b.CreatePhi(i32, "res")
	phi.AddIncoming(f.Arg(0), entry)
	phi.AddIncoming(negd, neg)
	b.CreateRet(phi)
}

func buildPoint(m *ir.Module, b *ir.Builder, i32 ir.Type) {
	point := m.CreateStructType("Point")
	point.SetBody([]ir.Member{{Name: "x", Type: i32}, {Name: "y", Type: i32}})

	f := m.CreateFunction("getY", i32, []ir.Param{{Name: "p", Type: m.PointerType(point)}})
	b.SetInsertPoint(f.CreateBasicBlock("entry"))

	zero := m.GetConstantInt(m.IntType(32, true), 0)
	one := m.GetConstantInt(m.IntType(32, true), 1)
	yp := b.CreateGEP(f.Arg(0), []ir.Value{zero, one}, "yp")
	y := b.CreateLoad(yp, "y")
	b.CreateRet(y)
}
