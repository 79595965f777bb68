// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"math"
	"strconv"

	"github.com/ssakit/ir/internal/buffer"
	"tlog.app/go/errors"
)

var (
	_ Constant = (*ConstantAggregateZero)(nil)
	_ Constant = (*ConstantArray)(nil)
	_ Constant = (*ConstantFP)(nil)
	_ Constant = (*ConstantInt)(nil)
	_ Constant = (*ConstantPointerNull)(nil)
	_ Constant = (*ConstantString)(nil)
	_ Constant = (*ConstantStruct)(nil)
)

// Constant is an immutable value owned by a module. Scalar constants are
// uniqued: requesting the same (type, payload) twice returns the same handle.
type Constant interface {
	Value
	AsString() string
}

// ConstantBase collects fields common to all constants.
type ConstantBase struct {
	ValueBase
}

// ConstantInt is an integer constant. The payload is stored as a bit pattern
// truncated to the bit width of the type.
type ConstantInt struct {
	ConstantBase
	bits uint64
}

// IntegerType returns the type of c as *IntType.
func (c *ConstantInt) IntegerType() *IntType { return Unqualified(c.Type()).(*IntType) }

// ZExtValue returns the payload of c zero extended to 64 bits.
func (c *ConstantInt) ZExtValue() uint64 { return c.bits }

// SExtValue returns the payload of c sign extended to 64 bits.
func (c *ConstantInt) SExtValue() int64 {
	w := c.IntegerType().BitWidth
	if w == 64 {
		return int64(c.bits)
	}

	if c.bits&(1<<(w-1)) != 0 {
		return int64(c.bits | ^uint64(0)<<w)
	}

	return int64(c.bits)
}

// AsString implements Constant.
func (c *ConstantInt) AsString() string {
	if c.IntegerType().IsSigned {
		return strconv.FormatInt(c.SExtValue(), 10)
	}

	return strconv.FormatUint(c.bits, 10)
}

// ConstantFP is a floating point constant. Uniquing keys on the IEEE-754 bit
// pattern of the payload, so +0.0 and -0.0 are distinct constants and NaN
// payloads do not collapse.
type ConstantFP struct {
	ConstantBase
	value float64
}

// Value returns the payload of c.
func (c *ConstantFP) Value() float64 { return c.value }

// AsString implements Constant.
func (c *ConstantFP) AsString() string {
	s := strconv.FormatFloat(c.value, 'g', -1, 64)
	for _, b := range []byte(s) {
		if (b < '0' || b > '9') && b != '-' {
			return s
		}
	}
	return s + ".0"
}

// ConstantPointerNull is the null pointer constant of a pointer type.
type ConstantPointerNull struct {
	ConstantBase
}

// AsString implements Constant.
func (c *ConstantPointerNull) AsString() string { return "null" }

// ConstantAggregateZero is the all zero bytes constant of an aggregate type.
type ConstantAggregateZero struct {
	ConstantBase
}

// AsString implements Constant.
func (c *ConstantAggregateZero) AsString() string { return "zeroinitializer" }

// ConstantArray is an array constant built from element constants.
type ConstantArray struct {
	ConstantBase
	Elems []Constant
}

// AsString implements Constant.
func (c *ConstantArray) AsString() string {
	var buf buffer.Bytes
	buf.WriteByte('[')
	for i, v := range c.Elems {
		if i != 0 {
			buf.Write([]byte(", "))
		}
		buf.Write([]byte(v.Type().String()))
		buf.WriteByte(' ')
		buf.Write([]byte(v.AsString()))
	}
	buf.WriteByte(']')
	s := string(buf.Bytes())
	buf.Close()
	return s
}

// ConstantStruct is a struct constant built from member constants.
type ConstantStruct struct {
	ConstantBase
	Elems []Constant
}

// AsString implements Constant.
func (c *ConstantStruct) AsString() string {
	var buf buffer.Bytes
	buf.Write([]byte("{ "))
	for i, v := range c.Elems {
		if i != 0 {
			buf.Write([]byte(", "))
		}
		buf.Write([]byte(v.Type().String()))
		buf.WriteByte(' ')
		buf.Write([]byte(v.AsString()))
	}
	buf.Write([]byte(" }"))
	s := string(buf.Bytes())
	buf.Close()
	return s
}

// ConstantString is a NUL terminated byte array constant.
type ConstantString struct {
	ConstantBase
	S string
}

// AsString implements Constant.
func (c *ConstantString) AsString() string {
	var buf buffer.Bytes
	buf.Write([]byte(`c"`))
	for i := 0; i < len(c.S); i++ {
		switch b := c.S[i]; {
		case b == '"' || b == '\\':
			buf.WriteByte('\\')
			buf.WriteByte(b)
		case b < ' ' || b > '~':
			const hex = "0123456789ABCDEF"
			buf.WriteByte('\\')
			buf.WriteByte(hex[b>>4])
			buf.WriteByte(hex[b&0xf])
		default:
			buf.WriteByte(b)
		}
	}
	buf.Write([]byte(`\00"`))
	s := string(buf.Bytes())
	buf.Close()
	return s
}

type constIntKey struct {
	typ  Type
	bits uint64
}

type constFPKey struct {
	typ  Type
	bits uint64
}

// GetConstantInt returns the uniqued integer constant of type t with the
// given payload. The payload is truncated to the bit width of t first, so
// requests that agree modulo 2^bw return the same handle.
func (m *Module) GetConstantInt(t *IntType, v int64) *ConstantInt {
	bits := uint64(v)
	if t.BitWidth < 64 {
		bits &= 1<<t.BitWidth - 1
	}
	k := constIntKey{t, bits}
	if c := m.constInts[k]; c != nil {
		return c
	}

	c := &ConstantInt{ConstantBase{ValueBase{typ: t}}, bits}
	m.constInts[k] = c
	return c
}

// GetConstantFP returns the uniqued floating point constant of type t with
// the given payload.
func (m *Module) GetConstantFP(t *FloatType, v float64) *ConstantFP {
	k := constFPKey{t, math.Float64bits(v)}
	if c := m.constFPs[k]; c != nil {
		return c
	}

	c := &ConstantFP{ConstantBase{ValueBase{typ: t}}, v}
	m.constFPs[k] = c
	return c
}

// GetConstantPointerNull returns the uniqued null constant of pointer type t.
func (m *Module) GetConstantPointerNull(t *PointerType) *ConstantPointerNull {
	if c := m.constNulls[t]; c != nil {
		return c
	}

	c := &ConstantPointerNull{ConstantBase{ValueBase{typ: t}}}
	m.constNulls[t] = c
	return c
}

// GetConstantAggregateZero returns the uniqued all zero constant of t.
func (m *Module) GetConstantAggregateZero(t Type) *ConstantAggregateZero {
	if c := m.constZeros[t]; c != nil {
		return c
	}

	c := &ConstantAggregateZero{ConstantBase{ValueBase{typ: t}}}
	m.constZeros[t] = c
	return c
}

// GetConstantArray returns an array constant of elem type t with the given
// elements.
func (m *Module) GetConstantArray(t Type, elems []Constant) *ConstantArray {
	for _, v := range elems {
		if v.Type() != t {
			panic(errors.New("array element type mismatch"))
		}
	}
	return &ConstantArray{
		ConstantBase: ConstantBase{ValueBase{typ: m.Types.ArrayType(t, int64(len(elems)))}},
		Elems:        elems,
	}
}

// GetConstantStruct returns a struct constant of type t with the given
// members.
func (m *Module) GetConstantStruct(t *StructType, elems []Constant) *ConstantStruct {
	if len(elems) != t.NumMembers() {
		panic(errors.New("struct initializer member count mismatch"))
	}

	for i, v := range elems {
		if v.Type() != t.Member(i).Type {
			panic(errors.New("struct initializer member type mismatch: %v", i))
		}
	}
	return &ConstantStruct{
		ConstantBase: ConstantBase{ValueBase{typ: t}},
		Elems:        elems,
	}
}

// GetConstantString returns a NUL terminated string constant. Its type is
// [len(s)+1 x u8].
func (m *Module) GetConstantString(s string) *ConstantString {
	u8 := m.Types.IntType(8, false)
	return &ConstantString{
		ConstantBase: ConstantBase{ValueBase{typ: m.Types.ArrayType(u8, int64(len(s))+1)}},
		S:            s,
	}
}

// ZExtConstant folds c into the wider integer type t by zero extension,
// returning the uniqued wider constant.
func (m *Module) ZExtConstant(c *ConstantInt, t *IntType) *ConstantInt {
	if t.BitWidth <= c.IntegerType().BitWidth {
		panic(errors.New("ZExt must expand to larger type"))
	}

	return m.GetConstantInt(t, int64(c.ZExtValue()))
}

// SExtConstant folds c into the wider integer type t by sign extension,
// returning the uniqued wider constant.
func (m *Module) SExtConstant(c *ConstantInt, t *IntType) *ConstantInt {
	if t.BitWidth <= c.IntegerType().BitWidth {
		panic(errors.New("SExt must expand to larger type"))
	}

	return m.GetConstantInt(t, c.SExtValue())
}
