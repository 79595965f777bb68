// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"github.com/cznic/mathutil"

	"tlog.app/go/errors"
)

func roundup(n, to int64) int64 {
	if r := n % to; r != 0 {
		return n + to - r
	}

	return n
}

// MemoryModel defines size and alignment of types: 8 byte pointers and
// naturally aligned scalars (alignment = ceil(bit width/8)). Arrays and
// vectors inherit the alignment of their element type. Memory model instances
// are not modified by this package and safe for concurrent use by multiple
// goroutines as long as any of them does not modify them either.
type MemoryModel struct {
	PointerBytes int64
}

// NewMemoryModel returns the memory model used for struct layout.
func NewMemoryModel() MemoryModel { return MemoryModel{PointerBytes: 8} }

var defaultModel = NewMemoryModel()

// Alignof computes the memory alignment requirements of t. The minimum
// alignment is 1, including for zero sized types.
func (m MemoryModel) Alignof(t Type) int {
	switch x := t.(type) {
	case *VoidType, *FunctionType:
		return 1
	case *IntType:
		return (x.BitWidth + 7) / 8
	case *FloatType:
		return x.BitWidth / 8
	case *PointerType:
		return int(m.PointerBytes)
	case *ArrayType:
		return mathutil.Max(1, m.Alignof(x.Item))
	case *VectorType:
		return mathutil.Max(1, m.Alignof(x.Item))
	case *StructType:
		if x.opaque {
			panic(errors.New("opaque struct type %s has no alignment", x.TypeName))
		}

		var r int
		for _, v := range x.members {
			if a := m.Alignof(v.Type); a > r {
				r = a
			}
		}
		return mathutil.Max(1, r)
	case *QualifiedType:
		return m.Alignof(x.Base)
	}
	panic(errors.New("internal error: %T", t))
}

// Sizeof computes the memory size of t.
func (m MemoryModel) Sizeof(t Type) int64 {
	switch x := t.(type) {
	case *VoidType, *FunctionType:
		return 0
	case *IntType:
		return int64(x.BitWidth+7) / 8
	case *FloatType:
		return int64(x.BitWidth) / 8
	case *PointerType:
		return m.PointerBytes
	case *ArrayType:
		return m.Sizeof(x.Item) * x.Items
	case *VectorType:
		return m.Sizeof(x.Item) * x.Items
	case *StructType:
		if x.opaque {
			panic(errors.New("opaque struct type %s has no size", x.TypeName))
		}

		if len(x.members) == 0 {
			return 0
		}

		var off int64
		for _, v := range x.members {
			off = roundup(off, int64(m.Alignof(v.Type)))
			off += m.Sizeof(v.Type)
		}
		return roundup(off, int64(m.Alignof(t)))
	case *QualifiedType:
		return m.Sizeof(x.Base)
	}
	panic(errors.New("internal error: %T", t))
}

// Layout computes the memory layout of t, one item per member. The layout of
// a member list is deterministic: repeated calls produce equal results.
func (m MemoryModel) Layout(t *StructType) []FieldProperties {
	if t.opaque {
		panic(errors.New("opaque struct type %s has no layout", t.TypeName))
	}

	if len(t.members) == 0 {
		return nil
	}

	r := make([]FieldProperties, len(t.members))
	var off int64
	for i, v := range t.members {
		sz := m.Sizeof(v.Type)
		z := off
		off = roundup(off, int64(m.Alignof(v.Type)))
		if off != z && i != 0 {
			r[i-1].Padding = int(off - z)
		}
		r[i] = FieldProperties{Offset: off, Size: sz}
		off += sz
	}
	z := off
	off = roundup(off, int64(m.Alignof(t)))
	if off != z {
		r[len(r)-1].Padding = int(off - z)
	}
	return r
}

// FieldProperties describe a struct member.
type FieldProperties struct {
	Offset  int64 // Relative to start of the struct.
	Size    int64 // Member size for copying.
	Padding int   // Adjustment to enforce proper alignment.
}

// Sizeof returns the sum of f.Size and f.Padding.
func (f *FieldProperties) Sizeof() int64 { return f.Size + int64(f.Padding) }
