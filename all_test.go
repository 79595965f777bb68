// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"
	"testing"
)

func caller(s string, va ...interface{}) {
	if s == "" {
		s = strings.Repeat("%v ", len(va))
	}
	_, fn, fl, _ := runtime.Caller(2)
	fmt.Fprintf(os.Stderr, "# caller: %s:%d: ", path.Base(fn), fl)
	fmt.Fprintf(os.Stderr, s, va...)
	fmt.Fprintln(os.Stderr)
	_, fn, fl, _ = runtime.Caller(1)
	fmt.Fprintf(os.Stderr, "# \tcallee: %s:%d: ", path.Base(fn), fl)
	fmt.Fprintln(os.Stderr)
	os.Stderr.Sync()
}

func dbg(s string, va ...interface{}) {
	if s == "" {
		s = strings.Repeat("%v ", len(va))
	}
	_, fn, fl, _ := runtime.Caller(1)
	fmt.Fprintf(os.Stderr, "# dbg %s:%d: ", path.Base(fn), fl)
	fmt.Fprintf(os.Stderr, s, va...)
	fmt.Fprintln(os.Stderr)
	os.Stderr.Sync()
}

func use(...interface{}) {}

func init() {
	use(caller, dbg)
}

// ============================================================================

var (
	types     = TypeCache{}
	testModel = NewMemoryModel()
)

func TestLexer(t *testing.T) {
	for _, v := range []struct {
		src string
		tk  tok
	}{
		{"(", tok('(')},
		{")", tok(')')},
		{"*", tok('*')},
		{",", tok(',')},
		{"0", tokNumber},
		{"123", tokNumber},
		{"?", tokIllegal},
		{"%Point", tokName},
		{"%", tokIllegal},
		{"[", tok('[')},
		{"]", tok(']')},
		{"<", tok('<')},
		{">", tok('>')},
		{"const", tokConst},
		{"f128", tokFloat},
		{"f16", tokFloat},
		{"f32", tokFloat},
		{"f64", tokFloat},
		{"i1", tokInt},
		{"i16", tokInt},
		{"i32", tokInt},
		{"i64", tokInt},
		{"i8", tokInt},
		{"restrict", tokRestrict},
		{"u16", tokUint},
		{"u32", tokUint},
		{"u64", tokUint},
		{"u8", tokUint},
		{"void", tokVoid},
		{"volatile", tokVolatile},
		{"x", tokX},
		{"{", tok('{')},
		{"}", tok('}')},
	} {
		b := []byte(fmt.Sprintf("(%s)", v.src))
		if g, e := types.lex(&b), tok('('); g != e {
			t.Fatal(v.src, g, e)
		}

		tk, _, _ := types.lex2(&b)
		if g, e := tk, v.tk; g != e {
			t.Fatal(v.src, g, e)
		}

		if g, e := types.lex(&b), tok(')'); g != e {
			t.Fatal(v.src, g, e)
		}

		if g, e := types.lex(&b), tokEOF; g != e {
			t.Fatal(v.src, g, e)
		}
	}
}

func TestParser(t *testing.T) {
	for _, v := range []string{
		"(const i32)*",
		"[0 x i8]",
		"[2 x [3 x i32]]",
		"[4 x i32]",
		"<4 x f32>",
		"const i32",
		"const i32*",
		"const volatile i32",
		"f128",
		"f16",
		"f32",
		"f64",
		"i1",
		"i16",
		"i32",
		"i32 ()",
		"i32 (i32)",
		"i32 (i32)*",
		"i32 (i32, i32)",
		"i32*",
		"i32**",
		"i32* (i32)",
		"i64",
		"i8",
		"u16",
		"u32",
		"u64",
		"u8",
		"void",
		"void (i32)",
		"{ i8, i16 }",
		"{ i8, { i16, i32 }, i64 }",
		"{ i8 }",
		"{}",
	} {
		for _, suffix := range []string{
			"",
			")",
			",",
			".",
			"?",
			"]",
			"}",
		} {
			id := dict.SID(v + suffix)
			typ, err := types.Type(TypeID(id))
			if err != nil {
				if suffix == "" {
					t.Fatal(v, suffix, err)
				}

				continue
			}

			if suffix != "" {
				t.Fatal(v, suffix)
			}

			if g, e := typ.ID().String(), v; g != e {
				t.Fatalf("%q %q", g, e)
			}

			s := "9" + v
			if typ, err = types.Type(TypeID(dict.SID(s))); err == nil {
				t.Fatalf("%q", s)
			}
		}
	}
	for id, v := range types {
		t.Logf("%d: %q", id, dict.S(int(id)))
		if g, e := v.ID(), id; g != e {
			t.Fatalf("%q %d %d", dict.S(int(id)), g, e)
		}
	}
}

func TestParser2(t *testing.T) {
	types := TypeCache{}
	if _, err := types.Type(TypeID(dict.SID("{ i8, { i16, i32 }, i64 }"))); err != nil {
		t.Fatal(err)
	}

	if g, e := len(types), 6; g != e {
		t.Fatal(g, e)
	}

	var a []string
	for k := range types {
		a = append(a, string(dict.S(int(k))))
	}
	sort.Strings(a)
	if g, e := strings.Join(a, "\n"), strings.TrimSpace(`
i16
i32
i64
i8
{ i16, i32 }
{ i8, { i16, i32 }, i64 }
`); g != e {
		t.Fatalf("==== got\n%s\n==== exp\n%s", g, e)
	}
}

func TestTypeUniqueness(t *testing.T) {
	types := TypeCache{}
	if g, e := Type(types.IntType(32, true)), Type(types.IntType(32, true)); g != e {
		t.Fatal(g, e)
	}

	if g, e := Type(types.IntType(32, true)), Type(types.IntType(32, false)); g == e {
		t.Fatal(g)
	}

	i32 := types.IntType(32, true)
	if g, e := Type(types.PointerType(i32)), Type(types.PointerType(i32)); g != e {
		t.Fatal(g, e)
	}

	if g, e := Type(types.ArrayType(i32, 4)), Type(types.ArrayType(i32, 4)); g != e {
		t.Fatal(g, e)
	}

	if g, e := Type(types.ArrayType(i32, 4)), Type(types.ArrayType(i32, 5)); g == e {
		t.Fatal(g)
	}

	a := types.AnonStructType([]Member{{Type: i32}, {Type: types.FloatType(64)}})
	b := types.AnonStructType([]Member{{Type: i32}, {Type: types.FloatType(64)}})
	if g, e := Type(a), Type(b); g != e {
		t.Fatal(g, e)
	}

	f := types.FunctionType(i32, []Param{{Name: "x", Type: i32}})
	g2 := types.FunctionType(i32, []Param{{Name: "y", Type: i32}})
	if g, e := Type(f), Type(g2); g != e {
		t.Fatal(g, e)
	}

	q := types.QualifiedType(QualConst, i32)
	if g, e := q, types.QualifiedType(QualConst, i32); g != e {
		t.Fatal(g, e)
	}

	if g, e := Unqualified(q), Type(i32); g != e {
		t.Fatal(g, e)
	}

	// Qualifying a qualified type merges the qualifier sets.
	qq := types.QualifiedType(QualVolatile, q)
	if g, e := qq.ID().String(), "const volatile i32"; g != e {
		t.Fatal(g, e)
	}
}

func TestNamedStructType(t *testing.T) {
	types := TypeCache{}
	p := types.CreateStructType("Point")
	if !p.Opaque() {
		t.Fatal("expected opaque struct")
	}

	if g, e := types.StructType("Point"), p; g != e {
		t.Fatal(g, e)
	}

	if g, e := p.ID().String(), "%Point"; g != e {
		t.Fatal(g, e)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()

		types.CreateStructType("Point")
	}()

	i32 := types.IntType(32, true)
	p.SetBody([]Member{{Name: "x", Type: i32}, {Name: "y", Type: i32}})
	if g, e := p.NumMembers(), 2; g != e {
		t.Fatal(g, e)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()

		p.SetBody([]Member{{Type: i32}})
	}()

	typ, err := types.Type(TypeID(dict.SID("%Point*")))
	if err != nil {
		t.Fatal(err)
	}

	if g, e := Type(typ.(*PointerType).Element), Type(p); g != e {
		t.Fatal(g, e)
	}

	if _, err := types.Type(TypeID(dict.SID("%Nope"))); err == nil {
		t.Fatal("expected error")
	}
}

func TestAlignSize(t *testing.T) {
	for i, v := range []struct {
		src   string
		align int
		size  int64
	}{
		{"[0 x i16]", 2, 0},
		{"[0 x i8]", 1, 0},
		{"[1 x i16]", 2, 2},
		{"[2 x i16]", 2, 4},
		{"[2 x i8]", 1, 2},
		{"[2 x { [3 x i8], i64 }]", 8, 32},
		{"[2 x { i64, [3 x i8] }]", 8, 32},
		{"[2 x { i64, i8 }]", 8, 32},
		{"[2 x { i8, i64 }]", 8, 32},
		{"<4 x f32>", 4, 16},
		{"f16", 2, 2},
		{"f64", 8, 8},
		{"i1", 1, 1},
		{"i32*", 8, 8},
		{"{ i32, {}, i32 }", 4, 8},
		{"{ i64, i8 }", 8, 16},
		{"{ i64 }", 8, 8},
		{"{}", 1, 0},
	} {
		typ, err := types.Type(TypeID(dict.SID(v.src)))
		if err != nil {
			t.Fatal(err)
		}

		if g, e := testModel.Alignof(typ), v.align; g != e {
			t.Fatalf("#%v: %s: align %v %v", i, v.src, g, e)
		}

		if g, e := testModel.Sizeof(typ), v.size; g != e {
			t.Fatalf("#%v: %s: size %v %v", i, v.src, g, e)
		}
	}
}

func TestLayoutOffset(t *testing.T) {
	for it, v := range []struct {
		src string
		off []int64
	}{
		{"{ i16, i8, i8, i16 }", []int64{0, 2, 3, 4}},
		{"{ i16, i8, i8, i32 }", []int64{0, 2, 3, 4}},
		{"{ i16, i8, i8, i64 }", []int64{0, 2, 3, 8}},
		{"{ i16, i8, i8 }", []int64{0, 2, 3}},
		{"{ i16, i8 }", []int64{0, 2}},
		{"{ i8, i16 }", []int64{0, 2}},
		{"{ i8 }", []int64{0}},
		{"{}", nil},
	} {
		typ, err := types.Type(TypeID(dict.SID(v.src)))
		if err != nil {
			t.Fatal(err)
		}

		fields := testModel.Layout(typ.(*StructType))
		if g, e := len(fields), len(v.off); g != e {
			t.Fatalf("%s: fields %v %v", v.src, g, e)
		}

		for i, f := range fields {
			if g, e := f.Offset, v.off[i]; g != e {
				t.Fatalf("#%v: %s.%v: off %v %v", it, v.src, i, g, e)
			}
		}
	}
}

func TestLayoutSize(t *testing.T) {
	for it, v := range []struct {
		src string
		sz  []int64
	}{
		{"{ i16, i8, i8, i16 }", []int64{2, 1, 1, 2}},
		{"{ i16, i8, i8, i32 }", []int64{2, 1, 1, 4}},
		{"{ i16, i8, i8, i64 }", []int64{2, 1, 1, 8}},
		{"{ i16, i8 }", []int64{2, 1}},
		{"{ i8, i16 }", []int64{1, 2}},
		{"{ i8 }", []int64{1}},
		{"{}", nil},
	} {
		typ, err := types.Type(TypeID(dict.SID(v.src)))
		if err != nil {
			t.Fatal(err)
		}

		fields := testModel.Layout(typ.(*StructType))
		if g, e := len(fields), len(v.sz); g != e {
			t.Fatalf("%s: fields %v %v", v.src, g, e)
		}

		for i, f := range fields {
			if g, e := f.Size, v.sz[i]; g != e {
				t.Fatalf("#%v: %s.%v: size %v %v", it, v.src, i, g, e)
			}
		}
	}
}

func TestLayoutPadding(t *testing.T) {
	for it, v := range []struct {
		src string
		p   []int
	}{
		{"{ i16, i8, i8, i16 }", []int{0, 0, 0, 0}},
		{"{ i16, i8, i8, i32 }", []int{0, 0, 0, 0}},
		{"{ i16, i8, i8, i64 }", []int{0, 0, 4, 0}},
		{"{ i16, i8, i8 }", []int{0, 0, 1}},
		{"{ i16, i8 }", []int{0, 1}},
		{"{ i8, i16 }", []int{1, 0}},
		{"{ i8 }", []int{0}},
		{"{}", nil},
	} {
		typ, err := types.Type(TypeID(dict.SID(v.src)))
		if err != nil {
			t.Fatal(err)
		}

		fields := testModel.Layout(typ.(*StructType))
		if g, e := len(fields), len(v.p); g != e {
			t.Fatalf("%s: fields %v %v", v.src, g, e)
		}

		for i, f := range fields {
			if g, e := f.Padding, v.p[i]; g != e {
				t.Fatalf("#%v: %s.%v: padding %v %v", it, v.src, i, g, e)
			}
		}
	}
}

func benchmarkParser(b *testing.B) {
	a := [][]byte{
		[]byte("(const i32)*"),
		[]byte("[0 x i8]"),
		[]byte("[4 x i32]"),
		[]byte("<4 x f32>"),
		[]byte("const i32"),
		[]byte("f32"),
		[]byte("f64"),
		[]byte("i32 (i32, i32)"),
		[]byte("i32*"),
		[]byte("i32"),
		[]byte("i64"),
		[]byte("i8"),
		[]byte("u64"),
		[]byte("void (i32)"),
		[]byte("void"),
		[]byte("{ i8, i16 }"),
		[]byte("{}"),
	}
	n := 0
	for _, v := range a {
		n += len(v)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, v := range a {
			w := v
			if _, err := types.parse(&w); err != nil {
				b.Fatal(err)
			}
		}
	}
	b.SetBytes(int64(n))
}

func benchmarkTypeCache(b *testing.B) {
	a := []TypeID{
		TypeID(dict.SID("(const i32)*")),
		TypeID(dict.SID("[0 x i8]")),
		TypeID(dict.SID("[4 x i32]")),
		TypeID(dict.SID("<4 x f32>")),
		TypeID(dict.SID("const i32")),
		TypeID(dict.SID("f32")),
		TypeID(dict.SID("f64")),
		TypeID(dict.SID("i32 (i32, i32)")),
		TypeID(dict.SID("i32*")),
		TypeID(dict.SID("i32")),
		TypeID(dict.SID("i64")),
		TypeID(dict.SID("i8")),
		TypeID(dict.SID("u64")),
		TypeID(dict.SID("void (i32)")),
		TypeID(dict.SID("void")),
		TypeID(dict.SID("{ i8, i16 }")),
		TypeID(dict.SID("{}")),
	}
	n := 0
	for _, v := range a {
		n += len(dict.S(int(v)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, v := range a {
			if _, err := types.Type(v); err != nil {
				b.Fatal(err)
			}
		}
	}
	b.SetBytes(int64(n))
}

func Benchmark(b *testing.B) {
	b.Run("Parser", benchmarkParser)
	b.Run("TypeCache", benchmarkTypeCache)
}
