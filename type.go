// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"strconv"

	"github.com/ssakit/ir/internal/buffer"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

var (
	_ Type = (*ArrayType)(nil)
	_ Type = (*FloatType)(nil)
	_ Type = (*FunctionType)(nil)
	_ Type = (*IntType)(nil)
	_ Type = (*PointerType)(nil)
	_ Type = (*QualifiedType)(nil)
	_ Type = (*StructType)(nil)
	_ Type = (*VectorType)(nil)
	_ Type = (*VoidType)(nil)
)

// Type represents an IR type.
//
// The type specifier syntax is defined using Extended Backus-Naur Form
// (EBNF[0]):
//
//	Type		= [ Qualifiers " " ] Core { Suffix } .
//	Qualifiers	= [ "const" ] [ "volatile" ] [ "restrict" ] .
//	Core		= "void" | IntType | FloatType | ArrayType | VectorType
//			| StructType | StructName | "(" Type ")" .
//	IntType		= ( "i" | "u" ) ( "1" | "8" | "16" | "32" | "64" ) .
//	FloatType	= "f" ( "16" | "32" | "64" | "128" ) .
//	ArrayType	= "[" Number " x " Type "]" .
//	VectorType	= "<" Number " x " Type ">" .
//	StructType	= "{" [ " " TypeList " " ] "}" .
//	StructName	= "%" Name .
//	TypeList	= Type { "," " " Type } .
//	Suffix		= "*" | " " "(" [ TypeList ] ")" .
//
// A "(" suffix denotes a function type whose return type is everything
// parsed so far, so "i32 (i32, i32)" is a function and "i32 (i32)*" is a
// pointer to one. A qualifier prefix binds the whole remaining specifier;
// grouping parentheses recover a qualified element, as in "(const i32)*".
//
//  [0]: https://golang.org/ref/spec#Notation
//
// # Type identity
//
// The specifier doubles as the structural key: two types are identical iff
// their specifiers are equal, and within a module identical types are the
// same handle.
type Type interface {
	Equal(Type) bool
	ID() TypeID
	Kind() TypeKind
	Signed() bool
	String() string
}

// TypeBase collects fields common to all types.
type TypeBase struct {
	TypeKind
	TypeID
}

// Signed implements Type.
func (t *TypeBase) Signed() bool { return false }

// String implements fmt.Stringer.
func (t *TypeBase) String() string { return t.TypeID.String() }

// TypeID is a numeric identifier of a type specifier as registered in a global
// dictionary[0].
//
//  [0]: https://godoc.org/github.com/cznic/xc#pkg-variables
type TypeID int

// Equal reports whether t is the specifier of u.
func (t TypeID) Equal(u Type) bool { return t == u.ID() }

// ID implements Type.
func (t TypeID) ID() TypeID { return t }

// String implements fmt.Stringer.
func (t TypeID) String() string { return string(dict.S(int(t))) }

// VoidType represents the absence of a value.
type VoidType struct {
	TypeBase
}

// IntType represents a fixed width integer. Permitted bit widths are 1, 8,
// 16, 32 and 64.
type IntType struct {
	TypeBase
	BitWidth int
	IsSigned bool
}

// Signed implements Type.
func (t *IntType) Signed() bool { return t.IsSigned }

// FloatType represents a floating point number. Permitted bit widths are 16,
// 32, 64 and 128.
type FloatType struct {
	TypeBase
	BitWidth int
}

// Signed implements Type.
func (t *FloatType) Signed() bool { return true }

// PointerType represents a pointer to an element, an instance of another type.
type PointerType struct {
	TypeBase
	Element Type
}

// Param describes one function parameter.
type Param struct {
	Name string
	Type Type
}

// FunctionType represents a function, its ordered parameters and its return
// type. Parameter names default to __arg{i} when the caller supplies none.
type FunctionType struct {
	TypeBase
	Return Type
	Params []Param
}

// ParamTypes returns the types of t.Params.
func (t *FunctionType) ParamTypes() []Type {
	r := make([]Type, len(t.Params))
	for i, v := range t.Params {
		r[i] = v.Type
	}
	return r
}

// ArrayType represents a collection of items that can be selected by index.
type ArrayType struct {
	TypeBase
	Item  Type
	Items int64
}

// VectorType represents a fixed number of lanes of a scalar item type.
type VectorType struct {
	TypeBase
	Item  Type
	Items int64
}

// Member describes one struct member.
type Member struct {
	Name string
	Type Type
}

// StructType represents a collection of members that can be selected by name
// or index. A named struct may be created opaque and completed exactly once
// via SetBody.
type StructType struct {
	TypeBase
	TypeName string // Empty for anonymous structs.
	IsTuple  bool

	members []Member
	fields  []FieldProperties
	size    int64
	opaque  bool
}

// Opaque reports whether the body of t was not yet set.
func (t *StructType) Opaque() bool { return t.opaque }

// NumMembers returns the number of members of t.
func (t *StructType) NumMembers() int {
	if t.opaque {
		panic(errors.New("opaque struct type %s has no body", t.TypeName))
	}

	return len(t.members)
}

// Members returns the members of t.
func (t *StructType) Members() []Member {
	if t.opaque {
		panic(errors.New("opaque struct type %s has no body", t.TypeName))
	}

	return t.members
}

// Member returns the i-th member of t.
func (t *StructType) Member(i int) Member {
	if t.opaque {
		panic(errors.New("opaque struct type %s has no body", t.TypeName))
	}

	if i < 0 || i >= len(t.members) {
		panic(errors.New("struct index out of bounds: %v", i))
	}

	return t.members[i]
}

// Layout returns the computed field properties of t, one item per member.
func (t *StructType) Layout() []FieldProperties {
	if t.opaque {
		panic(errors.New("opaque struct type %s has no body", t.TypeName))
	}

	return t.fields
}

// Offset returns the byte offset of the i-th member of t.
func (t *StructType) Offset(i int) int64 { return t.Layout()[i].Offset }

// SetBody completes an opaque struct type. The body of a struct can be set
// exactly once.
func (t *StructType) SetBody(members []Member) {
	if !t.opaque {
		panic(errors.New("struct type %s body already set", t.TypeName))
	}

	t.setBody(members)
	tlog.V("ir").Printw("struct completed", "type", t.TypeName, "members", len(members))
}

func (t *StructType) setBody(members []Member) {
	t.members = members
	t.opaque = false
	t.fields = defaultModel.Layout(t)
	t.size = defaultModel.Sizeof(t)
}

// QualifiedType wraps a base type with a set of qualifiers. Qualified types
// classify by their base and are distinct from it only in identity and
// rendering.
type QualifiedType struct {
	TypeBase
	Qualifiers Qualifier
	Base       Type
}

// Signed implements Type.
func (t *QualifiedType) Signed() bool { return t.Base.Signed() }

// Qualified reports whether t carries qualifiers. It holds for every
// QualifiedType handle.
func (t *QualifiedType) Qualified() bool { return true }

// Unqualified returns the base of a qualified type and t itself otherwise.
func Unqualified(t Type) Type {
	if x, ok := t.(*QualifiedType); ok {
		return x.Base
	}

	return t
}

// IsInteger reports whether t classifies as an integer type.
func IsInteger(t Type) bool { return Unqualified(t).Kind() == Int }

// IsFloat reports whether t classifies as a floating point type.
func IsFloat(t Type) bool { return Unqualified(t).Kind() == Float }

// IsPointer reports whether t classifies as a pointer type.
func IsPointer(t Type) bool { return Unqualified(t).Kind() == Pointer }

// IsVoid reports whether t classifies as void.
func IsVoid(t Type) bool { return Unqualified(t).Kind() == Void }

func validIntBits(n int) bool {
	switch n {
	case 1, 8, 16, 32, 64:
		return true
	}

	return false
}

func validFloatBits(n int) bool {
	switch n {
	case 16, 32, 64, 128:
		return true
	}

	return false
}

// specifier writes the structural key of t, parenthesized when t would
// otherwise capture a following suffix.
func specifier(buf *buffer.Bytes, t Type) {
	if t.Kind() == Qualified {
		buf.WriteByte('(')
		buf.Write(dict.S(int(t.ID())))
		buf.WriteByte(')')
		return
	}

	buf.Write(dict.S(int(t.ID())))
}

// TypeCache maps TypeIDs to Types. It is the uniquing registry of one module:
// every constructor renders the structural key of the requested type, interns
// it and returns the previously cached handle when there is one. Use
// TypeCache{} to create a ready to use TypeCache value.
type TypeCache map[TypeID]Type

func (c TypeCache) intern(buf *buffer.Bytes) TypeID {
	id := TypeID(dict.ID(buf.Bytes()))
	buf.Close()
	return id
}

// VoidType returns the void type.
func (c TypeCache) VoidType() *VoidType {
	if t := c[idVoid]; t != nil {
		return t.(*VoidType)
	}

	t := &VoidType{TypeBase{Void, idVoid}}
	c[idVoid] = t
	return t
}

// IntType returns the integer type of the given bit width and signedness.
func (c TypeCache) IntType(bits int, signed bool) *IntType {
	if !validIntBits(bits) {
		panic(errors.New("invalid integer bit width: %v", bits))
	}

	var buf buffer.Bytes
	if signed {
		buf.WriteByte('i')
	} else {
		buf.WriteByte('u')
	}
	buf.Write(strconv.AppendInt(nil, int64(bits), 10))
	id := c.intern(&buf)
	if t := c[id]; t != nil {
		return t.(*IntType)
	}

	t := &IntType{TypeBase{Int, id}, bits, signed}
	c[id] = t
	return t
}

// FloatType returns the floating point type of the given bit width.
func (c TypeCache) FloatType(bits int) *FloatType {
	if !validFloatBits(bits) {
		panic(errors.New("invalid float bit width: %v", bits))
	}

	var buf buffer.Bytes
	buf.WriteByte('f')
	buf.Write(strconv.AppendInt(nil, int64(bits), 10))
	id := c.intern(&buf)
	if t := c[id]; t != nil {
		return t.(*FloatType)
	}

	t := &FloatType{TypeBase{Float, id}, bits}
	c[id] = t
	return t
}

// PointerType returns the type of a pointer to element.
func (c TypeCache) PointerType(element Type) *PointerType {
	var buf buffer.Bytes
	specifier(&buf, element)
	buf.WriteByte('*')
	id := c.intern(&buf)
	if t := c[id]; t != nil {
		return t.(*PointerType)
	}

	t := &PointerType{TypeBase{Pointer, id}, element}
	c[id] = t
	return t
}

// ArrayType returns the type of items consecutive instances of item.
func (c TypeCache) ArrayType(item Type, items int64) *ArrayType {
	if items < 0 {
		panic(errors.New("invalid array length: %v", items))
	}

	var buf buffer.Bytes
	buf.WriteByte('[')
	buf.Write(strconv.AppendInt(nil, items, 10))
	buf.Write([]byte(" x "))
	specifier(&buf, item)
	buf.WriteByte(']')
	id := c.intern(&buf)
	if t := c[id]; t != nil {
		return t.(*ArrayType)
	}

	t := &ArrayType{TypeBase{Array, id}, item, items}
	c[id] = t
	return t
}

// VectorType returns the type of items lanes of item.
func (c TypeCache) VectorType(item Type, items int64) *VectorType {
	if items <= 0 {
		panic(errors.New("invalid vector lane count: %v", items))
	}

	var buf buffer.Bytes
	buf.WriteByte('<')
	buf.Write(strconv.AppendInt(nil, items, 10))
	buf.Write([]byte(" x "))
	specifier(&buf, item)
	buf.WriteByte('>')
	id := c.intern(&buf)
	if t := c[id]; t != nil {
		return t.(*VectorType)
	}

	t := &VectorType{TypeBase{Vector, id}, item, items}
	c[id] = t
	return t
}

// FunctionType returns the type of a function taking params and returning
// ret. Parameter names are not part of the key: the handle keeps the names of
// the first request, where unnamed parameters are renamed to __arg{i}.
func (c TypeCache) FunctionType(ret Type, params []Param) *FunctionType {
	var buf buffer.Bytes
	specifier(&buf, ret)
	buf.Write([]byte(" ("))
	for i, v := range params {
		if i != 0 {
			buf.Write([]byte(", "))
		}
		specifier(&buf, v.Type)
	}
	buf.WriteByte(')')
	id := c.intern(&buf)
	if t := c[id]; t != nil {
		return t.(*FunctionType)
	}

	named := make([]Param, len(params))
	for i, v := range params {
		if v.Name == "" {
			v.Name = "__arg" + strconv.Itoa(i)
		}
		named[i] = v
	}
	t := &FunctionType{TypeBase{Func, id}, ret, named}
	c[id] = t
	return t
}

// AnonStructType returns the anonymous struct type with the given members.
// Anonymous structs are keyed by their member types only.
func (c TypeCache) AnonStructType(members []Member) *StructType {
	var buf buffer.Bytes
	buf.WriteByte('{')
	for i, v := range members {
		if i == 0 {
			buf.WriteByte(' ')
		} else {
			buf.Write([]byte(", "))
		}
		specifier(&buf, v.Type)
	}
	if len(members) != 0 {
		buf.WriteByte(' ')
	}
	buf.WriteByte('}')
	id := c.intern(&buf)
	if t := c[id]; t != nil {
		return t.(*StructType)
	}

	t := &StructType{TypeBase: TypeBase{Struct, id}, opaque: true}
	t.setBody(members)
	c[id] = t
	return t
}

// StructType returns the named struct type registered under name, opaque or
// not, if any.
func (c TypeCache) StructType(name string) *StructType {
	id := structTypeID(name)
	if t := c[id]; t != nil {
		return t.(*StructType)
	}

	return nil
}

// CreateStructType registers a new opaque struct type under name. Named
// structs have identity by name.
func (c TypeCache) CreateStructType(name string) *StructType {
	id := structTypeID(name)
	if c[id] != nil {
		panic(errors.New("duplicate struct type name: %%%s", name))
	}

	t := &StructType{TypeBase: TypeBase{Struct, id}, TypeName: name, opaque: true}
	c[id] = t
	return t
}

func structTypeID(name string) TypeID {
	var buf buffer.Bytes
	buf.WriteByte('%')
	buf.Write([]byte(name))
	id := TypeID(dict.ID(buf.Bytes()))
	buf.Close()
	return id
}

// QualifiedType returns base wrapped with the qualifiers in q. Qualifying a
// qualified type merges the qualifier sets.
func (c TypeCache) QualifiedType(q Qualifier, base Type) Type {
	if q == 0 {
		return base
	}

	if x, ok := base.(*QualifiedType); ok {
		q |= x.Qualifiers
		base = x.Base
	}

	var buf buffer.Bytes
	buf.Write([]byte(q.String()))
	buf.WriteByte(' ')
	buf.Write(dict.S(int(base.ID())))
	id := c.intern(&buf)
	if t := c[id]; t != nil {
		return t.(*QualifiedType)
	}

	t := &QualifiedType{TypeBase{Qualified, id}, q, base}
	c[id] = t
	return t
}

func (c TypeCache) skip(p *[]byte) {
	s := *p
	for len(s) != 0 && s[0] == ' ' {
		s = s[1:]
	}
	*p = s
}

func isNameByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}

func (c TypeCache) lex2(p *[]byte) (tok, int64, []byte) {
	c.skip(p)
	s := *p
	if len(s) == 0 {
		return tokEOF, 0, nil
	}

	switch b := s[0]; {
	case b == '*' || b == '(' || b == ')' || b == '{' || b == '}' ||
		b == '[' || b == ']' || b == '<' || b == '>' || b == ',':

		*p = s[1:]
		return tok(b), 0, nil
	case b == '%':
		i := 1
		for i < len(s) && isNameByte(s[i]) {
			i++
		}
		*p = s[i:]
		if i == 1 {
			return tokIllegal, 0, nil
		}

		return tokName, 0, s[1:i]
	case b >= '0' && b <= '9':
		var n int64
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			n = 10*n + int64(s[i]-'0')
			if n < 0 {
				return tokIllegal, 0, nil
			}

			i++
		}
		*p = s[i:]
		return tokNumber, n, nil
	case isNameByte(b):
		i := 0
		for i < len(s) && isNameByte(s[i]) {
			i++
		}
		w := s[:i]
		*p = s[i:]
		switch string(w) {
		case "void":
			return tokVoid, 0, nil
		case "x":
			return tokX, 0, nil
		case "const":
			return tokConst, 0, nil
		case "volatile":
			return tokVolatile, 0, nil
		case "restrict":
			return tokRestrict, 0, nil
		}
		if len(w) > 1 {
			if n, err := strconv.ParseInt(string(w[1:]), 10, 64); err == nil {
				switch w[0] {
				case 'i':
					return tokInt, n, nil
				case 'u':
					return tokUint, n, nil
				case 'f':
					return tokFloat, n, nil
				}
			}
		}
		return tokIllegal, 0, nil
	}

	*p = s[1:]
	return tokIllegal, 0, nil
}

func (c TypeCache) lex(p *[]byte) tok {
	t, _, _ := c.lex2(p)
	return t
}

func (c TypeCache) peek(p *[]byte) tok {
	s := *p
	t, _, _ := c.lex2(&s)
	return t
}

func (c TypeCache) parseTypeList(p *[]byte, stop tok) ([]Member, error) {
	var l []Member
	for {
		if c.peek(p) == stop {
			return l, nil
		}

		t, err := c.parse(p)
		if err != nil {
			return nil, err
		}

		l = append(l, Member{Type: t})
		if c.peek(p) != ',' {
			return l, nil
		}

		c.lex(p)
	}
}

func (c TypeCache) parseCore(p *[]byte) (Type, error) {
	tk, n, name := c.lex2(p)
	switch tk {
	case tokVoid:
		return c.VoidType(), nil
	case tokInt, tokUint:
		if !validIntBits(int(n)) {
			return nil, errors.New("invalid integer bit width: %v", n)
		}

		return c.IntType(int(n), tk == tokInt), nil
	case tokFloat:
		if !validFloatBits(int(n)) {
			return nil, errors.New("invalid float bit width: %v", n)
		}

		return c.FloatType(int(n)), nil
	case '[', '<':
		close, kind := tok(']'), Array
		if tk == '<' {
			close, kind = '>', Vector
		}
		items, m, _ := c.lex2(p)
		if items != tokNumber {
			return nil, errors.New("expected element count")
		}

		if c.lex(p) != tokX {
			return nil, errors.New("expected 'x'")
		}

		item, err := c.parse(p)
		if err != nil {
			return nil, err
		}

		if c.lex(p) != close {
			return nil, errors.New("expected %q", string(rune(close)))
		}

		if kind == Array {
			return c.ArrayType(item, m), nil
		}

		return c.VectorType(item, m), nil
	case '{':
		l, err := c.parseTypeList(p, '}')
		if err != nil {
			return nil, err
		}

		if c.lex(p) != '}' {
			return nil, errors.New("expected '}'")
		}

		return c.AnonStructType(l), nil
	case tokName:
		t := c.StructType(string(name))
		if t == nil {
			return nil, errors.New("undefined struct type: %%%s", name)
		}

		return t, nil
	case '(':
		t, err := c.parse(p)
		if err != nil {
			return nil, err
		}

		if c.lex(p) != ')' {
			return nil, errors.New("expected ')'")
		}

		return t, nil
	}
	return nil, errors.New("unexpected token in type specifier")
}

func (c TypeCache) parse(p *[]byte) (Type, error) {
	var q Qualifier
more:
	switch c.peek(p) {
	case tokConst:
		c.lex(p)
		q |= QualConst
		goto more
	case tokVolatile:
		c.lex(p)
		q |= QualVolatile
		goto more
	case tokRestrict:
		c.lex(p)
		q |= QualRestrict
		goto more
	}

	t, err := c.parseCore(p)
	if err != nil {
		return nil, err
	}

	for {
		switch c.peek(p) {
		case '*':
			c.lex(p)
			t = c.PointerType(t)
		case '(':
			c.lex(p)
			l, err := c.parseTypeList(p, ')')
			if err != nil {
				return nil, err
			}

			if c.lex(p) != ')' {
				return nil, errors.New("expected ')'")
			}

			params := make([]Param, len(l))
			for i, v := range l {
				params[i] = Param{Type: v.Type}
			}
			t = c.FunctionType(t, params)
		default:
			return c.QualifiedType(q, t), nil
		}
	}
}

// Type returns the type identified by id or an error, if any. If the cache
// has already a value for id, it is returned. Otherwise the type specifier
// denoted by id is parsed.
func (c TypeCache) Type(id TypeID) (Type, error) {
	if t := c[id]; t != nil {
		return t, nil
	}

	b := dict.S(int(id))
	t, err := c.parse(&b)
	if err != nil {
		return nil, err
	}

	if tk := c.lex(&b); tk != tokEOF {
		return nil, errors.New("trailing input in type specifier %q", id)
	}

	c[id] = t
	return t, nil
}

// MustType is like Type but panics on error.
func (c TypeCache) MustType(id TypeID) Type {
	t, err := c.Type(id)
	if err != nil {
		panic(errors.New("%q: %v", id.String(), err))
	}

	return t
}
