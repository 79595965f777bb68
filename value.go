// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

var (
	_ Value = (*Argument)(nil)
	_ Value = (*BasicBlock)(nil)
	_ Value = (*Function)(nil)
	_ Value = (*GlobalVariable)(nil)
	_ Value = (*Instruction)(nil)
	_ Value = (*ValueBase)(nil)

	_ User = (*Instruction)(nil)
	_ User = (*UserBase)(nil)
)

// Value is anything an instruction can refer to: arguments, basic blocks,
// constants, global variables, functions and other instructions. A value
// knows its type and the users that currently hold it as an operand.
type Value interface {
	Type() Type
	Name() string
	SetName(string)
	Users() []User

	addUser(User)
	removeUser(User)
}

// User is a Value with an ordered operand list. Operand mutation keeps the
// def-use edges symmetric: an occurrence of v in u.Operands() always matches
// an occurrence of u in v.Users().
type User interface {
	Value
	NumOperands() int
	Operand(i int) Value
	Operands() []Value
	SetOperand(i int, v Value)
	RemoveUseOf(v Value)
}

// ValueBase collects fields common to all values.
type ValueBase struct {
	typ   Type
	name  string
	users []User
}

// Type returns the type of the value.
func (v *ValueBase) Type() Type { return v.typ }

// Name returns the name of the value, which may be empty.
func (v *ValueBase) Name() string { return v.name }

// SetName sets the name of the value.
func (v *ValueBase) SetName(s string) { v.name = s }

// Users returns the users currently holding the value as an operand, one item
// per occurrence.
func (v *ValueBase) Users() []User { return v.users }

func (v *ValueBase) addUser(u User) { v.users = append(v.users, u) }

// removeUser removes a single occurrence of u.
func (v *ValueBase) removeUser(u User) {
	for i, w := range v.users {
		if w == u {
			v.users = append(v.users[:i], v.users[i+1:]...)
			return
		}
	}
}

// UserBase collects fields common to all users. The self field carries the
// outer User so back-edges refer to it rather than to the embedded base.
type UserBase struct {
	ValueBase
	operands []Value
	self     User
}

// NumOperands returns the number of operands.
func (u *UserBase) NumOperands() int { return len(u.operands) }

// Operands returns the ordered operand list.
func (u *UserBase) Operands() []Value { return u.operands }

// Operand returns the i-th operand. An out of range index returns nil with a
// diagnostic, it does not fail.
func (u *UserBase) Operand(i int) Value {
	if i < 0 || i >= len(u.operands) {
		tlog.Printw("operand index out of range", "index", i, "operands", len(u.operands))
		return nil
	}

	return u.operands[i]
}

// SetOperand replaces the i-th operand with v, removing one back-edge from
// the old operand and adding one to v.
func (u *UserBase) SetOperand(i int, v Value) {
	if i < 0 || i >= len(u.operands) {
		panic(errors.New("operand index out of range: %v", i))
	}

	if old := u.operands[i]; old != nil {
		old.removeUser(u.self)
	}
	u.operands[i] = v
	if v != nil {
		v.addUser(u.self)
	}
}

// RemoveUseOf strips every occurrence of v from the operand list together
// with the reciprocal back-edges.
func (u *UserBase) RemoveUseOf(v Value) {
	w := 0
	for _, op := range u.operands {
		if op == v {
			v.removeUser(u.self)
			continue
		}

		u.operands[w] = op
		w++
	}
	u.operands = u.operands[:w]
}

func (u *UserBase) addOperand(v Value) {
	u.operands = append(u.operands, v)
	v.addUser(u.self)
}

// dropOperands removes the back-edge of every operand. Used when a user is
// destroyed.
func (u *UserBase) dropOperands() {
	for _, op := range u.operands {
		op.removeUser(u.self)
	}
	u.operands = nil
}
