// Copyright 2017 The IR Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"tlog.app/go/errors"
)

// BasicBlock is an ordered list of instructions with a single entry and a
// single exit. A well-formed block ends with its only terminator and keeps
// all phi instructions at the front.
type BasicBlock struct {
	ValueBase
	parent *Function
	head   *Instruction
	tail   *Instruction
	preds  []*BasicBlock
	succs  []*BasicBlock
}

// Parent returns the function owning b.
func (b *BasicBlock) Parent() *Function { return b.parent }

// FirstInstruction returns the head of the instruction list, or nil.
func (b *BasicBlock) FirstInstruction() *Instruction { return b.head }

// LastInstruction returns the tail of the instruction list, or nil.
func (b *BasicBlock) LastInstruction() *Instruction { return b.tail }

// Terminator returns the final instruction if it is a terminator and nil
// otherwise.
func (b *BasicBlock) Terminator() *Instruction {
	if b.tail != nil && b.tail.IsTerminator() {
		return b.tail
	}

	return nil
}

// Predecessors returns the blocks branching to b.
func (b *BasicBlock) Predecessors() []*BasicBlock { return b.preds }

// Successors returns the blocks b branches to.
func (b *BasicBlock) Successors() []*BasicBlock { return b.succs }

// FirstNonPhi returns the first instruction that is not a phi, or nil.
func (b *BasicBlock) FirstNonPhi() *Instruction {
	for i := b.head; i != nil; i = i.next {
		if i.opcode != Phi {
			return i
		}
	}
	return nil
}

// LastNonPhi returns the last instruction that is not a phi, or nil.
func (b *BasicBlock) LastNonPhi() *Instruction {
	for i := b.tail; i != nil; i = i.prev {
		if i.opcode != Phi {
			return i
		}
	}
	return nil
}

// Append links inst at the tail of b. Appending to a terminated block fails.
func (b *BasicBlock) Append(inst *Instruction) {
	if inst.parent != nil {
		panic(errors.New("instruction already has a parent"))
	}

	if b.Terminator() != nil {
		panic(errors.New("block %s already terminated", b.Name()))
	}

	inst.parent = b
	inst.prev = b.tail
	if b.tail != nil {
		b.tail.next = inst
	} else {
		b.head = inst
	}
	b.tail = inst
}

// InsertBefore splices inst into b directly before pos. pos must belong to b.
func (b *BasicBlock) InsertBefore(pos, inst *Instruction) {
	if pos.parent != b {
		panic(errors.New("insertion position not in block %s", b.Name()))
	}

	if inst.parent != nil {
		panic(errors.New("instruction already has a parent"))
	}

	inst.parent = b
	inst.prev = pos.prev
	inst.next = pos
	if pos.prev != nil {
		pos.prev.next = inst
	} else {
		b.head = inst
	}
	pos.prev = inst
}

// InsertAfter splices inst into b directly after pos. pos must belong to b.
func (b *BasicBlock) InsertAfter(pos, inst *Instruction) {
	if pos.parent != b {
		panic(errors.New("insertion position not in block %s", b.Name()))
	}

	if pos.next == nil {
		b.Append(inst)
		return
	}

	b.InsertBefore(pos.next, inst)
}

// AddSuccessor records a CFG edge from b to s, updating both sides.
func (b *BasicBlock) AddSuccessor(s *BasicBlock) {
	b.succs = append(b.succs, s)
	s.preds = append(s.preds, b)
}

// removeSuccessor removes one CFG edge from b to s on both sides.
func (b *BasicBlock) removeSuccessor(s *BasicBlock) {
	for i, v := range b.succs {
		if v == s {
			b.succs = append(b.succs[:i], b.succs[i+1:]...)
			break
		}
	}
	for i, v := range s.preds {
		if v == b {
			s.preds = append(s.preds[:i], s.preds[i+1:]...)
			break
		}
	}
}

// Remove unlinks inst from b and drops its operand uses. An instruction still
// referenced by users cannot be removed.
func (b *BasicBlock) Remove(inst *Instruction) {
	if inst.parent != b {
		panic(errors.New("instruction not in block %s", b.Name()))
	}

	if len(inst.Users()) != 0 {
		panic(errors.New("cannot remove instruction with users: %%%s", inst.Name()))
	}

	if inst.IsTerminator() {
		for _, s := range append([]*BasicBlock(nil), b.succs...) {
			b.removeSuccessor(s)
		}
	}

	inst.dropOperands()
	if inst.prev != nil {
		inst.prev.next = inst.next
	} else {
		b.head = inst.next
	}
	if inst.next != nil {
		inst.next.prev = inst.prev
	} else {
		b.tail = inst.prev
	}
	inst.parent = nil
	inst.prev = nil
	inst.next = nil
}
