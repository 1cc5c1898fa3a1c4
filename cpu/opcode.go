// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
)

// CodeOp is the 4-bit opcode of an instruction word.
type CodeOp int

const (
	OP_INT = CodeOp(0x0) // int
	OP_SET = CodeOp(0x1) // set
	OP_PSH = CodeOp(0x2) // psh
	OP_POP = CodeOp(0x3) // pop
	OP_ADD = CodeOp(0x4) // add
	OP_SUB = CodeOp(0x5) // sub
	OP_MUL = CodeOp(0x6) // mul
	OP_DIV = CodeOp(0x7) // div
	OP_CHK = CodeOp(0x8) // chk
	OP_CNS = CodeOp(0x9) // cns
	OP_LPT = CodeOp(0xa) // lpt
	OP_LSH = CodeOp(0xb) // lsh
	OP_RSH = CodeOp(0xc) // rsh
	OP_AND = CodeOp(0xd) // and
	OP_BOR = CodeOp(0xe) // bor
	OP_XOR = CodeOp(0xf) // xor
)

var opNames = [...]string{
	"int", "set", "psh", "pop", "add", "sub", "mul", "div",
	"chk", "cns", "lpt", "lsh", "rsh", "and", "bor", "xor",
}

func (op CodeOp) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return fmt.Sprintf("CodeOp(%d)", int(op))
	}
	return opNames[op]
}

// CodeReg is a register id, as found in the target or value field.
type CodeReg int

const (
	REG_R0 = CodeReg(0x0) // r0
	REG_R1 = CodeReg(0x1) // r1
	REG_R2 = CodeReg(0x2) // r2
	REG_R3 = CodeReg(0x3) // r3
	REG_R4 = CodeReg(0x4) // r4
	REG_R5 = CodeReg(0x5) // r5
	REG_R6 = CodeReg(0x6) // r6
	REG_R7 = CodeReg(0x7) // r7
	REG_RN = CodeReg(0x8) // rn: next instruction index
	REG_RD = CodeReg(0x9) // rd: stack depth
	REG_RF = CodeReg(0xa) // rf: comparison flag
	REG_RC = CodeReg(0xb) // rc: compare target
	REG_RS = CodeReg(0xc) // rs: interrupt selector

	// Target sentinels for the 'int' opcode. These are not registers.
	REG_HLT = CodeReg(0xd) // hlt
	REG_SYS = CodeReg(0xe) // sys
)

// REG_COUNT is the size of the register file.
const REG_COUNT = int(REG_RS) + 1

var regNames = [...]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"rn", "rd", "rf", "rc", "rs", "hlt", "sys",
}

func (reg CodeReg) String() string {
	if reg < 0 || int(reg) >= len(regNames) {
		return fmt.Sprintf("CodeReg(%d)", int(reg))
	}
	return regNames[reg]
}

// Valid returns true if the id names a register of the register file.
func (reg CodeReg) Valid() bool {
	return reg >= REG_R0 && reg <= REG_RS
}

// CodeSys is an interrupt selector, read from 'rs' when 'int' executes.
type CodeSys uint8

const (
	SYS_HALT      = CodeSys(0) // halt
	SYS_PRINTLINE = CodeSys(1) // printline
	SYS_READLINE  = CodeSys(2) // readline
)

func (sys CodeSys) String() string {
	switch sys {
	case SYS_HALT:
		return "halt"
	case SYS_PRINTLINE:
		return "printline"
	case SYS_READLINE:
		return "readline"
	}
	return fmt.Sprintf("CodeSys(%d)", uint8(sys))
}

// Comparison results written to 'rf' by 'chk'.
const (
	FLAG_EQ = uint8(1)
	FLAG_LT = uint8(2)
	FLAG_GT = uint8(3)
)

// Code is a single 16-bit instruction word.
//
//	bits 15-12: opcode
//	bits 11-8:  target register
//	bits 7-0:   immediate, or value register
type Code uint16

// MakeCode assembles an instruction word from its fields.
func MakeCode(op CodeOp, target CodeReg, value uint8) Code {
	return Code((uint16(op)&0xf)<<12 | (uint16(target)&0xf)<<8 | uint16(value))
}

// Op returns the opcode of the instruction word.
func (code Code) Op() CodeOp {
	return CodeOp((uint16(code) >> 12) & 0xf)
}

// TargetField returns the raw target nibble, without validation.
func (code Code) TargetField() CodeReg {
	return CodeReg((uint16(code) >> 8) & 0xf)
}

// Target returns the target register.
func (code Code) Target() (reg CodeReg, err error) {
	reg = code.TargetField()
	if !reg.Valid() {
		err = ErrInvalidTarget
	}
	return
}

// ValueRegister returns the value field interpreted as a register id.
func (code Code) ValueRegister() (reg CodeReg, err error) {
	reg = CodeReg(code.Immediate())
	if !reg.Valid() {
		err = ErrInvalidTarget
	}
	return
}

// Immediate returns the value field as a literal.
func (code Code) Immediate() uint8 {
	return uint8(uint16(code) & 0xff)
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	op := code.Op()
	target := code.TargetField()

	switch op {
	case OP_INT:
		return fmt.Sprintf("%v %v", op, target)
	case OP_SET:
		return fmt.Sprintf("%v %v %d", op, target, code.Immediate())
	}

	return fmt.Sprintf("%v %v %v", op, target, CodeReg(code.Immediate()))
}
