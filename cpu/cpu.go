// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ezrec/rvm/io"
)

// Console is the device used by the 'int' opcode.
type Console io.Console

// Cpu is the execution context of the virtual machine: the register file,
// the operand stack, and the loaded bytecode.
type Cpu struct {
	Verbose bool        // Set to enable step tracing.
	Logger  *zap.Logger // Trace logger. If nil, tracing is discarded.

	Register [REG_COUNT]uint8 // Register bank. 'rn' is the program counter.
	Stack    Stack            // Operand stack. 'rd' tracks its depth.
	Bytecode Bytecode         // Loaded instruction stream.
	Console  Console          // Console for 'int' I/O.

	Ticks int // Count of executed instructions.
}

// NewCpu creates a new CPU with the bytecode loaded.
func NewCpu(bytecode Bytecode) (cpu *Cpu) {
	cpu = &Cpu{
		Bytecode: bytecode,
	}

	return
}

func (cpu *Cpu) logger() *zap.Logger {
	if cpu.Logger == nil {
		return zap.NewNop()
	}
	return cpu.Logger
}

// Reset the CPU state.
// - Clears the registers and the stack.
// - Zeros the tick counter.
// The loaded bytecode is kept.
func (cpu *Cpu) Reset() {
	clear(cpu.Register[:])
	cpu.Stack.Reset()
	cpu.Ticks = 0
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	for reg := REG_R0; reg <= REG_RS; reg++ {
		val := cpu.Register[reg]
		text += fmt.Sprintf("% 5s: 0x%02X (%d)\n", reg.String(), val, val)
	}

	strval := "-"
	if !cpu.Stack.Empty() {
		strval = fmt.Sprintf("% X", cpu.Stack.Data)
	}
	text += fmt.Sprintf("% 5s: %v\n", "stack", strval)

	return
}

// Fetch returns the instruction at 'rn', and advances 'rn'.
//
// When 'rn' would overflow, the instruction must itself target 'rn',
// otherwise the program is too long to address.
func (cpu *Cpu) Fetch() (code Code, err error) {
	ip := cpu.Register[REG_RN]
	if int(ip) >= len(cpu.Bytecode) {
		err = ErrFetchInvalid
		return
	}

	code = cpu.Bytecode[ip]

	next, ok := checkedAdd(ip, 1)
	if !ok {
		if code.TargetField() != REG_RN {
			err = ErrFetchNext
		}
		return
	}

	cpu.Register[REG_RN] = next
	return
}

// Step executes a single fetch-decode-execute cycle, and returns the
// fetched instruction.
func (cpu *Cpu) Step() (code Code, err error) {
	ip := cpu.Register[REG_RN]

	code, err = cpu.Fetch()
	if err != nil {
		return
	}

	err = cpu.Execute(code)
	if err != nil {
		return
	}

	cpu.Ticks++

	if cpu.Verbose {
		cpu.logger().Debug("step",
			zap.Uint8("ip", ip),
			zap.Stringer("code", code),
			zap.Uint8s("registers", cpu.Register[:]),
		)
	}

	return
}

// Execute executes a single decoded instruction.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	switch op := code.Op(); op {
	case OP_INT:
		err = cpu.interrupt()
	case OP_SET:
		var target CodeReg
		target, err = code.Target()
		if err != nil {
			return
		}
		cpu.Register[target] = code.Immediate()
	case OP_PSH:
		var target, value CodeReg
		target, value, err = operands(code)
		if err != nil {
			return
		}
		for reg := min(target, value); reg <= max(target, value); reg++ {
			err = cpu.push(cpu.Register[reg])
			if err != nil {
				return
			}
		}
	case OP_POP:
		var target, value CodeReg
		target, value, err = operands(code)
		if err != nil {
			return
		}
		for reg := max(target, value); reg >= min(target, value); reg-- {
			var val uint8
			val, err = cpu.pop()
			if err != nil {
				return
			}
			cpu.Register[reg] = val
		}
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV:
		var target, value CodeReg
		target, value, err = operands(code)
		if err != nil {
			return
		}
		result, ok := checkedArith(op, cpu.Register[target], cpu.Register[value])
		if !ok {
			err = ErrRegisterOverflow
			return
		}
		cpu.Register[target] = result
	case OP_CHK:
		var target, value CodeReg
		target, value, err = operands(code)
		if err != nil {
			return
		}
		a := cpu.Register[target]
		b := cpu.Register[value]
		switch {
		case a == b:
			cpu.Register[REG_RF] = FLAG_EQ
		case a < b:
			cpu.Register[REG_RF] = FLAG_LT
		default:
			cpu.Register[REG_RF] = FLAG_GT
		}
	case OP_CNS:
		var target, value CodeReg
		target, value, err = operands(code)
		if err != nil {
			return
		}
		if cpu.Register[REG_RF] == cpu.Register[REG_RC] {
			cpu.Register[target] = cpu.Register[value]
		}
	case OP_LPT:
		var target, value CodeReg
		target, value, err = operands(code)
		if err != nil {
			return
		}
		val, ok := cpu.Stack.Get(int(cpu.Register[value]))
		if !ok {
			err = ErrStackInvalidAccess
			return
		}
		cpu.Register[target] = val
	case OP_LSH, OP_RSH, OP_AND, OP_BOR, OP_XOR:
		var target, value CodeReg
		target, value, err = operands(code)
		if err != nil {
			return
		}
		cpu.Register[target] = bitwise(op, cpu.Register[target], cpu.Register[value])
	default:
		err = ErrInvalidOpcode
	}

	return
}

// operands decodes the target and value fields as registers.
func operands(code Code) (target, value CodeReg, err error) {
	target, err = code.Target()
	if err != nil {
		err = ErrInvalidTarget
		return
	}

	value, err = code.ValueRegister()
	if err != nil {
		err = ErrInvalidValue
		return
	}

	return
}

// push a value, keeping 'rd' in step with the stack depth.
func (cpu *Cpu) push(value uint8) (err error) {
	depth, ok := checkedAdd(cpu.Register[REG_RD], 1)
	if !ok || !cpu.Stack.Push(value) {
		err = ErrStackOverflow
		return
	}

	cpu.Register[REG_RD] = depth
	return
}

// pop a value, keeping 'rd' in step with the stack depth.
func (cpu *Cpu) pop() (value uint8, err error) {
	depth, ok := checkedSub(cpu.Register[REG_RD], 1)
	if !ok || cpu.Stack.Empty() {
		err = ErrStackUnderflow
		return
	}

	value, _ = cpu.Stack.Pop()
	cpu.Register[REG_RD] = depth
	return
}

// interrupt performs the system call selected by 'rs'.
func (cpu *Cpu) interrupt() (err error) {
	sys := CodeSys(cpu.Register[REG_RS])

	switch sys {
	case SYS_HALT:
		err = ErrHalt
	case SYS_PRINTLINE:
		if cpu.Console == nil {
			err = ErrInterrupt
			return
		}
		var text strings.Builder
		for index := int(cpu.Register[REG_R0]); ; index++ {
			val, ok := cpu.Stack.Get(index)
			if !ok || !utf8.ValidRune(rune(val)) {
				break
			}
			text.WriteRune(rune(val))
		}
		err = cpu.Console.WriteLine(text.String())
		if err != nil {
			err = errors.Join(ErrInterrupt, err)
		}
	case SYS_READLINE:
		if cpu.Console == nil {
			err = ErrInterrupt
			return
		}
		var line string
		line, err = cpu.Console.ReadLine()
		if err != nil {
			err = errors.Join(ErrInterrupt, err)
			return
		}
		limit := int(cpu.Register[REG_R0])
		count := 0
		for _, chr := range line {
			if count >= limit {
				break
			}
			err = cpu.push(uint8(chr))
			if err != nil {
				return
			}
			count++
		}
		cpu.Register[REG_R0] = uint8(count)
		if cpu.Verbose {
			cpu.logger().Debug("readline", zap.Int("count", count))
		}
	default:
		err = ErrUnimplemented
	}

	return
}
