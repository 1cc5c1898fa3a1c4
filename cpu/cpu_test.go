package cpu

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/rvm/io"
)

// assemble a list of lines into bytecode.
func assemble(t *testing.T, lines ...string) (bc Bytecode) {
	for _, line := range lines {
		code, err := AssembleLine(line)
		require.NoError(t, err, line)
		bc = append(bc, code)
	}
	return
}

// run steps the cpu until a fault, or the step limit.
func run(t *testing.T, cpu *Cpu) (err error) {
	for range 10000 {
		_, err = cpu.Step()
		if err != nil {
			return
		}
	}

	t.Fatal("cpu did not stop")
	return
}

func TestCpu_Add(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(assemble(t, "set r0 5", "set r1 3", "add r0 r1", "int"))

	err := run(t, cpu)
	assert.ErrorIs(err, ErrHalt)
	assert.Equal(uint8(8), cpu.Register[REG_R0])
	assert.Equal(uint8(3), cpu.Register[REG_R1])
	assert.Equal(uint8(4), cpu.Register[REG_RN])
	assert.Equal(3, cpu.Ticks)
}

func TestCpu_Step(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(assemble(t, "set r0 5", "int"))

	code, err := cpu.Step()
	assert.NoError(err)
	assert.Equal(Code(0x1005), code)
	assert.Equal(uint8(1), cpu.Register[REG_RN])

	code, err = cpu.Step()
	assert.ErrorIs(err, ErrHalt)
	assert.Equal(Code(0x0000), code)
}

func TestCpu_RegisterOverflow(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		op     string
		r0, r1 uint8
	}){
		{"add", "add r0 r1", 250, 10},
		{"sub", "sub r0 r1", 10, 11},
		{"mul", "mul r0 r1", 16, 16},
		{"div", "div r0 r1", 10, 0},
	}

	for _, entry := range table {
		cpu := NewCpu(assemble(t, entry.op))
		cpu.Register[REG_R0] = entry.r0
		cpu.Register[REG_R1] = entry.r1
		before := cpu.Register

		_, err := cpu.Step()
		assert.ErrorIs(err, ErrRegisterOverflow, entry.name)
		assert.ErrorIs(err, ErrOpcode(0), entry.name)

		// Only the program counter moved.
		before[REG_RN] = 1
		assert.Equal(before, cpu.Register, entry.name)
	}
}

func TestCpu_Arith(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op     string
		r0, r1 uint8
		result uint8
	}){
		{"add r0 r1", 250, 5, 255},
		{"sub r0 r1", 10, 10, 0},
		{"mul r0 r1", 15, 17, 255},
		{"div r0 r1", 10, 3, 3},
		{"lsh r0 r1", 0x81, 1, 0x02},
		{"lsh r0 r1", 0xff, 8, 0x00},
		{"rsh r0 r1", 0x81, 7, 0x01},
		{"and r0 r1", 0xf0, 0x3c, 0x30},
		{"bor r0 r1", 0xf0, 0x0f, 0xff},
		{"xor r0 r1", 0xff, 0x0f, 0xf0},
	}

	for _, entry := range table {
		cpu := NewCpu(assemble(t, entry.op))
		cpu.Register[REG_R0] = entry.r0
		cpu.Register[REG_R1] = entry.r1

		_, err := cpu.Step()
		assert.NoError(err, entry.op)
		assert.Equal(entry.result, cpu.Register[REG_R0], entry.op)
		assert.Equal(entry.r1, cpu.Register[REG_R1], entry.op)
	}
}

func TestCpu_PushPop(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(assemble(t,
		"set r0 1", "set r1 2", "set r2 3",
		"psh r2 r0",
		"pop r6 r4",
		"int",
	))

	for range 4 {
		_, err := cpu.Step()
		assert.NoError(err)
	}
	assert.Equal([]uint8{1, 2, 3}, cpu.Stack.Data)
	assert.Equal(uint8(3), cpu.Register[REG_RD])

	err := run(t, cpu)
	assert.ErrorIs(err, ErrHalt)
	assert.Equal(uint8(1), cpu.Register[REG_R4])
	assert.Equal(uint8(2), cpu.Register[REG_R5])
	assert.Equal(uint8(3), cpu.Register[REG_R6])
	assert.Equal(uint8(0), cpu.Register[REG_RD])
	assert.True(cpu.Stack.Empty())
}

func TestCpu_StackOverflow(t *testing.T) {
	assert := assert.New(t)

	// Push r0 forever.
	cpu := NewCpu(assemble(t, "psh r0 r0", "set rn 0"))

	err := run(t, cpu)
	assert.ErrorIs(err, ErrStackOverflow)
	assert.Equal(uint8(STACK_LIMIT), cpu.Register[REG_RD])
	assert.Equal(STACK_LIMIT, cpu.Stack.Len())

	// A stack that is already full also overflows.
	cpu = NewCpu(assemble(t, "psh r0 r1"))
	for range STACK_LIMIT {
		cpu.Stack.Push(0)
	}
	_, err = cpu.Step()
	assert.ErrorIs(err, ErrStackOverflow)
	assert.Equal(uint8(0), cpu.Register[REG_RD])
	assert.Equal(STACK_LIMIT, cpu.Stack.Len())
}

func TestCpu_StackUnderflow(t *testing.T) {
	assert := assert.New(t)

	// Popping an empty stack has its own fault kind, and is no longer
	// reported as ErrStackOverflow.
	cpu := NewCpu(assemble(t, "pop r0 r0"))
	_, err := cpu.Step()
	assert.ErrorIs(err, ErrStackUnderflow)
	assert.False(errors.Is(err, ErrStackOverflow))

	// 'rd' out of step with the stack is caught by its own underflow.
	cpu = NewCpu(assemble(t, "pop r0 r0"))
	cpu.Stack.Push(7)
	_, err = cpu.Step()
	assert.ErrorIs(err, ErrStackUnderflow)
	assert.Equal(1, cpu.Stack.Len())
	assert.Equal(uint8(0), cpu.Register[REG_R0])

	// Partial pops keep what was popped before the fault.
	cpu = NewCpu(assemble(t, "set r0 9", "psh r0 r0", "pop r1 r2"))
	err = run(t, cpu)
	assert.ErrorIs(err, ErrStackUnderflow)
	assert.Equal(uint8(9), cpu.Register[REG_R2])
	assert.Equal(uint8(0), cpu.Register[REG_RD])
}

func TestCpu_Check(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		r0, r1 uint8
		flag   uint8
	}){
		{5, 5, FLAG_EQ},
		{4, 5, FLAG_LT},
		{6, 5, FLAG_GT},
	}

	for _, entry := range table {
		cpu := NewCpu(assemble(t, "chk r0 r1"))
		cpu.Register[REG_R0] = entry.r0
		cpu.Register[REG_R1] = entry.r1

		_, err := cpu.Step()
		assert.NoError(err)
		assert.Equal(entry.flag, cpu.Register[REG_RF])
	}
}

func TestCpu_ConditionalSet(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(assemble(t,
		"set r1 7",
		"set rc 1", // FLAG_EQ
		"chk r0 r0",
		"cns r2 r1",
		"chk r0 r1",
		"cns r3 r1",
		"int",
	))

	err := run(t, cpu)
	assert.ErrorIs(err, ErrHalt)
	assert.Equal(uint8(7), cpu.Register[REG_R2])
	assert.Equal(uint8(0), cpu.Register[REG_R3])
	assert.Equal(FLAG_LT, cpu.Register[REG_RF])
}

func TestCpu_Loop(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(assemble(t,
		"set r1 1",
		"set r2 5",
		"set r3 3",
		"add r0 r1", // loop head
		"chk r0 r2",
		"set rc 2", // FLAG_LT
		"cns rn r3",
		"int",
	))

	err := run(t, cpu)
	assert.ErrorIs(err, ErrHalt)
	assert.Equal(uint8(5), cpu.Register[REG_R0])
	assert.Equal(FLAG_EQ, cpu.Register[REG_RF])
}

func TestCpu_LoadIndirect(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(assemble(t,
		"set r0 10", "set r1 20", "set r2 30",
		"psh r0 r2",
		"set r3 1",
		"lpt r4 r3",
		"set r3 3",
		"lpt r4 r3",
	))

	err := run(t, cpu)
	assert.ErrorIs(err, ErrStackInvalidAccess)
	assert.Equal(uint8(20), cpu.Register[REG_R4])
	assert.Equal(uint8(8), cpu.Register[REG_RN])
}

func TestCpu_Jump(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(assemble(t, "set r0 1", "set rn 3", "set r0 2", "int"))

	err := run(t, cpu)
	assert.ErrorIs(err, ErrHalt)
	assert.Equal(uint8(1), cpu.Register[REG_R0])
}

func TestCpu_InvalidFields(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code Code
		err  error
	}){
		{0x1d05, ErrInvalidTarget}, // set hlt 5
		{0x4d00, ErrInvalidTarget}, // add hlt r0
		{0x400d, ErrInvalidValue},  // add r0 13
		{0x20ff, ErrInvalidValue},  // psh r0 255
		{0x3e00, ErrInvalidTarget}, // pop sys r0
		{0x800d, ErrInvalidValue},  // chk r0 13
		{0x900d, ErrInvalidValue},  // cns r0 13
		{0xa00d, ErrInvalidValue},  // lpt r0 13
		{0xbf00, ErrInvalidTarget}, // lsh 15 r0
	}

	for _, entry := range table {
		cpu := NewCpu(Bytecode{entry.code})
		_, err := cpu.Step()
		assert.ErrorIs(err, entry.err, entry.code.String())
	}
}

func TestCpu_FetchInvalid(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(nil)
	_, err := cpu.Step()
	assert.ErrorIs(err, ErrFetchInvalid)
	assert.Equal(uint8(0), cpu.Register[REG_RN])

	cpu = NewCpu(assemble(t, "set r0 1"))
	err = run(t, cpu)
	assert.ErrorIs(err, ErrFetchInvalid)
	assert.Equal(uint8(1), cpu.Register[REG_RN])
	assert.Equal(uint8(1), cpu.Register[REG_R0])
}

func TestCpu_FetchNext(t *testing.T) {
	assert := assert.New(t)

	lines := make([]string, 256)
	for n := range lines {
		lines[n] = "add r0 r1"
	}
	cpu := NewCpu(assemble(t, lines...))
	cpu.Register[REG_R1] = 1

	// Jump near the end, and let 'rn' run off.
	cpu.Register[REG_RN] = 250
	err := run(t, cpu)
	assert.ErrorIs(err, ErrFetchNext)
	assert.Equal(uint8(255), cpu.Register[REG_RN])
	assert.Equal(uint8(5), cpu.Register[REG_R0])
}

func TestCpu_FetchWrap(t *testing.T) {
	assert := assert.New(t)

	lines := make([]string, 256)
	for n := range lines {
		lines[n] = "set r0 9"
	}
	lines[1] = "int"
	lines[255] = "set rn 1"
	cpu := NewCpu(assemble(t, lines...))

	// The last instruction targets 'rn', so it may wrap.
	cpu.Register[REG_RN] = 255
	err := run(t, cpu)
	assert.ErrorIs(err, ErrHalt)
	assert.Equal(uint8(2), cpu.Register[REG_RN])
	assert.Equal(uint8(0), cpu.Register[REG_R0])
}

func TestCpu_Interrupt(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(assemble(t, "set rs 9", "int"))
	err := run(t, cpu)
	assert.ErrorIs(err, ErrUnimplemented)

	// No console attached.
	cpu = NewCpu(assemble(t, "set rs 1", "int"))
	err = run(t, cpu)
	assert.ErrorIs(err, ErrInterrupt)

	cpu = NewCpu(assemble(t, "set rs 2", "int"))
	err = run(t, cpu)
	assert.ErrorIs(err, ErrInterrupt)

	// The target field does not select the call.
	cpu = NewCpu(assemble(t, "set rs 9", "int hlt"))
	err = run(t, cpu)
	assert.ErrorIs(err, ErrUnimplemented)
}

func TestCpu_PrintLine(t *testing.T) {
	assert := assert.New(t)

	output := &bytes.Buffer{}
	cpu := NewCpu(assemble(t,
		"set r0 33", "psh r0 r0",
		"set r0 104", "set r1 105", "psh r0 r1",
		"set r0 1",
		"set rs 1",
		"int",
		"set r0 0",
		"int",
		"set r0 3",
		"int",
		"set rs 0",
		"int",
	))
	cpu.Console = &io.Tty{Output: output}

	err := run(t, cpu)
	assert.ErrorIs(err, ErrHalt)
	assert.Equal("hi\n!hi\n\n", output.String())
	assert.Equal(uint8(3), cpu.Register[REG_RD])
}

func TestCpu_ReadLine(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(assemble(t,
		"set r0 3",
		"set rs 2",
		"int",
		"set r1 3",
		"add r1 r0",
		"set r0 10",
		"int",
		"set r0 10",
		"int",
		"set rs 0",
		"int",
	))
	cpu.Console = &io.Tty{Input: strings.NewReader("hello\nok\n")}

	err := run(t, cpu)
	assert.ErrorIs(err, ErrHalt)
	assert.Equal([]uint8("helok"), cpu.Stack.Data)
	assert.Equal(uint8(5), cpu.Register[REG_RD])
	assert.Equal(uint8(6), cpu.Register[REG_R1])
	// End of input reads an empty line.
	assert.Equal(uint8(0), cpu.Register[REG_R0])
}

func TestCpu_ReadLine_Overflow(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(assemble(t, "set r0 10", "set rs 2", "int"))
	cpu.Console = &io.Tty{Input: strings.NewReader("abc\n")}
	for range STACK_LIMIT - 1 {
		cpu.push(0)
	}

	err := run(t, cpu)
	assert.ErrorIs(err, ErrStackOverflow)
	assert.Equal(uint8(STACK_LIMIT), cpu.Register[REG_RD])
	assert.Equal(uint8(10), cpu.Register[REG_R0])
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(assemble(t, "set r0 5", "psh r0 r0", "int"))
	err := run(t, cpu)
	assert.ErrorIs(err, ErrHalt)

	cpu.Reset()
	assert.Equal([REG_COUNT]uint8{}, cpu.Register)
	assert.True(cpu.Stack.Empty())
	assert.Equal(0, cpu.Ticks)
	assert.Equal(3, len(cpu.Bytecode))
}

func TestCpu_String(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(assemble(t, "set r0 8", "psh r0 r0", "int"))
	err := run(t, cpu)
	assert.ErrorIs(err, ErrHalt)

	text := cpu.String()
	assert.Contains(text, "   r0: 0x08 (8)\n")
	assert.Contains(text, "   rd: 0x01 (1)\n")
	assert.Contains(text, "stack: 08\n")
}
