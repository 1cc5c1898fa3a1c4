package emulator

import (
	"errors"

	"github.com/ezrec/rvm/cpu"
	"github.com/ezrec/rvm/translate"
)

var f = translate.From

var (
	ErrTickLimit = errors.New(f("tick limit"))
)

// ErrRuntime indicates the location of a runtime fault.
type ErrRuntime struct {
	Ip     uint8 // Value of 'rn' at the time of the fault.
	LineNo int   // Source line of the faulting instruction, or -1.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo < 0 {
		return f("index 0x%x %v", err.Ip, err.Err)
	}
	return f("index 0x%x line %d %v", err.Ip, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

var runtimeHints = []struct {
	err  error
	hint string
}{
	{cpu.ErrFetchNext, "Program too large?"},
	{cpu.ErrFetchInvalid, "No instruction found at this index"},
	{cpu.ErrUnimplemented, "Instruction not implemented (yet)"},
	{cpu.ErrInvalidOpcode, "Invalid Opcode"},
	{cpu.ErrInvalidTarget, "Invalid Target"},
	{cpu.ErrInvalidValue, "Invalid Value"},
	{cpu.ErrRegisterOverflow, "Register overflow / underflow"},
	{cpu.ErrStackOverflow, "Stack overflow"},
	{cpu.ErrStackUnderflow, "Stack underflow"},
	{cpu.ErrStackInvalidAccess, "Invalid Stack access"},
	{cpu.ErrInterrupt, "Interrupt Error"},
	{ErrTickLimit, "Tick limit reached, endless loop?"},
}

// Hint returns a short description of the likely cause of the fault.
func (err *ErrRuntime) Hint() string {
	for _, entry := range runtimeHints {
		if errors.Is(err.Err, entry.err) {
			return f(entry.hint)
		}
	}

	return f("Unknown fault")
}
