package cpu

import (
	"errors"

	"github.com/ezrec/rvm/translate"
)

var f = translate.From

var (
	// Fetch errors
	ErrFetchInvalid = errors.New(f("fetch invalid"))
	ErrFetchNext    = errors.New(f("fetch next"))

	// Decode and execute errors
	ErrInvalidOpcode      = errors.New(f("invalid opcode"))
	ErrInvalidTarget      = errors.New(f("invalid target"))
	ErrInvalidValue       = errors.New(f("invalid value"))
	ErrRegisterOverflow   = errors.New(f("register overflow"))
	ErrStackOverflow      = errors.New(f("stack overflow"))
	ErrStackUnderflow     = errors.New(f("stack underflow"))
	ErrStackInvalidAccess = errors.New(f("stack invalid access"))
	ErrInterrupt          = errors.New(f("interrupt"))
	ErrHalt               = errors.New(f("halt"))
	ErrUnimplemented      = errors.New(f("unimplemented"))

	// Assembler errors
	ErrNoOpcode = errors.New(f("no opcode"))
	ErrNoTarget = errors.New(f("no target"))
	ErrNoValue  = errors.New(f("no value"))
	ErrLine     = errors.New(f("malformed line"))

	// Bytecode I/O errors
	ErrBytecodeTruncated = errors.New(f("bytecode truncated"))
)

// ErrOpcode names the instruction word that faulted.
type ErrOpcode Code

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%04x %v", uint16(eo), Code(eo).String())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrSyntax locates an assembly error in the source text.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// Hint returns a short suggestion on how to fix the line.
func (err *ErrSyntax) Hint() string {
	switch {
	case errors.Is(err.Err, ErrNoOpcode):
		return f("Invalid opcode")
	case errors.Is(err.Err, ErrNoTarget):
		return f("Must be a register")
	case errors.Is(err.Err, ErrNoValue):
		return f("Must be a register (8bit integer in case of \"set\")")
	}
	return f("Malformed line")
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not an 8bit number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
