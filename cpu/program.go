package cpu

import (
	"encoding/binary"
	"io"
	"iter"
	"slices"
)

// Bytecode is an assembled instruction stream, indexed by 'rn'.
type Bytecode []Code

// WriteTo writes the bytecode as big-endian 16-bit words, with no header.
func (bc Bytecode) WriteTo(w io.Writer) (n int64, err error) {
	buf := make([]byte, 0, 2*len(bc))
	for _, code := range bc {
		buf = binary.BigEndian.AppendUint16(buf, uint16(code))
	}

	written, err := w.Write(buf)
	n = int64(written)
	return
}

// ReadBytecode reads a stream of big-endian 16-bit words.
func ReadBytecode(r io.Reader) (bc Bytecode, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	if len(data)%2 != 0 {
		err = ErrBytecodeTruncated
		return
	}

	bc = make(Bytecode, 0, len(data)/2)
	for len(data) > 0 {
		bc = append(bc, Code(binary.BigEndian.Uint16(data)))
		data = data[2:]
	}

	return
}

// Opcode represents a line of assembled code with its source location.
type Opcode struct {
	LineNo int      // 0-based source line, counting skipped lines.
	Ip     int      // Index of the instruction in the bytecode.
	Words  []string // Tokens of the source line.
	Code   Code
}

// Program is the output of the assembler.
type Program struct {
	Opcodes []Opcode
}

// Debug returns the opcode at the instruction index, or nil.
func (prog *Program) Debug(ip int) (op *Opcode) {
	n, found := slices.BinarySearchFunc(prog.Opcodes, ip, func(op Opcode, ip int) int {
		return op.Ip - ip
	})
	if !found {
		return
	}

	return &prog.Opcodes[n]
}

// Codes iterates over the instruction index and word of each opcode.
func (prog *Program) Codes() iter.Seq2[int, Code] {
	return func(yield func(ip int, code Code) bool) {
		for _, op := range prog.Opcodes {
			if !yield(op.Ip, op.Code) {
				return
			}
		}
	}
}

// Bytecode returns the instruction stream of the program.
func (prog *Program) Bytecode() (bc Bytecode) {
	bc = make(Bytecode, 0, len(prog.Opcodes))
	for _, code := range prog.Codes() {
		bc = append(bc, code)
	}

	return
}
