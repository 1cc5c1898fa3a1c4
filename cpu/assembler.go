// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.uber.org/zap"
)

// Predefined system equates, visible to $(...) expressions.
var sysEquate = map[string]int{
	"SYS_HALT":      int(SYS_HALT),
	"SYS_PRINTLINE": int(SYS_PRINTLINE),
	"SYS_READLINE":  int(SYS_READLINE),
	"FLAG_EQ":       int(FLAG_EQ),
	"FLAG_LT":       int(FLAG_LT),
	"FLAG_GT":       int(FLAG_GT),
	"STACK_LIMIT":   STACK_LIMIT,
}

// Assembler translates assembly text, one instruction per line.
type Assembler struct {
	Verbose bool        // If set, logs the listing of each assembled line.
	Logger  *zap.Logger // Listing logger. If nil, the listing is discarded.
	Opcode  []Opcode    // List of generated opcodes.

	predefine map[string]int // Predefines
}

// Predefine sets a constant visible to $(...) expressions.
func (asm *Assembler) Predefine(equ string, value int) {
	if asm.predefine == nil {
		asm.predefine = map[string]int{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// opMap maps mnemonics to opcodes.
var opMap = map[string]CodeOp{
	"int": OP_INT,
	"set": OP_SET,
	"psh": OP_PSH,
	"pop": OP_POP,
	"add": OP_ADD,
	"sub": OP_SUB,
	"mul": OP_MUL,
	"div": OP_DIV,
	"chk": OP_CHK,
	"cns": OP_CNS,
	"lpt": OP_LPT,
	"lsh": OP_LSH,
	"rsh": OP_RSH,
	"and": OP_AND,
	"bor": OP_BOR,
	"xor": OP_XOR,
}

// regMap maps register names to register ids.
var regMap = map[string]CodeReg{
	"r0": REG_R0,
	"r1": REG_R1,
	"r2": REG_R2,
	"r3": REG_R3,
	"r4": REG_R4,
	"r5": REG_R5,
	"r6": REG_R6,
	"r7": REG_R7,
	"rn": REG_RN,
	"rd": REG_RD,
	"rf": REG_RF,
	"rc": REG_RC,
	"rs": REG_RS,
}

// intMap holds the extra targets only 'int' accepts.
var intMap = map[string]CodeReg{
	"hlt": REG_HLT,
	"sys": REG_SYS,
}

// AssembleLine assembles a single line with a default Assembler.
func AssembleLine(line string) (code Code, err error) {
	asm := &Assembler{}
	return asm.AssembleLine(line)
}

// AssembleLine assembles a single trimmed line of text into an instruction.
//
//	<mnemonic> <target> [<value>]
func (asm *Assembler) AssembleLine(line string) (code Code, err error) {
	words := strings.Split(line, " ")
	if len(words) > 3 {
		err = ErrLine
		return
	}

	op, ok := opMap[words[0]]
	if !ok {
		err = ErrNoOpcode
		return
	}

	var target CodeReg
	if len(words) > 1 {
		target, ok = regMap[words[1]]
		if !ok && op == OP_INT {
			target, ok = intMap[words[1]]
		}
		if !ok {
			err = ErrNoTarget
			return
		}
	} else if op != OP_INT {
		err = ErrNoTarget
		return
	}

	var value uint8
	if len(words) > 2 {
		value, err = asm.valueOf(op, words[2])
		if err != nil {
			return
		}
	} else if op != OP_INT {
		err = ErrNoValue
		return
	}

	code = MakeCode(op, target, value)
	return
}

// valueOf returns the value field for a word. Registers are always
// accepted; 'set' also takes an 8-bit literal or a $(...) expression.
func (asm *Assembler) valueOf(op CodeOp, word string) (value uint8, err error) {
	reg, ok := regMap[word]
	if ok {
		value = uint8(reg)
		return
	}

	if op != OP_SET {
		err = ErrNoValue
		return
	}

	if strings.HasPrefix(word, "$(") && strings.HasSuffix(word, ")") {
		expr := word[2 : len(word)-1]
		var v64 int64
		v64, err = asm.parenEval(expr)
		if err != nil {
			err = errors.Join(ErrNoValue, err)
			return
		}
		if v64 < 0 || v64 > 0xff {
			err = errors.Join(ErrNoValue, ErrParseExpression(expr))
			return
		}
		value = uint8(v64)
		return
	}

	u64, perr := strconv.ParseUint(word, 10, 8)
	if perr != nil {
		err = errors.Join(ErrNoValue, ErrParseNumber(word))
		return
	}

	value = uint8(u64)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	equates := maps.Clone(sysEquate)
	maps.Copy(equates, asm.predefine)
	for key, val := range equates {
		pred[key] = starlark.MakeInt(val)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrParseExpression(expr), err)
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// Parse parses an input stream into a Program.
//
// Blank lines and lines starting with '#' are skipped. Assembly stops at
// the first bad line, and no program is returned.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)
	logger := asm.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("asm")

	asm.Opcode = asm.Opcode[:0]

	for lineno := 0; scanner.Scan(); lineno++ {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		var code Code
		code, err = asm.AssembleLine(line)
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
			return
		}

		opcode := Opcode{
			LineNo: lineno,
			Ip:     len(asm.Opcode),
			Words:  strings.Split(line, " "),
			Code:   code,
		}
		asm.Opcode = append(asm.Opcode, opcode)

		if asm.Verbose {
			logger.Debug(fmt.Sprintf("%d:\t0x%04x\t#%v", lineno, uint16(code), line),
				zap.Int("ip", opcode.Ip),
			)
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}
