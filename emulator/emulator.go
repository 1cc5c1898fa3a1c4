// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"

	"go.uber.org/zap"

	"github.com/ezrec/rvm/cpu"
	"github.com/ezrec/rvm/io"
)

// State is the run state of the emulator.
type State int

const (
	STATE_RUNNING = State(0) // running
	STATE_HALTED  = State(1) // halted
	STATE_FAULTED = State(2) // faulted
)

func (state State) String() string {
	switch state {
	case STATE_RUNNING:
		return "running"
	case STATE_HALTED:
		return "halted"
	case STATE_FAULTED:
		return "faulted"
	}
	return "unknown"
}

// Emulator state. CPU + console.
type Emulator struct {
	Verbose  bool         // If set, enables step tracing.
	Logger   *zap.Logger  // Trace logger. If nil, tracing is discarded.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Currently running program listing, if any.

	Tty io.Tty // Console for the 'int' opcode.

	State    State // Run state.
	MaxTicks int   // If non-zero, limits the number of executed instructions.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu: cpu.NewCpu(nil),
	}

	emu.Cpu.Console = &emu.Tty

	return
}

func (emu *Emulator) logger() *zap.Logger {
	if emu.Logger == nil {
		return zap.NewNop()
	}
	return emu.Logger
}

// Reset the emulator state, and load the program, if any.
func (emu *Emulator) Reset() (err error) {
	if emu.Program != nil {
		emu.Cpu.Bytecode = emu.Program.Bytecode()
	}

	emu.Cpu.Reset()
	emu.Tty.Rewind()
	emu.State = STATE_RUNNING

	if emu.Verbose {
		emu.logger().Named("emulator").Debug("reset",
			zap.Int("bytecode", len(emu.Cpu.Bytecode)),
		)
	}

	return
}

// Ip returns current instruction pointer.
func (emu *Emulator) Ip() int {
	return int(emu.Cpu.Register[cpu.REG_RN])
}

// LineNo returns the source line number for the instruction at ip,
// or -1 if there is no program listing for it.
func (emu *Emulator) LineNo(ip int) int {
	if emu.Program == nil {
		return -1
	}

	op := emu.Program.Debug(ip)
	if op == nil {
		return -1
	}

	return op.LineNo
}

// Tick performs a single step of the emulator.
// Done is set once the machine has halted or faulted.
func (emu *Emulator) Tick() (done bool, err error) {
	if emu.State != STATE_RUNNING {
		done = true
		return
	}

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Logger = emu.logger().Named("cpu")

	ip := emu.Ip()
	defer func() {
		if err != nil {
			emu.State = STATE_FAULTED
			done = true
			err = &ErrRuntime{
				Ip:     emu.Cpu.Register[cpu.REG_RN],
				LineNo: emu.LineNo(ip),
				Err:    err,
			}
		}
	}()

	if emu.MaxTicks > 0 && emu.Cpu.Ticks >= emu.MaxTicks {
		err = ErrTickLimit
		return
	}

	_, err = emu.Cpu.Step()
	if errors.Is(err, cpu.ErrHalt) {
		err = nil
		emu.State = STATE_HALTED
		done = true
		return
	}

	return
}

// Run ticks the emulator until it halts or faults.
func (emu *Emulator) Run() (err error) {
	for done := false; !done; {
		done, err = emu.Tick()
	}

	return
}

// Run executes bytecode on a fresh machine. The machine is returned
// both on halt and on fault, so its state can be inspected.
func Run(bytecode cpu.Bytecode, console cpu.Console) (cp *cpu.Cpu, err error) {
	emu := NewEmulator()
	emu.Cpu.Bytecode = bytecode
	if console != nil {
		emu.Cpu.Console = console
	}

	err = emu.Reset()
	if err != nil {
		return
	}

	err = emu.Run()
	cp = emu.Cpu

	return
}
