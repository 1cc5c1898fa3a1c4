// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/ezrec/rvm/cpu"
	"github.com/ezrec/rvm/emulator"
)

// Process exit codes. A halted machine exits with 0.
const (
	EXIT_ERROR  = 1
	EXIT_FAULTS = 2
)

func main() {
	var compile string
	var binary string
	var output string
	var save bool
	var input string
	var ticks int
	var verbose bool

	flag.StringVar(&compile, "c", "", ".rvm file to assemble")
	flag.StringVar(&binary, "b", "", "bytecode file to run")
	flag.StringVar(&output, "o", "", "bytecode file to write")
	flag.BoolVar(&save, "s", false, "Save bytecode only, do not execute")
	flag.StringVar(&input, "i", "-", "Console input")
	flag.IntVar(&ticks, "n", 0, "Maximum instructions to execute (0 is unlimited)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	switch {
	case flag.NArg() == 1 && len(compile) == 0:
		compile = flag.Arg(0)
	case flag.NArg() != 0:
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(compile) == 0 && len(binary) == 0 {
		fmt.Printf("Usage: %v [options] <path_to_assembly_code>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(EXIT_ERROR)
	}

	logger := zap.NewNop()
	if verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatalf("%v: %v", os.Args[0], err)
		}
		defer logger.Sync()
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Logger = logger
	emu.MaxTicks = ticks

	// Assemble a new instruction stream, or load one.
	if len(compile) != 0 {
		emu.Program = assemble(compile, verbose, logger)
	} else {
		emu.Cpu.Bytecode = load(binary)
	}

	if len(output) != 0 {
		store(output, emu)
	}

	if save {
		return
	}

	if input == "-" {
		emu.Tty.Input = os.Stdin
	} else {
		inf, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Tty.Input = inf
	}
	emu.Tty.Output = os.Stdout

	err := emu.Reset()
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}

	err = emu.Run()
	if verbose || err != nil {
		fmt.Print(emu.Cpu.String())
	}

	var rerr *emulator.ErrRuntime
	if errors.As(err, &rerr) {
		fmt.Printf("Error at index 0x%x: %v\n\t-> Hint: %v\n", rerr.Ip, rerr.Err, rerr.Hint())
		if rerr.LineNo >= 0 {
			fmt.Printf("\t-> Line: %d\n", rerr.LineNo)
		}
		os.Exit(EXIT_FAULTS)
	}
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
}

// assemble a source file, exiting on error.
func assemble(path string, verbose bool, logger *zap.Logger) (prog *cpu.Program) {
	fmt.Printf("Assembling %v\n", path)

	inf, err := os.Open(path)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: verbose, Logger: logger}
	prog, err = asm.Parse(inf)

	var serr *cpu.ErrSyntax
	if errors.As(err, &serr) {
		fmt.Printf("Error at line %d: %v\n\t-> Hint: %v\n", serr.LineNo, serr.Line, serr.Hint())
		fmt.Printf("failed to parse file %v\n", path)
		os.Exit(EXIT_ERROR)
	}
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}

	fmt.Println("success!")

	return
}

// load a bytecode file, exiting on error.
func load(path string) (bc cpu.Bytecode) {
	inf, err := os.Open(path)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}
	defer inf.Close()

	bc, err = cpu.ReadBytecode(inf)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}

	return
}

// store the bytecode of the emulator, exiting on error.
func store(path string, emu *emulator.Emulator) {
	bc := emu.Cpu.Bytecode
	if emu.Program != nil {
		bc = emu.Program.Bytecode()
	}

	ouf, err := os.Create(path)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}

	_, err = bc.WriteTo(ouf)
	if err == nil {
		err = ouf.Close()
	} else {
		ouf.Close()
	}
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}
}
