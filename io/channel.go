// Package io provides the console device used by the 'int' opcode.
// The console is line oriented: the machine reads one line of input
// at a time, and writes one line of output at a time.
package io

// Console defines the interface of the interrupt console.
type Console interface {
	// ReadLine returns the next line of input, without its terminator.
	// At end of input with no pending data, an empty line is returned.
	ReadLine() (line string, err error)
	// WriteLine writes text, followed by a newline.
	WriteLine(text string) error
}
