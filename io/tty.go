package io

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Tty provides line I/O over an io.Reader for input and an io.Writer for
// output.
type Tty struct {
	Input  io.Reader
	Output io.Writer

	Lines int // Count of lines read.

	reader *bufio.Reader
	source io.Reader
}

var _ Console = (*Tty)(nil)

// Rewind drops any buffered input.
func (tc *Tty) Rewind() {
	tc.reader = nil
	tc.source = nil
	tc.Lines = 0
}

// ReadLine reads a line from the input, stripping the line terminator.
func (tc *Tty) ReadLine() (line string, err error) {
	if tc.Input == nil {
		err = ErrConsoleNoInput
		return
	}

	// Input may be replaced between reads.
	if tc.reader == nil || tc.source != tc.Input {
		tc.reader = bufio.NewReader(tc.Input)
		tc.source = tc.Input
	}

	line, err = tc.reader.ReadString('\n')
	if errors.Is(err, io.EOF) {
		err = nil
	}
	if err != nil {
		return
	}

	tc.Lines++
	line = strings.TrimRight(line, "\r\n")

	return
}

// WriteLine writes a line of text to the output.
func (tc *Tty) WriteLine(text string) (err error) {
	if tc.Output == nil {
		err = ErrConsoleNoOutput
		return
	}

	_, err = io.WriteString(tc.Output, text+"\n")

	return
}
