// Package cpu implements the virtual machine and assembler for the RVM system.
//
// The machine has thirteen 8-bit registers: eight general-purpose registers
// (r0-r7), the instruction pointer (rn), the stack depth (rd), the comparison
// flag (rf), the compare target (rc), and the interrupt selector (rs). It
// executes a stream of 16-bit instruction words, and owns an operand stack
// of up to 255 bytes.
//
// The assembler translates one line of text into one instruction word:
//
//	<mnemonic> <target> [<value>]
package cpu
