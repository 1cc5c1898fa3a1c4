package cpu

func checkedAdd(a, b uint8) (uint8, bool) {
	sum := uint16(a) + uint16(b)
	return uint8(sum), sum <= 0xff
}

func checkedSub(a, b uint8) (uint8, bool) {
	return a - b, a >= b
}

// checkedArith performs an arithmetic operation, failing on
// overflow, underflow and division by zero.
func checkedArith(op CodeOp, input, value uint8) (output uint8, ok bool) {
	switch op {
	case OP_ADD:
		output, ok = checkedAdd(input, value)
	case OP_SUB:
		output, ok = checkedSub(input, value)
	case OP_MUL:
		product := uint16(input) * uint16(value)
		output, ok = uint8(product), product <= 0xff
	case OP_DIV:
		if value != 0 {
			output, ok = input/value, true
		}
	}

	return
}

// bitwise performs a bitwise operation. These never fault.
func bitwise(op CodeOp, input, value uint8) (output uint8) {
	switch op {
	case OP_LSH:
		output = input << value
	case OP_RSH:
		output = input >> value
	case OP_AND:
		output = input & value
	case OP_BOR:
		output = input | value
	case OP_XOR:
		output = input ^ value
	}

	return
}
