package cpu

const (
	STACK_LIMIT = 255 // Maximum stack depth, bounded by the 8-bit 'rd'.
)

type Stack struct {
	Data []uint8
}

func (s *Stack) Push(value uint8) (ok bool) {
	if s.Full() {
		return
	}
	s.Data = append(s.Data, value)
	return true
}

func (s *Stack) Pop() (value uint8, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Data = s.Data[:len(s.Data)-1]
	}
	return
}

// Get returns the stack entry at index, counted from the bottom.
func (s *Stack) Get(index int) (value uint8, ok bool) {
	if index < 0 || index >= len(s.Data) {
		return
	}

	return s.Data[index], true
}

func (s *Stack) Len() int {
	return len(s.Data)
}

func (s *Stack) Empty() bool {
	return len(s.Data) == 0
}

func (s *Stack) Full() bool {
	return len(s.Data) >= STACK_LIMIT
}

func (s *Stack) Peek() (value uint8, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

func (s *Stack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
