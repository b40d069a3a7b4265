package vm

import "github.com/kristofer/june/pkg/vars"

// Push places v on the operand stack. The stack is considered an owner, so
// it takes a reference (spec.md §3 "Ownership rules").
func (s *State) Push(v *vars.Value) {
	v.Iref()
	s.OperandStack = append(s.OperandStack, v)
}

// Pop removes and returns the top of the operand stack, releasing the
// stack's reference.
func (s *State) Pop() (*vars.Value, bool) {
	v, ok := s.popNoDeref()
	if !ok {
		return nil, false
	}
	v.Deref()
	return v, true
}

// PopNoDeref removes and returns the top of the operand stack, handing the
// stack's reference to the caller instead of releasing it (spec.md §3
// "pop-without-dref").
func (s *State) PopNoDeref() (*vars.Value, bool) {
	return s.popNoDeref()
}

func (s *State) popNoDeref() (*vars.Value, bool) {
	n := len(s.OperandStack)
	if n == 0 {
		return nil, false
	}
	v := s.OperandStack[n-1]
	s.OperandStack = s.OperandStack[:n-1]
	return v, true
}

// Top returns the top of the operand stack without popping it.
func (s *State) Top() (*vars.Value, bool) {
	n := len(s.OperandStack)
	if n == 0 {
		return nil, false
	}
	return s.OperandStack[n-1], true
}

// PopN pops n values, returning them in original (bottom-to-top) order.
func (s *State) PopN(n int) ([]*vars.Value, bool) {
	if len(s.OperandStack) < n {
		return nil, false
	}
	out := make([]*vars.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, _ := s.popNoDeref()
		out[i] = v
	}
	return out, true
}
