package fastache

import (
	"errors"
	"testing"
)

func TestScopeStack(t *testing.T) {
	s := NewScopeStack(2)
	a, b := &Node{}, &Node{}

	if _, err := s.Pop(); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected ErrUnderflow, got %v", err)
	}
	if s.Top() != nil {
		t.Fatal("empty stack has a top")
	}
	if err := s.Push(a); err != nil {
		t.Fatal(err)
	}
	if err := s.Push(b); err != nil {
		t.Fatal(err)
	}
	if err := s.Push(&Node{}); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	if s.Len() != 2 || s.Cap() != 2 {
		t.Fatalf("len %d cap %d", s.Len(), s.Cap())
	}
	if s.Top() != b || s.At(0) != b || s.At(1) != a || s.At(2) != nil {
		t.Fatal("unexpected stack order")
	}

	n, err := s.Pop()
	if err != nil || n != b {
		t.Fatalf("expected b, got %v %v", n, err)
	}
	s.Reset()
	if s.Len() != 0 || s.Cap() != 2 {
		t.Fatalf("after reset: len %d cap %d", s.Len(), s.Cap())
	}
}
