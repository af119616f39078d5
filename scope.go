package fastache

// ----------------------------- Parent-scope stack ---------------------------

// ScopeStack holds the open list and object sections during evaluation.
// Its capacity is fixed at construction.
type ScopeStack struct {
	items []*Node
}

func NewScopeStack(capacity int) *ScopeStack {
	if capacity < 0 {
		capacity = 0
	}
	return &ScopeStack{items: make([]*Node, 0, capacity)}
}

func (s *ScopeStack) Push(n *Node) error {
	if len(s.items) == cap(s.items) {
		return ErrOverflow
	}
	s.items = append(s.items, n)
	return nil
}

func (s *ScopeStack) Pop() (*Node, error) {
	if len(s.items) == 0 {
		return nil, ErrUnderflow
	}
	n := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	return n, nil
}

// Top returns the innermost scope, or nil.
func (s *ScopeStack) Top() *Node {
	if len(s.items) == 0 {
		return nil
	}
	return s.items[len(s.items)-1]
}

// At returns the scope depth levels below the top; At(0) is Top.
func (s *ScopeStack) At(depth int) *Node {
	i := len(s.items) - 1 - depth
	if i < 0 || i >= len(s.items) {
		return nil
	}
	return s.items[i]
}

func (s *ScopeStack) Len() int { return len(s.items) }
func (s *ScopeStack) Cap() int { return cap(s.items) }

func (s *ScopeStack) Reset() {
	clear(s.items)
	s.items = s.items[:0]
}
