package fastache

// ----------------------------- Node allocators ------------------------------

// Allocator supplies structure nodes to the parser. Alloc returns nil when
// no capacity is left.
type Allocator interface {
	Alloc() *Node
	Free(*Node)
}

// Slab is a bump allocator over a fixed array of nodes. Free is a no-op;
// Reset reclaims everything at once.
type Slab struct {
	nodes []Node
	used  int
}

func NewSlab(capacity int) *Slab {
	if capacity < 0 {
		capacity = 0
	}
	return &Slab{nodes: make([]Node, capacity)}
}

func (s *Slab) Alloc() *Node {
	if s.used >= len(s.nodes) {
		return nil
	}
	n := &s.nodes[s.used]
	s.used++
	*n = Node{}
	return n
}

func (s *Slab) Free(*Node) {}

// Reset makes the whole slab available again. Chains built from it become
// invalid.
func (s *Slab) Reset() { s.used = 0 }

func (s *Slab) Used() int { return s.used }
func (s *Slab) Cap() int  { return len(s.nodes) }

// HeapAllocator allocates every node individually and never runs out.
type HeapAllocator struct{}

func (HeapAllocator) Alloc() *Node { return new(Node) }
func (HeapAllocator) Free(*Node)   {}
