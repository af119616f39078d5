package fastache

// ----------------------------- Structure chain ------------------------------

type NodeKind uint8

const (
	KindRoot NodeKind = iota
	KindVariable
	KindPound
	KindCaret
	KindComment
	KindClose
	KindSkipRange
)

func (k NodeKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindVariable:
		return "variable"
	case KindPound:
		return "pound"
	case KindCaret:
		return "caret"
	case KindComment:
		return "comment"
	case KindClose:
		return "close"
	case KindSkipRange:
		return "skip"
	default:
		return "unknown"
	}
}

// Node describes one parsed tag by offsets into the source it was parsed
// from. It never holds a copy of source bytes.
type Node struct {
	Kind NodeKind
	// Tag spans from the opening marker to just past the closing marker.
	// For KindSkipRange it covers only the escape byte, which is output
	// as literal text.
	Tag Span
	// Name is the trimmed tag interior without its sigil.
	Name Span
	// Standalone is set when the tag is alone on its line; Line then covers
	// the whole line including its newline.
	Standalone bool
	Line       Span
	// Interior is the section body of a pound or caret node.
	Interior Span
	// Match links a section opener and its close.
	Match *Node

	Prev *Node
	Next *Node

	// Evaluation-pass state, cleared by Chain.Flush.
	param  *Param
	item   *Param
	index  int
	scoped bool
}

// cut is the range the evaluator removes for this tag.
func (n *Node) cut() Span {
	if n.Standalone {
		return n.Line
	}
	return n.Tag
}

func (n *Node) isSection() bool { return n.Kind == KindPound || n.Kind == KindCaret }

func (n *Node) flush() {
	n.param = nil
	n.item = nil
	n.index = 0
	n.scoped = false
}

// Chain is the linked sequence of tag nodes behind a Root sentinel, in source
// order.
type Chain struct {
	root  *Node
	tail  *Node
	count int
	// identity of the parameter root used by the last evaluation pass
	last *Param
}

func newChain(root *Node) *Chain {
	*root = Node{Kind: KindRoot}
	return &Chain{root: root, tail: root}
}

func (c *Chain) append(n *Node) {
	n.Prev = c.tail
	c.tail.Next = n
	c.tail = n
	c.count++
}

func (c *Chain) Root() *Node  { return c.root }
func (c *Chain) First() *Node { return c.root.Next }

// Len counts nodes excluding the sentinel.
func (c *Chain) Len() int { return c.count }

// Each visits every node in source order until fn returns false.
func (c *Chain) Each(fn func(*Node) bool) {
	for n := c.root.Next; n != nil; n = n.Next {
		if !fn(n) {
			return
		}
	}
}

// Flush clears the evaluation-pass state of every node. Call it after
// mutating a parameter tree in place before evaluating the chain again.
func (c *Chain) Flush() {
	for n := c.root; n != nil; n = n.Next {
		n.flush()
	}
	c.last = nil
}

// Free hands every node, sentinel included, back to alloc. The chain must
// not be used afterwards.
func (c *Chain) Free(alloc Allocator) {
	n := c.root
	for n != nil {
		next := n.Next
		alloc.Free(n)
		n = next
	}
	c.root, c.tail, c.count = nil, nil, 0
}

// Names lists the distinct names referenced by variable and section tags,
// in order of first appearance.
func (c *Chain) Names(src []byte) []string {
	seen := make(map[string]bool)
	var names []string
	c.Each(func(n *Node) bool {
		if n.Kind != KindVariable && !n.isSection() {
			return true
		}
		name := string(n.Name.Bytes(src))
		if name == "" || seen[name] {
			return true
		}
		seen[name] = true
		names = append(names, name)
		return true
	})
	return names
}
