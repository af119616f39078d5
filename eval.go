package fastache

import (
	"bytes"
	"fmt"
)

// ----------------------------- Evaluator ------------------------------------

// Sanitizer rewrites string values before they reach the output.
// *bluemonday.Policy satisfies it.
type Sanitizer interface {
	SanitizeBytes([]byte) []byte
}

type evaluator struct {
	chain     *Chain
	src       []byte
	out       []byte
	n         int
	root      *Param
	stack     *ScopeStack
	cursor    int
	sanitizer Sanitizer
	scratch   [maxNumberLen]byte
}

// Evaluate replays chain over src against params and writes the result into
// out. It returns the number of bytes written; when out is too small the
// output is cut at len(out) and ErrNoSpace is returned. stack bounds the
// section nesting depth.
func Evaluate(chain *Chain, src, out []byte, params *Param, stack *ScopeStack) (int, error) {
	return evaluate(chain, src, out, params, stack, nil)
}

func evaluate(chain *Chain, src, out []byte, params *Param, stack *ScopeStack, san Sanitizer) (int, error) {
	if chain == nil || chain.root == nil {
		return 0, fmt.Errorf("evaluate: nil chain: %w", ErrArgs)
	}
	if stack == nil {
		return 0, fmt.Errorf("evaluate: nil scope stack: %w", ErrArgs)
	}
	if chain.last != params {
		chain.Flush()
	}
	stack.Reset()

	e := evaluator{
		chain:     chain,
		src:       src,
		out:       out,
		root:      params,
		stack:     stack,
		sanitizer: san,
	}
	if err := e.run(); err != nil {
		// a partial pass leaves section state behind
		chain.last = nil
		return e.n, err
	}
	chain.last = params
	return e.n, nil
}

func (e *evaluator) run() error {
	var err error
	for n := e.chain.root.Next; n != nil; {
		switch n.Kind {
		case KindVariable:
			if err = e.copyTo(n.Tag.Start); err != nil {
				return err
			}
			e.cursor = n.Tag.End
			if err = e.writeParam(e.resolve(n.Name.Bytes(e.src))); err != nil {
				return err
			}
			n = n.Next
		case KindSkipRange:
			// the escape byte stays in the source run and the marker after
			// it was never parsed as a tag
			n = n.Next
		case KindComment:
			cut := n.cut()
			if err = e.copyTo(cut.Start); err != nil {
				return err
			}
			e.cursor = cut.End
			n = n.Next
		case KindPound, KindCaret:
			if n, err = e.enter(n); err != nil {
				return err
			}
		case KindClose:
			if n, err = e.leave(n); err != nil {
				return err
			}
		default:
			n = n.Next
		}
	}
	return e.copyTo(len(e.src))
}

// enter opens a section and returns the node to continue from.
func (e *evaluator) enter(n *Node) (*Node, error) {
	if n.Match == nil {
		return nil, newTemplateError(e.src, n.Tag.Start, "section without close")
	}
	cut := n.cut()
	if err := e.copyTo(cut.Start); err != nil {
		return nil, err
	}
	e.cursor = cut.End

	p := e.resolve(n.Name.Bytes(e.src))
	n.flush()
	n.param = p

	if n.Kind == KindPound && p != nil {
		switch p.Kind {
		case ParamList:
			if len(p.Children) == 0 {
				return e.skip(n), nil
			}
			if err := e.stack.Push(n); err != nil {
				return nil, fmt.Errorf("section %q: %w", n.Name.Bytes(e.src), err)
			}
			n.scoped = true
			n.item = p.Children[0]
			return n.Next, nil
		case ParamObject:
			if err := e.stack.Push(n); err != nil {
				return nil, fmt.Errorf("section %q: %w", n.Name.Bytes(e.src), err)
			}
			n.scoped = true
			n.item = p
			return n.Next, nil
		}
	}

	truthy := p.Truthy()
	if (n.Kind == KindPound && truthy) || (n.Kind == KindCaret && !truthy) {
		return n.Next, nil
	}
	return e.skip(n), nil
}

// skip jumps past the matching close without visiting the body.
func (e *evaluator) skip(n *Node) *Node {
	closing := n.Match
	e.cursor = closing.cut().End
	return closing.Next
}

// leave handles a close tag: repeat the body for the next list item or
// pop the scope and move on.
func (e *evaluator) leave(n *Node) (*Node, error) {
	opener := n.Match
	if opener == nil {
		return nil, newTemplateError(e.src, n.Tag.Start, "close without section")
	}
	cut := n.cut()
	if opener.scoped {
		if opener.param.Kind == ParamList {
			opener.index++
			if opener.index < len(opener.param.Children) {
				if err := e.copyTo(cut.Start); err != nil {
					return nil, err
				}
				opener.item = opener.param.Children[opener.index]
				e.cursor = opener.Interior.Start
				return opener.Next, nil
			}
		}
		top, err := e.stack.Pop()
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", n.Name.Bytes(e.src), err)
		}
		if top != opener {
			return nil, fmt.Errorf("section %q closed out of order: %w", n.Name.Bytes(e.src), ErrUnderflow)
		}
		opener.scoped = false
	}
	if err := e.copyTo(cut.Start); err != nil {
		return nil, err
	}
	e.cursor = cut.End
	return n.Next, nil
}

// ----------------------------- Name resolution ------------------------------

// resolve handles "." (the current item), ".a.b" (a path into it) and
// "a.b" (a name followed by a member path). Outside any section the current
// item is the root member named ".", or the root itself.
func (e *evaluator) resolve(name []byte) *Param {
	if len(name) == 0 {
		return nil
	}
	if name[0] == '.' {
		var cur *Param
		if top := e.stack.Top(); top != nil {
			cur = top.item
		} else if cur = e.root.Member(name[:1]); cur == nil {
			cur = e.root
		}
		if len(name) == 1 {
			return cur
		}
		return memberPath(cur, name[1:])
	}
	head, rest, dotted := bytes.Cut(name, []byte{'.'})
	p := e.resolveName(head)
	if dotted {
		p = memberPath(p, rest)
	}
	return p
}

// resolveName searches the open scopes from innermost outwards, then the
// global parameters. First match wins.
func (e *evaluator) resolveName(name []byte) *Param {
	for d := 0; d < e.stack.Len(); d++ {
		s := e.stack.At(d)
		if item := s.item; item != nil && item != s.param {
			if item.Kind == ParamObject {
				if m := item.Member(name); m != nil {
					return m
				}
			}
			if Equal(item.Name, name) {
				return item
			}
		}
		if m := s.param.Member(name); m != nil {
			return m
		}
	}
	return e.root.Member(name)
}

func memberPath(p *Param, path []byte) *Param {
	for p != nil && len(path) > 0 {
		var seg []byte
		seg, path, _ = bytes.Cut(path, []byte{'.'})
		p = p.Member(seg)
	}
	return p
}

// ----------------------------- Output ---------------------------------------

func (e *evaluator) copyTo(end int) error {
	if end > len(e.src) {
		end = len(e.src)
	}
	if end <= e.cursor {
		return nil
	}
	start := e.cursor
	e.cursor = end
	return e.write(e.src[start:end])
}

func (e *evaluator) write(b []byte) error {
	k := copy(e.out[e.n:], b)
	e.n += k
	if k < len(b) {
		return ErrNoSpace
	}
	return nil
}

func (e *evaluator) writeParam(p *Param) error {
	if p == nil {
		return nil
	}
	switch p.Kind {
	case ParamString:
		s := p.Str
		if e.sanitizer != nil {
			s = e.sanitizer.SanitizeBytes(s)
		}
		return e.write(s)
	case ParamNumber:
		k := FormatNumber(e.scratch[:], p.Num, p.Decimals, p.TrimZeros)
		return e.write(e.scratch[:k])
	case ParamBoolean:
		k := FormatBool(e.scratch[:], p.Bool)
		return e.write(e.scratch[:k])
	}
	return nil
}
