package fastache

import (
	"bytes"
	"fmt"
)

// ----------------------------- Parser ---------------------------------------

var (
	leftDelim  = []byte("{{")
	rightDelim = []byte("}}")
)

// escapeByte placed right before an opening marker turns the marker into
// literal text.
const escapeByte = '/'

type parser struct {
	src   []byte
	i     int
	alloc Allocator
	chain *Chain
	open  []*Node
}

// Parse scans src once and builds its structure chain with nodes taken from
// alloc. The chain refers to src by offset, so src must outlive it and stay
// unchanged.
func Parse(src []byte, alloc Allocator) (*Chain, error) {
	if alloc == nil {
		return nil, fmt.Errorf("parse: nil allocator: %w", ErrArgs)
	}
	root := alloc.Alloc()
	if root == nil {
		return nil, ErrAlloc
	}
	p := parser{
		src:   src,
		alloc: alloc,
		chain: newChain(root),
		open:  make([]*Node, 0, 8),
	}
	if err := p.parse(); err != nil {
		p.chain.Free(alloc)
		return nil, err
	}
	return p.chain, nil
}

func (p *parser) eof() bool { return p.i >= len(p.src) }

func (p *parser) parse() error {
	for !p.eof() {
		// find next tag
		start := bytes.Index(p.src[p.i:], leftDelim)
		if start == -1 {
			break
		}
		start += p.i

		if start > 0 && p.src[start-1] == escapeByte {
			n, err := p.node(KindSkipRange, Span{Start: start - 1, End: start})
			if err != nil {
				return err
			}
			p.chain.append(n)
			p.i = start + len(leftDelim)
			continue
		}

		inner := start + len(leftDelim)
		end := bytes.Index(p.src[inner:], rightDelim)
		if end == -1 {
			// no closing marker anywhere: the rest is literal
			break
		}
		end += inner

		n, err := p.parseTag(Span{Start: start, End: end + len(rightDelim)}, Span{Start: inner, End: end})
		if err != nil {
			return err
		}
		p.chain.append(n)
		p.i = n.Tag.End
	}

	if len(p.open) > 0 {
		n := p.open[len(p.open)-1]
		return newTemplateError(p.src, n.Tag.Start, fmt.Sprintf("section %q is never closed", n.Name.Bytes(p.src)))
	}
	return nil
}

func (p *parser) node(kind NodeKind, tag Span) (*Node, error) {
	n := p.alloc.Alloc()
	if n == nil {
		return nil, fmt.Errorf("parse at offset %d: %w", tag.Start, ErrAlloc)
	}
	*n = Node{Kind: kind, Tag: tag}
	return n, nil
}

// parseTag classifies one tag by the first interior byte and links sections.
func (p *parser) parseTag(tag, inner Span) (*Node, error) {
	kind := KindVariable
	if !inner.Empty() {
		switch p.src[inner.Start] {
		case '!':
			kind = KindComment
		case '/':
			kind = KindClose
		case '#':
			kind = KindPound
		case '^':
			kind = KindCaret
		}
	}
	if kind != KindVariable {
		inner.Start++
	}

	n, err := p.node(kind, tag)
	if err != nil {
		return nil, err
	}
	n.Name = trimSpan(p.src, inner)
	if kind != KindVariable {
		n.Line, n.Standalone = p.standaloneLine(tag)
	}

	switch kind {
	case KindPound, KindCaret:
		if n.Name.Empty() {
			p.alloc.Free(n)
			return nil, newTemplateError(p.src, tag.Start, "section tag without a name")
		}
		n.Interior.Start = n.cut().End
		p.open = append(p.open, n)
	case KindClose:
		if len(p.open) == 0 {
			p.alloc.Free(n)
			return nil, newTemplateError(p.src, tag.Start, fmt.Sprintf("close tag %q without an open section", n.Name.Bytes(p.src)))
		}
		opener := p.open[len(p.open)-1]
		if !Equal(opener.Name.Bytes(p.src), n.Name.Bytes(p.src)) {
			p.alloc.Free(n)
			return nil, newTemplateError(p.src, tag.Start, fmt.Sprintf("close tag %q does not match section %q",
				n.Name.Bytes(p.src), opener.Name.Bytes(p.src)))
		}
		p.open = p.open[:len(p.open)-1]
		opener.Match = n
		n.Match = opener
		opener.Interior.End = n.cut().Start
		if opener.Interior.End < opener.Interior.Start {
			opener.Interior.End = opener.Interior.Start
		}
	}
	return n, nil
}

// standaloneLine reports whether tag is the only non-blank content of its
// line and, if so, the span of the whole line including its line ending.
func (p *parser) standaloneLine(tag Span) (Span, bool) {
	src := p.src
	begin := tag.Start
	for begin > 0 && src[begin-1] != '\n' {
		if !isBlank(src[begin-1]) {
			return Span{}, false
		}
		begin--
	}
	end := tag.End
	for end < len(src) && src[end] != '\n' {
		switch {
		case isBlank(src[end]):
		case src[end] == '\r' && end+1 < len(src) && src[end+1] == '\n':
		default:
			return Span{}, false
		}
		end++
	}
	if end < len(src) {
		end++
	}
	return Span{Start: begin, End: end}, true
}
