package fastache

import (
	"fmt"
	"io"
	"strings"
)

// ----------------------------- Parameter tree -------------------------------

type ParamKind uint8

const (
	ParamNone ParamKind = iota
	ParamBoolean
	ParamNumber
	ParamString
	ParamList
	ParamObject
)

func (k ParamKind) String() string {
	switch k {
	case ParamNone:
		return "none"
	case ParamBoolean:
		return "boolean"
	case ParamNumber:
		return "number"
	case ParamString:
		return "string"
	case ParamList:
		return "list"
	case ParamObject:
		return "object"
	default:
		return "unknown"
	}
}

// Param is one node of the caller-owned parameter tree. The evaluator only
// reads it. Children holds list items in order, or object members in
// declaration order.
type Param struct {
	Kind      ParamKind
	Name      []byte
	Str       []byte
	Num       float64
	Decimals  uint8
	TrimZeros bool
	Bool      bool
	Children  []*Param
}

func String(name, value string) *Param {
	return &Param{Kind: ParamString, Name: []byte(name), Str: []byte(value)}
}

func Number(name string, value float64, decimals uint8, trimZeros bool) *Param {
	return &Param{Kind: ParamNumber, Name: []byte(name), Num: value, Decimals: decimals, TrimZeros: trimZeros}
}

func Bool(name string, value bool) *Param {
	return &Param{Kind: ParamBoolean, Name: []byte(name), Bool: value}
}

func None(name string) *Param {
	return &Param{Kind: ParamNone, Name: []byte(name)}
}

func List(name string, items ...*Param) *Param {
	return &Param{Kind: ParamList, Name: []byte(name), Children: items}
}

func Object(name string, members ...*Param) *Param {
	return &Param{Kind: ParamObject, Name: []byte(name), Children: members}
}

// Root builds the unnamed object holding the global parameter list.
func Root(members ...*Param) *Param {
	return &Param{Kind: ParamObject, Children: members}
}

// Len is the child count of a list or object, zero otherwise.
func (p *Param) Len() int {
	if p == nil || (p.Kind != ParamList && p.Kind != ParamObject) {
		return 0
	}
	return len(p.Children)
}

// Member returns the first child whose name matches exactly.
func (p *Param) Member(name []byte) *Param {
	if p == nil {
		return nil
	}
	for _, c := range p.Children {
		if c != nil && Equal(c.Name, name) {
			return c
		}
	}
	return nil
}

// Truthy: strings when non-empty, booleans by value, numbers when nonzero,
// lists when they have children, objects always.
func (p *Param) Truthy() bool {
	if p == nil {
		return false
	}
	switch p.Kind {
	case ParamString:
		return len(p.Str) > 0
	case ParamBoolean:
		return p.Bool
	case ParamNumber:
		return p.Num != 0
	case ParamList:
		return len(p.Children) > 0
	case ParamObject:
		return true
	}
	return false
}

// Append adds children to a list or object.
func (p *Param) Append(children ...*Param) error {
	if p.Kind != ParamList && p.Kind != ParamObject {
		return fmt.Errorf("append to %s parameter %q: %w", p.Kind, p.Name, ErrArgs)
	}
	p.Children = append(p.Children, children...)
	return nil
}

// Validate rejects trees where a node is reachable from itself, which would
// make evaluation loop forever.
func (p *Param) Validate() error {
	onPath := make(map[*Param]bool)
	var walk func(n *Param) error
	walk = func(n *Param) error {
		if n == nil {
			return nil
		}
		if onPath[n] {
			return fmt.Errorf("parameter %q: %w", n.Name, ErrCycle)
		}
		onPath[n] = true
		for _, c := range n.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		delete(onPath, n)
		return nil
	}
	return walk(p)
}

// Dump writes the tree, one node per line, indented by depth.
func (p *Param) Dump(w io.Writer) error {
	return p.dump(w, 0)
}

func (p *Param) dump(w io.Writer, depth int) error {
	if p == nil {
		return nil
	}
	indent := strings.Repeat("  ", depth)
	var err error
	switch p.Kind {
	case ParamString:
		_, err = fmt.Fprintf(w, "%s%s (string): %q\n", indent, p.Name, p.Str)
	case ParamNumber:
		var buf [64]byte
		n := FormatNumber(buf[:], p.Num, p.Decimals, p.TrimZeros)
		_, err = fmt.Fprintf(w, "%s%s (number): %s\n", indent, p.Name, buf[:n])
	case ParamBoolean:
		_, err = fmt.Fprintf(w, "%s%s (boolean): %t\n", indent, p.Name, p.Bool)
	case ParamList, ParamObject:
		_, err = fmt.Fprintf(w, "%s%s (%s, %d)\n", indent, p.Name, p.Kind, len(p.Children))
		for _, c := range p.Children {
			if err != nil {
				break
			}
			err = c.dump(w, depth+1)
		}
	default:
		_, err = fmt.Fprintf(w, "%s%s (none)\n", indent, p.Name)
	}
	return err
}
