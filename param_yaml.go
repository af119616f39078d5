package fastache

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// maxYAMLParams caps the parameters one document may expand to, aliases
// included.
const maxYAMLParams = 1 << 18

// ParseYAML converts a YAML document into a parameter root with the same
// rules as ParseJSON. Mapping order is kept. An alias that refers back into
// a node it is nested in returns ErrCycle.
func ParseYAML(data []byte) (*Param, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml params: %w", errors.Join(ErrArgs, err))
	}
	if doc.Kind == 0 {
		return Root(), nil
	}
	node := &doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return Root(), nil
		}
		node = node.Content[0]
	}
	d := yamlDecoder{open: make(map[*yaml.Node]bool)}
	p, err := d.param(node, nil)
	if err != nil {
		return nil, err
	}
	if p.Kind == ParamObject {
		return p, nil
	}
	p.Name = []byte(".")
	return Root(p), nil
}

type yamlDecoder struct {
	// collections on the current path
	open  map[*yaml.Node]bool
	count int
}

func (d *yamlDecoder) param(n *yaml.Node, name []byte) (*Param, error) {
	d.count++
	if d.count > maxYAMLParams {
		return nil, fmt.Errorf("yaml line %d: more than %d parameters: %w", n.Line, maxYAMLParams, ErrArgs)
	}
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("yaml line %d: dangling alias: %w", n.Line, ErrArgs)
		}
		if d.open[n.Alias] {
			return nil, fmt.Errorf("yaml line %d: alias %q: %w", n.Line, n.Value, ErrCycle)
		}
		return d.param(n.Alias, name)
	case yaml.MappingNode:
		d.open[n] = true
		defer delete(d.open, n)
		obj := &Param{Kind: ParamObject, Name: name}
		for i := 0; i+1 < len(n.Content); i += 2 {
			member, err := d.param(n.Content[i+1], []byte(n.Content[i].Value))
			if err != nil {
				return nil, err
			}
			obj.Children = append(obj.Children, member)
		}
		return obj, nil
	case yaml.SequenceNode:
		d.open[n] = true
		defer delete(d.open, n)
		list := &Param{Kind: ParamList, Name: name}
		for _, c := range n.Content {
			item, err := d.param(c, nil)
			if err != nil {
				return nil, err
			}
			list.Children = append(list.Children, item)
		}
		return list, nil
	case yaml.ScalarNode:
		return fromYAMLScalar(n, name)
	}
	return nil, fmt.Errorf("yaml line %d: unsupported node kind %d: %w", n.Line, n.Kind, ErrArgs)
}

func fromYAMLScalar(n *yaml.Node, name []byte) (*Param, error) {
	switch n.ShortTag() {
	case "!!null":
		return &Param{Kind: ParamNone, Name: name}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("yaml line %d: %w", n.Line, errors.Join(ErrArgs, err))
		}
		return &Param{Kind: ParamBoolean, Name: name, Bool: b}, nil
	case "!!int", "!!float":
		if v, decimals, err := ParseNumber([]byte(n.Value)); err == nil {
			return &Param{Kind: ParamNumber, Name: name, Num: v, Decimals: decimals}, nil
		}
		// hex, octal, .inf and friends
		var v float64
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("yaml line %d: %w", n.Line, errors.Join(ErrArgs, err))
		}
		return &Param{Kind: ParamNumber, Name: name, Num: v}, nil
	}
	return &Param{Kind: ParamString, Name: name, Str: []byte(n.Value)}, nil
}

// LoadYAMLFile reads and converts a YAML file.
func LoadYAMLFile(path string) (*Param, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("params %q: %w", path, errors.Join(ErrFileOpen, err))
	}
	p, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("params %q: %w", path, err)
	}
	return p, nil
}
