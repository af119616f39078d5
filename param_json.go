package fastache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ParseJSON converts a JSON document into a parameter root. Object key order
// is kept, numbers keep the decimal count of their literal, and a top-level
// value that is not an object becomes the single member "." of the root.
func ParseJSON(data []byte) (*Param, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	p, err := decodeJSONValue(dec, nil)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after JSON value: %w", ErrInvalidJSON)
	}
	if p.Kind == ParamObject {
		return p, nil
	}
	p.Name = []byte(".")
	return Root(p), nil
}

func decodeJSONValue(dec *json.Decoder, name []byte) (*Param, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, jsonError(err)
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			obj := &Param{Kind: ParamObject, Name: name}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, jsonError(err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v: %w", keyTok, ErrInvalidJSON)
				}
				member, err := decodeJSONValue(dec, []byte(key))
				if err != nil {
					return nil, err
				}
				obj.Children = append(obj.Children, member)
			}
			if _, err := dec.Token(); err != nil {
				return nil, jsonError(err)
			}
			return obj, nil
		case '[':
			list := &Param{Kind: ParamList, Name: name}
			for dec.More() {
				item, err := decodeJSONValue(dec, nil)
				if err != nil {
					return nil, err
				}
				list.Children = append(list.Children, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, jsonError(err)
			}
			return list, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q: %w", v, ErrInvalidJSON)
	case string:
		return &Param{Kind: ParamString, Name: name, Str: []byte(v)}, nil
	case json.Number:
		num, decimals, err := ParseNumber([]byte(v))
		if err != nil {
			return nil, fmt.Errorf("number %s: %w", v, ErrInvalidJSON)
		}
		return &Param{Kind: ParamNumber, Name: name, Num: num, Decimals: decimals}, nil
	case bool:
		return &Param{Kind: ParamBoolean, Name: name, Bool: v}, nil
	case nil:
		return &Param{Kind: ParamNone, Name: name}, nil
	}
	return nil, fmt.Errorf("unexpected token %v: %w", tok, ErrInvalidJSON)
}

func jsonError(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected end of JSON: %w", errors.Join(ErrInvalidJSON, ErrIncomplete))
	}
	return fmt.Errorf("%v: %w", err, ErrInvalidJSON)
}

// LoadJSONFile reads and converts a JSON file.
func LoadJSONFile(path string) (*Param, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("params %q: %w", path, errors.Join(ErrFileOpen, err))
	}
	p, err := ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("params %q: %w", path, err)
	}
	return p, nil
}

// LoadParams reads a JSON or YAML parameter file, chosen by extension.
func LoadParams(path string) (*Param, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAMLFile(path)
	default:
		return LoadJSONFile(path)
	}
}
