package policy

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the variants of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindList
	KindMap
)

// Value is a tagged-variant document tree: scalar, list, or map. Policy
// documents are arbitrary nested JSON; parsing them into Value keeps the
// flattening logic free of runtime type switches on interface{}.
//
// Map key order is preserved from the source document so flattened output
// is stable across runs.
type Value struct {
	kind   Kind
	scalar string
	list   []Value
	keys   []string
	fields map[string]Value
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Scalar builds a scalar Value. Intended for tests and static fixtures.
func Scalar(s string) Value { return Value{kind: KindScalar, scalar: s} }

// List builds a list Value.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Map builds a map Value from alternating key/value pairs, preserving order.
func Map(pairs ...any) Value {
	v := Value{kind: KindMap, fields: make(map[string]Value)}
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		val, ok := pairs[i+1].(Value)
		if !ok {
			continue
		}
		v.keys = append(v.keys, key)
		v.fields[key] = val
	}
	return v
}

// ParseValue decodes JSON into a Value, preserving object key order.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	v, err := parseNext(dec)
	if err != nil {
		return Value{}, err
	}
	// Trailing garbage after the top-level value is a malformed document.
	if dec.More() {
		return Value{}, fmt.Errorf("unexpected trailing data")
	}
	return v, nil
}

func parseNext(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("reading token: %w", err)
	}
	return parseToken(dec, tok)
}

func parseToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			v := Value{kind: KindMap, fields: make(map[string]Value)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, fmt.Errorf("reading object key: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				child, err := parseNext(dec)
				if err != nil {
					return Value{}, err
				}
				if _, dup := v.fields[key]; !dup {
					v.keys = append(v.keys, key)
				}
				v.fields[key] = child
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, fmt.Errorf("reading object end: %w", err)
			}
			return v, nil
		case '[':
			v := Value{kind: KindList}
			for dec.More() {
				child, err := parseNext(dec)
				if err != nil {
					return Value{}, err
				}
				v.list = append(v.list, child)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, fmt.Errorf("reading array end: %w", err)
			}
			return v, nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return Scalar(t), nil
	case json.Number:
		return Scalar(t.String()), nil
	case bool:
		return Scalar(strconv.FormatBool(t)), nil
	case nil:
		return Value{kind: KindNull}, nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

// Lookup walks a dot-separated path of raw map keys and returns the value
// at that path. ok is false when any segment is missing or a non-map is
// traversed.
func (v Value) Lookup(dotPath string) (Value, bool) {
	cur := v
	for _, key := range strings.Split(dotPath, ".") {
		if cur.kind != KindMap {
			return Value{}, false
		}
		next, ok := cur.fields[key]
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Flatten renders the tree as readable text for prompt context:
//
//   - scalars render as "path: value"
//   - lists of scalars render as one comma-joined line
//   - lists of composites recurse with the path extended by [index]
//   - maps recurse with the key appended to the path, underscores replaced
//     by spaces, segments joined with " > "
//
// Flattening is pure: the same tree always renders to the same text.
func (v Value) Flatten(prefix string) string {
	switch v.kind {
	case KindNull:
		return ""
	case KindScalar:
		return prefix + ": " + v.scalar
	case KindList:
		if v.allScalars() {
			parts := make([]string, len(v.list))
			for i, item := range v.list {
				parts[i] = item.scalar
			}
			return prefix + ": " + strings.Join(parts, ", ")
		}
		lines := make([]string, 0, len(v.list))
		for i, item := range v.list {
			if s := item.Flatten(fmt.Sprintf("%s[%d]", prefix, i)); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	case KindMap:
		lines := make([]string, 0, len(v.keys))
		for _, key := range v.keys {
			label := strings.ReplaceAll(key, "_", " ")
			childPrefix := label
			if prefix != "" {
				childPrefix = prefix + " > " + label
			}
			if s := v.fields[key].Flatten(childPrefix); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

func (v Value) allScalars() bool {
	for _, item := range v.list {
		if item.kind != KindScalar {
			return false
		}
	}
	return true
}

// StringAt returns the scalar at dotPath, or "" when absent or non-scalar.
func (v Value) StringAt(dotPath string) string {
	found, ok := v.Lookup(dotPath)
	if !ok || found.kind != KindScalar {
		return ""
	}
	return found.scalar
}
