// Package schema models the shape of a generated form response as an
// explicit composite/leaf tree. Trees are built once at startup from the
// static form definitions in internal/forms and are never mutated.
package schema

import "sort"

type Kind string

const (
	KindObject  Kind = "object"
	KindEnum    Kind = "enum"
	KindString  Kind = "string"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
	KindNumber  Kind = "number"
)

// Node is one position in a schema tree. Nullable is a flag rather than a
// wrapper node so traversal never has to unwrap it; it only changes what
// the rendered JSON schema admits and what NullValue produces.
type Node struct {
	Kind     Kind
	Nullable bool

	// Object nodes. Keys carries field order; Children is keyed by field name.
	Keys     []string
	Children map[string]*Node

	// Enum nodes.
	Values []string

	// String nodes, 0 = unbounded.
	MaxLen int
}

type Field struct {
	Name string
	Node *Node
}

func F(name string, node *Node) Field { return Field{Name: name, Node: node} }

func Object(fields ...Field) *Node {
	n := &Node{Kind: KindObject, Children: make(map[string]*Node, len(fields))}
	for _, f := range fields {
		if _, dup := n.Children[f.Name]; dup {
			panic("schema: duplicate object key " + f.Name)
		}
		n.Keys = append(n.Keys, f.Name)
		n.Children[f.Name] = f.Node
	}
	return n
}

func Enum(values ...string) *Node {
	return &Node{Kind: KindEnum, Values: values}
}

// EnumFromCodes builds an enum over the keys of a code->description map,
// sorted for a stable order.
func EnumFromCodes(codes map[string]string) *Node {
	values := make([]string, 0, len(codes))
	for code := range codes {
		values = append(values, code)
	}
	sort.Strings(values)
	return Enum(values...)
}

func String() *Node              { return &Node{Kind: KindString} }
func StringMax(maxLen int) *Node { return &Node{Kind: KindString, MaxLen: maxLen} }
func Boolean() *Node             { return &Node{Kind: KindBoolean} }
func Date() *Node                { return &Node{Kind: KindDate} }
func Number() *Node              { return &Node{Kind: KindNumber} }

// Nullable returns a nullable copy of n. The copy shares children; trees
// are read-only after construction.
func Nullable(n *Node) *Node {
	c := *n
	c.Nullable = true
	return &c
}

// Fields builds one Field per name, all with the same child node shape.
func Fields(names []string, node *Node) []Field {
	out := make([]Field, 0, len(names))
	for _, name := range names {
		out = append(out, F(name, node))
	}
	return out
}

func (n *Node) Leaf() bool { return n.Kind != KindObject }

// Child returns the node for key, or nil.
func (n *Node) Child(key string) *Node {
	if n == nil || n.Children == nil {
		return nil
	}
	return n.Children[key]
}

// JSONSchema renders n as a strict draft JSON schema suitable for
// structured generation: every object key is required, no additional
// properties, nullable positions admit an explicit null.
func (n *Node) JSONSchema() map[string]any {
	switch n.Kind {
	case KindObject:
		props := make(map[string]any, len(n.Keys))
		required := make([]any, 0, len(n.Keys))
		for _, key := range n.Keys {
			props[key] = n.Children[key].JSONSchema()
			required = append(required, key)
		}
		out := map[string]any{
			"type":                 n.typeField("object"),
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		}
		return out
	case KindEnum:
		values := make([]any, 0, len(n.Values)+1)
		for _, v := range n.Values {
			values = append(values, v)
		}
		if n.Nullable {
			values = append(values, nil)
		}
		return map[string]any{"type": n.typeField("string"), "enum": values}
	case KindBoolean:
		return map[string]any{"type": n.typeField("boolean")}
	case KindDate:
		return map[string]any{"type": n.typeField("string"), "format": "date"}
	case KindNumber:
		return map[string]any{"type": n.typeField("number")}
	default:
		out := map[string]any{"type": n.typeField("string")}
		if n.MaxLen > 0 {
			out["maxLength"] = n.MaxLen
		}
		return out
	}
}

func (n *Node) typeField(base string) any {
	if n.Nullable {
		return []any{base, "null"}
	}
	return base
}

// NullValue produces the all-null response tree with n's exact shape:
// objects keep every key, every leaf is nil.
func (n *Node) NullValue() any {
	if n.Kind != KindObject {
		return nil
	}
	out := make(map[string]any, len(n.Keys))
	for _, key := range n.Keys {
		out[key] = n.Children[key].NullValue()
	}
	return out
}
