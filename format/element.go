package format

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/goliatone/go-lexical"
)

type elementKind int

const (
	scalarElement elementKind = iota
	listElement
	objectElement
	foreignElement
)

// element is the codec-neutral form of one member value. raw always holds
// the compact JSON encoding so foreign content can be stored in the tree
// independent of the codec that read it.
type element struct {
	kind    elementKind
	values  []string
	members []member
	raw     []byte
}

type member struct {
	name  string
	value element
}

// decodeMembers folds members into node. Members that do not describe
// lexical content become foreign children keyed by their member name.
func decodeMembers(node lexical.Node, members []member, infos lexical.ParameterInfos) {
	for _, m := range members {
		if m.name == "" && !node.IsRoot() && (m.value.kind == scalarElement || m.value.kind == listElement) {
			for _, v := range m.value.values {
				node.AddValue(v)
			}
			continue
		}
		params, err := lexical.ParseParameters(m.name, infos)
		if err != nil || len(params) == 0 || m.value.kind == foreignElement {
			addForeign(node, m)
			continue
		}
		target := node
		for _, p := range params {
			target = target.GetOrCreate(p)
		}
		switch m.value.kind {
		case scalarElement, listElement:
			for _, v := range m.value.values {
				target.AddValue(v)
			}
		case objectElement:
			decodeMembers(target, m.value.members, infos)
		}
	}
}

func addForeign(node lexical.Node, m member) {
	child := node.GetOrCreate(lexical.Parameter{Value: m.name})
	child.SetForeign(true)
	child.SetValues([]string{string(m.value.raw)})
}

// encodeMembers renders the children of node sorted by member name.
func encodeMembers(node lexical.Node) []member {
	var out []member
	if !node.IsRoot() && node.HasValues() {
		out = append(out, member{name: "", value: valuesElement(node.Values())})
	}
	for _, child := range node.Children() {
		if child.Foreign() {
			var raw []byte
			if values := child.Values(); len(values) > 0 {
				raw = []byte(values[0])
			}
			if !json.Valid(raw) {
				raw = []byte("null")
			}
			out = append(out, member{name: child.Parameter().Value, value: element{kind: foreignElement, raw: raw}})
			continue
		}
		out = append(out, member{name: child.Parameter().String(), value: nodeElement(child)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func nodeElement(n lexical.Node) element {
	if n.HasChildren() {
		return element{kind: objectElement, members: encodeMembers(n)}
	}
	if !n.HasValues() {
		return element{kind: objectElement}
	}
	return valuesElement(n.Values())
}

func valuesElement(values []string) element {
	if len(values) == 1 {
		return element{kind: scalarElement, values: values}
	}
	return element{kind: listElement, values: values}
}

// plain converts generic decoded data into values encoding/json can marshal.
// Ordered YAML maps become plain maps; key order is not significant in
// foreign content.
func plain(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = plain(item)
		}
		return out
	default:
		return yamlPlain(v)
	}
}

// numberValue turns a json.Number into int64 or float64.
func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// fromJSON decodes raw JSON into generic values, keeping integers integral.
func fromJSON(raw []byte) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		return numberValue(t)
	case []any:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalizeNumbers(t[k])
		}
		return t
	default:
		return v
	}
}
