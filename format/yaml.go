package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/goliatone/go-lexical"
)

type yamlCodec struct{}

// YAML returns the YAML codec.
func YAML() Codec { return yamlCodec{} }

func (yamlCodec) Name() string         { return "yaml" }
func (yamlCodec) Extensions() []string { return []string{"yaml", "yml"} }

func (yamlCodec) Decode(data []byte, infos lexical.ParameterInfos) (*lexical.Document, error) {
	doc := lexical.NewDocument(lexical.WithDocumentParameterInfos(infos))
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", ErrMalformed, err)
	}
	if v == nil {
		return doc, nil
	}
	el, err := yamlElement(v)
	if err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", ErrMalformed, err)
	}
	if el.kind != objectElement {
		return nil, fmt.Errorf("%w: yaml: top level must be a mapping", ErrMalformed)
	}
	decodeMembers(doc.Root(), el.members, doc.ParameterInfos())
	return doc, nil
}

func (yamlCodec) Encode(doc *lexical.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("format: yaml: document is nil")
	}
	v, err := yamlValue(element{kind: objectElement, members: encodeMembers(doc.Root())})
	if err != nil {
		return nil, fmt.Errorf("format: yaml: %w", err)
	}
	out, err := yaml.MarshalWithOptions(v, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return nil, fmt.Errorf("format: yaml: %w", err)
	}
	return out, nil
}

func yamlElement(v any) (element, error) {
	raw, err := json.Marshal(plain(v))
	if err != nil {
		return element{}, err
	}
	el := element{kind: foreignElement, raw: raw}
	switch t := v.(type) {
	case string:
		el.kind, el.values = scalarElement, []string{t}
	case []any:
		values := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return el, nil
			}
			values = append(values, s)
		}
		el.kind, el.values = listElement, values
	case yaml.MapSlice:
		el.kind = objectElement
		for _, item := range t {
			child, err := yamlElement(item.Value)
			if err != nil {
				return element{}, err
			}
			el.members = append(el.members, member{name: fmt.Sprint(item.Key), value: child})
		}
	case map[string]any:
		el.kind = objectElement
		names := make([]string, 0, len(t))
		for name := range t {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			child, err := yamlElement(t[name])
			if err != nil {
				return element{}, err
			}
			el.members = append(el.members, member{name: name, value: child})
		}
	}
	return el, nil
}

func yamlValue(el element) (any, error) {
	switch el.kind {
	case scalarElement:
		return el.values[0], nil
	case listElement:
		return el.values, nil
	case foreignElement:
		return fromJSON(el.raw)
	default:
		out := make(yaml.MapSlice, 0, len(el.members))
		for _, m := range el.members {
			v, err := yamlValue(m.value)
			if err != nil {
				return nil, err
			}
			out = append(out, yaml.MapItem{Key: m.name, Value: v})
		}
		return out, nil
	}
}

// yamlPlain flattens ordered YAML maps for encoding/json.
func yamlPlain(v any) any {
	ms, ok := v.(yaml.MapSlice)
	if !ok {
		return v
	}
	out := make(map[string]any, len(ms))
	for _, item := range ms {
		out[fmt.Sprint(item.Key)] = plain(item.Value)
	}
	return out
}
