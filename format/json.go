package format

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-lexical"
)

type jsonCodec struct{}

// JSON returns the JSON codec.
func JSON() Codec { return jsonCodec{} }

func (jsonCodec) Name() string         { return "json" }
func (jsonCodec) Extensions() []string { return []string{"json"} }

func (jsonCodec) Decode(data []byte, infos lexical.ParameterInfos) (*lexical.Document, error) {
	doc := lexical.NewDocument(lexical.WithDocumentParameterInfos(infos))
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return doc, nil
	}
	el, err := jsonElement(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrMalformed, err)
	}
	if el.kind != objectElement {
		return nil, fmt.Errorf("%w: json: top level must be an object", ErrMalformed)
	}
	decodeMembers(doc.Root(), el.members, doc.ParameterInfos())
	return doc, nil
}

func (jsonCodec) Encode(doc *lexical.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("format: json: document is nil")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonValue(element{kind: objectElement, members: encodeMembers(doc.Root())})); err != nil {
		return nil, fmt.Errorf("format: json: %w", err)
	}
	return buf.Bytes(), nil
}

// jsonElement classifies one raw JSON value.
func jsonElement(raw json.RawMessage) (element, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return element{}, err
	}
	el := element{kind: foreignElement, raw: compact.Bytes()}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return element{}, err
		}
		el.kind, el.values = scalarElement, []string{s}
	case '[':
		var values []string
		if err := json.Unmarshal(raw, &values); err == nil {
			el.kind, el.values = listElement, values
		}
	case '{':
		members, err := jsonMembers(raw)
		if err != nil {
			return element{}, err
		}
		el.kind, el.members = objectElement, members
	}
	return el, nil
}

// jsonMembers reads object members in document order.
func jsonMembers(raw json.RawMessage) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var out []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		el, err := jsonElement(bytes.TrimSpace(value))
		if err != nil {
			return nil, err
		}
		out = append(out, member{name: name, value: el})
	}
	return out, nil
}

// jsonValue converts an element into a value json.Marshal renders with
// sorted members.
func jsonValue(el element) any {
	switch el.kind {
	case scalarElement:
		return el.values[0]
	case listElement:
		return el.values
	case foreignElement:
		return json.RawMessage(el.raw)
	default:
		obj := make(map[string]any, len(el.members))
		for _, m := range el.members {
			obj[m.name] = jsonValue(m.value)
		}
		return obj
	}
}
