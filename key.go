package lexical

// Key is one link of an immutable key chain. Links point from leaf to root
// through Previous; extending a chain allocates a new leaf and leaves the
// existing links untouched, so chains freely share prefixes.
//
// The nil *Key is the empty chain and every builder method accepts it:
//
//	var k *lexical.Key
//	success := k.Culture("de").Type("Login").Key("Success")
type Key struct {
	prev  *Key
	param Parameter
	infos ParameterInfos
	depth int
}

// NewKey starts a chain with a single parameter using the default registry.
func NewKey(name, value string) *Key {
	return (*Key)(nil).Append(name, value)
}

// ParseKey parses the "name:value:name:value" text form into a chain.
func ParseKey(text string) (*Key, error) {
	params, err := ParseParameters(text, nil)
	if err != nil {
		return nil, err
	}
	return params.Key(), nil
}

// EmptyKey returns an empty chain whose appended links resolve
// canonicality through infos.
func EmptyKey(infos ParameterInfos) *Key {
	return &Key{infos: infos, depth: -1}
}

// Append extends the chain with name=value, resolving canonicality through
// the chain's registry.
func (k *Key) Append(name, value string) *Key {
	infos := k.registry()
	return k.AppendParameter(Parameter{Name: name, Value: value, Canonicality: infos.Canonicality(name)})
}

// AppendParameter extends the chain with an explicit parameter.
func (k *Key) AppendParameter(p Parameter) *Key {
	base := k.trimSentinel()
	depth := 0
	if base != nil {
		depth = base.depth + 1
	}
	return &Key{prev: base, param: p, infos: k.registryOrNil(), depth: depth}
}

// Root appends the structural root parameter.
func (k *Key) Root(value string) *Key { return k.Append(ParameterRoot, value) }

// Culture appends a culture parameter.
func (k *Key) Culture(value string) *Key { return k.Append(ParameterCulture, value) }

// Assembly appends an assembly parameter.
func (k *Key) Assembly(value string) *Key { return k.Append(ParameterAssembly, value) }

// Resource appends a resource parameter.
func (k *Key) Resource(value string) *Key { return k.Append(ParameterResource, value) }

// Location appends a location parameter.
func (k *Key) Location(value string) *Key { return k.Append(ParameterLocation, value) }

// Type appends a type parameter.
func (k *Key) Type(value string) *Key { return k.Append(ParameterType, value) }

// Section appends a section parameter.
func (k *Key) Section(value string) *Key { return k.Append(ParameterSection, value) }

// Key appends a key parameter.
func (k *Key) Key(value string) *Key { return k.Append(ParameterKey, value) }

// Previous returns the link toward the root, or nil at the root.
func (k *Key) Previous() *Key {
	if k.isEmpty() {
		return nil
	}
	return k.prev
}

// Parameter returns the parameter carried by this link.
func (k *Key) Parameter() Parameter {
	if k.isEmpty() {
		return Parameter{}
	}
	return k.param
}

// Len returns the number of links in the chain.
func (k *Key) Len() int {
	if k.isEmpty() {
		return 0
	}
	return k.depth + 1
}

// Parts returns the links root→leaf.
func (k *Key) Parts() []*Key {
	if k.isEmpty() {
		return nil
	}
	out := make([]*Key, k.Len())
	for cur, i := k, k.depth; cur != nil; cur, i = cur.prev, i-1 {
		out[i] = cur
	}
	return out
}

// Parameters returns the parameters root→leaf.
func (k *Key) Parameters() Parameters {
	parts := k.Parts()
	out := make(Parameters, len(parts))
	for i, part := range parts {
		out[i] = part.param
	}
	return out
}

// Find returns the value of the occurrence of name closest to the leaf.
func (k *Key) Find(name string) (string, bool) {
	for cur := k.trimSentinel(); cur != nil; cur = cur.prev {
		if cur.param.Name == name {
			return cur.param.Value, true
		}
	}
	return "", false
}

// String renders the chain in the "name:value:name:value" text form.
func (k *Key) String() string {
	return k.Parameters().String()
}

func (k *Key) isEmpty() bool {
	return k == nil || k.depth < 0
}

func (k *Key) trimSentinel() *Key {
	if k.isEmpty() {
		return nil
	}
	return k
}

func (k *Key) registryOrNil() ParameterInfos {
	if k == nil {
		return nil
	}
	return k.infos
}

func (k *Key) registry() ParameterInfos {
	if infos := k.registryOrNil(); infos != nil {
		return infos
	}
	return defaultInfos
}

var defaultInfos = DefaultParameterInfos()
