package lexical

import (
	"iter"
	"slices"
	"sort"
)

// NodeID addresses a node inside its Document's arena.
type NodeID int

// RootID is the id of every document's root node.
const RootID NodeID = 0

const noParent NodeID = -1

type childKey struct {
	name  string
	value string
}

type treeNode struct {
	param    Parameter
	parent   NodeID
	children map[childKey]NodeID
	values   []string
	foreign  bool
	removed  bool
}

// Document is a tree of key parts. It owns every node in an arena; nodes
// refer to their parent and children by id, so there is no ownership cycle.
//
// A Document is not safe for concurrent mutation. Publish a Snapshot to
// share it with concurrent readers.
type Document struct {
	nodes      []treeNode
	infos      ParameterInfos
	comparer   *Comparer
	rootMarker string
	readOnly   bool
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithDocumentParameterInfos sets the parameter registry of the document.
func WithDocumentParameterInfos(infos ParameterInfos) DocumentOption {
	return func(d *Document) {
		if infos != nil {
			d.infos = infos
		}
	}
}

// WithDocumentComparer sets the comparer used for effective key matching.
func WithDocumentComparer(c *Comparer) DocumentOption {
	return func(d *Document) {
		if c != nil {
			d.comparer = c
		}
	}
}

// WithDocumentRootMarker sets the value of the root parameter that is folded
// into the root node instead of creating a child.
func WithDocumentRootMarker(marker string) DocumentOption {
	return func(d *Document) {
		d.rootMarker = marker
	}
}

// NewDocument returns a document holding only a root node.
func NewDocument(opts ...DocumentOption) *Document {
	d := &Document{
		nodes:    []treeNode{{parent: noParent}},
		infos:    defaultInfos,
		comparer: DefaultComparer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Root returns the root node.
func (d *Document) Root() Node {
	return Node{doc: d, id: RootID}
}

// Node returns the live node with id.
func (d *Document) Node(id NodeID) (Node, bool) {
	if d == nil || id < 0 || int(id) >= len(d.nodes) || d.nodes[id].removed {
		return Node{}, false
	}
	return Node{doc: d, id: id}, true
}

// ParameterInfos returns the registry the document was configured with.
func (d *Document) ParameterInfos() ParameterInfos {
	return d.infos
}

// Comparer returns the comparer used for effective key matching.
func (d *Document) Comparer() *Comparer {
	return d.comparer
}

// RootMarker returns the root parameter value folded into the root node.
func (d *Document) RootMarker() string {
	return d.rootMarker
}

// ReadOnly reports whether the document is a snapshot.
func (d *Document) ReadOnly() bool {
	return d.readOnly
}

// Len returns the number of live nodes, root included.
func (d *Document) Len() int {
	count := 0
	for i := range d.nodes {
		if !d.nodes[i].removed {
			count++
		}
	}
	return count
}

// IsEmpty reports whether the root has neither children nor values.
func (d *Document) IsEmpty() bool {
	root := d.Root()
	return !root.HasChildren() && !root.HasValues()
}

// Clone returns a mutable deep copy that keeps every node id.
func (d *Document) Clone() *Document {
	out := &Document{
		nodes:      make([]treeNode, len(d.nodes)),
		infos:      d.infos,
		comparer:   d.comparer,
		rootMarker: d.rootMarker,
	}
	for i, n := range d.nodes {
		c := n
		c.values = slices.Clone(n.values)
		if n.children != nil {
			c.children = make(map[childKey]NodeID, len(n.children))
			for k, v := range n.children {
				c.children[k] = v
			}
		}
		out.nodes[i] = c
	}
	return out
}

// Snapshot returns an immutable copy for publishing to concurrent readers.
// Mutating a snapshot panics.
func (d *Document) Snapshot() *Document {
	out := d.Clone()
	out.readOnly = true
	return out
}

// emptyLike returns an empty document with the same configuration.
func (d *Document) emptyLike() *Document {
	return &Document{
		nodes:      []treeNode{{parent: noParent}},
		infos:      d.infos,
		comparer:   d.comparer,
		rootMarker: d.rootMarker,
	}
}

// Walk visits live nodes depth-first, parents before children, children in
// segment order. Returning false from fn skips the node's subtree.
func (d *Document) Walk(fn func(Node) bool) {
	var visit func(Node)
	visit = func(n Node) {
		if !fn(n) {
			return
		}
		for _, child := range n.Children() {
			visit(child)
		}
	}
	visit(d.Root())
}

// Lines flattens the document: one line per value, and a placeholder line
// for every leaf without values. Foreign subtrees are not lexical data and
// are skipped.
func (d *Document) Lines() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		stopped := false
		d.Walk(func(n Node) bool {
			if stopped {
				return false
			}
			if n.IsRoot() {
				return true
			}
			if n.Foreign() {
				return false
			}
			key := n.Key()
			if !n.HasValues() {
				if !n.HasChildren() && !yield(Line{Key: key, Placeholder: true}) {
					stopped = true
				}
				return !stopped
			}
			for _, v := range n.Values() {
				if !yield(Line{Key: key, Value: v}) {
					stopped = true
					return false
				}
			}
			return true
		})
	}
}

// Equal reports whether both documents have the same shape, parameters,
// values and foreign markers. Node ids are not compared.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return nodesEqual(d.Root(), other.Root())
}

func nodesEqual(a, b Node) bool {
	if a.Parameter() != b.Parameter() || a.Foreign() != b.Foreign() {
		return false
	}
	if !slices.Equal(a.Values(), b.Values()) {
		return false
	}
	ac, bc := a.Children(), b.Children()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !nodesEqual(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

func (d *Document) mustWritable() {
	if d.readOnly {
		panic("lexical: document snapshot is read-only")
	}
}

// Node is a handle to a node in a Document. The zero Node is invalid.
type Node struct {
	doc *Document
	id  NodeID
}

func (n Node) data() *treeNode {
	return &n.doc.nodes[n.id]
}

// ID returns the arena id of the node.
func (n Node) ID() NodeID {
	return n.id
}

// Document returns the owning document.
func (n Node) Document() *Document {
	return n.doc
}

// Valid reports whether the handle refers to a live node.
func (n Node) Valid() bool {
	return n.doc != nil && int(n.id) < len(n.doc.nodes) && !n.data().removed
}

// IsRoot reports whether n is the document root.
func (n Node) IsRoot() bool {
	return n.id == RootID
}

// Parameter returns the key part of the node. The root has none.
func (n Node) Parameter() Parameter {
	if n.doc == nil {
		return Parameter{}
	}
	return n.data().param
}

// Parent returns the parent node; the root has none.
func (n Node) Parent() (Node, bool) {
	if n.doc == nil || n.IsRoot() {
		return Node{}, false
	}
	return Node{doc: n.doc, id: n.data().parent}, true
}

// Children returns the children ordered by their "name:value" segment.
func (n Node) Children() []Node {
	if n.doc == nil {
		return nil
	}
	children := n.data().children
	if len(children) == 0 {
		return nil
	}
	out := make([]Node, 0, len(children))
	for _, id := range children {
		out = append(out, Node{doc: n.doc, id: id})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Parameter().String() < out[j].Parameter().String()
	})
	return out
}

// Child returns the child carrying p's name and value.
func (n Node) Child(p Parameter) (Node, bool) {
	if n.doc == nil {
		return Node{}, false
	}
	id, ok := n.data().children[childKey{name: p.Name, value: p.Value}]
	if !ok {
		return Node{}, false
	}
	return Node{doc: n.doc, id: id}, true
}

// HasChildren reports whether the node has children.
func (n Node) HasChildren() bool {
	return n.doc != nil && len(n.data().children) > 0
}

// Values returns a copy of the node's values.
func (n Node) Values() []string {
	if n.doc == nil {
		return nil
	}
	return slices.Clone(n.data().values)
}

// HasValues reports whether the node carries values.
func (n Node) HasValues() bool {
	return n.doc != nil && len(n.data().values) > 0
}

// ContainsValue reports whether value is among the node's values.
func (n Node) ContainsValue(value string) bool {
	return n.doc != nil && slices.Contains(n.data().values, value)
}

// AddValue appends value without deduplication.
func (n Node) AddValue(value string) {
	n.doc.mustWritable()
	d := n.data()
	d.values = append(d.values, value)
}

// SetValues replaces the node's values.
func (n Node) SetValues(values []string) {
	n.doc.mustWritable()
	n.data().values = slices.Clone(values)
}

// Foreign reports whether a reader marked the node as content it could not
// interpret.
func (n Node) Foreign() bool {
	return n.doc != nil && n.data().foreign
}

// SetForeign marks or clears the foreign marker.
func (n Node) SetForeign(foreign bool) {
	n.doc.mustWritable()
	n.data().foreign = foreign
}

// Recognized reports whether the node is content the engine understands:
// not foreign and, below the root, a parameter name known to the document.
func (n Node) Recognized() bool {
	if n.Foreign() {
		return false
	}
	return n.IsRoot() || n.doc.infos.Recognized(n.Parameter().Name)
}

// SubtreeRecognized reports whether n and all of its descendants are
// recognized.
func (n Node) SubtreeRecognized() bool {
	if !n.Recognized() {
		return false
	}
	for _, child := range n.Children() {
		if !child.SubtreeRecognized() {
			return false
		}
	}
	return true
}

// GetOrCreate returns the child carrying p, creating it when absent.
func (n Node) GetOrCreate(p Parameter) Node {
	if child, ok := n.Child(p); ok {
		return child
	}
	n.doc.mustWritable()
	id := NodeID(len(n.doc.nodes))
	n.doc.nodes = append(n.doc.nodes, treeNode{param: p, parent: n.id})
	d := n.data()
	if d.children == nil {
		d.children = map[childKey]NodeID{}
	}
	d.children[childKey{name: p.Name, value: p.Value}] = id
	return Node{doc: n.doc, id: id}
}

// Remove detaches n and its subtree. Removing the root clears it instead.
func (n Node) Remove() {
	n.doc.mustWritable()
	if n.IsRoot() {
		for _, child := range n.Children() {
			child.Remove()
		}
		n.data().values = nil
		return
	}
	n.markRemoved()
	parent := n.doc.nodes[n.data().parent]
	p := n.data().param
	delete(parent.children, childKey{name: p.Name, value: p.Value})
}

func (n Node) markRemoved() {
	d := n.data()
	d.removed = true
	for _, id := range d.children {
		Node{doc: n.doc, id: id}.markRemoved()
	}
}

// Path returns the nodes from below the root down to n.
func (n Node) Path() []Node {
	if n.doc == nil {
		return nil
	}
	var out []Node
	for cur := n; !cur.IsRoot(); cur = (Node{doc: n.doc, id: cur.data().parent}) {
		out = append(out, cur)
	}
	slices.Reverse(out)
	return out
}

// Parameters returns the parameters from below the root down to n.
func (n Node) Parameters() Parameters {
	path := n.Path()
	out := make(Parameters, len(path))
	for i, step := range path {
		out[i] = step.Parameter()
	}
	return out
}

// Key returns the chain from the root down to n.
func (n Node) Key() *Key {
	k := EmptyKey(n.doc.infos)
	for _, p := range n.Parameters() {
		k = k.AppendParameter(p)
	}
	return k
}

// String renders the node's path in key text form.
func (n Node) String() string {
	if n.doc == nil {
		return "<invalid>"
	}
	return n.Parameters().String()
}
