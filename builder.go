package lexical

import (
	"fmt"
	"iter"
	"slices"
	"time"
)

// Line is one (key, value) pair fed to the builder. A placeholder line has
// no value and only shapes the tree.
type Line struct {
	Key         any
	Value       string
	Placeholder bool
}

// NewLine pairs key with value.
func NewLine(key any, value string) Line {
	return Line{Key: key, Value: value}
}

// PlaceholderLine returns a line that creates structure without a value.
func PlaceholderLine(key any) Line {
	return Line{Key: key, Placeholder: true}
}

// Lines is a re-enumerable line source.
type Lines []Line

// All iterates the lines. It can be called any number of times.
func (ls Lines) All() iter.Seq[Line] {
	return slices.Values(ls)
}

// CollectLines drains seq into a Lines slice.
func CollectLines(seq iter.Seq[Line]) Lines {
	return Lines(slices.Collect(seq))
}

// ValuePolicy decides how values accumulate on a node.
type ValuePolicy int

const (
	// AppendValues keeps every value, duplicates included.
	AppendValues ValuePolicy = iota
	// UniqueValues skips a value the node already holds.
	UniqueValues
)

// LineFilter decides whether a line enters the tree.
type LineFilter interface {
	Allow(line Line, params Parameters) (bool, error)
}

// Builder folds lines into a Document. Non-canonical parameters become the
// outer containers (root, culture, then the rest by name) and canonical
// parameters nest inside them in their original order. The ordering is for
// presentation only; it never changes key identity.
type Builder struct {
	parametrizer Parametrizer
	infos        ParameterInfos
	comparer     *Comparer
	policy       ValuePolicy
	filter       LineFilter
	logger       BuildLogger
	rootMarker   string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithParametrizer sets the parametrizer used to break line keys.
func WithParametrizer(p Parametrizer) BuilderOption {
	return func(b *Builder) {
		if p != nil {
			b.parametrizer = p
		}
	}
}

// WithParameterInfos sets the registry attached to built documents.
func WithParameterInfos(infos ParameterInfos) BuilderOption {
	return func(b *Builder) {
		if infos != nil {
			b.infos = infos
		}
	}
}

// WithComparer sets the comparer attached to built documents.
func WithComparer(c *Comparer) BuilderOption {
	return func(b *Builder) {
		b.comparer = c
	}
}

// WithValuePolicy selects append or set semantics for node values.
func WithValuePolicy(policy ValuePolicy) BuilderOption {
	return func(b *Builder) {
		b.policy = policy
	}
}

// WithLineFilter drops lines the filter rejects.
func WithLineFilter(filter LineFilter) BuilderOption {
	return func(b *Builder) {
		b.filter = filter
	}
}

// WithBuildLogger attaches a logger receiving one event per build.
func WithBuildLogger(logger BuildLogger) BuilderOption {
	return func(b *Builder) {
		if logger == nil {
			b.logger = noopLogger{}
			return
		}
		b.logger = logger
	}
}

// WithRootMarker sets the root parameter value folded into the root node.
func WithRootMarker(marker string) BuilderOption {
	return func(b *Builder) {
		b.rootMarker = marker
	}
}

// NewBuilder constructs a builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		parametrizer: DefaultParametrizer(),
		infos:        defaultInfos,
		logger:       noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Build folds lines into a new document.
func Build(lines iter.Seq[Line], opts ...BuilderOption) (*Document, error) {
	return NewBuilder(opts...).Build(lines)
}

// NewDocument returns an empty document configured like the builder.
func (b *Builder) NewDocument() *Document {
	comparer := b.comparer
	if comparer == nil {
		comparer = NewComparer(WithComparerParametrizer(b.parametrizer))
	}
	return NewDocument(
		WithDocumentParameterInfos(b.infos),
		WithDocumentComparer(comparer),
		WithDocumentRootMarker(b.rootMarker),
	)
}

// Build folds lines into a new document.
func (b *Builder) Build(lines iter.Seq[Line]) (*Document, error) {
	doc := b.NewDocument()
	if err := b.BuildInto(doc, lines); err != nil {
		return nil, err
	}
	return doc, nil
}

// BuildInto folds lines into an existing document.
func (b *Builder) BuildInto(doc *Document, lines iter.Seq[Line]) error {
	if doc == nil {
		return fmt.Errorf("lexical: build: document is required")
	}
	event := BuildLogEvent{}
	start := time.Now()
	defer func() {
		event.Duration = time.Since(start)
		b.logger.LogBuild(event)
	}()
	if lines == nil {
		return nil
	}
	for line := range lines {
		path, err := b.Path(line.Key)
		if err != nil {
			event.Err = err
			return err
		}
		if len(path) == 0 {
			event.Err = wrapKeyError("build", line.Key, fmt.Errorf("%w: key has no parts below the root", ErrInvalidKey))
			return event.Err
		}
		if b.filter != nil {
			ok, err := b.filter.Allow(line, path)
			if err != nil {
				event.Err = wrapKeyError("filter", line.Key, err)
				return event.Err
			}
			if !ok {
				event.Skipped++
				continue
			}
		}
		node := doc.Root()
		for _, step := range path {
			node = node.GetOrCreate(step)
		}
		event.Lines++
		if line.Placeholder {
			continue
		}
		if b.policy == UniqueValues && node.ContainsValue(line.Value) {
			continue
		}
		node.AddValue(line.Value)
	}
	return nil
}

// Path returns the descent path for key: non-canonical parameters ordered by
// priority (last occurrence of each name only), followed by the canonical
// parameters in chain order. A root parameter equal to the root marker is
// dropped.
func (b *Builder) Path(key any) (Parameters, error) {
	params, err := Break(b.parametrizer, key)
	if err != nil {
		return nil, err
	}
	var nonCanonical, canonical Parameters
	last := map[string]int{}
	for i, p := range params {
		if !p.IsCanonical() {
			last[p.Name] = i
		}
	}
	for i, p := range params {
		if p.IsCanonical() {
			canonical = append(canonical, p)
			continue
		}
		if last[p.Name] != i {
			continue
		}
		if p.Name == ParameterRoot && p.Value == b.rootMarker {
			continue
		}
		nonCanonical = append(nonCanonical, p)
	}
	sortByPriority(nonCanonical, b.infos)
	return append(nonCanonical, canonical...), nil
}
