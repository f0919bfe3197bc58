// Package format reads and writes lexical documents as tree-shaped text.
//
// Both codecs share one layout: every object member name is a key segment
// ("culture:de", or several parts such as "type:Login:key:Success"), a
// string or list of strings holds the values of the node the member names,
// and the empty member name holds the values of the enclosing node.
// Members the reader cannot interpret become foreign nodes and are written
// back verbatim.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-lexical"
)

var (
	// ErrUnknownFormat indicates no codec is registered for a name or extension.
	ErrUnknownFormat = errors.New("format: unknown format")
	// ErrMalformed indicates input that is not a document at all.
	ErrMalformed = errors.New("format: malformed document")
)

// Codec converts between bytes and documents.
type Codec interface {
	Name() string
	Extensions() []string
	Decode(data []byte, infos lexical.ParameterInfos) (*lexical.Document, error)
	Encode(doc *lexical.Document) ([]byte, error)
}

// Registry resolves codecs by name or file extension.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Codec
	byExt  map[string]Codec
}

// NewRegistry returns a registry holding codecs.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{byName: map[string]Codec{}, byExt: map[string]Codec{}}
	for _, c := range codecs {
		_ = r.Register(c)
	}
	return r
}

// DefaultRegistry returns a registry with the JSON and YAML codecs.
func DefaultRegistry() *Registry {
	return NewRegistry(JSON(), YAML())
}

// Register adds c; a name may only be registered once.
func (r *Registry) Register(c Codec) error {
	if c == nil {
		return fmt.Errorf("format: codec is nil")
	}
	name := strings.ToLower(c.Name())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("format: codec %q already registered", name)
	}
	r.byName[name] = c
	for _, ext := range c.Extensions() {
		r.byExt[normalizeExt(ext)] = c
	}
	return nil
}

// Lookup returns the codec registered under name.
func (r *Registry) Lookup(name string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byName[strings.ToLower(name)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ForPath returns the codec registered for the extension of path.
func (r *Registry) ForPath(path string) (Codec, error) {
	ext := normalizeExt(filepath.Ext(path))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byExt[ext]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: no codec for %q", ErrUnknownFormat, path)
}

// Resolve prefers an explicit name and falls back to the extension of path.
func (r *Registry) Resolve(name, path string) (Codec, error) {
	if name != "" {
		return r.Lookup(name)
	}
	return r.ForPath(path)
}

// Names returns the registered codec names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
