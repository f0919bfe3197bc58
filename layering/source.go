package layering

import (
	"slices"
	"strings"
)

// Level orders configuration sources. Higher levels override lower ones.
type Level int

const (
	// LevelUnknown marks a layer without a source; such layers are ignored.
	LevelUnknown Level = iota
	// LevelDefaults holds built-in defaults.
	LevelDefaults
	// LevelFile holds values read from a configuration file.
	LevelFile
	// LevelFlags holds values given on the command line.
	LevelFlags
)

func (l Level) String() string {
	switch l {
	case LevelDefaults:
		return "defaults"
	case LevelFile:
		return "file"
	case LevelFlags:
		return "flags"
	default:
		return "unknown"
	}
}

// ParseLevel converts a level name, ignoring case.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "defaults":
		return LevelDefaults
	case "file":
		return LevelFile
	case "flags":
		return LevelFlags
	default:
		return LevelUnknown
	}
}

// Layer is one configuration value with its source.
type Layer[T any] struct {
	Name  string
	Level Level
	Value T
}

// Chain is an ordered set of layers, strongest first.
type Chain[T any] struct {
	ordered []Layer[T]
}

// NewChain drops layers of unknown level and repeated names, then orders
// the rest from strongest to weakest. Layers of the same level keep their
// relative order.
func NewChain[T any](layers ...Layer[T]) Chain[T] {
	kept := make([]Layer[T], 0, len(layers))
	seen := map[string]struct{}{}
	for _, layer := range layers {
		if layer.Level == LevelUnknown {
			continue
		}
		if _, dup := seen[layer.Name]; dup {
			continue
		}
		seen[layer.Name] = struct{}{}
		kept = append(kept, layer)
	}
	slices.SortStableFunc(kept, func(a, b Layer[T]) int {
		return int(b.Level) - int(a.Level)
	})
	return Chain[T]{ordered: kept}
}

// Ordered returns the layers from strongest (index 0) to weakest.
func (c Chain[T]) Ordered() []Layer[T] {
	return slices.Clone(c.ordered)
}

// Names returns the layer names from strongest to weakest.
func (c Chain[T]) Names() []string {
	names := make([]string, 0, len(c.ordered))
	for _, layer := range c.ordered {
		names = append(names, layer.Name)
	}
	return names
}

// Merge folds the chain with Merge.
func (c Chain[T]) Merge() T {
	values := make([]T, 0, len(c.ordered))
	for _, layer := range c.ordered {
		values = append(values, layer.Value)
	}
	return Merge(values...)
}
