package lexical

import (
	"fmt"
	"slices"
	"time"
)

// ChangeKind classifies one reconciliation outcome.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
	// ChangeRetained marks an entry RemoveCautious kept because its subtree
	// holds unrecognized content.
	ChangeRetained ChangeKind = "retained"
)

// Change describes one entry touched by Reconcile. Node refers to the merged
// document, except for removals where it refers to the old document.
type Change struct {
	Kind      ChangeKind
	Key       string
	Node      NodeID
	OldValues []string
	NewValues []string
}

// Report lists the changes Reconcile applied, in traversal order.
type Report struct {
	Flags   WriteFlags
	Changes []Change
}

// Count returns the number of changes of kind.
func (r Report) Count(kind ChangeKind) int {
	count := 0
	for _, c := range r.Changes {
		if c.Kind == kind {
			count++
		}
	}
	return count
}

// Empty reports whether nothing changed.
func (r Report) Empty() bool {
	return len(r.Changes) == 0
}

func (r *Report) record(kind ChangeKind, n Node, oldValues, newValues []string) {
	r.Changes = append(r.Changes, Change{
		Kind:      kind,
		Key:       n.String(),
		Node:      n.ID(),
		OldValues: oldValues,
		NewValues: newValues,
	})
}

// ReconcileOption configures Reconcile.
type ReconcileOption func(*reconcileConfig)

type reconcileConfig struct {
	logger   ReconcileLogger
	comparer *Comparer
}

// WithReconcileLogger attaches a logger receiving one event per run.
func WithReconcileLogger(logger ReconcileLogger) ReconcileOption {
	return func(cfg *reconcileConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithMatchComparer sets the comparer used by EffectiveKeyMatching. By default
// the new document's comparer is used.
func WithMatchComparer(c *Comparer) ReconcileOption {
	return func(cfg *reconcileConfig) {
		cfg.comparer = c
	}
}

// Reconcile merges updated into old under flags and returns the merged
// document. old is never modified; a nil old stands for an empty document.
// Node ids of the old document survive in the merged one, so callers can
// detect node churn by comparing ids.
//
// Overwrite bypasses matching: the result is a copy of updated when Add is
// set and an empty document otherwise.
func Reconcile(old, updated *Document, flags WriteFlags, opts ...ReconcileOption) (*Document, Report, error) {
	cfg := reconcileConfig{logger: noopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	report := Report{Flags: flags}
	start := time.Now()
	if updated == nil {
		err := fmt.Errorf("lexical: reconcile: new document is required")
		cfg.logger.LogReconcile(ReconcileLogEvent{Flags: flags, Duration: time.Since(start), Err: err})
		return nil, report, err
	}
	if old == nil {
		old = updated.emptyLike()
	}
	comparer := cfg.comparer
	if comparer == nil {
		comparer = updated.Comparer()
	}
	r := &reconciler{flags: flags, comparer: comparer.forKeys(), report: &report}

	var merged *Document
	switch {
	case flags.Has(Overwrite):
		merged = r.overwrite(old, updated)
	case flags.Has(EffectiveKeyMatching):
		merged = old.Clone()
		r.mergeEffective(merged, updated)
	default:
		merged = old.Clone()
		r.mergeStructural(merged.Root(), updated.Root())
	}

	cfg.logger.LogReconcile(ReconcileLogEvent{
		Flags:    flags,
		Added:    report.Count(ChangeAdded),
		Removed:  report.Count(ChangeRemoved),
		Modified: report.Count(ChangeModified),
		Retained: report.Count(ChangeRetained),
		Duration: time.Since(start),
	})
	return merged, report, nil
}

type reconciler struct {
	flags    WriteFlags
	comparer *Comparer
	report   *Report
}

func (r *reconciler) overwrite(old, updated *Document) *Document {
	for _, n := range entries(old.Root()) {
		r.report.record(ChangeRemoved, n, n.Values(), nil)
	}
	if !r.flags.Has(Add) {
		return old.emptyLike()
	}
	merged := updated.Clone()
	for _, n := range entries(merged.Root()) {
		r.report.record(ChangeAdded, n, nil, n.Values())
	}
	return merged
}

// mergeStructural matches nodes by identical position. It runs depth-first
// and settles a node before visiting its children.
func (r *reconciler) mergeStructural(dst, src Node) {
	if r.flags.Has(Modify) && !dst.IsRoot() {
		if !slices.Equal(dst.Values(), src.Values()) {
			r.report.record(ChangeModified, dst, dst.Values(), src.Values())
			dst.SetValues(src.Values())
		}
	}
	for _, sc := range src.Children() {
		if dc, ok := dst.Child(sc.Parameter()); ok {
			r.mergeStructural(dc, sc)
			continue
		}
		if r.flags.Has(Add) {
			r.copySubtree(dst, sc)
		}
	}
	if !r.flags.removes() {
		return
	}
	for _, dc := range dst.Children() {
		if _, ok := src.Child(dc.Parameter()); ok {
			continue
		}
		r.removeCandidate(dc)
	}
}

func (r *reconciler) copySubtree(parent, src Node) Node {
	n := parent.GetOrCreate(src.Parameter())
	n.SetValues(src.Values())
	n.SetForeign(src.Foreign())
	if isEntry(src) && !src.Foreign() {
		r.report.record(ChangeAdded, n, nil, n.Values())
	}
	for _, child := range src.Children() {
		r.copySubtree(n, child)
	}
	return n
}

// removeCandidate removes n with its subtree, unless RemoveCautious is set
// and the subtree holds unrecognized content.
func (r *reconciler) removeCandidate(n Node) bool {
	if r.flags.Has(RemoveCautious) && !n.SubtreeRecognized() {
		r.report.record(ChangeRetained, n, n.Values(), nil)
		return false
	}
	for _, e := range entries(n) {
		r.report.record(ChangeRemoved, e, e.Values(), nil)
	}
	n.Remove()
	return true
}

// mergeEffective matches entries by comparer equality of their full keys,
// independent of how either tree nests its parameters.
func (r *reconciler) mergeEffective(merged, updated *Document) {
	oldEntries := entries(merged.Root())
	oldLen := NodeID(len(merged.nodes))
	index := make(map[uint64][]NodeID, len(oldEntries))
	keys := make(map[NodeID]*Key, len(oldEntries))
	for _, n := range oldEntries {
		k := n.Key()
		keys[n.ID()] = k
		h := r.comparer.Hash(k)
		index[h] = append(index[h], n.ID())
	}
	matched := map[NodeID]bool{}

	for _, sn := range entries(updated.Root()) {
		key := sn.Key()
		var found []Node
		for _, id := range index[r.comparer.Hash(key)] {
			n, ok := merged.Node(id)
			if ok && r.comparer.Equal(keys[id], key) {
				found = append(found, n)
			}
		}
		if len(found) > 0 {
			for _, n := range found {
				matched[n.ID()] = true
				if r.flags.Has(Modify) && !slices.Equal(n.Values(), sn.Values()) {
					r.report.record(ChangeModified, n, n.Values(), sn.Values())
					n.SetValues(sn.Values())
				}
			}
			continue
		}
		if !r.flags.Has(Add) {
			continue
		}
		n := merged.Root()
		for _, step := range sn.Path() {
			n = n.GetOrCreate(step.Parameter())
		}
		matched[n.ID()] = true
		r.report.record(ChangeAdded, n, nil, sn.Values())
		n.SetValues(sn.Values())
	}

	if !r.flags.removes() {
		return
	}
	for _, n := range oldEntries {
		if matched[n.ID()] || !n.Valid() {
			continue
		}
		if r.flags.Has(RemoveCautious) && !n.SubtreeRecognized() {
			r.report.record(ChangeRetained, n, n.Values(), nil)
			continue
		}
		if holdsMatched(n, matched, oldLen) {
			if n.HasValues() {
				r.report.record(ChangeRemoved, n, n.Values(), nil)
				n.SetValues(nil)
			}
			continue
		}
		parent, _ := n.Parent()
		r.removeCandidate(n)
		pruneEmpty(parent, matched)
	}
}

// holdsMatched reports whether a descendant of n was matched or added.
func holdsMatched(n Node, matched map[NodeID]bool, oldLen NodeID) bool {
	for _, child := range n.Children() {
		if matched[child.ID()] || child.ID() >= oldLen || holdsMatched(child, matched, oldLen) {
			return true
		}
	}
	return false
}

// pruneEmpty removes n and its ancestors while they carry nothing.
func pruneEmpty(n Node, matched map[NodeID]bool) {
	for !n.IsRoot() && n.Valid() && !n.HasChildren() && !n.HasValues() && n.Recognized() && !matched[n.ID()] {
		parent, _ := n.Parent()
		n.Remove()
		n = parent
	}
}

// entries returns, in pre-order, the nodes below n (n included unless it is
// the root) that hold values or are leaves. Foreign subtrees are skipped.
func entries(n Node) []Node {
	var out []Node
	var visit func(Node)
	visit = func(cur Node) {
		if cur.Foreign() {
			return
		}
		if !cur.IsRoot() && isEntry(cur) {
			out = append(out, cur)
		}
		for _, child := range cur.Children() {
			visit(child)
		}
	}
	visit(n)
	return out
}

func isEntry(n Node) bool {
	return n.HasValues() || !n.HasChildren()
}

// forKeys returns a comparer with the same rules that reads materialized
// *Key chains.
func (c *Comparer) forKeys() *Comparer {
	if c == nil {
		return DefaultComparer()
	}
	return &Comparer{parametrizer: DefaultParametrizer(), parts: c.parts, chains: c.chains}
}
