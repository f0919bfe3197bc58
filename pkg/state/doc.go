// Package state persists lexical documents and applies reconciled writes to
// them.
//
// Responsibilities:
//   - Store only loads and saves the encoded bytes of a single Ref.
//   - Session decodes stored bytes with a format.Codec, folds incoming lines
//     into a document, reconciles it with the stored one under WriteFlags
//     and saves the encoded result.
//   - Activity events describing the applied changes are emitted after a
//     successful save.
//
// Data flow:
//
//	Store.Load -> Codec.Decode -> lexical.Reconcile(old, Build(lines)) -> Codec.Encode -> Store.Save
//
// Concurrency:
//
//	Meta.ETag is the content hash of the stored bytes. A write carrying an
//	ETag fails with ErrETagMismatch when the stored document changed since
//	it was read.
package state
