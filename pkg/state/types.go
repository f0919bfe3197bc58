package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var (
	// ErrETagMismatch is returned when a write targets a stale snapshot.
	ErrETagMismatch = errors.New("state: etag mismatch")
	// ErrInvalidRef is returned for refs that cannot be mapped to a key.
	ErrInvalidRef = errors.New("state: invalid ref")
)

// Ref identifies one persisted document. Format names a codec; when empty
// the codec is picked from the extension of Resource.
type Ref struct {
	Resource string
	Format   string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves the encoded bytes of one document.
type Store interface {
	Load(ctx context.Context, ref Ref) (data []byte, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, data []byte, meta Meta) (Meta, error)
}

// Identifier returns the canonical slash-separated storage key of r.
// Absolute paths and paths escaping the store root are rejected.
func (r Ref) Identifier() (string, error) {
	resource := strings.TrimSpace(strings.ReplaceAll(r.Resource, "\\", "/"))
	if resource == "" {
		return "", fmt.Errorf("%w: resource is required", ErrInvalidRef)
	}
	if strings.HasPrefix(resource, "/") {
		return "", fmt.Errorf("%w: resource %q must be relative", ErrInvalidRef, r.Resource)
	}
	cleaned := path.Clean(resource)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: resource %q escapes the store", ErrInvalidRef, r.Resource)
	}
	return cleaned, nil
}

// ContentETag returns the ETag stores assign to data.
func ContentETag(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}

// stamp assigns the content ETag and a save time.
func stamp(data []byte, meta Meta, now time.Time) Meta {
	out := cloneMeta(meta)
	out.ETag = ContentETag(data)
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = now.UTC()
	}
	return out
}
