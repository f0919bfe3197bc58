package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// metaSuffix names the sidecar file holding Meta next to each document.
const metaSuffix = ".meta.json"

// FileStore keeps documents as files below Root. Meta is written to a JSON
// sidecar; the ETag is always recomputed from the file content so edits made
// outside the store are detected.
type FileStore struct {
	Root string
	// Perm is applied to new files; zero means 0o644.
	Perm fs.FileMode
	// SkipMeta disables the sidecar. Load then reports only the ETag and
	// the modification time.
	SkipMeta bool
}

// NewFileStore returns a FileStore rooted at root.
func NewFileStore(root string) *FileStore {
	return &FileStore{Root: root}
}

// Path returns the file backing ref.
func (s *FileStore) Path(ref Ref) (string, error) {
	key, err := ref.Identifier()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, filepath.FromSlash(key)), nil
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, ref Ref) ([]byte, Meta, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, Meta{}, false, err
	}
	name, err := s.Path(ref)
	if err != nil {
		return nil, Meta{}, false, err
	}
	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Meta{}, false, nil
	}
	if err != nil {
		return nil, Meta{}, false, fmt.Errorf("state: read %s: %w", name, err)
	}

	var meta Meta
	if !s.SkipMeta {
		if meta, err = readMeta(name + metaSuffix); err != nil {
			return nil, Meta{}, false, err
		}
	}
	meta.ETag = ContentETag(data)
	if meta.UpdatedAt.IsZero() {
		if info, statErr := os.Stat(name); statErr == nil {
			meta.UpdatedAt = info.ModTime().UTC()
		}
	}
	return data, meta, true, nil
}

// Save implements Store. The document and its sidecar are replaced through
// a rename so readers never observe a partial file.
func (s *FileStore) Save(ctx context.Context, ref Ref, data []byte, meta Meta) (Meta, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	name, err := s.Path(ref)
	if err != nil {
		return Meta{}, err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return Meta{}, fmt.Errorf("state: create directory: %w", err)
	}

	saved := stamp(data, meta, time.Now())
	if err := writeAtomic(name, data, s.perm()); err != nil {
		return Meta{}, err
	}
	if s.SkipMeta {
		return saved, nil
	}
	sidecar, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode meta: %w", err)
	}
	if err := writeAtomic(name+metaSuffix, append(sidecar, '\n'), s.perm()); err != nil {
		return Meta{}, err
	}
	return saved, nil
}

func (s *FileStore) perm() fs.FileMode {
	if s.Perm == 0 {
		return 0o644
	}
	return s.Perm
}

func readMeta(name string) (Meta, error) {
	raw, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return Meta{}, nil
	}
	if err != nil {
		return Meta{}, fmt.Errorf("state: read meta: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Meta{}, fmt.Errorf("state: decode meta %s: %w", name, err)
	}
	return meta, nil
}

func writeAtomic(name string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return fmt.Errorf("state: write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("state: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: write %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("state: write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		return fmt.Errorf("state: write %s: %w", name, err)
	}
	return nil
}
