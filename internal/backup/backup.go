// Package backup keeps local copies of the site config next to the server,
// one file per day.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"willstech-admin/internal/editor"
	"willstech-admin/internal/siteconfig"
)

var ErrNotFound = errors.New("snapshot not found")

type Snapshot struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteSnapshot writes doc to the day's backup file. Later snapshots on the
// same day replace earlier ones.
func (w *Writer) WriteSnapshot(doc *siteconfig.Document, at time.Time) (string, error) {
	body, err := doc.Encode()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(w.dir, editor.BackupFileName(at))

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return "", fmt.Errorf("create pending snapshot: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(body); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("atomically replace snapshot: %w", err)
	}
	return path, nil
}

// List returns snapshots newest first.
func (w *Writer) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(w.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []Snapshot{}
	for _, e := range entries {
		if e.IsDir() || !isSnapshotName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Snapshot{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// Read returns the raw contents of a named snapshot.
func (w *Writer) Read(name string) ([]byte, error) {
	if !isSnapshotName(name) || filepath.Base(name) != name {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	body, err := os.ReadFile(filepath.Join(w.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return body, err
}

func isSnapshotName(name string) bool {
	return strings.HasPrefix(name, "willstech-backup-") && strings.HasSuffix(name, ".json")
}
