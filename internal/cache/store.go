// Package cache persists NAAN registry snapshots to the local filesystem
// and retrieves the most recent one across restarts.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/arkproject/ark-root-resolver/internal/registry"
)

const (
	// snapshotPrefix and snapshotSuffix bound the file names the store
	// manages; nothing else in the cache directory is touched.
	snapshotPrefix = "data_"
	snapshotSuffix = ".json"

	// timestampLayout names snapshot files by their UTC capture time.
	timestampLayout = "20060102_150405"
)

// ErrNoSnapshot is returned by Latest when the cache directory holds no
// snapshot files.
var ErrNoSnapshot = errors.New("no cached registry snapshot")

// SnapshotRef identifies one persisted snapshot file without loading it.
type SnapshotRef struct {
	// Path is the absolute or directory-relative path of the snapshot file.
	Path string

	// ModTime is the file's modification time, used for freshness checks.
	ModTime time.Time
}

// Fresh reports whether the snapshot is younger than maxAge.
func (r *SnapshotRef) Fresh(maxAge time.Duration) bool {
	return time.Since(r.ModTime) < maxAge
}

// Store is a file-based snapshot store rooted at a single directory.
type Store struct {
	dir string

	now func() time.Time
}

// NewStore creates a snapshot store for the given directory. The directory
// is created on first save, not here.
func NewStore(dir string) *Store {
	return &Store{
		dir: dir,
		now: time.Now,
	}
}

// Dir returns the directory the store persists snapshots under.
func (s *Store) Dir() string {
	return s.dir
}

// Latest returns a reference to the newest snapshot file by modification
// time. Ties are broken by file name so the result is stable. Returns
// ErrNoSnapshot when the directory is missing or holds no snapshot files.
func (s *Store) Latest() (*SnapshotRef, error) {
	refs, err := s.list()
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, ErrNoSnapshot
	}
	return &refs[len(refs)-1], nil
}

// Load reads and parses the snapshot the reference points at. The file's
// modification time becomes the snapshot's capture time.
func (s *Store) Load(ref *SnapshotRef) (*registry.Snapshot, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file %s: %w", ref.Path, err)
	}

	snap, err := registry.ParseSnapshot(data, ref.ModTime)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file %s: %w", ref.Path, err)
	}
	return snap, nil
}

// Save persists the snapshot's raw document as a new timestamped file and
// returns a reference to it. The write is atomic (temp file plus rename)
// and never replaces an existing snapshot file.
func (s *Store) Save(snap *registry.Snapshot) (*SnapshotRef, error) {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	path, err := s.nextPath()
	if err != nil {
		return nil, err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, snap.Document, 0600); err != nil {
		return nil, fmt.Errorf("failed to write temporary snapshot file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("failed to rename snapshot file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot file: %w", err)
	}

	return &SnapshotRef{Path: path, ModTime: info.ModTime()}, nil
}

// Prune deletes all but the keep newest snapshot files. A keep of zero or
// less disables pruning. Individual delete failures do not stop the pass.
func (s *Store) Prune(keep int) error {
	if keep <= 0 {
		return nil
	}

	refs, err := s.list()
	if err != nil {
		return err
	}
	if len(refs) <= keep {
		return nil
	}

	var errs []error
	for _, ref := range refs[:len(refs)-keep] {
		if err := os.Remove(ref.Path); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove snapshot file %s: %w", ref.Path, err))
		}
	}
	return errors.Join(errs...)
}

// list returns all snapshot refs sorted oldest to newest by modification
// time, then by name.
func (s *Store) list() ([]SnapshotRef, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, snapshotPrefix+"*"+snapshotSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}

	refs := make([]SnapshotRef, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			// The file disappeared between glob and stat; skip it.
			continue
		}
		if info.IsDir() {
			continue
		}
		refs = append(refs, SnapshotRef{Path: path, ModTime: info.ModTime()})
	}

	sort.Slice(refs, func(i, j int) bool {
		if !refs[i].ModTime.Equal(refs[j].ModTime) {
			return refs[i].ModTime.Before(refs[j].ModTime)
		}
		return refs[i].Path < refs[j].Path
	})
	return refs, nil
}

// nextPath picks an unused snapshot file name stamped with the current UTC
// time, appending a counter when a save lands in the same second.
func (s *Store) nextPath() (string, error) {
	stamp := s.now().UTC().Format(timestampLayout)
	path := filepath.Join(s.dir, snapshotPrefix+stamp+snapshotSuffix)

	for i := 0; ; i++ {
		candidate := path
		if i > 0 {
			candidate = filepath.Join(s.dir, fmt.Sprintf("%s%s_%d%s", snapshotPrefix, stamp, i, snapshotSuffix))
		}
		if _, err := os.Stat(candidate); err != nil {
			if os.IsNotExist(err) {
				return candidate, nil
			}
			return "", fmt.Errorf("failed to stat candidate snapshot file: %w", err)
		}
	}
}
