package engine

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/lethang507/crmdev/internal/clock"
	"github.com/lethang507/crmdev/internal/config"
	"github.com/lethang507/crmdev/internal/fsops"
	"github.com/lethang507/crmdev/internal/gitx"
	"github.com/lethang507/crmdev/internal/manifest"
	"github.com/lethang507/crmdev/internal/runner"
)

// Fixture layout used by the engine tests. The default config resolves the
// trees relative to the project root.
const (
	testRoot      = "/proj"
	testUpstream  = "/crm/frontend"
	testOverrides = "/proj/overrides/frontend"
	testBuild     = "/proj/build/frontend"
)

// memFS is a filesystem implementation that tracks files in memory for testing
type memFS struct {
	files   map[string][]byte
	dirs    map[string]bool
	copyErr map[string]error
}

func newMemFS() *memFS {
	return &memFS{
		files:   make(map[string][]byte),
		dirs:    make(map[string]bool),
		copyErr: make(map[string]error),
	}
}

// writeFile stores a file and creates its ancestor directories.
func (mfs *memFS) writeFile(path string, content string) {
	mfs.files[path] = []byte(content)
	mfs.markAncestors(path)
}

// failCopyFrom makes CopyFile fail for the given source path.
func (mfs *memFS) failCopyFrom(src string, err error) {
	mfs.copyErr[src] = err
}

func (mfs *memFS) markAncestors(path string) {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if dir == "." || dir == string(filepath.Separator) || mfs.dirs[dir] {
			break
		}
		mfs.dirs[dir] = true
	}
}

func (mfs *memFS) Exists(path string) (bool, error) {
	_, hasFile := mfs.files[path]
	return hasFile || mfs.dirs[path], nil
}

func (mfs *memFS) Lstat(path string) (os.FileInfo, error) {
	if content, ok := mfs.files[path]; ok {
		return &memFileInfo{name: filepath.Base(path), size: int64(len(content))}, nil
	}
	if mfs.dirs[path] {
		return &memFileInfo{name: filepath.Base(path), isDir: true}, nil
	}
	return nil, os.ErrNotExist
}

func (mfs *memFS) MkdirAll(path string, perm os.FileMode) error {
	mfs.dirs[path] = true
	mfs.markAncestors(path)
	return nil
}

func (mfs *memFS) Remove(path string) error {
	if _, ok := mfs.files[path]; !ok && !mfs.dirs[path] {
		return os.ErrNotExist
	}
	delete(mfs.files, path)
	delete(mfs.dirs, path)
	return nil
}

func (mfs *memFS) RemoveAll(path string) error {
	prefix := path + string(filepath.Separator)
	for p := range mfs.files {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(mfs.files, p)
		}
	}
	for p := range mfs.dirs {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(mfs.dirs, p)
		}
	}
	return nil
}

func (mfs *memFS) CopyFile(src, dst string) error {
	if err, ok := mfs.copyErr[src]; ok {
		return err
	}
	content, ok := mfs.files[src]
	if !ok {
		return os.ErrNotExist
	}
	mfs.files[dst] = append([]byte(nil), content...)
	mfs.markAncestors(dst)
	return nil
}

func (mfs *memFS) WalkFiles(root string) ([]string, error) {
	prefix := root + string(filepath.Separator)

	var files []string
	for p := range mfs.files {
		if strings.HasPrefix(p, prefix) {
			files = append(files, filepath.ToSlash(p[len(prefix):]))
		}
	}

	if len(files) == 0 && !mfs.dirs[root] {
		return nil, os.ErrNotExist
	}

	sort.Strings(files)
	return files, nil
}

func (mfs *memFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	mfs.files[path] = append([]byte(nil), data...)
	mfs.markAncestors(path)
	return nil
}

func (mfs *memFS) ReadFile(path string) ([]byte, error) {
	if content, ok := mfs.files[path]; ok {
		return append([]byte(nil), content...), nil
	}
	return nil, os.ErrNotExist
}

func (mfs *memFS) ValidateRelPath(relPath string) error {
	return fsops.NewRealFS().ValidateRelPath(relPath)
}

// memFileInfo implements os.FileInfo
type memFileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (m *memFileInfo) Name() string       { return m.name }
func (m *memFileInfo) Size() int64        { return m.size }
func (m *memFileInfo) Mode() os.FileMode  { return 0644 }
func (m *memFileInfo) ModTime() time.Time { return time.Time{} }
func (m *memFileInfo) IsDir() bool        { return m.isDir }
func (m *memFileInfo) Sys() interface{}   { return nil }

// memHasher hashes memFS content, so distinct contents get distinct hashes
// without per-path setup.
type memHasher struct {
	fs *memFS
}

func (h *memHasher) HashFile(path string) (string, error) {
	content, err := h.fs.ReadFile(path)
	if err != nil {
		return "", err
	}
	return h.HashBytes(content), nil
}

func (h *memHasher) HashBytes(data []byte) string {
	return "h-" + string(data)
}

func newTestEngine(t *testing.T) (*Engine, *memFS, *runner.FakeRunner, *manifest.MemStore) {
	t.Helper()

	fs := newMemFS()
	run := runner.NewFakeRunner()
	store := manifest.NewMemStore()

	cfg := config.DefaultConfig()
	git := gitx.NewFakeRepo("/crm", "c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00", "https://github.com/frappe/crm.git")
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	hasher := &memHasher{fs: fs}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	eng := New(testRoot, cfg, fs, hasher, clk, git, run, store, logger)
	return eng, fs, run, store
}

// seedUpstream populates the upstream tree from relative path to content.
func seedUpstream(fs *memFS, files map[string]string) {
	fs.MkdirAll(testUpstream, 0755)
	for rel, content := range files {
		fs.writeFile(filepath.Join(testUpstream, filepath.FromSlash(rel)), content)
	}
}

// seedOverrides populates the override tree from relative path to content.
func seedOverrides(fs *memFS, files map[string]string) {
	fs.MkdirAll(testOverrides, 0755)
	for rel, content := range files {
		fs.writeFile(filepath.Join(testOverrides, filepath.FromSlash(rel)), content)
	}
}

// buildFile returns the content of a file in the build tree.
func buildFile(t *testing.T, fs *memFS, rel string) string {
	t.Helper()
	content, err := fs.ReadFile(filepath.Join(testBuild, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("expected %s in build tree: %v", rel, err)
	}
	return string(content)
}
