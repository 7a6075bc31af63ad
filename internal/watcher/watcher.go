// Package watcher observes the override tree and the project config for
// changes and emits debounced change batches.
//
// Changes are collected with fsnotify, held for a debounce window, then
// flushed as one batch per window. File contents are hashed so that a
// rewrite with identical bytes produces no batch at all. The watch loop
// never blocks on a slow consumer; a full channel drops the batch and
// counts the loss.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lethang507/crmdev/internal/config"
	"github.com/lethang507/crmdev/internal/hash"
)

const (
	// batchChannelBuffer is the size of the batch channel.
	batchChannelBuffer = 16
)

// Operation indicates the type of file change.
type Operation string

// OpCreate, OpModify and OpDelete enumerate the change operation types.
const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Event is one observed file change.
type Event struct {
	// Path is the file path, relative to the project root when the file
	// is inside it and absolute otherwise.
	Path string

	// Op is the type of change.
	Op Operation
}

// Watcher watches the override tree, the project config file and any
// extra configured paths, and emits change batches.
type Watcher struct {
	paths    config.Paths
	watch    config.WatchConfig
	hasher   hash.Hasher
	fsw      *fsnotify.Watcher
	logger   *slog.Logger
	excludes map[string]bool

	// Watch targets, fixed once Start has returned.
	trees []string
	files []string

	// Debouncing: collect changes before flushing a batch.
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Hash-based change suppression, keyed by absolute path.
	hashMu sync.RWMutex
	hashes map[string]string

	batches chan []Event

	droppedBatches atomic.Int64
}

// New creates a watcher for the given project. A nil logger falls back
// to the default logger.
func New(paths config.Paths, watch config.WatchConfig, hasher hash.Hasher, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		paths:  paths,
		watch:  watch,
		hasher: hasher,
		fsw:    fsw,
		logger: logger,
		excludes: map[string]bool{
			".git":         true,
			"node_modules": true,
		},
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
		batches: make(chan []Event, batchChannelBuffer),
	}, nil
}

// Batches returns the channel of change batches.
func (w *Watcher) Batches() <-chan []Event {
	return w.batches
}

// Start begins watching. The override tree is created if it does not
// exist; extra watch paths that do not exist are skipped with a warning.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.paths.OverridesDir, 0755); err != nil {
		return err
	}
	if err := w.addWatchesRecursive(w.paths.OverridesDir); err != nil {
		return err
	}
	w.trees = append(w.trees, w.paths.OverridesDir)

	// The config file is watched through its parent directory so the
	// watch survives editors that replace the file on save.
	if err := w.fsw.Add(filepath.Dir(w.paths.ConfigFile)); err != nil {
		return err
	}
	w.files = append(w.files, w.paths.ConfigFile)

	for _, extra := range w.watch.Paths {
		abs := extra
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(w.paths.Root, abs)
		}
		info, err := os.Stat(abs)
		if err != nil {
			w.logger.Warn("watch path does not exist, skipping",
				"path", extra,
				"error", err)
			continue
		}
		if info.IsDir() {
			if err := w.addWatchesRecursive(abs); err != nil {
				return err
			}
			w.trees = append(w.trees, abs)
		} else {
			if err := w.fsw.Add(filepath.Dir(abs)); err != nil {
				return err
			}
			w.files = append(w.files, abs)
		}
	}

	go w.processEvents(ctx)

	w.logger.Info("watcher started",
		"overrides", w.paths.OverridesDir,
		"debounce", w.watch.GetDebounce(),
		"extra_paths", len(w.watch.Paths))

	return nil
}

// Stop stops the watcher. The batch channel is closed by the watch loop
// when it exits.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

// SetHash records the content hash for an absolute path. Seeding hashes
// before changes arrive lets rewrites with unchanged content be
// suppressed from the first flush on.
func (w *Watcher) SetHash(abs, sum string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[abs] = sum
}

// GetHash returns the recorded hash for an absolute path.
func (w *Watcher) GetHash(abs string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	sum, ok := w.hashes[abs]
	return sum, ok
}

func (w *Watcher) forgetHash(abs string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	delete(w.hashes, abs)
}

// DroppedBatches returns the number of batches dropped because the
// channel was full.
func (w *Watcher) DroppedBatches() int64 {
	return w.droppedBatches.Load()
}

// addWatchesRecursive adds watches to root and all directories below it,
// skipping excluded and hidden directories.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if path != root && (w.excludes[base] || strings.HasPrefix(base, ".")) {
			return filepath.SkipDir
		}

		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("watching directory", "path", path)
		}
		return nil
	})
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.batches)
	ticker := time.NewTicker(w.watch.GetDebounce())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent processes a single fsnotify event.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	abs := event.Name

	// New directories under a watched tree need their own watch.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			w.handleNewDirectory(abs)
			return
		}
	}

	if !w.interesting(abs) {
		return
	}

	w.pendingMu.Lock()
	w.pending[abs] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("change detected",
		"path", w.displayPath(abs),
		"op", event.Op.String())
}

// handleNewDirectory adds a watch to a newly created directory.
func (w *Watcher) handleNewDirectory(abs string) {
	base := filepath.Base(abs)
	if w.excludes[base] || strings.HasPrefix(base, ".") {
		return
	}

	inside := false
	for _, root := range w.trees {
		if rel, ok := underRoot(root, abs); ok {
			if w.excludedRel(rel) {
				return
			}
			inside = true
			break
		}
	}
	if !inside {
		return
	}

	if err := w.fsw.Add(abs); err != nil {
		w.logger.Warn("failed to watch new directory",
			"path", abs,
			"error", err)
	} else {
		w.logger.Debug("watching new directory", "path", abs)
	}
}

// interesting reports whether a change to abs should trigger a batch.
func (w *Watcher) interesting(abs string) bool {
	for _, file := range w.files {
		if abs == file {
			return true
		}
	}
	for _, root := range w.trees {
		if rel, ok := underRoot(root, abs); ok {
			return !w.excludedRel(rel)
		}
	}
	return false
}

// flushPending turns the accumulated changes into one batch.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	batch := make([]Event, 0, len(toProcess))
	for abs, op := range toProcess {
		if ctx.Err() != nil {
			return
		}
		path := w.displayPath(abs)

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			w.forgetHash(abs)
			batch = append(batch, Event{Path: path, Op: OpDelete})
			continue
		}

		info, err := os.Stat(abs)
		if errors.Is(err, os.ErrNotExist) {
			w.forgetHash(abs)
			batch = append(batch, Event{Path: path, Op: OpDelete})
			continue
		}
		if err != nil {
			w.logger.Warn("failed to stat changed file",
				"path", path,
				"error", err)
			continue
		}
		if info.IsDir() {
			continue
		}

		content, err := os.ReadFile(abs)
		if err != nil {
			w.logger.Warn("failed to read changed file",
				"path", path,
				"error", err)
			continue
		}

		sum := w.hasher.HashBytes(content)
		old, known := w.GetHash(abs)
		if known && old == sum {
			// Touched without changing.
			continue
		}
		w.SetHash(abs, sum)

		if op.Has(fsnotify.Create) || !known {
			batch = append(batch, Event{Path: path, Op: OpCreate})
		} else {
			batch = append(batch, Event{Path: path, Op: OpModify})
		}
	}

	if len(batch) == 0 {
		return
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	w.sendBatch(batch)
}

// sendBatch sends a batch to the output channel without blocking.
func (w *Watcher) sendBatch(batch []Event) {
	select {
	case w.batches <- batch:
		w.logger.Debug("queued change batch", "files", len(batch))
	default:
		dropped := w.droppedBatches.Add(1)
		w.logger.Warn("batch channel full, dropping batch",
			"files", len(batch),
			"total_dropped", dropped)
	}
}

// displayPath renders abs relative to the project root when possible.
func (w *Watcher) displayPath(abs string) string {
	if rel, ok := underRoot(w.paths.Root, abs); ok {
		return rel
	}
	return abs
}

// excludedRel reports whether any parent component of the slash-separated
// relative path is an excluded or hidden directory. The final component
// is not checked, so hidden files like .babelrc still count as changes.
func (w *Watcher) excludedRel(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, part := range parts[:len(parts)-1] {
		if w.excludes[part] || strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// underRoot returns the slash-separated path of abs relative to root, or
// false when abs is not inside root.
func underRoot(root, abs string) (string, bool) {
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
