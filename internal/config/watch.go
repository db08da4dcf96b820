package config

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/hashstructure/v2"
)

// ChangeHandler is invoked with the freshly reloaded config whenever the
// file's content actually changed. err is set instead of cfg if the reload
// failed (e.g. an editor left the file briefly truncated mid-write).
type ChangeHandler func(cfg *ClientConfig, err error)

// Watcher hot-reloads a ClientConfig file on disk, matching the teacher's
// atomic-save pattern on the write side with fsnotify on the read side.
// Many editors and atomic writers replace a file rather than write in
// place, so the directory is watched rather than the file itself.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	onEvent ChangeHandler

	mu       sync.Mutex
	lastHash uint64
	done     chan struct{}
}

// NewWatcher starts watching path's directory and invokes onChange every
// time the loaded config's structural hash differs from the last one seen
// (§9 Open Question: config hot-reload uses content hashing, not mtime, so
// a save that rewrites identical content is not reported as a change).
func NewWatcher(path string, onChange ChangeHandler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		fsw:     fsw,
		onEvent: onChange,
		done:    make(chan struct{}),
	}

	if cfg, err := LoadFrom(path); err == nil {
		w.lastHash, _ = hashConfig(cfg)
	}

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("mcpcore: config watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadFrom(w.path)
	if err != nil {
		w.onEvent(nil, err)
		return
	}
	hash, err := hashConfig(cfg)
	if err != nil {
		w.onEvent(nil, err)
		return
	}

	w.mu.Lock()
	changed := hash != w.lastHash
	w.lastHash = hash
	w.mu.Unlock()

	if changed {
		w.onEvent(cfg, nil)
	}
}

func hashConfig(cfg *ClientConfig) (uint64, error) {
	return hashstructure.Hash(cfg, hashstructure.FormatV2, nil)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
