// Package unitconvwatch rebuilds a registry when custom catalog files change.
package unitconvwatch

import (
	"context"
	"log"
	"path/filepath"
	"time"
	"unitconv"

	"github.com/fsnotify/fsnotify"
)

// Debounce is how long the watcher waits for writes to settle before
// reloading.
const Debounce = 100 * time.Millisecond

type Watcher struct {
	base     *unitconv.Registry
	paths    []string
	onChange func(*unitconv.Registry)
	logger   *log.Logger
	fs       *fsnotify.Watcher
}

// New watches paths; each reload builds base plus every catalog and passes
// the result to onChange. A catalog that fails to load keeps the previous
// registry in place.
func New(base *unitconv.Registry, paths []string, onChange func(*unitconv.Registry), logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		base:     base,
		onChange: onChange,
		logger:   logger,
		fs:       fsw,
	}
	dirs := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.paths = append(w.paths, abs)
		dirs[filepath.Dir(abs)] = true
	}
	// editors replace files, so watch the directories
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Build loads every catalog on top of the base registry.
func (w *Watcher) Build() (*unitconv.Registry, error) {
	var extra []*unitconv.Category
	for _, p := range w.paths {
		cats, err := unitconv.LoadCatalogFile(p)
		if err != nil {
			return nil, err
		}
		extra = append(extra, cats...)
	}
	return w.base.With(extra...)
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.watched(event.Name) {
				continue
			}
			timer.Reset(Debounce)

		case <-timer.C:
			reg, err := w.Build()
			if err != nil {
				w.logger.Printf("unitconvwatch: reload: %v", err)
				continue
			}
			w.logger.Printf("unitconvwatch: reloaded %d categories", len(reg.ListCategories()))
			w.onChange(reg)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("unitconvwatch: %v", err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) watched(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	for _, p := range w.paths {
		if p == abs {
			return true
		}
	}
	return false
}
