package command

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a command catalogue from disk whenever one of its source
// files changes, so a long-running `run` session can pick up edits to
// custom command scripts without a restart — the one case fixed-at-startup
// catalogue loading doesn't cover, and the reason
// this package depends on fsnotify at all.
type Watcher struct {
	fsw   *fsnotify.Watcher
	paths []string
	done  chan struct{}
}

// WatchFiles starts watching paths and invokes onReload (with the freshly
// parsed Descriptors) every time one of them is written. onReload is
// called from a dedicated goroutine; the caller is responsible for
// synchronizing access to whatever it stores the result in. Call Close to
// stop watching.
func WatchFiles(paths []string, onReload func([]Descriptor, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("command: creating watcher: %w", err)
	}
	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("command: watching %s: %w", p, err)
		}
	}
	w := &Watcher{fsw: fsw, paths: paths, done: make(chan struct{})}
	go w.loop(onReload)
	return w, nil
}

func (w *Watcher) loop(onReload func([]Descriptor, error)) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			descs, err := LoadAll(w.paths)
			onReload(descs, err)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
