package main

import (
	"github.com/fsnotify/fsnotify"
)

// watchLayers watches every directory in dirs (non-recursively, matching
// how BBPATH layers organize conf/ and classes/ as flat subdirectories) and
// calls onChange whenever fsnotify reports a write, create, remove or
// rename, grounded on internal/indexing/watcher.go's fsnotify.NewWatcher
// plus event loop. This is a supplementary invalidation path on top of
// (never instead of) the mandatory stat-fingerprint check the indexes
// already perform on every resolve.
func watchLayers(dirs []string, onChange func()) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, d := range dirs {
		if d == "" {
			continue
		}
		_ = w.Add(d)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					onChange()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	stop = func() {
		close(done)
		w.Close()
	}
	return stop, nil
}
