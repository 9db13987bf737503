package watcher

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FileWatcher signals on Changed whenever the watched file is written or
// replaced. The parent directory is watched since saves rename a temp file
// over the target. Pending signals are coalesced.
type FileWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	Changed chan struct{}
	done    chan struct{}
}

func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "bad path %s", path)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}
	fw := &FileWatcher{
		path:    abs,
		watcher: w,
		Changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go fw.run()
	return fw, nil
}

func (fw *FileWatcher) run() {
	for {
		select {
		case e, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != fw.path {
				continue
			}
			if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debugf("data file event: %s", e)
			select {
			case fw.Changed <- struct{}{}:
			default:
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("file watcher error, err: %s", err)
		case <-fw.done:
			return
		}
	}
}

func (fw *FileWatcher) Close() error {
	close(fw.done)
	return fw.watcher.Close()
}
