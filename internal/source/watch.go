package source

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	appLog "upnext/internal/log"
)

const watchDebounce = 100 * time.Millisecond

// FileWatcher watches local source files (a contacts .vcf, for instance)
// and invokes onChange once per burst of write events. Remote sources have
// no change signal and rely on the periodic re-poll instead.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	onChange func(path string)

	mu    sync.Mutex
	files map[string]struct{}
	done  chan struct{}
}

// NewFileWatcher starts a watcher goroutine. Close releases it.
func NewFileWatcher(onChange func(path string)) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:  w,
		onChange: onChange,
		files:    make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	go fw.run()
	return fw, nil
}

// Add registers a file path for watching. Adding a path twice is a no-op.
func (fw *FileWatcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if _, ok := fw.files[abs]; ok {
		return nil
	}
	if err := fw.watcher.Add(abs); err != nil {
		return err
	}
	fw.files[abs] = struct{}{}
	return nil
}

func (fw *FileWatcher) run() {
	pending := make(map[string]*time.Timer)

	for {
		select {
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Editors and sync tools emit bursts of writes; collapse
			// them into one notification per file.
			name := ev.Name
			if t, ok := pending[name]; ok {
				t.Stop()
			}
			pending[name] = time.AfterFunc(watchDebounce, func() {
				fw.mu.Lock()
				_, watching := fw.files[name]
				fw.mu.Unlock()
				if watching && fw.onChange != nil {
					fw.onChange(name)
				}
			})

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			appLog.Warn("file watch error", "err", err)

		case <-fw.done:
			return
		}
	}
}

// Close stops watching. Pending debounce timers may still fire once.
func (fw *FileWatcher) Close() error {
	close(fw.done)
	return fw.watcher.Close()
}
