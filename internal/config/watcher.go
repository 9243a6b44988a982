package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the default debounce interval for file watch events.
const DefaultWatchDebounce = 500 * time.Millisecond

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	watcher   *fsnotify.Watcher
	path      string
	debounce  time.Duration
	onReload  func(Config)
	onError   func(error)
	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
}

// Watch starts watching path. After each burst of changes settles for
// debounce, the file is loaded again and passed to onReload; load and watch
// errors go to onError.
func Watch(path string, debounce time.Duration, onReload func(Config), onError func(error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	// Watch the directory so editors that save by rename are still seen.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		watcher:   fw,
		path:      path,
		debounce:  debounce,
		onReload:  onReload,
		onError:   onError,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Stop ends the watch and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.stoppedCh
}

func (w *Watcher) loop() {
	defer close(w.stoppedCh)
	defer w.watcher.Close()

	absPath, _ := filepath.Abs(w.path)
	baseName := filepath.Base(w.path)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			eventAbs, _ := filepath.Abs(event.Name)
			if filepath.Base(event.Name) != baseName && eventAbs != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			timer, fire = nil, nil
			cfg, err := Load(w.path)
			if err != nil {
				w.reportError(err)
				continue
			}
			if w.onReload != nil {
				w.onReload(cfg)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
