// File: config/watcher.go
// License: Apache-2.0
//
// Hot-reload of the configuration file. Changes are debounced since
// editors and atomic writes produce bursts of fsnotify events.

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is invoked with the previous and the freshly loaded
// configuration after the watched file changes.
type ChangeCallback func(old, updated *Config)

// Watcher watches one configuration file and reloads it on change.
type Watcher struct {
	filename string

	mu        sync.RWMutex
	config    *Config
	callbacks []ChangeCallback

	fsw  *fsnotify.Watcher
	quit chan struct{}
	done chan struct{}
}

// NewWatcher loads the file once and prepares the file watcher.
func NewWatcher(filename string) (*Watcher, error) {
	cfg, err := Load(filename)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		filename: filename,
		config:   cfg,
		fsw:      fsw,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Config returns the current configuration snapshot.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// OnChange registers a reload listener.
func (w *Watcher) OnChange(cb ChangeCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching. Stop releases the watcher.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.filename); err != nil {
		return fmt.Errorf("watch %s: %w", w.filename, err)
	}
	go w.loop()
	return nil
}

// Stop terminates the watch loop and closes the underlying watcher.
func (w *Watcher) Stop() {
	close(w.quit)
	<-w.done
	w.fsw.Close()
}

func (w *Watcher) loop() {
	defer close(w.done)

	var pending <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending = time.After(100 * time.Millisecond)
			}
		case <-pending:
			pending = nil
			w.reload()
		case <-w.fsw.Errors:
			// transient watch errors are ignored; the next event
			// retriggers a reload
		case <-w.quit:
			return
		}
	}
}

func (w *Watcher) reload() {
	updated, err := Load(w.filename)
	if err != nil {
		return
	}
	w.mu.Lock()
	old := w.config
	w.config = updated
	callbacks := make([]ChangeCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb(old, updated)
	}
}
