package config

import (
	"fmt"
	"log"
	"os"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// InvalidError reports a config document that failed to parse.
type InvalidError struct {
	Path string
	Err  error
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *InvalidError) Unwrap() error { return e.Err }

// FileSource loads a device list from a local YAML file and keeps a
// Store in sync with it via an fsnotify watch, so local-mode operation
// picks up edits without a restart.
type FileSource struct {
	path    string
	store   *Store
	watcher *fsnotify.Watcher
}

// NewFileSource reads path once into store, then starts watching it
// for further writes.
func NewFileSource(path string, store *Store) (*FileSource, error) {
	fs := &FileSource{path: path, store: store}
	if err := fs.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: starting watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watching %s: %w", path, err)
	}
	fs.watcher = watcher

	go fs.watch()
	return fs, nil
}

func (fs *FileSource) reload() error {
	content, err := os.ReadFile(fs.path)
	if err != nil {
		return &InvalidError{Path: fs.path, Err: err}
	}

	var devices []Device
	if err := yaml.Unmarshal(content, &devices); err != nil {
		return &InvalidError{Path: fs.path, Err: err}
	}
	if len(devices) == 0 {
		devices = []Device{defaultDevice()}
	}

	fs.store.Replace(devices)
	return nil
}

func (fs *FileSource) watch() {
	for {
		select {
		case event, ok := <-fs.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := fs.reload(); err != nil {
				log.Printf("config: reload %s failed: %v", fs.path, err)
			}
		case err, ok := <-fs.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config: watcher error: %v", err)
		}
	}
}

// Close stops the underlying file watch.
func (fs *FileSource) Close() error {
	if fs.watcher == nil {
		return nil
	}
	return fs.watcher.Close()
}
