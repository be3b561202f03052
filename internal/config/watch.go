package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch watches configPath for writes and invokes onChange with the
// freshly reloaded Config each time, normalizing "file changed on disk"
// into the same ingestion path as an explicit API push (SPEC_FULL.md
// §5's configuration applier). Reload errors are swallowed: a config
// file mid-write (a partial save) must not tear down the watcher, only
// skip that event.
func Watch(configPath string, onChange func(*Config), stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var debounce *time.Timer
		for {
			select {
			case <-stop:
				if debounce != nil {
					debounce.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(configPath) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(100*time.Millisecond, func() {
					cfg, err := Load(configPath)
					if err != nil {
						return
					}
					onChange(cfg)
				})
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}
