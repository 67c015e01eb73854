package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
)

// DebounceInterval is how long Watch waits after the last change event before reloading.
const DebounceInterval = 100 * time.Millisecond

// Watch reloads the file at path whenever it changes and calls fn with the result of Load. It blocks until ctx
// is cancelled. The parent directory is watched so editors that replace the file on save are handled.
func Watch(ctx context.Context, path string, fn func(Config, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "create watcher")
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return eris.Wrapf(err, "resolve %s", path)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return eris.Wrapf(err, "watch %s", filepath.Dir(abs))
	}

	debounce := time.NewTimer(DebounceInterval)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(DebounceInterval)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fn(Config{}, eris.Wrap(err, "watch config"))
		case <-debounce.C:
			cfg, err := Load(path)
			fn(cfg, err)
		}
	}
}
