package tour

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of events editors produce on save.
const reloadDebounce = 250 * time.Millisecond

// FileSource reads a JSON or YAML stop file from disk.
type FileSource struct {
	Path string
}

// Name implements StopDataSource.
func (s *FileSource) Name() string { return "file" }

// Load implements StopDataSource.
func (s *FileSource) Load(ctx context.Context) ([]Stop, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapSource(s.Name(), err)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, wrapSource(s.Name(), err)
	}
	stops, err := Decode(data, FormatFromPath(s.Path))
	if err != nil {
		return nil, wrapSource(s.Name(), fmt.Errorf("%s: %w", s.Path, err))
	}
	return stops, nil
}

// Watch reloads the file whenever it changes and reports each result to onChange.
// It watches the parent directory so that atomic rename-on-save is seen. Watch
// blocks until ctx is done.
func (s *FileSource) Watch(ctx context.Context, onChange func([]Stop, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return wrapSource(s.Name(), err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(s.Path)
	if err != nil {
		return wrapSource(s.Name(), err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return wrapSource(s.Name(), err)
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounce = time.After(reloadDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onChange(nil, wrapSource(s.Name(), err))
		case <-debounce:
			debounce = nil
			onChange(s.Load(ctx))
		}
	}
}
