package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	hberrors "github.com/seiforesti/searchhub/internal/errors"
)

// Duration wraps time.Duration with YAML string support ("500ms", "2s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// registryFile is the on-disk shape of the registry.
type registryFile struct {
	Version int                `yaml:"version"`
	Sources []SourceDescriptor `yaml:"sources"`
}

// LoadFile reads a registry YAML file and builds a Registry from it.
func LoadFile(path string) (*Registry, error) {
	sources, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return New(sources)
}

func readFile(path string) ([]SourceDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, hberrors.New(hberrors.ErrCodeRegistryNotFound,
				fmt.Sprintf("registry file %s not found", path), err)
		}
		return nil, hberrors.Wrap(hberrors.ErrCodeRegistryInvalid, err)
	}

	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, hberrors.New(hberrors.ErrCodeRegistryInvalid,
			fmt.Sprintf("parse registry %s: %v", path, err), err)
	}
	if len(f.Sources) == 0 {
		return nil, hberrors.New(hberrors.ErrCodeRegistryInvalid,
			fmt.Sprintf("registry %s declares no sources", path), nil)
	}
	return f.Sources, nil
}

// Watch reloads the registry whenever the file changes. This is the
// administrative mutation path; request-time readers always see either
// the old snapshot or the new one, never a partial set.
//
// Watch blocks until ctx-style shutdown via the returned stop function.
// A reload that fails validation keeps the previous snapshot.
func Watch(r *Registry, path string) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create registry watcher: %w", err)
	}

	// Watch the directory: editors replace files, which drops watches
	// on the file itself.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	done := make(chan struct{})
	go func() {
		base := filepath.Base(path)
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				sources, err := readFile(path)
				if err != nil {
					slog.Warn("registry reload failed, keeping previous snapshot",
						slog.String("path", path),
						slog.String("error", err.Error()))
					continue
				}
				if err := r.Replace(sources); err != nil {
					slog.Warn("registry reload rejected",
						slog.String("path", path),
						slog.String("error", err.Error()))
					continue
				}
				slog.Info("registry reloaded",
					slog.String("path", path),
					slog.Int("sources", len(sources)))

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("registry watcher error", slog.String("error", err.Error()))
			}
		}
	}()

	return func() {
		close(done)
		_ = watcher.Close()
	}, nil
}
