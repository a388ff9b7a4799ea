package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/githubnext/wfcheck/pkg/console"
	"github.com/githubnext/wfcheck/pkg/fileutil"
	"github.com/githubnext/wfcheck/pkg/logger"
)

// DefaultDebounceDelay is how long the watcher waits for further changes
// before re-running validation.
const DefaultDebounceDelay = 200 * time.Millisecond

// Watcher reports changes to configuration files below watched directories.
type Watcher struct {
	fsWatcher     *fsnotify.Watcher
	logger        *slog.Logger
	debounceDelay time.Duration
	onChange      func(path string)

	// mu protects pending
	mu      sync.Mutex
	pending *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Logger defaults to the cli:watch debug logger.
	Logger *slog.Logger
	// DebounceDelay defaults to DefaultDebounceDelay.
	DebounceDelay time.Duration
	// OnChange is called once per burst of changes with the last changed path.
	OnChange func(path string)
}

// NewWatcher creates a watcher and starts processing events.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change handler is required")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewSlogLogger("cli:watch")
	}
	delay := cfg.DebounceDelay
	if delay == 0 {
		delay = DefaultDebounceDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		fsWatcher:     fsWatcher,
		logger:        log,
		debounceDelay: delay,
		onChange:      cfg.OnChange,
		ctx:           ctx,
		cancel:        cancel,
	}

	w.wg.Add(1)
	go w.processEvents()
	return w, nil
}

// Watch adds directories to the watch list.
func (w *Watcher) Watch(dirs ...string) error {
	for _, dir := range dirs {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", dir, err)
		}
		if err := w.fsWatcher.Add(absDir); err != nil {
			return fmt.Errorf("failed to watch path %s: %w", absDir, err)
		}
		w.logger.Debug("watching directory", "path", absDir)
	}
	return nil
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if isConfigFile(event.Name) {
				w.schedule(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)

		case <-w.ctx.Done():
			return
		}
	}
}

// schedule restarts the debounce timer for a changed file.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.Stop()
	}
	w.logger.Info("configuration file changed", "file", path)
	w.pending = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		w.pending = nil
		w.mu.Unlock()
		if w.ctx.Err() == nil {
			w.onChange(path)
		}
	})
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.mu.Unlock()

	w.wg.Wait()
	return w.fsWatcher.Close()
}

func isConfigFile(path string) bool {
	ok, _ := doublestar.Match(fileutil.ConfigFilePattern, filepath.ToSlash(filepath.Base(path)))
	return ok
}

// watchDirs returns the directories holding the project configuration and
// the validated files.
func watchDirs(config ValidateConfig, files []string) []string {
	var dirs []string
	switch {
	case config.ProjectPath != "":
		dirs = append(dirs, filepath.Dir(config.ProjectPath))
	case config.Dir != "":
		dirs = append(dirs, config.Dir)
	default:
		dirs = append(dirs, ".")
	}
	for _, f := range files {
		dirs = append(dirs, filepath.Dir(f))
	}
	for i, d := range dirs {
		dirs[i] = filepath.Clean(d)
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

// WatchAndValidate validates once and then again after every change to a
// configuration file, until ctx is cancelled.
func WatchAndValidate(ctx context.Context, config ValidateConfig) error {
	config = config.withDefaultWriters()
	run := func() {
		if _, err := ValidateWorkflows(config); err != nil {
			fmt.Fprintln(config.Stderr, FormatValidationError(err))
		}
	}

	_, files, err := prepareValidation(config)
	if err != nil {
		return err
	}
	run()

	changes := make(chan string, 1)
	w, err := NewWatcher(WatcherConfig{
		OnChange: func(path string) {
			select {
			case changes <- path:
			default:
			}
		},
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(watchDirs(config, files)...); err != nil {
		return err
	}
	fmt.Fprintln(config.Stderr, console.FormatInfoMessage("Watching for changes. Press Ctrl+C to stop."))

	for {
		select {
		case path := <-changes:
			fmt.Fprintln(config.Stderr, console.FormatInfoMessage(fmt.Sprintf("%s changed, validating", path)))
			run()
		case <-ctx.Done():
			return nil
		}
	}
}
