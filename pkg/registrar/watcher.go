package registrar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/harun/llmfunctions/pkg/toolexecutor"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period before a change triggers a new pass
const DefaultDebounce = 200 * time.Millisecond

// ChangeCallback receives the result of a registration pass triggered by a
// filesystem change
type ChangeCallback func(tools []*toolexecutor.ToolWrapper)

// WatcherConfig holds configuration for the manifest watcher
type WatcherConfig struct {
	Registrar *Registrar
	Debounce  time.Duration
	OnChange  ChangeCallback
}

// ManifestWatcher re-runs registration when the manifest or the tool
// scripts change
type ManifestWatcher struct {
	watcher   *fsnotify.Watcher
	registrar *Registrar
	debounce  time.Duration
	onChange  ChangeCallback
	logger    zerolog.Logger

	done     chan struct{}
	timer    *time.Timer
	timerMu  sync.Mutex
	stopOnce sync.Once
	passes   sync.WaitGroup
}

// NewManifestWatcher creates a new manifest watcher
func NewManifestWatcher(config WatcherConfig, logger zerolog.Logger) (*ManifestWatcher, error) {
	if config.Registrar == nil {
		return nil, fmt.Errorf("registrar is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}

	return &ManifestWatcher{
		watcher:   watcher,
		registrar: config.Registrar,
		debounce:  config.Debounce,
		onChange:  config.OnChange,
		logger:    logger.With().Str("component", "manifest-watcher").Logger(),
		done:      make(chan struct{}),
	}, nil
}

// watchedDirs lists the directories whose contents affect registration
func (w *ManifestWatcher) watchedDirs() []string {
	root := w.registrar.FunctionsDir()
	if root == "" {
		return nil
	}

	dirs := []string{root, filepath.Join(root, "tools")}
	if manifest := w.registrar.ManifestPath(); manifest != "" {
		dirs = append(dirs, filepath.Dir(manifest))
	}

	seen := make(map[string]bool, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		dir = filepath.Clean(dir)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		out = append(out, dir)
	}
	return out
}

// Start begins watching. Directories that do not exist are skipped; the
// tools directory is picked up when it is created later.
func (w *ManifestWatcher) Start() error {
	for _, dir := range w.watchedDirs() {
		w.addDir(dir)
	}

	go w.eventLoop()

	w.logger.Info().
		Strs("paths", w.watcher.WatchList()).
		Msg("Manifest watcher started")

	return nil
}

// Stop stops the watcher and waits for an in-flight pass to finish
func (w *ManifestWatcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
	})

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.timerMu.Unlock()

	err := w.watcher.Close()
	w.passes.Wait()
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Info().Msg("Manifest watcher stopped")
	return nil
}

func (w *ManifestWatcher) addDir(dir string) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		w.logger.Debug().Str("path", dir).Msg("Skipping missing directory")
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn().
			Err(err).
			Str("path", dir).
			Msg("Failed to watch path")
	}
}

// eventLoop processes file system events
func (w *ManifestWatcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *ManifestWatcher) handleEvent(event fsnotify.Event) {
	if shouldIgnore(event.Name) {
		return
	}
	if event.Op == fsnotify.Chmod {
		return
	}

	if event.Op&fsnotify.Create == fsnotify.Create {
		for _, dir := range w.watchedDirs() {
			if filepath.Clean(event.Name) == dir {
				w.addDir(dir)
			}
		}
	}

	w.logger.Debug().
		Str("path", event.Name).
		Str("op", event.Op.String()).
		Msg("Change detected")

	w.schedulePass()
}

// schedulePass coalesces bursts of events into a single registration pass
func (w *ManifestWatcher) schedulePass() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.timerMu.Lock()
		w.timer = nil
		select {
		case <-w.done:
			w.timerMu.Unlock()
			return
		default:
		}
		w.passes.Add(1)
		w.timerMu.Unlock()

		defer w.passes.Done()
		w.runPass()
	})
}

func (w *ManifestWatcher) runPass() {
	tools := w.registrar.Tools()

	w.logger.Info().
		Int("tools", len(tools)).
		Msg("Registration pass after change")

	if w.onChange != nil {
		w.onChange(tools)
	}
}

// shouldIgnore filters editor swap files and other hidden files
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if base == "" || base[0] == '.' {
		return true
	}
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx")
}
