package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/types"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads template override files into a Composer when they change on disk
type Watcher struct {
	mu sync.Mutex

	composer *Composer
	files    map[types.Operation]string

	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}
	done       chan struct{}

	logger  *errors.Logger
	running bool
}

// NewWatcher creates a watcher for the given operation → file mapping
func NewWatcher(composer *Composer, files map[types.Operation]string, debounceDelay time.Duration, logger *errors.Logger) *Watcher {
	if debounceDelay == 0 {
		debounceDelay = 500 * time.Millisecond
	}

	abs := make(map[types.Operation]string, len(files))
	for op, file := range files {
		if path, err := filepath.Abs(file); err == nil {
			file = path
		}
		abs[op] = file
	}

	return &Watcher{
		composer:      composer,
		files:         abs,
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		done:          make(chan struct{}),
		logger:        logger,
	}
}

// Start begins watching. Each file's directory is watched too so editors that
// replace files atomically are picked up.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("prompt watcher is already running")
	}
	if len(w.files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsWatcher = watcher

	dirs := make(map[string]struct{})
	for _, file := range w.files {
		if stat, err := os.Stat(file); err == nil {
			w.lastModTime[file] = stat.ModTime()
		}
		dirs[filepath.Dir(file)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	w.running = true
	go w.watchLoop()

	w.logger.Info("Prompt template watcher started",
		"templates", len(w.files),
		"debounce_delay", w.debounceDelay)
	return nil
}

// Stop stops the watcher and waits for its loop to exit
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()

	err := w.fsWatcher.Close()
	<-w.done
	w.logger.Info("Prompt template watcher stopped")
	return err
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.isWatched(event) {
				w.scheduleReload()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "Prompt watcher error")

		case <-w.reloadChan:
			w.reloadChanged()

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) isWatched(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	for _, file := range w.files {
		if name == file {
			return true
		}
	}
	return false
}

// scheduleReload coalesces bursts of events into one reload
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
		}
	})
}

// reloadChanged installs every changed file. A file that fails to read or parse
// leaves the previous template active.
func (w *Watcher) reloadChanged() {
	for op, file := range w.files {
		stat, err := os.Stat(file)
		if err != nil {
			continue
		}
		if last, seen := w.lastModTime[file]; seen && !stat.ModTime().After(last) {
			continue
		}
		w.lastModTime[file] = stat.ModTime()

		content, err := config.ReadPromptFile(file)
		if err != nil {
			w.logger.LogError(err, "Failed to read prompt template", "operation", op, "file", file)
			continue
		}
		if err := w.composer.SetTemplate(op, content); err != nil {
			w.logger.LogError(err, "Keeping previous prompt template", "operation", op, "file", file)
			continue
		}
		w.logger.Info("Prompt template reloaded", "operation", op, "file", file, "characters", len(content))
	}
}
