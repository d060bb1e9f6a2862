package cliconfig

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads the config file when it changes and hands the parsed
// result to an apply callback. Only the callback decides which fields
// take effect at runtime; everything else still requires a restart.
type Watcher struct {
	path     string
	debounce time.Duration
	apply    func(FileConfig)
	logger   zerolog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for the given config file path.
func NewWatcher(path string, apply func(FileConfig), logger zerolog.Logger) *Watcher {
	return &Watcher{
		path:     path,
		debounce: 100 * time.Millisecond,
		apply:    apply,
		logger:   logger,
	}
}

// Start begins watching. A missing file or failed watcher is logged and
// ignored; live reload is a convenience, not a requirement.
func (w *Watcher) Start(ctx context.Context) {
	if w.path == "" || !FileExists(w.path) {
		w.logger.Debug().Str("path", w.path).Msg("config watcher disabled, no file")
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn().Err(err).Msg("config watcher unavailable")
		return
	}
	// Watch the directory, not the file: editors replace files on save
	// and a watch on the old inode goes silent.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		w.logger.Warn().Err(err).Msg("config watcher failed to watch directory")
		_ = watcher.Close()
		return
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.loop(watchCtx, watcher)
	w.logger.Info().Str("path", w.path).Msg("config watcher started")
}

// Stop shuts the watcher down and waits for the loop to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer w.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) debounceReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("config reload failed, keeping current settings")
		return
	}
	w.logger.Info().Str("path", w.path).Msg("config file changed, applying runtime settings")
	w.apply(fc)
}
