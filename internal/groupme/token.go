package groupme

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// TokenSource supplies the access token for each API request.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed token supplied on the command line or via the
// environment.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// FileTokenSource reads the token from a file and can pick up rewrites
// while an export is running. Multi-year exports run for hours under
// the API rate limit, so a rotated token file must take effect without
// restarting the run.
type FileTokenSource struct {
	path string

	mu    sync.RWMutex
	token string
}

func NewFileTokenSource(path string) (*FileTokenSource, error) {
	f := &FileTokenSource{path: path}
	if err := f.reload(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FileTokenSource) Token() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.token
}

func (f *FileTokenSource) reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return nil
	}
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
	return nil
}

// Watch reloads the token whenever the file changes, until ctx is done.
// Events are debounced; editors that replace the file via rename are
// re-added to the watcher.
func (f *FileTokenSource) Watch(done <-chan struct{}) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(f.path); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		debounce := time.NewTimer(0)
		if !debounce.Stop() {
			<-debounce.C
		}
		for {
			select {
			case <-done:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					if err := w.Add(ev.Name); err != nil {
						slog.Error("token watch re-add", "path", ev.Name, "err", err)
					}
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					if !debounce.Stop() {
						select {
						case <-debounce.C:
						default:
						}
					}
					debounce.Reset(250 * time.Millisecond)
				}
			case <-debounce.C:
				if err := f.reload(); err != nil {
					slog.Error("token reload failed", "path", f.path, "err", err)
				} else {
					slog.Info("token reloaded", "path", f.path)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Error("token watch error", "err", err)
			}
		}
	}()
	return nil
}
