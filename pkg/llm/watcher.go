package llm

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// CredentialWatcher reloads Credentials when auth.json changes on disk
type CredentialWatcher struct {
	creds    *Credentials
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	debounce time.Duration

	// reloaded is signalled after every reload attempt; used by tests
	reloaded chan struct{}
}

// NewCredentialWatcher watches the directory holding the auth file, since
// editors and the host replace the file rather than writing in place.
func NewCredentialWatcher(creds *Credentials, logger zerolog.Logger) (*CredentialWatcher, error) {
	if creds.AuthFile() == "" {
		return nil, fmt.Errorf("no auth file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(creds.AuthFile())
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &CredentialWatcher{
		creds:    creds,
		watcher:  watcher,
		logger:   logger.With().Str("component", "credentials").Logger(),
		debounce: 100 * time.Millisecond,
		reloaded: make(chan struct{}, 1),
	}, nil
}

// Run processes file events until ctx is done
func (w *CredentialWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	target := filepath.Clean(w.creds.AuthFile())
	var timer *time.Timer
	var fire <-chan time.Time

	w.logger.Debug().Str("path", target).Msg("Credential watcher started")

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.creds.Reload(); err != nil {
				w.logger.Warn().Err(err).Msg("Failed to reload credentials")
			} else {
				w.logger.Info().Msg("Credentials reloaded")
			}
			select {
			case w.reloaded <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}
