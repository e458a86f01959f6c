package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"greenmap/database"
	"greenmap/models"

	"github.com/apex/log"
)

// ThemeStore keeps the light/dark presentation token. Unlike the
// collections it is stored as the bare token, not as JSON.
type ThemeStore struct {
	mu        sync.RWMutex
	theme     string
	snapshots database.SnapshotStore
}

func NewThemeStore(snapshots database.SnapshotStore) *ThemeStore {
	return &ThemeStore{snapshots: snapshots, theme: models.ThemeLight}
}

func (s *ThemeStore) Load(ctx context.Context) {
	data, err := s.snapshots.Read(ctx, database.ThemeKey)
	if err != nil {
		log.WithError(err).Debug("No theme snapshot, using light")
		return
	}
	theme := strings.TrimSpace(string(data))
	if !validTheme(theme) {
		log.Warnf("Ignoring unknown theme %q", theme)
		return
	}
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
}

func (s *ThemeStore) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

func (s *ThemeStore) Set(ctx context.Context, theme string) error {
	if !validTheme(theme) {
		return fmt.Errorf("%w: theme must be %q or %q", models.ErrInvalid, models.ThemeLight, models.ThemeDark)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
	s.write(ctx)
	return nil
}

// Toggle flips between light and dark and returns the new token.
func (s *ThemeStore) Toggle(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.theme == models.ThemeDark {
		s.theme = models.ThemeLight
	} else {
		s.theme = models.ThemeDark
	}
	s.write(ctx)
	return s.theme
}

func (s *ThemeStore) write(ctx context.Context) {
	if err := s.snapshots.Write(ctx, database.ThemeKey, []byte(s.theme)); err != nil {
		log.WithError(err).Error("Failed to save theme")
	}
}

func validTheme(t string) bool {
	return t == models.ThemeLight || t == models.ThemeDark
}
