package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"greenmap/database"
	"greenmap/models"

	"github.com/apex/log"
)

// NewsStore holds community news articles, newest first.
type NewsStore struct {
	mu        sync.RWMutex
	articles  []models.NewsArticle
	snapshots database.SnapshotStore
	now       func() time.Time
}

func NewNewsStore(snapshots database.SnapshotStore, now func() time.Time) *NewsStore {
	if now == nil {
		now = time.Now
	}
	return &NewsStore{snapshots: snapshots, now: now}
}

func (s *NewsStore) Load(ctx context.Context) {
	articles, err := s.read(ctx)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			log.Info("No news snapshot found, using seed data")
		} else {
			log.WithError(err).Error("Failed to load news snapshot, using seed data")
		}
		articles = seedNews()
	}
	s.mu.Lock()
	s.articles = articles
	s.mu.Unlock()
}

func (s *NewsStore) read(ctx context.Context) ([]models.NewsArticle, error) {
	data, err := s.snapshots.Read(ctx, database.NewsKey)
	if err != nil {
		return nil, err
	}
	var articles []models.NewsArticle
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("failed to parse news snapshot: %w", err)
	}
	seen := make(map[int64]bool, len(articles))
	for i, a := range articles {
		if strings.TrimSpace(a.Title) == "" {
			return nil, fmt.Errorf("news snapshot record %d has no title", i)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("news snapshot has duplicate id %d", a.ID)
		}
		seen[a.ID] = true
	}
	if articles == nil {
		articles = []models.NewsArticle{}
	}
	return articles, nil
}

func (s *NewsStore) All() []models.NewsArticle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.NewsArticle, len(s.articles))
	copy(out, s.articles)
	return out
}

// Add prepends a new article dated today. The id is the creation time in
// milliseconds, bumped until it is unused.
func (s *NewsStore) Add(ctx context.Context, draft models.NewsDraft) (models.NewsArticle, error) {
	if err := draft.Validate(); err != nil {
		return models.NewsArticle{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	id := now.UnixMilli()
	for s.has(id) {
		id++
	}
	a := models.NewsArticle{
		ID:       id,
		Title:    draft.Title,
		Excerpt:  draft.Excerpt,
		Date:     now.Format(models.NewsDateLayout),
		ImageURL: draft.ImageURL,
	}
	s.articles = append([]models.NewsArticle{a}, s.articles...)
	writeSnapshot(ctx, s.snapshots, database.NewsKey, s.articles)
	return a, nil
}

func (s *NewsStore) has(id int64) bool {
	for _, a := range s.articles {
		if a.ID == id {
			return true
		}
	}
	return false
}
