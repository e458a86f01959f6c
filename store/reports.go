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
	"greenmap/metrics"
	"greenmap/models"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// ReportStore is the authoritative, insertion-ordered report collection.
// Every mutation is followed by a full snapshot write; a failed write is
// logged and the in-memory state stays authoritative.
type ReportStore struct {
	mu        sync.RWMutex
	reports   []models.Report
	snapshots database.SnapshotStore
	user      models.User
	now       func() time.Time
	newID     func(time.Time) string
}

// Option customizes a ReportStore.
type Option func(*ReportStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ReportStore) { s.now = now }
}

// WithIDGenerator replaces the default time plus random id generator.
func WithIDGenerator(gen func(time.Time) string) Option {
	return func(s *ReportStore) { s.newID = gen }
}

func NewReportStore(snapshots database.SnapshotStore, user models.User, opts ...Option) *ReportStore {
	s := &ReportStore{
		snapshots: snapshots,
		user:      user,
		now:       time.Now,
		newID:     newReportID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newReportID combines the creation time with a random suffix so that
// rapid successive submissions never collide.
func newReportID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%s", models.FormatTimestamp(t), suffix)
}

// Load replaces the collection with the persisted snapshot, falling back
// to the seed collection when there is none or it cannot be parsed.
func (s *ReportStore) Load(ctx context.Context) {
	reports, err := s.read(ctx)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			log.Info("No reports snapshot found, using seed data")
		} else {
			log.WithError(err).Error("Failed to load reports snapshot, using seed data")
		}
		reports = seedReports()
	}

	s.mu.Lock()
	s.reports = reports
	s.mu.Unlock()
	log.Infof("Loaded %d reports", len(reports))
}

func (s *ReportStore) read(ctx context.Context) ([]models.Report, error) {
	data, err := s.snapshots.Read(ctx, database.ReportsKey)
	if err != nil {
		return nil, err
	}
	var reports []models.Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to parse reports snapshot: %w", err)
	}
	seen := make(map[string]bool, len(reports))
	for i, r := range reports {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("reports snapshot record %d: %w", i, err)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("reports snapshot has duplicate id %q", r.ID)
		}
		seen[r.ID] = true
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// All returns a copy of the collection in insertion order.
func (s *ReportStore) All() []models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Report, len(s.reports))
	copy(out, s.reports)
	return out
}

func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

func (s *ReportStore) Get(id string) (models.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.reports[i], true
	}
	return models.Report{}, false
}

// User is the identity new reports are attributed to.
func (s *ReportStore) User() models.User {
	return s.user
}

// Add stamps the draft with a fresh id, the current user and the current
// time, then appends it.
func (s *ReportStore) Add(ctx context.Context, draft models.ReportDraft) (models.Report, error) {
	if err := draft.Validate(); err != nil {
		return models.Report{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := s.newID(now)
	for s.indexOf(id) >= 0 {
		id = s.newID(now)
	}

	r := models.Report{
		ID:           id,
		Type:         draft.Type,
		Latitude:     draft.Latitude,
		Longitude:    draft.Longitude,
		LocationName: draft.LocationName,
		Description:  draft.Description,
		ReportedBy:   s.user.Name,
		Timestamp:    models.FormatTimestamp(now),
	}
	s.reports = append(s.reports, r)
	s.persist(ctx)
	metrics.ReportsCreatedTotal.WithLabelValues(string(r.Type)).Inc()
	return r, nil
}

// Update replaces the record with the same id in place. An unknown id
// leaves the collection untouched and reports false without an error.
// The original timestamp and author are kept.
func (s *ReportStore) Update(ctx context.Context, r models.Report) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(r.ID)
	if i < 0 {
		log.Debugf("Update of unknown report %s ignored", r.ID)
		return false, nil
	}
	r.Timestamp = s.reports[i].Timestamp
	r.ReportedBy = s.reports[i].ReportedBy
	s.reports[i] = r
	s.persist(ctx)
	metrics.ReportsUpdatedTotal.Inc()
	return true, nil
}

// Relocate moves a report to new coordinates, as a marker drag does.
func (s *ReportStore) Relocate(ctx context.Context, id string, lat, lon float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	r := s.reports[i]
	r.Latitude = lat
	r.Longitude = lon
	if err := r.Validate(); err != nil {
		return false, err
	}
	s.reports[i] = r
	s.persist(ctx)
	metrics.ReportsUpdatedTotal.Inc()
	return true, nil
}

func (s *ReportStore) indexOf(id string) int {
	for i := range s.reports {
		if s.reports[i].ID == id {
			return i
		}
	}
	return -1
}

// persist must be called with s.mu held.
func (s *ReportStore) persist(ctx context.Context) {
	writeSnapshot(ctx, s.snapshots, database.ReportsKey, s.reports)
}

func writeSnapshot(ctx context.Context, snapshots database.SnapshotStore, key string, v any) {
	data, err := json.Marshal(v)
	if err == nil {
		err = snapshots.Write(ctx, key, data)
	}
	if err != nil {
		metrics.SnapshotWriteFailuresTotal.WithLabelValues(key).Inc()
		log.WithError(err).WithField("key", key).Error("Failed to save snapshot")
	}
}
