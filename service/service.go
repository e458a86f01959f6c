package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"greenmap/analytics"
	"greenmap/export"
	"greenmap/listing"
	"greenmap/llm"
	"greenmap/mapaggr"
	"greenmap/models"
	"greenmap/osm"
	"greenmap/store"
	"greenmap/websocket"

	"github.com/apex/log"
)

// MinReportsForAnalysis is the smallest collection worth sending to the AI.
const MinReportsForAnalysis = 3

var (
	// ErrNotEnoughData is returned by Analyze for collections smaller than MinReportsForAnalysis.
	ErrNotEnoughData = errors.New("not enough data for a meaningful analysis")
	// ErrAI wraps every failure of the generative AI service.
	ErrAI = errors.New("ai service failed")
	// ErrGeocode wraps transport failures of the geocoder.
	ErrGeocode = errors.New("geocoding failed")
	// ErrNotFound is returned for unknown report ids.
	ErrNotFound = errors.New("report not found")
)

// Geocoder resolves coordinates to names and names to coordinates.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
	Search(ctx context.Context, query string) (osm.Place, error)
}

// Broadcaster pushes live updates to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, data interface{})
}

// Publisher sends report events to a message broker.
type Publisher interface {
	PublishWithRoutingKey(routingKey string, message interface{}) error
}

// Service wires the stores to the derived views and the outbound capabilities.
type Service struct {
	reports  *store.ReportStore
	news     *store.NewsStore
	theme    *store.ThemeStore
	ai       llm.Client
	geocoder Geocoder

	hub       Broadcaster
	publisher Publisher
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithBroadcaster enables live updates.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) { s.hub = b }
}

// WithPublisher enables broker events.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(reports *store.ReportStore, news *store.NewsStore, theme *store.ThemeStore, ai llm.Client, geocoder Geocoder, opts ...Option) *Service {
	s := &Service{
		reports:  reports,
		news:     news,
		theme:    theme,
		ai:       ai,
		geocoder: geocoder,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores every store from its snapshot.
func (s *Service) Load(ctx context.Context) {
	s.reports.Load(ctx)
	s.news.Load(ctx)
	s.theme.Load(ctx)
}

// ReportEvent is what subscribers and the broker receive on every change.
type ReportEvent struct {
	Event     string        `json:"event"`
	Report    models.Report `json:"report"`
	Timestamp time.Time     `json:"timestamp"`
}

func (s *Service) AddReport(ctx context.Context, draft models.ReportDraft) (models.Report, error) {
	r, err := s.reports.Add(ctx, draft)
	if err != nil {
		return models.Report{}, err
	}
	log.WithField("id", r.ID).WithField("type", r.Type).Info("Report created")
	s.notify(websocket.ReportCreated, r)
	return r, nil
}

// UpdateReport replaces a report. It returns false, without an error, when
// no report has the given id.
func (s *Service) UpdateReport(ctx context.Context, r models.Report) (bool, error) {
	ok, err := s.reports.Update(ctx, r)
	if err != nil || !ok {
		return ok, err
	}
	updated, _ := s.reports.Get(r.ID)
	s.notify(websocket.ReportUpdated, updated)
	return true, nil
}

func (s *Service) RelocateReport(ctx context.Context, id string, lat, lon float64) (models.Report, error) {
	ok, err := s.reports.Relocate(ctx, id, lat, lon)
	if err != nil {
		return models.Report{}, err
	}
	if !ok {
		return models.Report{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r, _ := s.reports.Get(id)
	s.notify(websocket.ReportUpdated, r)
	return r, nil
}

func (s *Service) notify(event string, r models.Report) {
	if s.hub != nil {
		s.hub.Broadcast(event, r)
	}
	if s.publisher != nil {
		msg := ReportEvent{Event: event, Report: r, Timestamp: s.now().UTC()}
		if err := s.publisher.PublishWithRoutingKey(routingKey(event), msg); err != nil {
			log.WithError(err).WithField("id", r.ID).Warn("Failed to publish report event")
		}
	}
}

// routingKey maps report_created to report.created.
func routingKey(event string) string {
	return strings.Replace(event, "_", ".", 1)
}

func (s *Service) Report(id string) (models.Report, error) {
	r, ok := s.reports.Get(id)
	if !ok {
		return models.Report{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, nil
}

// Reports returns the filtered and sorted view.
func (s *Service) Reports(q listing.Query) []models.Report {
	return listing.Apply(s.reports.All(), q)
}

// ExportCSV writes the filtered and sorted view as CSV.
func (s *Service) ExportCSV(w io.Writer, q listing.Query) error {
	return export.WriteCSV(w, s.Reports(q))
}

func (s *Service) Summary() analytics.Summary {
	return analytics.Summarize(s.reports.All())
}

// Map clusters the reports inside the viewport.
func (s *Service) Map(vp mapaggr.ViewPort, center mapaggr.Point) []mapaggr.MapPoint {
	return mapaggr.Cluster(s.reports.All(), vp, center)
}

func (s *Service) Profile() analytics.Profile {
	return analytics.UserProfile(s.reports.All(), s.reports.User())
}

// Login returns the mock identity; no credentials are checked.
func (s *Service) Login() models.User {
	return s.reports.User()
}

func (s *Service) News() []models.NewsArticle {
	return s.news.All()
}

func (s *Service) AddNews(ctx context.Context, draft models.NewsDraft) (models.NewsArticle, error) {
	return s.news.Add(ctx, draft)
}

func (s *Service) Theme() string {
	return s.theme.Get()
}

func (s *Service) SetTheme(ctx context.Context, theme string) error {
	return s.theme.Set(ctx, theme)
}

func (s *Service) ToggleTheme(ctx context.Context) string {
	return s.theme.Toggle(ctx)
}
