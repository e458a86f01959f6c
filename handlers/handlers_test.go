package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"greenmap/analytics"
	"greenmap/database"
	"greenmap/llm"
	"greenmap/models"
	"greenmap/osm"
	"greenmap/service"
	"greenmap/store"
	"greenmap/stubllm"
	"greenmap/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenAI struct{}

func (brokenAI) AnalyzeReports(context.Context, analytics.Summary) (*models.ReportAnalysis, error) {
	return nil, errors.New("API key not valid")
}

func (brokenAI) AnalyzeFeedback(context.Context, string, string) (*models.FeedbackAnalysis, error) {
	return nil, errors.New("quota exceeded")
}

func (brokenAI) Chat(context.Context, []models.ChatMessage, string) (string, error) {
	return "", errors.New("timeout")
}

func (brokenAI) SourceName() string { return "Broken" }

type stubGeocoder struct {
	searchErr error
}

func (stubGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return "Hyde Park, London", nil
}

func (g stubGeocoder) Search(_ context.Context, q string) (osm.Place, error) {
	if g.searchErr != nil {
		return osm.Place{}, g.searchErr
	}
	return osm.Place{Latitude: 51.5073, Longitude: -0.1657, DisplayName: q}, nil
}

func setupRouter(t *testing.T, ai llm.Client, geo service.Geocoder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	mem := database.NewMemoryStore()
	user := models.User{Name: "Alex Green", Email: "alex.green@example.com"}
	svc := service.New(
		store.NewReportStore(mem, user, store.WithClock(clock)),
		store.NewNewsStore(mem, clock),
		store.NewThemeStore(mem),
		ai,
		geo,
		service.WithClock(clock),
	)
	svc.Load(context.Background())
	return NewRouter(NewHandlers(svc, websocket.NewHub()), nil)
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})
	w := doRequest(router, http.MethodGet, "/api/v1/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 0, body["connected_clients"])
}

func TestGetReports(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})

	testCases := []struct {
		name     string
		query    string
		wantCode int
	}{
		{"all", "", http.StatusOK},
		{"trees", "?type=tree", http.StatusOK},
		{"search and sort", "?search=park&sort=name", http.StatusOK},
		{"unknown type", "?type=FLOOD", http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/api/v1/reports"+tc.query, nil)
			assert.Equal(t, tc.wantCode, w.Code)
			if tc.wantCode != http.StatusOK {
				return
			}
			var body struct {
				Reports []models.Report `json:"reports"`
				Count   int             `json:"count"`
			}
			decode(t, w, &body)
			assert.Equal(t, len(body.Reports), body.Count)
			if tc.name == "trees" {
				for _, r := range body.Reports {
					assert.Equal(t, models.TreePlantation, r.Type)
				}
			}
		})
	}
}

func TestGetReport(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})

	w := doRequest(router, http.MethodGet, "/api/v1/reports/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var r models.Report
	decode(t, w, &r)
	assert.Equal(t, "1", r.ID)

	w = doRequest(router, http.MethodGet, "/api/v1/reports/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateReport(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})

	w := doRequest(router, http.MethodPost, "/api/v1/reports", models.ReportDraft{
		Type:         models.PollutionHotspot,
		Latitude:     51.5,
		Longitude:    -0.12,
		LocationName: "Canal Bridge",
		Description:  "Oil slick on the water.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var r models.Report
	decode(t, w, &r)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Alex Green", r.ReportedBy)
	assert.Equal(t, "2024-06-01T12:00:00.000Z", r.Timestamp)

	w = doRequest(router, http.MethodGet, "/api/v1/reports/"+r.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/reports", models.ReportDraft{Type: "FLOOD"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/reports", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateReport(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})

	w := doRequest(router, http.MethodGet, "/api/v1/reports/2", nil)
	var r models.Report
	decode(t, w, &r)
	r.Description = "Cleared by volunteers."

	w = doRequest(router, http.MethodPut, "/api/v1/reports/2", r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Updated bool          `json:"updated"`
		Report  models.Report `json:"report"`
	}
	decode(t, w, &body)
	assert.True(t, body.Updated)
	assert.Equal(t, "Cleared by volunteers.", body.Report.Description)

	w = doRequest(router, http.MethodPut, "/api/v1/reports/3", r)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r.ID = ""
	w = doRequest(router, http.MethodPut, "/api/v1/reports/missing", r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":false}`, w.Body.String())
}

func TestRelocateReport(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})

	w := doRequest(router, http.MethodPatch, "/api/v1/reports/3/location", map[string]float64{"latitude": 40, "longitude": -73.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var r models.Report
	decode(t, w, &r)
	assert.Equal(t, 40.0, r.Latitude)
	assert.Equal(t, -73.5, r.Longitude)

	w = doRequest(router, http.MethodPatch, "/api/v1/reports/3/location", map[string]float64{"latitude": 40})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPatch, "/api/v1/reports/3/location", map[string]float64{"latitude": 95, "longitude": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPatch, "/api/v1/reports/missing/location", map[string]float64{"latitude": 1, "longitude": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportReports(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})

	w := doRequest(router, http.MethodGet, "/api/v1/reports/export.csv?type=POLLUTION", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "greenmap_reports.csv")
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	lines := strings.Split(w.Body.String(), "\n")
	assert.Len(t, lines, 3)

	w = doRequest(router, http.MethodGet, "/api/v1/reports/export.csv?search=no-such-place", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"`+MsgNoData+`"}`, w.Body.String())
}

func TestGetStats(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})

	w := doRequest(router, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var s analytics.Summary
	decode(t, w, &s)
	assert.Equal(t, 6, s.TotalReports)
}

func TestAnalyze(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})
	w := doRequest(router, http.MethodPost, "/api/v1/analysis", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var a models.ReportAnalysis
	decode(t, w, &a)
	assert.NotEmpty(t, a.Summary)
	assert.GreaterOrEqual(t, a.Score, 1)
	assert.LessOrEqual(t, a.Score, 10)

	router = setupRouter(t, brokenAI{}, stubGeocoder{})
	w = doRequest(router, http.MethodPost, "/api/v1/analysis", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"`+MsgAnalysisFailed+`"}`, w.Body.String())
}

func TestSubmitFeedback(t *testing.T) {
	router := setupRouter(t, brokenAI{}, stubGeocoder{})

	w := doRequest(router, http.MethodPost, "/api/v1/feedback", map[string]string{"type": "bug", "message": "The map does not load"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var fb models.Feedback
	decode(t, w, &fb)
	assert.Nil(t, fb.Insight)

	w = doRequest(router, http.MethodPost, "/api/v1/feedback", map[string]string{"type": "general", "message": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})
	req := map[string]interface{}{
		"history": []models.ChatMessage{{Sender: "bot", Text: "Hi, I'm EcoBot."}},
		"message": "How do I plant a tree?",
	}
	w := doRequest(router, http.MethodPost, "/api/v1/chat", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reply models.ChatMessage
	decode(t, w, &reply)
	assert.Equal(t, "bot", reply.Sender)
	assert.NotEmpty(t, reply.Text)

	router = setupRouter(t, brokenAI{}, stubGeocoder{})
	w = doRequest(router, http.MethodPost, "/api/v1/chat", req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"`+MsgChatFailed+`"}`, w.Body.String())
}

func TestGeocode(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})

	w := doRequest(router, http.MethodGet, "/api/v1/geocode/reverse?lat=51.5073&lon=-0.1657", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loc service.Location
	decode(t, w, &loc)
	assert.Equal(t, "Hyde Park, London", loc.LocationName)

	w = doRequest(router, http.MethodGet, "/api/v1/geocode/reverse?lat=north&lon=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, q := range []string{"lat=NaN&lon=0", "lat=0&lon=Inf", "lat=-Inf&lon=0"} {
		w = doRequest(router, http.MethodGet, "/api/v1/geocode/reverse?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Contains(t, w.Body.String(), "error", q)
	}

	w = doRequest(router, http.MethodGet, "/api/v1/geocode/search?q=Hyde+Park", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p osm.Place
	decode(t, w, &p)
	assert.Equal(t, "Hyde Park", p.DisplayName)

	w = doRequest(router, http.MethodGet, "/api/v1/geocode/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeocodeSearchFailures(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"not found", osm.ErrNotFound, http.StatusNotFound, MsgNotFound},
		{"transport", errors.New("connection refused"), http.StatusBadGateway, MsgSearchFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := setupRouter(t, stubllm.NewClient(), stubGeocoder{searchErr: tc.err})
			w := doRequest(router, http.MethodGet, "/api/v1/geocode/search?q=Atlantis", nil)
			assert.Equal(t, tc.wantCode, w.Code)
			assert.JSONEq(t, `{"error":"`+tc.wantMsg+`"}`, w.Body.String())
		})
	}
}

func TestNews(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})

	w := doRequest(router, http.MethodPost, "/api/v1/news", models.NewsDraft{Title: "River clean-up", Excerpt: "Two tonnes removed.", ImageURL: "https://example.com/r.png"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(router, http.MethodGet, "/api/v1/news", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Articles []models.NewsArticle `json:"articles"`
	}
	decode(t, w, &body)
	require.NotEmpty(t, body.Articles)
	assert.Equal(t, "River clean-up", body.Articles[0].Title)

	w = doRequest(router, http.MethodPost, "/api/v1/news", models.NewsDraft{Title: "No body"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTheme(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})

	w := doRequest(router, http.MethodGet, "/api/v1/theme", nil)
	assert.JSONEq(t, `{"theme":"light"}`, w.Body.String())

	w = doRequest(router, http.MethodPost, "/api/v1/theme/toggle", nil)
	assert.JSONEq(t, `{"theme":"dark"}`, w.Body.String())

	w = doRequest(router, http.MethodPut, "/api/v1/theme", map[string]string{"theme": "light"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"theme":"light"}`, w.Body.String())

	w = doRequest(router, http.MethodPut, "/api/v1/theme", map[string]string{"theme": "sepia"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileAndLogin(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})

	w := doRequest(router, http.MethodPost, "/api/v1/login", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alex.green@example.com")

	w = doRequest(router, http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p analytics.Profile
	decode(t, w, &p)
	assert.Equal(t, 2, p.TotalReports)
	assert.LessOrEqual(t, len(p.RecentActivity), 3)
}

func TestGetMap(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})

	req := map[string]interface{}{
		"vp":     map[string]float64{"latMin": -90, "lonMin": -180, "latMax": 90, "lonMax": 180},
		"center": map[string]float64{"lat": 0, "lon": 0},
	}
	w := doRequest(router, http.MethodPost, "/api/v1/map", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Points []struct {
			Count int64 `json:"count"`
		} `json:"points"`
	}
	decode(t, w, &body)
	var total int64
	for _, p := range body.Points {
		total += p.Count
	}
	assert.EqualValues(t, 6, total)
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t, stubllm.NewClient(), stubGeocoder{})
	w := doRequest(router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
