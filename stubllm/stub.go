package stubllm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"greenmap/analytics"
	"greenmap/models"
)

// Client is a deterministic, no-network AI stub intended for tests and
// local runs without an API key. Its output always has the declared shape.
type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) SourceName() string { return "Stub" }

// AnalyzeReports scores the ratio of tree plantations on a 1 to 10 scale.
func (c *Client) AnalyzeReports(_ context.Context, s analytics.Summary) (*models.ReportAnalysis, error) {
	score := 1 + int(math.Round(9*s.TreePercentage/100))

	trend := "no monthly activity yet"
	if n := len(s.MonthlyData); n > 0 {
		last := s.MonthlyData[n-1]
		trend = fmt.Sprintf("%d reports in %s", last.Count, last.Label)
	}

	return &models.ReportAnalysis{
		Summary: fmt.Sprintf("There are %d reports: %d tree plantations and %d pollution hotspots, with %s.",
			s.TotalReports, s.TreeCount, s.PollutionCount, trend),
		Observations: []string{
			fmt.Sprintf("Tree plantations make up %.1f%% of reports.", s.TreePercentage),
			fmt.Sprintf("Pollution hotspots make up %.1f%% of reports.", s.PollutionPercentage),
			fmt.Sprintf("The busiest month had %d reports.", s.MaxMonthlyCount),
		},
		Recommendations: []string{
			"Organize a community clean-up near the reported hotspots.",
			"Schedule a planting event in areas with few trees.",
			"Encourage residents to keep reporting every month.",
		},
		Score: score,
	}, nil
}

func (c *Client) AnalyzeFeedback(_ context.Context, feedbackType, message string) (*models.FeedbackAnalysis, error) {
	m := strings.ToLower(message)
	out := &models.FeedbackAnalysis{Category: "General Comment", Sentiment: "Neutral"}
	switch {
	case containsAny(m, "bug", "error", "crash", "broken", "doesn't work"):
		out.Category, out.Sentiment = "Bug Report", "Negative"
	case containsAny(m, "please add", "would be nice", "feature", "could you"):
		out.Category = "Feature Request"
	case containsAny(m, "love", "great", "awesome", "thank"):
		out.Category, out.Sentiment = "Praise", "Positive"
	case strings.EqualFold(feedbackType, "bug"):
		out.Category = "Bug Report"
	case strings.EqualFold(feedbackType, "feature"):
		out.Category = "Feature Request"
	}
	return out, nil
}

func (c *Client) Chat(_ context.Context, history []models.ChatMessage, message string) (string, error) {
	// Deterministic per-input so conversations are reproducible.
	sum := sha256.Sum256([]byte(message))
	short := hex.EncodeToString(sum[:4])
	return fmt.Sprintf("EcoBot (stub %s, turn %d): click anywhere on the map to report a tree plantation or a pollution hotspot! 🌳",
		short, len(history)/2+1), nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
