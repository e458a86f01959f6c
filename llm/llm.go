package llm

import (
	"context"

	"greenmap/analytics"
	"greenmap/models"
)

// Client abstracts the generative AI provider.
// Implementations must be concurrency-safe if used across goroutines.
type Client interface {
	// AnalyzeReports turns aggregate statistics into a summary, observations,
	// recommendations and a 1-10 positivity score.
	AnalyzeReports(ctx context.Context, summary analytics.Summary) (*models.ReportAnalysis, error)
	// AnalyzeFeedback classifies a feedback message by category and sentiment.
	AnalyzeFeedback(ctx context.Context, feedbackType, message string) (*models.FeedbackAnalysis, error)
	// Chat answers the next user message of an EcoBot conversation.
	Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error)
	// SourceName returns a short provider label (e.g., "Gemini").
	SourceName() string
}
