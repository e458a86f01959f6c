package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"greenmap/metrics"
	"greenmap/models"

	"github.com/apex/log"
)

// Analyze asks the AI for insights on the current statistics.
func (s *Service) Analyze(ctx context.Context) (*models.ReportAnalysis, error) {
	summary := s.Summary()
	if summary.TotalReports < MinReportsForAnalysis {
		return nil, fmt.Errorf("%w: have %d reports, need %d", ErrNotEnoughData, summary.TotalReports, MinReportsForAnalysis)
	}

	var out *models.ReportAnalysis
	err := s.observeAI("analysis", func() error {
		var err error
		out, err = s.ai.AnalyzeReports(ctx, summary)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitFeedback accepts a feedback message. Categorization by the AI is
// best effort; its failure leaves Insight empty and is not an error.
func (s *Service) SubmitFeedback(ctx context.Context, feedbackType, message string) (models.Feedback, error) {
	if strings.TrimSpace(message) == "" {
		return models.Feedback{}, fmt.Errorf("%w: please enter your feedback message", models.ErrInvalid)
	}
	if feedbackType == "" {
		feedbackType = "general"
	}

	fb := models.Feedback{
		Type:     feedbackType,
		Message:  message,
		Received: models.FormatTimestamp(s.now()),
	}
	err := s.observeAI("feedback", func() error {
		insight, err := s.ai.AnalyzeFeedback(ctx, feedbackType, message)
		fb.Insight = insight
		return err
	})
	if err != nil {
		fb.Insight = nil
		log.WithError(err).Warn("Feedback analysis failed, submitting without insight")
	}
	log.WithField("type", fb.Type).Info("Feedback received")
	return fb, nil
}

// Chat forwards one EcoBot turn.
func (s *Service) Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: message is required", models.ErrInvalid)
	}
	var reply string
	err := s.observeAI("chat", func() error {
		var err error
		reply, err = s.ai.Chat(ctx, history, message)
		return err
	})
	return reply, err
}

func (s *Service) observeAI(kind string, call func() error) error {
	start := time.Now()
	err := call()
	metrics.AIRequestDurationSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.AIRequestsTotal.WithLabelValues(kind, metrics.Result(err)).Inc()
	if err != nil {
		log.WithError(err).WithField("kind", kind).WithField("provider", s.ai.SourceName()).Error("AI request failed")
		return fmt.Errorf("%w: %v", ErrAI, err)
	}
	return nil
}
