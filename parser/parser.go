package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"greenmap/models"
)

// ErrInvalidShape is returned when a model response is not the declared JSON object.
var ErrInvalidShape = errors.New("response does not match the expected shape")

// ExtractJSONFromMarkdown extracts JSON from markdown code blocks
func ExtractJSONFromMarkdown(response string) string {
	response = strings.TrimSpace(response)
	marker := "```"

	startIdx := strings.Index(response, marker)
	if startIdx == -1 {
		// No code block found, try to find JSON object directly
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx < startIdx {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	endIdx := strings.Index(response[startIdx+len(marker):], marker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(marker)

	content := response[startIdx+len(marker) : endIdx]

	// Remove the language identifier if present (e.g., "json")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

type rawReportAnalysis struct {
	Summary         *string  `json:"summary"`
	Observations    []string `json:"observations"`
	Recommendations []string `json:"recommendations"`
	Score           *int     `json:"score"`
}

// ParseReportAnalysis decodes and validates a report analysis response.
func ParseReportAnalysis(response string) (*models.ReportAnalysis, error) {
	var raw rawReportAnalysis
	if err := json.Unmarshal([]byte(ExtractJSONFromMarkdown(response)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	if raw.Summary == nil || strings.TrimSpace(*raw.Summary) == "" {
		return nil, fmt.Errorf("%w: summary is required", ErrInvalidShape)
	}
	if raw.Observations == nil {
		return nil, fmt.Errorf("%w: observations is required", ErrInvalidShape)
	}
	if raw.Recommendations == nil {
		return nil, fmt.Errorf("%w: recommendations is required", ErrInvalidShape)
	}
	if raw.Score == nil {
		return nil, fmt.Errorf("%w: score is required", ErrInvalidShape)
	}
	if *raw.Score < 1 || *raw.Score > 10 {
		return nil, fmt.Errorf("%w: score %d must be between 1 and 10", ErrInvalidShape, *raw.Score)
	}
	return &models.ReportAnalysis{
		Summary:         *raw.Summary,
		Observations:    raw.Observations,
		Recommendations: raw.Recommendations,
		Score:           *raw.Score,
	}, nil
}

// ParseFeedbackAnalysis decodes and validates a feedback categorization.
func ParseFeedbackAnalysis(response string) (*models.FeedbackAnalysis, error) {
	var result models.FeedbackAnalysis
	if err := json.Unmarshal([]byte(ExtractJSONFromMarkdown(response)), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	if strings.TrimSpace(result.Category) == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidShape)
	}
	if strings.TrimSpace(result.Sentiment) == "" {
		return nil, fmt.Errorf("%w: sentiment is required", ErrInvalidShape)
	}
	return &result, nil
}
