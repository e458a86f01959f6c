package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"greenmap/analytics"
	"greenmap/models"
	"greenmap/parser"
)

const (
	// BaseURL is the public Generative Language API endpoint.
	BaseURL = "https://generativelanguage.googleapis.com"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.5-flash"
)

const ecoBotInstruction = "You are EcoBot, a friendly and knowledgeable assistant for the GreenMap application. " +
	"Your goal is to help users understand and use the app effectively. You can answer questions about how to report " +
	"tree plantations or pollution, explain the data analysis page, and provide general information about environmental " +
	"conservation. Keep your responses concise, helpful, and encouraging. Use emojis where appropriate to maintain a friendly tone! 🌳🌍💚"

const analysisPrompt = `
Analyze the following environmental report data from the GreenMap application and provide insights.
The data includes %d total reports, with %d tree plantations and %d pollution hotspots.
The trend of reports over the last few months is as follows (value is number of reports): %s.

Based on this data, your task is to generate a concise analysis.
Your response MUST be a valid JSON object that strictly adheres to the following schema:
{
  "summary": "A brief, insightful summary of the data in about 2-3 sentences. Mention the overall trend and key takeaway.",
  "observations": ["An array of exactly 3 key observations from the data as strings. Each observation should be a complete sentence."],
  "recommendations": ["An array of exactly 3 actionable recommendations based on the observations, as strings. Each recommendation should be a complete sentence."],
  "score": "A positivity score from 1 (very negative environmental impact) to 10 (very positive environmental impact), as an integer. Base this on the ratio of tree plantations to pollution reports and the overall reporting trend."
}
`

const feedbackPrompt = `
Analyze the following user feedback for the GreenMap application.
Classify the feedback into one of these categories: "Bug Report", "Feature Request", "General Comment", or "Praise".
Also, determine the sentiment of the feedback: "Positive", "Negative", or "Neutral".
The user selected this initial type: %q.
Feedback message: %q
Return the result as a valid JSON object only.
`

// schema is the subset of the OpenAPI schema object accepted as responseSchema.
type schema struct {
	Type       string             `json:"type"`
	Properties map[string]*schema `json:"properties,omitempty"`
	Items      *schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

var reportAnalysisSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"summary":         {Type: "STRING"},
		"observations":    {Type: "ARRAY", Items: &schema{Type: "STRING"}},
		"recommendations": {Type: "ARRAY", Items: &schema{Type: "STRING"}},
		"score":           {Type: "INTEGER"},
	},
	Required: []string{"summary", "observations", "recommendations", "score"},
}

var feedbackAnalysisSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"category":  {Type: "STRING"},
		"sentiment": {Type: "STRING"},
	},
	Required: []string{"category", "sentiment"},
}

type part struct {
	Text string `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	Contents          []content         `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL replaces the API host, for tests and proxies.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(apiKey, model string, opts ...Option) *Client {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: BaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SourceName() string {
	return "Gemini"
}

type monthTrend struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

func (c *Client) AnalyzeReports(ctx context.Context, summary analytics.Summary) (*models.ReportAnalysis, error) {
	trend := make([]monthTrend, 0, len(summary.MonthlyData))
	for _, b := range summary.MonthlyData {
		trend = append(trend, monthTrend{Month: b.Label, Count: b.Count})
	}
	trendJSON, err := json.Marshal(trend)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trend: %w", err)
	}

	prompt := fmt.Sprintf(analysisPrompt, summary.TotalReports, summary.TreeCount, summary.PollutionCount, trendJSON)
	text, err := c.generateContent(ctx, jsonRequest(prompt, reportAnalysisSchema))
	if err != nil {
		return nil, err
	}
	return parser.ParseReportAnalysis(text)
}

func (c *Client) AnalyzeFeedback(ctx context.Context, feedbackType, message string) (*models.FeedbackAnalysis, error) {
	prompt := fmt.Sprintf(feedbackPrompt, feedbackType, message)
	text, err := c.generateContent(ctx, jsonRequest(prompt, feedbackAnalysisSchema))
	if err != nil {
		return nil, err
	}
	return parser.ParseFeedbackAnalysis(text)
}

// Chat replays the conversation so far and returns the model's reply.
func (c *Client) Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	contents := make([]content, 0, len(history)+1)
	for _, m := range history {
		role := "user"
		if m.Sender == "bot" {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Text}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: message}}})

	return c.generateContent(ctx, geminiRequest{
		SystemInstruction: &content{Parts: []part{{Text: ecoBotInstruction}}},
		Contents:          contents,
	})
}

func jsonRequest(prompt string, s *schema) geminiRequest {
	return geminiRequest{
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   s,
		},
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: prompt}},
			},
		},
	}
}

func (c *Client) generateContent(ctx context.Context, body geminiRequest) (string, error) {
	// try v1beta first, then v1
	endpoints := []string{
		fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model),
		fmt.Sprintf("%s/v1/models/%s:generateContent", c.baseURL, c.model),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for _, ep := range endpoints {
		text, err := c.post(ctx, ep, data)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (c *Client) post(ctx context.Context, endpoint string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key stays out of the URL, which transport errors echo verbatim.
	req.Header.Set("x-goog-api-key", c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}
	var gr geminiResponse
	if err := json.Unmarshal(bodyBytes, &gr); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	// find first text part
	for _, p := range gr.Candidates[0].Content.Parts {
		if p.Text != "" {
			return p.Text, nil
		}
	}
	return "", fmt.Errorf("no text part in response")
}
