package models

// ReportAnalysis is the fixed shape the AI service must return for report data.
type ReportAnalysis struct {
	Summary         string   `json:"summary"`
	Observations    []string `json:"observations"`
	Recommendations []string `json:"recommendations"`
	Score           int      `json:"score"`
}

// FeedbackAnalysis categorizes a piece of user feedback.
type FeedbackAnalysis struct {
	Category  string `json:"category"`
	Sentiment string `json:"sentiment"`
}

// ChatMessage is one turn of an EcoBot conversation.
type ChatMessage struct {
	Sender string `json:"sender"` // "user" or "bot"
	Text   string `json:"text"`
}

// Feedback is a submitted feedback message with its optional AI insight.
type Feedback struct {
	Type     string            `json:"type"`
	Message  string            `json:"message"`
	Insight  *FeedbackAnalysis `json:"insight,omitempty"`
	Received string            `json:"received"`
}
