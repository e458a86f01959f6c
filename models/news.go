package models

import (
	"fmt"
	"strings"
)

// NewsDateLayout is the calendar date layout of news articles.
const NewsDateLayout = "2006-01-02"

// NewsArticle is a community news entry.
type NewsArticle struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Date     string `json:"date"`
	ImageURL string `json:"imageUrl"`
}

// NewsDraft is what a user submits when adding an article.
type NewsDraft struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	ImageURL string `json:"imageUrl"`
}

func (d NewsDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Excerpt) == "" || strings.TrimSpace(d.ImageURL) == "" {
		return fmt.Errorf("%w: title, excerpt and imageUrl are required", ErrInvalid)
	}
	return nil
}
