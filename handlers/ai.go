package handlers

import (
	"errors"
	"net/http"

	"greenmap/models"
	"greenmap/service"

	"github.com/gin-gonic/gin"
)

// Analyze returns AI insights for the current statistics.
func (h *Handlers) Analyze(c *gin.Context) {
	a, err := h.svc.Analyze(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

type feedbackRequest struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (h *Handlers) SubmitFeedback(c *gin.Context) {
	var req feedbackRequest
	if !bindJSON(c, &req) {
		return
	}
	fb, err := h.svc.SubmitFeedback(c.Request.Context(), req.Type, req.Message)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, fb)
}

type chatRequest struct {
	History []models.ChatMessage `json:"history"`
	Message string               `json:"message"`
}

// Chat answers one EcoBot turn.
func (h *Handlers) Chat(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}
	reply, err := h.svc.Chat(c.Request.Context(), req.History, req.Message)
	if errors.Is(err, service.ErrAI) {
		c.JSON(http.StatusBadGateway, gin.H{"error": MsgChatFailed})
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ChatMessage{Sender: "bot", Text: reply})
}
