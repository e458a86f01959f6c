package handlers

import (
	"net/http"

	"greenmap/mapaggr"
	"greenmap/models"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) GetNews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"articles": h.svc.News()})
}

func (h *Handlers) CreateNews(c *gin.Context) {
	var draft models.NewsDraft
	if !bindJSON(c, &draft) {
		return
	}
	a, err := h.svc.AddNews(c.Request.Context(), draft)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handlers) GetTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": h.svc.Theme()})
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func (h *Handlers) SetTheme(c *gin.Context) {
	var req themeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.SetTheme(c.Request.Context(), req.Theme); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": h.svc.Theme()})
}

func (h *Handlers) ToggleTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": h.svc.ToggleTheme(c.Request.Context())})
}

type mapRequest struct {
	ViewPort mapaggr.ViewPort `json:"vp"`
	Center   mapaggr.Point    `json:"center"`
}

// GetMap returns report markers and clusters for the visible area.
func (h *Handlers) GetMap(c *gin.Context) {
	var req mapRequest
	if !bindJSON(c, &req) {
		return
	}
	points := h.svc.Map(req.ViewPort, req.Center)
	c.JSON(http.StatusOK, gin.H{"points": points})
}
