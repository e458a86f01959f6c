package handlers

import (
	"errors"
	"net/http"
	"time"

	"greenmap/export"
	"greenmap/models"
	"greenmap/osm"
	"greenmap/service"
	"greenmap/websocket"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
)

// Messages shown to users for failures they can act on.
const (
	MsgNotEnoughData  = "Not enough data for a meaningful analysis. Please add at least 3 reports."
	MsgAnalysisFailed = "Failed to generate analysis. There might be an issue with the AI service or your API key."
	MsgChatFailed     = "Sorry, I'm having trouble connecting right now. Please try again later."
	MsgNotFound       = "Location not found. Please try another search."
	MsgSearchFailed   = "Failed to search. Please check your connection."
	MsgNoData         = "No data available to download for the current filters."
)

// Handlers represents the HTTP handlers
type Handlers struct {
	svc *service.Service
	hub *websocket.Hub
}

// NewHandlers creates new HTTP handlers
func NewHandlers(svc *service.Service, hub *websocket.Hub) *Handlers {
	return &Handlers{svc: svc, hub: hub}
}

// HealthCheck returns the service health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"service":           "greenmap",
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"connected_clients": h.hub.ClientCount(),
	})
}

// Login returns the mock identity.
func (h *Handlers) Login(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": h.svc.Login()})
}

func (h *Handlers) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Profile())
}

// WebSocket upgrader
var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origins are already filtered by the CORS middleware
		return true
	},
}

// ListenReports streams report_created and report_updated events.
func (h *Handlers) ListenReports(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade connection to WebSocket")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	if !h.hub.RegisterClient(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// abortWithError maps service errors to status codes. msg overrides the
// error text for failures whose details should not reach users.
func abortWithError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, models.ErrInvalid):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrNotEnoughData):
		status, msg = http.StatusUnprocessableEntity, MsgNotEnoughData
	case errors.Is(err, service.ErrAI):
		status, msg = http.StatusBadGateway, MsgAnalysisFailed
	case errors.Is(err, osm.ErrNotFound):
		status, msg = http.StatusNotFound, MsgNotFound
	case errors.Is(err, service.ErrGeocode):
		status, msg = http.StatusBadGateway, MsgSearchFailed
	case errors.Is(err, export.ErrNoData):
		status, msg = http.StatusNotFound, MsgNoData
	default:
		log.WithError(err).Error("Unhandled error")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
