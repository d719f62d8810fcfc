package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/dto"
	"github.com/perkforge/loyalty-engine/internal/service"
)

// Handler exposes the event ingest endpoints
type Handler struct {
	ingest *service.IngestService
	log    *zap.Logger
}

// NewHandler creates an API handler
func NewHandler(ingest *service.IngestService, log *zap.Logger) *Handler {
	return &Handler{
		ingest: ingest,
		log:    log,
	}
}

// Register mounts the routes on the router
func (h *Handler) Register(router *gin.Engine) {
	router.GET("/health", h.Health)

	v1 := router.Group("/v1")
	v1.POST("/events", h.TrackEvent)
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.Status(http.StatusOK)
}

// TrackEvent accepts a tracking event and publishes it onto the bus
func (h *Handler) TrackEvent(c *gin.Context) {
	var req dto.TrackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	eventID, err := h.ingest.TrackEvent(c.Request.Context(), &req)
	if err != nil {
		h.log.Warn("Failed to ingest event",
			zap.String("project_id", req.ProjectID),
			zap.String("event", req.Event),
			zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, dto.TrackEventResponse{
		EventID: eventID,
		Status:  "queued",
	})
}
