package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kazka/kazka-bot/internal/dialog"
	"github.com/kazka/kazka-bot/internal/session"
)

// EventHandler processes one inbound conversation event, emitting outbound
// intents through the sender.
type EventHandler interface {
	Handle(ctx context.Context, ev dialog.Event, out dialog.Sender) error
}

// Handlers provides HTTP handlers for the transport adapter: the adapter
// posts inbound events and receives the emitted reply intents in the
// response body.
type Handlers struct {
	controller EventHandler
	logger     *zap.Logger
}

// NewHandlers creates new event handlers.
func NewHandlers(controller EventHandler, logger *zap.Logger) (*Handlers, error) {
	if controller == nil {
		return nil, fmt.Errorf("controller cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		controller: controller,
		logger:     logger,
	}, nil
}

// RegisterRoutes registers the event routes.
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/events", h.PostEvent)
}

// EventRequest is one inbound event posted by the transport adapter.
type EventRequest struct {
	ChatID string `json:"chat_id" binding:"required"`
	Kind   string `json:"kind" binding:"required"`
	Text   string `json:"text"`
	Lang   string `json:"lang"`
}

// ReplyPayload is one outbound intent. Media is base64 in the JSON encoding.
type ReplyPayload struct {
	Kind     string `json:"kind"`
	Text     string `json:"text,omitempty"`
	Media    []byte `json:"media,omitempty"`
	MIME     string `json:"mime,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// EventResponse carries the intents emitted while handling one event, in
// send order.
type EventResponse struct {
	RequestID string         `json:"request_id"`
	Replies   []ReplyPayload `json:"replies"`
}

// replyCollector buffers outbound intents for the HTTP response.
type replyCollector struct {
	replies []dialog.Reply
}

func (c *replyCollector) Send(ctx context.Context, reply dialog.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.replies = append(c.replies, reply)
	return nil
}

// PostEvent handles POST /v1/events.
func (h *Handlers) PostEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestID := uuid.New().String()
	ev := dialog.Event{
		ChatID: req.ChatID,
		Kind:   dialog.EventKind(req.Kind),
		Text:   req.Text,
		Lang:   session.Language(req.Lang),
	}

	out := &replyCollector{}
	if err := h.controller.Handle(c.Request.Context(), ev, out); err != nil {
		h.logger.Error("event rejected",
			zap.String("request_id", requestID),
			zap.String("chat_id", req.ChatID),
			zap.String("kind", req.Kind),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	replies := make([]ReplyPayload, 0, len(out.replies))
	for _, r := range out.replies {
		replies = append(replies, ReplyPayload{
			Kind:     string(r.Kind),
			Text:     r.Text,
			Media:    r.Media,
			MIME:     r.MIME,
			FileName: r.FileName,
		})
	}

	c.JSON(http.StatusOK, EventResponse{
		RequestID: requestID,
		Replies:   replies,
	})
}

// HealthCheck handles GET /health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
