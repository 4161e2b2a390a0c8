package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kmf-ai/server/internal/agent"
	"github.com/kmf-ai/server/internal/errx"
	"github.com/kmf-ai/server/internal/model"
	"github.com/kmf-ai/server/internal/stream"
)

// Runner runs one chat turn, emitting its events as it goes.
type Runner interface {
	Run(ctx context.Context, history []model.Message, emit agent.Emitter) (string, error)
}

type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"required"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required,min=1,dive"`
}

type ChatHandler struct {
	runner Runner
	logger zerolog.Logger
}

func NewChatHandler(runner Runner, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{runner: runner, logger: logger}
}

// Handle validates the request synchronously, then streams the run as
// server-sent events. Run failures are reported in-stream by the runner.
func (h *ChatHandler) Handle(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errx.BadRequest("invalid chat request: "+err.Error()))
		return
	}

	history := make([]model.Message, 0, len(req.Messages))
	for i, m := range req.Messages {
		if strings.TrimSpace(m.Content) == "" {
			writeError(c, errx.BadRequest(fmt.Sprintf("invalid chat request: messages[%d] has blank content", i)))
			return
		}
		history = append(history, model.Message{Role: model.Role(m.Role), Content: m.Content})
	}

	ctx := c.Request.Context()
	w := stream.New(ctx, c.Writer)
	defer w.Close()

	c.Status(http.StatusOK)
	if _, err := h.runner.Run(ctx, history, w); err != nil {
		h.logger.Debug().Err(err).Int("messages", len(history)).Msg("chat stream ended with error")
	}
}

func writeError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errx.StatusOf(err), gin.H{"error": errx.MessageOf(err)})
}
