package handler

import (
	"context"
	"net/http"

	"github.com/aman-churiwal/image-relay/internal/middleware"
	"github.com/aman-churiwal/image-relay/internal/service"
	"github.com/gin-gonic/gin"
)

const msgMissingParams = "Both prompt and IP address are required."

type Orchestrator interface {
	Generate(ctx context.Context, req service.GenerationRequest) (string, error)
}

type PromptHandler struct {
	orchestrator Orchestrator
}

func NewPromptHandler(orchestrator Orchestrator) *PromptHandler {
	return &PromptHandler{orchestrator: orchestrator}
}

func (h *PromptHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Server is running")
}

// Validate rejects a request before it reaches the quota gate.
func (h *PromptHandler) Validate(c *gin.Context) {
	if c.Query("prompt") == "" || ClientID(c) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msgMissingParams})
		return
	}
	c.Next()
}

// Generate runs after the quota gate has admitted the request.
func (h *PromptHandler) Generate(c *gin.Context) {
	url, err := h.orchestrator.Generate(c.Request.Context(), service.GenerationRequest{
		Prompt:    c.Query("prompt"),
		ClientID:  ClientID(c),
		RequestID: c.GetString(middleware.RequestIDKey),
	})
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": middleware.MsgInternalError})
		return
	}

	c.JSON(http.StatusOK, gin.H{"imageUrl": url})
}

// ClientID is the caller-supplied ip query parameter.
func ClientID(c *gin.Context) string {
	return c.Query("ip")
}
