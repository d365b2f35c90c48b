package handler

import (
	"net/http"

	"github.com/aman-churiwal/image-relay/internal/circuitbreaker"
	"github.com/gin-gonic/gin"
)

// Handles system-related endpoints
type SystemHandler struct {
	breakers map[string]*circuitbreaker.CircuitBreaker
}

func NewSystemHandler(breakers ...*circuitbreaker.CircuitBreaker) *SystemHandler {
	h := &SystemHandler{breakers: make(map[string]*circuitbreaker.CircuitBreaker, len(breakers))}
	for _, cb := range breakers {
		h.breakers[cb.Name()] = cb
	}
	return h
}

// Returns the status of all circuit breakers
func (h *SystemHandler) CircuitBreakerStatus(c *gin.Context) {
	statuses := make(map[string]interface{}, len(h.breakers))

	for name, cb := range h.breakers {
		metrics := cb.Metrics()

		statuses[name] = gin.H{
			"state":             metrics.State.String(),
			"failure_count":     metrics.FailureCount,
			"success_count":     metrics.SuccessCount,
			"last_failure_time": metrics.LastFailureTime,
			"last_state_change": metrics.LastStateChange,
		}
	}

	c.JSON(http.StatusOK, statuses)
}

// Manually resets a circuit breaker. Without a name every breaker is reset.
func (h *SystemHandler) ResetCircuitBreaker(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		for _, cb := range h.breakers {
			cb.Reset()
		}
		c.JSON(http.StatusOK, gin.H{"message": "Circuit breakers reset successfully"})
		return
	}

	cb, exists := h.breakers[name]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Circuit breaker not found",
		})
		return
	}

	cb.Reset()

	c.JSON(http.StatusOK, gin.H{
		"message": "Circuit breaker reset successfully",
		"name":    name,
	})
}
