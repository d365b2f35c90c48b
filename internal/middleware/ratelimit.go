package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/aman-churiwal/image-relay/internal/apperr"
	"github.com/aman-churiwal/image-relay/internal/service"
	"github.com/gin-gonic/gin"
)

const AdmissionKey = "admission"

const (
	MsgInternalError = "Internal server error. Please try again later."
	MsgDailyLimit    = "Daily limit exceeded for free users. Upgrade to pro for unlimited access."
)

type Admitter interface {
	Admit(ctx context.Context, clientID string) (*service.AdmissionResult, error)
}

// QuotaGate charges one request against the client's daily quota before the
// rest of the chain runs. clientID extracts the identifier from the request.
func QuotaGate(quota Admitter, clientID func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := quota.Admit(c.Request.Context(), clientID(c))
		if result != nil {
			setQuotaHeaders(c, result)
		}

		if err != nil {
			switch {
			case errors.Is(err, service.ErrDailyLimitExceeded):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": MsgDailyLimit})
			case apperr.Is(err, apperr.KindValidation):
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": MsgInternalError})
			}
			return
		}

		c.Set(AdmissionKey, result)
		c.Next()
	}
}

func setQuotaHeaders(c *gin.Context, result *service.AdmissionResult) {
	c.Header("X-RateLimit-Tier", string(result.Record.Tier))
	if result.Limit == 0 {
		return
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
