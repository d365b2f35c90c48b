package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/aman-churiwal/image-relay/internal/apperr"
	"github.com/aman-churiwal/image-relay/internal/models"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Login(username, password string) (string, error)
}

type QuotaAdmin interface {
	Get(ctx context.Context, clientID string) (*models.ClientQuotaRecord, error)
	SetTier(ctx context.Context, clientID string, tier models.Tier) (*models.ClientQuotaRecord, error)
	Reset(ctx context.Context, clientID string) (*models.ClientQuotaRecord, error)
}

type GenerationHistory interface {
	ListByClient(ctx context.Context, clientID string, limit int) ([]models.GenerationRecord, error)
}

type AdminHandler struct {
	auth    Authenticator
	quota   QuotaAdmin
	history GenerationHistory
}

// NewAdminHandler builds the operator endpoints. history may be nil when no
// generation log is configured.
func NewAdminHandler(auth Authenticator, quota QuotaAdmin, history GenerationHistory) *AdminHandler {
	return &AdminHandler{auth: auth, quota: quota, history: history}
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AdminHandler) GetClient(c *gin.Context) {
	rec, err := h.quota.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *AdminHandler) SetTier(c *gin.Context) {
	var req struct {
		Tier string `json:"tier" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tier, err := models.ParseTier(req.Tier)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.quota.SetTier(c.Request.Context(), c.Param("id"), tier)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *AdminHandler) Reset(c *gin.Context) {
	rec, err := h.quota.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quota reset successfully",
		"client":  rec,
	})
}

func (h *AdminHandler) Generations(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Generation log is not enabled"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	records, err := h.history.ListByClient(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// writeError maps an error kind to its status. Infrastructure causes are
// recorded on the context for the access log and never shown to callers.
func writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInfrastructure {
		_ = c.Error(err)
		c.JSON(kind.HTTPStatus(), gin.H{"error": "Internal server error. Please try again later."})
		return
	}

	var appErr *apperr.Error
	msg := err.Error()
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	c.JSON(kind.HTTPStatus(), gin.H{"error": msg})
}
