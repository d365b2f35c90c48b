package service

import (
	"context"
	"errors"
	"time"

	"github.com/aman-churiwal/image-relay/internal/apperr"
	"github.com/aman-churiwal/image-relay/internal/metrics"
	"github.com/aman-churiwal/image-relay/internal/models"
	"github.com/aman-churiwal/image-relay/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrDailyLimitExceeded = apperr.New(apperr.KindQuotaExceeded, "daily limit exceeded")
	ErrClientIDRequired   = apperr.New(apperr.KindValidation, "client id is required")
	ErrClientNotFound     = apperr.New(apperr.KindNotFound, "client not found")
)

// QuotaPolicy is the ceiling free-tier clients are held to per rolling window.
type QuotaPolicy struct {
	DailyLimit int
	Window     time.Duration
}

func DefaultQuotaPolicy() QuotaPolicy {
	return QuotaPolicy{DailyLimit: 3, Window: 24 * time.Hour}
}

// decide resets an elapsed window, then admits unless a free client is at the
// ceiling. On admission the count and timestamp are advanced in place.
func (p QuotaPolicy) decide(rec *models.ClientQuotaRecord, now time.Time) bool {
	if now.Sub(rec.LastRequestAt) >= p.Window {
		rec.RequestsMade = 0
	}

	if !rec.Tier.Unlimited() && rec.RequestsMade >= p.DailyLimit {
		return false
	}

	rec.RequestsMade++
	rec.LastRequestAt = now
	return true
}

type AdmissionResult struct {
	Admitted bool
	Record   models.ClientQuotaRecord
	// Limit is 0 and Remaining is -1 for unlimited tiers.
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type QuotaService struct {
	store     repository.ClientQuotaStore
	policy    QuotaPolicy
	retention time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type QuotaOption func(*QuotaService)

func WithQuotaPolicy(policy QuotaPolicy) QuotaOption {
	return func(s *QuotaService) {
		s.policy = policy
	}
}

// WithRetention drops records idle for longer than d. Values shorter than the
// window are raised to the window so an active count is never swept.
func WithRetention(d time.Duration) QuotaOption {
	return func(s *QuotaService) {
		s.retention = d
	}
}

func WithQuotaLogger(logger *zap.Logger) QuotaOption {
	return func(s *QuotaService) {
		s.logger = logger
	}
}

func WithQuotaMetrics(m *metrics.Metrics) QuotaOption {
	return func(s *QuotaService) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) QuotaOption {
	return func(s *QuotaService) {
		s.now = now
	}
}

func NewQuotaService(store repository.ClientQuotaStore, opts ...QuotaOption) (*QuotaService, error) {
	if store == nil {
		return nil, errors.New("quota store is required")
	}

	s := &QuotaService{
		store:  store,
		policy: DefaultQuotaPolicy(),
		logger: zap.NewNop(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.policy.Window <= 0 {
		return nil, errors.New("quota window must be positive")
	}
	if s.retention > 0 && s.retention < s.policy.Window {
		s.retention = s.policy.Window
	}

	return s, nil
}

// Admit decides and records one request for clientID. A denied request returns
// the current state together with ErrDailyLimitExceeded and consumes nothing.
func (s *QuotaService) Admit(ctx context.Context, clientID string) (*AdmissionResult, error) {
	if clientID == "" {
		return nil, ErrClientIDRequired
	}

	now := s.now()
	var admitted bool

	rec, err := s.store.Apply(ctx, clientID, now, func(rec *models.ClientQuotaRecord) bool {
		admitted = s.policy.decide(rec, now)
		return admitted
	})
	if err != nil {
		s.logger.Error("quota update failed", zap.String("client_id", clientID), zap.Error(err))
		return nil, apperr.Wrap(err, apperr.KindInfrastructure, "failed to update quota record")
	}

	if s.metrics != nil {
		s.metrics.ObserveAdmission(admitted, string(rec.Tier))
	}

	result := s.result(rec, admitted)
	if !admitted {
		s.logger.Info("quota exceeded",
			zap.String("client_id", clientID),
			zap.Int("requests_made", rec.RequestsMade),
			zap.Time("reset_at", result.ResetAt),
		)
		return result, ErrDailyLimitExceeded
	}

	return result, nil
}

func (s *QuotaService) result(rec models.ClientQuotaRecord, admitted bool) *AdmissionResult {
	res := &AdmissionResult{
		Admitted: admitted,
		Record:   rec,
		ResetAt:  rec.LastRequestAt.Add(s.policy.Window),
	}

	if rec.Tier.Unlimited() {
		res.Remaining = -1
		return res
	}

	res.Limit = s.policy.DailyLimit
	res.Remaining = s.policy.DailyLimit - rec.RequestsMade
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	return res
}

func (s *QuotaService) Get(ctx context.Context, clientID string) (*models.ClientQuotaRecord, error) {
	if clientID == "" {
		return nil, ErrClientIDRequired
	}

	rec, err := s.store.Get(ctx, clientID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInfrastructure, "failed to load quota record")
	}
	if rec == nil {
		return nil, ErrClientNotFound
	}
	return rec, nil
}

// SetTier moves a client between tiers, creating its record if needed.
func (s *QuotaService) SetTier(ctx context.Context, clientID string, tier models.Tier) (*models.ClientQuotaRecord, error) {
	if clientID == "" {
		return nil, ErrClientIDRequired
	}
	if !tier.IsValid() {
		return nil, apperr.New(apperr.KindValidation, "invalid tier")
	}

	rec, err := s.store.Apply(ctx, clientID, s.now(), func(rec *models.ClientQuotaRecord) bool {
		rec.Tier = tier
		return true
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInfrastructure, "failed to update tier")
	}

	s.logger.Info("client tier updated", zap.String("client_id", clientID), zap.String("tier", string(tier)))
	return &rec, nil
}

// Reset clears the request count for the current window.
func (s *QuotaService) Reset(ctx context.Context, clientID string) (*models.ClientQuotaRecord, error) {
	if clientID == "" {
		return nil, ErrClientIDRequired
	}

	rec, err := s.store.Apply(ctx, clientID, s.now(), func(rec *models.ClientQuotaRecord) bool {
		rec.RequestsMade = 0
		return true
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInfrastructure, "failed to reset quota")
	}

	s.logger.Info("client quota reset", zap.String("client_id", clientID))
	return &rec, nil
}

// Sweep deletes records idle for longer than the retention period.
func (s *QuotaService) Sweep(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	deleted, err := s.store.DeleteStale(ctx, s.now().Add(-s.retention))
	if err != nil {
		return 0, apperr.Wrap(err, apperr.KindInfrastructure, "failed to sweep quota records")
	}

	if s.metrics != nil {
		s.metrics.AddSwept(deleted)
	}
	if deleted > 0 {
		s.logger.Info("swept idle quota records", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (s *QuotaService) RunSweeper(ctx context.Context, interval time.Duration) error {
	if s.retention <= 0 || interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Warn("quota sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *QuotaService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
