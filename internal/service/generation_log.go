package service

import (
	"context"
	"errors"
	"time"

	"github.com/aman-churiwal/image-relay/internal/models"
	"go.uber.org/zap"
)

const (
	defaultLogBatchSize     = 100
	defaultLogFlushInterval = 5 * time.Second
	defaultLogBufferSize    = 1000
)

type GenerationLogStore interface {
	CreateBatch(ctx context.Context, records []models.GenerationRecord) error
	ListByClient(ctx context.Context, clientID string, limit int) ([]models.GenerationRecord, error)
}

// GenerationLogService buffers generation records and writes them in batches.
// Record never blocks; entries are dropped when the buffer is full.
type GenerationLogService struct {
	store         GenerationLogStore
	logger        *zap.Logger
	entries       chan models.GenerationRecord
	batchSize     int
	flushInterval time.Duration
}

type GenerationLogOption func(*GenerationLogService)

func WithGenerationLogLogger(logger *zap.Logger) GenerationLogOption {
	return func(s *GenerationLogService) {
		s.logger = logger
	}
}

func WithBatching(size int, interval time.Duration) GenerationLogOption {
	return func(s *GenerationLogService) {
		if size > 0 {
			s.batchSize = size
		}
		if interval > 0 {
			s.flushInterval = interval
		}
	}
}

func WithBufferSize(n int) GenerationLogOption {
	return func(s *GenerationLogService) {
		if n > 0 {
			s.entries = make(chan models.GenerationRecord, n)
		}
	}
}

func NewGenerationLogService(store GenerationLogStore, opts ...GenerationLogOption) (*GenerationLogService, error) {
	if store == nil {
		return nil, errors.New("generation log store is required")
	}

	s := &GenerationLogService{
		store:         store,
		logger:        zap.NewNop(),
		entries:       make(chan models.GenerationRecord, defaultLogBufferSize),
		batchSize:     defaultLogBatchSize,
		flushInterval: defaultLogFlushInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *GenerationLogService) Record(rec models.GenerationRecord) {
	select {
	case s.entries <- rec:
	default:
		s.logger.Warn("generation log buffer full, dropping entry",
			zap.String("request_id", rec.RequestID),
		)
	}
}

// Run drains the buffer until ctx is cancelled, then flushes what is left.
func (s *GenerationLogService) Run(ctx context.Context) error {
	batch := make([]models.GenerationRecord, 0, s.batchSize)
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Shutdown must still be able to write the final batch.
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		if err := s.store.CreateBatch(writeCtx, batch); err != nil {
			s.logger.Error("failed to write generation logs", zap.Int("count", len(batch)), zap.Error(err))
		}
		batch = make([]models.GenerationRecord, 0, s.batchSize)
	}

	for {
		select {
		case rec := <-s.entries:
			batch = append(batch, rec)
			if len(batch) >= s.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case rec := <-s.entries:
					batch = append(batch, rec)
				default:
					flush()
					return nil
				}
			}
		}
	}
}

func (s *GenerationLogService) ListByClient(ctx context.Context, clientID string, limit int) ([]models.GenerationRecord, error) {
	if clientID == "" {
		return nil, ErrClientIDRequired
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListByClient(ctx, clientID, limit)
}
