package service

//go:generate mockgen -source=generation.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman-churiwal/image-relay/internal/apperr"
	"github.com/aman-churiwal/image-relay/internal/generation"
	"github.com/aman-churiwal/image-relay/internal/metrics"
	"github.com/aman-churiwal/image-relay/internal/models"
	"github.com/aman-churiwal/image-relay/internal/upload"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrGenerationFailed is the only error callers of Generate can tell apart;
// the failing step and its cause are logged, never surfaced.
var ErrGenerationFailed = apperr.New(apperr.KindInfrastructure, "image generation failed")

// DefaultGenerationTimeout bounds one whole generate -> fetch -> upload sequence.
const DefaultGenerationTimeout = 3 * time.Minute

// GenerationStep is the last state an orchestration reached.
type GenerationStep string

const (
	StepPending       GenerationStep = "pending"
	StepBackendCalled GenerationStep = "backend_called"
	StepImageFetched  GenerationStep = "image_fetched"
	StepUploaded      GenerationStep = "uploaded"
	StepDone          GenerationStep = "done"
)

// failedAction names the call that was in flight when a sequence stopped at s.
func (s GenerationStep) failedAction() string {
	switch s {
	case StepPending:
		return "generate"
	case StepBackendCalled:
		return "fetch"
	case StepImageFetched:
		return "upload"
	default:
		return "finalize"
	}
}

type ImageGenerator interface {
	// Generate submits a prompt and returns the produced image's key.
	Generate(ctx context.Context, prompt string) (string, error)
	FetchImage(ctx context.Context, imageKey string) (*generation.Image, error)
}

// GenerationRecorder receives one record per orchestration attempt. It must not block.
type GenerationRecorder interface {
	Record(rec models.GenerationRecord)
}

type GenerationRequest struct {
	Prompt    string
	ClientID  string
	RequestID string
}

type GenerationService struct {
	generator ImageGenerator
	uploader  upload.Uploader
	recorder  GenerationRecorder
	logger    *zap.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	timeout   time.Duration
	now       func() time.Time
}

type GenerationOption func(*GenerationService)

func WithGenerationLogger(logger *zap.Logger) GenerationOption {
	return func(s *GenerationService) {
		s.logger = logger
	}
}

func WithGenerationMetrics(m *metrics.Metrics) GenerationOption {
	return func(s *GenerationService) {
		s.metrics = m
	}
}

func WithRecorder(r GenerationRecorder) GenerationOption {
	return func(s *GenerationService) {
		s.recorder = r
	}
}

// WithGenerationTimeout bounds the whole sequence (default DefaultGenerationTimeout).
func WithGenerationTimeout(d time.Duration) GenerationOption {
	return func(s *GenerationService) {
		s.timeout = d
	}
}

func NewGenerationService(generator ImageGenerator, uploader upload.Uploader, opts ...GenerationOption) (*GenerationService, error) {
	if generator == nil {
		return nil, errors.New("image generator is required")
	}
	if uploader == nil {
		return nil, errors.New("uploader is required")
	}

	s := &GenerationService{
		generator: generator,
		uploader:  uploader,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer("github.com/aman-churiwal/image-relay/internal/service"),
		timeout:   DefaultGenerationTimeout,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Generate runs generate -> fetch -> upload and returns the hosted URL.
// The sequence is detached from the caller's cancellation: once started it
// runs to completion or failure, bounded by the configured timeouts.
func (s *GenerationService) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "generation.orchestrate",
		trace.WithAttributes(
			attribute.String("relay.client_id", req.ClientID),
			attribute.String("relay.request_id", req.RequestID),
		),
	)
	defer span.End()

	start := s.now()
	state := StepPending
	url, err := s.run(ctx, req.Prompt, &state)
	elapsed := s.now().Sub(start)

	record := models.GenerationRecord{
		RequestID:  req.RequestID,
		ClientID:   req.ClientID,
		Prompt:     req.Prompt,
		Status:     models.GenerationSucceeded,
		ImageURL:   url,
		DurationMs: int(elapsed.Milliseconds()),
		CreatedAt:  start,
	}

	if err != nil {
		record.Status = models.GenerationFailed
		record.FailedStep = state.failedAction()
		span.RecordError(err)
		span.SetStatus(codes.Error, record.FailedStep)

		s.logger.Error("image generation failed",
			zap.String("request_id", req.RequestID),
			zap.String("client_id", req.ClientID),
			zap.String("reached", string(state)),
			zap.String("failed_step", record.FailedStep),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	} else {
		s.logger.Info("image generated",
			zap.String("request_id", req.RequestID),
			zap.String("client_id", req.ClientID),
			zap.String("url", url),
			zap.Duration("elapsed", elapsed),
		)
	}

	if s.metrics != nil {
		s.metrics.ObserveGeneration(record.FailedStep, elapsed)
	}
	if s.recorder != nil {
		s.recorder.Record(record)
	}

	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrGenerationFailed, record.FailedStep, err)
	}
	return url, nil
}

func (s *GenerationService) run(ctx context.Context, prompt string, state *GenerationStep) (string, error) {
	var imageKey string
	err := s.traced(ctx, "generation.backend", func(ctx context.Context) error {
		var err error
		imageKey, err = s.generator.Generate(ctx, prompt)
		return err
	})
	if err != nil {
		return "", err
	}
	*state = StepBackendCalled

	var image *generation.Image
	err = s.traced(ctx, "generation.fetch", func(ctx context.Context) error {
		var err error
		image, err = s.generator.FetchImage(ctx, imageKey)
		return err
	})
	if err != nil {
		return "", err
	}
	*state = StepImageFetched

	var url string
	err = s.traced(ctx, "generation.upload", func(ctx context.Context) error {
		var err error
		url, err = s.uploader.Upload(ctx, image.Data, image.ContentType)
		return err
	})
	if err != nil {
		return "", err
	}
	*state = StepUploaded

	if url == "" {
		return "", errors.New("uploader returned an empty url")
	}
	*state = StepDone

	return url, nil
}

func (s *GenerationService) traced(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
