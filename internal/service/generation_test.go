package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aman-churiwal/image-relay/internal/apperr"
	"github.com/aman-churiwal/image-relay/internal/generation"
	"github.com/aman-churiwal/image-relay/internal/metrics"
	"github.com/aman-churiwal/image-relay/internal/models"
	servicemocks "github.com/aman-churiwal/image-relay/internal/service/mocks"
	uploadmocks "github.com/aman-churiwal/image-relay/internal/upload/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type GenerationServiceSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	generator *servicemocks.MockImageGenerator
	uploader  *uploadmocks.MockUploader
	recorder  *servicemocks.MockGenerationRecorder
	metrics   *metrics.Metrics
	service   *GenerationService
}

func TestGenerationServiceSuite(t *testing.T) {
	suite.Run(t, new(GenerationServiceSuite))
}

func (s *GenerationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.generator = servicemocks.NewMockImageGenerator(s.ctrl)
	s.uploader = uploadmocks.NewMockUploader(s.ctrl)
	s.recorder = servicemocks.NewMockGenerationRecorder(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())

	svc, err := NewGenerationService(s.generator, s.uploader,
		WithRecorder(s.recorder),
		WithGenerationMetrics(s.metrics),
		WithGenerationTimeout(5*time.Second),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *GenerationServiceSuite) request() GenerationRequest {
	return GenerationRequest{Prompt: "a red fox", ClientID: "1.2.3.4", RequestID: "req-1"}
}

func (s *GenerationServiceSuite) image() *generation.Image {
	return &generation.Image{Data: []byte{0xff, 0xd8, 0xff}, ContentType: "image/jpeg"}
}

func (s *GenerationServiceSuite) TestNew() {
	_, err := NewGenerationService(nil, s.uploader)
	s.Error(err)

	_, err = NewGenerationService(s.generator, nil)
	s.Error(err)
}

func (s *GenerationServiceSuite) TestGenerateSuccess() {
	gomock.InOrder(
		s.generator.EXPECT().Generate(gomock.Any(), "a red fox").Return("abc123", nil),
		s.generator.EXPECT().FetchImage(gomock.Any(), "abc123").Return(s.image(), nil),
		s.uploader.EXPECT().Upload(gomock.Any(), []byte{0xff, 0xd8, 0xff}, "image/jpeg").
			Return("https://storage.googleapis.com/bucket/images/1.jpeg", nil),
	)

	var recorded models.GenerationRecord
	s.recorder.EXPECT().Record(gomock.Any()).Do(func(rec models.GenerationRecord) {
		recorded = rec
	})

	url, err := s.service.Generate(s.ctx, s.request())
	s.Require().NoError(err)
	s.Equal("https://storage.googleapis.com/bucket/images/1.jpeg", url)

	s.Equal(models.GenerationSucceeded, recorded.Status)
	s.Equal("req-1", recorded.RequestID)
	s.Equal("1.2.3.4", recorded.ClientID)
	s.Equal(url, recorded.ImageURL)
	s.Empty(recorded.FailedStep)

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Generations.WithLabelValues("succeeded", "")))
}

func (s *GenerationServiceSuite) TestGenerateFailures() {
	boom := errors.New("boom")

	tests := []struct {
		name       string
		setup      func()
		failedStep string
	}{
		{
			name: "backend call fails",
			setup: func() {
				s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("", boom)
			},
			failedStep: "generate",
		},
		{
			name: "image fetch fails",
			setup: func() {
				s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("abc123", nil)
				s.generator.EXPECT().FetchImage(gomock.Any(), "abc123").Return(nil, boom)
			},
			failedStep: "fetch",
		},
		{
			name: "upload fails",
			setup: func() {
				s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("abc123", nil)
				s.generator.EXPECT().FetchImage(gomock.Any(), "abc123").Return(s.image(), nil)
				s.uploader.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("", boom)
			},
			failedStep: "upload",
		},
		{
			name: "empty url",
			setup: func() {
				s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("abc123", nil)
				s.generator.EXPECT().FetchImage(gomock.Any(), "abc123").Return(s.image(), nil)
				s.uploader.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("", nil)
			},
			failedStep: "finalize",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			tt.setup()

			var recorded models.GenerationRecord
			s.recorder.EXPECT().Record(gomock.Any()).Do(func(rec models.GenerationRecord) {
				recorded = rec
			})

			url, err := s.service.Generate(s.ctx, s.request())
			s.Empty(url)
			s.ErrorIs(err, ErrGenerationFailed)
			s.True(apperr.Is(err, apperr.KindInfrastructure))
			s.Equal(models.GenerationFailed, recorded.Status)
			s.Equal(tt.failedStep, recorded.FailedStep)
			s.Equal(float64(1), testutil.ToFloat64(s.metrics.Generations.WithLabelValues("failed", tt.failedStep)))
		})
	}
}

func (s *GenerationServiceSuite) TestGenerateIgnoresCallerCancellation() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) (string, error) {
			s.NoError(ctx.Err())
			return "abc123", nil
		})
	s.generator.EXPECT().FetchImage(gomock.Any(), "abc123").Return(s.image(), nil)
	s.uploader.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("https://img/1.jpeg", nil)
	s.recorder.EXPECT().Record(gomock.Any())

	url, err := s.service.Generate(ctx, s.request())
	s.Require().NoError(err)
	s.Equal("https://img/1.jpeg", url)
}

func (s *GenerationServiceSuite) TestGenerateIsBoundedByTimeout() {
	svc, err := NewGenerationService(s.generator, s.uploader, WithGenerationTimeout(20*time.Millisecond))
	s.Require().NoError(err)

	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

	_, err = svc.Generate(s.ctx, s.request())
	s.ErrorIs(err, ErrGenerationFailed)
	s.ErrorIs(err, context.DeadlineExceeded)
}
