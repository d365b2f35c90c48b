package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aman-churiwal/image-relay/internal/apperr"
	"github.com/aman-churiwal/image-relay/internal/metrics"
	"github.com/aman-churiwal/image-relay/internal/models"
	"github.com/aman-churiwal/image-relay/internal/repository"
	"github.com/aman-churiwal/image-relay/internal/repository/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type QuotaServiceSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *fakeClock
	store   *repository.MemoryClientQuotaRepository
	metrics *metrics.Metrics
	service *QuotaService
}

func TestQuotaServiceSuite(t *testing.T) {
	suite.Run(t, new(QuotaServiceSuite))
}

func (s *QuotaServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	s.store = repository.NewMemoryClientQuotaRepository()
	s.metrics = metrics.New(prometheus.NewRegistry())

	svc, err := NewQuotaService(s.store,
		WithClock(s.clock.Now),
		WithQuotaMetrics(s.metrics),
		WithRetention(7*24*time.Hour),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *QuotaServiceSuite) admitN(clientID string, n int) {
	for i := 0; i < n; i++ {
		res, err := s.service.Admit(s.ctx, clientID)
		s.Require().NoError(err)
		s.Require().True(res.Admitted)
	}
}

func (s *QuotaServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := NewQuotaService(nil)
		s.Error(err)
		s.Contains(err.Error(), "quota store is required")
	})

	s.Run("non-positive window returns error", func() {
		_, err := NewQuotaService(s.store, WithQuotaPolicy(QuotaPolicy{DailyLimit: 3}))
		s.Error(err)
	})

	s.Run("retention shorter than window is raised", func() {
		svc, err := NewQuotaService(s.store, WithRetention(time.Hour))
		s.Require().NoError(err)
		s.Equal(24*time.Hour, svc.retention)
	})
}

func (s *QuotaServiceSuite) TestAdmit_FirstRequestAdmitted() {
	res, err := s.service.Admit(s.ctx, "1.2.3.4")
	s.Require().NoError(err)

	s.True(res.Admitted)
	s.Equal(1, res.Record.RequestsMade)
	s.Equal(models.TierFree, res.Record.Tier)
	s.Equal(3, res.Limit)
	s.Equal(2, res.Remaining)
	s.Equal(s.clock.now.Add(24*time.Hour), res.ResetAt)
}

func (s *QuotaServiceSuite) TestAdmit_FourthRequestDenied() {
	s.admitN("1.2.3.4", 3)

	s.clock.Advance(time.Hour)
	res, err := s.service.Admit(s.ctx, "1.2.3.4")

	s.Require().Error(err)
	s.ErrorIs(err, ErrDailyLimitExceeded)
	s.True(apperr.Is(err, apperr.KindQuotaExceeded))
	s.False(res.Admitted)
	s.Equal(0, res.Remaining)

	rec, err := s.store.Get(s.ctx, "1.2.3.4")
	s.Require().NoError(err)
	s.Equal(3, rec.RequestsMade, "denied request must not increment")
	s.Equal(s.clock.now.Add(-time.Hour), rec.LastRequestAt, "denied request must not move the timestamp")

	s.Equal(3.0, testutil.ToFloat64(s.metrics.Admissions.WithLabelValues("admitted", "free")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Admissions.WithLabelValues("denied", "free")))
}

func (s *QuotaServiceSuite) TestAdmit_WindowElapsedResets() {
	s.admitN("1.2.3.4", 3)

	s.clock.Advance(24 * time.Hour)
	res, err := s.service.Admit(s.ctx, "1.2.3.4")
	s.Require().NoError(err)

	s.True(res.Admitted)
	s.Equal(1, res.Record.RequestsMade)
	s.Equal(s.clock.now, res.Record.LastRequestAt)
}

func (s *QuotaServiceSuite) TestAdmit_JustBeforeWindowStillDenied() {
	s.admitN("1.2.3.4", 3)

	s.clock.Advance(24*time.Hour - time.Nanosecond)
	_, err := s.service.Admit(s.ctx, "1.2.3.4")
	s.ErrorIs(err, ErrDailyLimitExceeded)
}

func (s *QuotaServiceSuite) TestAdmit_WindowIsMeasuredFromLastAcceptedRequest() {
	s.admitN("1.2.3.4", 2)
	s.clock.Advance(20 * time.Hour)
	s.admitN("1.2.3.4", 1)

	// 25h after the first request but only 5h after the last accepted one.
	s.clock.Advance(5 * time.Hour)
	_, err := s.service.Admit(s.ctx, "1.2.3.4")
	s.ErrorIs(err, ErrDailyLimitExceeded)
}

func (s *QuotaServiceSuite) TestAdmit_ProIsUnlimited() {
	_, err := s.service.SetTier(s.ctx, "vip", models.TierPro)
	s.Require().NoError(err)

	for i := 0; i < 25; i++ {
		res, err := s.service.Admit(s.ctx, "vip")
		s.Require().NoError(err)
		s.True(res.Admitted)
		s.Equal(-1, res.Remaining)
		s.Equal(0, res.Limit)
	}
}

func (s *QuotaServiceSuite) TestAdmit_ClientsAreIndependent() {
	s.admitN("1.2.3.4", 3)

	res, err := s.service.Admit(s.ctx, "5.6.7.8")
	s.Require().NoError(err)
	s.True(res.Admitted)
}

func (s *QuotaServiceSuite) TestAdmit_EmptyClientID() {
	_, err := s.service.Admit(s.ctx, "")
	s.ErrorIs(err, ErrClientIDRequired)
	s.True(apperr.Is(err, apperr.KindValidation))
}

func (s *QuotaServiceSuite) TestAdmit_StoreFailureFailsClosed() {
	ctrl := gomock.NewController(s.T())
	store := mocks.NewMockClientQuotaStore(ctrl)
	store.EXPECT().
		Apply(gomock.Any(), "1.2.3.4", gomock.Any(), gomock.Any()).
		Return(models.ClientQuotaRecord{}, errors.New("connection refused"))

	svc, err := NewQuotaService(store)
	s.Require().NoError(err)

	res, err := svc.Admit(s.ctx, "1.2.3.4")
	s.Nil(res)
	s.True(apperr.Is(err, apperr.KindInfrastructure))
}

func (s *QuotaServiceSuite) TestGet() {
	s.Run("unknown client", func() {
		_, err := s.service.Get(s.ctx, "nobody")
		s.ErrorIs(err, ErrClientNotFound)
	})

	s.Run("known client", func() {
		s.admitN("known", 2)
		rec, err := s.service.Get(s.ctx, "known")
		s.Require().NoError(err)
		s.Equal(2, rec.RequestsMade)
	})
}

func (s *QuotaServiceSuite) TestSetTier() {
	s.Run("invalid tier", func() {
		_, err := s.service.SetTier(s.ctx, "1.2.3.4", models.Tier("gold"))
		s.True(apperr.Is(err, apperr.KindValidation))
	})

	s.Run("downgrade re-applies the ceiling", func() {
		_, err := s.service.SetTier(s.ctx, "flip", models.TierPro)
		s.Require().NoError(err)
		s.admitN("flip", 5)

		rec, err := s.service.SetTier(s.ctx, "flip", models.TierFree)
		s.Require().NoError(err)
		s.Equal(models.TierFree, rec.Tier)

		_, err = s.service.Admit(s.ctx, "flip")
		s.ErrorIs(err, ErrDailyLimitExceeded)
	})
}

func (s *QuotaServiceSuite) TestReset() {
	s.admitN("1.2.3.4", 3)

	rec, err := s.service.Reset(s.ctx, "1.2.3.4")
	s.Require().NoError(err)
	s.Equal(0, rec.RequestsMade)

	s.admitN("1.2.3.4", 3)
}

func (s *QuotaServiceSuite) TestSweep() {
	s.admitN("stale", 1)
	s.clock.Advance(8 * 24 * time.Hour)
	s.admitN("fresh", 1)

	deleted, err := s.service.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)

	_, err = s.service.Get(s.ctx, "stale")
	s.ErrorIs(err, ErrClientNotFound)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.SweptRecords))
}

func (s *QuotaServiceSuite) TestSweep_DisabledWithoutRetention() {
	svc, err := NewQuotaService(s.store)
	s.Require().NoError(err)

	deleted, err := svc.Sweep(s.ctx)
	s.NoError(err)
	s.Zero(deleted)
	s.NoError(svc.RunSweeper(s.ctx, time.Minute))
}

func (s *QuotaServiceSuite) TestRunSweeper_StopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)

	go func() {
		done <- s.service.RunSweeper(ctx, time.Millisecond)
	}()

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("sweeper did not stop")
	}
}
