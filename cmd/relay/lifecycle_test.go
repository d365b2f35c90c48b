package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aman-churiwal/image-relay/internal/models"
	"github.com/aman-churiwal/image-relay/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeServer struct {
	stopped    chan struct{}
	once       sync.Once
	runErr     error
	onShutdown func(ctx context.Context) error
}

func newFakeServer() *fakeServer {
	return &fakeServer{stopped: make(chan struct{})}
}

func (f *fakeServer) Run(string) error {
	if f.runErr != nil {
		return f.runErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	defer f.once.Do(func() { close(f.stopped) })
	if f.onShutdown != nil {
		return f.onShutdown(ctx)
	}
	return nil
}

type memoryLogStore struct {
	mu      sync.Mutex
	records []models.GenerationRecord
}

func (m *memoryLogStore) CreateBatch(_ context.Context, records []models.GenerationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *memoryLogStore) ListByClient(context.Context, string, int) ([]models.GenerationRecord, error) {
	return nil, nil
}

func (m *memoryLogStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func TestRunLifecycle_RecordsFromDrainingRequestsAreWritten(t *testing.T) {
	store := &memoryLogStore{}
	logSvc, err := service.NewGenerationLogService(store, service.WithBatching(100, time.Hour))
	require.NoError(t, err)

	srv := newFakeServer()
	srv.onShutdown = func(context.Context) error {
		// a request still in flight when the signal arrived finishes here
		time.Sleep(20 * time.Millisecond)
		logSvc.Record(models.GenerationRecord{ClientID: "1.2.3.4", RequestID: "late"})
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runLifecycle(ctx, zap.NewNop(), lifecycle{
			server:       srv,
			drainTimeout: time.Second,
			logWriter:    logSvc.Run,
		})
	}()

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, store.count())
}

func TestRunLifecycle_DrainTimeoutIsNotAnError(t *testing.T) {
	srv := newFakeServer()
	srv.onShutdown = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runLifecycle(ctx, zap.NewNop(), lifecycle{
		server:       srv,
		drainTimeout: 10 * time.Millisecond,
	})
	assert.NoError(t, err)
}

func TestRunLifecycle_ServerFailureStopsWorkers(t *testing.T) {
	srv := newFakeServer()
	srv.runErr = errors.New("address already in use")

	var workerStopped bool
	err := runLifecycle(context.Background(), zap.NewNop(), lifecycle{
		server:       srv,
		drainTimeout: time.Second,
		workers: []func(context.Context) error{
			func(ctx context.Context) error {
				<-ctx.Done()
				workerStopped = true
				return nil
			},
		},
	})
	assert.EqualError(t, err, "address already in use")
	assert.True(t, workerStopped)
}
