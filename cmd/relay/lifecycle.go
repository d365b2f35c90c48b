package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type httpServer interface {
	Run(addr string) error
	Shutdown(ctx context.Context) error
}

type lifecycle struct {
	server       httpServer
	addr         string
	drainTimeout time.Duration
	// logWriter runs until the HTTP server has drained, so records from
	// requests finishing during shutdown are still written. May be nil.
	logWriter func(context.Context) error
	workers   []func(context.Context) error
}

// runLifecycle serves until ctx is cancelled or a worker fails, then drains
// the HTTP server before stopping the log writer.
func runLifecycle(ctx context.Context, logger *zap.Logger, lc lifecycle) error {
	writerCtx, stopWriter := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWriter()

	writerDone := make(chan error, 1)
	if lc.logWriter != nil {
		go func() { writerDone <- lc.logWriter(writerCtx) }()
	} else {
		writerDone <- nil
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := lc.server.Run(lc.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	for _, worker := range lc.workers {
		g.Go(func() error {
			return worker(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), lc.drainTimeout)
		defer cancel()

		err := lc.server.Shutdown(shutdownCtx)
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("shutdown drain timed out, abandoning in-flight requests",
				zap.Duration("drain_timeout", lc.drainTimeout),
			)
			return nil
		}
		return err
	})

	err := g.Wait()

	stopWriter()
	if werr := <-writerDone; werr != nil && err == nil {
		err = werr
	}

	return err
}
