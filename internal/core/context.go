package core

import (
	"context"
	"io"
	"log/slog"

	"dentalatlas/internal/blob"
)

// ServiceContext bundles the service with the backends it was connected to,
// so callers hold one handle for lifecycle management instead of package
// globals.
type ServiceContext struct {
	Service *Service
	Store   RecordStore
	Media   blob.Store
}

// Connect opens the record store and blob store selected by the environment,
// wires the default rules engine, and constructs the service. Failures are
// wrapped as ConfigurationError naming the backend that failed.
func Connect(ctx context.Context, logger *slog.Logger, opts ...Option) (*ServiceContext, error) {
	store, err := OpenRecordStore(DefaultRulesEngine())
	if err != nil {
		return nil, ConfigurationError{Resource: "record store", Err: err}
	}

	media, err := blob.Open(ctx)
	if err != nil {
		closeQuietly(store, logger)
		return nil, ConfigurationError{Resource: "blob store", Err: err}
	}

	opts = append([]Option{WithLogger(logger)}, opts...)
	return &ServiceContext{
		Service: NewService(store, media, opts...),
		Store:   store,
		Media:   media,
	}, nil
}

// Close releases any backend that holds external resources.
func (c *ServiceContext) Close() error {
	var firstErr error
	for _, backend := range []any{c.Store, c.Media} {
		closer, ok := backend.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func closeQuietly(backend any, logger *slog.Logger) {
	closer, ok := backend.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil && logger != nil {
		logger.Warn("closing backend after failed connect", "error", err)
	}
}
