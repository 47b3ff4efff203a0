package core

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"dentalatlas/internal/blob"
)

func TestConnectWiresMemoryBackends(t *testing.T) {
	t.Setenv("DENTALATLAS_STORAGE_DRIVER", "memory")
	t.Setenv("DENTALATLAS_BLOB_DRIVER", "memory")

	sc, err := Connect(context.Background(), slog.Default())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer sc.Close()

	if sc.Service == nil || sc.Store == nil || sc.Media == nil {
		t.Fatalf("incomplete context %+v", sc)
	}
	if sc.Media.Driver() != blob.DriverMemory {
		t.Fatalf("blob driver %q", sc.Media.Driver())
	}
	if _, _, err := sc.Service.Submit(context.Background(), baseSubmission()); err != nil {
		t.Fatalf("submit through connected service: %v", err)
	}
	if err := sc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestConnectReportsStorageFailure(t *testing.T) {
	t.Setenv("DENTALATLAS_STORAGE_DRIVER", "cassandra")
	t.Setenv("DENTALATLAS_BLOB_DRIVER", "memory")

	_, err := Connect(context.Background(), slog.Default())
	var cfg ConfigurationError
	if !errors.As(err, &cfg) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if cfg.Resource != "record store" {
		t.Fatalf("resource %q", cfg.Resource)
	}
}

func TestConnectReportsBlobFailure(t *testing.T) {
	t.Setenv("DENTALATLAS_STORAGE_DRIVER", "memory")
	t.Setenv("DENTALATLAS_BLOB_DRIVER", "tape")

	_, err := Connect(context.Background(), slog.Default())
	var cfg ConfigurationError
	if !errors.As(err, &cfg) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if cfg.Resource != "blob store" {
		t.Fatalf("resource %q", cfg.Resource)
	}
}
