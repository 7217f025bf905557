package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/ans-registry/interfaces"
	"golang.org/x/sync/errgroup"
)

// MultiStorageBackend stores to every available backend in parallel and
// fetches from the first backend that has the content.
type MultiStorageBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

func NewMultiStorageBackend(backends []interfaces.StorageBackend, logger *slog.Logger) *MultiStorageBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiStorageBackend{
		backends: backends,
		log:      logger,
	}
}

// Fetch tries the backends in order. Content whose hash does not match id
// is skipped as if the backend did not have it.
func (m *MultiStorageBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	start := time.Now()
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("content_id", id.String()))
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), interfaces.ErrBackendUnavailable))
			continue
		}

		data, err := backend.Fetch(ctx, id, contentType)
		if err == nil && interfaces.ComputeID(data) != id {
			err = fmt.Errorf("content hash mismatch for %s", id)
		}
		if err == nil {
			m.log.Debug("Fetched content",
				slog.String("backend_name", backend.Name()),
				slog.String("content_id", id.String()),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("content_id", id.String()),
			"err", err)
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no storage backends", interfaces.ErrBackendUnavailable)
	}
	return nil, fmt.Errorf("all backends failed to fetch %s: %w", id, errors.Join(errs...))
}

// Store writes to all available backends concurrently and succeeds if at
// least one write succeeded.
func (m *MultiStorageBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	start := time.Now()
	id := interfaces.ComputeID(data)
	errs := make([]error, len(m.backends))

	var g errgroup.Group
	for i, backend := range m.backends {
		i, backend := i, backend
		g.Go(func() error {
			if !backend.Available(ctx) {
				errs[i] = fmt.Errorf("%s: %w", backend.Name(), interfaces.ErrBackendUnavailable)
				return nil
			}
			stored, err := backend.Store(ctx, data, contentType)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", backend.Name(), err)
				return nil
			}
			if stored != id {
				m.log.Warn("Inconsistent hashes from backends",
					slog.String("backend_name", backend.Name()),
					slog.String("expected_id", id.String()),
					slog.String("actual_id", stored.String()))
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			m.log.Warn("Failed to store to backend", "err", err)
		}
	}
	if failed == len(m.backends) {
		return id, fmt.Errorf("all backends failed to store data: %w", errors.Join(errs...))
	}

	m.log.Debug("Stored content",
		slog.String("content_id", id.String()),
		slog.Int("backends", len(m.backends)-failed),
		slog.Duration("duration", time.Since(start)))
	return id, nil
}

// Available reports whether any backend is available.
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

func (m *MultiStorageBackend) LocationURI() string {
	locations := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}
	return "multi:[" + strings.Join(locations, ",") + "]"
}
