package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/ans-registry/interfaces"
)

// StorageBackendFactory creates storage backends from location URIs and
// combines them into multi-backend configurations.
type StorageBackendFactory struct {
	ctx context.Context
	log *slog.Logger
}

// NewStorageBackendFactory creates a factory. ctx bounds connection checks
// done while creating backends.
func NewStorageBackendFactory(ctx context.Context, logger *slog.Logger) *StorageBackendFactory {
	return &StorageBackendFactory{
		ctx: ctx,
		log: logger,
	}
}

// StorageBackendFor creates a storage backend from a location.
//
// Supported schemes:
//   - file:///var/lib/ans - local directory
//   - s3://[KEY:SECRET@]bucket/prefix?region=us-east-1&endpoint=host
//   - ipfs://host:5001/root?timeout=30s
//   - vault://[token@]host:8200/mount/path?tls=false&cert=client.pem&key=client.key
//   - redis://[:password@]host:6379/0?prefix=ans
func (sf *StorageBackendFactory) StorageBackendFor(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating storage backend", slog.String("scheme", location.Scheme), slog.String("host", location.Host))

	switch location.Scheme {
	case "file":
		return sf.createFileBackend(location)
	case "s3":
		return sf.createS3Backend(location)
	case "ipfs":
		return sf.createIPFSBackend(location)
	case "vault":
		return sf.createVaultBackend(location)
	case "redis":
		return sf.createRedisBackend(location)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme %q", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// CreateMultiBackend creates every backend it can and aggregates them.
// Backends that fail to initialize are logged and skipped; it is an error
// only if none could be created.
func (sf *StorageBackendFactory) CreateMultiBackend(locations []interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	backends := make([]interfaces.StorageBackend, 0, len(locations))
	for _, location := range locations {
		backend, err := sf.StorageBackendFor(location)
		if err != nil {
			sf.log.Warn("Failed to create storage backend", "err", err, slog.String("scheme", location.Scheme))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid storage backends created")
	}
	if len(backends) == 1 {
		return backends[0], nil
	}
	return NewMultiStorageBackend(backends, sf.log), nil
}

// ParseLocations parses a list of location URIs.
func ParseLocations(uris []string) ([]interfaces.StorageBackendLocation, error) {
	locations := make([]interfaces.StorageBackendLocation, 0, len(uris))
	for _, uri := range uris {
		location, err := interfaces.NewStorageBackendLocation(strings.TrimSpace(uri))
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, nil
}

// file:///absolute/path or file://./relative/path
func (sf *StorageBackendFactory) createFileBackend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	path := location.Path
	if location.Host != "" {
		path = location.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in %s", interfaces.ErrInvalidLocationURI, location)
	}
	return NewFileBackend(path, sf.log)
}

func (sf *StorageBackendFactory) createS3Backend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	if location.Host == "" {
		return nil, fmt.Errorf("%w: missing bucket in %s", interfaces.ErrInvalidLocationURI, location)
	}

	region := location.GetParam("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if location.Auth != "" {
		accessKey, secretKey, _ = strings.Cut(location.Auth, ":")
	}

	return NewS3Backend(location.Host, strings.TrimPrefix(location.Path, "/"), region, location.GetParam("endpoint"), accessKey, secretKey, sf.log)
}

func (sf *StorageBackendFactory) createIPFSBackend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	host, port, found := strings.Cut(location.Host, ":")
	if !found {
		port = "5001"
	}
	if host == "" {
		host = "localhost"
	}

	timeout := 30 * time.Second
	if raw := location.GetParam("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid timeout %q", interfaces.ErrInvalidLocationURI, raw)
		}
		timeout = parsed
	}

	return NewIPFSBackend(host, port, location.Path, timeout, sf.log)
}

// The first path segment is the KV mount, the rest the data path.
func (sf *StorageBackendFactory) createVaultBackend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	mount, dataPath, _ := strings.Cut(strings.TrimPrefix(location.Path, "/"), "/")
	if mount == "" {
		return nil, fmt.Errorf("%w: missing mount in %s", interfaces.ErrInvalidLocationURI, location)
	}

	scheme := "https"
	if location.Query.Has("tls") && !location.GetParamBool("tls") {
		scheme = "http"
	}

	auth := VaultAuth{Token: location.Auth}
	if certFile := location.GetParam("cert"); certFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, location.GetParam("key"))
		if err != nil {
			return nil, fmt.Errorf("failed to load vault client certificate: %w", err)
		}
		auth.ClientCert = &cert
	}

	return NewVaultBackend(fmt.Sprintf("%s://%s", scheme, location.Host), mount, dataPath, auth, sf.log)
}

func (sf *StorageBackendFactory) createRedisBackend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	// go-redis rejects unknown query parameters
	redisURL := location.Raw
	if i := strings.IndexByte(redisURL, '?'); i >= 0 {
		redisURL = redisURL[:i]
	}
	return NewRedisBackend(sf.ctx, redisURL, location.GetParam("prefix"), sf.log)
}
