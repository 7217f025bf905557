package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/ans-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocations(t *testing.T) {
	locations, err := ParseLocations([]string{
		"file:///var/lib/ans",
		" s3://KEY:SECRET@bucket/prefix?region=eu-west-1 ",
		"vault://token@vault:8200/secret/ans",
		"redis://localhost:6379/0?prefix=test",
	})
	require.NoError(t, err)
	require.Len(t, locations, 4)

	assert.Equal(t, "file", locations[0].Scheme)
	assert.Equal(t, "/var/lib/ans", locations[0].Path)

	assert.Equal(t, "s3", locations[1].Scheme)
	assert.Equal(t, "bucket", locations[1].Host)
	assert.Equal(t, "KEY:SECRET", locations[1].Auth)
	assert.Equal(t, "eu-west-1", locations[1].GetParam("region"))

	assert.Equal(t, "token", locations[2].Auth)
	assert.Equal(t, "test", locations[3].GetParam("prefix"))

	_, err = ParseLocations([]string{"github://owner/repo"})
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestStorageBackendFor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := NewStorageBackendFactory(context.Background(), logger)
	dir := t.TempDir()

	tests := []struct {
		name     string
		uri      string
		wantName string
		wantErr  bool
	}{
		{name: "file", uri: "file://" + dir, wantName: "file-"},
		{name: "s3", uri: "s3://bucket/prefix?region=us-west-2&endpoint=http://localhost:9000", wantName: "s3-bucket"},
		{name: "s3 without bucket", uri: "s3:///prefix", wantErr: true},
		{name: "ipfs", uri: "ipfs://localhost:5001/ans?timeout=5s", wantName: "ipfs-localhost-5001"},
		{name: "ipfs bad timeout", uri: "ipfs://localhost:5001/?timeout=soon", wantErr: true},
		{name: "vault", uri: "vault://token@localhost:8200/secret/ans?tls=false", wantName: "vault-secret-ans"},
		{name: "vault without mount", uri: "vault://localhost:8200", wantErr: true},
		{name: "redis unreachable", uri: "redis://localhost:1/0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			location, err := interfaces.NewStorageBackendLocation(tt.uri)
			require.NoError(t, err)

			backend, err := factory.StorageBackendFor(location)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, backend.Name(), tt.wantName)
		})
	}
}

func TestCreateMultiBackend(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := NewStorageBackendFactory(ctx, logger)

	locations, err := ParseLocations([]string{"file://" + t.TempDir(), "file://" + t.TempDir()})
	require.NoError(t, err)

	backend, err := factory.CreateMultiBackend(locations)
	require.NoError(t, err)
	require.IsType(t, &MultiStorageBackend{}, backend)

	data := []byte("event log")
	id, err := backend.Store(ctx, data, interfaces.EventLogType)
	require.NoError(t, err)

	// every member got a copy
	for _, member := range backend.(*MultiStorageBackend).backends {
		fetched, err := member.Fetch(ctx, id, interfaces.EventLogType)
		require.NoError(t, err)
		assert.Equal(t, data, fetched)
	}

	// one bad location is skipped
	bad, err := interfaces.NewStorageBackendLocation("s3:///nobucket")
	require.NoError(t, err)
	single, err := factory.CreateMultiBackend(append(locations[:1:1], bad))
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, single)

	_, err = factory.CreateMultiBackend([]interfaces.StorageBackendLocation{bad})
	assert.Error(t, err)
}

func TestNewRedisBackend_InvalidURL(t *testing.T) {
	_, err := NewRedisBackend(context.Background(), "http://localhost", "", slog.Default())
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}
