// Package storage provides content-addressed persistence for registry
// snapshots and exported event logs, with pluggable backends.
//
// Content is identified by the SHA-256 hash of its bytes and stored in a
// separate namespace per content type:
//
//   - File system storage for single-node deployments and tests
//   - S3-compatible object storage
//   - The mutable file system of an IPFS node
//   - HashiCorp Vault KV v2
//   - Redis
//
// # Storage URI Format
//
// Backends are specified as
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// for example
//
//   - file:///var/lib/ans
//   - s3://bucket-name/prefix/?region=us-west-2
//   - ipfs://localhost:5001/ans?timeout=10s
//   - vault://s.token@vault.example.com:8200/secret/ans
//   - redis://:password@localhost:6379/0?prefix=ans
//
// StorageBackendFactory builds a backend from one location, or a
// MultiStorageBackend from several. The multi backend writes to every
// available backend concurrently and reads from the first one holding
// content whose hash matches the requested id.
//
// # Usage
//
//	factory := storage.NewStorageBackendFactory(ctx, logger)
//	locations, err := storage.ParseLocations([]string{"file:///var/lib/ans", "s3://ans-snapshots/prod"})
//	backend, err := factory.CreateMultiBackend(locations)
//	id, err := backend.Store(ctx, snapshot, interfaces.SnapshotType)
package storage
