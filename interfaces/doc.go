// Package interfaces defines core interfaces and types for the name registry,
// separating interface definitions from implementations.
//
// # Identifiers
//
//   - Node: 32-byte hash of a name, derived by package namespace
//   - ContractID: 32-byte id of a contract on a partition; credential tokens
//     share the type as TokenID
//   - Address: 33-byte address whose first byte is its kind; asset addresses
//     belong to keys, contract addresses wrap a ContractID
//   - PartitionID and ChainID: small integers naming a ledger partition and a
//     foreign chain of the address book
//
// # Errors
//
// Error carries one of the stable ErrorCode values. Every registry failure
// aborts its transaction and unwraps to one of the Err* sentinels, so callers
// use errors.Is both locally and behind the HTTP client.
//
// # Events
//
// Event is an entry of a partition's append-only log. EventSink receives the
// events of every committed transaction in order.
//
// # Storage Interfaces
//
// StorageBackend: content-addressed storage for snapshots and event exports
// across multiple backend types (file, S3, IPFS, Vault, Redis).
//
// StorageBackendFactory: creates storage backends from URI strings and manages
// multi-backend configurations for redundant storage.
package interfaces
