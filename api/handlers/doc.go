/*
Package handlers implements the HTTP API of the name registry.

Handler exposes every registry operation of a service.Deployment as JSON
endpoints under /api/v1. Reads are public. Every mutating endpoint requires the
X-ANS-Signature header; the caller is the asset address recovered from that
signature, and it acts as the transaction signer (and the default payer).

# Routes

Public:

	GET    /api/v1/info
	GET    /api/v1/partitions/{partition}/names/{name}
	GET    /api/v1/partitions/{partition}/nodes/{node}
	GET    /api/v1/partitions/{partition}/nodes/{node}/profile
	GET    /api/v1/partitions/{partition}/nodes/{node}/addresses
	GET    /api/v1/partitions/{partition}/nodes/{node}/addresses/{chain}
	GET    /api/v1/partitions/{partition}/nodes/{node}/name
	GET    /api/v1/partitions/{partition}/nodes/{node}/pubkey
	GET    /api/v1/partitions/{partition}/events?from=&limit=
	GET    /api/v1/partitions/{partition}/balances/{address}
	GET    /api/v1/partitions/{partition}/tokens/{token}/balances/{address}
	POST   /api/v1/faucet (only when enabled)

Signed:

	POST   /api/v1/register
	POST   /api/v1/renew
	POST   /api/v1/subnames
	POST   /api/v1/subnames/renew
	POST   /api/v1/tokens/mint
	POST   /api/v1/tokens/burn
	POST   /api/v1/tokens/transfer
	POST   /api/v1/replicate
	POST   /api/v1/partitions/{partition}/redeem
	PUT    /api/v1/partitions/{partition}/nodes/{node}/owner
	PUT    /api/v1/partitions/{partition}/nodes/{node}/resolver
	DELETE /api/v1/partitions/{partition}/nodes/{node}
	POST   /api/v1/partitions/{partition}/nodes/{node}/addresses
	PUT    /api/v1/partitions/{partition}/nodes/{node}/addresses/{chain}
	POST   /api/v1/partitions/{partition}/nodes/{node}/name
	PUT    /api/v1/partitions/{partition}/nodes/{node}/name
	POST   /api/v1/partitions/{partition}/nodes/{node}/pubkey
	PUT    /api/v1/partitions/{partition}/nodes/{node}/pubkey
	DELETE /api/v1/partitions/{partition}/nodes/{node}/profile
	POST   /api/v1/admin/transfer
	POST   /api/v1/admin/withdraw
	POST   /api/v1/admin/snapshot
	POST   /api/v1/admin/restore
	POST   /api/v1/admin/partitions/{partition}/export

# Errors

Failures are returned as api.ErrorResponse. Registry failures carry their
numeric code:

  - InvalidCaller: 403
  - ContractNotExists, PrimaryRecordNotExists: 404
  - NameHasBeenRegistered, and an already existing contract: 409
  - any other registry failure: 400
  - a missing or unrecoverable signature: 401

Anything else is a 500.
*/
package handlers
