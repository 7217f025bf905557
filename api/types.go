package api

import (
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/record"
	"github.com/ruteri/ans-registry/resolver"
)

// ErrorResponse is the body of every failed request. Code is set for
// registry failures only.
type ErrorResponse struct {
	Error string                `json:"error"`
	Code  *interfaces.ErrorCode `json:"code,omitempty"`
}

// PartitionInfo describes the contracts deployed on one partition.
type PartitionInfo struct {
	Partition interfaces.PartitionID `json:"partition"`
	Registrar interfaces.ContractID  `json:"registrar"`
	Resolver  interfaces.ContractID  `json:"resolver"`
	Primary   bool                   `json:"primary"`
}

// DeploymentInfo is returned by GET /api/v1/info.
type DeploymentInfo struct {
	Admin                   interfaces.Address    `json:"admin"`
	MinRegistrationDuration uint64                `json:"minRegistrationDuration"`
	RentPrice               uint64                `json:"rentPrice"`
	RecordDeposit           uint64                `json:"recordDeposit"`
	DefaultResolver         interfaces.ContractID `json:"defaultResolver"`
	Partitions              []PartitionInfo       `json:"partitions"`
	Faucet                  bool                  `json:"faucet"`
}

// RecordResponse is a record with its derived status.
type RecordResponse struct {
	Partition interfaces.PartitionID `json:"partition"`
	Record    record.Record          `json:"record"`
	Status    string                 `json:"status"`
}

// ResolveResponse is a record, its status and its profile.
type ResolveResponse struct {
	Partition interfaces.PartitionID `json:"partition"`
	Name      string                 `json:"name"`
	Record    record.Record          `json:"record"`
	Status    string                 `json:"status"`
	Profile   *resolver.Profile      `json:"profile,omitempty"`
}

// RegisterRequest registers a top-level name on the primary registry.
type RegisterRequest struct {
	Name     string             `json:"name"`
	Owner    interfaces.Address `json:"owner"`
	Duration uint64             `json:"duration"`
	// Owner and Payer default to the signer.
	Payer interfaces.Address `json:"payer"`
}

// RenewRequest extends the lease of a live name.
type RenewRequest struct {
	Name     string             `json:"name"`
	Duration uint64             `json:"duration"`
	Payer    interfaces.Address `json:"payer"`
}

// SubNameRequest registers label under a name the signer owns.
type SubNameRequest struct {
	Parent string             `json:"parent"`
	Label  string             `json:"label"`
	Owner  interfaces.Address `json:"owner"`
	Payer  interfaces.Address `json:"payer"`
}

// RenewSubNameRequest extends the ttl of a subname the signer owns.
type RenewSubNameRequest struct {
	Parent   string             `json:"parent"`
	Label    string             `json:"label"`
	Duration uint64             `json:"duration"`
	Payer    interfaces.Address `json:"payer"`
}

// TokenRequest mints or burns the credential token of a name's current lease.
type TokenRequest struct {
	Name  string             `json:"name"`
	Payer interfaces.Address `json:"payer"`
}

// TokenResponse describes a minted credential token.
type TokenResponse struct {
	Token interfaces.TokenID `json:"token"`
	Name  string             `json:"name"`
	Node  interfaces.Node    `json:"node"`
	TTL   uint64             `json:"ttl"`
}

// TransferTokenRequest moves a token the signer holds, possibly to another partition.
type TransferTokenRequest struct {
	From      interfaces.PartitionID `json:"from"`
	To        interfaces.PartitionID `json:"to"`
	Recipient interfaces.Address     `json:"recipient"`
	Token     interfaces.TokenID     `json:"token"`
}

// RedeemRequest registers a name on a secondary partition with a credential
// token. Owner and Payer default to the signer; a zero Resolver selects the
// resolver of the partition.
type RedeemRequest struct {
	Name     string                `json:"name"`
	Owner    interfaces.Address    `json:"owner"`
	Payer    interfaces.Address    `json:"payer"`
	Token    interfaces.TokenID    `json:"token"`
	TTL      uint64                `json:"ttl"`
	Resolver interfaces.ContractID `json:"resolver"`
}

// ReplicateRequest mints, moves and redeems a name's token in one call.
type ReplicateRequest struct {
	Name      string                 `json:"name"`
	Partition interfaces.PartitionID `json:"partition"`
}

// SetOwnerRequest transfers a record.
type SetOwnerRequest struct {
	Owner interfaces.Address `json:"owner"`
}

// SetResolverRequest points a record at another resolver.
type SetResolverRequest struct {
	Resolver interfaces.ContractID `json:"resolver"`
}

// UpdateAdminRequest hands the primary registry to a new admin.
type UpdateAdminRequest struct {
	Admin interfaces.Address `json:"admin"`
}

// WithdrawRequest moves collected rent out of the primary registry.
// Amount is a decimal string.
type WithdrawRequest struct {
	To     interfaces.Address `json:"to"`
	Amount string             `json:"amount"`
}

// NewAddressInfoRequest creates the address sub-record of a node.
type NewAddressInfoRequest struct {
	Payer   interfaces.Address      `json:"payer"`
	Entries []resolver.AddressEntry `json:"entries"`
}

// SetAddressRequest updates one chain entry of the address sub-record.
type SetAddressRequest struct {
	Address interfaces.HexBytes `json:"address"`
}

// AddressResponse is one chain entry.
type AddressResponse struct {
	ChainID interfaces.ChainID  `json:"chainId"`
	Address interfaces.HexBytes `json:"address"`
}

// ValueRequest creates or updates the name or pubkey sub-record of a node.
// Payer is only used on creation.
type ValueRequest struct {
	Payer interfaces.Address  `json:"payer"`
	Value interfaces.HexBytes `json:"value"`
}

// ValueResponse is the content of a name or pubkey sub-record.
type ValueResponse struct {
	Value interfaces.HexBytes `json:"value"`
}

// EventsResponse lists committed events of a partition.
type EventsResponse struct {
	Partition interfaces.PartitionID `json:"partition"`
	Events    []interfaces.Event     `json:"events"`
	Next      uint64                 `json:"next"`
}

// BalanceResponse is a native balance as a decimal string.
type BalanceResponse struct {
	Partition interfaces.PartitionID `json:"partition"`
	Address   interfaces.Address     `json:"address"`
	Balance   string                 `json:"balance"`
}

// TokenBalanceResponse is how many units of a token an address holds.
type TokenBalanceResponse struct {
	Partition interfaces.PartitionID `json:"partition"`
	Address   interfaces.Address     `json:"address"`
	Token     interfaces.TokenID     `json:"token"`
	Balance   uint64                 `json:"balance"`
}

// FaucetRequest credits devnet funds.
type FaucetRequest struct {
	Partition interfaces.PartitionID `json:"partition"`
	Address   interfaces.Address     `json:"address"`
}

// RestoreRequest restores every partition from a snapshot manifest.
type RestoreRequest struct {
	Manifest interfaces.ContentID `json:"manifest"`
}

// ContentResponse names stored content.
type ContentResponse struct {
	ID interfaces.ContentID `json:"id"`
}

// StatusResponse is returned by operations without a result.
type StatusResponse struct {
	Status string `json:"status"`
}
