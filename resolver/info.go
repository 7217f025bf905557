package resolver

import (
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/ledger"
	"github.com/ruteri/ans-registry/namespace"
)

func init() {
	ledger.RegisterState[State]()
	ledger.RegisterState[AddressInfo]()
	ledger.RegisterState[NameInfo]()
	ledger.RegisterState[PubkeyInfo]()
}

// State is the resolver contract itself.
type State struct {
	Registrar interfaces.ContractID `json:"registrar"`
	Deposit   uint64                `json:"deposit"`
}

func (State) StateKind() string { return "ans.Resolver" }

type AddressInfo struct {
	Parent        interfaces.ContractID `json:"parent"`
	Node          interfaces.Node       `json:"node"`
	RefundAddress interfaces.Address    `json:"refundAddress"`
	Addresses     interfaces.HexBytes   `json:"addresses"`
}

func (AddressInfo) StateKind() string { return "ans.AddressInfo" }

type NameInfo struct {
	Parent        interfaces.ContractID `json:"parent"`
	Node          interfaces.Node       `json:"node"`
	RefundAddress interfaces.Address    `json:"refundAddress"`
	Name          interfaces.HexBytes   `json:"name"`
}

func (NameInfo) StateKind() string { return "ans.NameInfo" }

type PubkeyInfo struct {
	Parent        interfaces.ContractID `json:"parent"`
	Node          interfaces.Node       `json:"node"`
	RefundAddress interfaces.Address    `json:"refundAddress"`
	Pubkey        interfaces.HexBytes   `json:"pubkey"`
}

func (PubkeyInfo) StateKind() string { return "ans.PubkeyInfo" }

// Profile is every sub-record of a node, for reads.
type Profile struct {
	Node      interfaces.Node     `json:"node"`
	Addresses []AddressEntry      `json:"addresses,omitempty"`
	Name      interfaces.HexBytes `json:"name,omitempty"`
	Pubkey    interfaces.HexBytes `json:"pubkey,omitempty"`
}

type subRecord struct {
	tag     namespace.TypeTag
	removed string
}

var subRecords = []subRecord{
	{tag: namespace.AddressInfoTag, removed: interfaces.EventAddressInfoRemoved},
	{tag: namespace.NameInfoTag, removed: interfaces.EventNameInfoRemoved},
	{tag: namespace.PubkeyInfoTag, removed: interfaces.EventPubkeyInfoRemoved},
}

func refundAddressOf(st ledger.State) interfaces.Address {
	switch info := st.(type) {
	case AddressInfo:
		return info.RefundAddress
	case NameInfo:
		return info.RefundAddress
	case PubkeyInfo:
		return info.RefundAddress
	default:
		return interfaces.Address{}
	}
}
