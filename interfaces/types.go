package interfaces

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Node is the 256-bit identifier of a name.
type Node [32]byte

// NewNodeFromHex parses a 64-char hex node, with or without 0x prefix.
func NewNodeFromHex(source string) (Node, error) {
	b, err := decodeFixedHex(source, 32)
	if err != nil {
		return Node{}, fmt.Errorf("invalid node: %w", err)
	}
	var n Node
	copy(n[:], b)
	return n, nil
}

// String returns hex representation without prefix.
func (n Node) String() string {
	return strings.TrimPrefix(hexutil.Encode(n[:]), "0x")
}

// Bytes returns the raw 32 bytes.
func (n Node) Bytes() []byte {
	return n[:]
}

func (n Node) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Node) UnmarshalText(text []byte) error {
	parsed, err := NewNodeFromHex(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// ContractID identifies a contract (and every derived sub-record) inside a partition.
type ContractID [32]byte

// NewContractIDFromHex parses a 64-char hex contract id.
func NewContractIDFromHex(source string) (ContractID, error) {
	b, err := decodeFixedHex(source, 32)
	if err != nil {
		return ContractID{}, fmt.Errorf("invalid contract id: %w", err)
	}
	var id ContractID
	copy(id[:], b)
	return id, nil
}

// String returns hex representation without prefix.
func (id ContractID) String() string {
	return strings.TrimPrefix(hexutil.Encode(id[:]), "0x")
}

// IsZero reports whether the id is unset.
func (id ContractID) IsZero() bool {
	return id == ContractID{}
}

// Address returns the contract address of this contract.
func (id ContractID) Address() Address {
	return NewAddress(ContractKind, id)
}

func (id ContractID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ContractID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = ContractID{}
		return nil
	}
	parsed, err := NewContractIDFromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// TokenID identifies a non-fungible token. Credential tokens are identified by the
// id of the marker contract minted for them.
type TokenID = ContractID

// AddressKind distinguishes spendable accounts from contracts.
type AddressKind byte

const (
	// AssetKind is a plain account able to hold and spend assets.
	AssetKind AddressKind = 0x00
	// ContractKind is the address of a contract.
	ContractKind AddressKind = 0x03
)

// Address is a ledger address: one kind byte followed by a 32-byte id.
type Address [33]byte

// NewAddress builds an address of the given kind.
func NewAddress(kind AddressKind, id [32]byte) Address {
	var a Address
	a[0] = byte(kind)
	copy(a[1:], id[:])
	return a
}

// NewAddressFromHex parses a 66-char hex address.
func NewAddressFromHex(source string) (Address, error) {
	b, err := decodeFixedHex(source, 33)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address: %w", err)
	}
	if b[0] != byte(AssetKind) && b[0] != byte(ContractKind) {
		return Address{}, fmt.Errorf("invalid address kind %#x", b[0])
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// Kind returns the address kind.
func (a Address) Kind() AddressKind {
	return AddressKind(a[0])
}

// IsAsset reports whether the address is a plain account.
func (a Address) IsAsset() bool {
	return a.Kind() == AssetKind && !a.IsZero()
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == Address{}
}

// ContractID returns the id part of a contract address.
func (a Address) ContractID() ContractID {
	var id ContractID
	copy(id[:], a[1:])
	return id
}

// String returns hex representation without prefix.
func (a Address) String() string {
	return strings.TrimPrefix(hexutil.Encode(a[:]), "0x")
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = Address{}
		return nil
	}
	parsed, err := NewAddressFromHex(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Amount is a native asset amount in the smallest unit.
type Amount = uint256.Int

// OneALPH returns 10^18 units, the default contract deposit.
func OneALPH() *Amount {
	return uint256.NewInt(1_000_000_000_000_000_000)
}

// PartitionID identifies a ledger partition (shard group).
type PartitionID uint8

// ChainID identifies a foreign chain in the address book.
type ChainID uint16

const (
	// AlphChainID is the chain id used for Alephium addresses.
	AlphChainID ChainID = 1234
	// EthChainID is the chain id used for Ethereum addresses.
	EthChainID ChainID = 60
)

// HexBytes is a byte slice that serializes as unprefixed hex.
type HexBytes []byte

func (b HexBytes) String() string {
	return strings.TrimPrefix(hexutil.Encode(b), "0x")
}

func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *HexBytes) UnmarshalText(text []byte) error {
	decoded, err := hexutil.Decode("0x" + strings.TrimPrefix(string(text), "0x"))
	if err != nil {
		return fmt.Errorf("invalid hex bytes: %w", err)
	}
	*b = decoded
	return nil
}

// Equal compares two byte strings.
func (b HexBytes) Equal(other HexBytes) bool {
	return bytes.Equal(b, other)
}

func decodeFixedHex(source string, size int) ([]byte, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != size*2 {
		return nil, fmt.Errorf("hex string must be %d characters", size*2)
	}
	b, err := hexutil.Decode("0x" + clean)
	if err != nil {
		return nil, errors.New("invalid hex format")
	}
	return b, nil
}
