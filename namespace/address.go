package namespace

import (
	"encoding/binary"

	"github.com/ruteri/ans-registry/interfaces"
	"golang.org/x/crypto/blake2b"
)

// TypeTag distinguishes resolver sub-record kinds in their derivation path.
type TypeTag byte

const (
	AddressInfoTag TypeTag = 0x00
	NameInfoTag    TypeTag = 0x01
	PubkeyInfoTag  TypeTag = 0x02
)

func (t TypeTag) String() string {
	switch t {
	case AddressInfoTag:
		return "AddressInfo"
	case NameInfoTag:
		return "NameInfo"
	case PubkeyInfoTag:
		return "PubkeyInfo"
	default:
		return "unknown"
	}
}

// DeriveSubRecordAddress returns blake2b-256(root ++ path).
func DeriveSubRecordAddress(root interfaces.ContractID, path []byte) interfaces.ContractID {
	buf := make([]byte, 0, len(root)+len(path))
	buf = append(buf, root[:]...)
	buf = append(buf, path...)
	return interfaces.ContractID(blake2b.Sum256(buf))
}

// RecordAddress locates the Record of node under a registrar.
func RecordAddress(registrar interfaces.ContractID, node interfaces.Node) interfaces.ContractID {
	return DeriveSubRecordAddress(registrar, node[:])
}

// TypedPath returns tag ++ node.
func TypedPath(tag TypeTag, node interfaces.Node) []byte {
	path := make([]byte, 0, 1+len(node))
	path = append(path, byte(tag))
	return append(path, node[:]...)
}

// SubRecordAddress locates a typed resolver sub-record of node.
func SubRecordAddress(resolver interfaces.ContractID, tag TypeTag, node interfaces.Node) interfaces.ContractID {
	return DeriveSubRecordAddress(resolver, TypedPath(tag, node))
}

// TokenPath returns node ++ ttl, with ttl as 8 big-endian bytes.
func TokenPath(node interfaces.Node, ttl uint64) []byte {
	path := make([]byte, len(node), len(node)+8)
	copy(path, node[:])
	return binary.BigEndian.AppendUint64(path, ttl)
}

// CredentialTokenID is the id of the token minted by primary for (node, ttl).
func CredentialTokenID(primary interfaces.ContractID, node interfaces.Node, ttl uint64) interfaces.TokenID {
	return DeriveSubRecordAddress(primary, TokenPath(node, ttl))
}
