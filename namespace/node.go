package namespace

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/ans-registry/interfaces"
)

// RootNode is the parent of every top-level name.
var RootNode = interfaces.Node{
	0xb2, 0x45, 0x3c, 0xba, 0xbd, 0x12, 0xc5, 0x8b, 0x21, 0xd3, 0x2b, 0x6c, 0x70, 0xe6, 0xc4, 0x1c,
	0x8c, 0xa2, 0x91, 0x8d, 0x7f, 0x56, 0xc1, 0xb8, 0x8e, 0x83, 0x8e, 0xdf, 0x16, 0x87, 0x76, 0xbf,
}

// MaxNameLength bounds a single label in bytes.
const MaxNameLength = 253

// LabelHash returns keccak256(label).
func LabelHash(label []byte) [32]byte {
	var out [32]byte
	copy(out[:], crypto.Keccak256(label))
	return out
}

// DeriveNode returns keccak256(parent ++ label). label must be a 32-byte label hash.
func DeriveNode(parent interfaces.Node, label []byte) (interfaces.Node, error) {
	if len(label) != 32 {
		return interfaces.Node{}, fmt.Errorf("%w: label hash must be 32 bytes, got %d", interfaces.ErrInvalidArgs, len(label))
	}
	var node interfaces.Node
	copy(node[:], crypto.Keccak256(parent[:], label))
	return node, nil
}

// NameNode returns the node of a top-level name.
func NameNode(name []byte) interfaces.Node {
	label := LabelHash(name)
	node, _ := DeriveNode(RootNode, label[:])
	return node
}

// SubNameNode returns the node of a label directly below parent.
func SubNameNode(parent interfaces.Node, label []byte) interfaces.Node {
	hash := LabelHash(label)
	node, _ := DeriveNode(parent, hash[:])
	return node
}

// NormalizeName lowercases and trims a name, rejecting empty names, names
// containing dots and names longer than MaxNameLength bytes.
func NormalizeName(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch {
	case normalized == "":
		return "", fmt.Errorf("%w: empty name", interfaces.ErrInvalidArgs)
	case strings.Contains(normalized, "."):
		return "", fmt.Errorf("%w: name %q must be a single label", interfaces.ErrInvalidArgs, name)
	case len(normalized) > MaxNameLength:
		return "", fmt.Errorf("%w: name longer than %d bytes", interfaces.ErrInvalidArgs, MaxNameLength)
	}
	return normalized, nil
}
