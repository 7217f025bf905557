package cryptoutils

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/ans-registry/interfaces"
)

// ErrInvalidPubkey is returned when public key bytes cannot be decoded.
var ErrInvalidPubkey = errors.New("invalid secp256k1 public key")

// GenerateKey creates a fresh secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// LoadKey reads a hex encoded private key from path.
func LoadKey(path string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load key %s: %w", path, err)
	}
	return key, nil
}

// SaveKey writes key to path as hex with owner-only permissions.
func SaveKey(path string, key *ecdsa.PrivateKey) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("key file %s already exists", path)
	}
	if err := crypto.SaveECDSA(path, key); err != nil {
		return fmt.Errorf("failed to save key %s: %w", path, err)
	}
	return nil
}

// ParseKey decodes a hex encoded private key, with or without 0x prefix.
func ParseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// CompressedPubkey returns the 33-byte compressed form of the key's public half.
// This is the form stored in pubkey sub-records.
func CompressedPubkey(key *ecdsa.PrivateKey) []byte {
	return crypto.CompressPubkey(&key.PublicKey)
}

// AddressFromPubkey derives the asset address owned by a public key. Both
// compressed (33 bytes) and uncompressed (65 bytes) encodings are accepted and
// map to the same address.
func AddressFromPubkey(pubkey []byte) (interfaces.Address, error) {
	var pub *ecdsa.PublicKey
	var err error
	switch len(pubkey) {
	case 33:
		pub, err = crypto.DecompressPubkey(pubkey)
	case 65:
		pub, err = crypto.UnmarshalPubkey(pubkey)
	default:
		return interfaces.Address{}, ErrInvalidPubkey
	}
	if err != nil {
		return interfaces.Address{}, fmt.Errorf("%w: %v", ErrInvalidPubkey, err)
	}
	return AddressOf(pub), nil
}

// AddressOf derives the asset address of a public key.
func AddressOf(pub *ecdsa.PublicKey) interfaces.Address {
	var id [32]byte
	copy(id[:], crypto.Keccak256(crypto.CompressPubkey(pub)))
	return interfaces.NewAddress(interfaces.AssetKind, id)
}

// KeyAddress is shorthand for AddressOf(&key.PublicKey).
func KeyAddress(key *ecdsa.PrivateKey) interfaces.Address {
	return AddressOf(&key.PublicKey)
}
