package resolver

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ruteri/ans-registry/interfaces"
)

// An address book is a flat byte string of entries
//
//	chainId (2 bytes, big-endian) | len (1 byte) | payload (len bytes)
//
// kept in insertion order, at most one entry per chain id.

const (
	entryHeaderLen = 3
	MaxAddressLen  = 255
)

// AddressEntry is one decoded address book entry.
type AddressEntry struct {
	ChainID interfaces.ChainID  `json:"chainId"`
	Address interfaces.HexBytes `json:"address"`
}

type entrySpan struct {
	chainID interfaces.ChainID
	start   int // offset of the header
	end     int // offset past the payload
}

func scanAddressBook(blob []byte) ([]entrySpan, error) {
	var spans []entrySpan
	seen := make(map[interfaces.ChainID]struct{})
	for offset := 0; offset < len(blob); {
		if len(blob)-offset < entryHeaderLen {
			return nil, fmt.Errorf("%w: truncated address entry header at %d", interfaces.ErrInvalidArgs, offset)
		}
		chainID := interfaces.ChainID(binary.BigEndian.Uint16(blob[offset:]))
		size := int(blob[offset+2])
		end := offset + entryHeaderLen + size
		if size == 0 {
			return nil, fmt.Errorf("%w: empty address for chain %d", interfaces.ErrInvalidArgs, chainID)
		}
		if end > len(blob) {
			return nil, fmt.Errorf("%w: truncated address for chain %d", interfaces.ErrInvalidArgs, chainID)
		}
		if _, dup := seen[chainID]; dup {
			return nil, fmt.Errorf("%w: duplicate entry for chain %d", interfaces.ErrInvalidArgs, chainID)
		}
		seen[chainID] = struct{}{}
		spans = append(spans, entrySpan{chainID: chainID, start: offset, end: end})
		offset = end
	}
	return spans, nil
}

func encodeEntry(chainID interfaces.ChainID, address []byte) []byte {
	entry := make([]byte, entryHeaderLen, entryHeaderLen+len(address))
	binary.BigEndian.PutUint16(entry, uint16(chainID))
	entry[2] = byte(len(address))
	return append(entry, address...)
}

func validateAddress(address []byte) error {
	if len(address) == 0 || len(address) > MaxAddressLen {
		return fmt.Errorf("%w: address must be 1..%d bytes, got %d", interfaces.ErrInvalidArgs, MaxAddressLen, len(address))
	}
	return nil
}

// DecodeAddressBook returns the entries of blob in insertion order.
func DecodeAddressBook(blob []byte) ([]AddressEntry, error) {
	spans, err := scanAddressBook(blob)
	if err != nil {
		return nil, err
	}
	entries := make([]AddressEntry, len(spans))
	for i, s := range spans {
		entries[i] = AddressEntry{
			ChainID: s.chainID,
			Address: bytes.Clone(blob[s.start+entryHeaderLen : s.end]),
		}
	}
	return entries, nil
}

// EncodeAddressBook builds a blob from entries.
func EncodeAddressBook(entries []AddressEntry) ([]byte, error) {
	var blob []byte
	var err error
	for _, e := range entries {
		if blob, err = SetAddressEntry(blob, e.ChainID, e.Address); err != nil {
			return nil, err
		}
	}
	return blob, nil
}

// LookupAddress returns the payload stored for chainID.
func LookupAddress(blob []byte, chainID interfaces.ChainID) ([]byte, bool, error) {
	spans, err := scanAddressBook(blob)
	if err != nil {
		return nil, false, err
	}
	for _, s := range spans {
		if s.chainID == chainID {
			return bytes.Clone(blob[s.start+entryHeaderLen : s.end]), true, nil
		}
	}
	return nil, false, nil
}

// SetAddressEntry returns a new blob with the entry for chainID set to
// address. An existing entry keeps its position: a payload of the same
// length is overwritten in place, a payload of a different length is
// spliced in. A new chain id is appended.
func SetAddressEntry(blob []byte, chainID interfaces.ChainID, address []byte) ([]byte, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}
	spans, err := scanAddressBook(blob)
	if err != nil {
		return nil, err
	}

	for _, s := range spans {
		if s.chainID != chainID {
			continue
		}
		if s.end-s.start-entryHeaderLen == len(address) {
			out := bytes.Clone(blob)
			copy(out[s.start+entryHeaderLen:s.end], address)
			return out, nil
		}
		out := make([]byte, 0, len(blob)-(s.end-s.start)+entryHeaderLen+len(address))
		out = append(out, blob[:s.start]...)
		out = append(out, encodeEntry(chainID, address)...)
		return append(out, blob[s.end:]...), nil
	}

	out := make([]byte, 0, len(blob)+entryHeaderLen+len(address))
	out = append(out, blob...)
	return append(out, encodeEntry(chainID, address)...), nil
}
