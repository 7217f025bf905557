package resolver

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAddressEntry_AppendsInInsertionOrder(t *testing.T) {
	blob, err := SetAddressEntry(nil, interfaces.EthChainID, []byte{0xaa, 0xbb})
	require.NoError(t, err)
	blob, err = SetAddressEntry(blob, interfaces.AlphChainID, []byte{0x01})
	require.NoError(t, err)

	// 003c 02 aabb | 04d2 01 01
	assert.Equal(t, "0x003c02aabb04d20101", hexutil.Encode(blob))

	entries, err := DecodeAddressBook(blob)
	require.NoError(t, err)
	assert.Equal(t, []AddressEntry{
		{ChainID: interfaces.EthChainID, Address: []byte{0xaa, 0xbb}},
		{ChainID: interfaces.AlphChainID, Address: []byte{0x01}},
	}, entries)
}

func TestSetAddressEntry_SameLengthOverwritesInPlace(t *testing.T) {
	blob, err := EncodeAddressBook([]AddressEntry{
		{ChainID: 1, Address: []byte{0x11, 0x11}},
		{ChainID: 2, Address: []byte{0x22}},
	})
	require.NoError(t, err)
	original := bytes.Clone(blob)

	updated, err := SetAddressEntry(blob, 1, []byte{0x33, 0x33})
	require.NoError(t, err)
	assert.Equal(t, "0x000102333300020122", hexutil.Encode(updated))

	// the input blob is never modified
	assert.Equal(t, original, blob)
}

func TestSetAddressEntry_MixedLengthSplicesAtSamePosition(t *testing.T) {
	blob, err := EncodeAddressBook([]AddressEntry{
		{ChainID: 1, Address: []byte{0x11}},
		{ChainID: 2, Address: []byte{0x22, 0x22}},
		{ChainID: 3, Address: []byte{0x33}},
	})
	require.NoError(t, err)

	// grow the middle entry
	grown, err := SetAddressEntry(blob, 2, []byte{0x44, 0x44, 0x44, 0x44})
	require.NoError(t, err)
	assert.Equal(t, "0x000101110002044444444400030133", hexutil.Encode(grown))

	// shrink it again
	shrunk, err := SetAddressEntry(grown, 2, []byte{0x55})
	require.NoError(t, err)
	assert.Equal(t, "0x000101110002015500030133", hexutil.Encode(shrunk))

	entries, err := DecodeAddressBook(shrunk)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, interfaces.ChainID(2), entries[1].ChainID)
	assert.Equal(t, interfaces.HexBytes{0x55}, entries[1].Address)

	// every other entry is untouched
	for _, chain := range []interfaces.ChainID{1, 3} {
		before, found, err := LookupAddress(blob, chain)
		require.NoError(t, err)
		require.True(t, found)
		after, found, err := LookupAddress(shrunk, chain)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, before, after)
	}
}

func TestSetAddressEntry_InvalidPayload(t *testing.T) {
	_, err := SetAddressEntry(nil, 1, nil)
	assert.ErrorIs(t, err, interfaces.ErrInvalidArgs)

	_, err = SetAddressEntry(nil, 1, make([]byte, MaxAddressLen+1))
	assert.ErrorIs(t, err, interfaces.ErrInvalidArgs)

	blob, err := SetAddressEntry(nil, 1, make([]byte, MaxAddressLen))
	require.NoError(t, err)
	assert.Len(t, blob, entryHeaderLen+MaxAddressLen)
}

func TestDecodeAddressBook_Malformed(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "truncated header", blob: "0x0001"},
		{name: "truncated payload", blob: "0x00010211"},
		{name: "zero length entry", blob: "0x000100"},
		{name: "duplicate chain", blob: "0x00010111000101ff"},
		{name: "trailing garbage", blob: "0x0001011100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := hexutil.MustDecode(tt.blob)
			_, err := DecodeAddressBook(blob)
			assert.ErrorIs(t, err, interfaces.ErrInvalidArgs)

			_, _, err = LookupAddress(blob, 1)
			assert.ErrorIs(t, err, interfaces.ErrInvalidArgs)

			_, err = SetAddressEntry(blob, 9, []byte{1})
			assert.ErrorIs(t, err, interfaces.ErrInvalidArgs)
		})
	}
}

func TestLookupAddress(t *testing.T) {
	blob, err := EncodeAddressBook([]AddressEntry{{ChainID: 7, Address: []byte{0x01, 0x02}}})
	require.NoError(t, err)

	address, found, err := LookupAddress(blob, 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte{0x01, 0x02}, address)

	_, found, err = LookupAddress(blob, 8)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = LookupAddress(nil, 8)
	require.NoError(t, err)
	assert.False(t, found)
}
