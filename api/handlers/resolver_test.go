package handlers

import (
	"net/http"
	"testing"

	"github.com/ruteri/ans-registry/api"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/namespace"
	"github.com/ruteri/ans-registry/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverAddresses(t *testing.T) {
	env := newTestEnv(t)
	env.register(env.aliceKey, "test")
	node := namespace.NameNode([]byte("test"))

	w := env.do(nil, http.MethodGet, nodePath(0, node, "/addresses"), nil)
	assertError(t, w, http.StatusNotFound, codePtr(interfaces.CodeContractNotExists))

	w = env.do(env.bobKey, http.MethodPost, nodePath(0, node, "/addresses"), api.NewAddressInfoRequest{
		Entries: []resolver.AddressEntry{{ChainID: interfaces.AlphChainID, Address: []byte{0x01}}},
	})
	assertError(t, w, http.StatusForbidden, codePtr(interfaces.CodeInvalidCaller))

	w = env.do(env.aliceKey, http.MethodPost, nodePath(0, node, "/addresses"), api.NewAddressInfoRequest{
		Entries: []resolver.AddressEntry{{ChainID: interfaces.AlphChainID, Address: []byte{0x01, 0x02}}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// one address book per node
	w = env.do(env.aliceKey, http.MethodPost, nodePath(0, node, "/addresses"), api.NewAddressInfoRequest{})
	assertError(t, w, http.StatusConflict, nil)

	w = env.do(env.aliceKey, http.MethodPut, nodePath(0, node, "/addresses/60"), api.SetAddressRequest{Address: []byte{0xee, 0xff}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(nil, http.MethodGet, nodePath(0, node, "/addresses/60"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	addr := decodeBody[api.AddressResponse](t, w)
	assert.Equal(t, interfaces.EthChainID, addr.ChainID)
	assert.Equal(t, interfaces.HexBytes{0xee, 0xff}, addr.Address)

	w = env.do(nil, http.MethodGet, nodePath(0, node, "/addresses/1"), nil)
	assertError(t, w, http.StatusNotFound, codePtr(interfaces.CodePrimaryRecordNotExists))

	w = env.do(nil, http.MethodGet, nodePath(0, node, "/addresses"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	entries := decodeBody[[]resolver.AddressEntry](t, w)
	require.Len(t, entries, 2)
	assert.Equal(t, interfaces.AlphChainID, entries[0].ChainID)
	assert.Equal(t, interfaces.EthChainID, entries[1].ChainID)

	w = env.do(env.aliceKey, http.MethodPut, nodePath(0, node, "/addresses/60"), api.SetAddressRequest{})
	assertError(t, w, http.StatusBadRequest, codePtr(interfaces.CodeInvalidArgs))

	w = env.do(env.aliceKey, http.MethodPut, nodePath(0, node, "/addresses/70000"), api.SetAddressRequest{Address: []byte{0x01}})
	assertError(t, w, http.StatusBadRequest, codePtr(interfaces.CodeInvalidArgs))
}

func TestResolverNameAndPubkey(t *testing.T) {
	env := newTestEnv(t)
	env.register(env.aliceKey, "test")
	node := namespace.NameNode([]byte("test"))

	w := env.do(env.aliceKey, http.MethodPost, nodePath(0, node, "/name"), api.ValueRequest{Value: []byte("Alice")})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(env.aliceKey, http.MethodPut, nodePath(0, node, "/name"), api.ValueRequest{Value: []byte("Alice L.")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(nil, http.MethodGet, nodePath(0, node, "/name"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, interfaces.HexBytes("Alice L."), decodeBody[api.ValueResponse](t, w).Value)

	// created empty, so the getter reports it as missing
	w = env.do(env.aliceKey, http.MethodPost, nodePath(0, node, "/pubkey"), api.ValueRequest{})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(nil, http.MethodGet, nodePath(0, node, "/pubkey"), nil)
	assertError(t, w, http.StatusNotFound, codePtr(interfaces.CodePrimaryRecordNotExists))

	w = env.do(env.aliceKey, http.MethodPut, nodePath(0, node, "/pubkey"), api.ValueRequest{Value: []byte{0x02, 0x03}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(nil, http.MethodGet, nodePath(0, node, "/pubkey"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, interfaces.HexBytes{0x02, 0x03}, decodeBody[api.ValueResponse](t, w).Value)

	w = env.do(env.bobKey, http.MethodPut, nodePath(0, node, "/name"), api.ValueRequest{Value: []byte("Mallory")})
	assertError(t, w, http.StatusForbidden, codePtr(interfaces.CodeInvalidCaller))

	w = env.do(nil, http.MethodGet, nodePath(0, node, "/profile"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := decodeBody[resolver.Profile](t, w)
	assert.Equal(t, node, profile.Node)
	assert.Equal(t, interfaces.HexBytes("Alice L."), profile.Name)
	assert.Equal(t, interfaces.HexBytes{0x02, 0x03}, profile.Pubkey)
	assert.Empty(t, profile.Addresses)

	// resolve embeds the profile of the partition resolver
	w = env.do(nil, http.MethodGet, "/api/v1/partitions/0/names/test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeBody[api.ResolveResponse](t, w)
	require.NotNil(t, res.Profile)
	assert.Equal(t, interfaces.HexBytes("Alice L."), res.Profile.Name)
}

func TestResolverRemoveProfile(t *testing.T) {
	env := newTestEnv(t)
	env.register(env.aliceKey, "test")
	node := namespace.NameNode([]byte("test"))

	w := env.do(env.aliceKey, http.MethodPut, nodePath(0, node, "/name"), api.ValueRequest{Value: []byte("Alice")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(env.bobKey, http.MethodDelete, nodePath(0, node, "/profile"), nil)
	assertError(t, w, http.StatusForbidden, codePtr(interfaces.CodeInvalidCaller))

	w = env.do(env.aliceKey, http.MethodDelete, nodePath(0, node, "/profile"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(nil, http.MethodGet, nodePath(0, node, "/name"), nil)
	assertError(t, w, http.StatusNotFound, codePtr(interfaces.CodeContractNotExists))

	// the record itself survives
	w = env.do(nil, http.MethodGet, nodePath(0, node, ""), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
