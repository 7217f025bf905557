package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ruteri/ans-registry/api"
	"github.com/ruteri/ans-registry/cryptoutils"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleEvents(t *testing.T) {
	env := newTestEnv(t)
	env.register(env.aliceKey, "test")
	env.register(env.bobKey, "other")

	all, err := env.deployment.Events(service.HomePartition, 0, 0)
	require.NoError(t, err)
	require.Greater(t, len(all), 2)

	w := env.do(nil, http.MethodGet, "/api/v1/partitions/0/events?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decodeBody[api.EventsResponse](t, w)
	assert.Equal(t, service.HomePartition, page.Partition)
	require.Len(t, page.Events, 2)
	assert.Equal(t, all[:2], page.Events)
	assert.Equal(t, uint64(2), page.Next)

	w = env.do(nil, http.MethodGet, fmt.Sprintf("/api/v1/partitions/0/events?from=%d", page.Next), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rest := decodeBody[api.EventsResponse](t, w)
	assert.Equal(t, all[2:], rest.Events)
	assert.Equal(t, uint64(len(all)), rest.Next)

	// past the end
	w = env.do(nil, http.MethodGet, fmt.Sprintf("/api/v1/partitions/0/events?from=%d", rest.Next), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decodeBody[api.EventsResponse](t, w).Events)

	w = env.do(nil, http.MethodGet, "/api/v1/partitions/7/events", nil)
	assertError(t, w, http.StatusNotFound, nil)
}

func TestHandleBalance(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(nil, http.MethodGet, fmt.Sprintf("/api/v1/partitions/1/balances/%s", env.alice()), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	balance := decodeBody[api.BalanceResponse](t, w)
	assert.Equal(t, env.alice(), balance.Address)
	assert.Equal(t, "1000000000000", balance.Balance)

	// registering pays rent and the record deposit
	rec := env.register(env.aliceKey, "test")
	w = env.do(nil, http.MethodGet, fmt.Sprintf("/api/v1/partitions/0/balances/%s", env.alice()), nil)
	require.Equal(t, http.StatusOK, w.Code)
	want := 1_000_000_000_000 - rec.Record.TTL - 100
	assert.Equal(t, fmt.Sprint(want), decodeBody[api.BalanceResponse](t, w).Balance)

	stranger := cryptoutils.KeyAddress(newKey(t))
	w = env.do(nil, http.MethodGet, fmt.Sprintf("/api/v1/partitions/0/balances/%s", stranger), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", decodeBody[api.BalanceResponse](t, w).Balance)
}

func TestHandleFaucet(t *testing.T) {
	env := newTestEnv(t)
	stranger := cryptoutils.KeyAddress(newKey(t))

	w := env.do(nil, http.MethodPost, "/api/v1/faucet", api.FaucetRequest{Partition: 1, Address: stranger})
	assert.Equal(t, http.StatusNotFound, w.Code)

	env = newTestEnv(t, withFaucet(5000))

	w = env.do(nil, http.MethodGet, "/api/v1/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeBody[api.DeploymentInfo](t, w).Faucet)

	w = env.do(nil, http.MethodPost, "/api/v1/faucet", api.FaucetRequest{Partition: 1, Address: stranger})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "5000", decodeBody[api.BalanceResponse](t, w).Balance)

	w = env.do(nil, http.MethodPost, "/api/v1/faucet", api.FaucetRequest{Partition: 1, Address: stranger})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "10000", decodeBody[api.BalanceResponse](t, w).Balance)

	contract := service.ContractIDFor(1, service.KindResolver).Address()
	w = env.do(nil, http.MethodPost, "/api/v1/faucet", api.FaucetRequest{Partition: 1, Address: contract})
	assertError(t, w, http.StatusBadRequest, codePtr(interfaces.CodeExpectAssetAddress))

	w = env.do(nil, http.MethodPost, "/api/v1/faucet", api.FaucetRequest{Partition: 9, Address: stranger})
	assertError(t, w, http.StatusNotFound, nil)
}
