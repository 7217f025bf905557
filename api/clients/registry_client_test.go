package clients

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/api"
	"github.com/ruteri/ans-registry/api/handlers"
	"github.com/ruteri/ans-registry/cryptoutils"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/namespace"
	"github.com/ruteri/ans-registry/registrar"
	"github.com/ruteri/ans-registry/resolver"
	"github.com/ruteri/ans-registry/service"
	"github.com/ruteri/ans-registry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) (*httptest.Server, *ecdsa.PrivateKey, *ecdsa.PrivateKey, *ecdsa.PrivateKey) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	adminKey, err := cryptoutils.GenerateKey()
	require.NoError(t, err)
	aliceKey, err := cryptoutils.GenerateKey()
	require.NoError(t, err)
	bobKey, err := cryptoutils.GenerateKey()
	require.NoError(t, err)

	fileBackend, err := storage.NewFileBackend(t.TempDir(), logger)
	require.NoError(t, err)

	cfg := service.DefaultConfig()
	cfg.Admin = cryptoutils.KeyAddress(adminKey)
	cfg.Registrar.RentPrice = 1
	cfg.Registrar.RecordDeposit = 100
	cfg.ResolverDeposit = 10
	cfg.Clock = clock.NewMock()
	cfg.Storage = fileBackend
	cfg.Log = logger

	deployment, err := service.New(context.Background(), cfg)
	require.NoError(t, err)

	mux := chi.NewRouter()
	handlers.NewHandler(deployment, handlers.HandlerConfig{FaucetAmount: uint256.NewInt(1_000_000_000_000)}, logger).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, adminKey, aliceKey, bobKey
}

func TestRegistryClient(t *testing.T) {
	server, adminKey, aliceKey, bobKey := setupServer(t)
	ctx := context.Background()

	alice := NewRegistryClient(server.URL, aliceKey)
	bob := NewRegistryClient(server.URL+"/", bobKey)
	reader := NewRegistryClient(server.URL, nil)

	aliceAddr, err := alice.Address()
	require.NoError(t, err)
	bobAddr, err := bob.Address()
	require.NoError(t, err)

	for _, addr := range []interfaces.Address{aliceAddr, bobAddr} {
		for _, p := range []interfaces.PartitionID{0, 1} {
			_, err := reader.Faucet(ctx, p, addr)
			require.NoError(t, err)
		}
	}

	info, err := reader.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, cryptoutils.KeyAddress(adminKey), info.Admin)
	assert.Len(t, info.Partitions, 2)

	t.Run("read-only client cannot sign", func(t *testing.T) {
		_, err := reader.Register(ctx, api.RegisterRequest{Name: "test"})
		assert.ErrorIs(t, err, ErrNoSigningKey)
		_, err = reader.Address()
		assert.ErrorIs(t, err, ErrNoSigningKey)
	})

	rec, err := alice.Register(ctx, api.RegisterRequest{
		Name:     "test",
		Owner:    aliceAddr,
		Duration: registrar.DefaultMinRegistrationDuration,
	})
	require.NoError(t, err)
	assert.Equal(t, aliceAddr, rec.Record.Owner)
	node := rec.Record.Node

	_, err = bob.Register(ctx, api.RegisterRequest{
		Name:     "test",
		Owner:    bobAddr,
		Duration: registrar.DefaultMinRegistrationDuration,
	})
	require.ErrorIs(t, err, interfaces.ErrNameHasBeenRegistered)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	_, err = bob.SetOwner(ctx, 0, node, bobAddr)
	assert.ErrorIs(t, err, interfaces.ErrInvalidCaller)
	_, err = bob.Renew(ctx, api.RenewRequest{Name: "test", Duration: registrar.DefaultMinRegistrationDuration})
	assert.ErrorIs(t, err, interfaces.ErrInvalidCaller)

	sub, err := alice.RegisterSubName(ctx, api.SubNameRequest{Parent: "test", Label: "pay", Owner: bobAddr})
	require.NoError(t, err)
	renewed, err := bob.RenewSubName(ctx, api.RenewSubNameRequest{Parent: "test", Label: "pay", Duration: registrar.DefaultMinRegistrationDuration})
	require.NoError(t, err)
	assert.Equal(t, sub.Record.TTL+registrar.DefaultMinRegistrationDuration, renewed.Record.TTL)

	require.NoError(t, alice.SetAddress(ctx, 0, node, interfaces.EthChainID, []byte{0xaa}))
	addr, err := reader.GetAddress(ctx, 0, node, interfaces.EthChainID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa}, addr)

	entries, err := reader.GetAddresses(ctx, 0, node)
	require.NoError(t, err)
	assert.Equal(t, []resolver.AddressEntry{{ChainID: interfaces.EthChainID, Address: interfaces.HexBytes{0xaa}}}, entries)

	require.NoError(t, alice.SetName(ctx, 0, node, []byte("Alice")))
	name, err := reader.GetName(ctx, 0, node)
	require.NoError(t, err)
	assert.Equal(t, []byte("Alice"), name)

	_, err = reader.GetPubkey(ctx, 0, node)
	assert.ErrorIs(t, err, interfaces.ErrContractNotExists)

	res, err := reader.Resolve(ctx, 0, "Test")
	require.NoError(t, err)
	assert.Equal(t, "live", res.Status)
	require.NotNil(t, res.Profile)
	assert.Equal(t, interfaces.HexBytes("Alice"), res.Profile.Name)

	token, err := alice.MintToken(ctx, api.TokenRequest{Name: "test"})
	require.NoError(t, err)
	require.NoError(t, alice.TransferToken(ctx, api.TransferTokenRequest{From: 0, To: 1, Recipient: bobAddr, Token: token.Token}))

	held, err := reader.TokenBalance(ctx, 1, token.Token, bobAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), held)

	replica, err := bob.Redeem(ctx, 1, api.RedeemRequest{Name: "test", Owner: bobAddr, Token: token.Token, TTL: token.TTL})
	require.NoError(t, err)
	assert.Equal(t, bobAddr, replica.Record.Owner)

	record, err := reader.Record(ctx, 1, namespace.NameNode([]byte("test")))
	require.NoError(t, err)
	assert.Equal(t, bobAddr, record.Record.Owner)

	events, err := reader.Events(ctx, 0, 0, 1)
	require.NoError(t, err)
	require.Len(t, events.Events, 1)
	assert.Equal(t, uint64(1), events.Next)

	balance, err := reader.Balance(ctx, 1, bobAddr)
	require.NoError(t, err)
	assert.NotEqual(t, "0", balance.Balance)

	_, err = alice.Snapshot(ctx)
	assert.ErrorIs(t, err, interfaces.ErrInvalidCaller)

	admin := NewRegistryClient(server.URL, adminKey)
	manifest, err := admin.Snapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, admin.Restore(ctx, manifest))

	exported, err := admin.ExportEvents(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, interfaces.ContentID{}, exported)

	require.NoError(t, alice.RemoveProfile(ctx, 0, node))
	require.NoError(t, alice.Unregister(ctx, 0, node))
	_, err = reader.Record(ctx, 0, node)
	assert.ErrorIs(t, err, interfaces.ErrContractNotExists)
}

func TestAPIError_Unwrap(t *testing.T) {
	code := interfaces.CodeNameHasExpired
	err := &APIError{StatusCode: http.StatusBadRequest, Message: "expired", Code: &code}
	assert.ErrorIs(t, err, interfaces.ErrNameHasExpired)
	assert.Contains(t, err.Error(), "expired")

	plain := &APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}
	assert.Nil(t, plain.Unwrap())
	assert.Equal(t, "registry returned 500: boom", plain.Error())
}
