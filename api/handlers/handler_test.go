package handlers

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/api"
	"github.com/ruteri/ans-registry/cryptoutils"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/registrar"
	"github.com/ruteri/ans-registry/service"
	"github.com/ruteri/ans-registry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	t          *testing.T
	deployment *service.Deployment
	clock      *clock.Mock
	mux        *chi.Mux

	adminKey *ecdsa.PrivateKey
	aliceKey *ecdsa.PrivateKey
	bobKey   *ecdsa.PrivateKey
}

type envOption func(*service.Config, *HandlerConfig)

func withoutStorage() envOption {
	return func(cfg *service.Config, _ *HandlerConfig) { cfg.Storage = nil }
}

func withFaucet(amount uint64) envOption {
	return func(_ *service.Config, hc *HandlerConfig) { hc.FaucetAmount = uint256.NewInt(amount) }
}

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := cryptoutils.GenerateKey()
	require.NoError(t, err)
	return key
}

// newTestEnv deploys two secondaries and funds alice and bob everywhere.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fileBackend, err := storage.NewFileBackend(t.TempDir(), logger)
	require.NoError(t, err)

	env := &testEnv{
		t:        t,
		clock:    clock.NewMock(),
		adminKey: newKey(t),
		aliceKey: newKey(t),
		bobKey:   newKey(t),
	}

	cfg := service.Config{
		Secondaries: 2,
		Admin:       cryptoutils.KeyAddress(env.adminKey),
		Registrar: registrar.Config{
			MinRegistrationDuration: registrar.DefaultMinRegistrationDuration,
			RentPrice:               1,
			RecordDeposit:           100,
		},
		ResolverDeposit: 10,
		Clock:           env.clock,
		Storage:         fileBackend,
		Log:             logger,
	}
	var handlerCfg HandlerConfig
	for _, opt := range opts {
		opt(&cfg, &handlerCfg)
	}

	env.deployment, err = service.New(context.Background(), cfg)
	require.NoError(t, err)
	for _, p := range env.deployment.Partitions() {
		for _, key := range []*ecdsa.PrivateKey{env.aliceKey, env.bobKey} {
			require.NoError(t, env.deployment.Credit(context.Background(), p, cryptoutils.KeyAddress(key), uint256.NewInt(1_000_000_000_000)))
		}
	}

	env.mux = chi.NewRouter()
	NewHandler(env.deployment, handlerCfg, logger).RegisterRoutes(env.mux)
	return env
}

func (e *testEnv) alice() interfaces.Address { return cryptoutils.KeyAddress(e.aliceKey) }
func (e *testEnv) bob() interfaces.Address   { return cryptoutils.KeyAddress(e.bobKey) }

// do sends a request signed by key, or an unsigned one when key is nil.
func (e *testEnv) do(key *ecdsa.PrivateKey, method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(e.t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if key != nil {
		require.NoError(e.t, cryptoutils.SignRequest(key, req, payload))
	}

	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

// register registers name for the owner of key with the minimum duration.
func (e *testEnv) register(key *ecdsa.PrivateKey, name string) api.RecordResponse {
	e.t.Helper()
	w := e.do(key, http.MethodPost, "/api/v1/register", api.RegisterRequest{
		Name:     name,
		Owner:    cryptoutils.KeyAddress(key),
		Duration: registrar.DefaultMinRegistrationDuration,
	})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	return decodeBody[api.RecordResponse](e.t, w)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// assertError checks the status and the registry code of a failed request.
func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, code *interfaces.ErrorCode) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	resp := decodeBody[api.ErrorResponse](t, w)
	assert.NotEmpty(t, resp.Error)
	assert.Equal(t, code, resp.Code)
}

func codePtr(c interfaces.ErrorCode) *interfaces.ErrorCode { return &c }

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	body := api.RegisterRequest{Name: "test", Owner: env.alice(), Duration: registrar.DefaultMinRegistrationDuration}

	t.Run("missing signature", func(t *testing.T) {
		w := env.do(nil, http.MethodPost, "/api/v1/register", body)
		assertError(t, w, http.StatusUnauthorized, nil)
	})

	t.Run("malformed signature", func(t *testing.T) {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/register", bytes.NewReader(payload))
		req.Header.Set(cryptoutils.SignatureHeader, "0xnothex")
		w := httptest.NewRecorder()
		env.mux.ServeHTTP(w, req)
		assertError(t, w, http.StatusUnauthorized, nil)
	})

	t.Run("signature over another body", func(t *testing.T) {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/register", bytes.NewReader(payload))
		require.NoError(t, cryptoutils.SignRequest(env.aliceKey, req, []byte(`{}`)))
		w := httptest.NewRecorder()
		env.mux.ServeHTTP(w, req)

		// recovers some unrelated caller, which does not own the funds
		assert.NotEqual(t, http.StatusOK, w.Code)
	})

	t.Run("reads are public", func(t *testing.T) {
		w := env.do(nil, http.MethodGet, "/api/v1/info", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHandleInfo(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(nil, http.MethodGet, "/api/v1/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeBody[api.DeploymentInfo](t, w)

	assert.Equal(t, cryptoutils.KeyAddress(env.adminKey), info.Admin)
	assert.Equal(t, registrar.DefaultMinRegistrationDuration, info.MinRegistrationDuration)
	assert.Equal(t, service.ContractIDFor(service.HomePartition, service.KindResolver), info.DefaultResolver)
	assert.False(t, info.Faucet)
	require.Len(t, info.Partitions, 3)
	assert.True(t, info.Partitions[0].Primary)
	assert.Equal(t, service.ContractIDFor(0, service.KindPrimary), info.Partitions[0].Registrar)
	assert.Equal(t, service.ContractIDFor(2, service.KindSecondary), info.Partitions[2].Registrar)
	assert.Equal(t, service.ContractIDFor(2, service.KindResolver), info.Partitions[2].Resolver)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{interfaces.ErrInvalidCaller, http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", interfaces.ErrInvalidCaller), http.StatusForbidden},
		{interfaces.ErrNotSigner, http.StatusForbidden},
		{interfaces.ErrContractNotExists, http.StatusNotFound},
		{interfaces.ErrPrimaryRecordNotExists, http.StatusNotFound},
		{interfaces.ErrUnknownPartition, http.StatusNotFound},
		{interfaces.ErrContentNotFound, http.StatusNotFound},
		{interfaces.ErrNameHasBeenRegistered, http.StatusConflict},
		{interfaces.ErrContractExists, http.StatusConflict},
		{interfaces.ErrInsufficientBalance, http.StatusBadRequest},
		{interfaces.ErrNoTokenBalance, http.StatusBadRequest},
		{interfaces.ErrNameHasExpired, http.StatusBadRequest},
		{interfaces.ErrInvalidCredentialToken, http.StatusBadRequest},
		{service.ErrNoStorage, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestInvalidParams(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/v1/partitions/300/names/test",
		"/api/v1/partitions/x/events",
		"/api/v1/partitions/0/nodes/abcd",
		"/api/v1/partitions/0/balances/0x00",
		"/api/v1/partitions/0/events?limit=0",
		"/api/v1/partitions/0/events?from=-1",
	} {
		w := env.do(nil, http.MethodGet, path, nil)
		assertError(t, w, http.StatusBadRequest, codePtr(interfaces.CodeInvalidArgs))
	}

	// unknown fields are rejected
	w := env.do(env.aliceKey, http.MethodPost, "/api/v1/register", map[string]any{"name": "test", "extra": 1})
	assertError(t, w, http.StatusBadRequest, codePtr(interfaces.CodeInvalidArgs))

	// partition out of the deployment
	w = env.do(nil, http.MethodGet, "/api/v1/partitions/9/names/test", nil)
	assertError(t, w, http.StatusNotFound, nil)
}
