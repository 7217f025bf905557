package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/api"
	"github.com/ruteri/ans-registry/cryptoutils"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/service"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

type callerKey struct{}

// HandlerConfig holds the optional features of the registry API.
type HandlerConfig struct {
	// FaucetAmount enables POST /api/v1/faucet when non-nil. Devnet only.
	FaucetAmount *uint256.Int
}

// Handler serves the registry API on top of a deployment.
type Handler struct {
	deployment *service.Deployment
	cfg        HandlerConfig
	log        *slog.Logger
}

// NewHandler creates the registry API handler.
func NewHandler(deployment *service.Deployment, cfg HandlerConfig, log *slog.Logger) *Handler {
	return &Handler{
		deployment: deployment,
		cfg:        cfg,
		log:        log,
	}
}

// RegisterRoutes configures the router with every registry endpoint. Reads are
// public; every mutating endpoint requires a signed request.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/info", h.HandleInfo)

		r.Route("/partitions/{partition}", func(r chi.Router) {
			r.Get("/names/{name}", h.HandleResolve)
			r.Get("/nodes/{node}", h.HandleRecord)
			r.Get("/nodes/{node}/profile", h.HandleProfile)
			r.Get("/nodes/{node}/addresses", h.HandleGetAddresses)
			r.Get("/nodes/{node}/addresses/{chain}", h.HandleGetAddress)
			r.Get("/nodes/{node}/name", h.HandleGetName)
			r.Get("/nodes/{node}/pubkey", h.HandleGetPubkey)
			r.Get("/events", h.HandleEvents)
			r.Get("/balances/{address}", h.HandleBalance)
			r.Get("/tokens/{token}/balances/{address}", h.HandleTokenBalance)

			r.Group(func(r chi.Router) {
				r.Use(h.authenticate)
				r.Post("/redeem", h.HandleRedeem)
				r.Put("/nodes/{node}/owner", h.HandleSetOwner)
				r.Put("/nodes/{node}/resolver", h.HandleSetResolver)
				r.Delete("/nodes/{node}", h.HandleUnregister)
				r.Post("/nodes/{node}/addresses", h.HandleNewAddressInfo)
				r.Put("/nodes/{node}/addresses/{chain}", h.HandleSetAddress)
				r.Post("/nodes/{node}/name", h.HandleNewNameInfo)
				r.Put("/nodes/{node}/name", h.HandleSetName)
				r.Post("/nodes/{node}/pubkey", h.HandleNewPubkeyInfo)
				r.Put("/nodes/{node}/pubkey", h.HandleSetPubkey)
				r.Delete("/nodes/{node}/profile", h.HandleRemoveProfile)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)
			r.Post("/register", h.HandleRegister)
			r.Post("/renew", h.HandleRenew)
			r.Post("/subnames", h.HandleRegisterSubName)
			r.Post("/subnames/renew", h.HandleRenewSubName)
			r.Post("/tokens/mint", h.HandleMintToken)
			r.Post("/tokens/burn", h.HandleBurnToken)
			r.Post("/tokens/transfer", h.HandleTransferToken)
			r.Post("/replicate", h.HandleReplicate)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/transfer", h.HandleUpdateAdmin)
				r.Post("/withdraw", h.HandleWithdraw)
				r.Post("/snapshot", h.HandleSnapshot)
				r.Post("/restore", h.HandleRestore)
				r.Post("/partitions/{partition}/export", h.HandleExportEvents)
			})
		})

		if h.cfg.FaucetAmount != nil {
			r.Post("/faucet", h.HandleFaucet)
		}
	})
}

// authenticate recovers the signer of the request and stores it in the
// request context. The body is read once and restored for the handler.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
		if err != nil {
			h.writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("failed to read request body: %w", err))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		caller, err := cryptoutils.RecoverCaller(r.Header.Get(cryptoutils.SignatureHeader), r.Method, r.URL.RequestURI(), body)
		if err != nil {
			h.log.Warn("Authentication failed", "err", err, "path", r.URL.Path)
			h.writeError(w, http.StatusUnauthorized, err)
			return
		}

		h.log.Debug("Request authenticated", "caller", caller.String(), "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}

// callerFrom returns the authenticated signer of the request.
func callerFrom(r *http.Request) interfaces.Address {
	caller, _ := r.Context().Value(callerKey{}).(interfaces.Address)
	return caller
}

// orCaller defaults an unset owner or payer to the signer.
func orCaller(addr, caller interfaces.Address) interfaces.Address {
	if addr.IsZero() {
		return caller
	}
	return addr
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", interfaces.ErrInvalidArgs, err))
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	resp := api.ErrorResponse{Error: err.Error()}
	if code, ok := interfaces.CodeOf(err); ok {
		resp.Code = &code
	}
	h.writeJSON(w, status, resp)
}

// fail maps err onto a status code and writes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		h.log.Debug("Request rejected", "err", err, "status", status, "path", r.URL.Path)
	}
	h.writeError(w, status, err)
}

// StatusFor maps registry and ledger failures onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrInvalidCaller),
		errors.Is(err, interfaces.ErrNotSigner):
		return http.StatusForbidden
	case errors.Is(err, interfaces.ErrContractNotExists),
		errors.Is(err, interfaces.ErrPrimaryRecordNotExists),
		errors.Is(err, interfaces.ErrUnknownPartition),
		errors.Is(err, interfaces.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrNameHasBeenRegistered),
		errors.Is(err, interfaces.ErrContractExists):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrInsufficientBalance),
		errors.Is(err, interfaces.ErrNoTokenBalance),
		errors.Is(err, interfaces.ErrContractTypeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoStorage):
		return http.StatusServiceUnavailable
	}
	if _, ok := interfaces.CodeOf(err); ok {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) partitionParam(w http.ResponseWriter, r *http.Request) (interfaces.PartitionID, bool) {
	p, err := strconv.ParseUint(chi.URLParam(r, "partition"), 10, 8)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid partition %q", interfaces.ErrInvalidArgs, chi.URLParam(r, "partition")))
		return 0, false
	}
	return interfaces.PartitionID(p), true
}

func (h *Handler) nodeParam(w http.ResponseWriter, r *http.Request) (interfaces.Node, bool) {
	node, err := interfaces.NewNodeFromHex(chi.URLParam(r, "node"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", interfaces.ErrInvalidArgs, err))
		return interfaces.Node{}, false
	}
	return node, true
}

func (h *Handler) addressParam(w http.ResponseWriter, r *http.Request) (interfaces.Address, bool) {
	addr, err := interfaces.NewAddressFromHex(chi.URLParam(r, "address"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", interfaces.ErrInvalidArgs, err))
		return interfaces.Address{}, false
	}
	return addr, true
}

func (h *Handler) chainParam(w http.ResponseWriter, r *http.Request) (interfaces.ChainID, bool) {
	c, err := strconv.ParseUint(chi.URLParam(r, "chain"), 10, 16)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid chain id %q", interfaces.ErrInvalidArgs, chi.URLParam(r, "chain")))
		return 0, false
	}
	return interfaces.ChainID(c), true
}

func (h *Handler) nameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", interfaces.ErrInvalidArgs, err))
		return "", false
	}
	return name, true
}
