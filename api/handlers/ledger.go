package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/ans-registry/api"
	"github.com/ruteri/ans-registry/interfaces"
)

const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

func invalidAmount(amount string, err error) error {
	return fmt.Errorf("%w: invalid amount %q: %v", interfaces.ErrInvalidArgs, amount, err)
}

// HandleEvents lists committed events of a partition.
//
// URL format: GET /api/v1/partitions/{partition}/events?from=N&limit=M
// Response: api.EventsResponse; Next is the from value of the following page.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	partition, ok := h.partitionParam(w, r)
	if !ok {
		return
	}

	var from uint64
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid from %q", interfaces.ErrInvalidArgs, v))
			return
		}
		from = parsed
	}
	limit := defaultEventsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid limit %q", interfaces.ErrInvalidArgs, v))
			return
		}
		limit = min(parsed, maxEventsLimit)
	}

	events, err := h.deployment.Events(partition, from, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.EventsResponse{
		Partition: partition,
		Events:    events,
		Next:      from + uint64(len(events)),
	})
}

// HandleBalance returns the native balance of an address.
//
// URL format: GET /api/v1/partitions/{partition}/balances/{address}
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	partition, ok := h.partitionParam(w, r)
	if !ok {
		return
	}
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}

	balance, err := h.deployment.Balance(partition, addr)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.BalanceResponse{Partition: partition, Address: addr, Balance: balance.Dec()})
}

// HandleTokenBalance returns how many units of a token an address holds.
//
// URL format: GET /api/v1/partitions/{partition}/tokens/{token}/balances/{address}
func (h *Handler) HandleTokenBalance(w http.ResponseWriter, r *http.Request) {
	partition, ok := h.partitionParam(w, r)
	if !ok {
		return
	}
	addr, ok := h.addressParam(w, r)
	if !ok {
		return
	}
	token, err := interfaces.NewContractIDFromHex(chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", interfaces.ErrInvalidArgs, err))
		return
	}

	balance, err := h.deployment.TokenBalance(partition, addr, token)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.TokenBalanceResponse{Partition: partition, Address: addr, Token: token, Balance: balance})
}

// HandleFaucet credits the configured amount to an asset address. Devnet only.
//
// URL format: POST /api/v1/faucet
// Request body: api.FaucetRequest
func (h *Handler) HandleFaucet(w http.ResponseWriter, r *http.Request) {
	var req api.FaucetRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !req.Address.IsAsset() {
		h.fail(w, r, interfaces.ErrExpectAssetAddress)
		return
	}

	if err := h.deployment.Credit(r.Context(), req.Partition, req.Address, h.cfg.FaucetAmount); err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info("Faucet credited", "partition", req.Partition, "address", req.Address.String(), "amount", h.cfg.FaucetAmount.Dec())

	balance, err := h.deployment.Balance(req.Partition, req.Address)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.BalanceResponse{Partition: req.Partition, Address: req.Address, Balance: balance.Dec()})
}

// requireAdmin rejects callers other than the primary registry admin.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	st, err := h.deployment.Primary().State()
	if err != nil {
		h.fail(w, r, err)
		return false
	}
	if caller := callerFrom(r); caller != st.Admin {
		h.fail(w, r, fmt.Errorf("%w: %s is not the registry admin", interfaces.ErrInvalidCaller, caller))
		return false
	}
	return true
}

// HandleSnapshot stores every partition and returns the manifest id.
//
// URL format: POST /api/v1/admin/snapshot
// Response: api.ContentResponse
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, err := h.deployment.Snapshot(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.ContentResponse{ID: id})
}

// HandleRestore replaces every partition with a stored snapshot.
//
// URL format: POST /api/v1/admin/restore
// Request body: api.RestoreRequest
func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req api.RestoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.deployment.Restore(r.Context(), req.Manifest); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "restored"})
}

// HandleExportEvents stores the event log of a partition.
//
// URL format: POST /api/v1/admin/partitions/{partition}/export
// Response: api.ContentResponse
func (h *Handler) HandleExportEvents(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	partition, ok := h.partitionParam(w, r)
	if !ok {
		return
	}
	id, err := h.deployment.ExportEvents(r.Context(), partition)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.ContentResponse{ID: id})
}
