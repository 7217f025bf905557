package handlers

import (
	"net/http"

	"github.com/ruteri/ans-registry/api"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/resolver"
)

func (h *Handler) resolverTarget(w http.ResponseWriter, r *http.Request) (interfaces.Node, *resolver.Resolver, bool) {
	partition, ok := h.partitionParam(w, r)
	if !ok {
		return interfaces.Node{}, nil, false
	}
	node, ok := h.nodeParam(w, r)
	if !ok {
		return interfaces.Node{}, nil, false
	}
	res, err := h.deployment.Resolver(partition)
	if err != nil {
		h.fail(w, r, err)
		return interfaces.Node{}, nil, false
	}
	return node, res, true
}

// HandleProfile returns every sub-record of a node.
//
// URL format: GET /api/v1/partitions/{partition}/nodes/{node}/profile
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	node, res, ok := h.resolverTarget(w, r)
	if !ok {
		return
	}
	profile, err := res.Profile(node)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

// HandleGetAddresses returns the whole address book of a node.
//
// URL format: GET /api/v1/partitions/{partition}/nodes/{node}/addresses
func (h *Handler) HandleGetAddresses(w http.ResponseWriter, r *http.Request) {
	node, res, ok := h.resolverTarget(w, r)
	if !ok {
		return
	}
	entries, err := res.GetAddresses(node)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// HandleGetAddress returns the address of a node on one chain.
//
// URL format: GET /api/v1/partitions/{partition}/nodes/{node}/addresses/{chain}
func (h *Handler) HandleGetAddress(w http.ResponseWriter, r *http.Request) {
	node, res, ok := h.resolverTarget(w, r)
	if !ok {
		return
	}
	chainID, ok := h.chainParam(w, r)
	if !ok {
		return
	}
	addr, err := res.GetAddress(node, chainID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.AddressResponse{ChainID: chainID, Address: addr})
}

// HandleGetName returns the name sub-record of a node.
//
// URL format: GET /api/v1/partitions/{partition}/nodes/{node}/name
func (h *Handler) HandleGetName(w http.ResponseWriter, r *http.Request) {
	node, res, ok := h.resolverTarget(w, r)
	if !ok {
		return
	}
	name, err := res.GetName(node)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.ValueResponse{Value: name})
}

// HandleGetPubkey returns the pubkey sub-record of a node.
//
// URL format: GET /api/v1/partitions/{partition}/nodes/{node}/pubkey
func (h *Handler) HandleGetPubkey(w http.ResponseWriter, r *http.Request) {
	node, res, ok := h.resolverTarget(w, r)
	if !ok {
		return
	}
	pubkey, err := res.GetPubkey(node)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.ValueResponse{Value: pubkey})
}

// HandleNewAddressInfo creates the address sub-record of a node.
//
// URL format: POST /api/v1/partitions/{partition}/nodes/{node}/addresses
// Request body: api.NewAddressInfoRequest
func (h *Handler) HandleNewAddressInfo(w http.ResponseWriter, r *http.Request) {
	node, res, ok := h.resolverTarget(w, r)
	if !ok {
		return
	}
	var req api.NewAddressInfoRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := callerFrom(r)

	if err := res.NewAddressInfo(r.Context(), caller, node, orCaller(req.Payer, caller), req.Entries); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, api.StatusResponse{Status: "created"})
}

// HandleSetAddress sets the address of a node on one chain.
//
// URL format: PUT /api/v1/partitions/{partition}/nodes/{node}/addresses/{chain}
// Request body: api.SetAddressRequest
func (h *Handler) HandleSetAddress(w http.ResponseWriter, r *http.Request) {
	node, res, ok := h.resolverTarget(w, r)
	if !ok {
		return
	}
	chainID, ok := h.chainParam(w, r)
	if !ok {
		return
	}
	var req api.SetAddressRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := res.SetAddress(r.Context(), callerFrom(r), node, chainID, req.Address); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "updated"})
}

// HandleNewNameInfo creates the name sub-record of a node.
//
// URL format: POST /api/v1/partitions/{partition}/nodes/{node}/name
// Request body: api.ValueRequest
func (h *Handler) HandleNewNameInfo(w http.ResponseWriter, r *http.Request) {
	node, res, ok := h.resolverTarget(w, r)
	if !ok {
		return
	}
	var req api.ValueRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := callerFrom(r)

	if err := res.NewNameInfo(r.Context(), caller, node, orCaller(req.Payer, caller), req.Value); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, api.StatusResponse{Status: "created"})
}

// HandleSetName updates the name sub-record of a node.
//
// URL format: PUT /api/v1/partitions/{partition}/nodes/{node}/name
// Request body: api.ValueRequest
func (h *Handler) HandleSetName(w http.ResponseWriter, r *http.Request) {
	node, res, ok := h.resolverTarget(w, r)
	if !ok {
		return
	}
	var req api.ValueRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := res.SetName(r.Context(), callerFrom(r), node, req.Value); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "updated"})
}

// HandleNewPubkeyInfo creates the pubkey sub-record of a node.
//
// URL format: POST /api/v1/partitions/{partition}/nodes/{node}/pubkey
// Request body: api.ValueRequest
func (h *Handler) HandleNewPubkeyInfo(w http.ResponseWriter, r *http.Request) {
	node, res, ok := h.resolverTarget(w, r)
	if !ok {
		return
	}
	var req api.ValueRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := callerFrom(r)

	if err := res.NewPubkeyInfo(r.Context(), caller, node, orCaller(req.Payer, caller), req.Value); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, api.StatusResponse{Status: "created"})
}

// HandleSetPubkey updates the pubkey sub-record of a node.
//
// URL format: PUT /api/v1/partitions/{partition}/nodes/{node}/pubkey
// Request body: api.ValueRequest
func (h *Handler) HandleSetPubkey(w http.ResponseWriter, r *http.Request) {
	node, res, ok := h.resolverTarget(w, r)
	if !ok {
		return
	}
	var req api.ValueRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := res.SetPubkey(r.Context(), callerFrom(r), node, req.Value); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "updated"})
}

// HandleRemoveProfile drops every sub-record of a node.
//
// URL format: DELETE /api/v1/partitions/{partition}/nodes/{node}/profile
func (h *Handler) HandleRemoveProfile(w http.ResponseWriter, r *http.Request) {
	node, res, ok := h.resolverTarget(w, r)
	if !ok {
		return
	}

	if err := res.RemoveProfile(r.Context(), callerFrom(r), node); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "removed"})
}
