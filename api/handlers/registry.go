package handlers

import (
	"net/http"

	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/api"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/record"
	"github.com/ruteri/ans-registry/service"
)

// HandleInfo describes the deployment.
//
// URL format: GET /api/v1/info
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	st, err := h.deployment.Primary().State()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	info := api.DeploymentInfo{
		Admin:                   st.Admin,
		MinRegistrationDuration: st.MinRegistrationDuration,
		RentPrice:               st.RentPrice,
		RecordDeposit:           st.RecordDeposit,
		DefaultResolver:         st.DefaultResolver,
		Faucet:                  h.cfg.FaucetAmount != nil,
	}
	for _, p := range h.deployment.Partitions() {
		reg, err := h.deployment.Registrar(p)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		res, err := h.deployment.Resolver(p)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		info.Partitions = append(info.Partitions, api.PartitionInfo{
			Partition: p,
			Registrar: reg.ID(),
			Resolver:  res.ID(),
			Primary:   p == service.HomePartition,
		})
	}
	h.writeJSON(w, http.StatusOK, info)
}

// HandleResolve looks a name up with its profile.
//
// URL format: GET /api/v1/partitions/{partition}/names/{name}
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	partition, ok := h.partitionParam(w, r)
	if !ok {
		return
	}
	name, ok := h.nameParam(w, r)
	if !ok {
		return
	}

	res, err := h.deployment.Resolve(partition, name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.ResolveResponse{
		Partition: res.Partition,
		Name:      res.Name,
		Record:    res.Record,
		Status:    res.Status,
		Profile:   res.Profile,
	})
}

// HandleRecord returns the record of a node.
//
// URL format: GET /api/v1/partitions/{partition}/nodes/{node}
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	partition, ok := h.partitionParam(w, r)
	if !ok {
		return
	}
	node, ok := h.nodeParam(w, r)
	if !ok {
		return
	}

	reg, err := h.deployment.Registrar(partition)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, status, err := reg.RecordOf(node)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if status == record.StatusAbsent {
		h.fail(w, r, interfaces.ErrContractNotExists)
		return
	}
	h.writeJSON(w, http.StatusOK, api.RecordResponse{Partition: partition, Record: rec, Status: status.String()})
}

// HandleRegister registers a top-level name on the primary registry.
//
// URL format: POST /api/v1/register
// Request body: api.RegisterRequest
// Response: api.RecordResponse
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := callerFrom(r)

	rec, err := h.deployment.Primary().Register(r.Context(), caller, req.Name, orCaller(req.Owner, caller), req.Duration, orCaller(req.Payer, caller))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.RecordResponse{Partition: service.HomePartition, Record: rec, Status: record.StatusLive.String()})
}

// HandleRenew extends a live lease.
//
// URL format: POST /api/v1/renew
// Request body: api.RenewRequest
// Response: api.RecordResponse
func (h *Handler) HandleRenew(w http.ResponseWriter, r *http.Request) {
	var req api.RenewRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := callerFrom(r)

	rec, err := h.deployment.Primary().Renew(r.Context(), caller, req.Name, req.Duration, orCaller(req.Payer, caller))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.RecordResponse{Partition: service.HomePartition, Record: rec, Status: record.StatusLive.String()})
}

// HandleRegisterSubName registers label under a name owned by the signer.
//
// URL format: POST /api/v1/subnames
// Request body: api.SubNameRequest
// Response: api.RecordResponse
func (h *Handler) HandleRegisterSubName(w http.ResponseWriter, r *http.Request) {
	var req api.SubNameRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := callerFrom(r)

	rec, err := h.deployment.Primary().RegisterSubName(r.Context(), caller, req.Parent, req.Label, orCaller(req.Owner, caller), orCaller(req.Payer, caller))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.RecordResponse{Partition: service.HomePartition, Record: rec, Status: record.StatusLive.String()})
}

// HandleRenewSubName extends the ttl of a subname owned by the signer.
//
// URL format: POST /api/v1/subnames/renew
// Request body: api.RenewSubNameRequest
// Response: api.RecordResponse
func (h *Handler) HandleRenewSubName(w http.ResponseWriter, r *http.Request) {
	var req api.RenewSubNameRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := callerFrom(r)

	rec, err := h.deployment.Primary().RenewSubName(r.Context(), caller, req.Parent, req.Label, req.Duration, orCaller(req.Payer, caller))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.RecordResponse{Partition: service.HomePartition, Record: rec, Status: record.StatusLive.String()})
}

// HandleMintToken mints the credential token of a name's current lease.
//
// URL format: POST /api/v1/tokens/mint
// Request body: api.TokenRequest
// Response: api.TokenResponse
func (h *Handler) HandleMintToken(w http.ResponseWriter, r *http.Request) {
	var req api.TokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := callerFrom(r)

	token, err := h.deployment.Primary().MintCredentialToken(r.Context(), caller, req.Name, orCaller(req.Payer, caller))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.TokenResponse{Token: token.ID, Name: token.Name, Node: token.Node, TTL: token.TTL})
}

// HandleBurnToken burns the signer's credential token of a name's current lease.
//
// URL format: POST /api/v1/tokens/burn
// Request body: api.TokenRequest
func (h *Handler) HandleBurnToken(w http.ResponseWriter, r *http.Request) {
	var req api.TokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := callerFrom(r)

	if err := h.deployment.Primary().BurnCredentialToken(r.Context(), caller, req.Name, orCaller(req.Payer, caller)); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "burned"})
}

// HandleTransferToken moves a token held by the signer.
//
// URL format: POST /api/v1/tokens/transfer
// Request body: api.TransferTokenRequest
func (h *Handler) HandleTransferToken(w http.ResponseWriter, r *http.Request) {
	var req api.TransferTokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := callerFrom(r)

	if err := h.deployment.TransferToken(r.Context(), caller, req.From, req.To, orCaller(req.Recipient, caller), req.Token); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "transferred"})
}

// HandleRedeem registers a name on a secondary partition with a credential token.
//
// URL format: POST /api/v1/partitions/{partition}/redeem
// Request body: api.RedeemRequest
// Response: api.RecordResponse
func (h *Handler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	partition, ok := h.partitionParam(w, r)
	if !ok {
		return
	}
	var req api.RedeemRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := callerFrom(r)

	rec, err := h.deployment.Redeem(r.Context(), partition, caller, req.Name, orCaller(req.Owner, caller), orCaller(req.Payer, caller), req.Token, req.TTL, req.Resolver)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.RecordResponse{Partition: partition, Record: rec, Status: record.StatusLive.String()})
}

// HandleReplicate copies a live name of the signer to a secondary partition.
//
// URL format: POST /api/v1/replicate
// Request body: api.ReplicateRequest
// Response: api.RecordResponse
func (h *Handler) HandleReplicate(w http.ResponseWriter, r *http.Request) {
	var req api.ReplicateRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.deployment.Replicate(r.Context(), callerFrom(r), req.Name, req.Partition)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.RecordResponse{Partition: req.Partition, Record: rec, Status: record.StatusLive.String()})
}

// HandleSetOwner transfers a record.
//
// URL format: PUT /api/v1/partitions/{partition}/nodes/{node}/owner
// Request body: api.SetOwnerRequest
// Response: api.RecordResponse
func (h *Handler) HandleSetOwner(w http.ResponseWriter, r *http.Request) {
	partition, node, reg, ok := h.recordTarget(w, r)
	if !ok {
		return
	}
	var req api.SetOwnerRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := reg.SetOwner(r.Context(), callerFrom(r), node, req.Owner)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeRecord(w, partition, reg, rec)
}

// HandleSetResolver points a record at a resolver.
//
// URL format: PUT /api/v1/partitions/{partition}/nodes/{node}/resolver
// Request body: api.SetResolverRequest
// Response: api.RecordResponse
func (h *Handler) HandleSetResolver(w http.ResponseWriter, r *http.Request) {
	partition, node, reg, ok := h.recordTarget(w, r)
	if !ok {
		return
	}
	var req api.SetResolverRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := reg.SetResolver(r.Context(), callerFrom(r), node, req.Resolver)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeRecord(w, partition, reg, rec)
}

// HandleUnregister destroys a record and its profile.
//
// URL format: DELETE /api/v1/partitions/{partition}/nodes/{node}
func (h *Handler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	_, node, reg, ok := h.recordTarget(w, r)
	if !ok {
		return
	}

	if err := reg.Unregister(r.Context(), callerFrom(r), node); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "unregistered"})
}

// HandleUpdateAdmin hands the primary registry to a new admin.
//
// URL format: POST /api/v1/admin/transfer
// Request body: api.UpdateAdminRequest
func (h *Handler) HandleUpdateAdmin(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateAdminRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.deployment.Primary().UpdateAdmin(r.Context(), callerFrom(r), req.Admin); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "updated"})
}

// HandleWithdraw moves collected rent out of the primary registry.
//
// URL format: POST /api/v1/admin/withdraw
// Request body: api.WithdrawRequest
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req api.WithdrawRequest
	if !h.decode(w, r, &req) {
		return
	}
	amount, err := uint256.FromDecimal(req.Amount)
	if err != nil {
		h.fail(w, r, invalidAmount(req.Amount, err))
		return
	}

	if err := h.deployment.Primary().Withdraw(r.Context(), callerFrom(r), req.To, amount); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "withdrawn"})
}

func (h *Handler) recordTarget(w http.ResponseWriter, r *http.Request) (interfaces.PartitionID, interfaces.Node, service.RecordRegistrar, bool) {
	partition, ok := h.partitionParam(w, r)
	if !ok {
		return 0, interfaces.Node{}, nil, false
	}
	node, ok := h.nodeParam(w, r)
	if !ok {
		return 0, interfaces.Node{}, nil, false
	}
	reg, err := h.deployment.Registrar(partition)
	if err != nil {
		h.fail(w, r, err)
		return 0, interfaces.Node{}, nil, false
	}
	return partition, node, reg, true
}

func (h *Handler) writeRecord(w http.ResponseWriter, partition interfaces.PartitionID, reg service.RecordRegistrar, rec record.Record) {
	h.writeJSON(w, http.StatusOK, api.RecordResponse{
		Partition: partition,
		Record:    rec,
		Status:    rec.StatusAt(reg.Partition().Now()).String(),
	})
}
