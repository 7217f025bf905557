package service

import (
	"context"
	"fmt"

	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/namespace"
	"github.com/ruteri/ans-registry/record"
	"github.com/ruteri/ans-registry/resolver"
)

// Resolution is a record together with the profile its resolver holds.
type Resolution struct {
	Partition interfaces.PartitionID `json:"partition"`
	Name      string                 `json:"name"`
	Record    record.Record          `json:"record"`
	Status    string                 `json:"status"`
	Profile   *resolver.Profile      `json:"profile,omitempty"`
}

// Resolve looks name up on a partition. The profile is included when the
// record points at the resolver of that partition. An absent name is
// reported as ErrContractNotExists.
func (d *Deployment) Resolve(partition interfaces.PartitionID, name string) (Resolution, error) {
	reg, err := d.Registrar(partition)
	if err != nil {
		return Resolution{}, err
	}
	normalized, err := namespace.NormalizeName(name)
	if err != nil {
		return Resolution{}, err
	}
	rec, status, err := reg.Lookup(normalized)
	if err != nil {
		return Resolution{}, err
	}
	if status == record.StatusAbsent {
		return Resolution{}, fmt.Errorf("%w: %q on partition %d", interfaces.ErrContractNotExists, normalized, partition)
	}

	res := Resolution{
		Partition: partition,
		Name:      normalized,
		Record:    rec,
		Status:    status.String(),
	}
	if r := d.resolvers[partition]; r != nil && rec.Resolver == r.ID() {
		profile, err := r.Profile(rec.Node)
		if err != nil {
			return Resolution{}, err
		}
		res.Profile = &profile
	}
	return res, nil
}

// Redeem registers name on a secondary partition with a credential token
// the caller holds there. A zero resolverID selects the partition resolver.
func (d *Deployment) Redeem(ctx context.Context, partition interfaces.PartitionID, caller interfaces.Address, name string, owner, payer interfaces.Address, token interfaces.TokenID, ttl uint64, resolverID interfaces.ContractID) (record.Record, error) {
	secondary, err := d.Secondary(partition)
	if err != nil {
		return record.Record{}, err
	}
	if resolverID.IsZero() {
		resolverID = d.resolvers[partition].ID()
	}
	return secondary.Register(ctx, caller, name, owner, payer, token, ttl, resolverID)
}

// Replicate copies the caller's live name to a secondary partition: it mints
// the credential token of the current lease, moves it to the target and
// redeems it there. When a later step fails the token stays with the caller
// wherever it got to, and the failing step can be retried by hand.
func (d *Deployment) Replicate(ctx context.Context, caller interfaces.Address, name string, target interfaces.PartitionID) (record.Record, error) {
	if _, err := d.Secondary(target); err != nil {
		return record.Record{}, err
	}

	token, err := d.primary.MintCredentialToken(ctx, caller, name, caller)
	if err != nil {
		return record.Record{}, fmt.Errorf("failed to mint credential token: %w", err)
	}
	if err := d.ledger.TransferToken(ctx, caller, HomePartition, target, caller, token.ID); err != nil {
		return record.Record{}, fmt.Errorf("failed to move credential token %s: %w", token.ID, err)
	}
	rec, err := d.Redeem(ctx, target, caller, token.Name, caller, caller, token.ID, token.TTL, interfaces.ContractID{})
	if err != nil {
		return record.Record{}, fmt.Errorf("failed to redeem credential token %s: %w", token.ID, err)
	}

	d.log.Info("name replicated", "name", token.Name, "partition", target, "ttl", token.TTL)
	return rec, nil
}
