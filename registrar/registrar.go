package registrar

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/ledger"
	"github.com/ruteri/ans-registry/namespace"
	"github.com/ruteri/ans-registry/record"
)

// ProfileRemover drops the resolver profile of a node inside a transaction.
// *resolver.Resolver implements it.
type ProfileRemover interface {
	RemoveProfileTx(tx *ledger.Tx, node interfaces.Node) error
}

// registrar holds what the primary and secondary registrars share: the
// record operations and record removal.
type registrar struct {
	id        interfaces.ContractID
	partition *ledger.Partition
	profiles  ProfileRemover
	log       *slog.Logger
}

func (r *registrar) ID() interfaces.ContractID {
	return r.id
}

func (r *registrar) Partition() *ledger.Partition {
	return r.partition
}

// SetProfileRemover attaches the resolver whose profiles are dropped along
// with records.
func (r *registrar) SetProfileRemover(profiles ProfileRemover) {
	r.profiles = profiles
}

// SetOwner transfers node to newOwner. Only the current owner may call it.
func (r *registrar) SetOwner(ctx context.Context, caller interfaces.Address, node interfaces.Node, newOwner interfaces.Address) (rec record.Record, err error) {
	err = r.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		rec, err = record.SetOwner(tx, r.id, node, newOwner)
		return err
	})
	return rec, err
}

// SetResolver points node at a resolver. Only the current owner may call it.
func (r *registrar) SetResolver(ctx context.Context, caller interfaces.Address, node interfaces.Node, resolverID interfaces.ContractID) (rec record.Record, err error) {
	err = r.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		rec, err = record.SetResolver(tx, r.id, node, resolverID)
		return err
	})
	return rec, err
}

// Unregister destroys the record of node and its profile, refunding the
// deposit. Only the current owner may call it.
func (r *registrar) Unregister(ctx context.Context, caller interfaces.Address, node interfaces.Node) error {
	return r.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		rec, err := record.Authorize(tx, r.id, node)
		if err != nil {
			return err
		}
		return r.removeRecord(tx, rec)
	})
}

// RecordOf returns the record of node with its status at the current time.
func (r *registrar) RecordOf(node interfaces.Node) (rec record.Record, status record.Status, err error) {
	err = r.partition.View(func(tx *ledger.Tx) error {
		rec, status, err = record.Lookup(tx, r.id, node)
		return err
	})
	return rec, status, err
}

// Lookup returns the record of a top-level name.
func (r *registrar) Lookup(name string) (record.Record, record.Status, error) {
	normalized, err := namespace.NormalizeName(name)
	if err != nil {
		return record.Record{}, record.StatusAbsent, err
	}
	return r.RecordOf(namespace.NameNode([]byte(normalized)))
}

// removeRecord destroys rec with its profile. The subnames of a top-level
// name go with it; a subname is unlisted from its parent.
func (r *registrar) removeRecord(tx *ledger.Tx, rec record.Record) error {
	for _, child := range rec.Children {
		sub, status, err := record.Lookup(tx, r.id, child)
		if err != nil {
			return err
		}
		if status == record.StatusAbsent {
			continue
		}
		if err := r.dropRecord(tx, sub); err != nil {
			return err
		}
	}
	if rec.IsSubName() {
		if err := record.UnlinkChild(tx, r.id, rec.Parent, rec.Node); err != nil {
			return err
		}
	}
	return r.dropRecord(tx, rec)
}

func (r *registrar) dropRecord(tx *ledger.Tx, rec record.Record) error {
	if r.profiles != nil {
		if err := r.profiles.RemoveProfileTx(tx, rec.Node); err != nil {
			return fmt.Errorf("failed to remove profile of %s: %w", rec.Node, err)
		}
	}
	return record.Destroy(tx, rec)
}

func requireAsset(role string, addr interfaces.Address) error {
	if !addr.IsAsset() {
		return fmt.Errorf("%w: %s %s", interfaces.ErrExpectAssetAddress, role, addr)
	}
	return nil
}
