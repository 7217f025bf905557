package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/ledger"
	"github.com/ruteri/ans-registry/namespace"
	"github.com/ruteri/ans-registry/record"
)

// Resolver is a handle to a resolver contract on one partition.
type Resolver struct {
	id        interfaces.ContractID
	partition *ledger.Partition
	log       *slog.Logger
}

// Deploy creates the resolver contract serving registrar unless it already
// exists, and returns a handle to it.
func Deploy(ctx context.Context, partition *ledger.Partition, deployer interfaces.Address, id, registrar interfaces.ContractID, deposit uint64, log *slog.Logger) (*Resolver, error) {
	err := partition.Execute(ctx, deployer, func(tx *ledger.Tx) error {
		if tx.Exists(id) {
			return nil
		}
		return tx.Create(id, State{Registrar: registrar, Deposit: deposit}, deployer, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to deploy resolver: %w", err)
	}
	return New(partition, id, log), nil
}

// New returns a handle to an already deployed resolver.
func New(partition *ledger.Partition, id interfaces.ContractID, log *slog.Logger) *Resolver {
	return &Resolver{
		id:        id,
		partition: partition,
		log:       log.With("resolver", id.String()),
	}
}

func (r *Resolver) ID() interfaces.ContractID {
	return r.id
}

func (r *Resolver) state(tx *ledger.Tx) (State, error) {
	return ledger.LoadAs[State](tx, r.id)
}

func (r *Resolver) subRecordID(tag namespace.TypeTag, node interfaces.Node) interfaces.ContractID {
	return namespace.SubRecordAddress(r.id, tag, node)
}

// authorize checks that the transaction is signed by the owner of node.
func (r *Resolver) authorize(tx *ledger.Tx, node interfaces.Node) (State, error) {
	st, err := r.state(tx)
	if err != nil {
		return State{}, err
	}
	if _, err := record.Authorize(tx, st.Registrar, node); err != nil {
		return State{}, err
	}
	return st, nil
}

func (r *Resolver) create(tx *ledger.Tx, st State, tag namespace.TypeTag, node interfaces.Node, payer interfaces.Address, info ledger.State) error {
	return tx.Create(r.subRecordID(tag, node), info, payer, uint256.NewInt(st.Deposit))
}

// NewAddressInfo creates the address book of node.
func (r *Resolver) NewAddressInfo(ctx context.Context, caller interfaces.Address, node interfaces.Node, payer interfaces.Address, entries []AddressEntry) error {
	blob, err := EncodeAddressBook(entries)
	if err != nil {
		return err
	}
	return r.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		st, err := r.authorize(tx, node)
		if err != nil {
			return err
		}
		return r.createAddressInfo(tx, st, node, payer, blob)
	})
}

func (r *Resolver) createAddressInfo(tx *ledger.Tx, st State, node interfaces.Node, payer interfaces.Address, blob []byte) error {
	info := AddressInfo{Parent: r.id, Node: node, RefundAddress: payer, Addresses: blob}
	if err := r.create(tx, st, namespace.AddressInfoTag, node, payer, info); err != nil {
		return err
	}
	tx.Emit(r.id, interfaces.EventAddressInfoCreated, interfaces.EventFields{}.
		Node("node", node).
		Bytes("addresses", blob))
	return nil
}

// NewNameInfo creates the display name record of node.
func (r *Resolver) NewNameInfo(ctx context.Context, caller interfaces.Address, node interfaces.Node, payer interfaces.Address, name []byte) error {
	return r.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		st, err := r.authorize(tx, node)
		if err != nil {
			return err
		}
		return r.createNameInfo(tx, st, node, payer, name)
	})
}

func (r *Resolver) createNameInfo(tx *ledger.Tx, st State, node interfaces.Node, payer interfaces.Address, name []byte) error {
	info := NameInfo{Parent: r.id, Node: node, RefundAddress: payer, Name: bytes.Clone(name)}
	if err := r.create(tx, st, namespace.NameInfoTag, node, payer, info); err != nil {
		return err
	}
	tx.Emit(r.id, interfaces.EventNameInfoCreated, interfaces.EventFields{}.
		Node("node", node).
		Bytes("name", name))
	return nil
}

// NewPubkeyInfo creates the public key record of node.
func (r *Resolver) NewPubkeyInfo(ctx context.Context, caller interfaces.Address, node interfaces.Node, payer interfaces.Address, pubkey []byte) error {
	return r.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		st, err := r.authorize(tx, node)
		if err != nil {
			return err
		}
		return r.createPubkeyInfo(tx, st, node, payer, pubkey)
	})
}

func (r *Resolver) createPubkeyInfo(tx *ledger.Tx, st State, node interfaces.Node, payer interfaces.Address, pubkey []byte) error {
	info := PubkeyInfo{Parent: r.id, Node: node, RefundAddress: payer, Pubkey: bytes.Clone(pubkey)}
	if err := r.create(tx, st, namespace.PubkeyInfoTag, node, payer, info); err != nil {
		return err
	}
	tx.Emit(r.id, interfaces.EventPubkeyInfoCreated, interfaces.EventFields{}.
		Node("node", node).
		Bytes("pubkey", pubkey))
	return nil
}

// SetAddress sets the address of node on chainID, creating the address book
// on first write.
func (r *Resolver) SetAddress(ctx context.Context, caller interfaces.Address, node interfaces.Node, chainID interfaces.ChainID, address []byte) error {
	if err := validateAddress(address); err != nil {
		return err
	}
	return r.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		st, err := r.authorize(tx, node)
		if err != nil {
			return err
		}

		id := r.subRecordID(namespace.AddressInfoTag, node)
		if !tx.Exists(id) {
			blob, err := SetAddressEntry(nil, chainID, address)
			if err != nil {
				return err
			}
			if err := r.createAddressInfo(tx, st, node, caller, blob); err != nil {
				return err
			}
		} else {
			info, err := ledger.LoadAs[AddressInfo](tx, id)
			if err != nil {
				return err
			}
			if info.Addresses, err = SetAddressEntry(info.Addresses, chainID, address); err != nil {
				return err
			}
			if err := tx.Update(id, info); err != nil {
				return err
			}
		}

		tx.Emit(r.id, interfaces.EventAddressUpdated, interfaces.EventFields{}.
			Node("node", node).
			Uint("chainId", uint64(chainID)).
			Bytes("newAddress", address))
		return nil
	})
}

// SetName sets the display name of node, creating the record on first write.
func (r *Resolver) SetName(ctx context.Context, caller interfaces.Address, node interfaces.Node, name []byte) error {
	return r.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		st, err := r.authorize(tx, node)
		if err != nil {
			return err
		}

		id := r.subRecordID(namespace.NameInfoTag, node)
		if !tx.Exists(id) {
			if err := r.createNameInfo(tx, st, node, caller, name); err != nil {
				return err
			}
		} else {
			info, err := ledger.LoadAs[NameInfo](tx, id)
			if err != nil {
				return err
			}
			info.Name = bytes.Clone(name)
			if err := tx.Update(id, info); err != nil {
				return err
			}
		}

		tx.Emit(r.id, interfaces.EventNameUpdated, interfaces.EventFields{}.
			Node("node", node).
			Bytes("newName", name))
		return nil
	})
}

// SetPubkey sets the public key of node, creating the record on first write.
func (r *Resolver) SetPubkey(ctx context.Context, caller interfaces.Address, node interfaces.Node, pubkey []byte) error {
	return r.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		st, err := r.authorize(tx, node)
		if err != nil {
			return err
		}

		id := r.subRecordID(namespace.PubkeyInfoTag, node)
		if !tx.Exists(id) {
			if err := r.createPubkeyInfo(tx, st, node, caller, pubkey); err != nil {
				return err
			}
		} else {
			info, err := ledger.LoadAs[PubkeyInfo](tx, id)
			if err != nil {
				return err
			}
			info.Pubkey = bytes.Clone(pubkey)
			if err := tx.Update(id, info); err != nil {
				return err
			}
		}

		tx.Emit(r.id, interfaces.EventPubkeyUpdated, interfaces.EventFields{}.
			Node("node", node).
			Bytes("newPubkey", pubkey))
		return nil
	})
}

// GetAddress returns the address of node on chainID.
func (r *Resolver) GetAddress(node interfaces.Node, chainID interfaces.ChainID) ([]byte, error) {
	var out []byte
	err := r.partition.View(func(tx *ledger.Tx) error {
		info, err := ledger.LoadAs[AddressInfo](tx, r.subRecordID(namespace.AddressInfoTag, node))
		if err != nil {
			return err
		}
		address, found, err := LookupAddress(info.Addresses, chainID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: no address for chain %d", interfaces.ErrPrimaryRecordNotExists, chainID)
		}
		out = address
		return nil
	})
	return out, err
}

// GetAddresses returns the whole address book of node.
func (r *Resolver) GetAddresses(node interfaces.Node) ([]AddressEntry, error) {
	var out []AddressEntry
	err := r.partition.View(func(tx *ledger.Tx) error {
		info, err := ledger.LoadAs[AddressInfo](tx, r.subRecordID(namespace.AddressInfoTag, node))
		if err != nil {
			return err
		}
		out, err = DecodeAddressBook(info.Addresses)
		return err
	})
	return out, err
}

// GetName returns the display name of node.
func (r *Resolver) GetName(node interfaces.Node) ([]byte, error) {
	var out []byte
	err := r.partition.View(func(tx *ledger.Tx) error {
		info, err := ledger.LoadAs[NameInfo](tx, r.subRecordID(namespace.NameInfoTag, node))
		if err != nil {
			return err
		}
		if len(info.Name) == 0 {
			return fmt.Errorf("%w: name of %s is empty", interfaces.ErrPrimaryRecordNotExists, node)
		}
		out = bytes.Clone(info.Name)
		return nil
	})
	return out, err
}

// GetPubkey returns the public key of node.
func (r *Resolver) GetPubkey(node interfaces.Node) ([]byte, error) {
	var out []byte
	err := r.partition.View(func(tx *ledger.Tx) error {
		info, err := ledger.LoadAs[PubkeyInfo](tx, r.subRecordID(namespace.PubkeyInfoTag, node))
		if err != nil {
			return err
		}
		if len(info.Pubkey) == 0 {
			return fmt.Errorf("%w: pubkey of %s is empty", interfaces.ErrPrimaryRecordNotExists, node)
		}
		out = bytes.Clone(info.Pubkey)
		return nil
	})
	return out, err
}

// Profile collects every sub-record of node. Missing sub-records are left empty.
func (r *Resolver) Profile(node interfaces.Node) (Profile, error) {
	profile := Profile{Node: node}
	err := r.partition.View(func(tx *ledger.Tx) error {
		if info, err := ledger.LoadAs[AddressInfo](tx, r.subRecordID(namespace.AddressInfoTag, node)); err == nil {
			if profile.Addresses, err = DecodeAddressBook(info.Addresses); err != nil {
				return err
			}
		} else if !errors.Is(err, interfaces.ErrContractNotExists) {
			return err
		}
		if info, err := ledger.LoadAs[NameInfo](tx, r.subRecordID(namespace.NameInfoTag, node)); err == nil {
			profile.Name = bytes.Clone(info.Name)
		} else if !errors.Is(err, interfaces.ErrContractNotExists) {
			return err
		}
		if info, err := ledger.LoadAs[PubkeyInfo](tx, r.subRecordID(namespace.PubkeyInfoTag, node)); err == nil {
			profile.Pubkey = bytes.Clone(info.Pubkey)
		} else if !errors.Is(err, interfaces.ErrContractNotExists) {
			return err
		}
		return nil
	})
	return profile, err
}

// RemoveProfile lets the owner of node drop its whole profile.
func (r *Resolver) RemoveProfile(ctx context.Context, caller interfaces.Address, node interfaces.Node) error {
	return r.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		if _, err := r.authorize(tx, node); err != nil {
			return err
		}
		return r.RemoveProfileTx(tx, node)
	})
}

// RemoveProfileTx destroys every sub-record of node inside an existing
// transaction. Registrars call it when a record is removed or replaced.
func (r *Resolver) RemoveProfileTx(tx *ledger.Tx, node interfaces.Node) error {
	removed := 0
	for _, sub := range subRecords {
		id := r.subRecordID(sub.tag, node)
		if !tx.Exists(id) {
			continue
		}
		st, err := tx.Load(id)
		if err != nil {
			return err
		}
		if err := tx.Destroy(id, refundAddressOf(st)); err != nil {
			return err
		}
		tx.Emit(r.id, sub.removed, interfaces.EventFields{}.Node("node", node))
		removed++
	}

	if removed > 0 {
		tx.Emit(r.id, interfaces.EventProfileRemoved, interfaces.EventFields{}.Node("node", node))
		r.log.Debug("profile removed", "node", node, "subRecords", removed)
	}
	return nil
}
