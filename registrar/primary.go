package registrar

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/ledger"
	"github.com/ruteri/ans-registry/namespace"
	"github.com/ruteri/ans-registry/record"
)

// PrimaryState is the primary registrar contract.
type PrimaryState struct {
	Admin                   interfaces.Address    `json:"admin"`
	MinRegistrationDuration uint64                `json:"minRegistrationDuration"`
	RentPrice               uint64                `json:"rentPrice"`
	RecordDeposit           uint64                `json:"recordDeposit"`
	DefaultResolver         interfaces.ContractID `json:"defaultResolver"`
}

func (PrimaryState) StateKind() string { return "ans.PrimaryRegistrar" }

// Primary is a handle to the primary registrar contract.
type Primary struct {
	registrar
}

// DeployPrimary creates the primary registrar contract unless it already
// exists, and returns a handle to it.
func DeployPrimary(ctx context.Context, partition *ledger.Partition, admin interfaces.Address, id interfaces.ContractID, cfg Config, log *slog.Logger) (*Primary, error) {
	if err := requireAsset("admin", admin); err != nil {
		return nil, err
	}
	err := partition.Execute(ctx, admin, func(tx *ledger.Tx) error {
		if tx.Exists(id) {
			return nil
		}
		return tx.Create(id, PrimaryState{
			Admin:                   admin,
			MinRegistrationDuration: cfg.MinRegistrationDuration,
			RentPrice:               cfg.RentPrice,
			RecordDeposit:           cfg.RecordDeposit,
			DefaultResolver:         cfg.DefaultResolver,
		}, admin, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to deploy primary registrar: %w", err)
	}
	return NewPrimary(partition, id, log), nil
}

// NewPrimary returns a handle to an already deployed primary registrar.
func NewPrimary(partition *ledger.Partition, id interfaces.ContractID, log *slog.Logger) *Primary {
	return &Primary{registrar{
		id:        id,
		partition: partition,
		log:       log.With("registrar", "primary", "id", id.String()),
	}}
}

func (p *Primary) state(tx *ledger.Tx) (PrimaryState, error) {
	return ledger.LoadAs[PrimaryState](tx, p.id)
}

// State returns the registrar parameters.
func (p *Primary) State() (st PrimaryState, err error) {
	err = p.partition.View(func(tx *ledger.Tx) error {
		st, err = p.state(tx)
		return err
	})
	return st, err
}

// TokenID returns the credential token id for node at ttl.
func (p *Primary) TokenID(node interfaces.Node, ttl uint64) interfaces.TokenID {
	return namespace.CredentialTokenID(p.id, node, ttl)
}

func (p *Primary) payRent(tx *ledger.Tx, st PrimaryState, payer interfaces.Address, duration uint64) error {
	rent := new(uint256.Int).Mul(uint256.NewInt(st.RentPrice), uint256.NewInt(duration))
	return tx.Pay(payer, p.id, rent)
}

// reclaim removes an expired record together with its profile and any
// credential token marker left for its ttl.
func (p *Primary) reclaim(tx *ledger.Tx, rec record.Record) error {
	if err := p.destroyTokenMarker(tx, rec.Node, rec.TTL); err != nil {
		return err
	}
	return p.removeRecord(tx, rec)
}

func (p *Primary) destroyTokenMarker(tx *ledger.Tx, node interfaces.Node, ttl uint64) error {
	tokenID := p.TokenID(node, ttl)
	if !tx.Exists(tokenID) {
		return nil
	}
	return tx.Destroy(tokenID, p.id.Address())
}

// Register leases name to owner for duration milliseconds. An expired record
// of the same name is reclaimed first; a live one makes the call fail.
func (p *Primary) Register(ctx context.Context, caller interfaces.Address, name string, owner interfaces.Address, duration uint64, payer interfaces.Address) (rec record.Record, err error) {
	normalized, err := namespace.NormalizeName(name)
	if err != nil {
		return record.Record{}, err
	}
	node := namespace.NameNode([]byte(normalized))

	err = p.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		st, err := p.state(tx)
		if err != nil {
			return err
		}
		if duration < st.MinRegistrationDuration {
			return fmt.Errorf("%w: duration %d below minimum %d", interfaces.ErrInvalidArgs, duration, st.MinRegistrationDuration)
		}
		if err := requireAsset("owner", owner); err != nil {
			return err
		}
		if err := requireAsset("payer", payer); err != nil {
			return err
		}
		ttl, err := leaseEnd(tx.Now(), duration)
		if err != nil {
			return err
		}

		existing, status, err := record.Lookup(tx, p.id, node)
		if err != nil {
			return err
		}
		switch status {
		case record.StatusLive:
			return fmt.Errorf("%w: %q until %d", interfaces.ErrNameHasBeenRegistered, normalized, existing.TTL)
		case record.StatusExpired:
			if err := p.reclaim(tx, existing); err != nil {
				return err
			}
		}

		if err := p.payRent(tx, st, payer, duration); err != nil {
			return err
		}

		rec = record.Record{
			Registrar:     p.id,
			Node:          node,
			Parent:        namespace.RootNode,
			Owner:         owner,
			TTL:           ttl,
			Resolver:      st.DefaultResolver,
			RefundAddress: payer,
		}
		if err := tx.Create(record.Address(p.id, node), rec, payer, uint256.NewInt(st.RecordDeposit)); err != nil {
			return err
		}

		tx.Emit(p.id, interfaces.EventNameRegistered, interfaces.EventFields{}.
			Bytes("name", []byte(normalized)).
			Address("owner", owner).
			Uint("ttl", rec.TTL))
		tx.Emit(p.id, interfaces.EventNewNode, interfaces.EventFields{}.
			Node("node", node).
			Node("parent", namespace.RootNode).
			Address("owner", owner))
		return nil
	})
	if err != nil {
		return record.Record{}, err
	}
	p.log.Info("name registered", "name", normalized, "owner", owner, "ttl", rec.TTL)
	return rec, nil
}

// Renew extends a live lease by duration milliseconds. Only the owner may
// renew. Any credential token minted for the old ttl stops being redeemable.
func (p *Primary) Renew(ctx context.Context, caller interfaces.Address, name string, duration uint64, payer interfaces.Address) (rec record.Record, err error) {
	normalized, err := namespace.NormalizeName(name)
	if err != nil {
		return record.Record{}, err
	}
	node := namespace.NameNode([]byte(normalized))

	err = p.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		rec, err = p.extendLease(tx, node, duration, payer)
		if err != nil {
			return err
		}
		tx.Emit(p.id, interfaces.EventNameRenewed, interfaces.EventFields{}.
			Bytes("name", []byte(normalized)).
			Uint("ttl", rec.TTL))
		tx.Emit(p.id, interfaces.EventNewTTL, interfaces.EventFields{}.
			Node("node", node).
			Address("owner", rec.Owner).
			Uint("ttl", rec.TTL))
		return nil
	})
	if err != nil {
		return record.Record{}, err
	}
	p.log.Info("name renewed", "name", normalized, "ttl", rec.TTL)
	return rec, nil
}

// RenewSubName extends the ttl of label.parentName by duration milliseconds.
// Only the owner of the subname may renew it. The subname still goes when its
// parent is removed.
func (p *Primary) RenewSubName(ctx context.Context, caller interfaces.Address, parentName, label string, duration uint64, payer interfaces.Address) (rec record.Record, err error) {
	parentNormalized, err := namespace.NormalizeName(parentName)
	if err != nil {
		return record.Record{}, err
	}
	labelNormalized, err := namespace.NormalizeName(label)
	if err != nil {
		return record.Record{}, err
	}
	node := namespace.SubNameNode(namespace.NameNode([]byte(parentNormalized)), []byte(labelNormalized))

	err = p.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		rec, err = p.extendLease(tx, node, duration, payer)
		if err != nil {
			return err
		}
		tx.Emit(p.id, interfaces.EventNewTTL, interfaces.EventFields{}.
			Node("node", node).
			Address("owner", rec.Owner).
			Uint("ttl", rec.TTL))
		return nil
	})
	if err != nil {
		return record.Record{}, err
	}
	p.log.Info("subname renewed", "parent", parentNormalized, "label", labelNormalized, "ttl", rec.TTL)
	return rec, nil
}

// extendLease charges rent for duration and moves the ttl of the caller's
// live record forward.
func (p *Primary) extendLease(tx *ledger.Tx, node interfaces.Node, duration uint64, payer interfaces.Address) (record.Record, error) {
	st, err := p.state(tx)
	if err != nil {
		return record.Record{}, err
	}
	rec, err := record.Authorize(tx, p.id, node)
	if err != nil {
		return record.Record{}, err
	}
	if !rec.IsLive(tx.Now()) {
		return record.Record{}, fmt.Errorf("%w: %s at %d", interfaces.ErrNameHasExpired, node, rec.TTL)
	}
	if duration < st.MinRegistrationDuration {
		return record.Record{}, fmt.Errorf("%w: duration %d below minimum %d", interfaces.ErrInvalidArgs, duration, st.MinRegistrationDuration)
	}
	ttl, err := leaseEnd(rec.TTL, duration)
	if err != nil {
		return record.Record{}, err
	}
	if err := requireAsset("payer", payer); err != nil {
		return record.Record{}, err
	}
	if err := p.payRent(tx, st, payer, duration); err != nil {
		return record.Record{}, err
	}
	if err := p.destroyTokenMarker(tx, node, rec.TTL); err != nil {
		return record.Record{}, err
	}

	rec.TTL = ttl
	if err := tx.Update(record.Address(p.id, node), rec); err != nil {
		return record.Record{}, err
	}
	return rec, nil
}

func leaseEnd(from, duration uint64) (uint64, error) {
	ttl := from + duration
	if ttl < from {
		return 0, fmt.Errorf("%w: lease of %d from %d overflows", interfaces.ErrInvalidArgs, duration, from)
	}
	return ttl, nil
}

// authorizeLive loads the record of a top-level name and checks that the
// caller owns it and that it has not expired.
func (p *Primary) authorizeLive(tx *ledger.Tx, normalized string) (record.Record, error) {
	rec, err := record.Authorize(tx, p.id, namespace.NameNode([]byte(normalized)))
	if err != nil {
		return record.Record{}, err
	}
	if !rec.IsLive(tx.Now()) {
		return record.Record{}, fmt.Errorf("%w: %q at %d", interfaces.ErrNameHasExpired, normalized, rec.TTL)
	}
	return rec, nil
}

// MintCredentialToken issues the credential token for the current lease of
// name to its owner. At most one token exists per lease.
func (p *Primary) MintCredentialToken(ctx context.Context, caller interfaces.Address, name string, payer interfaces.Address) (token CredentialToken, err error) {
	normalized, err := namespace.NormalizeName(name)
	if err != nil {
		return CredentialToken{}, err
	}

	err = p.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		rec, err := p.authorizeLive(tx, normalized)
		if err != nil {
			return err
		}
		if err := requireAsset("payer", payer); err != nil {
			return err
		}

		token = CredentialToken{
			ID:        p.TokenID(rec.Node, rec.TTL),
			Registrar: p.id,
			Name:      normalized,
			Node:      rec.Node,
			TTL:       rec.TTL,
		}
		if err := tx.Create(token.ID, token, payer, nil); err != nil {
			return err
		}
		if err := tx.MintToken(rec.Owner, token.ID); err != nil {
			return err
		}

		tx.Emit(p.id, interfaces.EventCredentialTokenMinted, interfaces.EventFields{}.
			Bytes("name", []byte(normalized)).
			ID("tokenId", token.ID).
			Uint("ttl", rec.TTL))
		return nil
	})
	if err != nil {
		return CredentialToken{}, err
	}
	p.log.Info("credential token minted", "name", normalized, "token", token.ID, "ttl", token.TTL)
	return token, nil
}

// BurnCredentialToken destroys the caller's credential token for the current
// lease of name. Nothing is refunded.
func (p *Primary) BurnCredentialToken(ctx context.Context, caller interfaces.Address, name string, payer interfaces.Address) error {
	normalized, err := namespace.NormalizeName(name)
	if err != nil {
		return err
	}

	return p.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		rec, err := p.authorizeLive(tx, normalized)
		if err != nil {
			return err
		}
		if err := requireAsset("payer", payer); err != nil {
			return err
		}

		tokenID := p.TokenID(rec.Node, rec.TTL)
		if err := tx.BurnToken(caller, tokenID); err != nil {
			return err
		}
		if err := p.destroyTokenMarker(tx, rec.Node, rec.TTL); err != nil {
			return err
		}

		tx.Emit(p.id, interfaces.EventCredentialTokenBurned, interfaces.EventFields{}.
			Bytes("name", []byte(normalized)).
			ID("tokenId", tokenID))
		return nil
	})
}

// RegisterSubName creates label.parentName for owner. The caller must own
// the live parent; the subname starts with its ttl. Subnames cannot have
// subnames of their own.
func (p *Primary) RegisterSubName(ctx context.Context, caller interfaces.Address, parentName, label string, owner, payer interfaces.Address) (rec record.Record, err error) {
	parentNormalized, err := namespace.NormalizeName(parentName)
	if err != nil {
		return record.Record{}, err
	}
	labelNormalized, err := namespace.NormalizeName(label)
	if err != nil {
		return record.Record{}, err
	}

	err = p.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		st, err := p.state(tx)
		if err != nil {
			return err
		}
		parent, err := p.authorizeLive(tx, parentNormalized)
		if err != nil {
			return err
		}
		if parent.IsSubName() {
			return fmt.Errorf("%w: %q is already a subname", interfaces.ErrInvalidArgs, parentNormalized)
		}
		if err := requireAsset("owner", owner); err != nil {
			return err
		}
		if err := requireAsset("payer", payer); err != nil {
			return err
		}

		node := namespace.SubNameNode(parent.Node, []byte(labelNormalized))
		existing, status, err := record.Lookup(tx, p.id, node)
		if err != nil {
			return err
		}
		switch status {
		case record.StatusLive:
			return fmt.Errorf("%w: %q under %q", interfaces.ErrNameHasBeenRegistered, labelNormalized, parentNormalized)
		case record.StatusExpired:
			if err := p.removeRecord(tx, existing); err != nil {
				return err
			}
		}

		rec = record.Record{
			Registrar:     p.id,
			Node:          node,
			Parent:        parent.Node,
			Owner:         owner,
			TTL:           parent.TTL,
			Resolver:      parent.Resolver,
			RefundAddress: payer,
		}
		if err := tx.Create(record.Address(p.id, node), rec, payer, uint256.NewInt(st.RecordDeposit)); err != nil {
			return err
		}
		if err := record.LinkChild(tx, p.id, parent.Node, node); err != nil {
			return err
		}

		tx.Emit(p.id, interfaces.EventNewNode, interfaces.EventFields{}.
			Node("node", node).
			Node("parent", parent.Node).
			Address("owner", owner))
		return nil
	})
	if err != nil {
		return record.Record{}, err
	}
	p.log.Info("subname registered", "parent", parentNormalized, "label", labelNormalized, "owner", owner)
	return rec, nil
}

func (p *Primary) authorizeAdmin(tx *ledger.Tx) (PrimaryState, error) {
	st, err := p.state(tx)
	if err != nil {
		return PrimaryState{}, err
	}
	if tx.Caller() != st.Admin {
		return PrimaryState{}, fmt.Errorf("%w: %s is not the registrar admin", interfaces.ErrInvalidCaller, tx.Caller())
	}
	return st, nil
}

// UpdateAdmin hands the registrar over to newAdmin.
func (p *Primary) UpdateAdmin(ctx context.Context, caller, newAdmin interfaces.Address) error {
	return p.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		st, err := p.authorizeAdmin(tx)
		if err != nil {
			return err
		}
		if err := requireAsset("admin", newAdmin); err != nil {
			return err
		}
		st.Admin = newAdmin
		if err := tx.Update(p.id, st); err != nil {
			return err
		}
		tx.Emit(p.id, interfaces.EventAdminUpdated, interfaces.EventFields{}.
			Address("previousAdmin", caller).
			Address("newAdmin", newAdmin))
		return nil
	})
}

// Withdraw moves collected rent out of the registrar.
func (p *Primary) Withdraw(ctx context.Context, caller, to interfaces.Address, amount *uint256.Int) error {
	return p.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		if _, err := p.authorizeAdmin(tx); err != nil {
			return err
		}
		return tx.TransferFromContract(p.id, to, amount)
	})
}
