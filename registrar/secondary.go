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

// SecondaryState is a secondary registrar contract. PrimaryRegistry is only
// used to derive expected credential token ids; it is never called.
type SecondaryState struct {
	PrimaryRegistry interfaces.ContractID `json:"primaryRegistry"`
	RecordDeposit   uint64                `json:"recordDeposit"`
}

func (SecondaryState) StateKind() string { return "ans.SecondaryRegistrar" }

// Secondary is a handle to a secondary registrar contract.
type Secondary struct {
	registrar
}

// DeploySecondary creates a secondary registrar contract unless it already
// exists, and returns a handle to it.
func DeploySecondary(ctx context.Context, partition *ledger.Partition, deployer interfaces.Address, id, primaryRegistry interfaces.ContractID, cfg Config, log *slog.Logger) (*Secondary, error) {
	err := partition.Execute(ctx, deployer, func(tx *ledger.Tx) error {
		if tx.Exists(id) {
			return nil
		}
		return tx.Create(id, SecondaryState{
			PrimaryRegistry: primaryRegistry,
			RecordDeposit:   cfg.RecordDeposit,
		}, deployer, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to deploy secondary registrar: %w", err)
	}
	return NewSecondary(partition, id, log), nil
}

// NewSecondary returns a handle to an already deployed secondary registrar.
func NewSecondary(partition *ledger.Partition, id interfaces.ContractID, log *slog.Logger) *Secondary {
	return &Secondary{registrar{
		id:        id,
		partition: partition,
		log:       log.With("registrar", "secondary", "partition", partition.ID(), "id", id.String()),
	}}
}

func (s *Secondary) state(tx *ledger.Tx) (SecondaryState, error) {
	return ledger.LoadAs[SecondaryState](tx, s.id)
}

// Register redeems a credential token minted by the primary registry for
// name at ttl and writes the local record. The caller must hold the token
// on this partition; it is burned. Any local record of the name, live or
// expired, is replaced.
func (s *Secondary) Register(ctx context.Context, caller interfaces.Address, name string, owner, payer interfaces.Address, tokenID interfaces.TokenID, ttl uint64, resolverID interfaces.ContractID) (rec record.Record, err error) {
	normalized, err := namespace.NormalizeName(name)
	if err != nil {
		return record.Record{}, err
	}
	node := namespace.NameNode([]byte(normalized))

	err = s.partition.Execute(ctx, caller, func(tx *ledger.Tx) error {
		st, err := s.state(tx)
		if err != nil {
			return err
		}
		if err := requireAsset("owner", owner); err != nil {
			return err
		}
		if err := requireAsset("payer", payer); err != nil {
			return err
		}

		expected := namespace.CredentialTokenID(st.PrimaryRegistry, node, ttl)
		if tokenID != expected {
			return fmt.Errorf("%w: token %s is not the token of %q at %d", interfaces.ErrInvalidCredentialToken, tokenID, normalized, ttl)
		}
		if ttl <= tx.Now() {
			return fmt.Errorf("%w: ttl %d already passed", interfaces.ErrInvalidCredentialToken, ttl)
		}
		if err := tx.BurnToken(caller, tokenID); err != nil {
			return err
		}

		existing, status, err := record.Lookup(tx, s.id, node)
		if err != nil {
			return err
		}
		if status != record.StatusAbsent {
			if err := s.removeRecord(tx, existing); err != nil {
				return err
			}
		}

		rec = record.Record{
			Registrar:     s.id,
			Node:          node,
			Parent:        namespace.RootNode,
			Owner:         owner,
			TTL:           ttl,
			Resolver:      resolverID,
			RefundAddress: payer,
		}
		if err := tx.Create(record.Address(s.id, node), rec, payer, uint256.NewInt(st.RecordDeposit)); err != nil {
			return err
		}

		tx.Emit(s.id, interfaces.EventNameRegistered, interfaces.EventFields{}.
			Bytes("name", []byte(normalized)).
			Address("owner", owner))
		return nil
	})
	if err != nil {
		return record.Record{}, err
	}
	s.log.Info("name replicated", "name", normalized, "owner", owner, "ttl", ttl)
	return rec, nil
}
