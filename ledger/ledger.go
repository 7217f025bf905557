package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/interfaces"
)

// Ledger groups the partitions of one deployment.
type Ledger struct {
	log        *slog.Logger
	partitions map[interfaces.PartitionID]*Partition
}

func New(log *slog.Logger, partitions ...*Partition) (*Ledger, error) {
	l := &Ledger{
		log:        log,
		partitions: make(map[interfaces.PartitionID]*Partition, len(partitions)),
	}
	for _, p := range partitions {
		if _, dup := l.partitions[p.ID()]; dup {
			return nil, fmt.Errorf("duplicate partition %d", p.ID())
		}
		l.partitions[p.ID()] = p
	}
	return l, nil
}

// Partition returns the partition with the given id.
func (l *Ledger) Partition(id interfaces.PartitionID) (*Partition, error) {
	p, ok := l.partitions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", interfaces.ErrUnknownPartition, id)
	}
	return p, nil
}

// Partitions returns all partitions ordered by id.
func (l *Ledger) Partitions() []*Partition {
	out := make([]*Partition, 0, len(l.partitions))
	for _, p := range l.partitions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Credit mints native funds to an address. It exists for devnets and tests.
func (l *Ledger) Credit(ctx context.Context, partition interfaces.PartitionID, to interfaces.Address, amount *uint256.Int) error {
	p, err := l.Partition(partition)
	if err != nil {
		return err
	}
	if !to.IsAsset() {
		return fmt.Errorf("%w: %s", interfaces.ErrExpectAssetAddress, to)
	}
	return p.Execute(ctx, to, func(tx *Tx) error {
		return tx.credit(to, amount)
	})
}

// TransferToken moves one unit of token owned by caller to recipient,
// possibly on another partition. Across partitions this is two
// transactions; if the credit on the target fails the debit is reverted.
func (l *Ledger) TransferToken(ctx context.Context, caller interfaces.Address, fromPartition, toPartition interfaces.PartitionID, recipient interfaces.Address, token interfaces.TokenID) error {
	src, err := l.Partition(fromPartition)
	if err != nil {
		return err
	}
	dst, err := l.Partition(toPartition)
	if err != nil {
		return err
	}
	if !caller.IsAsset() || !recipient.IsAsset() {
		return interfaces.ErrExpectAssetAddress
	}

	out := interfaces.EventFields{}.
		ID("tokenId", token).
		Address("from", caller).
		Address("to", recipient).
		Uint("toPartition", uint64(toPartition))
	in := interfaces.EventFields{}.
		ID("tokenId", token).
		Address("from", caller).
		Address("to", recipient).
		Uint("fromPartition", uint64(fromPartition))

	if src == dst {
		return src.Execute(ctx, caller, func(tx *Tx) error {
			if err := tx.BurnToken(caller, token); err != nil {
				return err
			}
			if err := tx.MintToken(recipient, token); err != nil {
				return err
			}
			tx.Emit(interfaces.ContractID{}, interfaces.EventTokenTransferredOut, out)
			tx.Emit(interfaces.ContractID{}, interfaces.EventTokenTransferredIn, in)
			return nil
		})
	}

	err = src.Execute(ctx, caller, func(tx *Tx) error {
		if err := tx.BurnToken(caller, token); err != nil {
			return err
		}
		tx.Emit(interfaces.ContractID{}, interfaces.EventTokenTransferredOut, out)
		return nil
	})
	if err != nil {
		return err
	}

	err = dst.Execute(ctx, recipient, func(tx *Tx) error {
		if err := tx.MintToken(recipient, token); err != nil {
			return err
		}
		tx.Emit(interfaces.ContractID{}, interfaces.EventTokenTransferredIn, in)
		return nil
	})
	if err != nil {
		l.log.Error("token credit failed, reverting debit", "token", token, "from", fromPartition, "to", toPartition, "err", err)
		if revertErr := src.Execute(ctx, caller, func(tx *Tx) error {
			return tx.MintToken(caller, token)
		}); revertErr != nil {
			l.log.Error("failed to revert token debit", "token", token, "err", revertErr)
		}
		return err
	}

	l.log.Debug("token transferred", "token", token, "from", fromPartition, "to", toPartition)
	return nil
}
