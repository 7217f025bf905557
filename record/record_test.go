package record

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/ledger"
	"github.com/ruteri/ans-registry/namespace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var registrar = interfaces.ContractID{0xee}

func asset(b byte) interfaces.Address {
	return interfaces.NewAddress(interfaces.AssetKind, [32]byte{b})
}

func setup(t *testing.T, owner interfaces.Address, ttl uint64) (*ledger.Partition, *clock.Mock, interfaces.Node) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewMock()
	p := ledger.NewPartition(ledger.PartitionConfig{ID: 0, Clock: clk, Log: log})
	l, err := ledger.New(log, p)
	require.NoError(t, err)
	require.NoError(t, l.Credit(context.Background(), 0, owner, uint256.NewInt(100)))

	node := namespace.NameNode([]byte("test"))
	require.NoError(t, p.Execute(context.Background(), owner, func(tx *ledger.Tx) error {
		return tx.Create(Address(registrar, node), Record{
			Registrar:     registrar,
			Node:          node,
			Parent:        namespace.RootNode,
			Owner:         owner,
			TTL:           ttl,
			RefundAddress: owner,
		}, owner, uint256.NewInt(10))
	}))
	return p, clk, node
}

func TestStatus(t *testing.T) {
	rec := Record{TTL: 100}
	assert.Equal(t, StatusLive, rec.StatusAt(0))
	assert.Equal(t, StatusLive, rec.StatusAt(99))
	assert.Equal(t, StatusExpired, rec.StatusAt(100))
	assert.Equal(t, StatusExpired, rec.StatusAt(101))
	assert.Equal(t, "absent", StatusAbsent.String())
	assert.Equal(t, "live", StatusLive.String())
	assert.Equal(t, "expired", StatusExpired.String())

	assert.False(t, Record{Parent: namespace.RootNode}.IsSubName())
	assert.True(t, Record{Parent: namespace.NameNode([]byte("a"))}.IsSubName())
}

func TestLookup(t *testing.T) {
	owner := asset(1)
	p, clk, node := setup(t, owner, 100)

	check := func(n interfaces.Node, expected Status) {
		require.NoError(t, p.View(func(tx *ledger.Tx) error {
			_, status, err := Lookup(tx, registrar, n)
			require.NoError(t, err)
			assert.Equal(t, expected, status)
			return nil
		}))
	}

	check(node, StatusLive)
	check(namespace.NameNode([]byte("other")), StatusAbsent)

	clk.Add(100 * time.Millisecond)
	check(node, StatusExpired)
}

func TestSetOwner(t *testing.T) {
	ctx := context.Background()
	owner, other := asset(1), asset(2)
	p, _, node := setup(t, owner, 100)

	err := p.Execute(ctx, other, func(tx *ledger.Tx) error {
		_, err := SetOwner(tx, registrar, node, other)
		return err
	})
	assert.ErrorIs(t, err, interfaces.ErrInvalidCaller)

	err = p.Execute(ctx, owner, func(tx *ledger.Tx) error {
		_, err := SetOwner(tx, registrar, node, interfaces.ContractID{1}.Address())
		return err
	})
	assert.ErrorIs(t, err, interfaces.ErrExpectAssetAddress)

	err = p.Execute(ctx, owner, func(tx *ledger.Tx) error {
		_, err := SetOwner(tx, registrar, namespace.NameNode([]byte("missing")), other)
		return err
	})
	assert.ErrorIs(t, err, interfaces.ErrContractNotExists)

	require.NoError(t, p.Execute(ctx, owner, func(tx *ledger.Tx) error {
		rec, err := SetOwner(tx, registrar, node, other)
		require.NoError(t, err)
		assert.Equal(t, other, rec.Owner)
		assert.Equal(t, owner, rec.RefundAddress)
		return nil
	}))

	events := p.Events(0, 0)
	require.Len(t, events, 1)
	assert.Equal(t, interfaces.EventTransfer, events[0].Name)
	assert.Equal(t, node.String(), events[0].Field("node"))
	assert.Equal(t, owner.String(), events[0].Field("oldOwner"))
	assert.Equal(t, other.String(), events[0].Field("newOwner"))

	// the previous owner lost control
	err = p.Execute(ctx, owner, func(tx *ledger.Tx) error {
		_, err := SetResolver(tx, registrar, node, interfaces.ContractID{7})
		return err
	})
	assert.ErrorIs(t, err, interfaces.ErrInvalidCaller)
}

func TestSetResolver(t *testing.T) {
	ctx := context.Background()
	owner := asset(1)
	p, _, node := setup(t, owner, 100)
	resolver := interfaces.ContractID{7}

	require.NoError(t, p.Execute(ctx, owner, func(tx *ledger.Tx) error {
		_, err := SetResolver(tx, registrar, node, resolver)
		return err
	}))

	require.NoError(t, p.View(func(tx *ledger.Tx) error {
		rec, err := Load(tx, registrar, node)
		require.NoError(t, err)
		assert.Equal(t, resolver, rec.Resolver)
		return nil
	}))

	events := p.Events(0, 0)
	require.Len(t, events, 1)
	assert.Equal(t, interfaces.EventNewResolver, events[0].Name)
	assert.Equal(t, resolver.String(), events[0].Field("resolverId"))
	assert.Equal(t, owner.String(), events[0].Field("owner"))
}

func TestDestroy(t *testing.T) {
	owner := asset(1)
	p, _, node := setup(t, owner, 100)
	assert.Equal(t, uint64(90), p.Balance(owner).Uint64())

	require.NoError(t, p.Execute(context.Background(), owner, func(tx *ledger.Tx) error {
		rec, err := Load(tx, registrar, node)
		require.NoError(t, err)
		return Destroy(tx, rec)
	}))
	assert.Equal(t, uint64(100), p.Balance(owner).Uint64())

	events := p.Events(0, 0)
	require.Len(t, events, 1)
	assert.Equal(t, interfaces.EventContractDestroyed, events[0].Name)
	assert.Equal(t, Address(registrar, node).Address().String(), events[0].Field("address"))
}

func TestLinkChild(t *testing.T) {
	owner := asset(1)
	p, _, node := setup(t, owner, 100)
	first := namespace.SubNameNode(node, []byte("a"))
	second := namespace.SubNameNode(node, []byte("b"))

	require.NoError(t, p.Execute(context.Background(), owner, func(tx *ledger.Tx) error {
		if err := LinkChild(tx, registrar, node, first); err != nil {
			return err
		}
		if err := LinkChild(tx, registrar, node, second); err != nil {
			return err
		}
		return LinkChild(tx, registrar, node, first)
	}))

	children := func() []interfaces.Node {
		var rec Record
		require.NoError(t, p.View(func(tx *ledger.Tx) (err error) {
			rec, err = Load(tx, registrar, node)
			return err
		}))
		return rec.Children
	}
	assert.Equal(t, []interfaces.Node{first, second}, children())

	require.NoError(t, p.Execute(context.Background(), owner, func(tx *ledger.Tx) error {
		return UnlinkChild(tx, registrar, node, first)
	}))
	assert.Equal(t, []interfaces.Node{second}, children())

	// unknown children and missing parents are ignored
	require.NoError(t, p.Execute(context.Background(), owner, func(tx *ledger.Tx) error {
		if err := UnlinkChild(tx, registrar, node, first); err != nil {
			return err
		}
		return UnlinkChild(tx, registrar, namespace.NameNode([]byte("missing")), first)
	}))
	assert.Equal(t, []interfaces.Node{second}, children())
	assert.Empty(t, p.Events(0, 0))
}
