package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	Count uint64             `json:"count"`
	Owner interfaces.Address `json:"owner"`
}

func (counterState) StateKind() string { return "test.Counter" }

type otherState struct{}

func (otherState) StateKind() string { return "test.Other" }

func init() {
	RegisterState[counterState]()
}

type MockEventSink struct {
	mock.Mock
}

func (m *MockEventSink) Publish(ctx context.Context, events []interfaces.Event) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockEventSink) Close() error {
	return m.Called().Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func asset(b byte) interfaces.Address {
	return interfaces.NewAddress(interfaces.AssetKind, [32]byte{b})
}

func cid(b byte) interfaces.ContractID {
	return interfaces.ContractID{b}
}

func newTestPartition(t *testing.T, sink interfaces.EventSink) (*Partition, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.UnixMilli(1_000_000))
	return NewPartition(PartitionConfig{ID: 0, Clock: clk, Log: testLogger(), Sink: sink}), clk
}

func fund(t *testing.T, p *Partition, addr interfaces.Address, amount uint64) {
	t.Helper()
	l, err := New(testLogger(), p)
	require.NoError(t, err)
	require.NoError(t, l.Credit(context.Background(), p.ID(), addr, uint256.NewInt(amount)))
}

func TestExecute_CommitAndAbort(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPartition(t, nil)
	alice := asset(1)
	fund(t, p, alice, 100)

	err := p.Execute(ctx, alice, func(tx *Tx) error {
		return tx.Create(cid(1), counterState{Count: 1, Owner: alice}, alice, uint256.NewInt(10))
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(90), p.Balance(alice).Uint64())
	assert.Equal(t, uint64(10), p.Balance(cid(1).Address()).Uint64())

	// A failing transaction keeps none of its writes
	boom := errors.New("boom")
	err = p.Execute(ctx, alice, func(tx *Tx) error {
		require.NoError(t, tx.Update(cid(1), counterState{Count: 2, Owner: alice}))
		require.NoError(t, tx.Create(cid(2), counterState{}, alice, uint256.NewInt(50)))
		tx.Emit(cid(1), "Bumped", nil)
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, p.View(func(tx *Tx) error {
		st, err := LoadAs[counterState](tx, cid(1))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), st.Count)
		assert.False(t, tx.Exists(cid(2)))
		return nil
	}))
	assert.Equal(t, uint64(90), p.Balance(alice).Uint64())
	assert.Empty(t, p.Events(0, 0))
}

func TestTx_ReadYourWrites(t *testing.T) {
	p, _ := newTestPartition(t, nil)
	alice := asset(1)

	err := p.Execute(context.Background(), alice, func(tx *Tx) error {
		require.NoError(t, tx.Create(cid(1), counterState{Count: 1}, alice, nil))
		require.True(t, tx.Exists(cid(1)))

		require.NoError(t, tx.Destroy(cid(1), alice))
		require.False(t, tx.Exists(cid(1)))

		_, err := tx.Load(cid(1))
		require.ErrorIs(t, err, interfaces.ErrContractNotExists)

		// the address is free again within the same transaction
		return tx.Create(cid(1), counterState{Count: 7}, alice, nil)
	})
	require.NoError(t, err)

	require.NoError(t, p.View(func(tx *Tx) error {
		st, err := LoadAs[counterState](tx, cid(1))
		require.NoError(t, err)
		assert.Equal(t, uint64(7), st.Count)
		return nil
	}))
}

func TestTx_CreateErrors(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPartition(t, nil)
	alice, bob := asset(1), asset(2)
	fund(t, p, alice, 5)
	fund(t, p, bob, 100)

	require.NoError(t, p.Execute(ctx, alice, func(tx *Tx) error {
		return tx.Create(cid(1), counterState{}, alice, nil)
	}))

	err := p.Execute(ctx, alice, func(tx *Tx) error {
		return tx.Create(cid(1), counterState{}, alice, nil)
	})
	assert.ErrorIs(t, err, interfaces.ErrContractExists)

	err = p.Execute(ctx, alice, func(tx *Tx) error {
		return tx.Create(cid(2), counterState{}, alice, uint256.NewInt(6))
	})
	assert.ErrorIs(t, err, interfaces.ErrInsufficientBalance)

	// alice cannot spend bob's funds
	err = p.Execute(ctx, alice, func(tx *Tx) error {
		return tx.Create(cid(2), counterState{}, bob, uint256.NewInt(1))
	})
	assert.ErrorIs(t, err, interfaces.ErrNotSigner)

	err = p.Execute(ctx, alice, func(tx *Tx) error {
		return tx.Update(cid(1), otherState{})
	})
	assert.ErrorIs(t, err, interfaces.ErrContractTypeMismatch)

	require.NoError(t, p.View(func(tx *Tx) error {
		_, err := LoadAs[otherState](tx, cid(1))
		assert.ErrorIs(t, err, interfaces.ErrContractTypeMismatch)
		return nil
	}))
}

func TestTx_DestroyRefundsDeposit(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPartition(t, nil)
	alice, bob := asset(1), asset(2)
	fund(t, p, alice, 100)

	require.NoError(t, p.Execute(ctx, alice, func(tx *Tx) error {
		require.NoError(t, tx.Create(cid(1), counterState{}, alice, uint256.NewInt(40)))
		return tx.Pay(alice, cid(1), uint256.NewInt(2))
	}))
	assert.Equal(t, uint64(42), p.Balance(cid(1).Address()).Uint64())

	require.NoError(t, p.Execute(ctx, alice, func(tx *Tx) error {
		return tx.Destroy(cid(1), bob)
	}))
	assert.Equal(t, uint64(42), p.Balance(bob).Uint64())
	assert.Equal(t, uint64(58), p.Balance(alice).Uint64())
	assert.True(t, p.Balance(cid(1).Address()).IsZero())

	events := p.Events(0, 0)
	require.Len(t, events, 1)
	assert.Equal(t, interfaces.EventContractDestroyed, events[0].Name)
	assert.Equal(t, cid(1).Address().String(), events[0].Field("address"))
}

func TestTx_TransferFromContract(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPartition(t, nil)
	alice := asset(1)
	fund(t, p, alice, 100)

	require.NoError(t, p.Execute(ctx, alice, func(tx *Tx) error {
		return tx.Create(cid(1), counterState{}, alice, uint256.NewInt(30))
	}))

	err := p.Execute(ctx, alice, func(tx *Tx) error {
		return tx.TransferFromContract(cid(1), alice, uint256.NewInt(31))
	})
	assert.ErrorIs(t, err, interfaces.ErrInsufficientBalance)

	require.NoError(t, p.Execute(ctx, alice, func(tx *Tx) error {
		return tx.TransferFromContract(cid(1), alice, uint256.NewInt(30))
	}))
	assert.Equal(t, uint64(100), p.Balance(alice).Uint64())
}

func TestTx_Tokens(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPartition(t, nil)
	alice := asset(1)
	token := cid(9)

	err := p.Execute(ctx, alice, func(tx *Tx) error {
		return tx.BurnToken(alice, token)
	})
	assert.ErrorIs(t, err, interfaces.ErrNoTokenBalance)

	require.NoError(t, p.Execute(ctx, alice, func(tx *Tx) error {
		return tx.MintToken(alice, token)
	}))
	assert.Equal(t, uint64(1), p.TokenBalance(alice, token))

	require.NoError(t, p.Execute(ctx, alice, func(tx *Tx) error {
		return tx.BurnToken(alice, token)
	}))
	assert.Equal(t, uint64(0), p.TokenBalance(alice, token))
}

func TestView_IsReadOnly(t *testing.T) {
	p, _ := newTestPartition(t, nil)
	alice := asset(1)

	err := p.View(func(tx *Tx) error {
		return tx.Create(cid(1), counterState{}, alice, nil)
	})
	assert.ErrorIs(t, err, ErrReadOnly)

	err = p.View(func(tx *Tx) error {
		return tx.MintToken(alice, cid(2))
	})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestExecute_ClockIsFixedPerTransaction(t *testing.T) {
	p, clk := newTestPartition(t, nil)

	var first, second uint64
	require.NoError(t, p.Execute(context.Background(), asset(1), func(tx *Tx) error {
		first = tx.Now()
		clk.Add(time.Hour)
		second = tx.Now()
		return nil
	}))
	assert.Equal(t, uint64(1_000_000), first)
	assert.Equal(t, first, second)
	assert.Equal(t, uint64(1_000_000+time.Hour.Milliseconds()), p.Now())
}

func TestExecute_PublishesCommittedEvents(t *testing.T) {
	ctx := context.Background()
	sink := &MockEventSink{}
	p, _ := newTestPartition(t, sink)

	sink.On("Publish", mock.Anything, mock.MatchedBy(func(events []interfaces.Event) bool {
		return len(events) == 2 && events[0].Seq == 0 && events[1].Seq == 1 && events[0].Name == "A"
	})).Return(nil).Once()
	sink.On("Publish", mock.Anything, mock.MatchedBy(func(events []interfaces.Event) bool {
		return len(events) == 1 && events[0].Seq == 2
	})).Return(errors.New("sink down")).Once()

	require.NoError(t, p.Execute(ctx, asset(1), func(tx *Tx) error {
		tx.Emit(cid(1), "A", interfaces.EventFields{}.Uint("n", 1))
		tx.Emit(cid(1), "B", nil)
		return nil
	}))

	// aborted transactions publish nothing
	require.Error(t, p.Execute(ctx, asset(1), func(tx *Tx) error {
		tx.Emit(cid(1), "C", nil)
		return errors.New("abort")
	}))

	// sink failures do not fail the transaction
	require.NoError(t, p.Execute(ctx, asset(1), func(tx *Tx) error {
		tx.Emit(cid(1), "D", nil)
		return nil
	}))

	sink.AssertExpectations(t)

	events := p.Events(1, 5)
	require.Len(t, events, 2)
	assert.Equal(t, "B", events[0].Name)
	assert.Equal(t, "D", events[1].Name)
	assert.Equal(t, "1", p.Events(0, 1)[0].Field("n"))
	assert.Equal(t, events[0].TxID, p.Events(0, 1)[0].TxID)
	assert.Empty(t, p.Events(10, 0))
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPartition(t, nil)
	alice := asset(1)
	fund(t, p, alice, 1000)

	require.NoError(t, p.Execute(ctx, alice, func(tx *Tx) error {
		require.NoError(t, tx.Create(cid(2), counterState{Count: 2, Owner: alice}, alice, uint256.NewInt(20)))
		require.NoError(t, tx.Create(cid(1), counterState{Count: 1, Owner: alice}, alice, uint256.NewInt(10)))
		require.NoError(t, tx.MintToken(alice, cid(9)))
		tx.Emit(cid(1), "Created", interfaces.EventFields{}.Address("owner", alice))
		return nil
	}))

	data, err := p.Snapshot()
	require.NoError(t, err)

	again, err := p.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, data, again)

	restored, _ := newTestPartition(t, nil)
	require.NoError(t, restored.Restore(data))

	restoredData, err := restored.Snapshot()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(restoredData))

	assert.Equal(t, uint64(970), restored.Balance(alice).Uint64())
	assert.Equal(t, uint64(1), restored.TokenBalance(alice, cid(9)))
	require.NoError(t, restored.View(func(tx *Tx) error {
		st, err := LoadAs[counterState](tx, cid(2))
		require.NoError(t, err)
		assert.Equal(t, counterState{Count: 2, Owner: alice}, st)
		assert.Equal(t, uint64(20), tx.Balance(cid(2).Address()).Uint64())
		return nil
	}))
	assert.Len(t, restored.Events(0, 0), 1)

	other := NewPartition(PartitionConfig{ID: 3, Log: testLogger()})
	assert.Error(t, other.Restore(data))
}

func TestLedger_TransferToken(t *testing.T) {
	ctx := context.Background()
	home := NewPartition(PartitionConfig{ID: 0, Log: testLogger()})
	remote := NewPartition(PartitionConfig{ID: 1, Log: testLogger()})
	l, err := New(testLogger(), home, remote)
	require.NoError(t, err)

	alice, bob := asset(1), asset(2)
	token := cid(9)

	require.NoError(t, home.Execute(ctx, alice, func(tx *Tx) error {
		return tx.MintToken(alice, token)
	}))

	require.NoError(t, l.TransferToken(ctx, alice, 0, 1, alice, token))
	assert.Equal(t, uint64(0), home.TokenBalance(alice, token))
	assert.Equal(t, uint64(1), remote.TokenBalance(alice, token))

	// nothing left to move on the home partition
	err = l.TransferToken(ctx, alice, 0, 1, alice, token)
	assert.ErrorIs(t, err, interfaces.ErrNoTokenBalance)

	require.NoError(t, l.TransferToken(ctx, alice, 1, 1, bob, token))
	assert.Equal(t, uint64(1), remote.TokenBalance(bob, token))

	_, err = l.Partition(7)
	assert.ErrorIs(t, err, interfaces.ErrUnknownPartition)
	assert.ErrorIs(t, l.TransferToken(ctx, bob, 1, 7, bob, token), interfaces.ErrUnknownPartition)
	assert.ErrorIs(t, l.TransferToken(ctx, cid(3).Address(), 1, 0, bob, token), interfaces.ErrExpectAssetAddress)

	require.Len(t, home.Events(0, 0), 1)
	assert.Equal(t, interfaces.EventTokenTransferredOut, home.Events(0, 0)[0].Name)
	assert.Equal(t, interfaces.EventTokenTransferredIn, remote.Events(0, 0)[0].Name)
}

func TestLedger_DuplicatePartition(t *testing.T) {
	_, err := New(testLogger(), NewPartition(PartitionConfig{ID: 1}), NewPartition(PartitionConfig{ID: 1}))
	assert.Error(t, err)
}
