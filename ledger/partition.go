package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/metrics"
)

// ErrReadOnly is returned by mutating Tx methods inside View.
var ErrReadOnly = errors.New("read-only transaction")

type contract struct {
	State   State
	Balance uint256.Int
}

type tokenKey struct {
	Holder interfaces.Address
	Token  interfaces.TokenID
}

// PartitionConfig configures a partition.
type PartitionConfig struct {
	ID      interfaces.PartitionID
	Clock   clock.Clock
	Log     *slog.Logger
	Metrics *metrics.Metrics
	Sink    interfaces.EventSink
}

// Partition is one independently ordered shard of the ledger.
type Partition struct {
	id      interfaces.PartitionID
	label   string
	clock   clock.Clock
	log     *slog.Logger
	metrics *metrics.Metrics
	sink    interfaces.EventSink

	mu        sync.RWMutex
	contracts map[interfaces.ContractID]*contract
	balances  map[interfaces.Address]uint256.Int
	tokens    map[tokenKey]uint64
	events    []interfaces.Event

	// held while forwarding to the sink so events leave in commit order
	publishMu sync.Mutex
}

func NewPartition(cfg PartitionConfig) *Partition {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	p := &Partition{
		id:      cfg.ID,
		label:   strconv.Itoa(int(cfg.ID)),
		clock:   cfg.Clock,
		log:     cfg.Log.With("partition", cfg.ID),
		metrics: cfg.Metrics,
		sink:    cfg.Sink,
	}
	p.reset()
	return p
}

func (p *Partition) reset() {
	p.contracts = make(map[interfaces.ContractID]*contract)
	p.balances = make(map[interfaces.Address]uint256.Int)
	p.tokens = make(map[tokenKey]uint64)
	p.events = nil
}

func (p *Partition) ID() interfaces.PartitionID {
	return p.id
}

// Now returns the partition clock in milliseconds since the epoch.
func (p *Partition) Now() uint64 {
	return uint64(p.clock.Now().UnixMilli())
}

// Execute runs fn as one atomic transaction signed by caller. If fn returns
// an error nothing it did is kept.
func (p *Partition) Execute(ctx context.Context, caller interfaces.Address, fn func(tx *Tx) error) error {
	start := time.Now()

	events, err := p.execute(caller, fn)
	if err != nil {
		p.metrics.ObserveTx(p.label, metrics.OutcomeAborted, time.Since(start))
		p.log.Debug("transaction aborted", "caller", caller, "err", err)
		return err
	}
	p.metrics.ObserveTx(p.label, metrics.OutcomeCommitted, time.Since(start))

	if p.sink != nil && len(events) > 0 {
		if err := p.sink.Publish(ctx, events); err != nil {
			p.log.Warn("failed to publish events", "count", len(events), "err", err)
		}
	}
	p.publishMu.Unlock()
	return nil
}

// execute holds the write lock for the duration of fn. On success it
// returns with publishMu held so the caller can forward events in order.
func (p *Partition) execute(caller interfaces.Address, fn func(tx *Tx) error) ([]interfaces.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tx := p.newTx(caller, false)
	if err := fn(tx); err != nil {
		return nil, err
	}

	events := p.commit(tx)
	p.publishMu.Lock()
	return events, nil
}

// View runs fn against the current state without the ability to write.
func (p *Partition) View(fn func(tx *Tx) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return fn(p.newTx(interfaces.Address{}, true))
}

func (p *Partition) newTx(caller interfaces.Address, readOnly bool) *Tx {
	return &Tx{
		p:         p,
		id:        uuid.NewString(),
		caller:    caller,
		now:       p.Now(),
		readOnly:  readOnly,
		contracts: make(map[interfaces.ContractID]*contract),
		balances:  make(map[interfaces.Address]uint256.Int),
		tokens:    make(map[tokenKey]uint64),
	}
}

func (p *Partition) commit(tx *Tx) []interfaces.Event {
	for id, c := range tx.contracts {
		if c == nil {
			delete(p.contracts, id)
			continue
		}
		p.contracts[id] = c
	}
	for addr, amount := range tx.balances {
		if amount.IsZero() {
			delete(p.balances, addr)
			continue
		}
		p.balances[addr] = amount
	}
	for key, n := range tx.tokens {
		if n == 0 {
			delete(p.tokens, key)
			continue
		}
		p.tokens[key] = n
	}

	committed := make([]interfaces.Event, len(tx.events))
	for i, ev := range tx.events {
		ev.Seq = uint64(len(p.events))
		p.events = append(p.events, ev)
		committed[i] = ev
		p.metrics.ObserveEvent(ev.Name)
	}
	return committed
}

// Events returns up to limit committed events starting at sequence number
// from. A non-positive limit returns everything after from.
func (p *Partition) Events(from uint64, limit int) []interfaces.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if from >= uint64(len(p.events)) {
		return []interfaces.Event{}
	}
	tail := p.events[from:]
	if limit > 0 && limit < len(tail) {
		tail = tail[:limit]
	}
	out := make([]interfaces.Event, len(tail))
	copy(out, tail)
	return out
}

// Balance returns the native balance of an address on this partition.
func (p *Partition) Balance(addr interfaces.Address) *uint256.Int {
	var out *uint256.Int
	_ = p.View(func(tx *Tx) error {
		out = tx.Balance(addr)
		return nil
	})
	return out
}

// TokenBalance returns how many units of token holder owns on this partition.
func (p *Partition) TokenBalance(holder interfaces.Address, token interfaces.TokenID) uint64 {
	var out uint64
	_ = p.View(func(tx *Tx) error {
		out = tx.TokenBalance(holder, token)
		return nil
	})
	return out
}
