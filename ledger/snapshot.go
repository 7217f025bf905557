package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/interfaces"
)

// Snapshot is the serialized form of a partition. Entries are sorted so the
// same state always encodes to the same bytes.
type Snapshot struct {
	Partition interfaces.PartitionID `json:"partition"`
	Contracts []ContractSnapshot     `json:"contracts"`
	Balances  []BalanceSnapshot      `json:"balances"`
	Tokens    []TokenSnapshot        `json:"tokens"`
	Events    []interfaces.Event     `json:"events"`
}

type ContractSnapshot struct {
	ID      interfaces.ContractID `json:"id"`
	Kind    string                `json:"kind"`
	Balance string                `json:"balance"`
	State   json.RawMessage       `json:"state"`
}

type BalanceSnapshot struct {
	Address interfaces.Address `json:"address"`
	Amount  string             `json:"amount"`
}

type TokenSnapshot struct {
	Holder interfaces.Address `json:"holder"`
	Token  interfaces.TokenID `json:"token"`
	Amount uint64             `json:"amount"`
}

// Snapshot serializes the committed state of the partition.
func (p *Partition) Snapshot() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := Snapshot{
		Partition: p.id,
		Contracts: make([]ContractSnapshot, 0, len(p.contracts)),
		Balances:  make([]BalanceSnapshot, 0, len(p.balances)),
		Tokens:    make([]TokenSnapshot, 0, len(p.tokens)),
		Events:    p.events,
	}
	if snap.Events == nil {
		snap.Events = []interfaces.Event{}
	}

	for id, c := range p.contracts {
		raw, err := json.Marshal(c.State)
		if err != nil {
			return nil, fmt.Errorf("failed to encode contract %s: %w", id, err)
		}
		snap.Contracts = append(snap.Contracts, ContractSnapshot{
			ID:      id,
			Kind:    c.State.StateKind(),
			Balance: c.Balance.Dec(),
			State:   raw,
		})
	}
	sort.Slice(snap.Contracts, func(i, j int) bool {
		return bytes.Compare(snap.Contracts[i].ID[:], snap.Contracts[j].ID[:]) < 0
	})

	for addr, amount := range p.balances {
		snap.Balances = append(snap.Balances, BalanceSnapshot{Address: addr, Amount: amount.Dec()})
	}
	sort.Slice(snap.Balances, func(i, j int) bool {
		return bytes.Compare(snap.Balances[i].Address[:], snap.Balances[j].Address[:]) < 0
	})

	for key, n := range p.tokens {
		snap.Tokens = append(snap.Tokens, TokenSnapshot{Holder: key.Holder, Token: key.Token, Amount: n})
	}
	sort.Slice(snap.Tokens, func(i, j int) bool {
		if c := bytes.Compare(snap.Tokens[i].Holder[:], snap.Tokens[j].Holder[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(snap.Tokens[i].Token[:], snap.Tokens[j].Token[:]) < 0
	})

	return json.Marshal(snap)
}

// Restore replaces the partition state with a snapshot taken from a
// partition with the same id.
func (p *Partition) Restore(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Partition != p.id {
		return fmt.Errorf("snapshot is for partition %d, not %d", snap.Partition, p.id)
	}

	contracts := make(map[interfaces.ContractID]*contract, len(snap.Contracts))
	for _, cs := range snap.Contracts {
		st, err := decodeState(cs.Kind, cs.State)
		if err != nil {
			return fmt.Errorf("failed to decode contract %s: %w", cs.ID, err)
		}
		balance, err := uint256.FromDecimal(cs.Balance)
		if err != nil {
			return fmt.Errorf("invalid balance of contract %s: %w", cs.ID, err)
		}
		contracts[cs.ID] = &contract{State: st, Balance: *balance}
	}

	balances := make(map[interfaces.Address]uint256.Int, len(snap.Balances))
	for _, bs := range snap.Balances {
		amount, err := uint256.FromDecimal(bs.Amount)
		if err != nil {
			return fmt.Errorf("invalid balance of %s: %w", bs.Address, err)
		}
		balances[bs.Address] = *amount
	}

	tokens := make(map[tokenKey]uint64, len(snap.Tokens))
	for _, ts := range snap.Tokens {
		tokens[tokenKey{Holder: ts.Holder, Token: ts.Token}] = ts.Amount
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.contracts = contracts
	p.balances = balances
	p.tokens = tokens
	p.events = snap.Events
	return nil
}
