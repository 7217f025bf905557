package ledger

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/interfaces"
)

// Tx is a transaction in progress. Reads see the transaction's own writes
// layered over the committed partition state.
type Tx struct {
	p        *Partition
	id       string
	caller   interfaces.Address
	now      uint64
	readOnly bool

	// nil entries mark destroyed contracts
	contracts map[interfaces.ContractID]*contract
	balances  map[interfaces.Address]uint256.Int
	tokens    map[tokenKey]uint64
	events    []interfaces.Event
}

func (tx *Tx) ID() string                        { return tx.id }
func (tx *Tx) Caller() interfaces.Address        { return tx.caller }
func (tx *Tx) Partition() interfaces.PartitionID { return tx.p.id }

// Now is the block time of the transaction in milliseconds. It does not
// change while the transaction runs.
func (tx *Tx) Now() uint64 { return tx.now }

func (tx *Tx) writable() error {
	if tx.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (tx *Tx) lookup(id interfaces.ContractID) (*contract, bool) {
	if c, ok := tx.contracts[id]; ok {
		return c, c != nil
	}
	c, ok := tx.p.contracts[id]
	return c, ok
}

// Exists reports whether a contract lives at id.
func (tx *Tx) Exists(id interfaces.ContractID) bool {
	_, ok := tx.lookup(id)
	return ok
}

// Load returns the state of the contract at id.
func (tx *Tx) Load(id interfaces.ContractID) (State, error) {
	c, ok := tx.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrContractNotExists, id)
	}
	return c.State, nil
}

// Create deploys a contract at id, moving deposit from payer into it.
func (tx *Tx) Create(id interfaces.ContractID, st State, payer interfaces.Address, deposit *uint256.Int) error {
	if err := tx.writable(); err != nil {
		return err
	}
	if tx.Exists(id) {
		return fmt.Errorf("%w: %s", interfaces.ErrContractExists, id)
	}

	c := &contract{State: st}
	if deposit != nil && !deposit.IsZero() {
		if err := tx.debit(payer, deposit); err != nil {
			return err
		}
		c.Balance.Set(deposit)
	}
	tx.contracts[id] = c
	return nil
}

// Update replaces the state of an existing contract. The state kind cannot change.
func (tx *Tx) Update(id interfaces.ContractID, st State) error {
	if err := tx.writable(); err != nil {
		return err
	}
	c, ok := tx.lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", interfaces.ErrContractNotExists, id)
	}
	if c.State.StateKind() != st.StateKind() {
		return fmt.Errorf("%w: %s holds %s", interfaces.ErrContractTypeMismatch, id, c.State.StateKind())
	}
	tx.contracts[id] = &contract{State: st, Balance: c.Balance}
	return nil
}

// Destroy removes a contract and sends its whole balance to refundTo.
func (tx *Tx) Destroy(id interfaces.ContractID, refundTo interfaces.Address) error {
	if err := tx.writable(); err != nil {
		return err
	}
	c, ok := tx.lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", interfaces.ErrContractNotExists, id)
	}
	tx.contracts[id] = nil
	if !c.Balance.IsZero() {
		if err := tx.credit(refundTo, &c.Balance); err != nil {
			return err
		}
	}
	tx.Emit(id, interfaces.EventContractDestroyed, interfaces.EventFields{}.
		Address("address", id.Address()).
		Address("refundTo", refundTo))
	return nil
}

// Balance returns the native balance of an asset address or a contract.
func (tx *Tx) Balance(addr interfaces.Address) *uint256.Int {
	if addr.Kind() == interfaces.ContractKind {
		c, ok := tx.lookup(addr.ContractID())
		if !ok {
			return new(uint256.Int)
		}
		return new(uint256.Int).Set(&c.Balance)
	}
	if amount, ok := tx.balances[addr]; ok {
		return &amount
	}
	amount := tx.p.balances[addr]
	return &amount
}

// Pay moves amount from an asset address signed by the caller into a contract.
func (tx *Tx) Pay(from interfaces.Address, to interfaces.ContractID, amount *uint256.Int) error {
	if err := tx.writable(); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	if err := tx.debit(from, amount); err != nil {
		return err
	}
	return tx.credit(to.Address(), amount)
}

// TransferFromContract moves amount out of a contract's balance.
func (tx *Tx) TransferFromContract(from interfaces.ContractID, to interfaces.Address, amount *uint256.Int) error {
	if err := tx.writable(); err != nil {
		return err
	}
	c, ok := tx.lookup(from)
	if !ok {
		return fmt.Errorf("%w: %s", interfaces.ErrContractNotExists, from)
	}
	if c.Balance.Lt(amount) {
		return fmt.Errorf("%w: contract %s holds %s", interfaces.ErrInsufficientBalance, from, c.Balance.Dec())
	}
	updated := &contract{State: c.State}
	updated.Balance.Sub(&c.Balance, amount)
	tx.contracts[from] = updated
	return tx.credit(to, amount)
}

func (tx *Tx) debit(from interfaces.Address, amount *uint256.Int) error {
	if from != tx.caller {
		return fmt.Errorf("%w: %s", interfaces.ErrNotSigner, from)
	}
	if !from.IsAsset() {
		return fmt.Errorf("%w: %s", interfaces.ErrExpectAssetAddress, from)
	}
	balance := tx.Balance(from)
	if balance.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", interfaces.ErrInsufficientBalance, from, balance.Dec(), amount.Dec())
	}
	tx.balances[from] = *new(uint256.Int).Sub(balance, amount)
	return nil
}

func (tx *Tx) credit(to interfaces.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return fmt.Errorf("%w: credit to zero address", interfaces.ErrInvalidArgs)
	}
	if to.Kind() == interfaces.ContractKind {
		id := to.ContractID()
		c, ok := tx.lookup(id)
		if !ok {
			return fmt.Errorf("%w: %s", interfaces.ErrContractNotExists, id)
		}
		updated := &contract{State: c.State}
		updated.Balance.Add(&c.Balance, amount)
		tx.contracts[id] = updated
		return nil
	}
	tx.balances[to] = *new(uint256.Int).Add(tx.Balance(to), amount)
	return nil
}

// TokenBalance returns the number of units of token held by holder.
func (tx *Tx) TokenBalance(holder interfaces.Address, token interfaces.TokenID) uint64 {
	key := tokenKey{Holder: holder, Token: token}
	if n, ok := tx.tokens[key]; ok {
		return n
	}
	return tx.p.tokens[key]
}

// MintToken credits one unit of token to holder.
func (tx *Tx) MintToken(holder interfaces.Address, token interfaces.TokenID) error {
	if err := tx.writable(); err != nil {
		return err
	}
	key := tokenKey{Holder: holder, Token: token}
	tx.tokens[key] = tx.TokenBalance(holder, token) + 1
	return nil
}

// BurnToken removes one unit of token from holder.
func (tx *Tx) BurnToken(holder interfaces.Address, token interfaces.TokenID) error {
	if err := tx.writable(); err != nil {
		return err
	}
	n := tx.TokenBalance(holder, token)
	if n == 0 {
		return fmt.Errorf("%w: %s holds no %s", interfaces.ErrNoTokenBalance, holder, token)
	}
	tx.tokens[tokenKey{Holder: holder, Token: token}] = n - 1
	return nil
}

// Emit appends an event to the transaction. Events become visible only if
// the transaction commits.
func (tx *Tx) Emit(contract interfaces.ContractID, name string, fields interfaces.EventFields) {
	if tx.readOnly {
		return
	}
	if fields == nil {
		fields = interfaces.EventFields{}
	}
	tx.events = append(tx.events, interfaces.Event{
		Partition: tx.p.id,
		TxID:      tx.id,
		Timestamp: tx.now,
		Contract:  contract,
		Name:      name,
		Fields:    fields,
	})
}
