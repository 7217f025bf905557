// Package record implements the leased ownership entry shared by the primary
// and secondary registrars.
package record

import (
	"fmt"
	"slices"

	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/ledger"
	"github.com/ruteri/ans-registry/namespace"
)

func init() {
	ledger.RegisterState[Record]()
}

// Record is the ownership entry of one name on one partition. It lives at
// namespace.RecordAddress(Registrar, Node) and holds the registration deposit.
type Record struct {
	Registrar     interfaces.ContractID `json:"registrar"`
	Node          interfaces.Node       `json:"node"`
	Parent        interfaces.Node       `json:"parent"`
	Owner         interfaces.Address    `json:"owner"`
	TTL           uint64                `json:"ttl"`
	Resolver      interfaces.ContractID `json:"resolver"`
	RefundAddress interfaces.Address    `json:"refundAddress"`
	Children      []interfaces.Node     `json:"children,omitempty"`
}

func (Record) StateKind() string { return "ans.Record" }

// Status is derived from ttl on every read; nothing is ever swept.
type Status int

const (
	StatusAbsent Status = iota
	StatusLive
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusLive:
		return "live"
	case StatusExpired:
		return "expired"
	default:
		return "absent"
	}
}

// StatusAt returns live while now < ttl.
func (r Record) StatusAt(now uint64) Status {
	if now < r.TTL {
		return StatusLive
	}
	return StatusExpired
}

func (r Record) IsLive(now uint64) bool {
	return r.StatusAt(now) == StatusLive
}

// IsSubName reports whether the record sits below a top-level name.
func (r Record) IsSubName() bool {
	return r.Parent != namespace.RootNode
}

// Address returns where the record of node lives under registrar.
func Address(registrar interfaces.ContractID, node interfaces.Node) interfaces.ContractID {
	return namespace.RecordAddress(registrar, node)
}

// Load reads the record of node under registrar.
func Load(tx *ledger.Tx, registrar interfaces.ContractID, node interfaces.Node) (Record, error) {
	rec, err := ledger.LoadAs[Record](tx, Address(registrar, node))
	if err != nil {
		return Record{}, fmt.Errorf("record of %s: %w", node, err)
	}
	return rec, nil
}

// Lookup reads a record and its status. A missing record yields StatusAbsent
// and no error.
func Lookup(tx *ledger.Tx, registrar interfaces.ContractID, node interfaces.Node) (Record, Status, error) {
	id := Address(registrar, node)
	if !tx.Exists(id) {
		return Record{}, StatusAbsent, nil
	}
	rec, err := ledger.LoadAs[Record](tx, id)
	if err != nil {
		return Record{}, StatusAbsent, err
	}
	return rec, rec.StatusAt(tx.Now()), nil
}

// Authorize loads the record of node and checks that the transaction is
// signed by its owner.
func Authorize(tx *ledger.Tx, registrar interfaces.ContractID, node interfaces.Node) (Record, error) {
	rec, err := Load(tx, registrar, node)
	if err != nil {
		return Record{}, err
	}
	if tx.Caller() != rec.Owner {
		return Record{}, fmt.Errorf("%w: %s does not own %s", interfaces.ErrInvalidCaller, tx.Caller(), node)
	}
	return rec, nil
}

// SetOwner transfers the record to newOwner.
func SetOwner(tx *ledger.Tx, registrar interfaces.ContractID, node interfaces.Node, newOwner interfaces.Address) (Record, error) {
	rec, err := Authorize(tx, registrar, node)
	if err != nil {
		return Record{}, err
	}
	if !newOwner.IsAsset() {
		return Record{}, fmt.Errorf("%w: new owner %s", interfaces.ErrExpectAssetAddress, newOwner)
	}

	oldOwner := rec.Owner
	rec.Owner = newOwner
	if err := tx.Update(Address(registrar, node), rec); err != nil {
		return Record{}, err
	}
	tx.Emit(registrar, interfaces.EventTransfer, interfaces.EventFields{}.
		Node("node", node).
		Address("oldOwner", oldOwner).
		Address("newOwner", newOwner))
	return rec, nil
}

// SetResolver points the record at a resolver. A zero id clears it.
func SetResolver(tx *ledger.Tx, registrar interfaces.ContractID, node interfaces.Node, resolver interfaces.ContractID) (Record, error) {
	rec, err := Authorize(tx, registrar, node)
	if err != nil {
		return Record{}, err
	}

	rec.Resolver = resolver
	if err := tx.Update(Address(registrar, node), rec); err != nil {
		return Record{}, err
	}
	tx.Emit(registrar, interfaces.EventNewResolver, interfaces.EventFields{}.
		Node("node", node).
		Address("owner", rec.Owner).
		ID("resolverId", resolver))
	return rec, nil
}

// Destroy removes the record and refunds its deposit to the refund address.
// Callers are responsible for authorization.
func Destroy(tx *ledger.Tx, rec Record) error {
	return tx.Destroy(Address(rec.Registrar, rec.Node), rec.RefundAddress)
}

// LinkChild lists child under the parent record so that removing the parent
// removes the child too.
func LinkChild(tx *ledger.Tx, registrar interfaces.ContractID, parent, child interfaces.Node) error {
	rec, err := Load(tx, registrar, parent)
	if err != nil {
		return err
	}
	if slices.Contains(rec.Children, child) {
		return nil
	}
	rec.Children = append(slices.Clone(rec.Children), child)
	return tx.Update(Address(registrar, parent), rec)
}

// UnlinkChild drops child from the parent record. A missing parent is not an
// error.
func UnlinkChild(tx *ledger.Tx, registrar interfaces.ContractID, parent, child interfaces.Node) error {
	rec, status, err := Lookup(tx, registrar, parent)
	if err != nil || status == StatusAbsent {
		return err
	}
	i := slices.Index(rec.Children, child)
	if i < 0 {
		return nil
	}
	rec.Children = slices.Delete(slices.Clone(rec.Children), i, i+1)
	return tx.Update(Address(registrar, parent), rec)
}
