package interfaces

import (
	"context"
	"strconv"
)

// Event names emitted by the registry contracts.
const (
	EventNameRegistered        = "NameRegistered"
	EventNameRenewed           = "NameRenewed"
	EventNewNode               = "NewNode"
	EventTransfer              = "Transfer"
	EventNewResolver           = "NewResolver"
	EventNewTTL                = "NewTTL"
	EventCredentialTokenMinted = "CredentialTokenMinted"
	EventCredentialTokenBurned = "CredentialTokenBurned"
	EventAdminUpdated          = "AdminUpdated"
	EventAddressInfoCreated    = "AddressInfoCreated"
	EventNameInfoCreated       = "NameInfoCreated"
	EventPubkeyInfoCreated     = "PubkeyInfoCreated"
	EventAddressUpdated        = "AddressUpdated"
	EventNameUpdated           = "NameUpdated"
	EventPubkeyUpdated         = "PubkeyUpdated"
	EventAddressInfoRemoved    = "AddressInfoRemoved"
	EventNameInfoRemoved       = "NameInfoRemoved"
	EventPubkeyInfoRemoved     = "PubkeyInfoRemoved"
	EventProfileRemoved        = "ProfileRemoved"
	EventContractDestroyed     = "ContractDestroyed"
	EventTokenTransferredOut   = "TokenTransferredOut"
	EventTokenTransferredIn    = "TokenTransferredIn"
)

// Event is one entry of a partition's append-only audit trail. Fields are
// rendered as strings (hex for byte values, decimal for numbers).
type Event struct {
	Partition PartitionID       `json:"partition"`
	Seq       uint64            `json:"seq"`
	TxID      string            `json:"tx_id"`
	Timestamp uint64            `json:"timestamp"`
	Contract  ContractID        `json:"contract"`
	Name      string            `json:"name"`
	Fields    map[string]string `json:"fields"`
}

// Field returns a field value or the empty string.
func (e Event) Field(name string) string {
	return e.Fields[name]
}

// EventFields is a small builder for event payloads.
type EventFields map[string]string

func (f EventFields) Node(key string, n Node) EventFields {
	f[key] = n.String()
	return f
}

func (f EventFields) Address(key string, a Address) EventFields {
	f[key] = a.String()
	return f
}

func (f EventFields) ID(key string, id ContractID) EventFields {
	f[key] = id.String()
	return f
}

func (f EventFields) Bytes(key string, b []byte) EventFields {
	f[key] = HexBytes(b).String()
	return f
}

func (f EventFields) Uint(key string, v uint64) EventFields {
	f[key] = strconv.FormatUint(v, 10)
	return f
}

// EventSink receives events after the transaction that emitted them committed.
type EventSink interface {
	Publish(ctx context.Context, events []Event) error
	Close() error
}
