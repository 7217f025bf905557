package ledger

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ruteri/ans-registry/interfaces"
)

// State is the typed value stored in a contract. Implementations are plain
// value types; a transaction replaces a state with Update rather than
// mutating it in place.
type State interface {
	StateKind() string
}

type stateDecoder func(raw json.RawMessage) (State, error)

var (
	kindsMu sync.RWMutex
	kinds   = map[string]stateDecoder{}
)

// RegisterState makes a state type restorable from snapshots.
func RegisterState[T State]() {
	var zero T
	kindsMu.Lock()
	defer kindsMu.Unlock()
	kinds[zero.StateKind()] = func(raw json.RawMessage) (State, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func decodeState(kind string, raw json.RawMessage) (State, error) {
	kindsMu.RLock()
	decode, ok := kinds[kind]
	kindsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown contract kind %q", kind)
	}
	return decode(raw)
}

// LoadAs loads a contract and asserts its state type.
func LoadAs[T State](tx *Tx, id interfaces.ContractID) (T, error) {
	var zero T
	st, err := tx.Load(id)
	if err != nil {
		return zero, err
	}
	v, ok := st.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %s, want %s", interfaces.ErrContractTypeMismatch, id, st.StateKind(), zero.StateKind())
	}
	return v, nil
}
