package registrar

import (
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/ledger"
)

// CredentialToken is the marker contract backing a minted credential token.
// Its contract id is the token id.
type CredentialToken struct {
	ID        interfaces.TokenID    `json:"id"`
	Registrar interfaces.ContractID `json:"registrar"`
	Name      string                `json:"name"`
	Node      interfaces.Node       `json:"node"`
	TTL       uint64                `json:"ttl"`
}

func (CredentialToken) StateKind() string { return "ans.CredentialToken" }

func init() {
	ledger.RegisterState[CredentialToken]()
	ledger.RegisterState[PrimaryState]()
	ledger.RegisterState[SecondaryState]()
}
