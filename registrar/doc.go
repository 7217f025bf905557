/*
Package registrar implements the two registrar contracts.

The Primary registrar runs on the home partition and is authoritative for
names: it registers and renews leases, collects rent, and issues
credential tokens. A credential token for a name is a marker contract at

	namespace.CredentialTokenID(primaryID, node, ttl)

plus one unit of the token with that id credited to the record owner.
Salting the id with ttl means renewing a name invalidates every token minted
before the renewal.

A Secondary registrar runs on every other partition. It never talks to the
primary: the owner moves a credential token to the secondary partition with
ledger.Ledger.TransferToken and redeems it there. The secondary recomputes
the expected token id from the primary id, the node and the claimed ttl,
burns the presented unit and writes a local record with that ttl. Since
the ledger lets a unit be burned only once, each token can be redeemed
only once.

Both registrars share the record operations of the record package and
remove the resolver profile of a node when its record is destroyed.
*/
package registrar
