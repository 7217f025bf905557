/*
Package resolver stores the profile of a name as independently addressed
typed sub-records.

Each sub-record kind is its own contract type living at
namespace.SubRecordAddress(resolverID, tag, node):

  - AddressInfo holds the address book, a chain id to address table;
  - NameInfo holds a display name;
  - PubkeyInfo holds a public key.

Writes are authorized against the Record of the node under the registrar
the resolver serves: the transaction must be signed by the record owner.
Setters create the sub-record on first write, with the caller paying the
deposit; removing a profile destroys every sub-record and refunds each
deposit to the address that paid it.
*/
package resolver
