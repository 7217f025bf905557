/*
Package ledger is the execution substrate the registry contracts run on.

A Ledger is a set of partitions. A partition is a single-writer state
machine: every call to Execute runs against a copy-on-write overlay of the
partition state under the partition's write lock, and either commits all
of its writes and events or none of them. Transactions on one partition are
therefore totally ordered, while partitions never see each other's state.

Partition state consists of:

  - a contract arena keyed by ContractID, each contract holding a typed
    State value and a locked native balance;
  - native balances of asset addresses;
  - non-fungible token balances;
  - an append-only event log.

The only cross-partition primitive is Ledger.TransferToken, which moves a
token by running one transaction on the source partition and one on the
target. It is the hand-off users perform when carrying a credential token
from the home partition to a secondary one.

Committed events are forwarded to an optional interfaces.EventSink in
commit order. Sink failures are logged and never affect the transaction.

Snapshot and Restore produce and consume a deterministic JSON document of
the partition, which the storage package persists.
*/
package ledger
