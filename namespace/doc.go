/*
Package namespace derives the identifiers used across the registry.

A name is addressed by its node. The node of a top-level name is
keccak256(RootNode ++ keccak256(name)), and the node of a one-level
subname is keccak256(parentNode ++ keccak256(label)). Nodes are the same
on every partition, which is what lets a secondary registrar recompute the
identity of a record minted elsewhere without calling across partitions.

Records, resolver sub-records and credential token markers live at
addresses derived from an owning contract and a path:

	DeriveSubRecordAddress(root, path) = blake2b-256(root ++ path)

The paths used by the registry are:

	record:           node
	address book:     0x00 ++ node
	name info:        0x01 ++ node
	pubkey info:      0x02 ++ node
	credential token: node ++ ttl (8 bytes big-endian)

Each sub-record kind has its own type tag so two kinds can never collide
on the same address.
*/
package namespace
