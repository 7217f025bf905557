// Package service deploys the name registry onto a partitioned ledger and
// routes every registry operation to the partition that serves it.
//
// The home partition hosts the primary registry and its resolver. Every
// secondary partition hosts a secondary registrar, which accepts credential
// tokens minted on the home partition, and a resolver of its own.
package service
