package service

import (
	"encoding/binary"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/ans-registry/common"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/metrics"
	"github.com/ruteri/ans-registry/registrar"
)

// HomePartition hosts the primary registry.
const HomePartition interfaces.PartitionID = 0

// DefaultResolverDeposit is what every typed sub-record locks, 0.1 ALPH.
const DefaultResolverDeposit uint64 = 100_000_000_000_000_000

// Config describes a deployment.
type Config struct {
	// Secondaries is the number of secondary partitions, numbered from 1.
	Secondaries int

	// Admin deploys the contracts and administers the primary registry.
	Admin interfaces.Address

	Registrar       registrar.Config
	ResolverDeposit uint64

	Clock   clock.Clock
	Metrics *metrics.Metrics
	Sink    interfaces.EventSink
	Storage interfaces.StorageBackend
	Log     *slog.Logger
}

// DefaultConfig returns a deployment with one secondary partition and the
// default registry parameters. Admin and Log still have to be set.
func DefaultConfig() Config {
	return Config{
		Secondaries:     1,
		Registrar:       registrar.DefaultConfig(),
		ResolverDeposit: DefaultResolverDeposit,
		Clock:           clock.New(),
	}
}

// Contract kinds deployed on a partition.
const (
	KindPrimary   = "primary"
	KindSecondary = "secondary"
	KindResolver  = "resolver"
)

// ContractIDFor derives the id of the contract of kind on partition. Ids are
// stable so that a restored snapshot matches a fresh deployment.
func ContractIDFor(partition interfaces.PartitionID, kind string) interfaces.ContractID {
	var p [2]byte
	binary.BigEndian.PutUint16(p[:], uint16(partition))
	return interfaces.ContractID(crypto.Keccak256Hash([]byte(common.PackageName), []byte(kind), p[:]))
}
