package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"
	"github.com/ruteri/ans-registry/interfaces"
	"github.com/ruteri/ans-registry/ledger"
	"github.com/ruteri/ans-registry/record"
	"github.com/ruteri/ans-registry/registrar"
	"github.com/ruteri/ans-registry/resolver"
)

// Deployment is a running registry: the ledger plus handles to every
// contract deployed on it.
type Deployment struct {
	ledger      *ledger.Ledger
	primary     *registrar.Primary
	secondaries map[interfaces.PartitionID]*registrar.Secondary
	resolvers   map[interfaces.PartitionID]*resolver.Resolver
	storage     interfaces.StorageBackend
	log         *slog.Logger
}

// New builds the partitions and deploys the registry contracts on them.
// Deploying is idempotent, so New followed by Restore of a snapshot taken
// from an identical deployment yields working handles.
func New(ctx context.Context, cfg Config) (*Deployment, error) {
	if !cfg.Admin.IsAsset() {
		return nil, fmt.Errorf("%w: admin %s", interfaces.ErrExpectAssetAddress, cfg.Admin)
	}
	if cfg.Secondaries < 0 || cfg.Secondaries > 255 {
		return nil, fmt.Errorf("%w: %d secondary partitions", interfaces.ErrInvalidArgs, cfg.Secondaries)
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	partitions := make([]*ledger.Partition, 0, cfg.Secondaries+1)
	for i := 0; i <= cfg.Secondaries; i++ {
		partitions = append(partitions, ledger.NewPartition(ledger.PartitionConfig{
			ID:      interfaces.PartitionID(i),
			Clock:   cfg.Clock,
			Log:     cfg.Log,
			Metrics: cfg.Metrics,
			Sink:    cfg.Sink,
		}))
	}
	l, err := ledger.New(cfg.Log, partitions...)
	if err != nil {
		return nil, err
	}

	d := &Deployment{
		ledger:      l,
		secondaries: make(map[interfaces.PartitionID]*registrar.Secondary, cfg.Secondaries),
		resolvers:   make(map[interfaces.PartitionID]*resolver.Resolver, cfg.Secondaries+1),
		storage:     cfg.Storage,
		log:         cfg.Log,
	}

	primaryID := ContractIDFor(HomePartition, KindPrimary)
	for _, p := range partitions {
		resolverID := ContractIDFor(p.ID(), KindResolver)

		var (
			registrarID interfaces.ContractID
			profiles    interface {
				SetProfileRemover(registrar.ProfileRemover)
			}
		)
		if p.ID() == HomePartition {
			regCfg := cfg.Registrar
			if regCfg.DefaultResolver.IsZero() {
				regCfg.DefaultResolver = resolverID
			}
			d.primary, err = registrar.DeployPrimary(ctx, p, cfg.Admin, primaryID, regCfg, cfg.Log)
			if err != nil {
				return nil, err
			}
			registrarID, profiles = primaryID, d.primary
		} else {
			secondaryID := ContractIDFor(p.ID(), KindSecondary)
			secondary, err := registrar.DeploySecondary(ctx, p, cfg.Admin, secondaryID, primaryID, cfg.Registrar, cfg.Log)
			if err != nil {
				return nil, err
			}
			d.secondaries[p.ID()] = secondary
			registrarID, profiles = secondaryID, secondary
		}

		res, err := resolver.Deploy(ctx, p, cfg.Admin, resolverID, registrarID, cfg.ResolverDeposit, cfg.Log)
		if err != nil {
			return nil, err
		}
		profiles.SetProfileRemover(res)
		d.resolvers[p.ID()] = res
	}

	d.log.Info("registry deployed", "partitions", len(partitions), "primary", primaryID.String())
	return d, nil
}

// Ledger returns the underlying ledger.
func (d *Deployment) Ledger() *ledger.Ledger {
	return d.ledger
}

// Primary returns the primary registry.
func (d *Deployment) Primary() *registrar.Primary {
	return d.primary
}

// Secondary returns the secondary registrar of a partition.
func (d *Deployment) Secondary(partition interfaces.PartitionID) (*registrar.Secondary, error) {
	s, ok := d.secondaries[partition]
	if !ok {
		return nil, fmt.Errorf("%w: no secondary registrar on partition %d", interfaces.ErrUnknownPartition, partition)
	}
	return s, nil
}

// Resolver returns the resolver of a partition.
func (d *Deployment) Resolver(partition interfaces.PartitionID) (*resolver.Resolver, error) {
	r, ok := d.resolvers[partition]
	if !ok {
		return nil, fmt.Errorf("%w: %d", interfaces.ErrUnknownPartition, partition)
	}
	return r, nil
}

// RecordRegistrar is what every registrar offers for record management.
type RecordRegistrar interface {
	ID() interfaces.ContractID
	Partition() *ledger.Partition
	SetOwner(ctx context.Context, caller interfaces.Address, node interfaces.Node, newOwner interfaces.Address) (record.Record, error)
	SetResolver(ctx context.Context, caller interfaces.Address, node interfaces.Node, resolverID interfaces.ContractID) (record.Record, error)
	Unregister(ctx context.Context, caller interfaces.Address, node interfaces.Node) error
	RecordOf(node interfaces.Node) (record.Record, record.Status, error)
	Lookup(name string) (record.Record, record.Status, error)
}

// Registrar returns the registrar of a partition: the primary registry on
// the home partition, a secondary registrar elsewhere.
func (d *Deployment) Registrar(partition interfaces.PartitionID) (RecordRegistrar, error) {
	if partition == HomePartition {
		return d.primary, nil
	}
	s, err := d.Secondary(partition)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Partitions lists the partition ids, home first.
func (d *Deployment) Partitions() []interfaces.PartitionID {
	partitions := d.ledger.Partitions()
	ids := make([]interfaces.PartitionID, len(partitions))
	for i, p := range partitions {
		ids[i] = p.ID()
	}
	return ids
}

func (d *Deployment) partition(id interfaces.PartitionID) (*ledger.Partition, error) {
	return d.ledger.Partition(id)
}

// Events returns committed events of a partition.
func (d *Deployment) Events(partition interfaces.PartitionID, from uint64, limit int) ([]interfaces.Event, error) {
	p, err := d.partition(partition)
	if err != nil {
		return nil, err
	}
	return p.Events(from, limit), nil
}

// Balance returns the native balance of addr on a partition.
func (d *Deployment) Balance(partition interfaces.PartitionID, addr interfaces.Address) (*uint256.Int, error) {
	p, err := d.partition(partition)
	if err != nil {
		return nil, err
	}
	return p.Balance(addr), nil
}

// TokenBalance returns how many units of token holder owns on a partition.
func (d *Deployment) TokenBalance(partition interfaces.PartitionID, holder interfaces.Address, token interfaces.TokenID) (uint64, error) {
	p, err := d.partition(partition)
	if err != nil {
		return 0, err
	}
	return p.TokenBalance(holder, token), nil
}

// Credit mints native funds to an account. Devnet only.
func (d *Deployment) Credit(ctx context.Context, partition interfaces.PartitionID, to interfaces.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return errors.New("credit amount must be positive")
	}
	return d.ledger.Credit(ctx, partition, to, amount)
}

// TransferToken hands a token to recipient, possibly on another partition.
func (d *Deployment) TransferToken(ctx context.Context, caller interfaces.Address, from, to interfaces.PartitionID, recipient interfaces.Address, token interfaces.TokenID) error {
	return d.ledger.TransferToken(ctx, caller, from, to, recipient, token)
}
