package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ruteri/ans-registry/common"
	"github.com/ruteri/ans-registry/interfaces"
)

// ErrNoStorage is returned by snapshot operations of a deployment without
// a storage backend.
var ErrNoStorage = errors.New("no storage backend configured")

// Manifest lists the partition snapshots that make up one registry snapshot.
type Manifest struct {
	Version    string              `json:"version"`
	Timestamp  uint64              `json:"timestamp"`
	Partitions []PartitionSnapshot `json:"partitions"`
}

type PartitionSnapshot struct {
	Partition interfaces.PartitionID `json:"partition"`
	ID        interfaces.ContentID   `json:"id"`
}

// Snapshot stores every partition and a manifest referencing them, and
// returns the manifest id. Partitions are captured one after the other, so
// a snapshot taken under load is consistent per partition only.
func (d *Deployment) Snapshot(ctx context.Context) (interfaces.ContentID, error) {
	if d.storage == nil {
		return interfaces.ContentID{}, ErrNoStorage
	}

	manifest := Manifest{
		Version:   common.Version,
		Timestamp: d.primary.Partition().Now(),
	}
	for _, p := range d.ledger.Partitions() {
		data, err := p.Snapshot()
		if err != nil {
			return interfaces.ContentID{}, err
		}
		id, err := d.storage.Store(ctx, data, interfaces.SnapshotType)
		if err != nil {
			return interfaces.ContentID{}, fmt.Errorf("failed to store snapshot of partition %d: %w", p.ID(), err)
		}
		manifest.Partitions = append(manifest.Partitions, PartitionSnapshot{Partition: p.ID(), ID: id})
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		return interfaces.ContentID{}, err
	}
	id, err := d.storage.Store(ctx, data, interfaces.SnapshotType)
	if err != nil {
		return interfaces.ContentID{}, fmt.Errorf("failed to store snapshot manifest: %w", err)
	}

	d.log.Info("snapshot stored", "id", id.String(), "backend", d.storage.Name(), "partitions", len(manifest.Partitions))
	return id, nil
}

// Restore loads the snapshot behind a manifest id. Every partition snapshot
// is fetched and checked against its content id before any partition is
// touched.
func (d *Deployment) Restore(ctx context.Context, manifestID interfaces.ContentID) error {
	if d.storage == nil {
		return ErrNoStorage
	}

	data, err := d.storage.Fetch(ctx, manifestID, interfaces.SnapshotType)
	if err != nil {
		return fmt.Errorf("failed to fetch snapshot manifest %s: %w", manifestID, err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to decode snapshot manifest %s: %w", manifestID, err)
	}
	if len(manifest.Partitions) != len(d.ledger.Partitions()) {
		return fmt.Errorf("snapshot has %d partitions, deployment has %d", len(manifest.Partitions), len(d.ledger.Partitions()))
	}

	snapshots := make(map[interfaces.PartitionID][]byte, len(manifest.Partitions))
	for _, ps := range manifest.Partitions {
		if _, err := d.ledger.Partition(ps.Partition); err != nil {
			return err
		}
		data, err := d.storage.Fetch(ctx, ps.ID, interfaces.SnapshotType)
		if err != nil {
			return fmt.Errorf("failed to fetch snapshot of partition %d: %w", ps.Partition, err)
		}
		if interfaces.ComputeID(data) != ps.ID {
			return fmt.Errorf("snapshot of partition %d does not match its id %s", ps.Partition, ps.ID)
		}
		snapshots[ps.Partition] = data
	}

	for id, data := range snapshots {
		p, _ := d.ledger.Partition(id)
		if err := p.Restore(data); err != nil {
			return fmt.Errorf("failed to restore partition %d: %w", id, err)
		}
	}

	d.log.Info("snapshot restored", "id", manifestID.String(), "version", manifest.Version, "timestamp", manifest.Timestamp)
	return nil
}

// ExportEvents stores the event log of a partition and returns its id.
func (d *Deployment) ExportEvents(ctx context.Context, partition interfaces.PartitionID) (interfaces.ContentID, error) {
	if d.storage == nil {
		return interfaces.ContentID{}, ErrNoStorage
	}
	p, err := d.ledger.Partition(partition)
	if err != nil {
		return interfaces.ContentID{}, err
	}
	data, err := json.Marshal(p.Events(0, 0))
	if err != nil {
		return interfaces.ContentID{}, err
	}
	return d.storage.Store(ctx, data, interfaces.EventLogType)
}
