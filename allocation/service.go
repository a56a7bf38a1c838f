/*
service.go - Harvesting batch lifecycle

PURPOSE:
  Wraps the pure Allocate computation with batch persistence: creating a
  harvesting batch for a source asset, adding recovered items, running an
  allocation, and freezing the batch.

LIFECYCLE:
  CreateHarvesting -> AddItem* -> AllocateCostsByMethod* -> CompleteHarvesting

  Allocation may run more than once (switching methods) until the batch
  is completed; a completed batch's items are immutable.

CONCURRENCY:
  Allocation is a read-compute-write sequence. The batch version read at
  the start is passed to UpdateItemAllocations, so a concurrent allocation
  against the same batch fails with ErrConcurrentModification instead of
  silently interleaving.
*/
package allocation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/warp/recovery-engine/itad"
)

// Service drives harvesting batches against the store.
type Service struct {
	Batches itad.HarvestingStore
	Assets  itad.AssetStore
}

func NewService(batches itad.HarvestingStore, assets itad.AssetStore) *Service {
	return &Service{Batches: batches, Assets: assets}
}

// CreateHarvesting opens a new batch for a source asset and marks the
// asset harvested.
func (s *Service) CreateHarvesting(ctx context.Context, sourceAssetID itad.AssetID, totalCost itad.Money) (*itad.HarvestingBatch, error) {
	if totalCost.IsNegative() {
		return nil, &itad.ValidationError{Field: "total_cost_to_allocate", Message: "must not be negative"}
	}

	asset, err := s.Assets.GetAsset(ctx, sourceAssetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, itad.ErrAssetNotFound
	}

	batch := itad.HarvestingBatch{
		ID:                  itad.BatchID(uuid.NewString()),
		SourceAssetID:       sourceAssetID,
		TotalCostToAllocate: totalCost,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.Batches.SaveBatch(ctx, batch); err != nil {
		return nil, err
	}

	asset.Status = itad.AssetHarvested
	if err := s.Assets.SaveAsset(ctx, *asset); err != nil {
		return nil, err
	}
	return &batch, nil
}

// AddItem records a recovered component on an open batch.
func (s *Service) AddItem(ctx context.Context, batchID itad.BatchID, weight itad.Weight, marketValue itad.Money, percentage itad.Percent) (*itad.HarvestingItem, error) {
	if weight.IsNegative() {
		return nil, &itad.ValidationError{Field: "weight_kg", Message: "must not be negative"}
	}
	if marketValue.IsNegative() {
		return nil, &itad.ValidationError{Field: "market_value_at_harvest", Message: "must not be negative"}
	}

	batch, err := s.Batches.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, itad.ErrBatchNotFound
	}
	if batch.Completed {
		return nil, itad.ErrBatchCompleted
	}

	item := itad.HarvestingItem{
		ID:                   itad.ComponentID(uuid.NewString()),
		BatchID:              batchID,
		WeightKg:             weight,
		MarketValueAtHarvest: marketValue,
		AllocatedPercentage:  percentage,
	}
	if err := s.Batches.AddItem(ctx, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// AllocateCostsByMethod runs one allocation over the batch's items and
// persists the results together with the method. All-or-nothing: a failed
// precondition leaves every item unmodified.
func (s *Service) AllocateCostsByMethod(ctx context.Context, batchID itad.BatchID, method itad.AllocationMethod) ([]itad.HarvestingItem, error) {
	batch, err := s.Batches.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, itad.ErrBatchNotFound
	}
	if batch.Completed {
		return nil, itad.ErrBatchCompleted
	}

	items, err := s.Batches.ListItems(ctx, batchID)
	if err != nil {
		return nil, err
	}

	allocated, err := Allocate(batch.TotalCostToAllocate, items, method)
	if err != nil {
		return nil, err
	}

	if err := s.Batches.UpdateItemAllocations(ctx, batchID, method, allocated, batch.Version); err != nil {
		return nil, err
	}
	return allocated, nil
}

// CompleteHarvesting freezes the batch; its items become immutable.
func (s *Service) CompleteHarvesting(ctx context.Context, batchID itad.BatchID) error {
	batch, err := s.Batches.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if batch == nil {
		return itad.ErrBatchNotFound
	}
	if batch.Completed {
		return itad.ErrBatchCompleted
	}

	batch.Completed = true
	return s.Batches.UpdateBatch(ctx, *batch)
}
