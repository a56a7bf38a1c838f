// Package store provides an in-memory itad.Store implementation
// (for testing/dev).
package store

import (
	"context"
	"sync"

	"github.com/warp/recovery-engine/itad"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of every repository interface
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	assets      map[itad.AssetID]itad.Asset
	components  map[itad.ComponentID]itad.Component
	sales       []itad.ComponentSale
	batches     map[itad.BatchID]itad.HarvestingBatch
	items       map[itad.BatchID][]itad.HarvestingItem
	projects    map[itad.ProjectID]itad.Project
	settlements map[itad.SettlementID]itad.RevenueSettlement
	events      []itad.ESGEvent
	categories  map[itad.WasteCategoryID]itad.WasteCategory
	methods     map[itad.RecoveryMethodID]itad.RecoveryMethod
}

var _ itad.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		assets:      make(map[itad.AssetID]itad.Asset),
		components:  make(map[itad.ComponentID]itad.Component),
		batches:     make(map[itad.BatchID]itad.HarvestingBatch),
		items:       make(map[itad.BatchID][]itad.HarvestingItem),
		projects:    make(map[itad.ProjectID]itad.Project),
		settlements: make(map[itad.SettlementID]itad.RevenueSettlement),
		categories:  make(map[itad.WasteCategoryID]itad.WasteCategory),
		methods:     make(map[itad.RecoveryMethodID]itad.RecoveryMethod),
	}
}

// =============================================================================
// ASSETS
// =============================================================================

func (m *Memory) SaveAsset(_ context.Context, a itad.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[a.ID] = a
	return nil
}

// SaveAssets writes the chunk atomically; the lock makes the multi-row
// write indivisible.
func (m *Memory) SaveAssets(_ context.Context, assets []itad.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range assets {
		m.assets[a.ID] = a
	}
	return nil
}

func (m *Memory) GetAsset(_ context.Context, id itad.AssetID) (*itad.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) ListAssetsByProject(_ context.Context, projectID itad.ProjectID) ([]itad.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []itad.Asset
	for _, a := range m.assets {
		if a.ProjectID == projectID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *Memory) ListAssetsByProjectAndStatus(_ context.Context, projectID itad.ProjectID, status itad.AssetStatus) ([]itad.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []itad.Asset
	for _, a := range m.assets {
		if a.ProjectID == projectID && a.Status == status {
			result = append(result, a)
		}
	}
	return result, nil
}

// =============================================================================
// COMPONENTS
// =============================================================================

func (m *Memory) SaveComponent(_ context.Context, c itad.Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[c.ID] = c
	return nil
}

func (m *Memory) GetComponent(_ context.Context, id itad.ComponentID) (*itad.Component, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.components[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) SaveComponentSale(_ context.Context, s itad.ComponentSale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, s)
	return nil
}

func (m *Memory) ListComponentSalesForProject(_ context.Context, projectID itad.ProjectID) ([]itad.ComponentSaleForProject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []itad.ComponentSaleForProject
	for _, s := range m.sales {
		c, ok := m.components[s.ComponentID]
		if !ok {
			continue
		}
		a, ok := m.assets[c.SourceAssetID]
		if !ok || a.ProjectID != projectID {
			continue
		}
		result = append(result, itad.ComponentSaleForProject{
			Sale:          s,
			SourceAssetID: a.ID,
			ProjectID:     a.ProjectID,
		})
	}
	return result, nil
}

// =============================================================================
// HARVESTING
// =============================================================================

func (m *Memory) SaveBatch(_ context.Context, b itad.HarvestingBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[b.ID] = b
	return nil
}

func (m *Memory) GetBatch(_ context.Context, id itad.BatchID) (*itad.HarvestingBatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *Memory) UpdateBatch(_ context.Context, b itad.HarvestingBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.batches[b.ID]
	if !ok {
		return itad.ErrBatchNotFound
	}
	if current.Version != b.Version {
		return itad.ErrConcurrentModification
	}
	b.Version++
	m.batches[b.ID] = b
	return nil
}

func (m *Memory) AddItem(_ context.Context, item itad.HarvestingItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.BatchID] = append(m.items[item.BatchID], item)
	return nil
}

func (m *Memory) ListItems(_ context.Context, batchID itad.BatchID) ([]itad.HarvestingItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]itad.HarvestingItem, len(m.items[batchID]))
	copy(result, m.items[batchID])
	return result, nil
}

func (m *Memory) UpdateItemAllocations(_ context.Context, batchID itad.BatchID, method itad.AllocationMethod, items []itad.HarvestingItem, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[batchID]
	if !ok {
		return itad.ErrBatchNotFound
	}
	if b.Version != version {
		return itad.ErrConcurrentModification
	}

	updated := make([]itad.HarvestingItem, len(items))
	copy(updated, items)
	m.items[batchID] = updated

	b.AllocationMethod = method
	b.Version++
	m.batches[batchID] = b
	return nil
}

// =============================================================================
// PROJECTS & SETTLEMENTS
// =============================================================================

func (m *Memory) SaveProject(_ context.Context, p itad.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	return nil
}

func (m *Memory) GetProject(_ context.Context, id itad.ProjectID) (*itad.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) InsertSettlement(_ context.Context, s itad.RevenueSettlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settlements[s.ID] = s
	return nil
}

func (m *Memory) GetSettlement(_ context.Context, id itad.SettlementID) (*itad.RevenueSettlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settlements[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) GetSettlementWithProject(_ context.Context, id itad.SettlementID) (*itad.SettlementWithProject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settlements[id]
	if !ok {
		return nil, nil
	}
	p := m.projects[s.ProjectID]
	return &itad.SettlementWithProject{Settlement: s, Project: p}, nil
}

func (m *Memory) UpdateSettlement(_ context.Context, s itad.RevenueSettlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.settlements[s.ID]
	if !ok {
		return itad.ErrSettlementNotFound
	}
	if current.Version != s.Version {
		return itad.ErrConcurrentModification
	}
	s.Version++
	m.settlements[s.ID] = s
	return nil
}

func (m *Memory) ListSettlementsByProject(_ context.Context, projectID itad.ProjectID) ([]itad.RevenueSettlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []itad.RevenueSettlement
	for _, s := range m.settlements {
		if s.ProjectID == projectID {
			result = append(result, s)
		}
	}
	return result, nil
}

// =============================================================================
// ESG EVENTS - Append-only
// =============================================================================

func (m *Memory) AppendEvent(_ context.Context, e itad.ESGEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) QueryEvents(_ context.Context, f itad.EventFilter) ([]itad.ESGEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []itad.ESGEvent
	for _, e := range m.events {
		if e.CompanyID != f.CompanyID {
			continue
		}
		if e.EventDate.Before(f.From) || e.EventDate.After(f.To) {
			continue
		}
		if f.SourceType != nil && e.SourceType != *f.SourceType {
			continue
		}
		if f.WasteCategoryID != nil && e.WasteCategoryID != *f.WasteCategoryID {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

func (m *Memory) SaveWasteCategory(_ context.Context, c itad.WasteCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	return nil
}

func (m *Memory) ListWasteCategories(_ context.Context) ([]itad.WasteCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]itad.WasteCategory, 0, len(m.categories))
	for _, c := range m.categories {
		result = append(result, c)
	}
	return result, nil
}

func (m *Memory) SaveRecoveryMethod(_ context.Context, rm itad.RecoveryMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods[rm.ID] = rm
	return nil
}

func (m *Memory) ListRecoveryMethods(_ context.Context) ([]itad.RecoveryMethod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]itad.RecoveryMethod, 0, len(m.methods))
	for _, rm := range m.methods {
		result = append(result, rm)
	}
	return result, nil
}
