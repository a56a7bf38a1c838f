/*
store.go - Persistence interfaces for the disposition core

PURPOSE:
  Defines the boundary between the computation packages and the
  relational store. The core never talks to a database directly; it is
  handed these interfaces by the host. Different implementations can use
  SQLite, PostgreSQL, or in-memory storage.

KEY INTERFACES:
  AssetStore:      Assets by project/status, bulk intake
  ComponentStore:  Components and the component-sale-to-project join
  HarvestingStore: Batches and items, atomic allocation writes
  ProjectStore:    ITAD projects
  SettlementStore: Settlements, version-checked updates
  ESGEventStore:   Append-only disposition events, filtered queries
  ReferenceStore:  Waste categories and recovery methods

APPEND-ONLY CONTRACT (ESG events):
  ESGEventStore has Append and Query. NO update or delete exists.
  Corrections are new compensating events.

VERSION CHECKS:
  UpdateBatch, UpdateItemAllocations and UpdateSettlement compare the
  caller's version against the stored one and fail with
  ErrConcurrentModification on mismatch, so concurrent read-compute-write
  sequences cannot silently overwrite each other.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - itad/store/memory.go:   In-memory for testing

SEE ALSO:
  - entities.go: The types these interfaces traffic in
*/
package itad

import (
	"context"
	"time"
)

// =============================================================================
// ASSETS
// =============================================================================

type AssetStore interface {
	// SaveAsset inserts or replaces a single asset.
	SaveAsset(ctx context.Context, a Asset) error

	// SaveAssets inserts a chunk of assets atomically. Either all rows in
	// the chunk are written or none are.
	SaveAssets(ctx context.Context, assets []Asset) error

	// GetAsset returns nil when the asset doesn't exist.
	GetAsset(ctx context.Context, id AssetID) (*Asset, error)

	// ListAssetsByProject returns every asset owned by the project.
	ListAssetsByProject(ctx context.Context, projectID ProjectID) ([]Asset, error)

	// ListAssetsByProjectAndStatus filters by a single status.
	ListAssetsByProjectAndStatus(ctx context.Context, projectID ProjectID, status AssetStatus) ([]Asset, error)
}

// =============================================================================
// COMPONENTS
// =============================================================================

type ComponentStore interface {
	SaveComponent(ctx context.Context, c Component) error

	// GetComponent returns nil when the component doesn't exist.
	GetComponent(ctx context.Context, id ComponentID) (*Component, error)

	SaveComponentSale(ctx context.Context, s ComponentSale) error

	// ListComponentSalesForProject resolves the sale -> component -> source
	// asset -> project chain in the store and returns the typed join.
	ListComponentSalesForProject(ctx context.Context, projectID ProjectID) ([]ComponentSaleForProject, error)
}

// =============================================================================
// HARVESTING
// =============================================================================

type HarvestingStore interface {
	SaveBatch(ctx context.Context, b HarvestingBatch) error

	// GetBatch returns nil when the batch doesn't exist.
	GetBatch(ctx context.Context, id BatchID) (*HarvestingBatch, error)

	// UpdateBatch writes batch fields conditional on b.Version matching the
	// stored version; the stored version is then incremented. Returns
	// ErrConcurrentModification on mismatch.
	UpdateBatch(ctx context.Context, b HarvestingBatch) error

	AddItem(ctx context.Context, item HarvestingItem) error

	// ListItems returns the batch's items in insertion order.
	ListItems(ctx context.Context, batchID BatchID) ([]HarvestingItem, error)

	// UpdateItemAllocations atomically writes per-item allocation results
	// together with the batch's allocation method, conditional on the batch
	// version. All-or-nothing: no item is modified on failure.
	UpdateItemAllocations(ctx context.Context, batchID BatchID, method AllocationMethod, items []HarvestingItem, version int) error
}

// =============================================================================
// PROJECTS & SETTLEMENTS
// =============================================================================

type ProjectStore interface {
	SaveProject(ctx context.Context, p Project) error

	// GetProject returns nil when the project doesn't exist.
	GetProject(ctx context.Context, id ProjectID) (*Project, error)
}

type SettlementStore interface {
	InsertSettlement(ctx context.Context, s RevenueSettlement) error

	// GetSettlement returns nil when the settlement doesn't exist.
	GetSettlement(ctx context.Context, id SettlementID) (*RevenueSettlement, error)

	// GetSettlementWithProject returns the typed settlement+project join
	// for detail reads, nil when the settlement doesn't exist.
	GetSettlementWithProject(ctx context.Context, id SettlementID) (*SettlementWithProject, error)

	// UpdateSettlement writes payment-status fields conditional on
	// s.Version matching the stored version; the stored version is then
	// incremented. Returns ErrConcurrentModification on mismatch.
	UpdateSettlement(ctx context.Context, s RevenueSettlement) error

	// ListSettlementsByProject returns all settlements for a project.
	// Duplicate/overlapping periods are permitted; callers enforce any
	// single-settlement-per-period policy themselves.
	ListSettlementsByProject(ctx context.Context, projectID ProjectID) ([]RevenueSettlement, error)
}

// =============================================================================
// ESG EVENTS - Append-only
// =============================================================================

// EventFilter narrows an ESG event query. CompanyID and the date range are
// required; the remaining fields are optional.
type EventFilter struct {
	CompanyID       CompanyID
	From            time.Time
	To              time.Time
	SourceType      *SourceType
	WasteCategoryID *WasteCategoryID
}

type ESGEventStore interface {
	// AppendEvent persists an event. This is the ONLY write operation;
	// events are never updated or deleted.
	AppendEvent(ctx context.Context, e ESGEvent) error

	// QueryEvents returns events matching the filter. Order is not
	// semantically significant; report generators re-aggregate.
	QueryEvents(ctx context.Context, f EventFilter) ([]ESGEvent, error)
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

type ReferenceStore interface {
	SaveWasteCategory(ctx context.Context, c WasteCategory) error
	ListWasteCategories(ctx context.Context) ([]WasteCategory, error)

	SaveRecoveryMethod(ctx context.Context, m RecoveryMethod) error
	ListRecoveryMethods(ctx context.Context) ([]RecoveryMethod, error)
}

// =============================================================================
// COMPOSITE STORE
// =============================================================================

// Store is the full capability set a production host provides. Services
// declare the narrow interfaces they need; Store exists for wiring.
type Store interface {
	AssetStore
	ComponentStore
	HarvestingStore
	ProjectStore
	SettlementStore
	ESGEventStore
	ReferenceStore
}
