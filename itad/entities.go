/*
entities.go - Entity types for the disposition core

PURPOSE:
  Typed representations of the rows the engine reads and writes: assets,
  recovered components, harvesting batches, ITAD projects, settlements,
  ESG events, and the two reference/lookup entities (waste categories and
  recovery methods).

JOINED RECORDS:
  Cross-entity fetches are modeled as explicit typed aggregates
  (ComponentSaleForProject, SettlementWithProject) rather than untyped
  nested maps. The repository returns these shapes directly; no caller
  ever re-assembles a join by hand.

MUTABILITY:
  - ESGEvent: immutable once recorded. Corrections are new compensating
    events, never edits.
  - HarvestingItem: mutated only by the allocation engine; frozen once
    the batch is completed.
  - RevenueSettlement: amounts are written once at generation; only the
    payment-status fields change afterwards, under version checks.

SEE ALSO:
  - types.go: Money/Weight/Percent and the classification enums
  - store.go: Repository interfaces returning these types
*/
package itad

import "time"

// =============================================================================
// ASSET - A physical unit moving through disposition
// =============================================================================

type Asset struct {
	ID           AssetID
	ProjectID    ProjectID // empty when not owned by a project
	SerialNumber string
	Description  string
	Status       AssetStatus
	SellingPrice Money // meaningful only once Status == AssetSold
	ReceivedAt   time.Time
	CreatedAt    time.Time
}

// =============================================================================
// COMPONENT - A part recovered from an asset during harvesting
// =============================================================================

type Component struct {
	ID            ComponentID
	SourceAssetID AssetID // weak reference, lookup only
	Description   string
	CreatedAt     time.Time
}

// ComponentSale records the sale of a recovered component.
type ComponentSale struct {
	ComponentID ComponentID
	SalePrice   Money
	SoldAt      time.Time
}

// ComponentSaleForProject is the typed join of a component sale through its
// harvested component back to the project that owned the source asset.
type ComponentSaleForProject struct {
	Sale          ComponentSale
	SourceAssetID AssetID
	ProjectID     ProjectID
}

// =============================================================================
// HARVESTING - One harvesting event and its recovered items
// =============================================================================

type HarvestingBatch struct {
	ID            BatchID
	SourceAssetID AssetID
	// TotalCostToAllocate is the asset cost plus refurbishment cost
	// attributable to this batch, pooled for distribution.
	TotalCostToAllocate Money
	AllocationMethod    AllocationMethod // empty until allocation has run
	Completed           bool
	Version             int
	CreatedAt           time.Time
}

type HarvestingItem struct {
	ID                   ComponentID
	BatchID              BatchID
	WeightKg             Weight
	MarketValueAtHarvest Money
	AllocatedPercentage  Percent
	AllocatedCost        Money
}

// =============================================================================
// PROJECT - A customer engagement
// =============================================================================

type Project struct {
	ID                     ProjectID
	CompanyID              CompanyID
	Name                   string
	ServiceFee             Money
	RevenueSharePercentage Percent // 0-100
	// RevenueShareThreshold is the amount of revenue excluded from sharing
	// before the percentage split applies.
	RevenueShareThreshold Money
	CreatedAt             time.Time
}

// =============================================================================
// SETTLEMENT - One revenue settlement computation for a project over a period
// =============================================================================

type RevenueSettlement struct {
	ID             SettlementID
	ProjectID      ProjectID
	SettlementDate time.Time
	PeriodStart    time.Time
	PeriodEnd      time.Time

	// Computed amounts. Invariant:
	//   OurNetRevenue = TotalGrossRevenue - CustomerRevenueShare - ServiceFeeAmount
	// OurNetRevenue may be negative; it is never clamped.
	AssetSalesRevenue     Money
	ComponentSalesRevenue Money
	ScrapRevenue          Money
	TotalGrossRevenue     Money
	RevenueSubjectToShare Money
	CustomerRevenueShare  Money
	ServiceFeeAmount      Money
	OurNetRevenue         Money

	// Activity counts at generation time.
	AssetsReceived    int
	AssetsRefurbished int
	AssetsHarvested   int

	PaymentStatus PaymentStatus
	ApprovedBy    string
	ApprovedAt    time.Time
	PaidAt        time.Time
	PaymentMethod string
	PaymentRef    string

	Version   int
	CreatedAt time.Time
}

// SettlementWithProject is the typed join served when settlement details
// need customer context alongside the computed amounts.
type SettlementWithProject struct {
	Settlement RevenueSettlement
	Project    Project
}

// =============================================================================
// ESG EVENT - One immutable record of disposition activity
// =============================================================================

type ESGEvent struct {
	ID               EventID
	CompanyID        CompanyID
	SourceType       SourceType
	SourceID         string
	WasteCategoryID  WasteCategoryID
	RecoveryMethodID RecoveryMethodID
	WeightKg         Weight // >= 0
	// CarbonEstimateKg is the estimated CO2e avoided/emitted for this event.
	CarbonEstimateKg Weight
	// CircularityScore is 0-100; zero means unscored and counts as 0 when
	// the summary report averages scores.
	CircularityScore Percent
	// CompliesWith lists compliance-framework tags (e.g. "R2v3", "e-Stewards").
	CompliesWith     []string
	DownstreamVendor string
	CertificateRef   string
	EventDate        time.Time
	CreatedAt        time.Time
}

// =============================================================================
// REFERENCE DATA - Classification lookups
// =============================================================================

type WasteCategory struct {
	ID          WasteCategoryID
	Name        string
	HazardClass HazardClass
	// WEEECategory is the EU WEEE directive category code (e.g. "CAT3").
	WEEECategory string
}

type RecoveryMethod struct {
	ID         RecoveryMethodID
	Name       string
	MethodType MethodType
}
