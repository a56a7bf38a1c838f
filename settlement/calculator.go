/*
Package settlement computes revenue-sharing settlements between the
operator and its ITAD customers.

PURPOSE:
  A project accumulates revenue from heterogeneous channels: direct asset
  sales and sales of components harvested from the project's assets
  (scrap value is a fixed zero until a scrap-sale source exists). This
  package aggregates that revenue, applies the threshold-and-percentage
  revenue-share formula, and drives the resulting settlement through its
  approval/payment lifecycle.

FORMULA:
  revenueSubjectToSharing = max(0, totalRevenue - revenue_share_threshold)
  customerRevenueShare    = revenueSubjectToSharing * revenue_share_percentage / 100
  ourNetRevenue           = totalRevenue - customerRevenueShare - service_fee

  The service fee is a fixed project amount, not itself subject to
  sharing. ourNetRevenue may be negative and is never clamped.

EMPTY PROJECTS:
  A project with no assets settles to all zeros. That is a valid outcome,
  not an error.

SEE ALSO:
  - lifecycle.go: Approve / MarkPaid state transitions
*/
package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/warp/recovery-engine/itad"
)

// Calculator aggregates project revenue and generates settlements.
type Calculator struct {
	Projects    itad.ProjectStore
	Assets      itad.AssetStore
	Components  itad.ComponentStore
	Settlements itad.SettlementStore
}

func NewCalculator(projects itad.ProjectStore, assets itad.AssetStore, components itad.ComponentStore, settlements itad.SettlementStore) *Calculator {
	return &Calculator{
		Projects:    projects,
		Assets:      assets,
		Components:  components,
		Settlements: settlements,
	}
}

// =============================================================================
// PROJECT REVENUE
// =============================================================================

// ProjectRevenue breaks realized revenue down by channel.
type ProjectRevenue struct {
	AssetSales     itad.Money
	ComponentSales itad.Money
	Scrap          itad.Money
	Total          itad.Money
}

// CalculateProjectRevenue sums selling prices of the project's sold assets
// and of component sales that trace back to the project's assets.
func (c *Calculator) CalculateProjectRevenue(ctx context.Context, projectID itad.ProjectID) (*ProjectRevenue, error) {
	project, err := c.Projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, itad.ErrProjectNotFound
	}

	sold, err := c.Assets.ListAssetsByProjectAndStatus(ctx, projectID, itad.AssetSold)
	if err != nil {
		return nil, err
	}
	assetRevenue := itad.MoneyZero()
	for _, a := range sold {
		assetRevenue = assetRevenue.Add(a.SellingPrice)
	}

	sales, err := c.Components.ListComponentSalesForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	componentRevenue := itad.MoneyZero()
	for _, s := range sales {
		componentRevenue = componentRevenue.Add(s.Sale.SalePrice)
	}

	// No scrap-sale entity feeds this channel yet; fixed zero.
	scrap := itad.MoneyZero()

	return &ProjectRevenue{
		AssetSales:     assetRevenue.Round(),
		ComponentSales: componentRevenue.Round(),
		Scrap:          scrap,
		Total:          assetRevenue.Add(componentRevenue).Add(scrap).Round(),
	}, nil
}

// =============================================================================
// SETTLEMENT GENERATION
// =============================================================================

// GenerateSettlement computes and persists one settlement for a project
// over a period. Duplicate settlements for the same project and period are
// permitted; callers that want single-settlement-per-period semantics must
// enforce it themselves.
func (c *Calculator) GenerateSettlement(ctx context.Context, projectID itad.ProjectID, settlementDate, periodStart, periodEnd time.Time) (*itad.RevenueSettlement, error) {
	if periodEnd.Before(periodStart) {
		return nil, &itad.ValidationError{Field: "period", Message: "end before start"}
	}

	project, err := c.Projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, itad.ErrProjectNotFound
	}

	revenue, err := c.CalculateProjectRevenue(ctx, projectID)
	if err != nil {
		return nil, err
	}

	subject := revenue.Total.Sub(project.RevenueShareThreshold).MaxZero()
	share := subject.MulPercent(project.RevenueSharePercentage)
	net := revenue.Total.Sub(share).Sub(project.ServiceFee).Round()

	counts, err := c.activityCounts(ctx, projectID)
	if err != nil {
		return nil, err
	}

	s := itad.RevenueSettlement{
		ID:             itad.SettlementID(uuid.NewString()),
		ProjectID:      projectID,
		SettlementDate: settlementDate,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,

		AssetSalesRevenue:     revenue.AssetSales,
		ComponentSalesRevenue: revenue.ComponentSales,
		ScrapRevenue:          revenue.Scrap,
		TotalGrossRevenue:     revenue.Total,
		RevenueSubjectToShare: subject.Round(),
		CustomerRevenueShare:  share,
		ServiceFeeAmount:      project.ServiceFee.Round(),
		OurNetRevenue:         net,

		AssetsReceived:    counts.received,
		AssetsRefurbished: counts.refurbished,
		AssetsHarvested:   counts.harvested,

		PaymentStatus: itad.PaymentPending,
		CreatedAt:     time.Now().UTC(),
	}

	if err := c.Settlements.InsertSettlement(ctx, s); err != nil {
		return nil, err
	}
	return &s, nil
}

type activityCounts struct {
	received    int
	refurbished int
	harvested   int
}

// activityCounts snapshots project activity at generation time. Every
// asset on the project was received; refurbished and harvested count
// current statuses.
func (c *Calculator) activityCounts(ctx context.Context, projectID itad.ProjectID) (activityCounts, error) {
	assets, err := c.Assets.ListAssetsByProject(ctx, projectID)
	if err != nil {
		return activityCounts{}, err
	}
	counts := activityCounts{received: len(assets)}
	for _, a := range assets {
		switch a.Status {
		case itad.AssetRefurbished:
			counts.refurbished++
		case itad.AssetHarvested:
			counts.harvested++
		}
	}
	return counts, nil
}
