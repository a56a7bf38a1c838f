/*
dto.go - Request/response data structures

PURPOSE:
  JSON shapes for the HTTP API. Currency and weight cross this boundary
  as plain floats; inside the engine everything is decimal. Conversion
  happens here and nowhere else.
*/
package api

import (
	"time"

	"github.com/warp/recovery-engine/itad"
)

// =============================================================================
// REQUESTS
// =============================================================================

type CreateProjectRequest struct {
	ID                     string  `json:"id"`
	CompanyID              string  `json:"company_id"`
	Name                   string  `json:"name"`
	ServiceFee             float64 `json:"service_fee"`
	RevenueSharePercentage float64 `json:"revenue_share_percentage"`
	RevenueShareThreshold  float64 `json:"revenue_share_threshold"`
}

type ImportAssetsRequest struct {
	ProjectID string           `json:"project_id"`
	Rows      []ImportAssetRow `json:"rows"`
}

type ImportAssetRow struct {
	SerialNumber string `json:"serial_number"`
	Description  string `json:"description"`
	ReceivedAt   string `json:"received_at"` // YYYY-MM-DD
}

type UpdateAssetRequest struct {
	Status       string   `json:"status"`
	SellingPrice *float64 `json:"selling_price,omitempty"`
}

type CreateHarvestingRequest struct {
	SourceAssetID       string  `json:"source_asset_id"`
	TotalCostToAllocate float64 `json:"total_cost_to_allocate"`
}

type AddHarvestingItemRequest struct {
	WeightKg             float64 `json:"weight_kg"`
	MarketValueAtHarvest float64 `json:"market_value_at_harvest"`
	AllocatedPercentage  float64 `json:"allocated_percentage"`
}

type AllocateRequest struct {
	Method string `json:"method"`
}

type GenerateSettlementRequest struct {
	SettlementDate string `json:"settlement_date"` // YYYY-MM-DD
	PeriodStart    string `json:"period_start"`    // YYYY-MM-DD
	PeriodEnd      string `json:"period_end"`      // YYYY-MM-DD
}

type ApproveSettlementRequest struct {
	ApproverID string `json:"approver_id"`
}

type PaySettlementRequest struct {
	PaidAt    string `json:"paid_at"` // YYYY-MM-DD
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

type TrackEventRequest struct {
	CompanyID        string   `json:"company_id"`
	WasteCategoryID  string   `json:"waste_category_id"`
	RecoveryMethodID string   `json:"recovery_method_id"`
	WeightKg         float64  `json:"weight_kg"`
	CarbonEstimateKg float64  `json:"carbon_estimate_kg"`
	CircularityScore float64  `json:"circularity_score"`
	CompliesWith     []string `json:"complies_with"`
	DownstreamVendor string   `json:"downstream_vendor"`
	CertificateRef   string   `json:"certificate_ref"`
	EventDate        string   `json:"event_date"` // YYYY-MM-DD
}

type CreateWasteCategoryRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	HazardClass  string `json:"hazard_class"`
	WEEECategory string `json:"weee_category"`
}

type CreateRecoveryMethodRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MethodType string `json:"method_type"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ImportAssetsResponse reports how many rows landed. On a mid-import
// failure Imported counts the chunks written before the failure so the
// caller can resume with the remaining rows.
type ImportAssetsResponse struct {
	Imported int    `json:"imported"`
	Error    string `json:"error,omitempty"`
	Details  string `json:"details,omitempty"`
}

type BatchDTO struct {
	ID                  string    `json:"id"`
	SourceAssetID       string    `json:"source_asset_id"`
	TotalCostToAllocate float64   `json:"total_cost_to_allocate"`
	AllocationMethod    string    `json:"allocation_method,omitempty"`
	Completed           bool      `json:"completed"`
	Items               []ItemDTO `json:"items,omitempty"`
}

type ItemDTO struct {
	ID                   string  `json:"id"`
	WeightKg             float64 `json:"weight_kg"`
	MarketValueAtHarvest float64 `json:"market_value_at_harvest"`
	AllocatedPercentage  float64 `json:"allocated_percentage"`
	AllocatedCost        float64 `json:"allocated_cost"`
}

type ProjectRevenueDTO struct {
	ProjectID      string  `json:"project_id"`
	AssetSales     float64 `json:"asset_sales_revenue"`
	ComponentSales float64 `json:"component_sales_revenue"`
	Scrap          float64 `json:"scrap_revenue"`
	Total          float64 `json:"total_revenue"`
}

type SettlementDTO struct {
	ID                    string  `json:"id"`
	ProjectID             string  `json:"project_id"`
	ProjectName           string  `json:"project_name,omitempty"`
	CompanyID             string  `json:"company_id,omitempty"`
	SettlementDate        string  `json:"settlement_date"`
	PeriodStart           string  `json:"period_start"`
	PeriodEnd             string  `json:"period_end"`
	AssetSalesRevenue     float64 `json:"asset_sales_revenue"`
	ComponentSalesRevenue float64 `json:"component_sales_revenue"`
	ScrapRevenue          float64 `json:"scrap_revenue"`
	TotalGrossRevenue     float64 `json:"total_gross_revenue"`
	RevenueSubjectToShare float64 `json:"revenue_subject_to_sharing"`
	CustomerRevenueShare  float64 `json:"customer_revenue_share"`
	ServiceFeeAmount      float64 `json:"service_fee_amount"`
	OurNetRevenue         float64 `json:"our_net_revenue"`
	AssetsReceived        int     `json:"assets_received"`
	AssetsRefurbished     int     `json:"assets_refurbished"`
	AssetsHarvested       int     `json:"assets_harvested"`
	PaymentStatus         string  `json:"payment_status"`
	ApprovedBy            string  `json:"approved_by,omitempty"`
	PaymentMethod         string  `json:"payment_method,omitempty"`
	PaymentRef            string  `json:"payment_ref,omitempty"`
}

type EventDTO struct {
	ID               string  `json:"id"`
	SourceType       string  `json:"source_type"`
	SourceID         string  `json:"source_id"`
	WasteCategoryID  string  `json:"waste_category_id"`
	RecoveryMethodID string  `json:"recovery_method_id"`
	WeightKg         float64 `json:"weight_kg"`
	EventDate        string  `json:"event_date"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

const dateLayout = "2006-01-02"

func toBatchDTO(b *itad.HarvestingBatch, items []itad.HarvestingItem) BatchDTO {
	dto := BatchDTO{
		ID:                  string(b.ID),
		SourceAssetID:       string(b.SourceAssetID),
		TotalCostToAllocate: b.TotalCostToAllocate.Float64(),
		AllocationMethod:    string(b.AllocationMethod),
		Completed:           b.Completed,
	}
	for _, item := range items {
		dto.Items = append(dto.Items, toItemDTO(item))
	}
	return dto
}

func toItemDTO(item itad.HarvestingItem) ItemDTO {
	return ItemDTO{
		ID:                   string(item.ID),
		WeightKg:             item.WeightKg.Float64(),
		MarketValueAtHarvest: item.MarketValueAtHarvest.Float64(),
		AllocatedPercentage:  item.AllocatedPercentage.Float64(),
		AllocatedCost:        item.AllocatedCost.Float64(),
	}
}

func toSettlementDTO(s *itad.RevenueSettlement) SettlementDTO {
	return SettlementDTO{
		ID:                    string(s.ID),
		ProjectID:             string(s.ProjectID),
		SettlementDate:        s.SettlementDate.Format(dateLayout),
		PeriodStart:           s.PeriodStart.Format(dateLayout),
		PeriodEnd:             s.PeriodEnd.Format(dateLayout),
		AssetSalesRevenue:     s.AssetSalesRevenue.Float64(),
		ComponentSalesRevenue: s.ComponentSalesRevenue.Float64(),
		ScrapRevenue:          s.ScrapRevenue.Float64(),
		TotalGrossRevenue:     s.TotalGrossRevenue.Float64(),
		RevenueSubjectToShare: s.RevenueSubjectToShare.Float64(),
		CustomerRevenueShare:  s.CustomerRevenueShare.Float64(),
		ServiceFeeAmount:      s.ServiceFeeAmount.Float64(),
		OurNetRevenue:         s.OurNetRevenue.Float64(),
		AssetsReceived:        s.AssetsReceived,
		AssetsRefurbished:     s.AssetsRefurbished,
		AssetsHarvested:       s.AssetsHarvested,
		PaymentStatus:         string(s.PaymentStatus),
		ApprovedBy:            s.ApprovedBy,
		PaymentMethod:         s.PaymentMethod,
		PaymentRef:            s.PaymentRef,
	}
}

func toEventDTO(e *itad.ESGEvent) EventDTO {
	return EventDTO{
		ID:               string(e.ID),
		SourceType:       string(e.SourceType),
		SourceID:         e.SourceID,
		WasteCategoryID:  string(e.WasteCategoryID),
		RecoveryMethodID: string(e.RecoveryMethodID),
		WeightKg:         e.WeightKg.Float64(),
		EventDate:        e.EventDate.Format(dateLayout),
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
