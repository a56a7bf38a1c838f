/*
gri.go - GRI 306:2020 style waste report

PURPOSE:
  Classifies the period's disposition events along the two GRI axes:
  hazard class of the waste category (306-3, waste generated) and
  recovery method type (306-4 diverted from disposal, 306-5 directed to
  disposal). Carbon footprint is reported with a fixed 30%/70% scope-3
  upstream/downstream split.

  The 0.30/0.70 split is a static business constant, not derived from
  event data.
*/
package esg

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/recovery-engine/itad"
)

// Scope-3 carbon split constants.
var (
	scope3UpstreamShare   = decimal.NewFromFloat(0.30)
	scope3DownstreamShare = decimal.NewFromFloat(0.70)
)

// =============================================================================
// GRI REPORT
// =============================================================================

type GRIReport struct {
	CompanyID itad.CompanyID `json:"company_id"`
	From      time.Time      `json:"from"`
	To        time.Time      `json:"to"`

	WasteGenerated  GRIWasteGenerated  `json:"waste_generated"`
	WasteDiverted   GRIWasteDiverted   `json:"waste_diverted_from_disposal"`
	WasteDisposed   GRIWasteDisposed   `json:"waste_directed_to_disposal"`
	CarbonFootprint GRICarbonFootprint `json:"carbon_footprint"`
}

type GRIWasteGenerated struct {
	TotalKg        float64 `json:"total_kg"`
	HazardousKg    float64 `json:"hazardous_kg"`
	NonHazardousKg float64 `json:"non_hazardous_kg"`
}

type GRIWasteDiverted struct {
	ReuseKg     float64 `json:"reuse_kg"`
	RecyclingKg float64 `json:"recycling_kg"`
	RecoveryKg  float64 `json:"recovery_kg"`
	TotalKg     float64 `json:"total_kg"`
}

type GRIWasteDisposed struct {
	LandfillKg     float64 `json:"landfill_kg"`
	IncinerationKg float64 `json:"incineration_kg"`
	TotalKg        float64 `json:"total_kg"`
}

type GRICarbonFootprint struct {
	TotalKg            float64 `json:"total_kg"`
	Scope3UpstreamKg   float64 `json:"scope_3_upstream_kg"`
	Scope3DownstreamKg float64 `json:"scope_3_downstream_kg"`
}

// GRIReport aggregates the company's events in [from, to] into the GRI
// 306 shape.
func (r *Reporter) GRIReport(ctx context.Context, companyID itad.CompanyID, from, to time.Time) (*GRIReport, error) {
	data, err := r.load(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	var (
		hazardous    = decimal.Zero
		nonHazardous = decimal.Zero
		reuse        = decimal.Zero
		recycling    = decimal.Zero
		recovery     = decimal.Zero
		landfill     = decimal.Zero
		incineration = decimal.Zero
		carbon       = decimal.Zero
	)

	for _, e := range data.events {
		w := e.WeightKg.Value
		carbon = carbon.Add(e.CarbonEstimateKg.Value)

		// Waste generated: split by the category's hazard class. Events
		// whose category has no reference row count as non-hazardous.
		if data.categories[e.WasteCategoryID].HazardClass == itad.Hazardous {
			hazardous = hazardous.Add(w)
		} else {
			nonHazardous = nonHazardous.Add(w)
		}

		mt, ok := data.methodType(e)
		if !ok {
			continue
		}
		switch mt {
		case itad.MethodReuse:
			reuse = reuse.Add(w)
		case itad.MethodRecycle:
			recycling = recycling.Add(w)
		case itad.MethodRecovery:
			recovery = recovery.Add(w)
		case itad.MethodLandfill:
			landfill = landfill.Add(w)
		case itad.MethodIncineration:
			incineration = incineration.Add(w)
		}
	}

	return &GRIReport{
		CompanyID: companyID,
		From:      from,
		To:        to,
		WasteGenerated: GRIWasteGenerated{
			TotalKg:        round2(hazardous.Add(nonHazardous)),
			HazardousKg:    round2(hazardous),
			NonHazardousKg: round2(nonHazardous),
		},
		WasteDiverted: GRIWasteDiverted{
			ReuseKg:     round2(reuse),
			RecyclingKg: round2(recycling),
			RecoveryKg:  round2(recovery),
			TotalKg:     round2(reuse.Add(recycling).Add(recovery)),
		},
		WasteDisposed: GRIWasteDisposed{
			LandfillKg:     round2(landfill),
			IncinerationKg: round2(incineration),
			TotalKg:        round2(landfill.Add(incineration)),
		},
		CarbonFootprint: GRICarbonFootprint{
			TotalKg:            round2(carbon),
			Scope3UpstreamKg:   round2(carbon.Mul(scope3UpstreamShare)),
			Scope3DownstreamKg: round2(carbon.Mul(scope3DownstreamShare)),
		},
	}, nil
}
