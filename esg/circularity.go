/*
circularity.go - Derived circularity metrics

PURPOSE:
  Buckets the period's weight into reuse / recycle / disposal and derives
  a single 0-100 circularity index:

    index = (reuse_weight * 1.0 + recycle_weight * 0.8) / total_weight * 100

  The 1.0/0.8 weights are fixed design constants: reuse is valued more
  highly than recycling. Recovery counts into the recycle bucket;
  everything else (landfill, incineration, unresolvable methods) is
  disposal. An empty period yields an index of 0.
*/
package esg

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/recovery-engine/itad"
)

// Circularity index weights.
var (
	reuseFactor   = decimal.NewFromFloat(1.0)
	recycleFactor = decimal.NewFromFloat(0.8)
)

// =============================================================================
// CIRCULARITY METRICS
// =============================================================================

type CircularityMetrics struct {
	CompanyID itad.CompanyID `json:"company_id"`
	From      time.Time      `json:"from"`
	To        time.Time      `json:"to"`

	ReuseWeightKg    float64 `json:"reuse_weight_kg"`
	RecycleWeightKg  float64 `json:"recycle_weight_kg"`
	DisposalWeightKg float64 `json:"disposal_weight_kg"`
	TotalWeightKg    float64 `json:"total_weight_kg"`

	ReuseRatePct    float64 `json:"reuse_rate_pct"`
	RecycleRatePct  float64 `json:"recycle_rate_pct"`
	DisposalRatePct float64 `json:"disposal_rate_pct"`

	CircularityIndex float64 `json:"circularity_index"`
}

// CircularityMetrics derives the circularity buckets and index from the
// company's events in [from, to].
func (r *Reporter) CircularityMetrics(ctx context.Context, companyID itad.CompanyID, from, to time.Time) (*CircularityMetrics, error) {
	data, err := r.load(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	reuse := decimal.Zero
	recycle := decimal.Zero
	disposal := decimal.Zero

	for _, e := range data.events {
		w := e.WeightKg.Value
		mt, ok := data.methodType(e)
		if !ok {
			disposal = disposal.Add(w)
			continue
		}
		switch mt {
		case itad.MethodReuse:
			reuse = reuse.Add(w)
		case itad.MethodRecycle, itad.MethodRecovery:
			recycle = recycle.Add(w)
		case itad.MethodLandfill, itad.MethodIncineration:
			disposal = disposal.Add(w)
		}
	}

	total := reuse.Add(recycle).Add(disposal)

	metrics := &CircularityMetrics{
		CompanyID:        companyID,
		From:             from,
		To:               to,
		ReuseWeightKg:    round2(reuse),
		RecycleWeightKg:  round2(recycle),
		DisposalWeightKg: round2(disposal),
		TotalWeightKg:    round2(total),
	}

	if total.IsZero() {
		return metrics, nil
	}

	hundred := decimal.NewFromInt(100)
	metrics.ReuseRatePct = round2(reuse.Div(total).Mul(hundred))
	metrics.RecycleRatePct = round2(recycle.Div(total).Mul(hundred))
	metrics.DisposalRatePct = round2(disposal.Div(total).Mul(hundred))

	index := reuse.Mul(reuseFactor).Add(recycle.Mul(recycleFactor)).Div(total).Mul(hundred)
	metrics.CircularityIndex = round2(index)
	return metrics, nil
}
