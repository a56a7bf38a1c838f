/*
weee.go - EU WEEE directive recovery-rate report

PURPOSE:
  Groups the period's events by their waste category's WEEE category
  code and computes per-category and overall recovery rates:

    recovery_rate_pct = (reused + recycled) / collected * 100

  Reused weight accumulates from 'reuse' method events; recycled weight
  from 'recycle' and 'recovery' method events. Landfill and incineration
  count toward collected weight only. The report is compliant when the
  overall recovery rate meets the directive's 65% minimum.
*/
package esg

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/recovery-engine/itad"
)

// WEEE directive minimum recovery rate, percent.
var weeeMinRecoveryRate = decimal.NewFromInt(65)

// =============================================================================
// WEEE REPORT
// =============================================================================

type WEEEReport struct {
	CompanyID itad.CompanyID `json:"company_id"`
	From      time.Time      `json:"from"`
	To        time.Time      `json:"to"`

	Categories []WEEECategoryTotals `json:"categories"`

	TotalCollectedKg     float64 `json:"total_collected_kg"`
	TotalReusedKg        float64 `json:"total_reused_kg"`
	TotalRecycledKg      float64 `json:"total_recycled_kg"`
	TotalRecoveryRatePct float64 `json:"total_recovery_rate_pct"`
	Compliant            bool    `json:"compliant"`
}

type WEEECategoryTotals struct {
	CategoryCode    string  `json:"category_code"`
	CollectedKg     float64 `json:"weight_collected_kg"`
	ReusedKg        float64 `json:"weight_reused_kg"`
	RecycledKg      float64 `json:"weight_recycled_kg"`
	RecoveryRatePct float64 `json:"recovery_rate_pct"`
}

// WEEEReport aggregates the company's events in [from, to] per WEEE
// category code.
func (r *Reporter) WEEEReport(ctx context.Context, companyID itad.CompanyID, from, to time.Time) (*WEEEReport, error) {
	data, err := r.load(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	type weeeAcc struct {
		collected decimal.Decimal
		reused    decimal.Decimal
		recycled  decimal.Decimal
	}
	byCategory := map[string]*weeeAcc{}

	totalCollected := decimal.Zero
	totalReused := decimal.Zero
	totalRecycled := decimal.Zero

	for _, e := range data.events {
		code := data.categories[e.WasteCategoryID].WEEECategory
		acc := byCategory[code]
		if acc == nil {
			acc = &weeeAcc{}
			byCategory[code] = acc
		}

		w := e.WeightKg.Value
		acc.collected = acc.collected.Add(w)
		totalCollected = totalCollected.Add(w)

		mt, ok := data.methodType(e)
		if !ok {
			continue
		}
		switch mt {
		case itad.MethodReuse:
			acc.reused = acc.reused.Add(w)
			totalReused = totalReused.Add(w)
		case itad.MethodRecycle, itad.MethodRecovery:
			acc.recycled = acc.recycled.Add(w)
			totalRecycled = totalRecycled.Add(w)
		case itad.MethodLandfill, itad.MethodIncineration:
			// Collected only.
		}
	}

	report := &WEEEReport{
		CompanyID:        companyID,
		From:             from,
		To:               to,
		TotalCollectedKg: round2(totalCollected),
		TotalReusedKg:    round2(totalReused),
		TotalRecycledKg:  round2(totalRecycled),
	}

	overallRate := recoveryRate(totalReused, totalRecycled, totalCollected)
	report.TotalRecoveryRatePct = round2(overallRate)
	report.Compliant = overallRate.GreaterThanOrEqual(weeeMinRecoveryRate)

	for code, acc := range byCategory {
		report.Categories = append(report.Categories, WEEECategoryTotals{
			CategoryCode:    code,
			CollectedKg:     round2(acc.collected),
			ReusedKg:        round2(acc.reused),
			RecycledKg:      round2(acc.recycled),
			RecoveryRatePct: round2(recoveryRate(acc.reused, acc.recycled, acc.collected)),
		})
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		return report.Categories[i].CategoryCode < report.Categories[j].CategoryCode
	})

	return report, nil
}

// recoveryRate returns (reused+recycled)/collected*100, zero when nothing
// was collected.
func recoveryRate(reused, recycled, collected decimal.Decimal) decimal.Decimal {
	if collected.IsZero() {
		return decimal.Zero
	}
	return reused.Add(recycled).Div(collected).Mul(decimal.NewFromInt(100))
}
