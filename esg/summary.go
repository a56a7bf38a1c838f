/*
summary.go - Generic ESG summary report

PURPOSE:
  The dashboard-facing rollup: total weight handled, total carbon
  estimate, average circularity score, breakdowns per material category
  and per recovery method, and the distinct set of compliance-framework
  tags seen across the period's events.

AVERAGING:
  The circularity average divides the score sum by the TOTAL event
  count. An unscored event contributes zero to the sum but still counts
  in the denominator.
*/
package esg

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/recovery-engine/itad"
)

// =============================================================================
// SUMMARY REPORT
// =============================================================================

type SummaryReport struct {
	CompanyID itad.CompanyID `json:"company_id"`
	From      time.Time      `json:"from"`
	To        time.Time      `json:"to"`

	EventCount          int     `json:"event_count"`
	TotalWeightKg       float64 `json:"total_weight_kg"`
	TotalCarbonKg       float64 `json:"total_carbon_kg"`
	AvgCircularityScore float64 `json:"avg_circularity_score"`

	ByMaterial []GroupBreakdown `json:"by_material"`
	ByMethod   []GroupBreakdown `json:"by_method"`

	// CompliesWith is the distinct union of framework tags across all
	// events, sorted.
	CompliesWith []string `json:"complies_with"`
}

// GroupBreakdown is one row of a per-category or per-method breakdown.
type GroupBreakdown struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	WeightKg float64 `json:"weight_kg"`
	CarbonKg float64 `json:"carbon_kg"`
	Count    int     `json:"count"`
}

// SummaryReport aggregates all events for the company in [from, to].
func (r *Reporter) SummaryReport(ctx context.Context, companyID itad.CompanyID, from, to time.Time) (*SummaryReport, error) {
	data, err := r.load(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	totalWeight := decimal.Zero
	totalCarbon := decimal.Zero
	scoreSum := decimal.Zero
	tags := map[string]struct{}{}

	byMaterial := map[string]*groupAcc{}
	byMethod := map[string]*groupAcc{}

	for _, e := range data.events {
		totalWeight = totalWeight.Add(e.WeightKg.Value)
		totalCarbon = totalCarbon.Add(e.CarbonEstimateKg.Value)
		scoreSum = scoreSum.Add(e.CircularityScore.Value)
		for _, tag := range e.CompliesWith {
			tags[tag] = struct{}{}
		}

		matKey := string(e.WasteCategoryID)
		mat := byMaterial[matKey]
		if mat == nil {
			mat = &groupAcc{name: data.categories[e.WasteCategoryID].Name}
			byMaterial[matKey] = mat
		}
		mat.weight = mat.weight.Add(e.WeightKg.Value)
		mat.carbon = mat.carbon.Add(e.CarbonEstimateKg.Value)
		mat.count++

		methKey := string(e.RecoveryMethodID)
		meth := byMethod[methKey]
		if meth == nil {
			meth = &groupAcc{name: data.methods[e.RecoveryMethodID].Name}
			byMethod[methKey] = meth
		}
		meth.weight = meth.weight.Add(e.WeightKg.Value)
		meth.carbon = meth.carbon.Add(e.CarbonEstimateKg.Value)
		meth.count++
	}

	avg := decimal.Zero
	if len(data.events) > 0 {
		avg = scoreSum.Div(decimal.NewFromInt(int64(len(data.events))))
	}

	report := &SummaryReport{
		CompanyID:           companyID,
		From:                from,
		To:                  to,
		EventCount:          len(data.events),
		TotalWeightKg:       round2(totalWeight),
		TotalCarbonKg:       round2(totalCarbon),
		AvgCircularityScore: round2(avg),
		CompliesWith:        sortedKeys(tags),
	}

	report.ByMaterial = breakdownRows(byMaterial)
	report.ByMethod = breakdownRows(byMethod)
	return report, nil
}

type groupAcc struct {
	name   string
	weight decimal.Decimal
	carbon decimal.Decimal
	count  int
}

func breakdownRows(groups map[string]*groupAcc) []GroupBreakdown {
	rows := make([]GroupBreakdown, 0, len(groups))
	for key, g := range groups {
		rows = append(rows, GroupBreakdown{
			Key:      key,
			Name:     g.name,
			WeightKg: round2(g.weight),
			CarbonKg: round2(g.carbon),
			Count:    g.count,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
