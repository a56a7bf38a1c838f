/*
Package allocation distributes pooled harvesting cost across recovered
components.

PURPOSE:
  A harvesting batch carries one pooled figure (asset cost plus
  refurbishment cost) that must be split across the components recovered
  from the source asset. This package implements the four interchangeable
  strategies and the batch lifecycle around them.

STRATEGIES:
  equal_split:      every item gets total/n
  by_weight:        proportional to weight_kg
  by_market_value:  proportional to market_value_at_harvest
  by_percentage:    caller supplies the percentages directly

INVARIANT:
  After allocation, the allocated costs sum to total_cost_to_allocate
  EXACTLY. Each item's cost is rounded half-even to 2 decimal places and
  the rounding residual lands on the final item.

PRECONDITIONS (checked before any mutation):
  - by_weight:       total weight over the item set must be > 0
  - by_market_value: total market value must be > 0
  - by_percentage:   supplied percentages must sum to 100 +/- 0.01
  A failed precondition leaves every item unmodified.

SEE ALSO:
  - service.go: Batch lifecycle (create, add items, allocate, complete)
*/
package allocation

import (
	"github.com/shopspring/decimal"

	"github.com/warp/recovery-engine/itad"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// ALLOCATE - Pure strategy computation
// =============================================================================

// Allocate computes per-item allocated cost and percentage for the given
// method. It returns a new slice; the input items are never mutated.
func Allocate(total itad.Money, items []itad.HarvestingItem, method itad.AllocationMethod) ([]itad.HarvestingItem, error) {
	if len(items) == 0 {
		return nil, &itad.ValidationError{Field: "items", Message: "item set is empty"}
	}

	switch method {
	case itad.AllocEqualSplit:
		return equalSplit(total, items), nil
	case itad.AllocByWeight:
		return proportional(total, items, method, weightBasis)
	case itad.AllocByMarketValue:
		return proportional(total, items, method, marketValueBasis)
	case itad.AllocByPercentage:
		return byPercentage(total, items)
	default:
		return nil, &itad.ValidationError{Field: "method", Message: "unknown allocation method: " + string(method)}
	}
}

func equalSplit(total itad.Money, items []itad.HarvestingItem) []itad.HarvestingItem {
	n := decimal.NewFromInt(int64(len(items)))
	costEach := total.Div(n).Round()
	pctEach := itad.Percent{Value: hundred.Div(n)}.Round()

	out := clone(items)
	running := itad.MoneyZero()
	runningPct := itad.PercentZero()
	for i := range out {
		if i == len(out)-1 {
			// Residual keeps the sums exact.
			out[i].AllocatedCost = total.Sub(running)
			out[i].AllocatedPercentage = itad.Percent{Value: hundred.Sub(runningPct.Value)}
			break
		}
		out[i].AllocatedCost = costEach
		out[i].AllocatedPercentage = pctEach
		running = running.Add(costEach)
		runningPct = runningPct.Add(pctEach)
	}
	return out
}

// basisFunc extracts the numeric basis a proportional strategy divides by.
type basisFunc func(itad.HarvestingItem) decimal.Decimal

func weightBasis(it itad.HarvestingItem) decimal.Decimal      { return it.WeightKg.Value }
func marketValueBasis(it itad.HarvestingItem) decimal.Decimal { return it.MarketValueAtHarvest.Value }

func proportional(total itad.Money, items []itad.HarvestingItem, method itad.AllocationMethod, basis basisFunc) ([]itad.HarvestingItem, error) {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(basis(it))
	}
	if !sum.IsPositive() {
		msg := "no weight data"
		if method == itad.AllocByMarketValue {
			msg = "no market value data"
		}
		return nil, &itad.AllocationPreconditionError{BatchID: items[0].BatchID, Method: method, Message: msg}
	}

	out := clone(items)
	running := itad.MoneyZero()
	runningPct := itad.PercentZero()
	for i := range out {
		if i == len(out)-1 {
			out[i].AllocatedCost = total.Sub(running)
			out[i].AllocatedPercentage = itad.Percent{Value: hundred.Sub(runningPct.Value)}
			break
		}
		share := basis(out[i]).Div(sum)
		cost := total.Mul(share).Round()
		pct := itad.Percent{Value: share.Mul(hundred)}.Round()
		out[i].AllocatedCost = cost
		out[i].AllocatedPercentage = pct
		running = running.Add(cost)
		runningPct = runningPct.Add(pct)
	}
	return out, nil
}

func byPercentage(total itad.Money, items []itad.HarvestingItem) ([]itad.HarvestingItem, error) {
	sum := itad.PercentZero()
	for _, it := range items {
		sum = sum.Add(it.AllocatedPercentage)
	}
	if !sum.WithinTolerance(100, 0.01) {
		return nil, &itad.AllocationPreconditionError{
			BatchID: items[0].BatchID,
			Method:  itad.AllocByPercentage,
			Message: "percentages must sum to 100%",
		}
	}

	out := clone(items)
	running := itad.MoneyZero()
	for i := range out {
		if i == len(out)-1 {
			out[i].AllocatedCost = total.Sub(running)
			break
		}
		cost := total.MulPercent(out[i].AllocatedPercentage)
		out[i].AllocatedCost = cost
		running = running.Add(cost)
	}
	return out, nil
}

func clone(items []itad.HarvestingItem) []itad.HarvestingItem {
	out := make([]itad.HarvestingItem, len(items))
	copy(out, items)
	return out
}
