/*
invariants_test.go - Executable invariants of the disposition core

PURPOSE:
  These tests document the engine-wide guarantees described in DESIGN.md
  and validate them end to end over the in-memory store:
  1. Exact-sum allocation - allocated costs always sum to the pooled total
  2. Net revenue identity - net = gross - share - fee, never clamped
  3. Circularity index bounds - always within [0, 100]
  4. Append-only ESG ledger - corrections are compensating events
  5. Version checks - concurrent writers cannot silently overwrite

These tests are intentionally verbose for documentation purposes.
*/
package itad_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/warp/recovery-engine/allocation"
	"github.com/warp/recovery-engine/esg"
	"github.com/warp/recovery-engine/itad"
	"github.com/warp/recovery-engine/itad/store"
	"github.com/warp/recovery-engine/settlement"
)

// =============================================================================
// INVARIANT 1: EXACT-SUM ALLOCATION
// =============================================================================

func TestInvariant_AllocatedCostsSumToTotalExactly(t *testing.T) {
	// Whatever the method and however awkward the ratios, the allocated
	// costs must reconstruct the pooled total with no rounding drift.

	totals := []string{"0.01", "99.99", "1000", "123.45", "7777.77"}
	weights := [][]float64{{1, 1, 1}, {2, 3, 5}, {0.1, 0.2, 0.7}, {7, 11, 13}}

	for _, ts := range totals {
		total := itad.MustParseMoney(ts)
		for _, ws := range weights {
			items := make([]itad.HarvestingItem, len(ws))
			for i, w := range ws {
				items[i] = itad.HarvestingItem{
					ID:                   itad.ComponentID(string(rune('a' + i))),
					BatchID:              "b",
					WeightKg:             itad.NewWeight(w),
					MarketValueAtHarvest: itad.NewMoney(w * 37),
				}
			}
			for _, method := range []itad.AllocationMethod{
				itad.AllocEqualSplit, itad.AllocByWeight, itad.AllocByMarketValue,
			} {
				out, err := allocation.Allocate(total, items, method)
				if err != nil {
					t.Fatalf("total=%s method=%s: %v", ts, method, err)
				}
				sum := itad.MoneyZero()
				for _, it := range out {
					sum = sum.Add(it.AllocatedCost)
				}
				if !sum.Equal(total) {
					t.Errorf("total=%s method=%s weights=%v: sum %v != total",
						ts, method, ws, sum.Value)
				}
			}
		}
	}
}

// =============================================================================
// INVARIANT 2: NET REVENUE IDENTITY
// =============================================================================

func TestInvariant_NetRevenueIdentity(t *testing.T) {
	// For every generated settlement:
	//   OurNetRevenue = TotalGrossRevenue - CustomerRevenueShare - ServiceFeeAmount
	// including when the right-hand side goes negative.

	cases := []struct {
		name                 string
		revenue, fee         float64
		sharePct, threshold  float64
	}{
		{"typical", 10000, 500, 20, 2000},
		{"below threshold", 1500, 100, 20, 2000},
		{"fee exceeds revenue", 100, 500, 0, 0},
		{"full share no threshold", 5000, 0, 100, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mem := store.NewMemory()
			ctx := context.Background()
			if err := mem.SaveProject(ctx, itad.Project{
				ID:                     "p",
				CompanyID:              "c",
				ServiceFee:             itad.NewMoney(c.fee),
				RevenueSharePercentage: itad.NewPercent(c.sharePct),
				RevenueShareThreshold:  itad.NewMoney(c.threshold),
			}); err != nil {
				t.Fatal(err)
			}
			if err := mem.SaveAsset(ctx, itad.Asset{
				ID: "a", ProjectID: "p", Status: itad.AssetSold,
				SellingPrice: itad.NewMoney(c.revenue),
			}); err != nil {
				t.Fatal(err)
			}

			calc := settlement.NewCalculator(mem, mem, mem, mem)
			s, err := calc.GenerateSettlement(ctx, "p",
				time.Now(), time.Now().AddDate(0, -1, 0), time.Now())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			expected := s.TotalGrossRevenue.Sub(s.CustomerRevenueShare).Sub(s.ServiceFeeAmount)
			if !s.OurNetRevenue.Equal(expected) {
				t.Errorf("net %v != gross - share - fee %v", s.OurNetRevenue.Value, expected.Value)
			}
		})
	}
}

// =============================================================================
// INVARIANT 3: CIRCULARITY INDEX BOUNDS
// =============================================================================

func TestInvariant_CircularityIndexWithinBounds(t *testing.T) {
	// The index stays in [0, 100] for any mix of method types, because the
	// bucket weights are capped at 1.0.

	mixes := []map[itad.RecoveryMethodID]float64{
		{"resale": 100},
		{"dump": 100},
		{"resale": 1, "shred": 1, "energy": 1, "dump": 1, "burn": 1},
		{"shred": 0.001, "resale": 9999},
	}

	for _, mix := range mixes {
		mem := store.NewMemory()
		ctx := context.Background()
		methods := map[itad.RecoveryMethodID]itad.MethodType{
			"resale": itad.MethodReuse, "shred": itad.MethodRecycle,
			"energy": itad.MethodRecovery, "dump": itad.MethodLandfill,
			"burn": itad.MethodIncineration,
		}
		for id, mt := range methods {
			if err := mem.SaveRecoveryMethod(ctx, itad.RecoveryMethod{ID: id, MethodType: mt}); err != nil {
				t.Fatal(err)
			}
		}
		for method, weight := range mix {
			if err := mem.AppendEvent(ctx, itad.ESGEvent{
				ID: itad.EventID(string(method)), CompanyID: "c",
				WasteCategoryID: "w", RecoveryMethodID: method,
				WeightKg:  itad.NewWeight(weight),
				EventDate: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			}); err != nil {
				t.Fatal(err)
			}
		}

		reporter := esg.NewReporter(mem, mem)
		metrics, err := reporter.CircularityMetrics(ctx, "c",
			time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if metrics.CircularityIndex < 0 || metrics.CircularityIndex > 100 {
			t.Errorf("mix %v: index %v out of [0,100]", mix, metrics.CircularityIndex)
		}
	}
}

// =============================================================================
// INVARIANT 4: APPEND-ONLY LEDGER, COMPENSATING CORRECTIONS
// =============================================================================

func TestInvariant_CompensatingEventCorrectsAggregates(t *testing.T) {
	// A mis-recorded 50kg event is not edited. A compensating event for the
	// 30kg difference brings the aggregate to the intended 20kg.

	mem := store.NewMemory()
	ctx := context.Background()
	if err := mem.SaveRecoveryMethod(ctx, itad.RecoveryMethod{ID: "shred", MethodType: itad.MethodRecycle}); err != nil {
		t.Fatal(err)
	}

	day := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if err := mem.AppendEvent(ctx, itad.ESGEvent{
		ID: "e1", CompanyID: "c", WasteCategoryID: "w", RecoveryMethodID: "shred",
		WeightKg: itad.NewWeight(50), EventDate: day,
	}); err != nil {
		t.Fatal(err)
	}
	if err := mem.AppendEvent(ctx, itad.ESGEvent{
		ID: "e2", CompanyID: "c", WasteCategoryID: "w", RecoveryMethodID: "shred",
		WeightKg: itad.NewWeight(-30), EventDate: day,
	}); err != nil {
		t.Fatal(err)
	}

	reporter := esg.NewReporter(mem, mem)
	report, err := reporter.SummaryReport(ctx, "c", day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalWeightKg != 20.0 {
		t.Errorf("expected compensated total 20kg, got %v", report.TotalWeightKg)
	}
	if report.EventCount != 2 {
		t.Errorf("both events must remain on the ledger, got %d", report.EventCount)
	}
}

// =============================================================================
// INVARIANT 5: VERSION CHECKS PREVENT LOST UPDATES
// =============================================================================

func TestInvariant_StaleWriteLoses(t *testing.T) {
	// Two writers read the same settlement. The first write wins; the
	// second, carrying the stale version, is rejected rather than applied.

	mem := store.NewMemory()
	ctx := context.Background()
	if err := mem.InsertSettlement(ctx, itad.RevenueSettlement{
		ID: "s", ProjectID: "p", PaymentStatus: itad.PaymentPending,
	}); err != nil {
		t.Fatal(err)
	}

	first, err := mem.GetSettlement(ctx, "s")
	if err != nil {
		t.Fatal(err)
	}
	second, err := mem.GetSettlement(ctx, "s")
	if err != nil {
		t.Fatal(err)
	}

	first.PaymentStatus = itad.PaymentApproved
	if err := mem.UpdateSettlement(ctx, *first); err != nil {
		t.Fatalf("first writer should win: %v", err)
	}

	second.PaymentStatus = itad.PaymentCancelled
	err = mem.UpdateSettlement(ctx, *second)
	if !errors.Is(err, itad.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}

	stored, err := mem.GetSettlement(ctx, "s")
	if err != nil {
		t.Fatal(err)
	}
	if stored.PaymentStatus != itad.PaymentApproved {
		t.Errorf("stale write must not apply, got status %s", stored.PaymentStatus)
	}
}
