/*
Package itad provides the core domain types for the recovery engine.

PURPOSE:
  This package contains the shared vocabulary of the ITAD (IT Asset
  Disposition) settlement and compliance core: money, weights,
  percentages, typed identifiers, and the closed enums that classify
  disposition activity. The computation packages (allocation,
  settlement, esg) build on these types.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount backed by decimal.Decimal
  - Weight: Kilograms, also decimal-backed
  - Percent: A 0-100 percentage used by allocation and revenue sharing
  - Typed IDs: AssetID, BatchID, ProjectID, ... prevent mixing identifiers
  - Classification enums: AllocationMethod, PaymentStatus, HazardClass,
    MethodType, AssetStatus, SourceType

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere money or weight is computed;
     float64 exists only at the API boundary
  2. One rounding rule: round-half-even to 2 decimal places, applied once
     at the end of each derived computation (see Money.Round)
  3. Closed enums: every classification axis is a typed constant set and
     switch statements over them carry a default that rejects unknown
     values instead of silently ignoring them

USAGE:
  total := itad.NewMoney(1000)
  share := total.MulPercent(itad.NewPercent(20)) // 200.00

SEE ALSO:
  - entities.go: Entity types built from these primitives
  - errors.go: Error taxonomy
  - store.go: Repository interfaces
*/
package itad

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount (no currency-code handling; single implicit unit)
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(v float64) Money          { return Money{Value: decimal.NewFromFloat(v)} }
func NewMoneyFromInt(v int) Money       { return Money{Value: decimal.NewFromInt(int64(v))} }
func MoneyZero() Money                  { return Money{Value: decimal.Zero} }

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return MoneyZero()
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money          { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money          { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(s decimal.Decimal) Money { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money { return Money{Value: m.Value.Div(s)} }
func (m Money) Neg() Money                 { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool               { return m.Value.IsZero() }
func (m Money) IsNegative() bool           { return m.Value.IsNegative() }
func (m Money) IsPositive() bool           { return m.Value.IsPositive() }
func (m Money) GreaterThan(o Money) bool   { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool      { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool         { return m.Value.Equal(o.Value) }
func (m Money) Float64() float64           { f, _ := m.Value.Float64(); return f }

// Round applies the engine-wide rounding rule: round-half-even (banker's
// rounding) to 2 decimal places. Call it once, at the end of a derived
// computation, never on intermediates.
func (m Money) Round() Money { return Money{Value: m.Value.RoundBank(2)} }

// MulPercent returns m * p / 100, rounded.
func (m Money) MulPercent(p Percent) Money {
	return Money{Value: m.Value.Mul(p.Value).Div(decimal.NewFromInt(100))}.Round()
}

// MaxZero clamps negative amounts to zero. Used for the revenue-share
// threshold; net revenue is explicitly NOT clamped.
func (m Money) MaxZero() Money {
	if m.IsNegative() {
		return MoneyZero()
	}
	return m
}

// =============================================================================
// WEIGHT - Kilograms
// =============================================================================

type Weight struct {
	Value decimal.Decimal
}

func NewWeight(kg float64) Weight { return Weight{Value: decimal.NewFromFloat(kg)} }
func WeightZero() Weight          { return Weight{Value: decimal.Zero} }

func (w Weight) Add(o Weight) Weight     { return Weight{Value: w.Value.Add(o.Value)} }
func (w Weight) IsZero() bool            { return w.Value.IsZero() }
func (w Weight) IsNegative() bool        { return w.Value.IsNegative() }
func (w Weight) Float64() float64        { f, _ := w.Value.Float64(); return f }

// =============================================================================
// PERCENT - 0-100 percentage
// =============================================================================

type Percent struct {
	Value decimal.Decimal
}

func NewPercent(v float64) Percent { return Percent{Value: decimal.NewFromFloat(v)} }
func PercentZero() Percent         { return Percent{Value: decimal.Zero} }

// Ratio returns the percentage of part over whole, as a 0-100 Percent.
// Zero whole yields zero percent.
func Ratio(part, whole decimal.Decimal) Percent {
	if whole.IsZero() {
		return PercentZero()
	}
	return Percent{Value: part.Div(whole).Mul(decimal.NewFromInt(100))}
}

func (p Percent) Add(o Percent) Percent { return Percent{Value: p.Value.Add(o.Value)} }
func (p Percent) Float64() float64      { f, _ := p.Value.Float64(); return f }

// Round applies the same banker's rounding as Money, at 2 decimal places.
func (p Percent) Round() Percent { return Percent{Value: p.Value.RoundBank(2)} }

// WithinTolerance reports whether p is within ±tol of target.
// Used for the "percentages must sum to 100" precondition (tol = 0.01).
func (p Percent) WithinTolerance(target, tol float64) bool {
	diff := p.Value.Sub(decimal.NewFromFloat(target)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(tol))
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AssetID string
type ComponentID string
type BatchID string
type ProjectID string
type SettlementID string
type EventID string
type CompanyID string
type WasteCategoryID string
type RecoveryMethodID string

// =============================================================================
// ALLOCATION METHOD - How pooled cost is distributed across harvested items
// =============================================================================

type AllocationMethod string

const (
	AllocEqualSplit    AllocationMethod = "equal_split"
	AllocByWeight      AllocationMethod = "by_weight"
	AllocByMarketValue AllocationMethod = "by_market_value"
	AllocByPercentage  AllocationMethod = "by_percentage"
)

func (m AllocationMethod) Valid() bool {
	switch m {
	case AllocEqualSplit, AllocByWeight, AllocByMarketValue, AllocByPercentage:
		return true
	default:
		return false
	}
}

// =============================================================================
// PAYMENT STATUS - Settlement lifecycle
// =============================================================================

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentApproved  PaymentStatus = "approved"
	PaymentPaid      PaymentStatus = "paid"
	PaymentDisputed  PaymentStatus = "disputed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// CanTransition encodes the settlement state machine:
//
//	pending  -> approved, disputed, cancelled
//	approved -> paid, disputed, cancelled
//	paid, disputed, cancelled -> (terminal)
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return to == PaymentApproved || to == PaymentDisputed || to == PaymentCancelled
	case PaymentApproved:
		return to == PaymentPaid || to == PaymentDisputed || to == PaymentCancelled
	case PaymentPaid, PaymentDisputed, PaymentCancelled:
		return false
	default:
		return false
	}
}

// =============================================================================
// ASSET STATUS - Disposition lifecycle of a physical unit
// =============================================================================

type AssetStatus string

const (
	AssetReceived    AssetStatus = "received"
	AssetSanitized   AssetStatus = "sanitized"
	AssetRefurbished AssetStatus = "refurbished"
	AssetSold        AssetStatus = "sold"
	AssetHarvested   AssetStatus = "harvested"
	AssetRecycled    AssetStatus = "recycled"
	AssetScrapped    AssetStatus = "scrapped"
)

// =============================================================================
// HAZARD CLASS / METHOD TYPE - Classification axes for ESG reporting
// =============================================================================

type HazardClass string

const (
	Hazardous    HazardClass = "hazardous"
	NonHazardous HazardClass = "non_hazardous"
)

type MethodType string

const (
	MethodReuse        MethodType = "reuse"
	MethodRecycle      MethodType = "recycle"
	MethodRecovery     MethodType = "recovery"
	MethodLandfill     MethodType = "landfill"
	MethodIncineration MethodType = "incineration"
)

// =============================================================================
// SOURCE TYPE - What an ESG event was recorded against
// =============================================================================

type SourceType string

const (
	SourceAsset     SourceType = "asset"
	SourceComponent SourceType = "component"
)
