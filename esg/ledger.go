/*
Package esg records disposition events and aggregates them into
compliance-shaped reports.

PURPOSE:
  Every disposition action (an asset shredded, a component resold, a
  battery sent downstream) is captured as one immutable ESG event: what
  material, how much weight, by what recovery method, for which source
  object. The ledger answers filtered queries over a date range; the
  report generators (summary.go, gri.go, weee.go, circularity.go)
  re-aggregate those events into regulatory output.

APPEND-ONLY CONTRACT:
  Events are never updated or deleted. A mis-recorded event is corrected
  by recording a compensating event.

SEE ALSO:
  - summary.go:     Generic ESG summary with per-group breakdowns
  - gri.go:         GRI 306:2020 style waste report
  - weee.go:        EU WEEE recovery-rate report
  - circularity.go: Derived circularity index
*/
package esg

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/warp/recovery-engine/itad"
)

// =============================================================================
// LEDGER - Event recording and queries
// =============================================================================

// Ledger records disposition events against the store.
type Ledger struct {
	Events     itad.ESGEventStore
	Assets     itad.AssetStore
	Components itad.ComponentStore
}

func NewLedger(events itad.ESGEventStore, assets itad.AssetStore, components itad.ComponentStore) *Ledger {
	return &Ledger{Events: events, Assets: assets, Components: components}
}

// TrackInput carries the caller-supplied portion of a disposition event.
type TrackInput struct {
	CompanyID        itad.CompanyID
	WasteCategoryID  itad.WasteCategoryID
	RecoveryMethodID itad.RecoveryMethodID
	WeightKg         itad.Weight
	CarbonEstimateKg itad.Weight
	CircularityScore itad.Percent
	CompliesWith     []string
	DownstreamVendor string
	CertificateRef   string
	EventDate        time.Time
}

// TrackAssetRecycling records a disposition event for an asset.
func (l *Ledger) TrackAssetRecycling(ctx context.Context, assetID itad.AssetID, in TrackInput) (*itad.ESGEvent, error) {
	asset, err := l.Assets.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, itad.ErrAssetNotFound
	}
	return l.record(ctx, itad.SourceAsset, string(assetID), in)
}

// TrackComponentRecycling records a disposition event for a recovered
// component.
func (l *Ledger) TrackComponentRecycling(ctx context.Context, componentID itad.ComponentID, in TrackInput) (*itad.ESGEvent, error) {
	component, err := l.Components.GetComponent(ctx, componentID)
	if err != nil {
		return nil, err
	}
	if component == nil {
		return nil, itad.ErrComponentNotFound
	}
	return l.record(ctx, itad.SourceComponent, string(componentID), in)
}

func (l *Ledger) record(ctx context.Context, sourceType itad.SourceType, sourceID string, in TrackInput) (*itad.ESGEvent, error) {
	if in.WeightKg.IsNegative() {
		return nil, &itad.ValidationError{Field: "weight_kg", Message: "must not be negative"}
	}
	if in.WasteCategoryID == "" {
		return nil, &itad.ValidationError{Field: "waste_category_id", Message: "required"}
	}
	if in.RecoveryMethodID == "" {
		return nil, &itad.ValidationError{Field: "recovery_method_id", Message: "required"}
	}

	event := itad.ESGEvent{
		ID:               itad.EventID(uuid.NewString()),
		CompanyID:        in.CompanyID,
		SourceType:       sourceType,
		SourceID:         sourceID,
		WasteCategoryID:  in.WasteCategoryID,
		RecoveryMethodID: in.RecoveryMethodID,
		WeightKg:         in.WeightKg,
		CarbonEstimateKg: in.CarbonEstimateKg,
		CircularityScore: in.CircularityScore,
		CompliesWith:     in.CompliesWith,
		DownstreamVendor: in.DownstreamVendor,
		CertificateRef:   in.CertificateRef,
		EventDate:        in.EventDate,
		CreatedAt:        time.Now().UTC(),
	}
	if err := l.Events.AppendEvent(ctx, event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Query returns events matching the filter. Order is not significant.
func (l *Ledger) Query(ctx context.Context, f itad.EventFilter) ([]itad.ESGEvent, error) {
	return l.Events.QueryEvents(ctx, f)
}
