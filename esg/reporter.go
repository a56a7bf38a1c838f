/*
reporter.go - Shared plumbing for the report generators

PURPOSE:
  All report generators follow the same shape: fetch the company's events
  in [from, to], resolve waste categories and recovery methods into
  lookup maps, then aggregate. This file holds the Reporter and that
  shared fetch/resolve step.

ROUNDING:
  Aggregation runs in decimal; each report field is rounded half-even to
  2 decimal places exactly once, when the report is assembled.
*/
package esg

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/recovery-engine/itad"
)

// Reporter aggregates the ESG ledger into compliance reports.
type Reporter struct {
	Events    itad.ESGEventStore
	Reference itad.ReferenceStore
}

func NewReporter(events itad.ESGEventStore, reference itad.ReferenceStore) *Reporter {
	return &Reporter{Events: events, Reference: reference}
}

// reportData is the resolved input every generator aggregates over.
type reportData struct {
	events     []itad.ESGEvent
	categories map[itad.WasteCategoryID]itad.WasteCategory
	methods    map[itad.RecoveryMethodID]itad.RecoveryMethod
}

func (r *Reporter) load(ctx context.Context, companyID itad.CompanyID, from, to time.Time) (*reportData, error) {
	events, err := r.Events.QueryEvents(ctx, itad.EventFilter{CompanyID: companyID, From: from, To: to})
	if err != nil {
		return nil, err
	}

	cats, err := r.Reference.ListWasteCategories(ctx)
	if err != nil {
		return nil, err
	}
	methods, err := r.Reference.ListRecoveryMethods(ctx)
	if err != nil {
		return nil, err
	}

	data := &reportData{
		events:     events,
		categories: make(map[itad.WasteCategoryID]itad.WasteCategory, len(cats)),
		methods:    make(map[itad.RecoveryMethodID]itad.RecoveryMethod, len(methods)),
	}
	for _, c := range cats {
		data.categories[c.ID] = c
	}
	for _, m := range methods {
		data.methods[m.ID] = m
	}
	return data, nil
}

// methodType resolves an event's recovery method type; ok is false when
// the method id has no reference row.
func (d *reportData) methodType(e itad.ESGEvent) (itad.MethodType, bool) {
	m, ok := d.methods[e.RecoveryMethodID]
	if !ok {
		return "", false
	}
	return m.MethodType, true
}

// round2 converts an exact decimal aggregate to the reported float,
// applying the engine-wide rounding rule.
func round2(d decimal.Decimal) float64 {
	f, _ := d.RoundBank(2).Float64()
	return f
}
