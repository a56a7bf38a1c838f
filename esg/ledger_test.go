package esg_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/recovery-engine/esg"
	"github.com/warp/recovery-engine/itad"
	"github.com/warp/recovery-engine/itad/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) (*esg.Ledger, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.SaveAsset(ctx, itad.Asset{ID: "asset-1", ProjectID: "proj-1", Status: itad.AssetRecycled}))
	require.NoError(t, mem.SaveComponent(ctx, itad.Component{ID: "comp-1", SourceAssetID: "asset-1"}))

	return esg.NewLedger(mem, mem, mem), mem
}

func trackInput(weight float64) esg.TrackInput {
	return esg.TrackInput{
		CompanyID:        "acme",
		WasteCategoryID:  "batteries",
		RecoveryMethodID: "smelting",
		WeightKg:         itad.NewWeight(weight),
		CarbonEstimateKg: itad.NewWeight(weight * 2),
		EventDate:        time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// TRACKING
// =============================================================================

func TestTrackAssetRecycling_RecordsEvent(t *testing.T) {
	// GIVEN: An existing asset
	// WHEN: Tracking a disposition event against it
	// THEN: One event is appended with source type asset

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	event, err := ledger.TrackAssetRecycling(ctx, "asset-1", trackInput(12.5))
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, itad.SourceAsset, event.SourceType)
	assert.Equal(t, "asset-1", event.SourceID)
	assert.True(t, event.WeightKg.Value.Equal(itad.NewWeight(12.5).Value))

	events, err := ledger.Query(ctx, itad.EventFilter{
		CompanyID: "acme",
		From:      time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestTrackAssetRecycling_UnknownAsset_Rejected(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.TrackAssetRecycling(context.Background(), "nope", trackInput(1))
	assert.ErrorIs(t, err, itad.ErrAssetNotFound)
}

func TestTrackComponentRecycling_RecordsEvent(t *testing.T) {
	ledger, _ := newTestLedger(t)

	event, err := ledger.TrackComponentRecycling(context.Background(), "comp-1", trackInput(0.8))
	require.NoError(t, err)
	assert.Equal(t, itad.SourceComponent, event.SourceType)
	assert.Equal(t, "comp-1", event.SourceID)
}

func TestTrackComponentRecycling_UnknownComponent_Rejected(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.TrackComponentRecycling(context.Background(), "nope", trackInput(1))
	assert.ErrorIs(t, err, itad.ErrComponentNotFound)
}

func TestTrack_NegativeWeight_Rejected(t *testing.T) {
	ledger, _ := newTestLedger(t)

	in := trackInput(-1)
	_, err := ledger.TrackAssetRecycling(context.Background(), "asset-1", in)
	assert.ErrorIs(t, err, itad.ErrValidation)
}

func TestTrack_MissingReferences_Rejected(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	in := trackInput(1)
	in.WasteCategoryID = ""
	_, err := ledger.TrackAssetRecycling(ctx, "asset-1", in)
	assert.ErrorIs(t, err, itad.ErrValidation)

	in = trackInput(1)
	in.RecoveryMethodID = ""
	_, err = ledger.TrackAssetRecycling(ctx, "asset-1", in)
	assert.ErrorIs(t, err, itad.ErrValidation)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestQuery_Filters(t *testing.T) {
	// GIVEN: An asset event and a component event in March, plus one in May
	// WHEN: Querying with source-type and date-range filters
	// THEN: Only matching events come back

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.TrackAssetRecycling(ctx, "asset-1", trackInput(10))
	require.NoError(t, err)
	_, err = ledger.TrackComponentRecycling(ctx, "comp-1", trackInput(5))
	require.NoError(t, err)

	late := trackInput(3)
	late.EventDate = time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	_, err = ledger.TrackAssetRecycling(ctx, "asset-1", late)
	require.NoError(t, err)

	march := itad.EventFilter{
		CompanyID: "acme",
		From:      time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
	}
	events, err := ledger.Query(ctx, march)
	require.NoError(t, err)
	assert.Len(t, events, 2, "date range should exclude the May event")

	src := itad.SourceComponent
	march.SourceType = &src
	events, err = ledger.Query(ctx, march)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "comp-1", events[0].SourceID)
}

func TestQuery_OtherCompany_Empty(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.TrackAssetRecycling(ctx, "asset-1", trackInput(10))
	require.NoError(t, err)

	events, err := ledger.Query(ctx, itad.EventFilter{
		CompanyID: "globex",
		From:      time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, events)
}
