/*
handlers_test.go - HTTP-level tests for the API surface

PURPOSE:
  Drives the full router over an in-memory store: project onboarding,
  manifest import, harvesting with cost allocation, settlement
  generation through payment, and ESG tracking with reports. Also pins
  the error-to-status mapping.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/recovery-engine/intake"
	"github.com/warp/recovery-engine/itad"
	"github.com/warp/recovery-engine/itad/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func setupTestAPI(t *testing.T) (http.Handler, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return NewRouter(NewHandler(mem)), mem
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// =============================================================================
// FULL PROJECT FLOW
// =============================================================================

func TestAPI_ProjectLifecycle(t *testing.T) {
	router, mem := setupTestAPI(t)
	ctx := context.Background()

	// Create the project: 20% share above a 2000 threshold, 500 fee.
	rec := doJSON(t, router, http.MethodPost, "/api/projects", CreateProjectRequest{
		ID:                     "proj-1",
		CompanyID:              "acme",
		Name:                   "Acme decommission",
		ServiceFee:             500,
		RevenueSharePercentage: 20,
		RevenueShareThreshold:  2000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Import a 3-asset manifest.
	rec = doJSON(t, router, http.MethodPost, "/api/assets/import", ImportAssetsRequest{
		ProjectID: "proj-1",
		Rows: []ImportAssetRow{
			{SerialNumber: "SN-1", Description: "Dell R740", ReceivedAt: "2026-01-10"},
			{SerialNumber: "SN-2", Description: "Dell R740", ReceivedAt: "2026-01-10"},
			{SerialNumber: "SN-3", Description: "HP DL380", ReceivedAt: "2026-01-11"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 3, decode[ImportAssetsResponse](t, rec).Imported)

	assets, err := mem.ListAssetsByProject(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, assets, 3)

	// Sell the first asset for 10000.
	price := 10000.0
	rec = doJSON(t, router, http.MethodPut, "/api/assets/"+string(assets[0].ID), UpdateAssetRequest{
		Status:       string(itad.AssetSold),
		SellingPrice: &price,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Harvest the second asset: two items, cost allocated by weight.
	rec = doJSON(t, router, http.MethodPost, "/api/harvesting", CreateHarvestingRequest{
		SourceAssetID:       string(assets[1].ID),
		TotalCostToAllocate: 1000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	batch := decode[BatchDTO](t, rec)

	for _, w := range []float64{2, 3} {
		rec = doJSON(t, router, http.MethodPost, "/api/harvesting/"+batch.ID+"/items", AddHarvestingItemRequest{
			WeightKg: w,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/harvesting/"+batch.ID+"/allocate", AllocateRequest{
		Method: string(itad.AllocByWeight),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	items := decode[[]ItemDTO](t, rec)
	require.Len(t, items, 2)
	assert.Equal(t, 400.0, items[0].AllocatedCost)
	assert.Equal(t, 600.0, items[1].AllocatedCost)

	rec = doJSON(t, router, http.MethodPost, "/api/harvesting/"+batch.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Allocating a completed batch is a rejected operation, not a 500.
	rec = doJSON(t, router, http.MethodPost, "/api/harvesting/"+batch.ID+"/allocate", AllocateRequest{
		Method: string(itad.AllocEqualSplit),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	// Revenue check, then settle the period.
	rec = doJSON(t, router, http.MethodGet, "/api/projects/proj-1/revenue", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	revenue := decode[ProjectRevenueDTO](t, rec)
	assert.Equal(t, 10000.0, revenue.Total)

	rec = doJSON(t, router, http.MethodPost, "/api/projects/proj-1/settlements", GenerateSettlementRequest{
		SettlementDate: "2026-02-01",
		PeriodStart:    "2026-01-01",
		PeriodEnd:      "2026-01-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	s := decode[SettlementDTO](t, rec)
	assert.Equal(t, 8000.0, s.RevenueSubjectToShare)
	assert.Equal(t, 1600.0, s.CustomerRevenueShare)
	assert.Equal(t, 7900.0, s.OurNetRevenue)
	assert.Equal(t, string(itad.PaymentPending), s.PaymentStatus)
	assert.Equal(t, 3, s.AssetsReceived)
	assert.Equal(t, 1, s.AssetsHarvested)

	// Approve, then pay.
	rec = doJSON(t, router, http.MethodPost, "/api/settlements/"+s.ID+"/approve", ApproveSettlementRequest{
		ApproverID: "finance-lead",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(itad.PaymentApproved), decode[SettlementDTO](t, rec).PaymentStatus)

	rec = doJSON(t, router, http.MethodPost, "/api/settlements/"+s.ID+"/pay", PaySettlementRequest{
		PaidAt:    "2026-02-15",
		Method:    "wire",
		Reference: "INV-2026-001",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(itad.PaymentPaid), decode[SettlementDTO](t, rec).PaymentStatus)

	// Paying twice is an invalid transition.
	rec = doJSON(t, router, http.MethodPost, "/api/settlements/"+s.ID+"/pay", PaySettlementRequest{
		PaidAt: "2026-02-16", Method: "wire", Reference: "INV-2026-002",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	// The detail read joins in project context.
	rec = doJSON(t, router, http.MethodGet, "/api/settlements/"+s.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	detail := decode[SettlementDTO](t, rec)
	assert.Equal(t, "Acme decommission", detail.ProjectName)
	assert.Equal(t, "acme", detail.CompanyID)
	assert.Equal(t, string(itad.PaymentPaid), detail.PaymentStatus)
}

// =============================================================================
// IMPORT FAILURE REPORTING
// =============================================================================

// haltingAssetStore lets the first chunk through and fails every write
// after that.
type haltingAssetStore struct {
	*store.Memory
	saves int
}

func (s *haltingAssetStore) SaveAssets(ctx context.Context, assets []itad.Asset) error {
	s.saves++
	if s.saves > 1 {
		return fmt.Errorf("disk full")
	}
	return s.Memory.SaveAssets(ctx, assets)
}

func TestAPI_ImportAssets_MidImportFailure_ReportsPartialCount(t *testing.T) {
	mem := store.NewMemory()
	h := NewHandler(mem)
	h.Importer = intake.NewImporter(&haltingAssetStore{Memory: mem}, mem)
	router := NewRouter(h)
	ctx := context.Background()

	require.NoError(t, mem.SaveProject(ctx, itad.Project{ID: "proj-1", CompanyID: "acme"}))

	rows := make([]ImportAssetRow, 150)
	for i := range rows {
		rows[i] = ImportAssetRow{
			SerialNumber: fmt.Sprintf("SN-%04d", i),
			ReceivedAt:   "2026-01-10",
		}
	}

	rec := doJSON(t, router, http.MethodPost, "/api/assets/import", ImportAssetsRequest{
		ProjectID: "proj-1",
		Rows:      rows,
	})

	// The second chunk fails; the body still tells the caller the first
	// 100 rows landed.
	require.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())
	resp := decode[ImportAssetsResponse](t, rec)
	assert.Equal(t, 100, resp.Imported)
	assert.NotEmpty(t, resp.Error)
	assert.Contains(t, resp.Details, "disk full")

	assets, err := mem.ListAssetsByProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Len(t, assets, 100)
}

// =============================================================================
// ESG FLOW
// =============================================================================

func TestAPI_ESGTrackingAndReports(t *testing.T) {
	router, mem := setupTestAPI(t)
	ctx := context.Background()

	require.NoError(t, mem.SaveAsset(ctx, itad.Asset{ID: "asset-1", ProjectID: "proj-1", Status: itad.AssetRecycled}))

	rec := doJSON(t, router, http.MethodPost, "/api/reference/waste-categories", CreateWasteCategoryRequest{
		ID: "metals", Name: "Ferrous metals", HazardClass: "non_hazardous", WEEECategory: "CAT4",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = doJSON(t, router, http.MethodPost, "/api/reference/recovery-methods", CreateRecoveryMethodRequest{
		ID: "shred", Name: "Shredding", MethodType: "recycle",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/esg/assets/asset-1/events", TrackEventRequest{
		CompanyID:        "acme",
		WasteCategoryID:  "metals",
		RecoveryMethodID: "shred",
		WeightKg:         120,
		CarbonEstimateKg: 40,
		CircularityScore: 85,
		CompliesWith:     []string{"R2v3"},
		EventDate:        "2026-03-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	event := decode[EventDTO](t, rec)
	assert.Equal(t, "asset", event.SourceType)
	assert.Equal(t, 120.0, event.WeightKg)

	rec = doJSON(t, router, http.MethodGet, "/api/esg/reports/weee?company_id=acme&from=2026-01-01&to=2026-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var weee struct {
		TotalCollectedKg     float64 `json:"total_collected_kg"`
		TotalRecoveryRatePct float64 `json:"total_recovery_rate_pct"`
		Compliant            bool    `json:"compliant"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&weee))
	assert.Equal(t, 120.0, weee.TotalCollectedKg)
	assert.Equal(t, 100.0, weee.TotalRecoveryRatePct)
	assert.True(t, weee.Compliant)

	rec = doJSON(t, router, http.MethodGet, "/api/esg/metrics/circularity?company_id=acme&from=2026-01-01&to=2026-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var circ struct {
		CircularityIndex float64 `json:"circularity_index"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&circ))
	assert.Equal(t, 80.0, circ.CircularityIndex)
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestAPI_ErrorStatuses(t *testing.T) {
	router, _ := setupTestAPI(t)

	// Unknown settlement -> 404.
	rec := doJSON(t, router, http.MethodGet, "/api/settlements/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Settling an unknown project -> 404.
	rec = doJSON(t, router, http.MethodPost, "/api/projects/nope/settlements", GenerateSettlementRequest{
		SettlementDate: "2026-02-01", PeriodStart: "2026-01-01", PeriodEnd: "2026-01-31",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Harvesting an unknown asset -> 404.
	rec = doJSON(t, router, http.MethodPost, "/api/harvesting", CreateHarvestingRequest{
		SourceAssetID: "nope", TotalCostToAllocate: 100,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed date -> 400.
	rec = doJSON(t, router, http.MethodPost, "/api/projects/nope/settlements", GenerateSettlementRequest{
		SettlementDate: "02/01/2026", PeriodStart: "2026-01-01", PeriodEnd: "2026-01-31",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Out-of-range share percentage -> 400.
	rec = doJSON(t, router, http.MethodPost, "/api/projects", CreateProjectRequest{
		ID: "p", CompanyID: "c", RevenueSharePercentage: 150,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
