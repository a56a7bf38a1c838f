/*
handlers.go - HTTP API handlers for the recovery engine

PURPOSE:
  Exposes the settlement and compliance core via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Projects:
    POST   /api/projects                        Create project
    GET    /api/projects/{id}/revenue           Realized revenue by channel
    POST   /api/projects/{id}/settlements       Generate settlement

  Assets:
    POST   /api/assets/import                   Bulk manifest import
    PUT    /api/assets/{id}                     Update status/selling price

  Harvesting:
    POST   /api/harvesting                      Create batch
    GET    /api/harvesting/{id}                 Batch with items
    POST   /api/harvesting/{id}/items           Add recovered item
    POST   /api/harvesting/{id}/allocate        Run cost allocation
    POST   /api/harvesting/{id}/complete        Freeze batch

  Settlements:
    GET    /api/settlements/{id}                Settlement details
    POST   /api/settlements/{id}/approve        pending -> approved
    POST   /api/settlements/{id}/pay            approved -> paid

  ESG:
    POST   /api/esg/assets/{id}/events          Track asset disposition
    POST   /api/esg/components/{id}/events      Track component disposition
    GET    /api/esg/reports/summary             ESG summary report
    GET    /api/esg/reports/gri                 GRI 306 report
    GET    /api/esg/reports/weee                WEEE recovery-rate report
    GET    /api/esg/metrics/circularity         Circularity metrics

  Reference:
    POST/GET /api/reference/waste-categories
    POST/GET /api/reference/recovery-methods

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Entity not found
  - 409: Concurrent modification conflict
  - 422: Allocation precondition, completed batch, or settlement
         transition rejected
  - 500: Store/internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/recovery-engine/allocation"
	"github.com/warp/recovery-engine/esg"
	"github.com/warp/recovery-engine/intake"
	"github.com/warp/recovery-engine/itad"
	"github.com/warp/recovery-engine/settlement"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       itad.Store
	Harvesting  *allocation.Service
	Settlements *settlement.Calculator
	Ledger      *esg.Ledger
	Reporter    *esg.Reporter
	Importer    *intake.Importer
}

// NewHandler wires the domain services over the given store.
func NewHandler(store itad.Store) *Handler {
	return &Handler{
		Store:       store,
		Harvesting:  allocation.NewService(store, store),
		Settlements: settlement.NewCalculator(store, store, store, store),
		Ledger:      esg.NewLedger(store, store, store),
		Reporter:    esg.NewReporter(store, store),
		Importer:    intake.NewImporter(store, store),
	}
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// CreateProject registers a new ITAD project.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.CompanyID == "" {
		writeError(w, http.StatusBadRequest, "id and company_id are required", nil)
		return
	}
	if req.RevenueSharePercentage < 0 || req.RevenueSharePercentage > 100 {
		writeError(w, http.StatusBadRequest, "revenue_share_percentage must be 0-100", nil)
		return
	}

	p := itad.Project{
		ID:                     itad.ProjectID(req.ID),
		CompanyID:              itad.CompanyID(req.CompanyID),
		Name:                   req.Name,
		ServiceFee:             itad.NewMoney(req.ServiceFee),
		RevenueSharePercentage: itad.NewPercent(req.RevenueSharePercentage),
		RevenueShareThreshold:  itad.NewMoney(req.RevenueShareThreshold),
		CreatedAt:              time.Now().UTC(),
	}
	if err := h.Store.SaveProject(r.Context(), p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

// GetProjectRevenue returns realized revenue broken down by channel.
func (h *Handler) GetProjectRevenue(w http.ResponseWriter, r *http.Request) {
	projectID := itad.ProjectID(chi.URLParam(r, "id"))

	revenue, err := h.Settlements.CalculateProjectRevenue(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectRevenueDTO{
		ProjectID:      string(projectID),
		AssetSales:     revenue.AssetSales.Float64(),
		ComponentSales: revenue.ComponentSales.Float64(),
		Scrap:          revenue.Scrap.Float64(),
		Total:          revenue.Total.Float64(),
	})
}

// GenerateSettlement computes and persists a settlement for a project.
func (h *Handler) GenerateSettlement(w http.ResponseWriter, r *http.Request) {
	projectID := itad.ProjectID(chi.URLParam(r, "id"))

	var req GenerateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	settlementDate, err := parseDate(req.SettlementDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settlement_date (use YYYY-MM-DD)", err)
		return
	}
	periodStart, err := parseDate(req.PeriodStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period_start (use YYYY-MM-DD)", err)
		return
	}
	periodEnd, err := parseDate(req.PeriodEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period_end (use YYYY-MM-DD)", err)
		return
	}

	s, err := h.Settlements.GenerateSettlement(r.Context(), projectID, settlementDate, periodStart, periodEnd)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSettlementDTO(s))
}

// =============================================================================
// ASSET HANDLERS
// =============================================================================

// ImportAssets bulk-loads a manifest into a project.
func (h *Handler) ImportAssets(w http.ResponseWriter, r *http.Request) {
	var req ImportAssetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rows := make([]intake.AssetRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		receivedAt, err := parseDate(row.ReceivedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid received_at (use YYYY-MM-DD)", err)
			return
		}
		rows = append(rows, intake.AssetRow{
			SerialNumber: row.SerialNumber,
			Description:  row.Description,
			ReceivedAt:   receivedAt,
		})
	}

	imported, err := h.Importer.ImportAssets(r.Context(), itad.ProjectID(req.ProjectID), rows)
	if err != nil {
		// Chunks written before the failure stay written; the caller
		// needs the count to re-run the import with the remaining rows.
		status, message := domainStatus(err)
		writeJSON(w, status, ImportAssetsResponse{
			Imported: imported,
			Error:    message,
			Details:  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusCreated, ImportAssetsResponse{Imported: imported})
}

// UpdateAsset sets an asset's status and, for sales, its selling price.
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	assetID := itad.AssetID(chi.URLParam(r, "id"))

	var req UpdateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	asset, err := h.Store.GetAsset(r.Context(), assetID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if asset == nil {
		writeError(w, http.StatusNotFound, "Asset not found", nil)
		return
	}

	if req.Status != "" {
		asset.Status = itad.AssetStatus(req.Status)
	}
	if req.SellingPrice != nil {
		asset.SellingPrice = itad.NewMoney(*req.SellingPrice)
	}
	if err := h.Store.SaveAsset(r.Context(), *asset); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": string(assetID), "status": string(asset.Status)})
}

// =============================================================================
// HARVESTING HANDLERS
// =============================================================================

// CreateHarvesting opens a batch for a source asset.
func (h *Handler) CreateHarvesting(w http.ResponseWriter, r *http.Request) {
	var req CreateHarvestingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	batch, err := h.Harvesting.CreateHarvesting(r.Context(),
		itad.AssetID(req.SourceAssetID), itad.NewMoney(req.TotalCostToAllocate))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBatchDTO(batch, nil))
}

// GetHarvesting returns a batch with its items.
func (h *Handler) GetHarvesting(w http.ResponseWriter, r *http.Request) {
	batchID := itad.BatchID(chi.URLParam(r, "id"))

	batch, err := h.Store.GetBatch(r.Context(), batchID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if batch == nil {
		writeError(w, http.StatusNotFound, "Harvesting batch not found", nil)
		return
	}
	items, err := h.Store.ListItems(r.Context(), batchID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchDTO(batch, items))
}

// AddHarvestingItem records a recovered component on a batch.
func (h *Handler) AddHarvestingItem(w http.ResponseWriter, r *http.Request) {
	batchID := itad.BatchID(chi.URLParam(r, "id"))

	var req AddHarvestingItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	item, err := h.Harvesting.AddItem(r.Context(), batchID,
		itad.NewWeight(req.WeightKg), itad.NewMoney(req.MarketValueAtHarvest),
		itad.NewPercent(req.AllocatedPercentage))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemDTO(*item))
}

// AllocateCosts runs one allocation over the batch.
func (h *Handler) AllocateCosts(w http.ResponseWriter, r *http.Request) {
	batchID := itad.BatchID(chi.URLParam(r, "id"))

	var req AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	items, err := h.Harvesting.AllocateCostsByMethod(r.Context(), batchID, itad.AllocationMethod(req.Method))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toItemDTO(item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CompleteHarvesting freezes a batch.
func (h *Handler) CompleteHarvesting(w http.ResponseWriter, r *http.Request) {
	batchID := itad.BatchID(chi.URLParam(r, "id"))

	if err := h.Harvesting.CompleteHarvesting(r.Context(), batchID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": string(batchID), "status": "completed"})
}

// =============================================================================
// SETTLEMENT HANDLERS
// =============================================================================

// GetSettlement returns settlement details with project context.
func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	id := itad.SettlementID(chi.URLParam(r, "id"))

	sp, err := h.Store.GetSettlementWithProject(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sp == nil {
		writeError(w, http.StatusNotFound, "Settlement not found", nil)
		return
	}
	dto := toSettlementDTO(&sp.Settlement)
	dto.ProjectName = sp.Project.Name
	dto.CompanyID = string(sp.Project.CompanyID)
	writeJSON(w, http.StatusOK, dto)
}

// ApproveSettlement transitions pending -> approved.
func (h *Handler) ApproveSettlement(w http.ResponseWriter, r *http.Request) {
	id := itad.SettlementID(chi.URLParam(r, "id"))

	var req ApproveSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, err := h.Settlements.Approve(r.Context(), id, req.ApproverID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(s))
}

// PaySettlement transitions approved -> paid.
func (h *Handler) PaySettlement(w http.ResponseWriter, r *http.Request) {
	id := itad.SettlementID(chi.URLParam(r, "id"))

	var req PaySettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	paidAt, err := parseDate(req.PaidAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid paid_at (use YYYY-MM-DD)", err)
		return
	}

	s, err := h.Settlements.MarkPaid(r.Context(), id, paidAt, req.Method, req.Reference)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(s))
}

// =============================================================================
// ESG HANDLERS
// =============================================================================

func (h *Handler) trackInputFromRequest(req TrackEventRequest) (esg.TrackInput, error) {
	eventDate, err := parseDate(req.EventDate)
	if err != nil {
		return esg.TrackInput{}, err
	}
	return esg.TrackInput{
		CompanyID:        itad.CompanyID(req.CompanyID),
		WasteCategoryID:  itad.WasteCategoryID(req.WasteCategoryID),
		RecoveryMethodID: itad.RecoveryMethodID(req.RecoveryMethodID),
		WeightKg:         itad.NewWeight(req.WeightKg),
		CarbonEstimateKg: itad.NewWeight(req.CarbonEstimateKg),
		CircularityScore: itad.NewPercent(req.CircularityScore),
		CompliesWith:     req.CompliesWith,
		DownstreamVendor: req.DownstreamVendor,
		CertificateRef:   req.CertificateRef,
		EventDate:        eventDate,
	}, nil
}

// TrackAssetEvent records a disposition event against an asset.
func (h *Handler) TrackAssetEvent(w http.ResponseWriter, r *http.Request) {
	assetID := itad.AssetID(chi.URLParam(r, "id"))

	var req TrackEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	input, err := h.trackInputFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event_date (use YYYY-MM-DD)", err)
		return
	}

	event, err := h.Ledger.TrackAssetRecycling(r.Context(), assetID, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(event))
}

// TrackComponentEvent records a disposition event against a component.
func (h *Handler) TrackComponentEvent(w http.ResponseWriter, r *http.Request) {
	componentID := itad.ComponentID(chi.URLParam(r, "id"))

	var req TrackEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	input, err := h.trackInputFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event_date (use YYYY-MM-DD)", err)
		return
	}

	event, err := h.Ledger.TrackComponentRecycling(r.Context(), componentID, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(event))
}

// reportWindow parses the shared company_id/from/to query parameters.
func reportWindow(r *http.Request) (itad.CompanyID, time.Time, time.Time, error) {
	companyID := r.URL.Query().Get("company_id")
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return itad.CompanyID(companyID), from, to, nil
}

// GetSummaryReport returns the generic ESG summary.
func (h *Handler) GetSummaryReport(w http.ResponseWriter, r *http.Request) {
	companyID, from, to, err := reportWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from/to (use YYYY-MM-DD)", err)
		return
	}
	report, err := h.Reporter.SummaryReport(r.Context(), companyID, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetGRIReport returns the GRI 306 waste report.
func (h *Handler) GetGRIReport(w http.ResponseWriter, r *http.Request) {
	companyID, from, to, err := reportWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from/to (use YYYY-MM-DD)", err)
		return
	}
	report, err := h.Reporter.GRIReport(r.Context(), companyID, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetWEEEReport returns the WEEE recovery-rate report.
func (h *Handler) GetWEEEReport(w http.ResponseWriter, r *http.Request) {
	companyID, from, to, err := reportWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from/to (use YYYY-MM-DD)", err)
		return
	}
	report, err := h.Reporter.WEEEReport(r.Context(), companyID, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetCircularityMetrics returns the derived circularity buckets and index.
func (h *Handler) GetCircularityMetrics(w http.ResponseWriter, r *http.Request) {
	companyID, from, to, err := reportWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from/to (use YYYY-MM-DD)", err)
		return
	}
	metrics, err := h.Reporter.CircularityMetrics(r.Context(), companyID, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

// CreateWasteCategory registers a waste classification.
func (h *Handler) CreateWasteCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateWasteCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	hazard := itad.HazardClass(req.HazardClass)
	if hazard != itad.Hazardous && hazard != itad.NonHazardous {
		writeError(w, http.StatusBadRequest, "hazard_class must be hazardous or non_hazardous", nil)
		return
	}

	c := itad.WasteCategory{
		ID:           itad.WasteCategoryID(req.ID),
		Name:         req.Name,
		HazardClass:  hazard,
		WEEECategory: req.WEEECategory,
	}
	if err := h.Store.SaveWasteCategory(r.Context(), c); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

// ListWasteCategories returns all waste classifications.
func (h *Handler) ListWasteCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Store.ListWasteCategories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// CreateRecoveryMethod registers a recovery method.
func (h *Handler) CreateRecoveryMethod(w http.ResponseWriter, r *http.Request) {
	var req CreateRecoveryMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	mt := itad.MethodType(req.MethodType)
	switch mt {
	case itad.MethodReuse, itad.MethodRecycle, itad.MethodRecovery, itad.MethodLandfill, itad.MethodIncineration:
	default:
		writeError(w, http.StatusBadRequest, "unknown method_type", nil)
		return
	}

	m := itad.RecoveryMethod{
		ID:         itad.RecoveryMethodID(req.ID),
		Name:       req.Name,
		MethodType: mt,
	}
	if err := h.Store.SaveRecoveryMethod(r.Context(), m); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

// ListRecoveryMethods returns all recovery methods.
func (h *Handler) ListRecoveryMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.Store.ListRecoveryMethods(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, methods)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// domainStatus maps the core's error taxonomy onto an HTTP status and a
// short message.
func domainStatus(err error) (int, string) {
	switch {
	case itad.IsNotFound(err):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, itad.ErrPreconditionFailed) ||
		errors.Is(err, itad.ErrInvalidTransition) ||
		errors.Is(err, itad.ErrBatchCompleted):
		return http.StatusUnprocessableEntity, "Operation rejected"
	case itad.IsClientError(err):
		return http.StatusBadRequest, "Invalid input"
	case itad.IsConflict(err):
		return http.StatusConflict, "Conflict"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, message := domainStatus(err)
	writeError(w, status, message, err)
}
