/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements itad.Store using SQLite. In production, the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The esg_events table has INSERT and SELECT statements only. No UPDATE,
  no DELETE. Corrections are compensating events.

VERSION CHECKS:
  harvesting_batches and revenue_settlements carry a version column.
  Updates run as
    UPDATE ... WHERE id = ? AND version = ?
  and report ErrConcurrentModification when no row matched, so a
  concurrent read-compute-write sequence cannot silently overwrite a
  newer write.

KEY TABLES:
  assets, components, component_sales:     Disposition inventory
  harvesting_batches, harvesting_items:    Cost allocation inputs/outputs
  projects, revenue_settlements:           Revenue sharing
  esg_events:                              Append-only disposition ledger
  waste_categories, recovery_methods:      Classification lookups

NUMERIC STORAGE:
  Money, weight, and percentage columns are TEXT holding exact decimal
  strings; they are parsed back through shopspring/decimal so no value
  ever round-trips through a float.

WAL MODE:
  The database is opened with WAL for better concurrency and crash
  recovery.

USAGE:
  store, err := sqlite.New("./data/recovery.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - itad/store.go: Interface definitions
  - itad/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/recovery-engine/itad"
)

// Store implements itad.Store using SQLite.
type Store struct {
	db *sql.DB
}

var _ itad.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		service_fee TEXT NOT NULL,
		revenue_share_percentage TEXT NOT NULL,
		revenue_share_threshold TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		project_id TEXT,
		serial_number TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL,
		selling_price TEXT NOT NULL,
		received_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assets_project
		ON assets(project_id);
	CREATE INDEX IF NOT EXISTS idx_assets_project_status
		ON assets(project_id, status);

	CREATE TABLE IF NOT EXISTS components (
		id TEXT PRIMARY KEY,
		source_asset_id TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_components_source_asset
		ON components(source_asset_id);

	CREATE TABLE IF NOT EXISTS component_sales (
		component_id TEXT NOT NULL,
		sale_price TEXT NOT NULL,
		sold_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_component_sales_component
		ON component_sales(component_id);

	CREATE TABLE IF NOT EXISTS harvesting_batches (
		id TEXT PRIMARY KEY,
		source_asset_id TEXT NOT NULL,
		total_cost_to_allocate TEXT NOT NULL,
		allocation_method TEXT NOT NULL DEFAULT '',
		completed INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS harvesting_items (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		weight_kg TEXT NOT NULL,
		market_value_at_harvest TEXT NOT NULL,
		allocated_percentage TEXT NOT NULL,
		allocated_cost TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_harvesting_items_batch
		ON harvesting_items(batch_id, position);

	CREATE TABLE IF NOT EXISTS revenue_settlements (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		settlement_date TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		asset_sales_revenue TEXT NOT NULL,
		component_sales_revenue TEXT NOT NULL,
		scrap_revenue TEXT NOT NULL,
		total_gross_revenue TEXT NOT NULL,
		revenue_subject_to_share TEXT NOT NULL,
		customer_revenue_share TEXT NOT NULL,
		service_fee_amount TEXT NOT NULL,
		our_net_revenue TEXT NOT NULL,
		assets_received INTEGER NOT NULL,
		assets_refurbished INTEGER NOT NULL,
		assets_harvested INTEGER NOT NULL,
		payment_status TEXT NOT NULL,
		approved_by TEXT NOT NULL DEFAULT '',
		approved_at TEXT NOT NULL DEFAULT '',
		paid_at TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL DEFAULT '',
		payment_ref TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_settlements_project
		ON revenue_settlements(project_id);

	-- Append-only disposition ledger. No UPDATE or DELETE is ever issued
	-- against this table.
	CREATE TABLE IF NOT EXISTS esg_events (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		source_type TEXT NOT NULL,
		source_id TEXT NOT NULL,
		waste_category_id TEXT NOT NULL,
		recovery_method_id TEXT NOT NULL,
		weight_kg TEXT NOT NULL,
		carbon_estimate_kg TEXT NOT NULL,
		circularity_score TEXT NOT NULL,
		complies_with_json TEXT NOT NULL DEFAULT '[]',
		downstream_vendor TEXT NOT NULL DEFAULT '',
		certificate_ref TEXT NOT NULL DEFAULT '',
		event_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_esg_events_company_date
		ON esg_events(company_id, event_date);

	CREATE TABLE IF NOT EXISTS waste_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		hazard_class TEXT NOT NULL,
		weee_category TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS recovery_methods (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		method_type TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// VALUE MAPPING HELPERS
// =============================================================================

const timeLayout = time.RFC3339Nano

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func decodeDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeTags(s string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil
	}
	return tags
}

// =============================================================================
// ASSETS
// =============================================================================

const assetColumns = `id, project_id, serial_number, description, status, selling_price, received_at, created_at`

func (s *Store) SaveAsset(ctx context.Context, a itad.Asset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.ID), string(a.ProjectID), a.SerialNumber, a.Description,
		string(a.Status), a.SellingPrice.Value.String(),
		encodeTime(a.ReceivedAt), encodeTime(a.CreatedAt))
	return err
}

func (s *Store) SaveAssets(ctx context.Context, assets []itad.Asset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range assets {
		if _, err := stmt.ExecContext(ctx,
			string(a.ID), string(a.ProjectID), a.SerialNumber, a.Description,
			string(a.Status), a.SellingPrice.Value.String(),
			encodeTime(a.ReceivedAt), encodeTime(a.CreatedAt)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanAsset(row interface{ Scan(...any) error }) (itad.Asset, error) {
	var a itad.Asset
	var id, projectID, status, price, receivedAt, createdAt string
	if err := row.Scan(&id, &projectID, &a.SerialNumber, &a.Description, &status, &price, &receivedAt, &createdAt); err != nil {
		return itad.Asset{}, err
	}
	a.ID = itad.AssetID(id)
	a.ProjectID = itad.ProjectID(projectID)
	a.Status = itad.AssetStatus(status)
	a.SellingPrice = itad.Money{Value: decodeDecimal(price)}
	a.ReceivedAt = decodeTime(receivedAt)
	a.CreatedAt = decodeTime(createdAt)
	return a, nil
}

func (s *Store) GetAsset(ctx context.Context, id itad.AssetID) (*itad.Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, string(id))
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) listAssets(ctx context.Context, query string, args ...any) ([]itad.Asset, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []itad.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (s *Store) ListAssetsByProject(ctx context.Context, projectID itad.ProjectID) ([]itad.Asset, error) {
	return s.listAssets(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE project_id = ? ORDER BY created_at`,
		string(projectID))
}

func (s *Store) ListAssetsByProjectAndStatus(ctx context.Context, projectID itad.ProjectID, status itad.AssetStatus) ([]itad.Asset, error) {
	return s.listAssets(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE project_id = ? AND status = ? ORDER BY created_at`,
		string(projectID), string(status))
}

// =============================================================================
// COMPONENTS
// =============================================================================

func (s *Store) SaveComponent(ctx context.Context, c itad.Component) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO components (id, source_asset_id, description, created_at)
		VALUES (?, ?, ?, ?)`,
		string(c.ID), string(c.SourceAssetID), c.Description, encodeTime(c.CreatedAt))
	return err
}

func (s *Store) GetComponent(ctx context.Context, id itad.ComponentID) (*itad.Component, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_asset_id, description, created_at
		FROM components WHERE id = ?`, string(id))

	var c itad.Component
	var cid, sourceAssetID, createdAt string
	err := row.Scan(&cid, &sourceAssetID, &c.Description, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.ID = itad.ComponentID(cid)
	c.SourceAssetID = itad.AssetID(sourceAssetID)
	c.CreatedAt = decodeTime(createdAt)
	return &c, nil
}

func (s *Store) SaveComponentSale(ctx context.Context, sale itad.ComponentSale) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO component_sales (component_id, sale_price, sold_at)
		VALUES (?, ?, ?)`,
		string(sale.ComponentID), sale.SalePrice.Value.String(), encodeTime(sale.SoldAt))
	return err
}

// ListComponentSalesForProject resolves the sale -> component -> source
// asset -> project chain inside the database.
func (s *Store) ListComponentSalesForProject(ctx context.Context, projectID itad.ProjectID) ([]itad.ComponentSaleForProject, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cs.component_id, cs.sale_price, cs.sold_at, c.source_asset_id, a.project_id
		FROM component_sales cs
		JOIN components c ON c.id = cs.component_id
		JOIN assets a ON a.id = c.source_asset_id
		WHERE a.project_id = ?
		ORDER BY cs.sold_at`, string(projectID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []itad.ComponentSaleForProject
	for rows.Next() {
		var componentID, price, soldAt, sourceAssetID, pid string
		if err := rows.Scan(&componentID, &price, &soldAt, &sourceAssetID, &pid); err != nil {
			return nil, err
		}
		result = append(result, itad.ComponentSaleForProject{
			Sale: itad.ComponentSale{
				ComponentID: itad.ComponentID(componentID),
				SalePrice:   itad.Money{Value: decodeDecimal(price)},
				SoldAt:      decodeTime(soldAt),
			},
			SourceAssetID: itad.AssetID(sourceAssetID),
			ProjectID:     itad.ProjectID(pid),
		})
	}
	return result, rows.Err()
}

// =============================================================================
// HARVESTING
// =============================================================================

func (s *Store) SaveBatch(ctx context.Context, b itad.HarvestingBatch) error {
	completed := 0
	if b.Completed {
		completed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO harvesting_batches
			(id, source_asset_id, total_cost_to_allocate, allocation_method, completed, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(b.ID), string(b.SourceAssetID), b.TotalCostToAllocate.Value.String(),
		string(b.AllocationMethod), completed, b.Version, encodeTime(b.CreatedAt))
	return err
}

func (s *Store) GetBatch(ctx context.Context, id itad.BatchID) (*itad.HarvestingBatch, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_asset_id, total_cost_to_allocate, allocation_method, completed, version, created_at
		FROM harvesting_batches WHERE id = ?`, string(id))

	var b itad.HarvestingBatch
	var bid, sourceAssetID, totalCost, method, createdAt string
	var completed int
	err := row.Scan(&bid, &sourceAssetID, &totalCost, &method, &completed, &b.Version, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.ID = itad.BatchID(bid)
	b.SourceAssetID = itad.AssetID(sourceAssetID)
	b.TotalCostToAllocate = itad.Money{Value: decodeDecimal(totalCost)}
	b.AllocationMethod = itad.AllocationMethod(method)
	b.Completed = completed != 0
	b.CreatedAt = decodeTime(createdAt)
	return &b, nil
}

func (s *Store) UpdateBatch(ctx context.Context, b itad.HarvestingBatch) error {
	completed := 0
	if b.Completed {
		completed = 1
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE harvesting_batches
		SET total_cost_to_allocate = ?, allocation_method = ?, completed = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		b.TotalCostToAllocate.Value.String(), string(b.AllocationMethod), completed,
		string(b.ID), b.Version)
	if err != nil {
		return err
	}
	return s.checkBatchUpdate(ctx, res, b.ID)
}

func (s *Store) checkBatchUpdate(ctx context.Context, res sql.Result, id itad.BatchID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		existing, err := s.GetBatch(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return itad.ErrBatchNotFound
		}
		return itad.ErrConcurrentModification
	}
	return nil
}

func (s *Store) AddItem(ctx context.Context, item itad.HarvestingItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO harvesting_items
			(id, batch_id, weight_kg, market_value_at_harvest, allocated_percentage, allocated_cost, position)
		VALUES (?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM harvesting_items WHERE batch_id = ?))`,
		string(item.ID), string(item.BatchID), item.WeightKg.Value.String(),
		item.MarketValueAtHarvest.Value.String(), item.AllocatedPercentage.Value.String(),
		item.AllocatedCost.Value.String(), string(item.BatchID))
	return err
}

func (s *Store) ListItems(ctx context.Context, batchID itad.BatchID) ([]itad.HarvestingItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, weight_kg, market_value_at_harvest, allocated_percentage, allocated_cost
		FROM harvesting_items WHERE batch_id = ? ORDER BY position`, string(batchID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []itad.HarvestingItem
	for rows.Next() {
		var item itad.HarvestingItem
		var id, bid, weight, value, pct, cost string
		if err := rows.Scan(&id, &bid, &weight, &value, &pct, &cost); err != nil {
			return nil, err
		}
		item.ID = itad.ComponentID(id)
		item.BatchID = itad.BatchID(bid)
		item.WeightKg = itad.Weight{Value: decodeDecimal(weight)}
		item.MarketValueAtHarvest = itad.Money{Value: decodeDecimal(value)}
		item.AllocatedPercentage = itad.Percent{Value: decodeDecimal(pct)}
		item.AllocatedCost = itad.Money{Value: decodeDecimal(cost)}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItemAllocations writes allocation results and the method in one
// database transaction; the version check on the batch row guards the
// whole write.
func (s *Store) UpdateItemAllocations(ctx context.Context, batchID itad.BatchID, method itad.AllocationMethod, items []itad.HarvestingItem, version int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE harvesting_batches
		SET allocation_method = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		string(method), string(batchID), version)
	if err != nil {
		return err
	}
	if err := s.checkBatchUpdate(ctx, res, batchID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE harvesting_items
		SET allocated_percentage = ?, allocated_cost = ?
		WHERE id = ? AND batch_id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx,
			item.AllocatedPercentage.Value.String(), item.AllocatedCost.Value.String(),
			string(item.ID), string(batchID)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// PROJECTS
// =============================================================================

func (s *Store) SaveProject(ctx context.Context, p itad.Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO projects
			(id, company_id, name, service_fee, revenue_share_percentage, revenue_share_threshold, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(p.ID), string(p.CompanyID), p.Name, p.ServiceFee.Value.String(),
		p.RevenueSharePercentage.Value.String(), p.RevenueShareThreshold.Value.String(),
		encodeTime(p.CreatedAt))
	return err
}

func (s *Store) GetProject(ctx context.Context, id itad.ProjectID) (*itad.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, service_fee, revenue_share_percentage, revenue_share_threshold, created_at
		FROM projects WHERE id = ?`, string(id))
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProject(row interface{ Scan(...any) error }) (itad.Project, error) {
	var p itad.Project
	var id, companyID, fee, pct, threshold, createdAt string
	if err := row.Scan(&id, &companyID, &p.Name, &fee, &pct, &threshold, &createdAt); err != nil {
		return itad.Project{}, err
	}
	p.ID = itad.ProjectID(id)
	p.CompanyID = itad.CompanyID(companyID)
	p.ServiceFee = itad.Money{Value: decodeDecimal(fee)}
	p.RevenueSharePercentage = itad.Percent{Value: decodeDecimal(pct)}
	p.RevenueShareThreshold = itad.Money{Value: decodeDecimal(threshold)}
	p.CreatedAt = decodeTime(createdAt)
	return p, nil
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

const settlementColumns = `id, project_id, settlement_date, period_start, period_end,
	asset_sales_revenue, component_sales_revenue, scrap_revenue, total_gross_revenue,
	revenue_subject_to_share, customer_revenue_share, service_fee_amount, our_net_revenue,
	assets_received, assets_refurbished, assets_harvested,
	payment_status, approved_by, approved_at, paid_at, payment_method, payment_ref,
	version, created_at`

func (s *Store) InsertSettlement(ctx context.Context, st itad.RevenueSettlement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revenue_settlements (`+settlementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(st.ID), string(st.ProjectID), encodeTime(st.SettlementDate),
		encodeTime(st.PeriodStart), encodeTime(st.PeriodEnd),
		st.AssetSalesRevenue.Value.String(), st.ComponentSalesRevenue.Value.String(),
		st.ScrapRevenue.Value.String(), st.TotalGrossRevenue.Value.String(),
		st.RevenueSubjectToShare.Value.String(), st.CustomerRevenueShare.Value.String(),
		st.ServiceFeeAmount.Value.String(), st.OurNetRevenue.Value.String(),
		st.AssetsReceived, st.AssetsRefurbished, st.AssetsHarvested,
		string(st.PaymentStatus), st.ApprovedBy, encodeTime(st.ApprovedAt),
		encodeTime(st.PaidAt), st.PaymentMethod, st.PaymentRef,
		st.Version, encodeTime(st.CreatedAt))
	return err
}

func scanSettlement(row interface{ Scan(...any) error }) (itad.RevenueSettlement, error) {
	var st itad.RevenueSettlement
	var (
		id, projectID, settlementDate, periodStart, periodEnd      string
		assetRev, componentRev, scrapRev, totalRev, subject, share string
		fee, net, status, approvedAt, paidAt, createdAt            string
	)
	if err := row.Scan(&id, &projectID, &settlementDate, &periodStart, &periodEnd,
		&assetRev, &componentRev, &scrapRev, &totalRev,
		&subject, &share, &fee, &net,
		&st.AssetsReceived, &st.AssetsRefurbished, &st.AssetsHarvested,
		&status, &st.ApprovedBy, &approvedAt, &paidAt, &st.PaymentMethod, &st.PaymentRef,
		&st.Version, &createdAt); err != nil {
		return itad.RevenueSettlement{}, err
	}
	st.ID = itad.SettlementID(id)
	st.ProjectID = itad.ProjectID(projectID)
	st.SettlementDate = decodeTime(settlementDate)
	st.PeriodStart = decodeTime(periodStart)
	st.PeriodEnd = decodeTime(periodEnd)
	st.AssetSalesRevenue = itad.Money{Value: decodeDecimal(assetRev)}
	st.ComponentSalesRevenue = itad.Money{Value: decodeDecimal(componentRev)}
	st.ScrapRevenue = itad.Money{Value: decodeDecimal(scrapRev)}
	st.TotalGrossRevenue = itad.Money{Value: decodeDecimal(totalRev)}
	st.RevenueSubjectToShare = itad.Money{Value: decodeDecimal(subject)}
	st.CustomerRevenueShare = itad.Money{Value: decodeDecimal(share)}
	st.ServiceFeeAmount = itad.Money{Value: decodeDecimal(fee)}
	st.OurNetRevenue = itad.Money{Value: decodeDecimal(net)}
	st.PaymentStatus = itad.PaymentStatus(status)
	st.ApprovedAt = decodeTime(approvedAt)
	st.PaidAt = decodeTime(paidAt)
	st.CreatedAt = decodeTime(createdAt)
	return st, nil
}

func (s *Store) GetSettlement(ctx context.Context, id itad.SettlementID) (*itad.RevenueSettlement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM revenue_settlements WHERE id = ?`, string(id))
	st, err := scanSettlement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) GetSettlementWithProject(ctx context.Context, id itad.SettlementID) (*itad.SettlementWithProject, error) {
	st, err := s.GetSettlement(ctx, id)
	if err != nil || st == nil {
		return nil, err
	}
	project, err := s.GetProject(ctx, st.ProjectID)
	if err != nil {
		return nil, err
	}
	result := &itad.SettlementWithProject{Settlement: *st}
	if project != nil {
		result.Project = *project
	}
	return result, nil
}

func (s *Store) UpdateSettlement(ctx context.Context, st itad.RevenueSettlement) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE revenue_settlements
		SET payment_status = ?, approved_by = ?, approved_at = ?,
			paid_at = ?, payment_method = ?, payment_ref = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		string(st.PaymentStatus), st.ApprovedBy, encodeTime(st.ApprovedAt),
		encodeTime(st.PaidAt), st.PaymentMethod, st.PaymentRef,
		string(st.ID), st.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		existing, err := s.GetSettlement(ctx, st.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return itad.ErrSettlementNotFound
		}
		return itad.ErrConcurrentModification
	}
	return nil
}

func (s *Store) ListSettlementsByProject(ctx context.Context, projectID itad.ProjectID) ([]itad.RevenueSettlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+settlementColumns+` FROM revenue_settlements WHERE project_id = ? ORDER BY created_at`,
		string(projectID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []itad.RevenueSettlement
	for rows.Next() {
		st, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

// =============================================================================
// ESG EVENTS - Append-only
// =============================================================================

func (s *Store) AppendEvent(ctx context.Context, e itad.ESGEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO esg_events
			(id, company_id, source_type, source_id, waste_category_id, recovery_method_id,
			 weight_kg, carbon_estimate_kg, circularity_score, complies_with_json,
			 downstream_vendor, certificate_ref, event_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID), string(e.CompanyID), string(e.SourceType), e.SourceID,
		string(e.WasteCategoryID), string(e.RecoveryMethodID),
		e.WeightKg.Value.String(), e.CarbonEstimateKg.Value.String(),
		e.CircularityScore.Value.String(), encodeTags(e.CompliesWith),
		e.DownstreamVendor, e.CertificateRef,
		encodeTime(e.EventDate), encodeTime(e.CreatedAt))
	return err
}

func (s *Store) QueryEvents(ctx context.Context, f itad.EventFilter) ([]itad.ESGEvent, error) {
	query := `
		SELECT id, company_id, source_type, source_id, waste_category_id, recovery_method_id,
			weight_kg, carbon_estimate_kg, circularity_score, complies_with_json,
			downstream_vendor, certificate_ref, event_date, created_at
		FROM esg_events
		WHERE company_id = ? AND event_date >= ? AND event_date <= ?`
	args := []any{string(f.CompanyID), encodeTime(f.From), encodeTime(f.To)}

	if f.SourceType != nil {
		query += ` AND source_type = ?`
		args = append(args, string(*f.SourceType))
	}
	if f.WasteCategoryID != nil {
		query += ` AND waste_category_id = ?`
		args = append(args, string(*f.WasteCategoryID))
	}
	query += ` ORDER BY event_date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []itad.ESGEvent
	for rows.Next() {
		var e itad.ESGEvent
		var id, companyID, sourceType, categoryID, methodID string
		var weight, carbon, score, tags, eventDate, createdAt string
		if err := rows.Scan(&id, &companyID, &sourceType, &e.SourceID, &categoryID, &methodID,
			&weight, &carbon, &score, &tags,
			&e.DownstreamVendor, &e.CertificateRef, &eventDate, &createdAt); err != nil {
			return nil, err
		}
		e.ID = itad.EventID(id)
		e.CompanyID = itad.CompanyID(companyID)
		e.SourceType = itad.SourceType(sourceType)
		e.WasteCategoryID = itad.WasteCategoryID(categoryID)
		e.RecoveryMethodID = itad.RecoveryMethodID(methodID)
		e.WeightKg = itad.Weight{Value: decodeDecimal(weight)}
		e.CarbonEstimateKg = itad.Weight{Value: decodeDecimal(carbon)}
		e.CircularityScore = itad.Percent{Value: decodeDecimal(score)}
		e.CompliesWith = decodeTags(tags)
		e.EventDate = decodeTime(eventDate)
		e.CreatedAt = decodeTime(createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

func (s *Store) SaveWasteCategory(ctx context.Context, c itad.WasteCategory) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO waste_categories (id, name, hazard_class, weee_category)
		VALUES (?, ?, ?, ?)`,
		string(c.ID), c.Name, string(c.HazardClass), c.WEEECategory)
	return err
}

func (s *Store) ListWasteCategories(ctx context.Context) ([]itad.WasteCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, hazard_class, weee_category FROM waste_categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []itad.WasteCategory
	for rows.Next() {
		var c itad.WasteCategory
		var id, hazard string
		if err := rows.Scan(&id, &c.Name, &hazard, &c.WEEECategory); err != nil {
			return nil, err
		}
		c.ID = itad.WasteCategoryID(id)
		c.HazardClass = itad.HazardClass(hazard)
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) SaveRecoveryMethod(ctx context.Context, m itad.RecoveryMethod) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO recovery_methods (id, name, method_type)
		VALUES (?, ?, ?)`,
		string(m.ID), m.Name, string(m.MethodType))
	return err
}

func (s *Store) ListRecoveryMethods(ctx context.Context) ([]itad.RecoveryMethod, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, method_type FROM recovery_methods ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []itad.RecoveryMethod
	for rows.Next() {
		var m itad.RecoveryMethod
		var id, mt string
		if err := rows.Scan(&id, &m.Name, &mt); err != nil {
			return nil, err
		}
		m.ID = itad.RecoveryMethodID(id)
		m.MethodType = itad.MethodType(mt)
		result = append(result, m)
	}
	return result, rows.Err()
}
