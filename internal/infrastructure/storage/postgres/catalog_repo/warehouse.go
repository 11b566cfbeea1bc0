// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/domain/warehouse"
	"gestoc/internal/infrastructure/storage/postgres"
)

const warehousesTable = "cat_warehouses"

var _ warehouse.Directory = (*WarehouseRepo)(nil)

// WarehouseRepo implements warehouse.Directory plus the write operations the
// seeding tool uses.
type WarehouseRepo struct {
	txManager  *postgres.TxManager
	builder    squirrel.StatementBuilderType
	selectCols []string
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		txManager:  txManager,
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[warehouse.Warehouse](),
	}
}

// Create inserts a warehouse.
func (r *WarehouseRepo) Create(ctx context.Context, wh *warehouse.Warehouse) error {
	data := postgres.StructToMap(wh)

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	sql, args, err := r.builder.
		Insert(warehousesTable).
		SetMap(filteredData).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert warehouse: %w", err)
	}

	return nil
}

// GetByID retrieves a warehouse by ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	sql, args, err := r.builder.
		Select(r.selectCols...).
		From(warehousesTable).
		Where(squirrel.Eq{"id": warehouseID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var wh warehouse.Warehouse
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &wh, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("warehouse", warehouseID.String())
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}

	return &wh, nil
}

// GetByCode retrieves a warehouse by its code.
func (r *WarehouseRepo) GetByCode(ctx context.Context, code string) (*warehouse.Warehouse, error) {
	sql, args, err := r.builder.
		Select(r.selectCols...).
		From(warehousesTable).
		Where(squirrel.Eq{"code": code}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var wh warehouse.Warehouse
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &wh, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("warehouse", code)
		}
		return nil, fmt.Errorf("get warehouse by code: %w", err)
	}

	return &wh, nil
}

// Exists checks whether a warehouse with the given ID exists.
func (r *WarehouseRepo) Exists(ctx context.Context, warehouseID id.ID) (bool, error) {
	sql := "SELECT EXISTS(SELECT 1 FROM cat_warehouses WHERE id = $1 AND deletion_mark = false)"

	var exists bool
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, warehouseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check warehouse exists: %w", err)
	}

	return exists, nil
}

// List retrieves active warehouses ordered by code.
func (r *WarehouseRepo) List(ctx context.Context) ([]warehouse.Warehouse, error) {
	sql, args, err := r.builder.
		Select(r.selectCols...).
		From(warehousesTable).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var warehouses []warehouse.Warehouse
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &warehouses, sql, args...); err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}

	return warehouses, nil
}
