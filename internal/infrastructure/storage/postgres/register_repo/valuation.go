package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gestoc/internal/core/id"
	"gestoc/internal/domain/registers/valuation"
	"gestoc/internal/infrastructure/storage/postgres"
)

const valuationsTable = "reg_valuations"

var valuationColumns = []string{
	"id", "company_id", "product_id", "warehouse_id",
	"method", "quantity", "unit_value", "total_value",
	"valuation_date", "reference_document", "created_at",
}

var _ valuation.Repository = (*ValuationRepo)(nil)

// ValuationRepo implements valuation.Repository. The table is append-only.
type ValuationRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewValuationRepo creates a new valuation history repository.
func NewValuationRepo(txManager *postgres.TxManager) *ValuationRepo {
	return &ValuationRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts a valuation record.
func (r *ValuationRepo) Append(ctx context.Context, v *valuation.Valuation) error {
	q := r.builder.Insert(valuationsTable).
		Columns(valuationColumns...).
		Values(
			v.ID, v.CompanyID, v.ProductID, v.WarehouseID,
			v.Method, v.Quantity, v.UnitValue, v.TotalValue,
			v.ValuationDate, v.ReferenceDocument, v.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert valuation: %w", err)
	}

	return nil
}

// ListByProduct returns history for the pair, newest first.
func (r *ValuationRepo) ListByProduct(ctx context.Context, warehouseID, productID id.ID, filter valuation.ListFilter) ([]valuation.Valuation, error) {
	q := r.builder.Select(valuationColumns...).
		From(valuationsTable).
		Where(squirrel.Eq{
			"warehouse_id": warehouseID,
			"product_id":   productID,
		})

	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"valuation_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"valuation_date": *filter.ToDate})
	}
	if filter.Method != nil {
		q = q.Where(squirrel.Eq{"method": *filter.Method})
	}

	q = q.OrderBy("valuation_date DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var records []valuation.Valuation
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &records, sql, args...); err != nil {
		return nil, fmt.Errorf("select valuations: %w", err)
	}

	return records, nil
}
