// Package register_repo provides PostgreSQL implementations for register
// repositories.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
	"gestoc/internal/domain/registers/batch"
	"gestoc/internal/infrastructure/storage/postgres"
)

const batchesTable = "reg_batches"

var batchColumns = []string{
	"id", "company_id", "product_id", "warehouse_id",
	"purchase_date", "purchase_price",
	"initial_quantity", "remaining_quantity",
	"expiry_date", "batch_no", "reference_document", "created_at",
}

var _ batch.Repository = (*BatchRepo)(nil)

// BatchRepo implements batch.Repository.
type BatchRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewBatchRepo creates a new batch ledger repository.
func NewBatchRepo(txManager *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new batch row.
func (r *BatchRepo) Create(ctx context.Context, b *batch.Batch) error {
	q := r.builder.Insert(batchesTable).
		Columns(batchColumns...).
		Values(
			b.ID, b.CompanyID, b.ProductID, b.WarehouseID,
			b.PurchaseDate, b.PurchasePrice,
			b.InitialQuantity, b.RemainingQuantity,
			b.ExpiryDate, b.BatchNo, b.ReferenceDocument, b.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	return nil
}

// GetByID retrieves a batch by ID.
func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"id": batchID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b batch.Batch
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", batchID.String())
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}

	return &b, nil
}

// orderClause maps the consume order onto a deterministic sort: purchase
// date, then id. UUIDv7 ids are time-ordered, so equal purchase dates break
// on insertion sequence.
func orderClause(order batch.ConsumeOrder) []string {
	if order == batch.OrderNewestFirst {
		return []string{"purchase_date DESC", "id DESC"}
	}
	return []string{"purchase_date ASC", "id ASC"}
}

// ListEligible returns batches with remaining stock, ordered per the consume
// order.
func (r *BatchRepo) ListEligible(ctx context.Context, warehouseID, productID id.ID, order batch.ConsumeOrder, cutoff *time.Time) ([]batch.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{
			"warehouse_id": warehouseID,
			"product_id":   productID,
		}).
		Where(squirrel.Gt{"remaining_quantity": int64(0)})

	if cutoff != nil {
		q = q.Where(squirrel.Lt{"purchase_date": *cutoff})
	}

	q = q.OrderBy(orderClause(order)...)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []batch.Batch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}

	return batches, nil
}

// ListEligibleForUpdate is ListEligible with row locks for a consuming
// transaction.
func (r *BatchRepo) ListEligibleForUpdate(ctx context.Context, warehouseID, productID id.ID, order batch.ConsumeOrder) ([]batch.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{
			"warehouse_id": warehouseID,
			"product_id":   productID,
		}).
		Where(squirrel.Gt{"remaining_quantity": int64(0)}).
		OrderBy(orderClause(order)...).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []batch.Batch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches for update: %w", err)
	}

	return batches, nil
}

// UpdateRemaining sets a batch's remaining quantity.
func (r *BatchRepo) UpdateRemaining(ctx context.Context, batchID id.ID, remaining types.Quantity) error {
	q := r.builder.Update(batchesTable).
		Set("remaining_quantity", remaining).
		Where(squirrel.Eq{"id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("batch", batchID.String())
	}

	return nil
}

// SumRemaining totals remaining quantity over all batches of the pair.
func (r *BatchRepo) SumRemaining(ctx context.Context, warehouseID, productID id.ID) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(SUM(remaining_quantity), 0)
		FROM reg_batches
		WHERE warehouse_id = $1 AND product_id = $2
	`

	var sumScaled int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, warehouseID, productID).Scan(&sumScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum remaining: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(sumScaled), nil
}
