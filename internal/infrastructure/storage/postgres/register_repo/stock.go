package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
	"gestoc/internal/domain/registers/stock"
	"gestoc/internal/infrastructure/storage/postgres"
)

const stockBalancesTable = "reg_stock_balances"

var stockColumns = []string{
	"warehouse_id", "product_id",
	"quantity", "avg_unit_cost", "selling_price",
	"last_movement_at", "updated_at",
}

var _ stock.Repository = (*StockRepo)(nil)

// StockRepo implements stock.Repository over the aggregate balance table.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// emptyBalance is the zero-quantity row returned when the pair has never
// moved.
func emptyBalance(warehouseID, productID id.ID) stock.Balance {
	return stock.Balance{
		WarehouseID:  warehouseID,
		ProductID:    productID,
		AvgUnitCost:  types.ZeroMoney(),
		SellingPrice: types.ZeroMoney(),
	}
}

// GetBalance returns the current balance, zero-quantity when absent.
func (r *StockRepo) GetBalance(ctx context.Context, warehouseID, productID id.ID) (stock.Balance, error) {
	q := r.builder.Select(stockColumns...).
		From(stockBalancesTable).
		Where(squirrel.Eq{
			"warehouse_id": warehouseID,
			"product_id":   productID,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return stock.Balance{}, fmt.Errorf("build query: %w", err)
	}

	var bal stock.Balance
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &bal, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return emptyBalance(warehouseID, productID), nil
		}
		return stock.Balance{}, fmt.Errorf("get balance: %w", err)
	}

	return bal, nil
}

// GetBalanceForUpdate returns the balance with a row lock. Must run inside a
// transaction.
func (r *StockRepo) GetBalanceForUpdate(ctx context.Context, warehouseID, productID id.ID) (stock.Balance, error) {
	sql := `
		SELECT warehouse_id, product_id, quantity, avg_unit_cost, selling_price,
		       last_movement_at, updated_at
		FROM reg_stock_balances
		WHERE warehouse_id = $1 AND product_id = $2
		FOR UPDATE
	`

	var bal stock.Balance
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &bal, sql, warehouseID, productID); err != nil {
		if pgxscan.NotFound(err) {
			return emptyBalance(warehouseID, productID), nil
		}
		return stock.Balance{}, fmt.Errorf("get balance for update: %w", err)
	}

	return bal, nil
}

// Upsert writes the balance row.
func (r *StockRepo) Upsert(ctx context.Context, bal stock.Balance) error {
	sql := `
		INSERT INTO reg_stock_balances (
			warehouse_id, product_id, quantity, avg_unit_cost, selling_price,
			last_movement_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (warehouse_id, product_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			avg_unit_cost = EXCLUDED.avg_unit_cost,
			selling_price = EXCLUDED.selling_price,
			last_movement_at = EXCLUDED.last_movement_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql,
		bal.WarehouseID, bal.ProductID,
		bal.Quantity, bal.AvgUnitCost, bal.SellingPrice,
		bal.LastMovementAt, bal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}

	return nil
}

// ListByWarehouse returns balances for a warehouse ordered by product.
func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID id.ID, excludeZero bool) ([]stock.Balance, error) {
	q := r.builder.Select(stockColumns...).
		From(stockBalancesTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID})

	if excludeZero {
		q = q.Where(squirrel.NotEq{"quantity": int64(0)})
	}

	q = q.OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []stock.Balance
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}

	return balances, nil
}
