package stock

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
	"gestoc/internal/domain/warehouse"
)

type pairKey struct {
	warehouseID id.ID
	productID   id.ID
}

// memRepo is an in-memory Repository used by service tests.
type memRepo struct {
	balances map[pairKey]Balance
}

func newMemRepo() *memRepo {
	return &memRepo{balances: make(map[pairKey]Balance)}
}

func (r *memRepo) GetBalance(_ context.Context, warehouseID, productID id.ID) (Balance, error) {
	if bal, ok := r.balances[pairKey{warehouseID, productID}]; ok {
		return bal, nil
	}
	return Balance{
		WarehouseID:  warehouseID,
		ProductID:    productID,
		AvgUnitCost:  types.ZeroMoney(),
		SellingPrice: types.ZeroMoney(),
	}, nil
}

func (r *memRepo) GetBalanceForUpdate(ctx context.Context, warehouseID, productID id.ID) (Balance, error) {
	return r.GetBalance(ctx, warehouseID, productID)
}

func (r *memRepo) Upsert(_ context.Context, bal Balance) error {
	r.balances[pairKey{bal.WarehouseID, bal.ProductID}] = bal
	return nil
}

func (r *memRepo) ListByWarehouse(_ context.Context, warehouseID id.ID, excludeZero bool) ([]Balance, error) {
	var out []Balance
	for key, bal := range r.balances {
		if key.warehouseID != warehouseID {
			continue
		}
		if excludeZero && bal.Quantity.IsZero() {
			continue
		}
		out = append(out, bal)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out, nil
}

func TestApplyReceiptPersistsBalance(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	warehouseID, productID := id.New(), id.New()

	bal, err := svc.ApplyReceipt(context.Background(), warehouse.TypeDepozit,
		warehouseID, productID, ReceiptLine{
			Quantity:  types.NewQuantityFromInt(10),
			UnitPrice: types.MustMoney("2.50"),
		})
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantityFromInt(10), bal.Quantity)
	assert.False(t, bal.LastMovementAt.IsZero())

	stored, err := svc.GetBalance(context.Background(), warehouseID, productID)
	require.NoError(t, err)
	assert.Equal(t, bal.Quantity, stored.Quantity)
}

func TestApplyReceiptRejectsNonPositiveQuantity(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.ApplyReceipt(context.Background(), warehouse.TypeDepozit,
		id.New(), id.New(), ReceiptLine{Quantity: 0})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestAdjustQuantityGuardsNegativeStock(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	warehouseID, productID := id.New(), id.New()

	_, err := svc.ApplyReceipt(context.Background(), warehouse.TypeDepozit,
		warehouseID, productID, ReceiptLine{
			Quantity:  types.NewQuantityFromInt(5),
			UnitPrice: types.MustMoney("1"),
		})
	require.NoError(t, err)

	_, err = svc.AdjustQuantity(context.Background(), warehouseID, productID,
		types.NewQuantityFromInt(-6))
	assert.True(t, apperror.IsInsufficientStock(err))

	// Guard rejected the write, quantity unchanged.
	bal, err := svc.GetBalance(context.Background(), warehouseID, productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(5), bal.Quantity)

	// Draining exactly to zero is allowed.
	bal, err = svc.AdjustQuantity(context.Background(), warehouseID, productID,
		types.NewQuantityFromInt(-5))
	require.NoError(t, err)
	assert.True(t, bal.Quantity.IsZero())
}

func TestVerifyConservation(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	warehouseID, productID := id.New(), id.New()

	_, err := svc.ApplyReceipt(context.Background(), warehouse.TypeDepozit,
		warehouseID, productID, ReceiptLine{
			Quantity:  types.NewQuantityFromInt(7),
			UnitPrice: types.MustMoney("1"),
		})
	require.NoError(t, err)

	assert.NoError(t, svc.VerifyConservation(context.Background(),
		warehouseID, productID, types.NewQuantityFromInt(7)))

	err = svc.VerifyConservation(context.Background(),
		warehouseID, productID, types.NewQuantityFromInt(6))
	assert.True(t, apperror.IsCode(err, apperror.CodeConsistencyViolation))
}

func TestGetWarehouseStockExcludesZeroRows(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	warehouseID := id.New()

	stocked, drained := id.New(), id.New()
	for _, productID := range []id.ID{stocked, drained} {
		_, err := svc.ApplyReceipt(context.Background(), warehouse.TypeDepozit,
			warehouseID, productID, ReceiptLine{
				Quantity:  types.NewQuantityFromInt(3),
				UnitPrice: types.MustMoney("1"),
			})
		require.NoError(t, err)
	}

	_, err := svc.AdjustQuantity(context.Background(), warehouseID, drained,
		types.NewQuantityFromInt(-3))
	require.NoError(t, err)

	balances, err := svc.GetWarehouseStock(context.Background(), warehouseID)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, stocked, balances[0].ProductID)
}
