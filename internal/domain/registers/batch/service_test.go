package batch

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
)

// memRepo is an in-memory Repository used by ledger tests.
type memRepo struct {
	batches []Batch
}

func (r *memRepo) Create(_ context.Context, b *Batch) error {
	r.batches = append(r.batches, *b)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, batchID id.ID) (*Batch, error) {
	for i := range r.batches {
		if r.batches[i].ID == batchID {
			b := r.batches[i]
			return &b, nil
		}
	}
	return nil, apperror.NewNotFound("batch", batchID.String())
}

func (r *memRepo) ListEligible(_ context.Context, warehouseID, productID id.ID, order ConsumeOrder, cutoff *time.Time) ([]Batch, error) {
	var out []Batch
	for _, b := range r.batches {
		if b.WarehouseID != warehouseID || b.ProductID != productID {
			continue
		}
		if !b.RemainingQuantity.IsPositive() {
			continue
		}
		if cutoff != nil && !b.PurchaseDate.Before(*cutoff) {
			continue
		}
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.PurchaseDate.Equal(b.PurchaseDate) {
			if order == OrderNewestFirst {
				return a.PurchaseDate.After(b.PurchaseDate)
			}
			return a.PurchaseDate.Before(b.PurchaseDate)
		}
		cmp := bytes.Compare(a.ID[:], b.ID[:])
		if order == OrderNewestFirst {
			return cmp > 0
		}
		return cmp < 0
	})

	return out, nil
}

func (r *memRepo) ListEligibleForUpdate(ctx context.Context, warehouseID, productID id.ID, order ConsumeOrder) ([]Batch, error) {
	return r.ListEligible(ctx, warehouseID, productID, order, nil)
}

func (r *memRepo) UpdateRemaining(_ context.Context, batchID id.ID, remaining types.Quantity) error {
	for i := range r.batches {
		if r.batches[i].ID == batchID {
			r.batches[i].RemainingQuantity = remaining
			return nil
		}
	}
	return apperror.NewNotFound("batch", batchID.String())
}

func (r *memRepo) SumRemaining(_ context.Context, warehouseID, productID id.ID) (types.Quantity, error) {
	var sum types.Quantity
	for _, b := range r.batches {
		if b.WarehouseID == warehouseID && b.ProductID == productID {
			sum += b.RemainingQuantity
		}
	}
	return sum, nil
}

func date(day int) time.Time {
	return time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
}

func seedLots(t *testing.T, ledger *Ledger, warehouseID, productID id.ID) {
	t.Helper()
	ctx := context.Background()

	// Three lots, oldest to newest: 5 @ 10, 5 @ 12, 5 @ 15.
	for i, price := range []string{"10", "12", "15"} {
		_, err := ledger.CreateBatch(ctx, CreateInput{
			CompanyID:     "co-1",
			ProductID:     productID,
			WarehouseID:   warehouseID,
			PurchaseDate:  date(i + 1),
			PurchasePrice: types.MustMoney(price),
			Quantity:      types.NewQuantityFromInt(5),
		})
		require.NoError(t, err)
	}
}

func TestCreateBatchValidation(t *testing.T) {
	ledger := NewLedger(&memRepo{})
	ctx := context.Background()

	valid := CreateInput{
		ProductID:     id.New(),
		WarehouseID:   id.New(),
		PurchaseDate:  date(1),
		PurchasePrice: types.MustMoney("10"),
		Quantity:      types.NewQuantityFromInt(5),
	}

	cases := []struct {
		name   string
		mutate func(in *CreateInput)
	}{
		{"nil product", func(in *CreateInput) { in.ProductID = id.Nil() }},
		{"nil warehouse", func(in *CreateInput) { in.WarehouseID = id.Nil() }},
		{"zero quantity", func(in *CreateInput) { in.Quantity = 0 }},
		{"negative quantity", func(in *CreateInput) { in.Quantity = types.NewQuantityFromInt(-1) }},
		{"negative price", func(in *CreateInput) { in.PurchasePrice = types.MustMoney("-1") }},
		{"zero date", func(in *CreateInput) { in.PurchaseDate = time.Time{} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, err := ledger.CreateBatch(ctx, in)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		})
	}

	b, err := ledger.CreateBatch(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, b.InitialQuantity, b.RemainingQuantity)
	assert.False(t, id.IsNil(b.ID))
}

func TestConsumeFIFO(t *testing.T) {
	repo := &memRepo{}
	ledger := NewLedger(repo)
	warehouseID, productID := id.New(), id.New()
	seedLots(t, ledger, warehouseID, productID)

	result, err := ledger.Consume(context.Background(), warehouseID, productID,
		types.NewQuantityFromInt(7), OrderOldestFirst)
	require.NoError(t, err)

	assert.True(t, result.Success())
	assert.Equal(t, types.NewQuantityFromInt(7), result.ConsumedQuantity)
	// 5 x 10 + 2 x 12 = 74
	assert.True(t, types.MustMoney("74").Equal(result.ConsumedValue), result.ConsumedValue.String())

	require.Len(t, result.Breakdown, 2)
	assert.Equal(t, types.NewQuantityFromInt(5), result.Breakdown[0].Quantity)
	assert.Equal(t, types.NewQuantityFromInt(2), result.Breakdown[1].Quantity)

	// Oldest lot depleted, middle lot partially drained, newest untouched.
	sum, err := ledger.TotalRemaining(context.Background(), warehouseID, productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(8), sum)
}

func TestConsumeLIFO(t *testing.T) {
	ledger := NewLedger(&memRepo{})
	warehouseID, productID := id.New(), id.New()
	seedLots(t, ledger, warehouseID, productID)

	result, err := ledger.Consume(context.Background(), warehouseID, productID,
		types.NewQuantityFromInt(7), OrderNewestFirst)
	require.NoError(t, err)

	assert.True(t, result.Success())
	// 5 x 15 + 2 x 12 = 99
	assert.True(t, types.MustMoney("99").Equal(result.ConsumedValue), result.ConsumedValue.String())
}

func TestConsumeTieBreaksOnInsertionOrder(t *testing.T) {
	ledger := NewLedger(&memRepo{})
	warehouseID, productID := id.New(), id.New()
	ctx := context.Background()

	// Two lots with the same purchase date; UUIDv7 ids order them by
	// creation time.
	first, err := ledger.CreateBatch(ctx, CreateInput{
		ProductID: productID, WarehouseID: warehouseID,
		PurchaseDate: date(1), PurchasePrice: types.MustMoney("10"),
		Quantity: types.NewQuantityFromInt(5),
	})
	require.NoError(t, err)

	_, err = ledger.CreateBatch(ctx, CreateInput{
		ProductID: productID, WarehouseID: warehouseID,
		PurchaseDate: date(1), PurchasePrice: types.MustMoney("20"),
		Quantity: types.NewQuantityFromInt(5),
	})
	require.NoError(t, err)

	result, err := ledger.Consume(ctx, warehouseID, productID,
		types.NewQuantityFromInt(3), OrderOldestFirst)
	require.NoError(t, err)

	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, first.ID, result.Breakdown[0].BatchID)
}

func TestConsumeInsufficientIsStructuredResult(t *testing.T) {
	ledger := NewLedger(&memRepo{})
	warehouseID, productID := id.New(), id.New()
	seedLots(t, ledger, warehouseID, productID)

	result, err := ledger.Consume(context.Background(), warehouseID, productID,
		types.NewQuantityFromInt(20), OrderOldestFirst)
	require.NoError(t, err)

	assert.False(t, result.Success())
	assert.Equal(t, types.NewQuantityFromInt(15), result.ConsumedQuantity)
	assert.Equal(t, types.NewQuantityFromInt(5), result.RemainingToConsume)

	// Every lot drained to zero, none driven negative.
	sum, err := ledger.TotalRemaining(context.Background(), warehouseID, productID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestConsumeRejectsNonPositiveQuantity(t *testing.T) {
	ledger := NewLedger(&memRepo{})

	_, err := ledger.Consume(context.Background(), id.New(), id.New(), 0, OrderOldestFirst)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = ledger.Consume(context.Background(), id.New(), id.New(),
		types.NewQuantityFromInt(-1), OrderOldestFirst)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestDepletedLotsStayForAudit(t *testing.T) {
	repo := &memRepo{}
	ledger := NewLedger(repo)
	warehouseID, productID := id.New(), id.New()
	seedLots(t, ledger, warehouseID, productID)

	_, err := ledger.Consume(context.Background(), warehouseID, productID,
		types.NewQuantityFromInt(15), OrderOldestFirst)
	require.NoError(t, err)

	// Rows are never deleted, they survive at zero remaining.
	assert.Len(t, repo.batches, 3)
	for _, b := range repo.batches {
		assert.True(t, b.Depleted())
	}
}
