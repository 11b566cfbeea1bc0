package assessment

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
	"gestoc/internal/domain"
	"gestoc/internal/domain/audit"
	"gestoc/internal/domain/costing"
	"gestoc/internal/domain/ledger"
	"gestoc/internal/domain/registers/batch"
	"gestoc/internal/domain/registers/stock"
	"gestoc/internal/domain/registers/valuation"
	"gestoc/internal/domain/warehouse"
)

// --- test doubles ---

type memDocRepo struct {
	docs  map[id.ID]Assessment
	items map[id.ID][]Item
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: make(map[id.ID]Assessment), items: make(map[id.ID][]Item)}
}

func (r *memDocRepo) Create(_ context.Context, doc *Assessment) error {
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memDocRepo) GetByID(_ context.Context, docID id.ID) (*Assessment, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("assessment", docID.String())
	}
	doc.Items = nil
	return &doc, nil
}

func (r *memDocRepo) Update(_ context.Context, doc *Assessment) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("assessment", doc.ID.String())
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memDocRepo) Delete(_ context.Context, docID id.ID) error {
	doc, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("assessment", docID.String())
	}
	doc.DeletionMark = true
	r.docs[docID] = doc
	return nil
}

func (r *memDocRepo) GetItems(_ context.Context, docID id.ID) ([]Item, error) {
	return append([]Item(nil), r.items[docID]...), nil
}

func (r *memDocRepo) InsertItems(_ context.Context, docID id.ID, items []Item) error {
	r.items[docID] = append(r.items[docID], items...)
	return nil
}

func (r *memDocRepo) UpdateItem(_ context.Context, docID id.ID, item *Item) error {
	items := r.items[docID]
	for i := range items {
		if items[i].ItemID == item.ItemID {
			items[i] = *item
			return nil
		}
	}
	return apperror.NewNotFound("assessment item", item.ItemID.String())
}

func (r *memDocRepo) List(_ context.Context, filter ListFilter) (domain.ListResult[*Assessment], error) {
	var items []*Assessment
	for docID := range r.docs {
		doc := r.docs[docID]
		if doc.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		items = append(items, &doc)
	}
	return domain.ListResult[*Assessment]{Items: items, TotalCount: int64(len(items))}, nil
}

type memDirectory struct {
	warehouses map[id.ID]*warehouse.Warehouse
}

func (d *memDirectory) GetByID(_ context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	wh, ok := d.warehouses[warehouseID]
	if !ok {
		return nil, apperror.NewNotFound("warehouse", warehouseID.String())
	}
	return wh, nil
}

func (d *memDirectory) Exists(_ context.Context, warehouseID id.ID) (bool, error) {
	_, ok := d.warehouses[warehouseID]
	return ok, nil
}

type memBatchRepo struct {
	batches []batch.Batch
}

func (r *memBatchRepo) Create(_ context.Context, b *batch.Batch) error {
	r.batches = append(r.batches, *b)
	return nil
}

func (r *memBatchRepo) GetByID(_ context.Context, batchID id.ID) (*batch.Batch, error) {
	for i := range r.batches {
		if r.batches[i].ID == batchID {
			b := r.batches[i]
			return &b, nil
		}
	}
	return nil, apperror.NewNotFound("batch", batchID.String())
}

func (r *memBatchRepo) ListEligible(_ context.Context, warehouseID, productID id.ID, order batch.ConsumeOrder, cutoff *time.Time) ([]batch.Batch, error) {
	var out []batch.Batch
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
			if order == batch.OrderNewestFirst {
				return a.PurchaseDate.After(b.PurchaseDate)
			}
			return a.PurchaseDate.Before(b.PurchaseDate)
		}
		cmp := bytes.Compare(a.ID[:], b.ID[:])
		if order == batch.OrderNewestFirst {
			return cmp > 0
		}
		return cmp < 0
	})
	return out, nil
}

func (r *memBatchRepo) ListEligibleForUpdate(ctx context.Context, warehouseID, productID id.ID, order batch.ConsumeOrder) ([]batch.Batch, error) {
	return r.ListEligible(ctx, warehouseID, productID, order, nil)
}

func (r *memBatchRepo) UpdateRemaining(_ context.Context, batchID id.ID, remaining types.Quantity) error {
	for i := range r.batches {
		if r.batches[i].ID == batchID {
			r.batches[i].RemainingQuantity = remaining
			return nil
		}
	}
	return apperror.NewNotFound("batch", batchID.String())
}

func (r *memBatchRepo) SumRemaining(_ context.Context, warehouseID, productID id.ID) (types.Quantity, error) {
	var sum types.Quantity
	for _, b := range r.batches {
		if b.WarehouseID == warehouseID && b.ProductID == productID {
			sum += b.RemainingQuantity
		}
	}
	return sum, nil
}

type pairKey struct {
	warehouseID id.ID
	productID   id.ID
}

type memStockRepo struct {
	balances map[pairKey]stock.Balance
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{balances: make(map[pairKey]stock.Balance)}
}

func (r *memStockRepo) GetBalance(_ context.Context, warehouseID, productID id.ID) (stock.Balance, error) {
	if bal, ok := r.balances[pairKey{warehouseID, productID}]; ok {
		return bal, nil
	}
	return stock.Balance{
		WarehouseID:  warehouseID,
		ProductID:    productID,
		AvgUnitCost:  types.ZeroMoney(),
		SellingPrice: types.ZeroMoney(),
	}, nil
}

func (r *memStockRepo) GetBalanceForUpdate(ctx context.Context, warehouseID, productID id.ID) (stock.Balance, error) {
	return r.GetBalance(ctx, warehouseID, productID)
}

func (r *memStockRepo) Upsert(_ context.Context, bal stock.Balance) error {
	r.balances[pairKey{bal.WarehouseID, bal.ProductID}] = bal
	return nil
}

func (r *memStockRepo) ListByWarehouse(_ context.Context, warehouseID id.ID, excludeZero bool) ([]stock.Balance, error) {
	var out []stock.Balance
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

type memValuationRepo struct {
	records []valuation.Valuation
}

func (r *memValuationRepo) Append(_ context.Context, v *valuation.Valuation) error {
	r.records = append(r.records, *v)
	return nil
}

func (r *memValuationRepo) ListByProduct(_ context.Context, warehouseID, productID id.ID, _ valuation.ListFilter) ([]valuation.Valuation, error) {
	var out []valuation.Valuation
	for _, v := range r.records {
		if v.WarehouseID == warehouseID && v.ProductID == productID {
			out = append(out, v)
		}
	}
	return out, nil
}

type sinkSpy struct {
	posted [][]ledger.JournalLine
	err    error
}

func (s *sinkSpy) Post(_ context.Context, lines []ledger.JournalLine) error {
	if s.err != nil {
		return s.err
	}
	s.posted = append(s.posted, lines)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type env struct {
	service     *Service
	repo        *memDocRepo
	batchRepo   *memBatchRepo
	stockRepo   *memStockRepo
	valRepo     *memValuationRepo
	sink        *sinkSpy
	batches     *batch.Ledger
	stocks      *stock.Service
	warehouseID id.ID
	productID   id.ID
}

// newEnv builds a service over in-memory stores. For depozit warehouses the
// product is seeded with two lots (60 @ 2 and 40 @ 2) and a matching
// aggregate of 100 units at cost 2.
func newEnv(t *testing.T, whType warehouse.Type) *env {
	t.Helper()

	e := &env{
		repo:        newMemDocRepo(),
		batchRepo:   &memBatchRepo{},
		stockRepo:   newMemStockRepo(),
		valRepo:     &memValuationRepo{},
		sink:        &sinkSpy{},
		warehouseID: id.New(),
		productID:   id.New(),
	}

	wh := warehouse.New("co-1", "WH-1", "Test", whType)
	wh.ID = e.warehouseID
	dir := &memDirectory{warehouses: map[id.ID]*warehouse.Warehouse{e.warehouseID: wh}}

	e.batches = batch.NewLedger(e.batchRepo)
	e.stocks = stock.NewService(e.stockRepo)
	engine := costing.NewEngine(e.batches, e.stocks)

	e.service = NewService(
		e.repo,
		dir,
		engine,
		e.batches,
		e.stocks,
		valuation.NewService(e.valRepo),
		e.sink,
		nil,
		passthroughTx{},
		audit.NewRecorder(nil),
		nil,
	)

	ctx := context.Background()
	if whType.TracksBatches() {
		for i, qty := range []int64{60, 40} {
			_, err := e.batches.CreateBatch(ctx, batch.CreateInput{
				CompanyID:     "co-1",
				ProductID:     e.productID,
				WarehouseID:   e.warehouseID,
				PurchaseDate:  time.Date(2026, time.February, i+1, 0, 0, 0, 0, time.UTC),
				PurchasePrice: types.MustMoney("2"),
				Quantity:      types.NewQuantityFromInt(qty),
			})
			require.NoError(t, err)
		}
	}
	require.NoError(t, e.stockRepo.Upsert(ctx, stock.Balance{
		WarehouseID: e.warehouseID,
		ProductID:   e.productID,
		Quantity:    types.NewQuantityFromInt(100),
		AvgUnitCost: types.MustMoney("2"),
	}))

	return e
}

func (e *env) newDoc(t *testing.T, method costing.Method) *Assessment {
	t.Helper()

	doc := New("co-1", e.warehouseID, TypePeriodic, method)
	doc.Number = "INV-2026-00001"
	require.NoError(t, e.service.Create(context.Background(), doc))
	return doc
}

// startCount creates and initializes a document, returning it with the
// seeded count sheet.
func (e *env) startCount(t *testing.T, method costing.Method) *Assessment {
	t.Helper()
	ctx := context.Background()

	doc := e.newDoc(t, method)
	require.NoError(t, e.service.Initialize(ctx, doc.ID))

	loaded, err := e.service.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	return loaded
}

func (e *env) countAndApprove(t *testing.T, doc *Assessment, actual int64) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, e.service.RecordCount(ctx, doc.ID, doc.Items[0].ItemID,
		types.NewQuantityFromInt(actual), nil))
	require.NoError(t, e.service.SubmitForApproval(ctx, doc.ID))
	require.NoError(t, e.service.Approve(ctx, doc.ID))
}

// --- tests ---

func TestInitializeSeedsItemsFromStock(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	ctx := context.Background()

	doc := e.newDoc(t, costing.MethodFIFO)
	require.NoError(t, e.service.Initialize(ctx, doc.ID))

	loaded, err := e.service.GetByID(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusInProgress, loaded.Status)
	require.Len(t, loaded.Items, 1)

	item := loaded.Items[0]
	assert.Equal(t, e.productID, item.ProductID)
	assert.Equal(t, types.NewQuantityFromInt(100), item.AccountingQuantity)
	// 100 units at 2 from the batch ledger.
	assert.True(t, types.MustMoney("200").Equal(item.AccountingValue), item.AccountingValue.String())
	assert.False(t, item.Counted)
}

func TestInitializeTwiceFails(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	ctx := context.Background()

	doc := e.newDoc(t, costing.MethodFIFO)
	require.NoError(t, e.service.Initialize(ctx, doc.ID))

	err := e.service.Initialize(ctx, doc.ID)
	assert.True(t, apperror.IsStateConflict(err))

	loaded, getErr := e.service.GetByID(ctx, doc.ID)
	require.NoError(t, getErr)
	assert.Len(t, loaded.Items, 1)
}

func TestInitializeEmptyWarehouse(t *testing.T) {
	e := newEnv(t, warehouse.TypeMagazin)
	ctx := context.Background()

	// Drain the only balance so the sheet seeds empty.
	_, err := e.stocks.AdjustQuantity(ctx, e.warehouseID, e.productID,
		types.NewQuantityFromInt(-100))
	require.NoError(t, err)

	doc := e.newDoc(t, costing.MethodWeightedAverage)
	require.NoError(t, e.service.Initialize(ctx, doc.ID))

	loaded, err := e.service.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, loaded.Status)
	assert.Empty(t, loaded.Items)
}

func TestRecordCountRequiresInProgress(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	ctx := context.Background()

	doc := e.newDoc(t, costing.MethodFIFO)
	err := e.service.RecordCount(ctx, doc.ID, id.New(), types.NewQuantityFromInt(1), nil)
	assert.True(t, apperror.IsStateConflict(err))
}

func TestRecordCountRejectsNegative(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	doc := e.startCount(t, costing.MethodFIFO)

	err := e.service.RecordCount(context.Background(), doc.ID, doc.Items[0].ItemID,
		types.NewQuantityFromInt(-1), nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRecordCountUnknownItem(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	doc := e.startCount(t, costing.MethodFIFO)

	err := e.service.RecordCount(context.Background(), doc.ID, id.New(),
		types.NewQuantityFromInt(1), nil)
	assert.True(t, apperror.IsNotFound(err))
}

func TestFinalizeSurplusOpensLotAtBookPrice(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	ctx := context.Background()

	doc := e.startCount(t, costing.MethodFIFO)
	e.countAndApprove(t, doc, 110)
	require.NoError(t, e.service.Finalize(ctx, doc.ID))

	loaded, err := e.service.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, loaded.Status)
	assert.True(t, loaded.Items[0].IsProcessed)

	// Surplus lot at the unit book price of 2.
	require.Len(t, e.batchRepo.batches, 3)
	surplusLot := e.batchRepo.batches[2]
	assert.Equal(t, types.NewQuantityFromInt(10), surplusLot.InitialQuantity)
	assert.True(t, types.MustMoney("2").Equal(surplusLot.PurchasePrice))
	assert.Equal(t, doc.Number, surplusLot.ReferenceDocument)

	// Aggregate and lot sum agree at 110.
	bal, err := e.stocks.GetBalance(ctx, e.warehouseID, e.productID)
	require.NoError(t, err)
	sum, err := e.batches.TotalRemaining(ctx, e.warehouseID, e.productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(110), bal.Quantity)
	assert.Equal(t, bal.Quantity, sum)

	// Variance posting: surplus of 10 units x 2 = 20 to other income.
	require.Len(t, e.sink.posted, 1)
	require.Len(t, e.sink.posted[0], 1)
	line := e.sink.posted[0][0]
	assert.Equal(t, ledger.AccountSurplusIncome, line.CreditAccount)
	assert.True(t, types.MustMoney("20").Equal(line.Amount))

	// Post-adjustment valuation snapshot recorded.
	assert.Len(t, e.valRepo.records, 1)
}

func TestFinalizeDeficitDrainsOldestLots(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	ctx := context.Background()

	// Weighted-average document: lots are still drained oldest-first so the
	// ledger stays aligned with the aggregate.
	doc := e.startCount(t, costing.MethodWeightedAverage)
	e.countAndApprove(t, doc, 93)
	require.NoError(t, e.service.Finalize(ctx, doc.ID))

	// 7 units missing come out of the day-1 lot.
	assert.Equal(t, types.NewQuantityFromInt(53), e.batchRepo.batches[0].RemainingQuantity)
	assert.Equal(t, types.NewQuantityFromInt(40), e.batchRepo.batches[1].RemainingQuantity)

	bal, err := e.stocks.GetBalance(ctx, e.warehouseID, e.productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(93), bal.Quantity)

	// Deficit of 7 x 2 = 14 to other expense.
	require.Len(t, e.sink.posted, 1)
	line := e.sink.posted[0][0]
	assert.Equal(t, ledger.AccountDeficitExpense, line.DebitAccount)
	assert.True(t, types.MustMoney("14").Equal(line.Amount))
}

func TestFinalizeMatchPostsNothing(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	ctx := context.Background()

	doc := e.startCount(t, costing.MethodFIFO)
	e.countAndApprove(t, doc, 100)
	require.NoError(t, e.service.Finalize(ctx, doc.ID))

	loaded, err := e.service.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, loaded.Status)
	assert.Empty(t, e.sink.posted)

	bal, err := e.stocks.GetBalance(ctx, e.warehouseID, e.productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), bal.Quantity)
}

func TestFinalizeMagazinAdjustsAggregateOnly(t *testing.T) {
	e := newEnv(t, warehouse.TypeMagazin)
	ctx := context.Background()

	doc := e.startCount(t, costing.MethodWeightedAverage)
	e.countAndApprove(t, doc, 95)
	require.NoError(t, e.service.Finalize(ctx, doc.ID))

	assert.Empty(t, e.batchRepo.batches)
	assert.Empty(t, e.sink.posted)
	assert.Empty(t, e.valRepo.records)

	bal, err := e.stocks.GetBalance(ctx, e.warehouseID, e.productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(95), bal.Quantity)
}

func TestFinalizeDeficitBeyondLotsAborts(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	ctx := context.Background()

	doc := e.startCount(t, costing.MethodFIFO)
	e.countAndApprove(t, doc, 40)

	// Shrink the lots behind the document's back so the deficit of 60 can
	// no longer be covered.
	_, err := e.batches.Consume(ctx, e.warehouseID, e.productID,
		types.NewQuantityFromInt(50), batch.OrderOldestFirst)
	require.NoError(t, err)
	_, err = e.stocks.AdjustQuantity(ctx, e.warehouseID, e.productID,
		types.NewQuantityFromInt(-50))
	require.NoError(t, err)

	err = e.service.Finalize(ctx, doc.ID)
	assert.True(t, apperror.IsInsufficientStock(err))

	loaded, getErr := e.service.GetByID(ctx, doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, StatusApproved, loaded.Status)
	assert.Empty(t, e.sink.posted)
}

func TestFinalizePostingFailureLeavesDocumentOpen(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	e.sink.err = apperror.NewValidation("period closed")
	ctx := context.Background()

	doc := e.startCount(t, costing.MethodFIFO)
	e.countAndApprove(t, doc, 110)

	err := e.service.Finalize(ctx, doc.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodePostingFailed))

	// Items stay processed for retry, but the document is still open.
	loaded, getErr := e.service.GetByID(ctx, doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, StatusApproved, loaded.Status)
	assert.True(t, loaded.Items[0].IsProcessed)

	// Retry after the sink recovers skips the processed item and closes.
	e.sink.err = nil
	require.NoError(t, e.service.Finalize(ctx, doc.ID))

	loaded, getErr = e.service.GetByID(ctx, doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, StatusFinalized, loaded.Status)

	// The stock adjustment was not applied twice.
	bal, balErr := e.stocks.GetBalance(ctx, e.warehouseID, e.productID)
	require.NoError(t, balErr)
	assert.Equal(t, types.NewQuantityFromInt(110), bal.Quantity)
}

func TestFinalizeRequiresApprovalStage(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	doc := e.startCount(t, costing.MethodFIFO)

	err := e.service.Finalize(context.Background(), doc.ID)
	assert.True(t, apperror.IsStateConflict(err))
}

func TestCancelFromInProgress(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	ctx := context.Background()

	doc := e.startCount(t, costing.MethodFIFO)
	require.NoError(t, e.service.Cancel(ctx, doc.ID))

	loaded, err := e.service.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, loaded.Status)

	// Stock untouched.
	bal, err := e.stocks.GetBalance(ctx, e.warehouseID, e.productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), bal.Quantity)
}

func TestSubmitRequiresEveryItemCounted(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	doc := e.startCount(t, costing.MethodFIFO)

	err := e.service.SubmitForApproval(context.Background(), doc.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestDeleteOnlyDrafts(t *testing.T) {
	e := newEnv(t, warehouse.TypeDepozit)
	ctx := context.Background()

	doc := e.startCount(t, costing.MethodFIFO)
	assert.True(t, apperror.IsStateConflict(e.service.Delete(ctx, doc.ID)))

	draft := e.newDoc(t, costing.MethodFIFO)
	assert.NoError(t, e.service.Delete(ctx, draft.ID))
}
