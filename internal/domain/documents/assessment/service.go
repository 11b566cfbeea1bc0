package assessment

import (
	"context"
	"fmt"
	"time"

	"gestoc/internal/core/apperror"
	appctx "gestoc/internal/core/context"
	"gestoc/internal/core/id"
	"gestoc/internal/core/tx"
	"gestoc/internal/core/types"
	"gestoc/internal/domain"
	"gestoc/internal/domain/audit"
	"gestoc/internal/domain/costing"
	"gestoc/internal/domain/ledger"
	"gestoc/internal/domain/registers/batch"
	"gestoc/internal/domain/registers/stock"
	"gestoc/internal/domain/registers/valuation"
	"gestoc/internal/domain/warehouse"
	"gestoc/pkg/logger"
	"gestoc/pkg/numerator"
)

// Service drives the physical count workflow. Initialization freezes book
// quantities from the stock register, counting records actuals per item, and
// finalization applies surplus/deficit differences to stock and posts the
// variance journal for depozit warehouses.
type Service struct {
	repo       Repository
	warehouses warehouse.Directory
	engine     *costing.Engine
	batches    *batch.Ledger
	stocks     *stock.Service
	valuations *valuation.Service
	sink       ledger.Sink
	numerator  *numerator.Service
	txManager  tx.ReadOnlyManager
	auditor    *audit.Recorder
	publisher  domain.Publisher // optional
}

// NewService creates a new assessment service.
func NewService(
	repo Repository,
	warehouses warehouse.Directory,
	engine *costing.Engine,
	batches *batch.Ledger,
	stocks *stock.Service,
	valuations *valuation.Service,
	sink ledger.Sink,
	num *numerator.Service,
	txManager tx.ReadOnlyManager,
	auditor *audit.Recorder,
	publisher domain.Publisher,
) *Service {
	return &Service{
		repo:       repo,
		warehouses: warehouses,
		engine:     engine,
		batches:    batches,
		stocks:     stocks,
		valuations: valuations,
		sink:       sink,
		numerator:  num,
		txManager:  txManager,
		auditor:    auditor,
		publisher:  publisher,
	}
}

// Create persists a new draft assessment. The document number is generated
// when empty.
func (s *Service) Create(ctx context.Context, doc *Assessment) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if _, err := s.resolveWarehouse(ctx, doc.WarehouseID); err != nil {
		return err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	s.auditor.Record(ctx, audit.ActionCreate, "assessment", doc.ID, map[string]any{
		"number": doc.Number,
	})

	logger.Info(ctx, "assessment created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves an assessment with its count sheet.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Assessment, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items

	return doc, nil
}

// Update modifies a draft assessment header.
func (s *Service) Update(ctx context.Context, doc *Assessment) error {
	if !doc.CanModify() {
		return apperror.NewStateConflict("update", string(doc.Status))
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if _, err := s.resolveWarehouse(ctx, doc.WarehouseID); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, doc); err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	s.auditor.Record(ctx, audit.ActionUpdate, "assessment", doc.ID, nil)
	return nil
}

// Delete soft-deletes a draft assessment.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if !doc.CanModify() {
		return apperror.NewStateConflict("delete", string(doc.Status))
	}

	return s.repo.Delete(ctx, docID)
}

// Initialize seeds the count sheet from current warehouse stock and moves
// the document to in_progress. Book quantities and values are frozen at this
// moment: the sheet holds one item per product with positive stock, valued
// under the document's costing method. An empty warehouse yields an empty
// sheet, which is still a valid count. Seeding and the status transition
// commit atomically, so a second call finds the document already
// in_progress and fails the transition, never duplicating items.
func (s *Service) Initialize(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if doc.Status != StatusDraft {
		return apperror.NewStateConflict("initialize", string(doc.Status)).
			WithDetail("document_id", doc.ID.String())
	}

	wh, err := s.resolveWarehouse(ctx, doc.WarehouseID)
	if err != nil {
		return err
	}

	// Book quantities and values for the whole sheet must come from one
	// consistent snapshot.
	var items []Item
	err = s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		balances, err := s.stocks.GetWarehouseStock(ctx, doc.WarehouseID)
		if err != nil {
			return fmt.Errorf("read warehouse stock: %w", err)
		}

		items = make([]Item, 0, len(balances))
		for i, bal := range balances {
			bookValue, err := s.bookValue(ctx, doc, wh, bal)
			if err != nil {
				return fmt.Errorf("value product %s: %w", bal.ProductID, err)
			}

			items = append(items, Item{
				ItemID:             id.New(),
				LineNo:             i + 1,
				ProductID:          bal.ProductID,
				AccountingQuantity: bal.Quantity,
				AccountingValue:    bookValue,
				ActualValue:        types.ZeroMoney(),
				DifferenceValue:    types.ZeroMoney(),
				ResultType:         ResultMatch,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.InsertItems(ctx, doc.ID, items); err != nil {
			return fmt.Errorf("insert items: %w", err)
		}
		if err := doc.Start(); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.ActionUpdate, "assessment", doc.ID, map[string]any{
		"number":     doc.Number,
		"item_count": len(items),
	})

	logger.Info(ctx, "assessment initialized",
		"id", doc.ID,
		"number", doc.Number,
		"item_count", len(items),
	)

	return nil
}

// bookValue values one balance for the count sheet. Batch-tracked warehouses
// are valued through the costing engine under the document's method; the
// rest use the aggregate's average cost.
func (s *Service) bookValue(ctx context.Context, doc *Assessment, wh *warehouse.Warehouse, bal stock.Balance) (types.Money, error) {
	if wh.Type.TracksBatches() {
		sv, err := s.engine.CalculateStockValue(ctx, doc.WarehouseID, bal.ProductID, doc.ValuationMethod, nil)
		if err != nil {
			return types.ZeroMoney(), err
		}
		return sv.Value, nil
	}
	return bal.TotalValue(), nil
}

// RecordCount stores one counted quantity. Allowed only while the document
// is in_progress; counting the same item again overwrites the previous
// entry.
func (s *Service) RecordCount(ctx context.Context, docID, itemID id.ID, actual types.Quantity, notes *string) error {
	if actual.IsNegative() {
		return apperror.NewValidation("counted quantity cannot be negative").
			WithDetail("itemId", itemID.String())
	}

	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if !doc.CanRecordCount() {
		return apperror.NewStateConflict("record_count", string(doc.Status))
	}

	item := doc.FindItem(itemID)
	if item == nil {
		return apperror.NewNotFound("assessment item", itemID.String())
	}

	item.RecordCount(actual, appctx.GetUserID(ctx), notes)

	if err := s.repo.UpdateItem(ctx, docID, item); err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	logger.Debug(ctx, "count recorded",
		"document_id", docID,
		"product_id", item.ProductID,
		"result", string(item.ResultType),
	)

	return nil
}

// SubmitForApproval moves a fully counted sheet to pending_approval.
func (s *Service) SubmitForApproval(ctx context.Context, docID id.ID) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if err := doc.SubmitForApproval(); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, doc); err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	s.auditor.Record(ctx, audit.ActionUpdate, "assessment", doc.ID, map[string]any{
		"status": string(doc.Status),
	})

	return nil
}

// Approve records acceptance of the count results by the responsible person.
func (s *Service) Approve(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if err := doc.Approve(); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, doc); err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	s.auditor.Record(ctx, audit.ActionApprove, "assessment", doc.ID, map[string]any{
		"number": doc.Number,
	})

	return nil
}

// Finalize applies every surplus and deficit to stock, posts the variance
// journal for depozit warehouses, and closes the document. Each item is
// applied in its own transaction and marked processed, so a failure midway
// leaves a partially processed document that can be finalized again; already
// processed items are skipped on retry. The closing status transition and
// the posting share the last transaction: a rejected posting leaves the
// document open.
func (s *Service) Finalize(ctx context.Context, docID id.ID) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if doc.Status != StatusPendingApproval && doc.Status != StatusApproved {
		return apperror.NewStateConflict("finalize", string(doc.Status)).
			WithDetail("document_id", doc.ID.String())
	}

	wh, err := s.resolveWarehouse(ctx, doc.WarehouseID)
	if err != nil {
		return err
	}

	for i := range doc.Items {
		item := &doc.Items[i]
		if !item.HasDifference() || item.IsProcessed {
			continue
		}

		err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.processItem(ctx, doc, wh, item)
		})
		if err != nil {
			return fmt.Errorf("item %d (product %s): %w", item.LineNo, item.ProductID, err)
		}
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if tmpl, ok := ledger.TemplateFor(wh.Type); ok {
			lines := tmpl.VarianceLines(doc.ID, doc.Date, doc.Currency, doc.TotalSurplusValue, doc.TotalDeficitValue)
			if len(lines) > 0 {
				if err := s.sink.Post(ctx, lines); err != nil {
					return apperror.NewPostingFailed(doc.ID.String(), err)
				}
			}
		}

		if err := doc.MarkFinalized(); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, domain.Event{
				AggregateType: "assessment",
				AggregateID:   doc.ID,
				EventType:     "AssessmentFinalized",
				Payload: map[string]any{
					"number":       doc.Number,
					"warehouseId":  doc.WarehouseID,
					"surplusValue": doc.TotalSurplusValue,
					"deficitValue": doc.TotalDeficitValue,
				},
			}); err != nil {
				return fmt.Errorf("publish event: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.ActionFinalize, "assessment", doc.ID, map[string]any{
		"number":        doc.Number,
		"surplus_value": doc.TotalSurplusValue,
		"deficit_value": doc.TotalDeficitValue,
	})

	logger.Info(ctx, "assessment finalized",
		"id", doc.ID,
		"number", doc.Number,
		"warehouse_type", string(wh.Type),
	)

	return nil
}

// processItem applies one item's difference to the stock register and, for
// batch-tracked warehouses, to the batch ledger, then marks it processed.
func (s *Service) processItem(ctx context.Context, doc *Assessment, wh *warehouse.Warehouse, item *Item) error {
	switch item.ResultType {
	case ResultDeficit:
		if err := s.applyDeficit(ctx, doc, wh, item); err != nil {
			return err
		}
	case ResultSurplus:
		if err := s.applySurplus(ctx, doc, wh, item); err != nil {
			return err
		}
	default:
		return nil
	}

	if wh.Type.TracksBatches() {
		batchSum, err := s.batches.TotalRemaining(ctx, doc.WarehouseID, item.ProductID)
		if err != nil {
			return fmt.Errorf("sum batch remainders: %w", err)
		}
		if err := s.stocks.VerifyConservation(ctx, doc.WarehouseID, item.ProductID, batchSum); err != nil {
			return err
		}

		bal, err := s.stocks.GetBalance(ctx, doc.WarehouseID, item.ProductID)
		if err != nil {
			return err
		}
		if _, err := s.valuations.Record(ctx, valuation.RecordInput{
			CompanyID:         doc.CompanyID,
			ProductID:         item.ProductID,
			WarehouseID:       doc.WarehouseID,
			Method:            string(doc.ValuationMethod),
			Quantity:          bal.Quantity,
			UnitValue:         bal.AvgUnitCost,
			TotalValue:        bal.TotalValue(),
			ValuationDate:     doc.Date,
			ReferenceDocument: doc.Number,
		}); err != nil {
			return err
		}
	}

	item.IsProcessed = true
	if err := s.repo.UpdateItem(ctx, doc.ID, item); err != nil {
		return fmt.Errorf("mark item processed: %w", err)
	}

	return nil
}

// applyDeficit removes the missing quantity. Batch-tracked warehouses drain
// lots oldest-first so lot records stay aligned with the aggregate even
// under weighted average; the rest decrement the aggregate directly. A
// deficit larger than booked stock means the register moved after approval
// and aborts finalization.
func (s *Service) applyDeficit(ctx context.Context, doc *Assessment, wh *warehouse.Warehouse, item *Item) error {
	missing := item.DifferenceQuantity.Abs()

	if wh.Type.TracksBatches() {
		method := doc.ValuationMethod
		if !method.UsesBatchOrder() {
			method = costing.MethodFIFO
		}

		result, err := s.engine.ConsumeStock(ctx, doc.WarehouseID, item.ProductID, missing, method)
		if err != nil {
			return err
		}
		if !result.Success() {
			return apperror.NewInsufficientStock(
				item.ProductID.String(),
				missing.Float64(),
				result.ConsumedQuantity.Float64(),
			)
		}
		return nil
	}

	if _, err := s.stocks.AdjustQuantity(ctx, doc.WarehouseID, item.ProductID, -missing); err != nil {
		return err
	}
	return nil
}

// applySurplus adds the found quantity. Batch-tracked warehouses open a new
// lot at the unit book price so the surplus participates in later costing;
// the rest increase the aggregate directly.
func (s *Service) applySurplus(ctx context.Context, doc *Assessment, wh *warehouse.Warehouse, item *Item) error {
	found := item.DifferenceQuantity

	if wh.Type.TracksBatches() {
		if _, err := s.batches.CreateBatch(ctx, batch.CreateInput{
			CompanyID:         doc.CompanyID,
			ProductID:         item.ProductID,
			WarehouseID:       doc.WarehouseID,
			PurchaseDate:      doc.Date,
			PurchasePrice:     item.UnitBookPrice(),
			Quantity:          found,
			ReferenceDocument: doc.Number,
		}); err != nil {
			return err
		}
	}

	if _, err := s.stocks.AdjustQuantity(ctx, doc.WarehouseID, item.ProductID, found); err != nil {
		return err
	}
	return nil
}

// Cancel abandons a count from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if err := doc.Cancel(); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, doc); err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	s.auditor.Record(ctx, audit.ActionCancel, "assessment", doc.ID, map[string]any{
		"number": doc.Number,
	})

	logger.Info(ctx, "assessment cancelled", "id", doc.ID, "number", doc.Number)
	return nil
}

// List retrieves assessments with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Assessment], error) {
	return s.repo.List(ctx, filter)
}

// resolveWarehouse loads the warehouse and rejects unknown types.
func (s *Service) resolveWarehouse(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	wh, err := s.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("resolve warehouse: %w", err)
	}
	if _, err := stock.PolicyFor(wh.Type); err != nil {
		return nil, err
	}
	return wh, nil
}
