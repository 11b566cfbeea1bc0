package receipt

import (
	"context"
	"fmt"
	"time"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/core/tx"
	"gestoc/internal/domain"
	"gestoc/internal/domain/audit"
	"gestoc/internal/domain/ledger"
	"gestoc/internal/domain/registers/batch"
	"gestoc/internal/domain/registers/stock"
	"gestoc/internal/domain/registers/valuation"
	"gestoc/internal/domain/warehouse"
	"gestoc/pkg/logger"
	"gestoc/pkg/numerator"
)

// Service is the goods-receipt processor. Approval creates batches and stock
// increases per warehouse-type rules and, for depozit warehouses, posts the
// mandatory journal entry atomically with the status transition.
type Service struct {
	repo       Repository
	warehouses warehouse.Directory
	batches    *batch.Ledger
	stocks     *stock.Service
	valuations *valuation.Service
	sink       ledger.Sink
	numerator  *numerator.Service
	txManager  tx.Manager
	auditor    *audit.Recorder
	publisher  domain.Publisher // optional
}

// NewService creates a new receipt service.
func NewService(
	repo Repository,
	warehouses warehouse.Directory,
	batches *batch.Ledger,
	stocks *stock.Service,
	valuations *valuation.Service,
	sink ledger.Sink,
	num *numerator.Service,
	txManager tx.Manager,
	auditor *audit.Recorder,
	publisher domain.Publisher,
) *Service {
	return &Service{
		repo:       repo,
		warehouses: warehouses,
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

// Create persists a new draft NIR. The document number is generated when
// empty.
func (s *Service) Create(ctx context.Context, doc *Receipt) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if err := s.validateWarehouse(ctx, doc); err != nil {
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

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.ActionCreate, "receipt", doc.ID, map[string]any{
		"number": doc.Number,
	})

	logger.Info(ctx, "receipt created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves a receipt with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Receipt, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// Update modifies a draft receipt.
func (s *Service) Update(ctx context.Context, doc *Receipt) error {
	if err := doc.CanModify(); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if err := s.validateWarehouse(ctx, doc); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.ActionUpdate, "receipt", doc.ID, nil)
	return nil
}

// Delete soft-deletes a draft receipt.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if err := doc.CanModify(); err != nil {
		return err
	}

	return s.repo.Delete(ctx, docID)
}

// Approve runs the receipt pipeline: per-line batch creation and stock
// policy application, conservation check, valuation snapshots, and the
// depozit-only ledger posting. Everything happens in one transaction; a
// rejected posting rolls the whole approval back and the document stays in
// draft.
func (s *Service) Approve(ctx context.Context, docID id.ID) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if doc.Status != StatusDraft {
		return apperror.NewStateConflict("approve", string(doc.Status)).
			WithDetail("document_id", doc.ID.String())
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	wh, err := s.warehouses.GetByID(ctx, doc.WarehouseID)
	if err != nil {
		return fmt.Errorf("resolve warehouse: %w", err)
	}
	if !wh.CanAcceptStock() {
		return apperror.NewValidation("warehouse cannot accept stock").
			WithDetail("warehouseId", wh.ID.String())
	}

	policy, err := stock.PolicyFor(wh.Type)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for i := range doc.Lines {
			if err := s.processLine(ctx, doc, wh, policy, &doc.Lines[i]); err != nil {
				return fmt.Errorf("line %d: %w", doc.Lines[i].LineNo, err)
			}
		}

		if tmpl, ok := ledger.TemplateFor(wh.Type); ok {
			lines := tmpl.ReceiptLines(doc.ID, doc.Date, doc.Currency, doc.TotalNet, doc.TotalVAT)
			if err := s.sink.Post(ctx, lines); err != nil {
				return apperror.NewPostingFailed(doc.ID.String(), err)
			}
		}

		if err := doc.MarkApproved(); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, domain.Event{
				AggregateType: "receipt",
				AggregateID:   doc.ID,
				EventType:     "ReceiptApproved",
				Payload:       map[string]any{"number": doc.Number, "warehouseId": doc.WarehouseID},
			}); err != nil {
				return fmt.Errorf("publish event: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.ActionApprove, "receipt", doc.ID, map[string]any{
		"number":         doc.Number,
		"warehouse_id":   doc.WarehouseID,
		"total_gross":    doc.TotalGross,
		"line_count":     len(doc.Lines),
		"warehouse_type": string(wh.Type),
	})

	logger.Info(ctx, "receipt approved",
		"id", doc.ID,
		"number", doc.Number,
		"warehouse_type", string(wh.Type),
	)

	return nil
}

// processLine applies one line to the batch ledger and stock aggregate.
func (s *Service) processLine(ctx context.Context, doc *Receipt, wh *warehouse.Warehouse, policy stock.Policy, line *Line) error {
	if policy.TracksBatches() {
		if _, err := s.batches.CreateBatch(ctx, batch.CreateInput{
			CompanyID:         doc.CompanyID,
			ProductID:         line.ProductID,
			WarehouseID:       doc.WarehouseID,
			PurchaseDate:      doc.Date,
			PurchasePrice:     line.UnitPrice,
			Quantity:          line.Quantity,
			ExpiryDate:        line.ExpiryDate,
			BatchNo:           line.BatchNo,
			ReferenceDocument: doc.Number,
		}); err != nil {
			return err
		}
	}

	bal, err := s.stocks.ApplyReceipt(ctx, wh.Type, doc.WarehouseID, line.ProductID, stock.ReceiptLine{
		Quantity:     line.Quantity,
		UnitPrice:    line.UnitPrice,
		SellingPrice: line.SellingPrice,
	})
	if err != nil {
		return err
	}

	if policy.TracksBatches() {
		batchSum, err := s.batches.TotalRemaining(ctx, doc.WarehouseID, line.ProductID)
		if err != nil {
			return fmt.Errorf("sum batch remainders: %w", err)
		}
		if err := s.stocks.VerifyConservation(ctx, doc.WarehouseID, line.ProductID, batchSum); err != nil {
			return err
		}

		if _, err := s.valuations.Record(ctx, valuation.RecordInput{
			CompanyID:         doc.CompanyID,
			ProductID:         line.ProductID,
			WarehouseID:       doc.WarehouseID,
			Method:            "weighted_average",
			Quantity:          bal.Quantity,
			UnitValue:         bal.AvgUnitCost,
			TotalValue:        bal.TotalValue(),
			ValuationDate:     doc.Date,
			ReferenceDocument: doc.Number,
		}); err != nil {
			return err
		}
	}

	return nil
}

// validateWarehouse resolves the warehouse and rejects unknown types before
// any write.
func (s *Service) validateWarehouse(ctx context.Context, doc *Receipt) error {
	wh, err := s.warehouses.GetByID(ctx, doc.WarehouseID)
	if err != nil {
		return fmt.Errorf("resolve warehouse: %w", err)
	}
	if _, err := stock.PolicyFor(wh.Type); err != nil {
		return err
	}
	return nil
}

// List retrieves receipts with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Receipt], error) {
	return s.repo.List(ctx, filter)
}
