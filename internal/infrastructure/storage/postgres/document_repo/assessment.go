package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/domain"
	"gestoc/internal/domain/documents/assessment"
	"gestoc/internal/infrastructure/storage/postgres"
)

const (
	assessmentsTable     = "doc_assessments"
	assessmentItemsTable = "doc_assessment_items"
)

var assessmentItemColumns = []string{
	"item_id", "line_no", "product_id", "unit_of_measure",
	"accounting_quantity", "accounting_value",
	"actual_quantity", "actual_value",
	"difference_quantity", "difference_value",
	"result_type", "counted", "counted_at", "counted_by",
	"is_processed", "notes",
}

var _ assessment.Repository = (*AssessmentRepo)(nil)

// AssessmentRepo implements assessment.Repository. Count sheets are seeded
// in bulk over COPY; one warehouse can contribute thousands of items.
type AssessmentRepo struct {
	*BaseDocumentRepo[*assessment.Assessment]
	inserter *postgres.BatchInserter
}

// NewAssessmentRepo creates a new assessment repository.
func NewAssessmentRepo(txManager *postgres.TxManager) *AssessmentRepo {
	return &AssessmentRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			assessmentsTable,
			postgres.ExtractDBColumns[assessment.Assessment](),
			func() *assessment.Assessment { return &assessment.Assessment{} },
		),
		inserter: postgres.NewBatchInserter(txManager),
	}
}

// GetItems retrieves count-sheet items ordered by line number.
func (r *AssessmentRepo) GetItems(ctx context.Context, docID id.ID) ([]assessment.Item, error) {
	sql, args, err := r.Builder().
		Select(assessmentItemColumns...).
		From(assessmentItemsTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []assessment.Item
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	return items, nil
}

// InsertItems bulk-inserts the seeded count sheet over COPY. Must run inside
// a transaction.
func (r *AssessmentRepo) InsertItems(ctx context.Context, docID id.ID, items []assessment.Item) error {
	if len(items) == 0 {
		return nil
	}

	columns := append([]string{"document_id"}, assessmentItemColumns...)
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, []any{
			docID,
			item.ItemID, item.LineNo, item.ProductID, item.UnitOfMeasure,
			item.AccountingQuantity, item.AccountingValue,
			item.ActualQuantity, item.ActualValue,
			item.DifferenceQuantity, item.DifferenceValue,
			item.ResultType, item.Counted, item.CountedAt, item.CountedBy,
			item.IsProcessed, item.Notes,
		})
	}

	if _, err := r.inserter.CopyFromSlice(ctx, assessmentItemsTable, columns, rows); err != nil {
		return fmt.Errorf("copy items: %w", err)
	}

	return nil
}

// UpdateItem persists one item's counted values and processed mark.
func (r *AssessmentRepo) UpdateItem(ctx context.Context, docID id.ID, item *assessment.Item) error {
	sql, args, err := r.Builder().
		Update(assessmentItemsTable).
		Set("actual_quantity", item.ActualQuantity).
		Set("actual_value", item.ActualValue).
		Set("difference_quantity", item.DifferenceQuantity).
		Set("difference_value", item.DifferenceValue).
		Set("result_type", item.ResultType).
		Set("counted", item.Counted).
		Set("counted_at", item.CountedAt).
		Set("counted_by", item.CountedBy).
		Set("is_processed", item.IsProcessed).
		Set("notes", item.Notes).
		Where(squirrel.Eq{
			"document_id": docID,
			"item_id":     item.ItemID,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("assessment item", item.ItemID.String())
	}

	return nil
}

// List retrieves assessments with filtering.
func (r *AssessmentRepo) List(ctx context.Context, filter assessment.ListFilter) (domain.ListResult[*assessment.Assessment], error) {
	result := domain.ListResult[*assessment.Assessment]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.AssessmentType != nil {
		q = q.Where(squirrel.Eq{"assessment_type": *filter.AssessmentType})
	}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("date DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}

	return result, nil
}
