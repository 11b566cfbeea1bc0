package postgres

import (
	"context"
	"fmt"
	"time"

	"gestoc/internal/core/id"
	"gestoc/internal/domain/ledger"
)

var _ ledger.Sink = (*JournalStore)(nil)

// JournalStore is the database-backed ledger sink. Lines land in
// fin_journal_lines on the caller's transaction, so a failed insert rolls
// the triggering document transition back with it.
type JournalStore struct {
	txManager *TxManager
}

// NewJournalStore creates a new journal store.
func NewJournalStore(txManager *TxManager) *JournalStore {
	return &JournalStore{txManager: txManager}
}

// Post validates and inserts the lines as one batch.
func (s *JournalStore) Post(ctx context.Context, lines []ledger.JournalLine) error {
	if len(lines) == 0 {
		return nil
	}

	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return err
		}
	}

	tx := s.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("journal post requires transaction context")
	}

	queries := make([]BatchQuery, 0, len(lines))
	now := time.Now().UTC()
	for _, line := range lines {
		queries = append(queries, BatchQuery{
			SQL: `
				INSERT INTO fin_journal_lines (
					id, debit_account, credit_account, amount,
					reference_id, date, currency, created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`,
			Args: []any{
				id.New(), line.DebitAccount, line.CreditAccount, line.Amount,
				line.ReferenceID, line.Date, line.Currency, now,
			},
		})
	}

	inserter := NewBatchInserter(s.txManager)
	if err := inserter.ExecuteBatch(ctx, queries); err != nil {
		return fmt.Errorf("insert journal lines: %w", err)
	}

	return nil
}
