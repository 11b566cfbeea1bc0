// Package ledger defines the journal-entry contract between the inventory
// core and the external general-ledger posting engine.
package ledger

import (
	"context"
	"time"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
)

// JournalLine is one debit/credit pair sent to the ledger sink.
type JournalLine struct {
	DebitAccount  string      `db:"debit_account" json:"debitAccount"`
	CreditAccount string      `db:"credit_account" json:"creditAccount"`
	Amount        types.Money `db:"amount" json:"amount"`
	ReferenceID   id.ID       `db:"reference_id" json:"referenceId"`
	Date          time.Time   `db:"date" json:"date"`
	Currency      string      `db:"currency" json:"currency"`
}

// Validate checks a single line's invariants.
func (l JournalLine) Validate() error {
	if l.DebitAccount == "" || l.CreditAccount == "" {
		return apperror.NewValidation("journal line requires debit and credit accounts")
	}
	if l.Amount.IsNegative() {
		return apperror.NewValidation("journal amount cannot be negative").
			WithDetail("amount", l.Amount.String())
	}
	if id.IsNil(l.ReferenceID) {
		return apperror.NewValidation("journal line requires a reference document").
			WithDetail("field", "referenceId")
	}
	return nil
}

// Sink accepts journal-entry sets. The whole set is a single atomic request:
// implementations must be callable inside the core's storage transaction so
// a rejection rolls the triggering state transition back.
type Sink interface {
	// Post submits the lines as one atomic posting request.
	Post(ctx context.Context, lines []JournalLine) error
}
