package ledger

import (
	"time"

	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
	"gestoc/internal/domain/warehouse"
)

// Romanian chart-of-accounts codes used by the inventory core's posting
// templates. The chart itself is owned by the accounting module; these are
// the mandatory counterparts of inventory events.
const (
	AccountMerchandise    = "371"  // marfuri
	AccountDeductibleVAT  = "4426" // TVA deductibila
	AccountSuppliers      = "401"  // furnizori
	AccountSurplusIncome  = "758"  // alte venituri din exploatare
	AccountDeficitExpense = "658"  // alte cheltuieli de exploatare
)

// PostingTemplate maps an inventory event onto journal lines.
// TemplateFor is the single authority for the "only depozit posts to the
// ledger" rule; callers never re-derive warehouse type in conditionals.
type PostingTemplate struct {
	warehouseType warehouse.Type
}

// TemplateFor returns the posting template for a warehouse type, or
// ok=false when receipts into that type produce no ledger posting.
func TemplateFor(t warehouse.Type) (*PostingTemplate, bool) {
	if t != warehouse.TypeDepozit {
		return nil, false
	}
	return &PostingTemplate{warehouseType: t}, true
}

// ReceiptLines builds the goods-receipt posting:
// debit merchandise for the net value, debit deductible VAT for the tax
// value, credit suppliers for the gross value.
func (p *PostingTemplate) ReceiptLines(referenceID id.ID, date time.Time, currency string, netValue, vatValue types.Money) []JournalLine {
	lines := []JournalLine{
		{
			DebitAccount:  AccountMerchandise,
			CreditAccount: AccountSuppliers,
			Amount:        netValue,
			ReferenceID:   referenceID,
			Date:          date,
			Currency:      currency,
		},
	}
	if vatValue.IsPositive() {
		lines = append(lines, JournalLine{
			DebitAccount:  AccountDeductibleVAT,
			CreditAccount: AccountSuppliers,
			Amount:        vatValue,
			ReferenceID:   referenceID,
			Date:          date,
			Currency:      currency,
		})
	}
	return lines
}

// VarianceLines builds the physical-count variance posting: surplus value
// credits other operating income, deficit value debits other operating
// expense, both against merchandise.
func (p *PostingTemplate) VarianceLines(referenceID id.ID, date time.Time, currency string, surplusValue, deficitValue types.Money) []JournalLine {
	var lines []JournalLine
	if surplusValue.IsPositive() {
		lines = append(lines, JournalLine{
			DebitAccount:  AccountMerchandise,
			CreditAccount: AccountSurplusIncome,
			Amount:        surplusValue,
			ReferenceID:   referenceID,
			Date:          date,
			Currency:      currency,
		})
	}
	if deficitValue.IsPositive() {
		lines = append(lines, JournalLine{
			DebitAccount:  AccountDeficitExpense,
			CreditAccount: AccountMerchandise,
			Amount:        deficitValue,
			ReferenceID:   referenceID,
			Date:          date,
			Currency:      currency,
		})
	}
	return lines
}
