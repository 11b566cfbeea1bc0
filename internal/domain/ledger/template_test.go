package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
	"gestoc/internal/domain/warehouse"
)

func TestTemplateForOnlyDepozitPosts(t *testing.T) {
	_, ok := TemplateFor(warehouse.TypeDepozit)
	assert.True(t, ok)

	for _, whType := range []warehouse.Type{
		warehouse.TypeMagazin,
		warehouse.TypeCustodie,
		warehouse.TypeTransfer,
	} {
		_, ok := TemplateFor(whType)
		assert.False(t, ok, string(whType))
	}
}

func TestReceiptLines(t *testing.T) {
	tmpl, ok := TemplateFor(warehouse.TypeDepozit)
	require.True(t, ok)

	refID := id.New()
	date := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	lines := tmpl.ReceiptLines(refID, date, "RON",
		types.MustMoney("100"), types.MustMoney("19"))
	require.Len(t, lines, 2)

	assert.Equal(t, AccountMerchandise, lines[0].DebitAccount)
	assert.Equal(t, AccountSuppliers, lines[0].CreditAccount)
	assert.True(t, types.MustMoney("100").Equal(lines[0].Amount))

	assert.Equal(t, AccountDeductibleVAT, lines[1].DebitAccount)
	assert.Equal(t, AccountSuppliers, lines[1].CreditAccount)
	assert.True(t, types.MustMoney("19").Equal(lines[1].Amount))

	for _, line := range lines {
		assert.Equal(t, refID, line.ReferenceID)
		assert.Equal(t, "RON", line.Currency)
		assert.NoError(t, line.Validate())
	}
}

func TestReceiptLinesZeroVAT(t *testing.T) {
	tmpl, _ := TemplateFor(warehouse.TypeDepozit)

	lines := tmpl.ReceiptLines(id.New(), time.Now(), "RON",
		types.MustMoney("50"), types.ZeroMoney())
	require.Len(t, lines, 1)
	assert.Equal(t, AccountMerchandise, lines[0].DebitAccount)
}

func TestVarianceLines(t *testing.T) {
	tmpl, _ := TemplateFor(warehouse.TypeDepozit)
	refID := id.New()
	now := time.Now()

	both := tmpl.VarianceLines(refID, now, "RON",
		types.MustMoney("20"), types.MustMoney("12"))
	require.Len(t, both, 2)
	assert.Equal(t, AccountMerchandise, both[0].DebitAccount)
	assert.Equal(t, AccountSurplusIncome, both[0].CreditAccount)
	assert.Equal(t, AccountDeficitExpense, both[1].DebitAccount)
	assert.Equal(t, AccountMerchandise, both[1].CreditAccount)

	surplusOnly := tmpl.VarianceLines(refID, now, "RON",
		types.MustMoney("20"), types.ZeroMoney())
	require.Len(t, surplusOnly, 1)
	assert.Equal(t, AccountSurplusIncome, surplusOnly[0].CreditAccount)

	deficitOnly := tmpl.VarianceLines(refID, now, "RON",
		types.ZeroMoney(), types.MustMoney("12"))
	require.Len(t, deficitOnly, 1)
	assert.Equal(t, AccountDeficitExpense, deficitOnly[0].DebitAccount)

	none := tmpl.VarianceLines(refID, now, "RON",
		types.ZeroMoney(), types.ZeroMoney())
	assert.Empty(t, none)
}

func TestJournalLineValidate(t *testing.T) {
	valid := JournalLine{
		DebitAccount:  AccountMerchandise,
		CreditAccount: AccountSuppliers,
		Amount:        types.MustMoney("10"),
		ReferenceID:   id.New(),
		Date:          time.Now(),
		Currency:      "RON",
	}
	assert.NoError(t, valid.Validate())

	missingAccount := valid
	missingAccount.DebitAccount = ""
	assert.True(t, apperror.IsCode(missingAccount.Validate(), apperror.CodeValidation))

	negative := valid
	negative.Amount = types.MustMoney("-1")
	assert.True(t, apperror.IsCode(negative.Validate(), apperror.CodeValidation))

	noRef := valid
	noRef.ReferenceID = id.Nil()
	assert.True(t, apperror.IsCode(noRef.Validate(), apperror.CodeValidation))
}
