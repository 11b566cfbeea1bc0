package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/types"
	"gestoc/internal/domain/warehouse"
)

func TestWeightedAverageRecompute(t *testing.T) {
	bal := Balance{
		Quantity:    types.NewQuantityFromInt(10),
		AvgUnitCost: types.MustMoney("2.00"),
	}

	policy, err := PolicyFor(warehouse.TypeDepozit)
	require.NoError(t, err)

	policy.ApplyReceipt(&bal, ReceiptLine{
		Quantity:  types.NewQuantityFromInt(10),
		UnitPrice: types.MustMoney("4.00"),
	})

	// (10 x 2 + 10 x 4) / 20 = 3
	assert.Equal(t, types.NewQuantityFromInt(20), bal.Quantity)
	assert.True(t, types.MustMoney("3").Equal(bal.AvgUnitCost), bal.AvgUnitCost.String())
}

func TestWeightedAverageFirstReceipt(t *testing.T) {
	bal := Balance{AvgUnitCost: types.ZeroMoney()}

	policy, err := PolicyFor(warehouse.TypeDepozit)
	require.NoError(t, err)

	policy.ApplyReceipt(&bal, ReceiptLine{
		Quantity:  types.NewQuantityFromInt(4),
		UnitPrice: types.MustMoney("7.50"),
	})

	assert.True(t, types.MustMoney("7.50").Equal(bal.AvgUnitCost))
}

func TestMagazinTracksSellingPrice(t *testing.T) {
	bal := Balance{}

	policy, err := PolicyFor(warehouse.TypeMagazin)
	require.NoError(t, err)
	assert.False(t, policy.TracksBatches())
	assert.False(t, policy.Flagged())

	policy.ApplyReceipt(&bal, ReceiptLine{
		Quantity:     types.NewQuantityFromInt(3),
		UnitPrice:    types.MustMoney("10"),
		SellingPrice: types.MustMoney("14.99"),
	})

	assert.Equal(t, types.NewQuantityFromInt(3), bal.Quantity)
	assert.True(t, types.MustMoney("14.99").Equal(bal.SellingPrice))
	assert.True(t, bal.AvgUnitCost.IsZero())

	// A line without a selling price keeps the previous one.
	policy.ApplyReceipt(&bal, ReceiptLine{Quantity: types.NewQuantityFromInt(1)})
	assert.True(t, types.MustMoney("14.99").Equal(bal.SellingPrice))
}

func TestCustodieKeepsZeroCost(t *testing.T) {
	bal := Balance{AvgUnitCost: types.MustMoney("5")}

	policy, err := PolicyFor(warehouse.TypeCustodie)
	require.NoError(t, err)
	assert.False(t, policy.TracksBatches())

	policy.ApplyReceipt(&bal, ReceiptLine{
		Quantity:  types.NewQuantityFromInt(2),
		UnitPrice: types.MustMoney("10"),
	})

	assert.Equal(t, types.NewQuantityFromInt(2), bal.Quantity)
	assert.True(t, bal.AvgUnitCost.IsZero())
}

func TestTransferActsLikeDepozitButFlagged(t *testing.T) {
	policy, err := PolicyFor(warehouse.TypeTransfer)
	require.NoError(t, err)

	assert.True(t, policy.TracksBatches())
	assert.True(t, policy.Flagged())

	bal := Balance{}
	policy.ApplyReceipt(&bal, ReceiptLine{
		Quantity:  types.NewQuantityFromInt(5),
		UnitPrice: types.MustMoney("2"),
	})
	assert.True(t, types.MustMoney("2").Equal(bal.AvgUnitCost))
}

func TestPolicyForRejectsUnknownType(t *testing.T) {
	_, err := PolicyFor(warehouse.Type("virtual"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
