package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestoc/internal/core/entity"
	"gestoc/internal/core/id"
	"gestoc/internal/core/types"
)

type testRow struct {
	entity.BaseEntity

	Name      string         `db:"name"`
	Quantity  types.Quantity `db:"quantity"`
	CreatedAt time.Time      `db:"created_at"`
	Skipped   string         `db:"-"`
	Untagged  string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[testRow]()

	// Embedded BaseEntity fields come first, flattened.
	assert.Equal(t, []string{"id", "deletion_mark", "version", "name", "quantity", "created_at"}, cols)
}

func TestStructToMap(t *testing.T) {
	row := testRow{
		BaseEntity: entity.BaseEntity{ID: id.New(), Version: 3},
		Name:       "marfa",
		Quantity:   types.NewQuantityFromInt(5),
		Skipped:    "ignored",
		Untagged:   "ignored",
	}

	m := StructToMap(&row)

	require.Len(t, m, 6)
	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, false, m["deletion_mark"])
	assert.Equal(t, "marfa", m["name"])
	assert.Equal(t, types.NewQuantityFromInt(5), m["quantity"])
	assert.NotContains(t, m, "Skipped")
	assert.NotContains(t, m, "Untagged")
}

func TestStructToMapValueAndPointerAgree(t *testing.T) {
	row := testRow{Name: "x"}

	assert.Equal(t, StructToMap(row), StructToMap(&row))
}

func TestStructToMapNonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("str"))
}
