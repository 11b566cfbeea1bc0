// Package warehouse provides the warehouse directory consumed by the
// inventory core. The core never mutates warehouse master data; it only
// resolves warehouses by id to drive costing and posting rules.
package warehouse

import (
	"context"

	"gestoc/internal/core/apperror"
	"gestoc/internal/core/entity"
	"gestoc/internal/core/id"
)

// Type defines the warehouse classification.
// The type determines costing/posting rules and is immutable after creation
// (business rule, not enforced by storage).
type Type string

const (
	TypeDepozit  Type = "depozit"  // owned goods, weighted-average cost, ledger postings
	TypeMagazin  Type = "magazin"  // retail store, tracks selling price instead of cost
	TypeCustodie Type = "custodie" // goods held in custody, zero cost
	TypeTransfer Type = "transfer" // in-transit goods, permitted but unusual receipt target
)

// Valid reports whether t is a known warehouse type.
func (t Type) Valid() bool {
	switch t {
	case TypeDepozit, TypeMagazin, TypeCustodie, TypeTransfer:
		return true
	}
	return false
}

// TracksBatches reports whether stock in this warehouse type carries
// lot-level records for FIFO/LIFO costing.
func (t Type) TracksBatches() bool {
	return t == TypeDepozit || t == TypeTransfer
}

// Warehouse represents a storage location for goods.
type Warehouse struct {
	entity.BaseEntity

	CompanyID string `db:"company_id" json:"companyId"`
	Code      string `db:"code" json:"code"`
	Name      string `db:"name" json:"name"`
	Type      Type   `db:"type" json:"type"`
	IsActive  bool   `db:"is_active" json:"isActive"`
}

// New creates a new Warehouse with required fields.
func New(companyID, code, name string, whType Type) *Warehouse {
	return &Warehouse{
		BaseEntity: entity.NewBaseEntity(),
		CompanyID:  companyID,
		Code:       code,
		Name:       name,
		Type:       whType,
		IsActive:   true,
	}
}

// Validate implements entity.Validatable.
func (w *Warehouse) Validate(ctx context.Context) error {
	if w.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}

	if !w.Type.Valid() {
		return apperror.NewValidation("invalid warehouse type").
			WithDetail("field", "type").
			WithDetail("value", string(w.Type))
	}

	return nil
}

// CanAcceptStock returns true if the warehouse can receive goods.
func (w *Warehouse) CanAcceptStock() bool {
	return w.IsActive
}

// Directory provides read-only warehouse lookups.
// The inventory core consumes this as an external collaborator.
type Directory interface {
	// GetByID retrieves a warehouse by ID.
	GetByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error)

	// Exists checks if a warehouse with the given ID exists.
	Exists(ctx context.Context, warehouseID id.ID) (bool, error)
}
