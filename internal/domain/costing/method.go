// Package costing provides the costing engine: stock valuation and batch
// consumption under FIFO, LIFO, or weighted-average costing.
package costing

import (
	"gestoc/internal/core/apperror"
	"gestoc/internal/domain/registers/batch"
)

// Method selects the costing algorithm. The three methods are mutually
// exclusive per valuation call.
type Method string

const (
	MethodFIFO            Method = "fifo"
	MethodLIFO            Method = "lifo"
	MethodWeightedAverage Method = "weighted_average"
)

// Valid reports whether m is a known costing method.
func (m Method) Valid() bool {
	switch m {
	case MethodFIFO, MethodLIFO, MethodWeightedAverage:
		return true
	}
	return false
}

// UsesBatchOrder reports whether the method selects batches in a specific
// order. Weighted average aggregates without batch identity.
func (m Method) UsesBatchOrder() bool {
	return m == MethodFIFO || m == MethodLIFO
}

// consumeOrder maps a batch-ordered method to the ledger's consume order.
func (m Method) consumeOrder() (batch.ConsumeOrder, error) {
	switch m {
	case MethodFIFO:
		return batch.OrderOldestFirst, nil
	case MethodLIFO:
		return batch.OrderNewestFirst, nil
	default:
		return "", apperror.NewValidation("method has no batch consumption order").
			WithDetail("field", "method").
			WithDetail("value", string(m))
	}
}
