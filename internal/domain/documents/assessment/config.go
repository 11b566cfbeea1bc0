package assessment

import "gestoc/pkg/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	NumeratorStrategy = numerator.StrategyStrict

	// NumberPrefix is the document number prefix (INV-2026-00001,
	// "Inventariere").
	NumberPrefix = "INV"
)
