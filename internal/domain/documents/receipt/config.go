package receipt

import "gestoc/pkg/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// NIR is a primary accounting document, so numbers must be gapless.
	NumeratorStrategy = numerator.StrategyStrict

	// NumberPrefix is the document number prefix (NIR-2026-00001).
	NumberPrefix = "NIR"
)
