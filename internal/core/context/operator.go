package context

import "context"

// Operator identifies who is performing the current operation.
// Populated by the calling layer (HTTP handlers, schedulers); consumed by
// audit records and logging.
type Operator struct {
	UserID    string
	CompanyID string
}

type operatorKey struct{}

// WithOperator adds Operator to context.
func WithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

// GetOperator returns Operator from context, or nil.
func GetOperator(ctx context.Context) *Operator {
	if v, ok := ctx.Value(operatorKey{}).(*Operator); ok {
		return v
	}
	return nil
}

// GetUserID returns the acting user's ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if op := GetOperator(ctx); op != nil {
		return op.UserID
	}
	return ""
}

// GetCompanyID returns the acting company's ID from context or empty string.
func GetCompanyID(ctx context.Context) string {
	if op := GetOperator(ctx); op != nil {
		return op.CompanyID
	}
	return ""
}
