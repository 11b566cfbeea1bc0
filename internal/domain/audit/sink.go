// Package audit defines the fire-and-forget audit sink consumed after each
// mutating operation.
package audit

import (
	"context"
	"time"

	appctx "gestoc/internal/core/context"
	"gestoc/internal/core/id"
	"gestoc/pkg/logger"
)

// Action classifies the audited operation.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionApprove  Action = "approve"
	ActionFinalize Action = "finalize"
	ActionCancel   Action = "cancel"
)

// Entry is one audit record.
type Entry struct {
	Action    Action
	Entity    string
	EntityID  id.ID
	UserID    string
	CompanyID string
	Data      map[string]any
	At        time.Time
}

// Sink persists audit entries.
type Sink interface {
	Write(ctx context.Context, entry Entry) error
}

// Recorder wraps a Sink with the core's degraded-mode policy: audit failures
// never block the primary operation, they surface as warnings only.
type Recorder struct {
	sink Sink
}

// NewRecorder creates a Recorder. A nil sink disables auditing.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

// Record writes the entry, filling operator fields from context. Errors are
// logged and swallowed.
func (r *Recorder) Record(ctx context.Context, action Action, entityName string, entityID id.ID, data map[string]any) {
	if r == nil || r.sink == nil {
		return
	}

	entry := Entry{
		Action:    action,
		Entity:    entityName,
		EntityID:  entityID,
		UserID:    appctx.GetUserID(ctx),
		CompanyID: appctx.GetCompanyID(ctx),
		Data:      data,
		At:        time.Now().UTC(),
	}

	if err := r.sink.Write(ctx, entry); err != nil {
		logger.Warn(ctx, "audit write failed, continuing degraded",
			"action", string(action),
			"entity", entityName,
			"entity_id", entityID,
			"error", err,
		)
	}
}
