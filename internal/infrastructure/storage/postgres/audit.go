package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"gestoc/internal/core/id"
	"gestoc/internal/domain/audit"
)

// CompressionAlgo marks how the payload column is encoded.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// compressThreshold is the payload size above which entries are stored
// zstd-compressed.
const compressThreshold = 10 * 1024

var _ audit.Sink = (*AuditStore)(nil)

// AuditStore persists audit entries in sys_audit. Large payloads are
// compressed with zstd; reads decompress transparently.
type AuditStore struct {
	txManager *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
}

// NewAuditStore creates a new audit store.
func NewAuditStore(txManager *TxManager) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditStore{
		txManager: txManager,
		encoder:   encoder,
		decoder:   decoder,
	}, nil
}

// auditRow is the storage shape of one entry.
type auditRow struct {
	ID                id.ID
	Entity            string
	EntityID          id.ID
	Action            string
	UserID            string
	CompanyID         string
	Payload           json.RawMessage
	PayloadCompressed []byte
	CompressionAlgo   CompressionAlgo
	CreatedAt         time.Time
}

// Write stores one audit entry. Runs on the caller's querier, so it joins an
// active transaction when there is one.
func (s *AuditStore) Write(ctx context.Context, entry audit.Entry) error {
	row := auditRow{
		ID:              id.New(),
		Entity:          entry.Entity,
		EntityID:        entry.EntityID,
		Action:          string(entry.Action),
		UserID:          entry.UserID,
		CompanyID:       entry.CompanyID,
		CompressionAlgo: CompressionNone,
		CreatedAt:       entry.At,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	if entry.Data != nil {
		payload, err := json.Marshal(entry.Data)
		if err != nil {
			return fmt.Errorf("marshal audit payload: %w", err)
		}
		if len(payload) > compressThreshold {
			row.PayloadCompressed = s.encoder.EncodeAll(payload, nil)
			row.CompressionAlgo = CompressionZstd
		} else {
			row.Payload = payload
		}
	}

	sql := `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id, company_id,
			payload, payload_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		row.ID, row.Entity, row.EntityID, row.Action,
		row.UserID, row.CompanyID,
		row.Payload, row.PayloadCompressed, row.CompressionAlgo,
		row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// HistoryRecord is one decoded audit record.
type HistoryRecord struct {
	ID        id.ID
	Entity    string
	EntityID  id.ID
	Action    string
	UserID    string
	CompanyID string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// EntityHistory retrieves audit records for an entity, newest first.
func (s *AuditStore) EntityHistory(ctx context.Context, entity string, entityID id.ID, limit int) ([]HistoryRecord, error) {
	sql := `
		SELECT id, entity_type, entity_id, action, user_id, company_id,
		       payload, payload_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, entity, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		var (
			rec        HistoryRecord
			compressed []byte
			algo       CompressionAlgo
		)
		err := rows.Scan(
			&rec.ID, &rec.Entity, &rec.EntityID, &rec.Action,
			&rec.UserID, &rec.CompanyID,
			&rec.Payload, &compressed, &algo, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}

		if algo == CompressionZstd && len(compressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit payload: %w", err)
			}
			rec.Payload = decompressed
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}
