package postgres

import (
	"context"
	"database/sql"

	"eventhub/internal/domain"
)

// auditLogRepository appends to audit_logs. The table has a seq BIGSERIAL column and a
// created_at defaulting to clock_timestamp(); entries are never updated or deleted.
type auditLogRepository struct {
	DB *sql.DB
}

func NewAuditLogRepository(db *sql.DB) domain.AuditLogRepository {
	return &auditLogRepository{DB: db}
}

func (r *auditLogRepository) Append(ctx context.Context, e *domain.AuditLogEntry) error {
	query := `
		INSERT INTO audit_logs (id, admin_id, action, entity_type, entity_id, details, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	return r.DB.QueryRowContext(ctx, query,
		e.ID, e.AdminID, e.Action, e.EntityType, nullString(e.EntityID), nullString(string(e.Details)), nullString(e.IPAddress),
	).Scan(&e.CreatedAt)
}

func (r *auditLogRepository) List(ctx context.Context, filter domain.AuditLogFilter, skip, limit int) ([]*domain.AuditLogEntry, error) {
	query := `
		SELECT id, admin_id, action, entity_type, entity_id, details, ip_address, created_at
		FROM audit_logs
		WHERE ($1::text = '' OR admin_id::text = $1::text)
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3
	`
	return r.query(ctx, query, filter.AdminID, limit, skip)
}

func (r *auditLogRepository) ListByEntity(ctx context.Context, entityType, entityID string, skip, limit int) ([]*domain.AuditLogEntry, error) {
	query := `
		SELECT id, admin_id, action, entity_type, entity_id, details, ip_address, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, seq DESC
		LIMIT $3 OFFSET $4
	`
	return r.query(ctx, query, entityType, entityID, limit, skip)
}

func (r *auditLogRepository) query(ctx context.Context, query string, args ...any) ([]*domain.AuditLogEntry, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]*domain.AuditLogEntry, 0)
	for rows.Next() {
		e := &domain.AuditLogEntry{}
		var entityID, ip sql.NullString
		var details []byte
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.EntityType, &entityID, &details, &ip, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.EntityID = entityID.String
		e.IPAddress = ip.String
		if len(details) > 0 {
			e.Details = details
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
