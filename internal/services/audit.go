package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"eventhub/internal/domain"

	"github.com/google/uuid"
)

const auditWriteTimeout = 5 * time.Second

type auditService struct {
	repo  domain.AuditLogRepository
	newID func() string
}

// NewAuditService returns an AuditRecorder that appends to repo. It applies no business rules:
// every privileged call site records its own entry.
func NewAuditService(repo domain.AuditLogRepository) domain.AuditRecorder {
	return &auditService{repo: repo, newID: uuid.NewString}
}

func (s *auditService) Record(ctx context.Context, rec domain.AuditRecord) (*domain.AuditLogEntry, error) {
	if rec.AdminID == "" || rec.Action == "" || rec.EntityType == "" {
		return nil, fmt.Errorf("%w: audit entry needs admin_id, action and entity_type", domain.ErrInvalidInput)
	}
	entry := &domain.AuditLogEntry{
		ID:         s.newID(),
		AdminID:    rec.AdminID,
		Action:     rec.Action,
		EntityType: rec.EntityType,
		EntityID:   rec.EntityID,
		IPAddress:  rec.IPAddress,
	}
	if len(rec.Details) > 0 {
		raw, err := json.Marshal(rec.Details)
		if err != nil {
			return nil, fmt.Errorf("%w: audit details: %v", domain.ErrInvalidInput, err)
		}
		entry.Details = raw
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: append audit entry: %w", domain.ErrStoreUnavailable, err)
	}
	return entry, nil
}

func (s *auditService) List(ctx context.Context, filter domain.AuditLogFilter, skip, limit int) ([]*domain.AuditLogEntry, error) {
	entries, err := s.repo.List(ctx, filter, max(skip, 0), max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("%w: list audit entries: %w", domain.ErrStoreUnavailable, err)
	}
	return entries, nil
}

func (s *auditService) ListByEntity(ctx context.Context, entityType, entityID string, skip, limit int) ([]*domain.AuditLogEntry, error) {
	entries, err := s.repo.ListByEntity(ctx, entityType, entityID, max(skip, 0), max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("%w: list audit entries: %w", domain.ErrStoreUnavailable, err)
	}
	return entries, nil
}

// AuditFailureCounter counts audit entries that could not be stored.
type AuditFailureCounter interface {
	IncAuditFailure(action string)
}

// AuditTrail records audit entries on behalf of services after a mutation has been applied.
// A failed record is logged and counted but never undoes the mutation.
type AuditTrail struct {
	recorder domain.AuditRecorder
	logger   *slog.Logger
	failures AuditFailureCounter
}

// NewAuditTrail returns an AuditTrail. failures may be nil.
func NewAuditTrail(recorder domain.AuditRecorder, logger *slog.Logger, failures AuditFailureCounter) *AuditTrail {
	return &AuditTrail{recorder: recorder, logger: logger, failures: failures}
}

// Record appends an entry for ac's actor. It reports whether the entry was stored.
func (t *AuditTrail) Record(ctx context.Context, ac domain.ActionContext, action, entityType, entityID string, details map[string]any) bool {
	// The mutation is already committed, so a cancelled request must not drop its entry.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	_, err := t.recorder.Record(ctx, domain.AuditRecord{
		AdminID:    ac.Actor.ID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		IPAddress:  ac.IPAddress,
	})
	if err == nil {
		return true
	}
	if t.logger != nil {
		t.logger.ErrorContext(ctx, "audit record failed",
			"action", action, "entity_type", entityType, "entity_id", entityID, "admin_id", ac.Actor.ID, "err", err)
	}
	if t.failures != nil {
		t.failures.IncAuditFailure(action)
	}
	return false
}
