package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Audit actions recorded after privileged mutations.
const (
	AuditActionCreateUser            = "create_user"
	AuditActionUpdateRole            = "update_role"
	AuditActionUpdateStatus          = "update_status"
	AuditActionUpdateAdminLevel      = "update_admin_level"
	AuditActionUpdatePermissions     = "update_permissions"
	AuditActionUpdateEvent           = "update_event"
	AuditActionDeleteEvent           = "delete_event"
	AuditActionUpdateEventStatus     = "update_event_status"
	AuditActionUpdateBanner          = "update_banner"
	AuditActionUpdateCampaign        = "update_campaign"
	AuditActionDeleteCampaign        = "delete_campaign"
	AuditActionUpdateCampaignMetrics = "update_campaign_metrics"
)

// Audited entity types.
const (
	EntityUser     = "user"
	EntityEvent    = "event"
	EntityBanner   = "banner"
	EntityCampaign = "campaign"
)

// AuditRecord is the caller-supplied part of an audit entry.
type AuditRecord struct {
	AdminID    string
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	IPAddress  string
}

// AuditLogEntry is an immutable, append-only record of a privileged action.
// swagger:model AuditLogEntry
type AuditLogEntry struct {
	ID         string          `json:"id"`
	AdminID    string          `json:"admin_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id,omitempty"`
	Details    json.RawMessage `json:"details,omitempty" swaggertype:"object"`
	IPAddress  string          `json:"ip_address,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditLogFilter narrows List. An empty AdminID means all admins.
type AuditLogFilter struct {
	AdminID string
}

// AuditLogRepository is the append-only audit store. It has no update or delete.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *AuditLogEntry) error
	List(ctx context.Context, filter AuditLogFilter, skip, limit int) ([]*AuditLogEntry, error)
	ListByEntity(ctx context.Context, entityType, entityID string, skip, limit int) ([]*AuditLogEntry, error)
}

// AuditRecorder records and reads the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, rec AuditRecord) (*AuditLogEntry, error)
	List(ctx context.Context, filter AuditLogFilter, skip, limit int) ([]*AuditLogEntry, error)
	ListByEntity(ctx context.Context, entityType, entityID string, skip, limit int) ([]*AuditLogEntry, error)
}
