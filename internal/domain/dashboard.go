package domain

import "context"

// MetricFigure is one dashboard figure with its week-over-week change in percent.
type MetricFigure struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
}

// Trends holds one value per day with its weekday label.
type Trends struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// AdminStats is the platform overview shown to admins.
type AdminStats struct {
	TotalUsers     int          `json:"total_users"`
	ActiveUsers    int          `json:"active_users"`
	TotalEvents    int          `json:"total_events"`
	PendingEvents  int          `json:"pending_events"`
	ActiveSponsors int          `json:"active_sponsors"`
	UsersByRole    map[Role]int `json:"users_by_role"`
	RecentEvents   []*Event     `json:"recent_events"`
}

// UserActivity reports how recently and how often users log in.
type UserActivity struct {
	ActiveToday     int                   `json:"active_today"`
	ActiveThisWeek  int                   `json:"active_this_week"`
	ActiveThisMonth int                   `json:"active_this_month"`
	ByLoginCount    []LoginCountBucket    `json:"users_by_login_count"`
	TopActiveUsers  []UserActivitySummary `json:"top_active_users"`
}

// AdminService defines the admin dashboard and audit trail queries.
type AdminService interface {
	Metrics(ctx context.Context, actor Principal) ([]MetricFigure, error)
	Trends(ctx context.Context, actor Principal) (*Trends, error)
	Stats(ctx context.Context, actor Principal) (*AdminStats, error)
	Activity(ctx context.Context, actor Principal) (*UserActivity, error)
	AuditLogs(ctx context.Context, actor Principal, filter AuditLogFilter, params PaginationParams) ([]*AuditLogEntry, error)
	EntityAuditLogs(ctx context.Context, actor Principal, entityType, entityID string, params PaginationParams) ([]*AuditLogEntry, error)
}
