package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"eventhub/internal/authz"
	"eventhub/internal/domain"

	"golang.org/x/sync/errgroup"
)

const (
	day              = 24 * time.Hour
	week             = 7 * day
	recentEventLimit = 5
	topActiveLimit   = 10
	dashboardTimeout = 10 * time.Second
)

type adminService struct {
	users    domain.UserRepository
	events   domain.EventRepository
	sponsors domain.SponsorRepository
	audit    domain.AuditRecorder
	now      func() time.Time
}

// NewAdminService creates the AdminService behind the dashboard and audit trail endpoints.
// Every query requires VIEW_ANALYTICS.
func NewAdminService(users domain.UserRepository, events domain.EventRepository, sponsors domain.SponsorRepository, audit domain.AuditRecorder) domain.AdminService {
	return &adminService{users: users, events: events, sponsors: sponsors, audit: audit, now: time.Now}
}

// percentageChange is the change from prev to cur in percent, rounded to one decimal.
// Growth from zero counts as 100.
func percentageChange(prev, cur float64) float64 {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return math.Round((cur-prev)/prev*100*10) / 10
}

func ratio(a, b int) float64 {
	if b <= 0 {
		return 0
	}
	return math.Round(float64(a)/float64(b)*100) / 100
}

func (s *adminService) Metrics(ctx context.Context, actor domain.Principal) ([]domain.MetricFigure, error) {
	if err := authz.Authorize(actor, domain.PermissionViewAnalytics); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, dashboardTimeout)
	defer cancel()

	now := s.now().UTC()
	lastWeekFrom, thisWeekFrom := now.Add(-2*week), now.Add(-week)

	var (
		totalEvents, eventsLast, eventsThis       int
		userStats                                 *domain.UserStats
		usersLast, usersThis                      int
		totalSponsors, sponsorsLast, sponsorsThis int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { totalEvents, err = s.events.Count(ctx); return })
	g.Go(func() (err error) { eventsLast, err = s.events.CountBetween(ctx, lastWeekFrom, thisWeekFrom); return })
	g.Go(func() (err error) { eventsThis, err = s.events.CountBetween(ctx, thisWeekFrom, now); return })
	g.Go(func() (err error) { userStats, err = s.users.Stats(ctx, now.Add(-activeWindow)); return })
	g.Go(func() (err error) { usersLast, err = s.users.CountActiveBetween(ctx, lastWeekFrom, thisWeekFrom); return })
	g.Go(func() (err error) { usersThis, err = s.users.CountActiveBetween(ctx, thisWeekFrom, now); return })
	g.Go(func() (err error) { totalSponsors, err = s.sponsors.Count(ctx); return })
	g.Go(func() (err error) { sponsorsLast, err = s.sponsors.CountCreatedBetween(ctx, lastWeekFrom, thisWeekFrom); return })
	g.Go(func() (err error) { sponsorsThis, err = s.sponsors.CountCreatedBetween(ctx, thisWeekFrom, now); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard metrics: %w", err)
	}

	engagementLast, engagementThis := ratio(eventsLast, usersLast), ratio(eventsThis, usersThis)
	return []domain.MetricFigure{
		{Name: "events", Value: float64(totalEvents), Change: percentageChange(float64(eventsLast), float64(eventsThis))},
		{Name: "active_users", Value: float64(userStats.Active), Change: percentageChange(float64(usersLast), float64(usersThis))},
		{Name: "sponsors", Value: float64(totalSponsors), Change: percentageChange(float64(sponsorsLast), float64(sponsorsThis))},
		{Name: "engagement_rate", Value: ratio(totalEvents, userStats.Active), Change: percentageChange(engagementLast, engagementThis)},
	}, nil
}

func (s *adminService) Trends(ctx context.Context, actor domain.Principal) (*domain.Trends, error) {
	if err := authz.Authorize(actor, domain.PermissionViewAnalytics); err != nil {
		return nil, err
	}
	end := s.now().UTC()
	start := end.Add(-week)
	counts, err := s.events.DailyCounts(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load event trends: %w", err)
	}
	trends := &domain.Trends{Labels: []string{}, Values: []int{}}
	for d := start; !d.After(end); d = d.Add(day) {
		trends.Labels = append(trends.Labels, d.Format("Mon"))
		trends.Values = append(trends.Values, counts[d.Format(time.DateOnly)])
	}
	return trends, nil
}

func (s *adminService) Stats(ctx context.Context, actor domain.Principal) (*domain.AdminStats, error) {
	if err := authz.Authorize(actor, domain.PermissionViewAnalytics); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, dashboardTimeout)
	defer cancel()

	stats := &domain.AdminStats{}
	var userStats *domain.UserStats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { userStats, err = s.users.Stats(ctx, s.now().Add(-activeWindow)); return })
	g.Go(func() (err error) { stats.TotalEvents, err = s.events.Count(ctx); return })
	g.Go(func() (err error) {
		stats.PendingEvents, err = s.events.CountByStatus(ctx, domain.EventStatusPending)
		return
	})
	g.Go(func() (err error) { stats.ActiveSponsors, err = s.sponsors.Count(ctx); return })
	g.Go(func() (err error) { stats.RecentEvents, err = s.events.ListRecent(ctx, recentEventLimit); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load admin stats: %w", err)
	}
	stats.TotalUsers = userStats.Total
	stats.ActiveUsers = userStats.Active
	stats.UsersByRole = userStats.ByRole
	return stats, nil
}

func (s *adminService) Activity(ctx context.Context, actor domain.Principal) (*domain.UserActivity, error) {
	if err := authz.Authorize(actor, domain.PermissionViewAnalytics); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, dashboardTimeout)
	defer cancel()

	now := s.now().UTC()
	startOfDay := now.Truncate(day)
	activity := &domain.UserActivity{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { activity.ActiveToday, err = s.users.CountActiveBetween(ctx, startOfDay, now); return })
	g.Go(func() (err error) { activity.ActiveThisWeek, err = s.users.CountActiveBetween(ctx, now.Add(-week), now); return })
	g.Go(func() (err error) {
		activity.ActiveThisMonth, err = s.users.CountActiveBetween(ctx, now.Add(-activeWindow), now)
		return
	})
	g.Go(func() (err error) { activity.ByLoginCount, err = s.users.LoginCountBuckets(ctx); return })
	g.Go(func() (err error) { activity.TopActiveUsers, err = s.users.TopActive(ctx, topActiveLimit); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load user activity: %w", err)
	}
	return activity, nil
}

func (s *adminService) AuditLogs(ctx context.Context, actor domain.Principal, filter domain.AuditLogFilter, params domain.PaginationParams) ([]*domain.AuditLogEntry, error) {
	if err := authz.Authorize(actor, domain.PermissionViewAnalytics); err != nil {
		return nil, err
	}
	return s.audit.List(ctx, filter, params.Offset(), params.Limit())
}

func (s *adminService) EntityAuditLogs(ctx context.Context, actor domain.Principal, entityType, entityID string, params domain.PaginationParams) ([]*domain.AuditLogEntry, error) {
	if err := authz.Authorize(actor, domain.PermissionViewAnalytics); err != nil {
		return nil, err
	}
	return s.audit.ListByEntity(ctx, entityType, entityID, params.Offset(), params.Limit())
}
