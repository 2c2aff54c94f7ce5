package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminFixture struct {
	svc      *adminService
	users    *fakeUserRepo
	events   *fakeEventRepo
	sponsors *fakeSponsorRepo
	audit    *memoryAuditRepo
}

func newAdminFixture() adminFixture {
	f := adminFixture{
		users:    newFakeUserRepo(),
		events:   newFakeEventRepo(),
		sponsors: newFakeSponsorRepo(),
		audit:    newMemoryAuditRepo(),
	}
	f.svc = NewAdminService(f.users, f.events, f.sponsors, NewAuditService(f.audit)).(*adminService)
	f.svc.now = fixedClock
	return f
}

func window(from, to time.Time) [2]time.Time { return [2]time.Time{from, to} }

func TestPercentageChange(t *testing.T) {
	tests := []struct {
		prev, cur float64
		want      float64
	}{
		{0, 0, 0},
		{0, 7, 100},
		{4, 6, 50},
		{6, 4, -33.3},
		{3, 4, 33.3},
		{10, 10, 0},
		{0.8, 1.2, 50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, percentageChange(tt.prev, tt.cur), "prev=%v cur=%v", tt.prev, tt.cur)
	}
}

func TestAdminService_Metrics(t *testing.T) {
	f := newAdminFixture()
	lastWeek, thisWeek := testNow.Add(-2*week), testNow.Add(-week)

	f.events.total = 20
	f.events.between[window(lastWeek, thisWeek)] = 4
	f.events.between[window(thisWeek, testNow)] = 6
	f.users.stats = &domain.UserStats{Total: 40, Active: 10}
	f.users.active[window(lastWeek, thisWeek)] = 5
	f.users.active[window(thisWeek, testNow)] = 5
	f.sponsors.total = 3
	f.sponsors.between[window(thisWeek, testNow)] = 2

	figures, err := f.svc.Metrics(context.Background(), adminWith("a1", domain.PermissionViewAnalytics))
	require.NoError(t, err)
	assert.Equal(t, []domain.MetricFigure{
		{Name: "events", Value: 20, Change: 50},
		{Name: "active_users", Value: 10, Change: 0},
		{Name: "sponsors", Value: 3, Change: 100},
		{Name: "engagement_rate", Value: 2, Change: 50},
	}, figures)
}

func TestAdminService_Metrics_QueryFailure(t *testing.T) {
	f := newAdminFixture()
	f.events.countErr = errors.New("connection reset")

	_, err := f.svc.Metrics(context.Background(), superAdmin("root"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAdminService_Trends(t *testing.T) {
	f := newAdminFixture()
	f.events.daily = map[string]int{"2025-02-26": 1, "2025-03-01": 4, "2025-03-05": 3}

	trends, err := f.svc.Trends(context.Background(), superAdmin("root"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Wed", "Thu", "Fri", "Sat", "Sun", "Mon", "Tue", "Wed"}, trends.Labels)
	assert.Equal(t, []int{1, 0, 0, 4, 0, 0, 0, 3}, trends.Values)
}

func TestAdminService_Stats(t *testing.T) {
	f := newAdminFixture()
	f.users.stats = &domain.UserStats{Total: 12, Active: 7, ByRole: map[domain.Role]int{domain.RoleUser: 10, domain.RoleSponsor: 2}}
	f.events.total = 9
	f.events.pending = 2
	f.events.recent = []*domain.Event{sampleEvent("ev-9", "org")}
	f.sponsors.total = 2

	stats, err := f.svc.Stats(context.Background(), adminWith("a1", domain.PermissionViewAnalytics))
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalUsers)
	assert.Equal(t, 7, stats.ActiveUsers)
	assert.Equal(t, 9, stats.TotalEvents)
	assert.Equal(t, 2, stats.PendingEvents)
	assert.Equal(t, 2, stats.ActiveSponsors)
	assert.Equal(t, 10, stats.UsersByRole[domain.RoleUser])
	require.Len(t, stats.RecentEvents, 1)
}

func TestAdminService_Activity(t *testing.T) {
	f := newAdminFixture()
	startOfDay := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	f.users.active[window(startOfDay, testNow)] = 3
	f.users.active[window(testNow.Add(-week), testNow)] = 8
	f.users.active[window(testNow.Add(-activeWindow), testNow)] = 15
	f.users.buckets = []domain.LoginCountBucket{{Range: "1-5", Count: 9}}
	f.users.top = []domain.UserActivitySummary{{ID: "u1", LoginCount: 42}}

	activity, err := f.svc.Activity(context.Background(), superAdmin("root"))
	require.NoError(t, err)
	assert.Equal(t, 3, activity.ActiveToday)
	assert.Equal(t, 8, activity.ActiveThisWeek)
	assert.Equal(t, 15, activity.ActiveThisMonth)
	assert.Equal(t, f.users.buckets, activity.ByLoginCount)
	assert.Equal(t, f.users.top, activity.TopActiveUsers)
}

func TestAdminService_RequiresViewAnalytics(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	actors := []domain.Principal{
		member("u1", domain.RoleUser),
		member("s1", domain.RoleSponsor),
		adminWith("a1", domain.PermissionManageUsers, domain.PermissionManageEvents),
		{ID: "broken", Role: domain.RoleOrganizerAdmin, Active: true},
	}
	params := domain.PaginationParams{Page: 1, PageSize: 10}

	for _, actor := range actors {
		_, err := f.svc.Metrics(ctx, actor)
		assert.ErrorIs(t, err, domain.ErrForbidden, actor.ID)
		_, err = f.svc.Trends(ctx, actor)
		assert.ErrorIs(t, err, domain.ErrForbidden, actor.ID)
		_, err = f.svc.Stats(ctx, actor)
		assert.ErrorIs(t, err, domain.ErrForbidden, actor.ID)
		_, err = f.svc.Activity(ctx, actor)
		assert.ErrorIs(t, err, domain.ErrForbidden, actor.ID)
		_, err = f.svc.AuditLogs(ctx, actor, domain.AuditLogFilter{}, params)
		assert.ErrorIs(t, err, domain.ErrForbidden, actor.ID)
		_, err = f.svc.EntityAuditLogs(ctx, actor, domain.EntityUser, "u1", params)
		assert.ErrorIs(t, err, domain.ErrForbidden, actor.ID)
	}
}

func TestAdminService_AuditLogs(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	recorder := NewAuditService(f.audit)
	for _, id := range []string{"u1", "u2", "u1"} {
		_, err := recorder.Record(ctx, domain.AuditRecord{AdminID: "root", Action: domain.AuditActionUpdateRole, EntityType: domain.EntityUser, EntityID: id})
		require.NoError(t, err)
	}
	analyst := adminWith("a1", domain.PermissionViewAnalytics)

	page, err := f.svc.AuditLogs(ctx, analyst, domain.AuditLogFilter{AdminID: "root"}, domain.PaginationParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "u1", page[0].EntityID)

	byEntity, err := f.svc.EntityAuditLogs(ctx, analyst, domain.EntityUser, "u1", domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, byEntity, 2)
}
