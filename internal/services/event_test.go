package services

import (
	"context"
	"testing"

	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventFixture(events ...*domain.Event) (*eventService, *fakeEventRepo, *memoryAuditRepo) {
	trail, audit := newTestTrail()
	repo := newFakeEventRepo(events...)
	svc := NewEventService(repo, trail).(*eventService)
	svc.now = fixedClock
	return svc, repo, audit
}

func sampleEvent(id, organizer string) *domain.Event {
	return &domain.Event{
		ID:          id,
		Title:       "Go Meetup",
		Location:    "Main Hall",
		City:        "Berlin",
		EventType:   "meetup",
		EventDate:   testNow.AddDate(0, 1, 0),
		Status:      domain.EventStatusPending,
		OrganizerID: organizer,
	}
}

func TestEventService_Create(t *testing.T) {
	svc, repo, _ := newEventFixture()

	in := sampleEvent("", "someone-else")
	in.Title = "  Go Meetup "
	in.EventType = "MEETUP"
	in.Status = domain.EventStatusApproved
	created, err := svc.Create(context.Background(), member("u1", domain.RoleUser), in)
	require.NoError(t, err)
	assert.Equal(t, "ev-1", created.ID)
	assert.Equal(t, "u1", created.OrganizerID)
	assert.Equal(t, domain.EventStatusPending, created.Status)
	assert.Equal(t, "Go Meetup", created.Title)
	assert.Equal(t, "meetup", created.EventType)
	assert.Equal(t, testNow, created.CreatedAt)
	assert.Len(t, repo.byID, 1)
}

func TestEventService_Create_Validation(t *testing.T) {
	svc, _, _ := newEventFixture()
	_, err := svc.Create(context.Background(), member("u1", domain.RoleUser), &domain.Event{Title: "x"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "location, city, event_type, event_date")

	_, err = svc.Create(context.Background(), member("u1", domain.RoleUser), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEventService_Update(t *testing.T) {
	title := "Renamed"
	tests := []struct {
		name       string
		actor      domain.Principal
		wantErr    error
		wantAudits []string
	}{
		{name: "organizer edits own event", actor: member("org", domain.RoleUser)},
		{name: "event manager edits any event", actor: adminWith("a1", domain.PermissionManageEvents), wantAudits: []string{domain.AuditActionUpdateEvent}},
		{name: "other user denied", actor: member("u2", domain.RoleUser), wantErr: domain.ErrForbidden},
		{name: "admin without grant denied", actor: adminWith("a2", domain.PermissionManageContent), wantErr: domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, audit := newEventFixture(sampleEvent("ev-1", "org"))
			updated, err := svc.Update(context.Background(), actionBy(tt.actor), "ev-1", domain.EventUpdate{Title: &title})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "Go Meetup", repo.byID["ev-1"].Title)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Renamed", updated.Title)
			assert.Equal(t, "Renamed", repo.byID["ev-1"].Title)
			assert.Equal(t, tt.wantAudits, nilIfEmpty(audit.actions()))
		})
	}
}

func TestEventService_Update_NotFound(t *testing.T) {
	svc, _, _ := newEventFixture()
	_, err := svc.Update(context.Background(), actionBy(superAdmin("root")), "missing", domain.EventUpdate{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_Delete(t *testing.T) {
	ctx := context.Background()

	svc, repo, audit := newEventFixture(sampleEvent("ev-1", "org"))
	require.ErrorIs(t, svc.Delete(ctx, actionBy(member("u2", domain.RoleUser)), "ev-1"), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, actionBy(member("org", domain.RoleUser)), "ev-1"))
	assert.Empty(t, repo.byID)
	assert.Empty(t, audit.actions())

	svc, repo, audit = newEventFixture(sampleEvent("ev-1", "org"))
	require.NoError(t, svc.Delete(ctx, actionBy(superAdmin("root")), "ev-1"))
	assert.Empty(t, repo.byID)
	assert.Equal(t, []string{domain.AuditActionDeleteEvent}, audit.actions())
	assert.Equal(t, "ev-1", audit.entries[0].EntityID)
}

func TestEventService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		actor   domain.Principal
		status  domain.EventStatus
		wantErr error
	}{
		{name: "event manager approves", actor: adminWith("a1", domain.PermissionManageEvents), status: "Approved"},
		{name: "organizer cannot moderate", actor: member("org", domain.RoleUser), status: domain.EventStatusApproved, wantErr: domain.ErrForbidden},
		{name: "unknown status", actor: superAdmin("root"), status: "archived", wantErr: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, audit := newEventFixture(sampleEvent("ev-1", "org"))
			updated, err := svc.UpdateStatus(context.Background(), actionBy(tt.actor), "ev-1", tt.status)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.statusWrites)
				assert.Empty(t, audit.actions())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.EventStatusApproved, updated.Status)
			assert.Equal(t, []domain.EventStatus{domain.EventStatusApproved}, repo.statusWrites)
			assert.Equal(t, []string{domain.AuditActionUpdateEventStatus}, audit.actions())
		})
	}
}

func TestEventService_ListUpcoming(t *testing.T) {
	past := sampleEvent("ev-old", "org")
	past.EventDate = testNow.AddDate(0, 0, -1)
	svc, _, _ := newEventFixture(past, sampleEvent("ev-new", "org"))

	events, err := svc.ListUpcoming(context.Background(), domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev-new", events[0].ID)
}
