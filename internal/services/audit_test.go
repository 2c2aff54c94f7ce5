package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryAuditRepo is an append-only in-memory AuditLogRepository. Each append gets a strictly
// later created_at, like a store that stamps entries at acceptance.
type memoryAuditRepo struct {
	mu        sync.Mutex
	entries   []*domain.AuditLogEntry
	clock     time.Time
	appendErr error
	listErr   error
}

func newMemoryAuditRepo() *memoryAuditRepo {
	return &memoryAuditRepo{clock: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (r *memoryAuditRepo) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.clock = r.clock.Add(time.Millisecond)
	entry.CreatedAt = r.clock
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *memoryAuditRepo) newestFirst(keep func(*domain.AuditLogEntry) bool, skip, limit int) []*domain.AuditLogEntry {
	var out []*domain.AuditLogEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if keep(r.entries[i]) {
			out = append(out, r.entries[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if skip >= len(out) {
		return []*domain.AuditLogEntry{}
	}
	out = out[skip:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out
}

func (r *memoryAuditRepo) List(ctx context.Context, filter domain.AuditLogFilter, skip, limit int) ([]*domain.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.newestFirst(func(e *domain.AuditLogEntry) bool {
		return filter.AdminID == "" || e.AdminID == filter.AdminID
	}, skip, limit), nil
}

func (r *memoryAuditRepo) ListByEntity(ctx context.Context, entityType, entityID string, skip, limit int) ([]*domain.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.newestFirst(func(e *domain.AuditLogEntry) bool {
		return e.EntityType == entityType && e.EntityID == entityID
	}, skip, limit), nil
}

func (r *memoryAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

type countingFailures struct {
	mu      sync.Mutex
	actions []string
}

func (c *countingFailures) IncAuditFailure(action string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, action)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuditService_RecordThenListReturnsNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := NewAuditService(newMemoryAuditRepo())

	entry, err := svc.Record(ctx, domain.AuditRecord{
		AdminID:    "u1",
		Action:     "update_permissions",
		EntityType: "user",
		EntityID:   "u2",
		Details:    map[string]any{"permissions": []string{"MANAGE_EVENTS"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.JSONEq(t, `{"permissions":["MANAGE_EVENTS"]}`, string(entry.Details))

	list, err := svc.List(ctx, domain.AuditLogFilter{}, 0, 10)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, "u1", list[0].AdminID)
	assert.Equal(t, "update_permissions", list[0].Action)
}

func TestAuditService_SequentialRecordsListInReverse(t *testing.T) {
	ctx := context.Background()
	svc := NewAuditService(newMemoryAuditRepo())

	e1, err := svc.Record(ctx, domain.AuditRecord{AdminID: "u1", Action: "update_role", EntityType: "user", EntityID: "a"})
	require.NoError(t, err)
	e2, err := svc.Record(ctx, domain.AuditRecord{AdminID: "u1", Action: "update_status", EntityType: "user", EntityID: "b"})
	require.NoError(t, err)
	_, err = svc.Record(ctx, domain.AuditRecord{AdminID: "other", Action: "delete_event", EntityType: "event", EntityID: "c"})
	require.NoError(t, err)

	list, err := svc.List(ctx, domain.AuditLogFilter{AdminID: "u1"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, e2.ID, list[0].ID)
	assert.Equal(t, e1.ID, list[1].ID)

	first, err := svc.List(ctx, domain.AuditLogFilter{AdminID: "u1"}, 0, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, e2.ID, first[0].ID)

	second, err := svc.List(ctx, domain.AuditLogFilter{AdminID: "u1"}, 1, 1)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, e1.ID, second[0].ID)
}

func TestAuditService_ListByEntity(t *testing.T) {
	ctx := context.Background()
	svc := NewAuditService(newMemoryAuditRepo())
	for _, action := range []string{"update_event", "update_event_status"} {
		_, err := svc.Record(ctx, domain.AuditRecord{AdminID: "u1", Action: action, EntityType: "event", EntityID: "ev1"})
		require.NoError(t, err)
	}
	_, err := svc.Record(ctx, domain.AuditRecord{AdminID: "u1", Action: "delete_event", EntityType: "event", EntityID: "ev2"})
	require.NoError(t, err)

	list, err := svc.ListByEntity(ctx, "event", "ev1", 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "update_event_status", list[0].Action)
}

func TestAuditService_Record(t *testing.T) {
	tests := []struct {
		name    string
		rec     domain.AuditRecord
		repoErr error
		wantErr error
	}{
		{
			name: "minimal entry",
			rec:  domain.AuditRecord{AdminID: "u1", Action: "create_user", EntityType: "user"},
		},
		{
			name:    "missing action",
			rec:     domain.AuditRecord{AdminID: "u1", EntityType: "user"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "store down",
			rec:     domain.AuditRecord{AdminID: "u1", Action: "create_user", EntityType: "user"},
			repoErr: errors.New("connection refused"),
			wantErr: domain.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryAuditRepo()
			repo.appendErr = tt.repoErr
			svc := NewAuditService(repo)

			entry, err := svc.Record(context.Background(), tt.rec)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, entry)
				return
			}
			require.NoError(t, err)
			assert.Nil(t, entry.Details)
			assert.Empty(t, entry.EntityID)
		})
	}
}

func TestAuditService_ListStoreUnavailable(t *testing.T) {
	repo := newMemoryAuditRepo()
	repo.listErr = errors.New("timeout")
	svc := NewAuditService(repo)

	_, err := svc.List(context.Background(), domain.AuditLogFilter{}, 0, 10)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	_, err = svc.ListByEntity(context.Background(), "user", "u1", 0, 10)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestAuditTrail_FailureIsCountedNotReturned(t *testing.T) {
	repo := newMemoryAuditRepo()
	repo.appendErr = errors.New("disk full")
	failures := &countingFailures{}
	trail := NewAuditTrail(NewAuditService(repo), discardLogger(), failures)

	ok := trail.Record(context.Background(), domain.ActionContext{Actor: domain.Principal{ID: "u1"}}, domain.AuditActionUpdateRole, domain.EntityUser, "u2", nil)
	assert.False(t, ok)
	assert.Equal(t, []string{domain.AuditActionUpdateRole}, failures.actions)
}

func TestAuditTrail_RecordsAfterCancellation(t *testing.T) {
	repo := newMemoryAuditRepo()
	trail := NewAuditTrail(NewAuditService(repo), discardLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok := trail.Record(ctx, domain.ActionContext{Actor: domain.Principal{ID: "u1"}, IPAddress: "10.0.0.1"}, domain.AuditActionDeleteEvent, domain.EntityEvent, "ev1", nil)
	require.True(t, ok)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, "10.0.0.1", repo.entries[0].IPAddress)
}
