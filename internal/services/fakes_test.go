package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"eventhub/internal/domain"
)

var testNow = time.Date(2025, 3, 5, 15, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func superAdmin(id string) domain.Principal {
	return domain.Principal{ID: id, Role: domain.RoleOrganizerAdmin, AdminLevel: domain.AdminLevelSuper, Active: true}
}

func adminWith(id string, perms ...domain.Permission) domain.Principal {
	return domain.Principal{
		ID:          id,
		Role:        domain.RoleOrganizerAdmin,
		AdminLevel:  domain.AdminLevelAdmin,
		Permissions: domain.NewPermissionSet(perms...),
		Active:      true,
	}
}

func member(id string, role domain.Role) domain.Principal {
	return domain.Principal{ID: id, Role: role, Active: true}
}

func userFrom(p domain.Principal, email string) *domain.User {
	return &domain.User{
		ID:          p.ID,
		Email:       email,
		Role:        p.Role,
		AdminLevel:  p.AdminLevel,
		Permissions: p.Permissions,
		IsActive:    p.Active,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
}

// fakeUserRepo implements domain.UserRepository in memory.
type fakeUserRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.User
	seq       int
	createErr error
	getErr    error
	txErr     error
	logins    []string
	stats     *domain.UserStats
	active    map[[2]time.Time]int
	buckets   []domain.LoginCountBucket
	top       []domain.UserActivitySummary
	txReads   int
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{byID: make(map[string]*domain.User), active: make(map[[2]time.Time]int)}
	for _, u := range users {
		r.byID[u.ID] = u
	}
	return r
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	f.seq++
	u.ID = fmt.Sprintf("user-%d", f.seq)
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) List(ctx context.Context, params domain.PaginationParams) ([]*domain.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for _, existing := range f.byID {
		if existing.ID != u.ID && existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) RecordLogin(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLogin = &at
	u.LoginCount++
	f.logins = append(f.logins, id)
	return nil
}

// WithAccessTx mirrors the postgres implementation: fresh snapshots in, change applied only
// when mutate succeeds, admin fields cleared when leaving the admin role.
func (f *fakeUserRepo) WithAccessTx(ctx context.Context, actorID, targetID string, mutate domain.AccessMutation) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txReads++
	if f.txErr != nil {
		return nil, f.txErr
	}
	target, ok := f.byID[targetID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	actor, ok := f.byID[actorID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	a, t := *actor, *target
	change, err := mutate(&a, &t)
	if err != nil {
		return nil, err
	}
	if change.Role != domain.RoleOrganizerAdmin {
		change.AdminLevel = domain.AdminLevelNone
		change.Permissions = 0
	}
	target.Role = change.Role
	target.AdminLevel = change.AdminLevel
	target.Permissions = change.Permissions
	target.IsActive = change.IsActive
	target.UpdatedAt = testNow
	cp := *target
	return &cp, nil
}

func (f *fakeUserRepo) Stats(ctx context.Context, activeSince time.Time) (*domain.UserStats, error) {
	if f.stats == nil {
		return &domain.UserStats{ByRole: map[domain.Role]int{}}, nil
	}
	return f.stats, nil
}

func (f *fakeUserRepo) CountActiveBetween(ctx context.Context, from, to time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active[[2]time.Time{from, to}], nil
}

func (f *fakeUserRepo) LoginCountBuckets(ctx context.Context) ([]domain.LoginCountBucket, error) {
	return f.buckets, nil
}

func (f *fakeUserRepo) TopActive(ctx context.Context, limit int) ([]domain.UserActivitySummary, error) {
	return f.top, nil
}

func (f *fakeUserRepo) stored(id string) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

// fakeSessionStore implements domain.SessionStore in memory.
type fakeSessionStore struct {
	mu        sync.Mutex
	sessions  map[string]map[string]bool
	seq       int
	createErr error
	deleteErr error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]map[string]bool)}
}

func (f *fakeSessionStore) Create(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.seq++
	id := fmt.Sprintf("sess-%d", f.seq)
	if f.sessions[userID] == nil {
		f.sessions[userID] = make(map[string]bool)
	}
	f.sessions[userID][id] = true
	return &domain.Session{ID: id, UserID: userID, CreatedAt: testNow, ExpiresAt: testNow.Add(ttl)}, nil
}

func (f *fakeSessionStore) Exists(ctx context.Context, userID, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[userID][sessionID], nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, userID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.sessions[userID], sessionID)
	return nil
}

func (f *fakeSessionStore) DeleteAllForUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.sessions, userID)
	return nil
}

func (f *fakeSessionStore) ListActive(ctx context.Context, userID string) ([]*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Session
	for id := range f.sessions[userID] {
		out = append(out, &domain.Session{ID: id, UserID: userID})
	}
	return out, nil
}

func (f *fakeSessionStore) count(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions[userID])
}

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct{}

func (fakePasswordHasher) GenerateSalt() (string, error) { return "salt", nil }
func (fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash-" + salt + "-" + password, nil
}
func (fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash-"+salt+"-"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokenIssuer implements domain.TokenIssuer for tests.
type fakeTokenIssuer struct {
	err    error
	issued []domain.TokenClaims
}

func (f *fakeTokenIssuer) Issue(claims domain.TokenClaims, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.issued = append(f.issued, claims)
	return "token-" + claims.UserID + "-" + claims.SessionID, nil
}

// fakeEmailService records welcome emails.
type fakeEmailService struct {
	err  error
	sent []*domain.WelcomeMessageEmailData
}

func (f *fakeEmailService) SendWelcomeMessage(ctx context.Context, data *domain.WelcomeMessageEmailData) error {
	f.sent = append(f.sent, data)
	return f.err
}

// fakeEventRepo implements domain.EventRepository in memory.
type fakeEventRepo struct {
	mu           sync.Mutex
	byID         map[string]*domain.Event
	seq          int
	total        int
	pending      int
	between      map[[2]time.Time]int
	daily        map[string]int
	recent       []*domain.Event
	countErr     error
	statusWrites []domain.EventStatus
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	r := &fakeEventRepo{byID: make(map[string]*domain.Event), between: make(map[[2]time.Time]int)}
	for _, e := range events {
		r.byID[e.ID] = e
	}
	return r
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	e.ID = fmt.Sprintf("ev-%d", f.seq)
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.byID {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func (f *fakeEventRepo) ListUpcoming(ctx context.Context, from time.Time, params domain.PaginationParams) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.byID {
		if !e.EventDate.Before(from) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListRecent(ctx context.Context, limit int) ([]*domain.Event, error) {
	return f.recent, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[e.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) UpdateStatus(ctx context.Context, id string, status domain.EventStatus, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = at
	f.statusWrites = append(f.statusWrites, status)
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeEventRepo) Count(ctx context.Context) (int, error) { return f.total, f.countErr }

func (f *fakeEventRepo) CountByStatus(ctx context.Context, status domain.EventStatus) (int, error) {
	return f.pending, nil
}

func (f *fakeEventRepo) CountBetween(ctx context.Context, from, to time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.between[[2]time.Time{from, to}], nil
}

func (f *fakeEventRepo) DailyCounts(ctx context.Context, from, to time.Time) (map[string]int, error) {
	return f.daily, nil
}

// fakeSponsorRepo implements domain.SponsorRepository in memory.
type fakeSponsorRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.Sponsor
	seq     int
	total   int
	between map[[2]time.Time]int
}

func newFakeSponsorRepo(sponsors ...*domain.Sponsor) *fakeSponsorRepo {
	r := &fakeSponsorRepo{byID: make(map[string]*domain.Sponsor), between: make(map[[2]time.Time]int)}
	for _, s := range sponsors {
		r.byID[s.ID] = s
	}
	return r
}

func (f *fakeSponsorRepo) Create(ctx context.Context, s *domain.Sponsor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.UserID == s.UserID {
			return domain.ErrSponsorProfileExists
		}
	}
	f.seq++
	s.ID = fmt.Sprintf("sp-%d", f.seq)
	cp := *s
	f.byID[s.ID] = &cp
	return nil
}

func (f *fakeSponsorRepo) GetByID(ctx context.Context, id string) (*domain.Sponsor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSponsorRepo) GetByUserID(ctx context.Context, userID string) (*domain.Sponsor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byID {
		if s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSponsorRepo) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Sponsor, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Sponsor, 0, len(f.byID))
	for _, s := range f.byID {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (f *fakeSponsorRepo) Update(ctx context.Context, s *domain.Sponsor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[s.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	f.byID[s.ID] = &cp
	return nil
}

func (f *fakeSponsorRepo) Increment(ctx context.Context, id string, counter domain.SponsorCounter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	switch counter {
	case domain.SponsorCounterView:
		s.TotalViews++
	case domain.SponsorCounterClick:
		s.TotalClicks++
	default:
		return domain.ErrInvalidInput
	}
	return nil
}

func (f *fakeSponsorRepo) Count(ctx context.Context) (int, error) { return f.total, nil }

func (f *fakeSponsorRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.between[[2]time.Time{from, to}], nil
}

// fakeBannerRepo implements domain.BannerRepository in memory.
type fakeBannerRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Banner
	seq  int
}

func newFakeBannerRepo(banners ...*domain.Banner) *fakeBannerRepo {
	r := &fakeBannerRepo{byID: make(map[string]*domain.Banner)}
	for _, b := range banners {
		r.byID[b.ID] = b
	}
	return r
}

func (f *fakeBannerRepo) Create(ctx context.Context, b *domain.Banner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	b.ID = fmt.Sprintf("bn-%d", f.seq)
	cp := *b
	f.byID[b.ID] = &cp
	return nil
}

func (f *fakeBannerRepo) GetByID(ctx context.Context, id string) (*domain.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBannerRepo) ListActive(ctx context.Context, position string, at time.Time) ([]*domain.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Banner
	for _, b := range f.byID {
		if b.LiveAt(at) && (position == "" || b.Position == position) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBannerRepo) ListBySponsor(ctx context.Context, sponsorID string) ([]*domain.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Banner
	for _, b := range f.byID {
		if b.SponsorID == sponsorID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBannerRepo) Update(ctx context.Context, b *domain.Banner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[b.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *b
	f.byID[b.ID] = &cp
	return nil
}

func (f *fakeBannerRepo) Increment(ctx context.Context, id string, counter domain.BannerCounter) (*domain.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	switch counter {
	case domain.BannerCounterView:
		b.ViewsCount++
	case domain.BannerCounterClick:
		b.ClicksCount++
	default:
		return nil, domain.ErrInvalidInput
	}
	cp := *b
	return &cp, nil
}

// fakeCampaignRepo implements domain.CampaignRepository in memory.
type fakeCampaignRepo struct {
	mu          sync.Mutex
	byID        map[string]*domain.Campaign
	seq         int
	listCreator *string
}

func newFakeCampaignRepo(campaigns ...*domain.Campaign) *fakeCampaignRepo {
	r := &fakeCampaignRepo{byID: make(map[string]*domain.Campaign)}
	for _, c := range campaigns {
		r.byID[c.ID] = c
	}
	return r
}

func (f *fakeCampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	c.ID = fmt.Sprintf("cmp-%d", f.seq)
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCampaignRepo) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCampaignRepo) List(ctx context.Context, creatorID string, params domain.PaginationParams) ([]*domain.Campaign, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCreator = &creatorID
	var out []*domain.Campaign
	for _, c := range f.byID {
		if creatorID == "" || c.CreatorID == creatorID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (f *fakeCampaignRepo) Update(ctx context.Context, c *domain.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[c.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCampaignRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeCampaignRepo) Stats(ctx context.Context) (*domain.CampaignStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := &domain.CampaignStats{Total: len(f.byID)}
	for _, c := range f.byID {
		switch c.Status {
		case domain.CampaignStatusActive:
			st.Active++
		case domain.CampaignStatusCompleted:
			st.Completed++
		default:
			st.Draft++
		}
	}
	return st, nil
}

// newTestTrail returns an AuditTrail over an in-memory store.
func newTestTrail() (*AuditTrail, *memoryAuditRepo) {
	repo := newMemoryAuditRepo()
	return NewAuditTrail(NewAuditService(repo), discardLogger(), nil), repo
}
