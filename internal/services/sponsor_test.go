package services

import (
	"context"
	"testing"

	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSponsorFixture(sponsors []*domain.Sponsor, banners ...*domain.Banner) (*sponsorService, *fakeSponsorRepo) {
	repo := newFakeSponsorRepo(sponsors...)
	svc := NewSponsorService(repo, newFakeBannerRepo(banners...)).(*sponsorService)
	svc.now = fixedClock
	return svc, repo
}

func TestSponsorService_Create(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSponsorFixture(nil)

	created, err := svc.Create(ctx, member("s1", domain.RoleSponsor), &domain.Sponsor{
		CompanyName: " Acme ", ContactEmail: "Sales@Acme.io", TotalViews: 99,
	})
	require.NoError(t, err)
	assert.Equal(t, "sp-1", created.ID)
	assert.Equal(t, "s1", created.UserID)
	assert.Equal(t, "Acme", created.CompanyName)
	assert.Equal(t, "sales@acme.io", created.ContactEmail)
	assert.Zero(t, created.TotalViews)

	_, err = svc.Create(ctx, member("s1", domain.RoleSponsor), &domain.Sponsor{CompanyName: "Acme 2", ContactEmail: "a@acme.io"})
	assert.ErrorIs(t, err, domain.ErrSponsorProfileExists)

	_, err = svc.Create(ctx, member("u1", domain.RoleUser), &domain.Sponsor{CompanyName: "Acme", ContactEmail: "a@acme.io"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Create(ctx, member("s2", domain.RoleSponsor), &domain.Sponsor{ContactEmail: "a@acme.io"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSponsorService_UpdateMine(t *testing.T) {
	ctx := context.Background()
	svc, repo := newSponsorFixture([]*domain.Sponsor{{ID: "sp-1", UserID: "s1", CompanyName: "Acme", ContactEmail: "a@acme.io"}})

	website := "https://acme.io"
	updated, err := svc.UpdateMine(ctx, member("s1", domain.RoleSponsor), domain.SponsorUpdate{Website: &website})
	require.NoError(t, err)
	assert.Equal(t, &website, updated.Website)
	assert.Equal(t, &website, repo.byID["sp-1"].Website)

	_, err = svc.UpdateMine(ctx, member("s2", domain.RoleSponsor), domain.SponsorUpdate{Website: &website})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSponsorService_Analytics(t *testing.T) {
	live := &domain.Banner{ID: "bn-1", SponsorID: "sp-1", IsActive: true, StartDate: testNow.AddDate(0, 0, -1), EndDate: testNow.AddDate(0, 0, 1), ViewsCount: 10, ClicksCount: 2}
	expired := &domain.Banner{ID: "bn-2", SponsorID: "sp-1", IsActive: true, StartDate: testNow.AddDate(0, -2, 0), EndDate: testNow.AddDate(0, -1, 0), ViewsCount: 5, ClicksCount: 1}
	other := &domain.Banner{ID: "bn-3", SponsorID: "sp-2", IsActive: true, StartDate: testNow, EndDate: testNow, ViewsCount: 100}
	svc, _ := newSponsorFixture([]*domain.Sponsor{{ID: "sp-1", UserID: "s1", TotalViews: 3, TotalClicks: 1}}, live, expired, other)

	a, err := svc.Analytics(context.Background(), member("s1", domain.RoleSponsor))
	require.NoError(t, err)
	assert.Equal(t, &domain.SponsorAnalytics{
		TotalViews:    3,
		TotalClicks:   1,
		ClickThrough:  33.33,
		BannerCount:   2,
		ActiveBanners: 1,
		BannerViews:   15,
		BannerClicks:  3,
	}, a)
}

func TestClickThroughRate(t *testing.T) {
	tests := []struct {
		clicks, views int
		want          float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{1, 4, 25},
		{2, 3, 66.67},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clickThroughRate(tt.clicks, tt.views))
	}
}

func TestSponsorService_ListNeedsManageSponsors(t *testing.T) {
	svc, _ := newSponsorFixture([]*domain.Sponsor{{ID: "sp-1", UserID: "s1"}})
	params := domain.PaginationParams{Page: 1, PageSize: 10}

	_, _, err := svc.List(context.Background(), adminWith("a1", domain.PermissionManageContent), params)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, total, err := svc.List(context.Background(), adminWith("a1", domain.PermissionManageSponsors), params)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)
}

func TestSponsorService_Track(t *testing.T) {
	ctx := context.Background()
	svc, repo := newSponsorFixture([]*domain.Sponsor{{ID: "sp-1", UserID: "s1"}})

	require.NoError(t, svc.Track(ctx, "sp-1", domain.SponsorCounterView))
	require.NoError(t, svc.Track(ctx, "sp-1", domain.SponsorCounterClick))
	assert.Equal(t, 1, repo.byID["sp-1"].TotalViews)
	assert.Equal(t, 1, repo.byID["sp-1"].TotalClicks)

	assert.ErrorIs(t, svc.Track(ctx, "sp-1", "share"), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Track(ctx, "missing", domain.SponsorCounterView), domain.ErrNotFound)
}
