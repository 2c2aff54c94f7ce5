package postgres

import (
	"context"
	"testing"

	"eventhub/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var campaignColumnNames = []string{"id", "title", "description", "start_date", "end_date", "type", "target_audience", "status", "reach", "engagement", "conversions", "creator_id", "created_at", "updated_at"}

func TestCampaignRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM marketing_campaigns`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM marketing_campaigns`).WithArgs("u1", 20, 0).
		WillReturnRows(sqlmock.NewRows(campaignColumnNames).
			AddRow("c1", "Spring", "Promo", fixedTime, fixedTime, "email", []byte(`{students,locals}`), "draft", 100, 10, 1, "u1", fixedTime, fixedTime))

	campaigns, total, err := NewCampaignRepository(db).List(context.Background(), "u1", domain.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, campaigns, 1)
	assert.Equal(t, []string{"students", "locals"}, campaigns[0].TargetAudience)
	assert.Equal(t, domain.CampaignMetrics{Reach: 100, Engagement: 10, Conversions: 1}, campaigns[0].Metrics)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_Stats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM marketing_campaigns`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active", "completed"}).AddRow(10, 3, 5))

	stats, err := NewCampaignRepository(db).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &domain.CampaignStats{Total: 10, Active: 3, Completed: 5, Draft: 2}, stats)
}
