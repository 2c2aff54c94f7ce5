package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventhub/internal/domain"
)

const eventColumns = `id, title, description, location, city, event_date, event_type, image_url, status, is_sponsored, organizer_id, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(row scanner) (*domain.Event, error) {
	e := &domain.Event{}
	var imageURL sql.NullString
	var status string
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.City, &e.EventDate, &e.EventType,
		&imageURL, &status, &e.IsSponsored, &e.OrganizerID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.ImageURL = stringPtr(imageURL)
	e.Status = domain.EventStatus(status)
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, location, city, event_date, event_type, image_url, status, is_sponsored, organizer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Location, e.City, e.EventDate, e.EventType, nullStringPtr(e.ImageURL),
		string(e.Status), e.IsSponsored, e.OrganizerID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// eventWhere builds the WHERE clause for a filter; args are numbered from 1.
func eventWhere(f domain.EventFilter) (string, []any) {
	var conds []string
	var args []any
	if f.City != "" {
		args = append(args, f.City)
		conds = append(conds, fmt.Sprintf("LOWER(city) = LOWER($%d)", len(args)))
	}
	if f.EventType != "" {
		args = append(args, f.EventType)
		conds = append(conds, fmt.Sprintf("event_type = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *eventRepository) List(ctx context.Context, f domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	where, args := eventWhere(f)
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT %s FROM events%s ORDER BY event_date DESC, id LIMIT $%d OFFSET $%d`,
		eventColumns, where, len(args)+1, len(args)+2)
	events, err := r.query(ctx, query, append(args, params.Limit(), params.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) ListUpcoming(ctx context.Context, from time.Time, params domain.PaginationParams) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE event_date >= $1 ORDER BY event_date ASC, id LIMIT $2 OFFSET $3`
	return r.query(ctx, query, from, params.Limit(), params.Offset())
}

func (r *eventRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at DESC, id LIMIT $1`
	return r.query(ctx, query, limit)
}

func (r *eventRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, location = $3, city = $4, event_date = $5, event_type = $6,
			image_url = $7, is_sponsored = $8, updated_at = $9
		WHERE id = $10
	`
	res, err := r.DB.ExecContext(ctx, query,
		e.Title, e.Description, e.Location, e.City, e.EventDate, e.EventType,
		nullStringPtr(e.ImageURL), e.IsSponsored, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res, domain.ErrNotFound)
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id string, status domain.EventStatus, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE events SET status = $1, updated_at = $2 WHERE id = $3`, string(status), at, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, domain.ErrNotFound)
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, domain.ErrNotFound)
}

func (r *eventRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

func (r *eventRepository) CountByStatus(ctx context.Context, status domain.EventStatus) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE status = $1`, string(status)).Scan(&n)
	return n, err
}

func (r *eventRepository) CountBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE event_date >= $1 AND event_date <= $2`, from, to).Scan(&n)
	return n, err
}

// DailyCounts returns event counts keyed by event date formatted as YYYY-MM-DD.
func (r *eventRepository) DailyCounts(ctx context.Context, from, to time.Time) (map[string]int, error) {
	query := `
		SELECT to_char(event_date::date, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM events
		WHERE event_date >= $1 AND event_date <= $2
		GROUP BY day
	`
	rows, err := r.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day] = n
	}
	return counts, rows.Err()
}
