package triprepo

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tripsync/planner/internal/adapters/postgres"
	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/ports/out/triprepo"
)

// Repo is a Postgres implementation of triprepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, t domain.Trip) (domain.TripID, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := t.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	sd, ed := datePtr(t.StartDate), datePtr(t.EndDate)

	var id int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if t.ID != 0 {
			_, err := tx.Exec(ctx, `
				INSERT INTO trips (id, name, destination, start_date, end_date, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, int64(t.ID), t.Name, t.Destination, sd, ed, createdAt.UTC(), updatedAt.UTC())
			if err != nil {
				return err
			}
			id = int64(t.ID)
			// Keep the sequence ahead of manually chosen ids.
			_, err = tx.Exec(ctx, `SELECT setval('trips_id_seq', (SELECT COALESCE(MAX(id), 1) FROM trips))`)
			return err
		}
		return tx.QueryRow(ctx, `
			INSERT INTO trips (name, destination, start_date, end_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, t.Name, t.Destination, sd, ed, createdAt.UTC(), updatedAt.UTC()).Scan(&id)
	})
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "trips_pkey" {
			return 0, triprepo.ErrAlreadyExists
		}
		return 0, err
	}
	return domain.TripID(id), nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TripID) (domain.Trip, error) {
	if r.pool == nil {
		return domain.Trip{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, destination, start_date, end_date, created_at, updated_at
		FROM trips
		WHERE id = $1
	`, int64(id))
	return scanTrip(row)
}

func (r *Repo) List(ctx context.Context) ([]domain.Trip, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, destination, start_date, end_date, created_at, updated_at
		FROM trips
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Mirror the in-memory sorting rule for determinism.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- helpers ---

func scanTrip(row interface {
	Scan(dest ...any) error
}) (domain.Trip, error) {
	var (
		id          int64
		name        string
		destination *string
		startDate   pgtype.Date
		endDate     pgtype.Date
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(&id, &name, &destination, &startDate, &endDate, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, triprepo.ErrNotFound
		}
		return domain.Trip{}, err
	}
	return domain.Trip{
		ID:          domain.TripID(id),
		Name:        name,
		Destination: destination,
		StartDate:   dateToTimePtr(startDate),
		EndDate:     dateToTimePtr(endDate),
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   updatedAt.UTC(),
	}, nil
}

func datePtr(t *time.Time) pgtype.Date {
	var d pgtype.Date
	if t == nil {
		d.Valid = false
		return d
	}
	tt := t.UTC()
	d.Time = time.Date(tt.Year(), tt.Month(), tt.Day(), 0, 0, 0, 0, time.UTC)
	d.Valid = true
	return d
}

func dateToTimePtr(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
	return &t
}
