package activityrepo

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tripsync/planner/internal/adapters/postgres"
	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/ports/out/activityrepo"
)

// Repo is a Postgres implementation of activityrepo.Repository. The invite
// list and candidate time options persist as child rows keyed by position,
// so aggregate reads reassemble them in join order.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	if r.pool == nil {
		return domain.Activity{}, errors.New("nil postgres pool")
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := a.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	var id int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if a.ID != 0 {
			_, err := tx.Exec(ctx, `
				INSERT INTO activities (
					id, trip_id, name, description, location, category_hint,
					kind, start_time, end_time, rsvp_close_time, max_capacity,
					creator_id, visibility, shared, created_at, updated_at
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			`,
				int64(a.ID), int64(a.TripID), a.Name, a.Description, a.Location, a.CategoryHint,
				string(a.Kind), a.StartTime, a.EndTime, a.RSVPCloseTime, a.MaxCapacity,
				creatorForDB(a.CreatorID), a.Visibility, a.Shared, createdAt.UTC(), updatedAt.UTC(),
			)
			if err != nil {
				return err
			}
			id = int64(a.ID)
			// Keep the sequence ahead of manually chosen ids.
			if _, err := tx.Exec(ctx, `SELECT setval('activities_id_seq', (SELECT COALESCE(MAX(id), 1) FROM activities))`); err != nil {
				return err
			}
		} else {
			err := tx.QueryRow(ctx, `
				INSERT INTO activities (
					trip_id, name, description, location, category_hint,
					kind, start_time, end_time, rsvp_close_time, max_capacity,
					creator_id, visibility, shared, created_at, updated_at
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
				RETURNING id
			`,
				int64(a.TripID), a.Name, a.Description, a.Location, a.CategoryHint,
				string(a.Kind), a.StartTime, a.EndTime, a.RSVPCloseTime, a.MaxCapacity,
				creatorForDB(a.CreatorID), a.Visibility, a.Shared, createdAt.UTC(), updatedAt.UTC(),
			).Scan(&id)
			if err != nil {
				return err
			}
		}
		return insertChildren(ctx, tx, id, a)
	})
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "activities_pkey" {
			return domain.Activity{}, activityrepo.ErrAlreadyExists
		}
		return domain.Activity{}, err
	}
	return r.GetByID(ctx, domain.ActivityID(id))
}

func (r *Repo) Save(ctx context.Context, a domain.Activity) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE activities
			SET trip_id = $2,
			    name = $3,
			    description = $4,
			    location = $5,
			    category_hint = $6,
			    kind = $7,
			    start_time = $8,
			    end_time = $9,
			    rsvp_close_time = $10,
			    max_capacity = $11,
			    creator_id = $12,
			    visibility = $13,
			    shared = $14,
			    updated_at = $15
			WHERE id = $1
		`,
			int64(a.ID), int64(a.TripID), a.Name, a.Description, a.Location, a.CategoryHint,
			string(a.Kind), a.StartTime, a.EndTime, a.RSVPCloseTime, a.MaxCapacity,
			creatorForDB(a.CreatorID), a.Visibility, a.Shared, a.UpdatedAt.UTC(),
		)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return activityrepo.ErrNotFound
		}

		// Last write wins for the whole aggregate: replace the child rows.
		if _, err := tx.Exec(ctx, `DELETE FROM activity_time_options WHERE activity_id = $1`, int64(a.ID)); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM activity_invites WHERE activity_id = $1`, int64(a.ID)); err != nil {
			return err
		}
		return insertChildren(ctx, tx, int64(a.ID), a)
	})
}

func (r *Repo) GetByID(ctx context.Context, id domain.ActivityID) (domain.Activity, error) {
	if r.pool == nil {
		return domain.Activity{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, coreSelect+` WHERE a.id = $1`, int64(id))
	a, err := scanActivity(row)
	if err != nil {
		return domain.Activity{}, err
	}

	options, err := loadTimeOptions(ctx, r.pool, []int64{int64(a.ID)})
	if err != nil {
		return domain.Activity{}, err
	}
	invites, err := loadInvites(ctx, r.pool, []int64{int64(a.ID)})
	if err != nil {
		return domain.Activity{}, err
	}
	a.TimeOptions = options[int64(a.ID)]
	a.Invites = invites[int64(a.ID)]
	a.Counts = domain.CountInvites(a.Invites)
	return a, nil
}

func (r *Repo) ListByTrip(ctx context.Context, tripID domain.TripID) ([]domain.Activity, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, coreSelect+`
		WHERE a.trip_id = $1
		ORDER BY a.start_time ASC NULLS LAST, a.created_at ASC, a.id ASC
	`, int64(tripID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Activity, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
		ids = append(ids, int64(a.ID))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	options, err := loadTimeOptions(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	invites, err := loadInvites(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		id := int64(out[i].ID)
		out[i].TimeOptions = options[id]
		out[i].Invites = invites[id]
		out[i].Counts = domain.CountInvites(out[i].Invites)
	}
	// Mirror the in-memory sorting rule for determinism.
	sortActivities(out)
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ActivityID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, int64(id))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return activityrepo.ErrNotFound
	}
	return nil
}

// --- helpers ---

const coreSelect = `
	SELECT
		a.id,
		a.trip_id,
		a.name,
		a.description,
		a.location,
		a.category_hint,
		a.kind,
		a.start_time,
		a.end_time,
		a.rsvp_close_time,
		a.max_capacity,
		a.creator_id,
		a.visibility,
		a.shared,
		a.created_at,
		a.updated_at
	FROM activities a
`

func scanActivity(row interface {
	Scan(dest ...any) error
}) (domain.Activity, error) {
	var (
		id            int64
		tripID        int64
		name          string
		description   *string
		location      *string
		categoryHint  *string
		kind          string
		startTime     *time.Time
		endTime       *time.Time
		rsvpCloseTime *time.Time
		maxCapacity   *int
		creatorID     *int64
		visibility    *string
		shared        *bool
		createdAt     time.Time
		updatedAt     time.Time
	)
	if err := row.Scan(
		&id, &tripID, &name, &description, &location, &categoryHint,
		&kind, &startTime, &endTime, &rsvpCloseTime, &maxCapacity,
		&creatorID, &visibility, &shared, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Activity{}, activityrepo.ErrNotFound
		}
		return domain.Activity{}, err
	}

	a := domain.Activity{
		ID:            domain.ActivityID(id),
		TripID:        domain.TripID(tripID),
		Name:          name,
		Description:   description,
		Location:      location,
		CategoryHint:  categoryHint,
		Kind:          domain.ActivityKind(kind),
		StartTime:     utcPtr(startTime),
		EndTime:       utcPtr(endTime),
		RSVPCloseTime: utcPtr(rsvpCloseTime),
		MaxCapacity:   maxCapacity,
		Visibility:    visibility,
		Shared:        shared,
		CreatedAt:     createdAt.UTC(),
		UpdatedAt:     updatedAt.UTC(),
	}
	if creatorID != nil {
		a.CreatorID = domain.UserID(*creatorID)
	}
	return a, nil
}

func insertChildren(ctx context.Context, tx pgx.Tx, activityID int64, a domain.Activity) error {
	for i, opt := range a.TimeOptions {
		if _, err := tx.Exec(ctx, `
			INSERT INTO activity_time_options (activity_id, position, option_time)
			VALUES ($1, $2, $3)
		`, activityID, i, opt.UTC()); err != nil {
			return err
		}
	}
	for i, inv := range a.Invites {
		if _, err := tx.Exec(ctx, `
			INSERT INTO activity_invites (activity_id, user_id, position, status, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		`, activityID, int64(inv.UserID), i, string(inv.Status), inv.UpdatedAt.UTC()); err != nil {
			return err
		}
	}
	return nil
}

func loadTimeOptions(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, activityIDs []int64) (map[int64][]time.Time, error) {
	rows, err := q.Query(ctx, `
		SELECT activity_id, option_time
		FROM activity_time_options
		WHERE activity_id = ANY($1)
		ORDER BY activity_id ASC, position ASC
	`, activityIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]time.Time)
	for rows.Next() {
		var id int64
		var opt time.Time
		if err := rows.Scan(&id, &opt); err != nil {
			return nil, err
		}
		out[id] = append(out[id], opt.UTC())
	}
	return out, rows.Err()
}

func loadInvites(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, activityIDs []int64) (map[int64][]domain.Invite, error) {
	rows, err := q.Query(ctx, `
		SELECT i.activity_id, i.user_id, m.display_name, m.email, i.status, i.updated_at
		FROM activity_invites i
		JOIN members m ON m.id = i.user_id
		WHERE i.activity_id = ANY($1)
		ORDER BY i.activity_id ASC, i.position ASC
	`, activityIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.Invite)
	for rows.Next() {
		var (
			activityID  int64
			userID      int64
			displayName string
			email       string
			status      string
			updatedAt   time.Time
		)
		if err := rows.Scan(&activityID, &userID, &displayName, &email, &status, &updatedAt); err != nil {
			return nil, err
		}
		out[activityID] = append(out[activityID], domain.Invite{
			UserID: domain.UserID(userID),
			User: &domain.UserSummary{
				ID:          domain.UserID(userID),
				DisplayName: displayName,
				Email:       email,
			},
			Status:    domain.InviteStatus(status),
			UpdatedAt: updatedAt.UTC(),
		})
	}
	return out, rows.Err()
}

func sortActivities(as []domain.Activity) {
	sort.Slice(as, func(i, j int) bool {
		a, b := as[i], as[j]
		switch {
		case a.StartTime != nil && b.StartTime != nil:
			if !a.StartTime.Equal(*b.StartTime) {
				return a.StartTime.Before(*b.StartTime)
			}
		case a.StartTime != nil:
			return true
		case b.StartTime != nil:
			return false
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func creatorForDB(id domain.UserID) *int64 {
	if id == 0 {
		return nil
	}
	v := int64(id)
	return &v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
