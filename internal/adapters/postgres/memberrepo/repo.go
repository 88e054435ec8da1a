package memberrepo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tripsync/planner/internal/adapters/postgres"
	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/ports/out/memberrepo"
)

// Repo is a Postgres implementation of memberrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, m domain.Member) (domain.UserID, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := m.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	var id int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if m.ID != 0 {
			_, err := tx.Exec(ctx, `
				INSERT INTO members (id, display_name, email, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5)
			`, int64(m.ID), m.DisplayName, m.Email, createdAt.UTC(), updatedAt.UTC())
			if err != nil {
				return err
			}
			id = int64(m.ID)
			// Keep the sequence ahead of manually chosen ids.
			_, err = tx.Exec(ctx, `SELECT setval('members_id_seq', (SELECT COALESCE(MAX(id), 1) FROM members))`)
			return err
		}
		return tx.QueryRow(ctx, `
			INSERT INTO members (display_name, email, created_at, updated_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, m.DisplayName, m.Email, createdAt.UTC(), updatedAt.UTC()).Scan(&id)
	})
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			switch pe.ConstraintName {
			case "members_email_unique":
				return 0, memberrepo.ErrEmailTaken
			case "members_pkey":
				return 0, memberrepo.ErrAlreadyExists
			default:
				return 0, err
			}
		}
		return 0, err
	}
	return domain.UserID(id), nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (domain.Member, error) {
	if r.pool == nil {
		return domain.Member{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, display_name, email, created_at, updated_at
		FROM members
		WHERE id = $1
	`, int64(id))
	return scanMember(row)
}

func (r *Repo) List(ctx context.Context) ([]domain.Member, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, display_name, email, created_at, updated_at
		FROM members
		ORDER BY lower(display_name) ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Defensive: ensure ordering even if collation differs.
	sortMembers(out)
	return out, nil
}

// --- helpers ---

func scanMember(row interface {
	Scan(dest ...any) error
}) (domain.Member, error) {
	var (
		id          int64
		displayName string
		email       string
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(&id, &displayName, &email, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Member{}, memberrepo.ErrNotFound
		}
		return domain.Member{}, err
	}
	return domain.Member{
		ID:          domain.UserID(id),
		DisplayName: displayName,
		Email:       email,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   updatedAt.UTC(),
	}, nil
}

func sortMembers(ms []domain.Member) {
	sort.Slice(ms, func(i, j int) bool {
		di := strings.ToLower(ms[i].DisplayName)
		dj := strings.ToLower(ms[j].DisplayName)
		if di == dj {
			return ms[i].ID < ms[j].ID
		}
		return di < dj
	})
}
