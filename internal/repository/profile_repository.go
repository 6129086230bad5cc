package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/randya04/POSitive/internal/domain"
)

// ErrDuplicateEmail marks a unique violation on profiles.email.
var ErrDuplicateEmail = errors.New("profile email already exists")

const profileColumns = "id, full_name, email, role, phone, is_active, restaurant_id, branch_id, created_at, updated_at"

// ProfileRepository handles persistence for staff profiles and their
// branch memberships. branch_users is the source of truth for branch
// scoping; profiles.branch_id is a denormalized primary-branch pointer
// maintained in the same transaction.
type ProfileRepository interface {
	List(ctx context.Context, filter ProfileFilter) ([]domain.Profile, error)
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	Provision(ctx context.Context, profile *domain.Profile) error
	UpdatePartial(ctx context.Context, id string, patch domain.ProfileUpdate) (*domain.Profile, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// ProfileFilter defines query params for profile listing.
type ProfileFilter struct {
	Role         *domain.Role
	RestaurantID *string
	Active       *bool
	Search       string
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository instantiates the repository.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) List(ctx context.Context, filter ProfileFilter) ([]domain.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles"
	args := []any{}
	clauses := []string{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.RestaurantID != nil {
		args = append(args, *filter.RestaurantID)
		clauses = append(clauses, fmt.Sprintf("restaurant_id=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("is_active=$%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		clauses = append(clauses, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Profile
	for rows.Next() {
		var profile domain.Profile
		if err := scanProfile(rows, &profile); err != nil {
			return nil, err
		}
		result = append(result, profile)
	}
	return result, rows.Err()
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	const query = "SELECT " + profileColumns + " FROM profiles WHERE id=$1"

	var profile domain.Profile
	if err := scanProfile(r.pool.QueryRow(ctx, query, id), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	const query = "SELECT " + profileColumns + " FROM profiles WHERE lower(email)=lower($1)"

	var profile domain.Profile
	if err := scanProfile(r.pool.QueryRow(ctx, query, email), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Provision upserts the profile row keyed by the account id and, for
// scoped roles, records the branch membership, atomically.
func (r *profileRepository) Provision(ctx context.Context, profile *domain.Profile) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO profiles (id, full_name, email, role, phone, is_active, restaurant_id, branch_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (id) DO UPDATE
        SET full_name=EXCLUDED.full_name, email=EXCLUDED.email, role=EXCLUDED.role,
            phone=EXCLUDED.phone, is_active=EXCLUDED.is_active,
            restaurant_id=EXCLUDED.restaurant_id, branch_id=EXCLUDED.branch_id,
            updated_at=NOW()
        RETURNING created_at, updated_at`

	if err := tx.QueryRow(ctx, query,
		profile.ID,
		profile.FullName,
		profile.Email,
		profile.Role,
		profile.Phone,
		profile.IsActive,
		profile.RestaurantID,
		profile.BranchID,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt); err != nil {
		return mapUniqueViolation(err)
	}

	if err := replaceMembership(ctx, tx, profile.ID, profile.BranchID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *profileRepository) UpdatePartial(ctx context.Context, id string, patch domain.ProfileUpdate) (*domain.Profile, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	sets := []string{}
	args := []any{}
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if v, ok := patch.FullName.Get(); ok {
		addSet("full_name", v)
	}
	if v, ok := patch.Email.Get(); ok {
		addSet("email", v)
	}
	if v, ok := patch.Role.Get(); ok {
		addSet("role", v)
	}
	if v, ok := patch.Phone.Get(); ok {
		addSet("phone", v)
	}
	if v, ok := patch.IsActive.Get(); ok {
		addSet("is_active", v)
	}
	if v, ok := patch.RestaurantID.Get(); ok {
		addSet("restaurant_id", v)
	}
	if v, ok := patch.BranchID.Get(); ok {
		addSet("branch_id", v)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE profiles SET %s, updated_at=NOW() WHERE id=$%d RETURNING "+profileColumns,
		strings.Join(sets, ", "), len(args))

	var profile domain.Profile
	if err := scanProfile(tx.QueryRow(ctx, query, args...), &profile); err != nil {
		return nil, mapUniqueViolation(err)
	}

	if branch, ok := patch.BranchID.Get(); ok {
		if err := replaceMembership(ctx, tx, id, branch); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = "UPDATE profiles SET is_active=$1, updated_at=NOW() WHERE id=$2"

	cmd, err := r.pool.Exec(ctx, query, active, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) Delete(ctx context.Context, id string) error {
	// branch_users rows cascade via foreign key.
	cmd, err := r.pool.Exec(ctx, "DELETE FROM profiles WHERE id=$1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func replaceMembership(ctx context.Context, tx pgx.Tx, userID string, branchID *string) error {
	if _, err := tx.Exec(ctx, "DELETE FROM branch_users WHERE user_id=$1", userID); err != nil {
		return err
	}
	if branchID == nil {
		return nil
	}
	_, err := tx.Exec(ctx,
		"INSERT INTO branch_users (branch_id, user_id) VALUES ($1,$2) ON CONFLICT DO NOTHING",
		*branchID, userID)
	return err
}

func scanProfile(row pgx.Row, profile *domain.Profile) error {
	return row.Scan(
		&profile.ID,
		&profile.FullName,
		&profile.Email,
		&profile.Role,
		&profile.Phone,
		&profile.IsActive,
		&profile.RestaurantID,
		&profile.BranchID,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}
