package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightraise/couponbook-platform/internal/model"
)

// ProfilePoolInterface defines the database operations needed by ProfileRepository.
type ProfilePoolInterface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ProfileRepository provides read access to user profiles using pgx.
// Profiles are written by the signup and activity flows; targeting only
// reads them.
type ProfileRepository struct {
	pool ProfilePoolInterface
}

// NewProfileRepository creates a new ProfileRepository with the given pool.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// NewProfileRepositoryWithPool creates a new ProfileRepository with a custom pool interface.
// This is primarily used for testing.
func NewProfileRepositoryWithPool(pool ProfilePoolInterface) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Nullable text columns are coalesced to '' so the flat targeting view can
// treat empty string as absent.
const profileColumns = `id, user_id, email,
	COALESCE(zip_code, ''), COALESCE(school_id, ''), COALESCE(grade, ''), COALESCE(referrer_code, ''),
	signup_date, COALESCE(last_activity, '0001-01-01'::timestamptz)`

// GetByUserID retrieves the profile for a user.
// Returns nil, nil if no profile exists (service layer handles this).
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = $1`

	var p model.UserProfile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.Email,
		&p.ZipCode, &p.SchoolID, &p.Grade, &p.ReferrerCode,
		&p.SignupDate, &p.LastActivity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile for user %s: %w", userID, err)
	}
	return &p, nil
}

// ListAll retrieves every user profile, oldest signup first.
// On success, returns an empty slice (not nil) when no profiles exist.
func (r *ProfileRepository) ListAll(ctx context.Context) ([]model.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles ORDER BY signup_date`
	return r.queryProfiles(ctx, query)
}

// ListBySchool retrieves the profiles attached to one school.
func (r *ProfileRepository) ListBySchool(ctx context.Context, schoolID string) ([]model.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE school_id = $1 ORDER BY signup_date`
	return r.queryProfiles(ctx, query, schoolID)
}

func (r *ProfileRepository) queryProfiles(ctx context.Context, query string, args ...any) ([]model.UserProfile, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []model.UserProfile{}
	for rows.Next() {
		var p model.UserProfile
		err := rows.Scan(
			&p.ID, &p.UserID, &p.Email,
			&p.ZipCode, &p.SchoolID, &p.Grade, &p.ReferrerCode,
			&p.SignupDate, &p.LastActivity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}
