package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop_api/internal/model"
	"shop_api/internal/observability"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
	SetOTP(ctx context.Context, id int64, code string, expiresAt time.Time) error
	ResetPassword(ctx context.Context, id int64, code, passwordHash string, now time.Time) (bool, error)
	UpdateProfilePicture(ctx context.Context, id int64, path string) (*string, error)
}

type userRepository struct {
	db   DB
	prom *observability.Prom
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB, prom *observability.Prom) UserRepository {
	return &userRepository{db: db, prom: prom}
}

const userColumns = `id, first_name, last_name, email, password_hash, role, profile_picture, otp_code, otp_expires_at, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var role string
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &role,
		&u.ProfilePicture, &u.OTPCode, &u.OTPExpiresAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return u, nil
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (first_name, last_name, email, password_hash, role)
            VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err := observe(r.prom, "users.create", func() error {
		return r.db.QueryRow(ctx, sql, user.FirstName, user.LastName, user.Email, user.PasswordHash, string(user.Role)).
			Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapPgError(err))
	}
	return nil
}

// FindByEmail retrieves a user by email. A missing user is (nil, nil).
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "users.find_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindByID retrieves a user by ID. A missing user is (nil, nil).
func (r *userRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, "users.find_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) findOne(ctx context.Context, op, sql string, arg any) (*model.User, error) {
	var user *model.User
	err := observe(r.prom, op, func() error {
		var err error
		user, err = scanUser(r.db.QueryRow(ctx, sql, arg))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindAll lists users ordered by id
func (r *userRepository) FindAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := observe(r.prom, "users.find_all", func() error {
		rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, *u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update writes the profile fields of an existing user
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	sql := `UPDATE users SET first_name = $1, last_name = $2, email = $3
            WHERE id = $4 RETURNING updated_at`
	err := observe(r.prom, "users.update", func() error {
		return r.db.QueryRow(ctx, sql, user.FirstName, user.LastName, user.Email, user.ID).Scan(&user.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update user: %w", mapPgError(err))
	}
	return nil
}

// Delete removes a user; purchases cascade
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	var affected int64
	err := observe(r.prom, "users.delete", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetOTP stores a password reset code and its expiry
func (r *userRepository) SetOTP(ctx context.Context, id int64, code string, expiresAt time.Time) error {
	var affected int64
	err := observe(r.prom, "users.set_otp", func() error {
		tag, err := r.db.Exec(ctx, `UPDATE users SET otp_code = $1, otp_expires_at = $2 WHERE id = $3`, code, expiresAt, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResetPassword replaces the password hash and clears the OTP only while the
// stored code matches and is unexpired. It reports whether a row changed, so a
// code can be consumed at most once.
func (r *userRepository) ResetPassword(ctx context.Context, id int64, code, passwordHash string, now time.Time) (bool, error) {
	sql := `UPDATE users SET password_hash = $1, otp_code = NULL, otp_expires_at = NULL
            WHERE id = $2 AND otp_code = $3 AND otp_expires_at > $4`
	var affected int64
	err := observe(r.prom, "users.reset_password", func() error {
		tag, err := r.db.Exec(ctx, sql, passwordHash, id, code, now)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to reset password: %w", err)
	}
	return affected == 1, nil
}

// UpdateProfilePicture sets the picture path and returns the previous one, if any.
func (r *userRepository) UpdateProfilePicture(ctx context.Context, id int64, path string) (*string, error) {
	sql := `UPDATE users u SET profile_picture = $1
            FROM (SELECT id, profile_picture FROM users WHERE id = $2 FOR UPDATE) old
            WHERE u.id = old.id
            RETURNING old.profile_picture`
	var previous *string
	err := observe(r.prom, "users.update_profile_picture", func() error {
		return r.db.QueryRow(ctx, sql, path, id).Scan(&previous)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile picture: %w", err)
	}
	return previous, nil
}
