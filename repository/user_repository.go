package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mentorhub/entity"

	"github.com/jmoiron/sqlx"
)

// UserRepository interface defines user data operations
type UserRepository interface {
	Create(user *entity.User) (*entity.User, error)
	GetByID(id int) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	Update(user *entity.User) (*entity.User, error)
	UpdatePassword(id int, passwordHash string) error
	MarkEmailVerified(id int) error
	UpdateLastLogin(id int) error
	SetActive(id int, active bool) error
	List(page, pageSize int, search string) ([]entity.User, int, error)
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

// Create creates a new user
func (r *userRepository) Create(user *entity.User) (*entity.User, error) {
	query := `
		INSERT INTO users (email, password_hash, full_name, role, email_verified, is_active, created_at, updated_at)
		VALUES (:email, :password_hash, :full_name, :role, :email_verified, :is_active, :created_at, :updated_at)
		RETURNING id, email, password_hash, full_name, role, email_verified, is_active, last_login_at, created_at, updated_at
	`

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	rows, err := r.db.NamedQuery(query, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("failed to get created user")
	}

	var createdUser entity.User
	if err := rows.StructScan(&createdUser); err != nil {
		return nil, fmt.Errorf("failed to scan created user: %w", err)
	}

	return &createdUser, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(id int) (*entity.User, error) {
	query := `
		SELECT id, email, password_hash, full_name, role, email_verified, is_active, last_login_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user entity.User
	err := r.db.Get(&user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves a user by normalized e-mail
func (r *userRepository) GetByEmail(email string) (*entity.User, error) {
	query := `
		SELECT id, email, password_hash, full_name, role, email_verified, is_active, last_login_at, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	var user entity.User
	err := r.db.Get(&user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// Update rewrites the mutable account fields of an existing user
func (r *userRepository) Update(user *entity.User) (*entity.User, error) {
	query := `
		UPDATE users
		SET full_name = :full_name, password_hash = :password_hash, role = :role, updated_at = CURRENT_TIMESTAMP
		WHERE id = :id
		RETURNING id, email, password_hash, full_name, role, email_verified, is_active, last_login_at, created_at, updated_at
	`

	rows, err := r.db.NamedQuery(query, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("user not found")
	}

	var updatedUser entity.User
	if err := rows.StructScan(&updatedUser); err != nil {
		return nil, fmt.Errorf("failed to scan updated user: %w", err)
	}

	return &updatedUser, nil
}

// UpdatePassword replaces the stored password hash
func (r *userRepository) UpdatePassword(id int, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	return r.execExpectingRow(query, "user not found", id, passwordHash)
}

// MarkEmailVerified flags the account as verified
func (r *userRepository) MarkEmailVerified(id int) error {
	query := `
		UPDATE users
		SET email_verified = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	return r.execExpectingRow(query, "user not found", id)
}

// UpdateLastLogin updates the last login timestamp for a user
func (r *userRepository) UpdateLastLogin(id int) error {
	query := `
		UPDATE users
		SET last_login_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND is_active = TRUE
	`

	return r.execExpectingRow(query, "user not found or inactive", id)
}

// SetActive toggles the account on or off
func (r *userRepository) SetActive(id int, active bool) error {
	query := `
		UPDATE users
		SET is_active = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	return r.execExpectingRow(query, "user not found", id, active)
}

func (r *userRepository) execExpectingRow(query, notFoundMsg string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s", notFoundMsg)
	}

	return nil
}

// List retrieves paginated users with optional search on e-mail or name
func (r *userRepository) List(page, pageSize int, search string) ([]entity.User, int, error) {
	offset := (page - 1) * pageSize

	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	if search != "" {
		whereClause = fmt.Sprintf("WHERE email ILIKE $%d OR full_name ILIKE $%d", argIndex, argIndex)
		args = append(args, "%"+strings.ToLower(search)+"%")
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM users %s", whereClause)
	var total int
	err := r.db.Get(&total, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT id, email, password_hash, full_name, role, email_verified, is_active, last_login_at, created_at, updated_at
		FROM users
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	var users []entity.User
	err = r.db.Select(&users, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}
