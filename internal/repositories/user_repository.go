package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restro_backend/internal/models"

	"github.com/lib/pq"
)

// UserRepository defines the database operations for staff users and roles.
type UserRepository interface {
	CreateUser(executor SQLExecutor, user *models.User) (int64, error)
	GetUserByID(userID int64) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUsers(status *string) ([]models.User, error)
	GetActiveWaiters() ([]models.User, error)
	UpdateUserStatus(executor SQLExecutor, userID int64, status string, updatedAt time.Time) error

	CreateRole(executor SQLExecutor, role *models.Role) (int64, error)
	GetRoleByName(name string) (*models.Role, error)
	GetRoles() ([]models.Role, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userSelect = `SELECT u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name,
	u.role_id, u.status, u.created_at, u.updated_at, r.id, r.name
	FROM users u
	LEFT JOIN roles r ON u.role_id = r.id`

func scanUserWithRole(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	var roleID sql.NullInt64
	var roleName sql.NullString
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.RoleID, &user.Status, &user.CreatedAt, &user.UpdatedAt, &roleID, &roleName,
	)
	if err != nil {
		return nil, err
	}
	if roleID.Valid {
		user.Role = &models.Role{ID: roleID.Int64, Name: roleName.String}
	}
	return user, nil
}

func (r *userRepository) CreateUser(executor SQLExecutor, user *models.User) (int64, error) {
	query := `INSERT INTO users (username, email, password_hash, first_name, last_name, role_id, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.RoleID, user.Status, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateKey, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	return user.ID, nil
}

func (r *userRepository) GetUserByID(userID int64) (*models.User, error) {
	user, err := scanUserWithRole(r.db.QueryRow(userSelect+` WHERE u.id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	return user, nil
}

func (r *userRepository) GetUserByUsername(username string) (*models.User, error) {
	user, err := scanUserWithRole(r.db.QueryRow(userSelect+` WHERE u.username = $1`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting user by username %q: %v", ErrDatabaseError, username, err)
	}
	return user, nil
}

func (r *userRepository) GetUsers(status *string) ([]models.User, error) {
	users := []models.User{}
	query := userSelect
	var args []interface{}
	if status != nil && *status != "" {
		query += " WHERE u.status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY u.id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying users: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUserWithRole(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// GetActiveWaiters returns active users whose role makes them eligible to wait
// tables. Row order is whatever the database returns; callers must not read
// meaning into it.
func (r *userRepository) GetActiveWaiters() ([]models.User, error) {
	users := []models.User{}
	query := userSelect + ` WHERE u.status = $1 AND LOWER(r.name) IN ($2, $3) ORDER BY u.id`

	rows, err := r.db.Query(query, models.UserStatusActive, models.RoleWaiter, models.RoleStaff)
	if err != nil {
		return nil, fmt.Errorf("%w: querying active waiters: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUserWithRole(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning waiter: %v", ErrDatabaseError, err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) UpdateUserStatus(executor SQLExecutor, userID int64, status string, updatedAt time.Time) error {
	result, err := executor.Exec(`UPDATE users SET status = $1, updated_at = $2 WHERE id = $3`, status, updatedAt, userID)
	if err != nil {
		return fmt.Errorf("%w: updating status for user %d: %v", ErrDatabaseError, userID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for user status update ID %d: %v", ErrDatabaseError, userID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) CreateRole(executor SQLExecutor, role *models.Role) (int64, error) {
	query := `INSERT INTO roles (name, description, created_at, updated_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (name) DO UPDATE SET updated_at = EXCLUDED.updated_at
	          RETURNING id`
	if role.CreatedAt.IsZero() {
		role.CreatedAt = time.Now()
	}
	if role.UpdatedAt.IsZero() {
		role.UpdatedAt = time.Now()
	}
	err := executor.QueryRow(query, role.Name, role.Description, role.CreatedAt, role.UpdatedAt).Scan(&role.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating role %q: %v", ErrDatabaseError, role.Name, err)
	}
	return role.ID, nil
}

func (r *userRepository) GetRoleByName(name string) (*models.Role, error) {
	role := &models.Role{}
	query := `SELECT id, name, description, created_at, updated_at FROM roles WHERE LOWER(name) = LOWER($1)`
	err := r.db.QueryRow(query, name).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting role %q: %v", ErrDatabaseError, name, err)
	}
	return role, nil
}

func (r *userRepository) GetRoles() ([]models.Role, error) {
	roles := []models.Role{}
	rows, err := r.db.Query(`SELECT id, name, description, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying roles: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning role: %v", ErrDatabaseError, err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
