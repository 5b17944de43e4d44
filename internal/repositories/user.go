package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mpetrashov/user-geo-service/internal/logger"
	"github.com/mpetrashov/user-geo-service/internal/models"
)

// userRow mirrors one row of the users table. The json tags match the column
// names so the same struct decodes trigger notification payloads.
type userRow struct {
	UserID    string  `db:"user_id" json:"user_id"`
	Name      string  `db:"name" json:"name"`
	ZipCode   string  `db:"zip_code" json:"zip_code"`
	Country   string  `db:"country" json:"country"`
	Latitude  float64 `db:"latitude" json:"latitude"`
	Longitude float64 `db:"longitude" json:"longitude"`
	Timezone  string  `db:"timezone" json:"timezone"`
	CreatedAt int64   `db:"created_at" json:"created_at"`
	UpdatedAt int64   `db:"updated_at" json:"updated_at"`
}

func (r userRow) toUser() models.User {
	return models.User{
		ID:        r.UserID,
		Name:      r.Name,
		ZipCode:   r.ZipCode,
		Country:   r.Country,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Timezone:  r.Timezone,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const userColumns = "user_id, name, zip_code, country, latitude, longitude, timezone, created_at, updated_at"

// UserRepository is the store adapter over the flat users collection.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a repository backed by the given database.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Get returns the user with the given id, or nil when no such row exists.
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	var row userRow
	err := r.db.GetContext(ctx, &row, query, id)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{id},
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user := row.toUser()
	return &user, nil
}

// List returns the full contents of the collection.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users`

	var rows []userRow
	err := r.db.SelectContext(ctx, &rows, query)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"result", len(rows),
		"error", err,
	)

	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

// Create inserts a new user. The id is assigned by the store; the stored
// record is returned.
func (r *UserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (name, zip_code, country, latitude, longitude, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	args := []any{user.Name, user.ZipCode, user.Country, user.Latitude, user.Longitude, user.Timezone, user.CreatedAt, user.UpdatedAt}

	var row userRow
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&row)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"error", err,
	)

	if err != nil {
		return models.User{}, err
	}
	return row.toUser(), nil
}

// Update applies a partial update with merge semantics: only the fields set
// on upd are written, everything else is preserved. It returns the merged row,
// or nil when the id does not exist.
func (r *UserRepository) Update(ctx context.Context, id string, upd models.UserUpdate, updatedAt int64) (*models.User, error) {
	set := make([]string, 0, 7)
	args := make([]any, 0, 8)

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.ZipCode != nil {
		add("zip_code", *upd.ZipCode)
	}
	if upd.Country != nil {
		add("country", *upd.Country)
	}
	if upd.Latitude != nil {
		add("latitude", *upd.Latitude)
	}
	if upd.Longitude != nil {
		add("longitude", *upd.Longitude)
	}
	if upd.Timezone != nil {
		add("timezone", *upd.Timezone)
	}
	add("updated_at", updatedAt)

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE user_id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), userColumns,
	)

	var row userRow
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&row)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user := row.toUser()
	return &user, nil
}

// Delete removes the user with the given id and reports whether a row
// actually existed.
func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM users WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{id},
		"result", rowsAffected,
		"error", err,
	)

	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}
